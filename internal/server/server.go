package server

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/chaos"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/verify"
	"github.com/google/uuid"
)

// #region config

// Config is the service configuration: session policy, schedule
// generation, trace scoring, and the geometry block advertised to clients.
type Config struct {
	SessionTTL time.Duration
	Chaos      chaos.Config
	Scoring    verify.ScoringConfig

	TargetFPS     int
	FailAngle     float64
	CanvasWidth   int
	CanvasHeight  int
	CartWidth     int
	CartHeight    int
}

// DefaultConfig returns the production service configuration.
func DefaultConfig() Config {
	return Config{
		SessionTTL:   10 * time.Minute,
		Chaos:        chaos.DefaultConfig(),
		Scoring:      verify.DefaultScoringConfig(),
		TargetFPS:    60,
		FailAngle:    1.4,
		CanvasWidth:  600,
		CanvasHeight: 400,
		CartWidth:    60,
		CartHeight:   20,
	}
}

// #endregion config

// #region wire-types

type scheduleBody struct {
	Gravity    []float64 `json:"gravity"`
	Length     []float64 `json:"length"`
	ForceJolts []float64 `json:"force_jolts"`
}

type clientConfigBody struct {
	CanvasWidth   int     `json:"canvas_width"`
	CanvasHeight  int     `json:"canvas_height"`
	CartWidth     int     `json:"cart_width"`
	CartHeight    int     `json:"cart_height"`
	FailAngle     float64 `json:"fail_angle"`
	SuccessFrames int     `json:"success_frames"`
}

type initResponse struct {
	Success      bool             `json:"success"`
	SessionToken string           `json:"session_token"`
	FrameCount   int              `json:"frame_count"`
	TargetFPS    int              `json:"target_fps"`
	Schedule     scheduleBody     `json:"schedule"`
	Config       clientConfigBody `json:"config"`
}

type verifyRequest struct {
	SessionToken *string   `json:"session_token"`
	AngleHistory []float64 `json:"angle_history"`
}

type statsBody struct {
	Duration       float64 `json:"duration"`
	MaxDeviation   float64 `json:"max_deviation"`
	Oscillations   int     `json:"oscillations"`
	StabilityScore int     `json:"stability_score"`
}

type verifyResponse struct {
	Success  bool       `json:"success"`
	Verified bool       `json:"verified"`
	Message  string     `json:"message"`
	Stats    *statsBody `json:"stats,omitempty"`
}

// #endregion wire-types

// #region server

// Server is the verification service: it issues chaos schedules with
// one-time session tokens and scores submitted telemetry traces.
type Server struct {
	cfg     Config
	store   *Store
	hub     *Hub
	logger  *slog.Logger
	handler http.Handler

	mu  sync.Mutex // guards gen; rand.Rand is not goroutine safe
	gen *chaos.Generator
}

// New creates a fully wired server. The hub's Run loop is started here.
func New(store *Store, cfg Config, rng *rand.Rand, logger *slog.Logger) *Server {
	hub := NewHub()
	go hub.Run()

	s := &Server{
		cfg:    cfg,
		store:  store,
		hub:    hub,
		logger: logger,
		gen:    chaos.NewGenerator(cfg.Chaos, rng),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/init_stabilizer", s.handleInit)
	mux.HandleFunc("/verify_stability", s.handleVerify)
	mux.HandleFunc("/ws/monitor", s.handleMonitor)
	s.handler = withCORS(mux)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// #endregion server

// #region handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if n, err := s.store.PurgeExpired(time.Now(), s.cfg.SessionTTL); err != nil {
		s.logger.Warn("session purge failed", "err", err)
	} else if n > 0 {
		s.logger.Info("purged expired sessions", "count", n)
	}

	s.mu.Lock()
	set := s.gen.Generate()
	s.mu.Unlock()

	token := uuid.New().String()
	err := s.store.CreateSession(token, SessionSchedule{
		Gravity:    set.Gravity,
		Length:     set.Length,
		ForceJolts: set.ForceJolts,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		s.logger.Error("session create failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false, "error": "Initialization failed",
		})
		return
	}

	s.logger.Info("session created", "token", token[:8])
	s.hub.Broadcast(newMonitorEvent("session_created", map[string]any{
		"token_prefix": token[:8],
		"frame_count":  s.cfg.Chaos.FrameCount,
	}))

	writeJSON(w, http.StatusOK, initResponse{
		Success:      true,
		SessionToken: token,
		FrameCount:   s.cfg.Chaos.FrameCount,
		TargetFPS:    s.cfg.TargetFPS,
		Schedule: scheduleBody{
			Gravity:    set.Gravity,
			Length:     set.Length,
			ForceJolts: set.ForceJolts,
		},
		Config: clientConfigBody{
			CanvasWidth:   s.cfg.CanvasWidth,
			CanvasHeight:  s.cfg.CanvasHeight,
			CartWidth:     s.cfg.CartWidth,
			CartHeight:    s.cfg.CartHeight,
			FailAngle:     s.cfg.FailAngle,
			SuccessFrames: s.cfg.Chaos.FrameCount,
		},
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionToken == nil || req.AngleHistory == nil {
		s.logger.Warn("verification request missing required data")
		writeJSON(w, http.StatusBadRequest, verifyResponse{
			Success: false, Verified: false,
			Message: "SYSTEM ERROR: Missing required data.",
		})
		return
	}
	token := *req.SessionToken

	_, err := s.store.ConsumeSession(token, time.Now(), s.cfg.SessionTTL)
	if err != nil {
		s.logger.Warn("invalid session token", "token", tokenPrefix(token), "err", err)
		writeJSON(w, http.StatusForbidden, verifyResponse{
			Success: false, Verified: false,
			Message: "SYSTEM ERROR: Invalid or expired session.",
		})
		return
	}

	verdict := verify.Score(req.AngleHistory, s.cfg.Scoring)

	entry := VerificationEntry{
		Token:    token,
		Verified: verdict.Verified,
		Reason:   string(verdict.Reason),
		Frames:   len(req.AngleHistory),
		Message:  verdict.Message,
	}
	if err := s.store.LogVerification(entry); err != nil {
		s.logger.Warn("audit log write failed", "err", err)
	}

	if verdict.Verified {
		s.logger.Info("session verified",
			"token", tokenPrefix(token),
			"frames", len(req.AngleHistory),
			"oscillations", verdict.Stats.Oscillations)
		s.hub.Broadcast(newMonitorEvent("verified", map[string]any{
			"token_prefix": tokenPrefix(token),
			"frames":       len(req.AngleHistory),
		}))
		writeJSON(w, http.StatusOK, verifyResponse{
			Success: true, Verified: true, Message: verdict.Message,
			Stats: &statsBody{
				Duration:       verdict.Stats.DurationSeconds,
				MaxDeviation:   verdict.Stats.MaxDeviationDegrees,
				Oscillations:   verdict.Stats.Oscillations,
				StabilityScore: verdict.Stats.StabilityScore,
			},
		})
		return
	}

	s.logger.Info("session rejected",
		"token", tokenPrefix(token),
		"reason", verdict.Reason,
		"frames", len(req.AngleHistory))
	s.hub.Broadcast(newMonitorEvent("rejected", map[string]any{
		"token_prefix": tokenPrefix(token),
		"reason":       verdict.Reason,
	}))
	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true, Verified: false, Message: verdict.Message,
	})
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	serveMonitorWS(s.hub, s.logger, w, r)
}

// #endregion handlers

// #region helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func tokenPrefix(token string) string {
	if len(token) > 8 {
		return token[:8]
	}
	return token
}

// #endregion helpers
