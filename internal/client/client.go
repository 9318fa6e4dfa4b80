package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/schedule"
)

// #region wire-types

// initResponse mirrors the /init_stabilizer payload.
type initResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"session_token"`
	FrameCount   int    `json:"frame_count"`
	TargetFPS    int    `json:"target_fps"`
	Schedule     struct {
		Gravity    []float64 `json:"gravity"`
		Length     []float64 `json:"length"`
		ForceJolts []float64 `json:"force_jolts"`
	} `json:"schedule"`
}

// verifyRequest mirrors the /verify_stability request body.
type verifyRequest struct {
	SessionToken string    `json:"session_token"`
	AngleHistory []float64 `json:"angle_history"`
}

// #endregion wire-types

// #region client-struct

// Client exchanges schedule and telemetry payloads with the verification
// service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// #endregion client-struct

// #region constructor

// New creates a client for the service at baseURL with a default timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithHTTPClient creates a client with an injected *http.Client.
// Used for testing against httptest servers and for custom timeouts.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// #endregion constructor

// #region acquire-schedule

// AcquireSchedule requests a session token and chaos schedule from the
// service. Any network failure, non-2xx status, or structurally invalid
// payload is returned as an *InitializationError.
func (c *Client) AcquireSchedule(ctx context.Context) (schedule.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/init_stabilizer", nil)
	if err != nil {
		return schedule.Model{}, &InitializationError{Reason: "build request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return schedule.Model{}, &InitializationError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return schedule.Model{}, &InitializationError{
			Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, body),
		}
	}

	var payload initResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return schedule.Model{}, &InitializationError{Reason: "decode response", Err: err}
	}
	if !payload.Success {
		return schedule.Model{}, &InitializationError{Reason: "service reported failure"}
	}

	model := schedule.Model{
		SessionToken: payload.SessionToken,
		Gravity:      payload.Schedule.Gravity,
		Length:       payload.Schedule.Length,
		ForceJolts:   payload.Schedule.ForceJolts,
	}
	if err := model.Validate(); err != nil {
		return schedule.Model{}, &InitializationError{Reason: "invalid schedule", Err: err}
	}
	return model, nil
}

// #endregion acquire-schedule

// #region submit-telemetry

// SubmitTelemetry sends the complete, frozen angle trace for a finished
// run. Callers must only pass traces that are no longer being mutated.
// Failures are returned as a *VerificationError; the run stays unverified.
func (c *Client) SubmitTelemetry(ctx context.Context, token string, angles []float64) (VerificationResult, error) {
	body, err := json.Marshal(verifyRequest{SessionToken: token, AngleHistory: angles})
	if err != nil {
		return VerificationResult{}, &VerificationError{Reason: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify_stability", bytes.NewReader(body))
	if err != nil {
		return VerificationResult{}, &VerificationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return VerificationResult{}, &VerificationError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	// The service answers 4xx with a structured verdict body (invalid or
	// expired sessions); only treat responses without one as transport
	// errors.
	var result VerificationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return VerificationResult{}, &VerificationError{
			Reason: fmt.Sprintf("decode response (status %d)", resp.StatusCode),
			Err:    err,
		}
	}
	if resp.StatusCode >= 500 {
		return VerificationResult{}, &VerificationError{
			Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, result.Message),
		}
	}
	return result, nil
}

// #endregion submit-telemetry
