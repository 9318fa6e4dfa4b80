package server

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	token        TEXT PRIMARY KEY,
	gravity      BLOB NOT NULL,
	length       BLOB NOT NULL,
	force_jolts  BLOB NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS verification_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	token       TEXT NOT NULL,
	verified    INTEGER NOT NULL,
	reason      TEXT NOT NULL,
	frames      INTEGER NOT NULL,
	message     TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region errors

// ErrSessionNotFound means the token was never issued or already consumed.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired means the token outlived the session TTL.
var ErrSessionExpired = errors.New("session expired")

// #endregion errors

// #region store-struct

// SessionSchedule is a stored session's schedule plus its creation time.
type SessionSchedule struct {
	Gravity    []float64
	Length     []float64
	ForceJolts []float64
	CreatedAt  time.Time
}

// VerificationEntry is one row of the verification audit log.
type VerificationEntry struct {
	Token     string
	Verified  bool
	Reason    string
	Frames    int
	Message   string
	CreatedAt time.Time
}

// Store persists issued sessions and verification decisions in SQLite.
// Tokens are one-time use: consuming a session deletes it.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region create-session

// CreateSession persists a newly issued session.
func (s *Store) CreateSession(token string, sched SessionSchedule) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (token, gravity, length, force_jolts, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token,
		encodeSeries(sched.Gravity),
		encodeSeries(sched.Length),
		encodeSeries(sched.ForceJolts),
		sched.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// #endregion create-session

// #region consume-session

// ConsumeSession looks up a session and deletes it atomically, enforcing
// one-time token use. Returns ErrSessionNotFound for unknown or already
// consumed tokens and ErrSessionExpired for tokens past the TTL (which are
// deleted as well).
func (s *Store) ConsumeSession(token string, now time.Time, ttl time.Duration) (SessionSchedule, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return SessionSchedule{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var gravity, length, jolts []byte
	var createdStr string
	err = tx.QueryRow(
		`SELECT gravity, length, force_jolts, created_at FROM sessions WHERE token = ?`, token,
	).Scan(&gravity, &length, &jolts, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionSchedule{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionSchedule{}, fmt.Errorf("select session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return SessionSchedule{}, fmt.Errorf("delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return SessionSchedule{}, fmt.Errorf("commit: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, createdStr)
	if now.Sub(createdAt) > ttl {
		return SessionSchedule{}, ErrSessionExpired
	}

	return SessionSchedule{
		Gravity:    decodeSeries(gravity),
		Length:     decodeSeries(length),
		ForceJolts: decodeSeries(jolts),
		CreatedAt:  createdAt,
	}, nil
}

// #endregion consume-session

// #region purge

// PurgeExpired deletes sessions older than the TTL and returns how many
// were removed.
func (s *Store) PurgeExpired(now time.Time, ttl time.Duration) (int, error) {
	cutoff := now.Add(-ttl).UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(`DELETE FROM sessions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// #endregion purge

// #region verification-log

// LogVerification writes a verification decision to the audit log.
func (s *Store) LogVerification(entry VerificationEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	verified := 0
	if entry.Verified {
		verified = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO verification_log (token, verified, reason, frames, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Token, verified, entry.Reason, entry.Frames, entry.Message,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log verification: %w", err)
	}
	return nil
}

// #endregion verification-log

// #region series-encoding
func encodeSeries(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeSeries(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion series-encoding
