package client

import "fmt"

// #region result

// Stats is the optional structured summary the verification service
// attaches to a verdict. Opaque to the client beyond display; none of
// these values are recomputed or validated locally.
type Stats struct {
	Duration       float64 `json:"duration"`
	MaxDeviation   float64 `json:"max_deviation"`
	Oscillations   int     `json:"oscillations"`
	StabilityScore int     `json:"stability_score"`
}

// VerificationResult is the service's verdict on a submitted trace.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
	Stats    *Stats `json:"stats,omitempty"`
}

// #endregion result

// #region errors

// InitializationError reports a failed schedule acquisition: network
// failure, timeout, or a malformed payload. Always retriable; the session
// stays Idle.
type InitializationError struct {
	Reason string
	Err    error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schedule acquisition failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("schedule acquisition failed: %s", e.Reason)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// VerificationError reports a failed telemetry submission or a malformed
// verdict. The run is surfaced as unverified, never as a success.
type VerificationError struct {
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telemetry verification failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("telemetry verification failed: %s", e.Reason)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// #endregion errors
