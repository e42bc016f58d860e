package attendance

import (
	"context"

	"timeclock/internal/domain"
	"timeclock/internal/geo"
	"timeclock/internal/verify"
)

// CredentialGate resolves a username/password pair to a user profile.
type CredentialGate interface {
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
}

// StoreSource resolves store ids to store records.
type StoreSource interface {
	Store(ctx context.Context, id string) (domain.Store, error)
}

// LogSink receives completed attendance events and answers the clock-state
// question. Append may fail without the flow treating it as fatal: the sink
// guarantees a local echo.
type LogSink interface {
	Append(ctx context.Context, log domain.TimeLog) error
	IsClockedIn(userID string) bool
}

// Verifier produces a verdict for a captured selfie. Never errors; failures
// arrive as failing verdicts.
type Verifier interface {
	Verify(ctx context.Context, selfie verify.InlineImage, mode verify.Mode, requiredUniform string) verify.Verdict
}

// Locator performs one single-shot position query. No cached fixes: every
// call must produce a fresh reading or an error.
type Locator interface {
	Locate(ctx context.Context) (domain.Position, error)
}

// PositionError tags a locate failure with its reason code so the flow can
// classify it without string matching.
type PositionError struct {
	Reason geo.ErrorReason
}

func (e *PositionError) Error() string { return string(e.Reason) }

// Camera models the capture device. The flow holds at most one handle at a
// time and releases it on every path that leaves the camera state.
type Camera interface {
	Acquire(ctx context.Context) (CameraHandle, error)
}

// CameraHandle is an acquired capture device. Release is idempotent.
type CameraHandle interface {
	Release()
}

// EventSink publishes completed attendance events downstream. Fire-and-forget:
// implementations must never block the flow.
type EventSink interface {
	ClockEvent(ctx context.Context, log domain.TimeLog)
}
