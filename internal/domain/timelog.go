package domain

import "time"

// ClockType distinguishes clock-in from clock-out events.
type ClockType string

const (
	ClockIn  ClockType = "INGRESO"
	ClockOut ClockType = "EGRESO"
)

// Position is a device-reported coordinate pair at verification time. It is
// ephemeral: never persisted on its own, only embedded in a resulting log.
type Position struct {
	Lat float64
	Lng float64
}

// TimeLog is a completed attendance event. Created exactly once when the flow
// reaches a terminal success state (with or without incident) and never
// mutated afterwards. IDs are client-generated UUIDs so the append is
// idempotent-safe against retries.
type TimeLog struct {
	ID           string
	UserID       string
	UserFullName string
	// UserPhotoURL is the evidence selfie taken at capture time: a public
	// storage URL, or the inline image when the upload failed.
	UserPhotoURL string
	StoreID      string
	StoreName    string
	Type         ClockType
	Timestamp    time.Time

	HasIncident    bool
	IncidentDetail string

	IdentityScore  int
	UniformOK      bool
	UniformDetails string

	Location        *Position
	DistanceToStore *float64
	LocationAllowed *bool
}
