// Package geo classifies a device position against a store location. The
// evaluation never blocks the attendance flow: when the position cannot be
// obtained it degrades to StatusError with a reason, and the flow proceeds.
package geo

import (
	"fmt"
	"math"

	"timeclock/internal/domain"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000

// MaxAllowedDistance is the geofence radius in meters. Fixed policy constant,
// not runtime-configurable.
const MaxAllowedDistance = 200

// Status is the three-way location classification.
type Status string

const (
	// StatusOK: within the allowed radius.
	StatusOK Status = "OK"
	// StatusFar: outside the allowed radius. Allowed but flagged.
	StatusFar Status = "FAR"
	// StatusError: position unavailable. Allowed but flagged.
	StatusError Status = "ERROR"
)

// ErrorReason codes why a position could not be obtained.
type ErrorReason string

const (
	ReasonPermissionDenied    ErrorReason = "permission_denied"
	ReasonPositionUnavailable ErrorReason = "position_unavailable"
	ReasonTimeout             ErrorReason = "timeout"
	ReasonUnsupported         ErrorReason = "unsupported"
)

// Message returns the operator-facing text for the reason.
func (r ErrorReason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "Permiso de ubicación denegado."
	case ReasonPositionUnavailable:
		return "Ubicación no disponible."
	case ReasonTimeout:
		return "Tiempo de espera agotado."
	case ReasonUnsupported:
		return "Geolocalización no soportada por el dispositivo."
	default:
		return "Error obteniendo ubicación."
	}
}

// Evaluation is the outcome of checking a position against a store. Position
// and Distance are only set when a fix was obtained.
type Evaluation struct {
	Status   Status
	Position *domain.Position
	// Distance to the store in meters, rounded to the nearest meter.
	Distance float64
	Reason   ErrorReason
}

// Allowed reports whether the position was within the geofence.
func (e Evaluation) Allowed() bool { return e.Status == StatusOK }

// Detail formats the evaluation for an incident record. Empty for StatusOK.
func (e Evaluation) Detail() string {
	switch e.Status {
	case StatusFar:
		return fmt.Sprintf("Ubicación lejana (%.0fm > %dm)", e.Distance, MaxAllowedDistance)
	case StatusError:
		return fmt.Sprintf("Error GPS: %s", e.Reason.Message())
	default:
		return ""
	}
}

// Distance computes the great-circle distance in meters between two
// coordinate pairs using the haversine formula. Pure and deterministic; NaN
// inputs are a caller contract violation.
func Distance(a, b domain.Position) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Evaluate classifies a device position against a store location.
func Evaluate(pos domain.Position, store domain.Store) Evaluation {
	dist := math.Round(Distance(pos, domain.Position{Lat: store.Lat, Lng: store.Lng}))
	status := StatusOK
	if dist > MaxAllowedDistance {
		status = StatusFar
	}
	p := pos
	return Evaluation{Status: status, Position: &p, Distance: dist}
}

// Unavailable builds the degraded evaluation used when no fix was obtained.
func Unavailable(reason ErrorReason) Evaluation {
	return Evaluation{Status: StatusError, Reason: reason}
}
