// Package verify is the boundary to the vision model that performs identity
// and uniform verification. Remote failures never escape this package: they
// are normalized into a failing verdict so the attendance flow always has a
// verdict to act on.
package verify

import "strings"

// AdvisoryMessage is the fixed marker the liveness-only mode carries. The
// verdict is verified=true by convention, but downstream incident
// classification must still flag it.
const AdvisoryMessage = "⚠️ AVISO: Usuario sin foto de referencia. Identidad no validada, solo presencia humana."

// Fallback texts used when the remote call fails or returns partial data.
const (
	msgTechnicalError  = "Error técnico conectando con servicio de IA."
	msgNoVerdict       = "No se pudo verificar."
	msgUniformError    = "Error de análisis."
	msgUniformNoResult = "No se pudo analizar la vestimenta."
)

// Verdict is the structured verification outcome.
type Verdict struct {
	Verified       bool   `json:"verified"`
	IdentityScore  int    `json:"identityScore"`
	Message        string `json:"message"`
	UniformOK      bool   `json:"uniformCompliant"`
	UniformDetails string `json:"uniformDetails"`
}

// Advisory reports whether the verdict passed verification but carries a
// warning marker (the liveness-only convention, or any advisory message).
func (v Verdict) Advisory() bool {
	if !v.Verified {
		return false
	}
	return strings.Contains(v.Message, "AVISO") ||
		strings.Contains(v.Message, "sin foto") ||
		strings.Contains(v.Message, "Advertencia")
}

// TechnicalFailure is the verdict shape for adapter-level failures
// (network/parse errors). Routed to the same failure path as a biometric
// rejection.
func TechnicalFailure() Verdict {
	return Verdict{
		Verified:       false,
		IdentityScore:  0,
		Message:        msgTechnicalError,
		UniformOK:      false,
		UniformDetails: msgUniformError,
	}
}
