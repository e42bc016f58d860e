package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"timeclock/internal/platform/metrics"
	"timeclock/internal/vision"
)

// Service performs identity and uniform verification through the vision
// model. Verify never returns an error: every failure mode is folded into a
// verdict so the attendance flow has exactly one shape to handle.
type Service struct {
	client  *vision.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(client *vision.Client, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{client: client, logger: logger, metrics: m}
}

// Verify checks the captured selfie against the resolved mode and uniform
// policy. Strict mode demands a same-person biometric match; liveness-only
// mode accepts any live human and is normalized to score 100 with the
// advisory marker.
func (s *Service) Verify(ctx context.Context, selfie InlineImage, mode Mode, requiredUniform string) Verdict {
	start := time.Now()
	defer func() {
		s.metrics.ObserveVerification(time.Since(start).Seconds())
	}()

	if requiredUniform == "" {
		requiredUniform = "Ropa casual"
	}

	parts := []vision.Part{vision.ImagePart(selfie.MimeType, selfie.Base64)}
	switch m := mode.(type) {
	case StrictComparison:
		parts = append(parts,
			vision.ImagePart(m.ReferenceImage.MimeType, m.ReferenceImage.Base64),
			vision.TextPart(strictPrompt(requiredUniform)),
		)
	case LivenessOnly:
		parts = append(parts, vision.TextPart(livenessPrompt(m.AvatarURL, requiredUniform)))
	default:
		s.logger.Error("unknown verification mode", "mode", fmt.Sprintf("%T", mode))
		return TechnicalFailure()
	}

	raw, err := s.client.GenerateJSON(ctx, parts)
	if err != nil {
		s.logger.Error("verification call failed", "error", err)
		return TechnicalFailure()
	}

	verdict := parseVerdict(raw)
	if _, liveness := mode.(LivenessOnly); liveness && verdict.Verified {
		// Liveness-only convention: nothing to compare against, so the score
		// is 100 and the advisory marker must survive whatever the model
		// wrote.
		verdict.IdentityScore = 100
		if !verdict.Advisory() {
			verdict.Message = AdvisoryMessage
		}
	}
	return verdict
}

// parseVerdict decodes the model's JSON with the documented field defaults
// for partial responses.
func parseVerdict(raw string) Verdict {
	var decoded struct {
		Verified       *bool   `json:"verified"`
		IdentityScore  *int    `json:"identityScore"`
		Message        *string `json:"message"`
		UniformOK      *bool   `json:"uniformCompliant"`
		UniformDetails *string `json:"uniformDetails"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return TechnicalFailure()
	}

	v := Verdict{
		Message:        msgNoVerdict,
		UniformOK:      true,
		UniformDetails: msgUniformNoResult,
	}
	if decoded.Verified != nil {
		v.Verified = *decoded.Verified
	}
	if decoded.IdentityScore != nil {
		v.IdentityScore = *decoded.IdentityScore
	}
	if decoded.Message != nil && *decoded.Message != "" {
		v.Message = *decoded.Message
	}
	if decoded.UniformOK != nil {
		v.UniformOK = *decoded.UniformOK
	}
	if decoded.UniformDetails != nil && *decoded.UniformDetails != "" {
		v.UniformDetails = *decoded.UniformDetails
	}
	return v
}

func strictPrompt(requiredUniform string) string {
	return fmt.Sprintf(`ACTÚA COMO UN AUDITOR DE SEGURIDAD BIOMÉTRICA EXTREMADAMENTE ESTRICTO.
Analiza estas DOS imágenes.
IMAGEN 1: Selfie en vivo (Persona intentando fichar).
IMAGEN 2: Foto de referencia oficial (Legajo).

TIENES QUE REALIZAR ESTAS 3 VALIDACIONES OBLIGATORIAS. SI FALLA LA 1 O LA 2, RECHAZA INMEDIATAMENTE.

1. VALIDACIÓN DE PERSONA (LIVENESS CHECK):
   - ¿La IMAGEN 1 muestra a un ser humano real mirando a la cámara?
   - Si es un objeto, un animal, una foto oscura o irreconocible -> RECHAZA ("verified": false).

2. VALIDACIÓN DE IDENTIDAD (BIOMETRÍA 1:1):
   - Compara los rasgos faciales ESTRUCTURALES de IMAGEN 1 vs IMAGEN 2 (Ojos, Nariz, Boca, Mentón).
   - ¿Son la MISMA persona?
   - CRÍTICO: Si son personas diferentes DEBES devolver "verified": false y un "identityScore" MUY BAJO (entre 0 y 25).
   - NO aceptes parecidos vagos. Tiene que ser la misma persona.

3. VALIDACIÓN DE VESTIMENTA:
   - Requisito: %q
   - ¿La persona en IMAGEN 1 cumple con el requisito?
   - Define "uniformCompliant" y explica en "uniformDetails".

Responde EXCLUSIVAMENTE con un JSON con los campos: verified (bool), identityScore (0-100), message (string), uniformCompliant (bool), uniformDetails (string).`, requiredUniform)
}

func livenessPrompt(avatarURL, requiredUniform string) string {
	return fmt.Sprintf(`Estás validando el ingreso de un empleado que NO TIENE FOTO REAL DE REFERENCIA cargada en el sistema (usa un Avatar: %s).

TAREA 1: PRUEBA DE VIDA (CRÍTICO)
- Analiza la imagen adjunta (Selfie).
- ¿Es un ser humano real?
- SI ES UN HUMANO: Devuelve "verified": true. IMPORTANTE: En el campo "message" DEBES escribir exactamente: %q. Pon un "identityScore" de 100 (ya que no hay contra qué comparar).
- SI NO ES HUMANO (Es una pared, objeto, animal, o negro): Devuelve "verified": false.

TAREA 2: UNIFORME
- Verifica si la persona cumple con: %q.

Responde SOLAMENTE con un JSON con los campos: verified (bool), identityScore (0-100), message (string), uniformCompliant (bool), uniformDetails (string).`, avatarURL, AdvisoryMessage, requiredUniform)
}
