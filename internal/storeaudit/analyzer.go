package storeaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"timeclock/internal/domain"
	"timeclock/internal/verify"
	"timeclock/internal/vision"
)

// Report is the AI evaluation of a completed questionnaire.
type Report struct {
	Score           int      `json:"score"`
	Summary         string   `json:"summary"`
	CriticalIssues  []string `json:"criticalIssues"`
	Recommendations []string `json:"recommendations"`
}

// RetryableError marks an analysis failure the auditor can retry: nothing was
// persisted and the form state is intact.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "No se pudo generar el reporte. Por favor verifique su conexión e intente nuevamente."
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Analyzer turns questionnaire answers and photos into a structured report
// through the vision model.
type Analyzer struct {
	client *vision.Client
}

func NewAnalyzer(client *vision.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze builds the multimodal prompt and parses the model's report. Every
// failure comes back as a RetryableError.
func (a *Analyzer) Analyze(ctx context.Context, store domain.Store, answers map[string]string, photos map[string]verify.InlineImage) (Report, error) {
	parts := []vision.Part{vision.TextPart(analysisPrompt(store, answers))}
	for _, q := range Catalog {
		img, ok := photos[q.ID]
		if !ok {
			continue
		}
		parts = append(parts,
			vision.ImagePart(img.MimeType, img.Base64),
			vision.TextPart(fmt.Sprintf("[Imagen adjunta para la pregunta: %q]", q.Text)),
		)
	}

	raw, err := a.client.GenerateJSON(ctx, parts)
	if err != nil {
		return Report{}, &RetryableError{Err: err}
	}

	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return Report{}, &RetryableError{Err: fmt.Errorf("parse analysis: %w", err)}
	}
	return report, nil
}

func analysisPrompt(store domain.Store, answers map[string]string) string {
	var b strings.Builder
	storeName := store.Name
	if storeName == "" {
		storeName = "Tienda Desconocida"
	}
	fmt.Fprintf(&b, "Actúa como un experto auditor de Retail (Puntos de Venta). Analiza los datos de la siguiente auditoría realizada en: %s.\n\n", storeName)
	b.WriteString("Respuestas del cuestionario:\n")
	for _, q := range Catalog {
		answer := answers[q.ID]
		if answer == "" {
			answer = "Sin respuesta"
		}
		fmt.Fprintf(&b, "- Pregunta: %q (Categoría: %s)\n  Respuesta: %q\n", q.Text, q.Category, answer)
	}
	b.WriteString("\nBasado en estas respuestas y las imágenes proporcionadas (si las hay), genera un reporte JSON estructurado que evalúe el estado del punto de venta. Sé crítico pero constructivo.\n")
	b.WriteString("Responde EXCLUSIVAMENTE con un JSON con los campos: score (0-100), summary (string), criticalIssues (string[]), recommendations (string[]).")
	return b.String()
}
