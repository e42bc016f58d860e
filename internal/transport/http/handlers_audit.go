package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/auth"
	"timeclock/internal/storeaudit"
	"timeclock/pkg/domainerrors"
)

// AuditHandler serves the questionnaire catalog and receives submissions.
type AuditHandler struct {
	audits *storeaudit.Service
	auth   *auth.Service
	logger *slog.Logger
}

func NewAuditHandler(audits *storeaudit.Service, authSvc *auth.Service, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{audits: audits, auth: authSvc, logger: logger}
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Route("/audits", func(r chi.Router) {
		r.Use(RequireSession(h.auth))
		r.Get("/questions", h.handleQuestions)
		r.Post("/", h.handleSubmit)
	})
}

type questionDTO struct {
	ID              string            `json:"id"`
	Category        string            `json:"category"`
	Text            string            `json:"text"`
	Type            string            `json:"type"`
	Options         []string          `json:"options,omitempty"`
	DependsOn       map[string]string `json:"dependsOn,omitempty"`
	PhotoRequiredIf []string          `json:"photoRequiredIf,omitempty"`
}

func (h *AuditHandler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	out := make([]questionDTO, 0, len(storeaudit.Catalog))
	for _, q := range storeaudit.Catalog {
		dto := questionDTO{
			ID:              q.ID,
			Category:        q.Category,
			Text:            q.Text,
			Type:            string(q.Type),
			Options:         q.Options,
			PhotoRequiredIf: q.PhotoRequiredIf,
		}
		if q.DependsOn != nil {
			dto.DependsOn = map[string]string{
				"questionId": q.DependsOn.QuestionID,
				"value":      q.DependsOn.Value,
			}
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": out})
}

func (h *AuditHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "Sesión requerida."))
		return
	}

	var req struct {
		StoreID string            `json:"storeId"`
		Answers map[string]string `json:"answers"`
		Photos  map[string]string `json:"photos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}

	record, err := h.audits.Submit(r.Context(), storeaudit.Submission{
		StoreID:   req.StoreID,
		AuditorID: claims.Subject,
		Answers:   req.Answers,
		Photos:    req.Photos,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuditRecordDTO(record))
}
