package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/auth"
	"timeclock/internal/directory"
	"timeclock/internal/domain"
	"timeclock/internal/logbook"
	"timeclock/internal/storeaudit"
	"timeclock/pkg/domainerrors"
)

// AdminHandler is the back-office surface: registry CRUD, log and audit
// listings.
type AdminHandler struct {
	directory  *directory.Service
	book       *logbook.Logbook
	audits     *storeaudit.Service
	auth       *auth.Service
	adminToken string
	logger     *slog.Logger
}

func NewAdminHandler(dir *directory.Service, book *logbook.Logbook, audits *storeaudit.Service, authSvc *auth.Service, adminToken string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{directory: dir, book: book, audits: audits, auth: authSvc, adminToken: adminToken, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(h.auth, h.adminToken))

		r.Get("/users", h.handleListUsers)
		r.Post("/users", h.handleCreateUser)
		r.Put("/users/{username}", h.handleUpdateUser)
		r.Delete("/users/{username}", h.handleDeleteUser)

		r.Get("/stores", h.handleListStores)
		r.Post("/stores", h.handleCreateStore)
		r.Put("/stores/{id}", h.handleUpdateStore)
		r.Delete("/stores/{id}", h.handleDeleteStore)

		r.Get("/logs", h.handleListLogs)
		r.Get("/audits", h.handleListAudits)
	})
}

type userRequest struct {
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	FullName        string   `json:"fullName"`
	Role            string   `json:"role"`
	JobTitle        string   `json:"jobTitle"`
	PhotoURL        string   `json:"photoUrl"`
	RequiredUniform string   `json:"requiredUniform"`
	AssignedStores  []string `json:"assignedStoreIds"`
}

func (r userRequest) toDomain() domain.User {
	return domain.User{
		Username:        r.Username,
		Password:        r.Password,
		FullName:        r.FullName,
		Role:            domain.Role(r.Role),
		JobTitle:        r.JobTitle,
		PhotoURL:        r.PhotoURL,
		RequiredUniform: r.RequiredUniform,
		AssignedStores:  r.AssignedStores,
	}
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.directory.ListUsers()
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (h *AdminHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}
	if err := h.directory.CreateUser(r.Context(), req.toDomain()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *AdminHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}
	req.Username = chi.URLParam(r, "username")
	if err := h.directory.UpdateUser(r.Context(), req.toDomain()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.DeleteUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleListStores(w http.ResponseWriter, r *http.Request) {
	stores := h.directory.ListStores()
	out := make([]storeDTO, 0, len(stores))
	for _, st := range stores {
		out = append(out, toStoreDTO(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": out})
}

func (h *AdminHandler) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req storeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}
	store := domain.Store{ID: req.ID, Name: req.Name, Address: req.Address, Lat: req.Lat, Lng: req.Lng}
	if err := h.directory.CreateStore(r.Context(), store); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *AdminHandler) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	var req storeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}
	req.ID = chi.URLParam(r, "id")
	store := domain.Store{ID: req.ID, Name: req.Name, Address: req.Address, Lat: req.Lat, Lng: req.Lng}
	if err := h.directory.UpdateStore(r.Context(), store); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.DeleteStore(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.book.Logs()
	out := make([]timeLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, toTimeLogDTO(l))
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": out})
}

func (h *AdminHandler) handleListAudits(w http.ResponseWriter, r *http.Request) {
	records, err := h.audits.List(r.Context())
	if err != nil {
		h.logger.Error("list audits failed", "error", err)
		writeError(w, err)
		return
	}
	out := make([]auditRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toAuditRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"audits": out})
}
