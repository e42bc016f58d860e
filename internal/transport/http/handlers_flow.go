package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"timeclock/internal/auth"
	"timeclock/internal/directory"
	"timeclock/internal/domain"
	"timeclock/internal/geo"
	"timeclock/internal/verify"
	"timeclock/pkg/domainerrors"
	"timeclock/pkg/requestcontext"
)

// FlowHandler drives the per-terminal attendance sessions.
type FlowHandler struct {
	sessions  *SessionManager
	auth      *auth.Service
	directory *directory.Service
	logger    *slog.Logger
}

func NewFlowHandler(sessions *SessionManager, authSvc *auth.Service, dir *directory.Service, logger *slog.Logger) *FlowHandler {
	return &FlowHandler{sessions: sessions, auth: authSvc, directory: dir, logger: logger}
}

func (h *FlowHandler) Register(r chi.Router) {
	r.Route("/flow", func(r chi.Router) {
		r.Use(RequireTerminalID)
		r.Get("/state", h.handleState)
		r.Post("/login", h.handleLogin)
		r.Get("/stores", h.handleStores)
		r.Post("/store", h.handleSelectStore)
		r.Post("/action", h.handleSelectAction)
		r.Post("/capture", h.handleCapture)
		r.Post("/retry", h.handleRetry)
		r.Post("/force", h.handleForceAccept)
		r.Post("/back", h.handleBack)
		r.Post("/start", h.handleStartClock)
		r.Post("/cancel", h.handleCancel)
		r.Post("/logout", h.handleLogout)
	})
}

func (h *FlowHandler) session(r *http.Request) *terminalSession {
	return h.sessions.Session(requestcontext.TerminalID(r.Context()))
}

func (h *FlowHandler) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSnapshotDTO(h.session(r).flow.Snapshot()))
}

func (h *FlowHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}

	session := h.session(r)
	if err := session.flow.Login(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	snapshot := session.flow.Snapshot()
	appSession, err := h.auth.StartSession(r.Context(), snapshot.User)
	if err != nil {
		h.logger.Error("start session failed", "user_id", snapshot.User.Username, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": appSession.Token,
		"state": toSnapshotDTO(snapshot),
	})
}

func (h *FlowHandler) handleStores(w http.ResponseWriter, r *http.Request) {
	snapshot := h.session(r).flow.Snapshot()
	if snapshot.User.Username == "" {
		writeError(w, domainerrors.New(domainerrors.CodeUnauthorized, "Sesión no iniciada."))
		return
	}
	stores := h.directory.StoresFor(snapshot.User)
	out := make([]storeDTO, 0, len(stores))
	for _, st := range stores {
		out = append(out, toStoreDTO(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": out})
}

func (h *FlowHandler) handleSelectStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID       string       `json:"storeId"`
		Position      *positionDTO `json:"position"`
		PositionError string       `json:"positionError"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}

	session := h.session(r)
	if req.Position != nil {
		session.device.SetFix(&domain.Position{Lat: req.Position.Lat, Lng: req.Position.Lng}, "")
	} else {
		session.device.SetFix(nil, geo.ErrorReason(req.PositionError))
	}

	if err := session.flow.SelectStore(r.Context(), req.StoreID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleSelectAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}
	action := domain.ClockType(req.Type)
	if action != domain.ClockIn && action != domain.ClockOut {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Tipo de fichada inválido."))
		return
	}

	session := h.session(r)
	if err := session.flow.SelectAction(r.Context(), action); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Solicitud inválida."))
		return
	}
	selfie, ok := verify.ParseInlineImage(req.Image)
	if !ok {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "Formato de imagen inválido."))
		return
	}

	session := h.session(r)
	if err := session.flow.Capture(r.Context(), selfie); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if err := session.flow.Retry(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleForceAccept(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if err := session.flow.ForceAccept(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleBack(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if err := session.flow.Back(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleStartClock(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	if err := session.flow.StartClock(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotDTO(session.flow.Snapshot()))
}

func (h *FlowHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	session.flow.Cancel()
	writeJSON(w, http.StatusOK, toSnapshotDTO(session.flow.Snapshot()))
}

// handleLogout ends the app session and resets the terminal. Ending an
// already-gone session is fine, so a missing token only skips that step.
func (h *FlowHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		if err := h.auth.EndSession(r.Context(), token); err != nil {
			h.logger.Warn("end session failed", "error", err)
		}
	}
	session := h.session(r)
	session.flow.Cancel()
	writeJSON(w, http.StatusOK, toSnapshotDTO(session.flow.Snapshot()))
}
