package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/user/entity"
)

// Handler exposes HTTP endpoints for the merged user directory.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ListAll handles GET /user.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListAll(r.Context())
	if err != nil {
		h.logger.Warnw("list users failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list users failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// GetByID handles GET /user/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.logger.Infow("fetching user", "id", id)
	u, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "get user failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

// Filter handles GET /user/filter?username= with exact-match precedence.
func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	h.logger.Infow("filtering users", "username", username)
	u, err := h.svc.GetByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, "filter users failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

// Search handles GET /user/search?username= with multi-match semantics.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	h.logger.Infow("searching users", "username", username)
	users, err := h.svc.SearchByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, "search users failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// Create handles POST /user. The body's type field is ignored.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, "create user failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

// Update handles PUT /user/{id} as a full replace of the local record.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	in, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Replace(r.Context(), id, in)
	if err != nil {
		h.writeError(w, "update user failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (in entity.User, ok bool) {
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Debugw("invalid user payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return in, false
	}
	return in, true
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": ErrNotFound.Error()})
	default:
		h.logger.Warnw(msg, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
