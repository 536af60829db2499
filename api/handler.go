package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/yourusername/captchacache/core"
	"github.com/yourusername/captchacache/pkg/captchacache"
)

// CaptchaStore is the set of cache operations the handlers need.
// *captchacache.Conn implements it.
type CaptchaStore interface {
	Register(ctx context.Context, req core.RegisterRequest) error
	AddVisitor(ctx context.Context, req core.AddVisitorRequest) (*core.AddVisitorResult, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	VisitorCount(ctx context.Context, id string) (uint64, error)
}

// Handler exposes captcha administration over HTTP
type Handler struct {
	store CaptchaStore
}

// NewHandler creates a new API handler
func NewHandler(store CaptchaStore) *Handler {
	return &Handler{store: store}
}

// RegisterRequest represents the body of POST /captcha
type RegisterRequest struct {
	ID       string       `json:"id,omitempty"` // Optional: generated when empty
	Levels   []core.Level `json:"levels"`
	Duration uint64       `json:"duration"`
}

// CaptchaResponse describes a registered captcha
type CaptchaResponse struct {
	ID       string `json:"id"`
	Exists   bool   `json:"exists"`
	Visitors uint64 `json:"visitors"`
}

// VisitorResponse is returned after recording a visitor
type VisitorResponse struct {
	ID               string `json:"id"`
	Duration         uint64 `json:"duration"`
	DifficultyFactor uint32 `json:"difficulty_factor"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Routes registers the captcha endpoints on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /captcha", h.Register)
	mux.HandleFunc("GET /captcha/{id}", h.Get)
	mux.HandleFunc("POST /captcha/{id}/visitor", h.AddVisitor)
	mux.HandleFunc("DELETE /captcha/{id}", h.Delete)
}

// Register handles POST /captcha
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	config := core.CaptchaConfig{Levels: req.Levels, Duration: req.Duration}
	if err := config.Validate(); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	exists, err := h.store.Exists(r.Context(), req.ID)
	if err != nil {
		h.sendStoreError(w, err)
		return
	}
	if exists {
		h.sendError(w, http.StatusConflict, "captcha_exists", "A captcha with this id is already registered")
		return
	}

	if err := h.store.Register(r.Context(), core.RegisterRequest{ID: req.ID, Config: config}); err != nil {
		h.sendStoreError(w, err)
		return
	}

	h.sendJSON(w, http.StatusCreated, CaptchaResponse{ID: req.ID, Exists: true})
}

// Get handles GET /captcha/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireCaptcha(w, r)
	if !ok {
		return
	}

	visitors, err := h.store.VisitorCount(r.Context(), id)
	if err != nil {
		h.sendStoreError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, CaptchaResponse{ID: id, Exists: true, Visitors: visitors})
}

// AddVisitor handles POST /captcha/{id}/visitor
func (h *Handler) AddVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireCaptcha(w, r)
	if !ok {
		return
	}

	result, err := h.store.AddVisitor(r.Context(), core.AddVisitorRequest{ID: id})
	if err != nil {
		h.sendStoreError(w, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.sendJSON(w, http.StatusOK, VisitorResponse{
		ID:               id,
		Duration:         result.Duration,
		DifficultyFactor: result.DifficultyFactor,
	})
}

// Delete handles DELETE /captcha/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireCaptcha(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.sendStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireCaptcha answers 404 unless the path's captcha is registered
func (h *Handler) requireCaptcha(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")

	exists, err := h.store.Exists(r.Context(), id)
	if err != nil {
		h.sendStoreError(w, err)
		return "", false
	}
	if !exists {
		h.sendError(w, http.StatusNotFound, "captcha_not_found", "No captcha is registered with this id")
		return "", false
	}
	return id, true
}

func (h *Handler) sendStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, captchacache.ErrInvalidID):
		h.sendError(w, http.StatusBadRequest, "invalid_id", err.Error())
	case errors.Is(err, captchacache.ErrExtensionProtocol), errors.Is(err, captchacache.ErrDeserialization):
		h.sendError(w, http.StatusBadGateway, "bad_store_reply", err.Error())
	default:
		h.sendError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	}
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.sendJSON(w, statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
