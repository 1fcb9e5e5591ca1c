package conversation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dangtuan21/hana-salon/internal/session"
	"github.com/dangtuan21/hana-salon/pkg/logging"
)

// Handler exposes the conversation engine over HTTP.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("conversation: engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// Start handles POST /conversation/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Start(r.Context())
	if err != nil {
		h.logger.Error("failed to start conversation", "error", err)
		http.Error(w, "failed to start conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Continue handles POST /conversation/continue.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	var in TurnInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if in.SessionID == "" {
		http.Error(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	result, err := h.engine.ProcessTurn(r.Context(), in)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("turn failed", "session_id", in.SessionID, "error", err)
		http.Error(w, "failed to process turn", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /conversation/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.engine.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("session lookup failed", "session_id", id, "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// End handles DELETE /conversation/{id}.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.End(r.Context(), id); err != nil {
		h.logger.Error("failed to end session", "session_id", id, "error", err)
		http.Error(w, "failed to end session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /sessions/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, ok, err := h.engine.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats lookup failed", "error", err)
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": ok,
		"stats":     stats,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
