package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rulegate/rulegate/internal/domain/capability"
	"github.com/rulegate/rulegate/internal/domain/rule"
	"github.com/rulegate/rulegate/internal/service"
)

// Handler serves the rulegate JSON API.
//
// Violations surface as 200 responses with ok=false: they are replanning
// input, not protocol failures. Unknown capabilities and malformed
// parameters are 400s, unknown sessions 404s.
type Handler struct {
	sessions *service.SessionManager
	engine   *rule.Engine
	metrics  *Metrics
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewHandler creates the API handler. The prometheus gatherer backs the
// /metrics endpoint; pass the same registry the Metrics were created with.
func NewHandler(sessions *service.SessionManager, engine *rule.Engine, metrics *Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		sessions: sessions,
		engine:   engine,
		metrics:  metrics,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/sessions", h.handleCreateSession)
	h.mux.HandleFunc("DELETE /v1/sessions/{id}", h.handleDeleteSession)
	h.mux.HandleFunc("GET /v1/sessions/{id}/state", h.handleState)
	h.mux.HandleFunc("POST /v1/sessions/{id}/invoke", h.handleInvoke)
	h.mux.HandleFunc("GET /v1/rules", h.handleRules)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return h
}

// ServeHTTP implements http.Handler with request-ID middleware applied.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	RequestIDMiddleware(h.logger)(h.mux).ServeHTTP(w, r)
}

type sessionResponse struct {
	SessionID    string    `json:"session_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	StateSummary string    `json:"state_summary"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.syncSessionGauge(r)
	h.writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:    sess.ID,
		ExpiresAt:    sess.ExpiresAt,
		StateSummary: sess.Gate.DescribeState(),
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "failed to delete session")
		return
	}
	h.syncSessionGauge(r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"state_summary": sess.Gate.DescribeState(),
	})
}

type invokeRequest struct {
	Capability string            `json:"capability"`
	Params     map[string]string `json:"params"`
}

func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, http.StatusNotFound, "session not found")
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := sess.Gate.Invoke(r.Context(), req.Capability, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, capability.ErrUnknown):
			h.metrics.ErrorsTotal.WithLabelValues("unknown_capability").Inc()
			h.writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, capability.ErrInvalidParams):
			h.metrics.ErrorsTotal.WithLabelValues("invalid_params").Inc()
			h.writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			h.metrics.ErrorsTotal.WithLabelValues("internal").Inc()
			LoggerFromContext(r.Context()).Error("invoke failed", "error", err)
			h.writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	decision := "allow"
	if !result.OK {
		decision = "deny"
		h.metrics.ViolationsTotal.WithLabelValues(result.RuleID).Inc()
	}
	h.metrics.InvocationsTotal.WithLabelValues(req.Capability, decision).Inc()

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRules(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Descriptions())
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// syncSessionGauge refreshes the active-session gauge after lifecycle
// changes; the periodic registry cleanup is reflected on the next change.
func (h *Handler) syncSessionGauge(r *http.Request) {
	if n, err := h.sessions.Count(r.Context()); err == nil {
		h.metrics.ActiveSessions.Set(float64(n))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	LoggerFromContext(r.Context()).Debug("request rejected", "status", status, "error", msg)
	h.writeJSON(w, status, map[string]string{"error": msg})
}
