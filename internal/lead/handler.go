package lead

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"valuation-backend/internal/cache"
	"valuation-backend/internal/httpx"
	"valuation-backend/internal/middleware"
	"valuation-backend/internal/transport"
	"valuation-backend/internal/validation"
)

type Handler struct {
	service  *Service
	val      *validation.Validator
	log      *slog.Logger
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, c cache.Cache, cacheTTL time.Duration) *Handler {
	return &Handler{
		service:  service,
		val:      val,
		log:      log,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("lead create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("lead create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	lead, err := h.service.Create(ctx, req)
	if err != nil {
		log.Error("lead create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("lead create: ok", slog.String("session_id", lead.SessionID))
	transport.WriteJSON(w, http.StatusCreated, lead)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		log.Warn("lead update: missing session id")
		transport.WriteError(w, http.StatusBadRequest, "missing session id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("lead update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("lead update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	updated, err := h.service.Update(ctx, sessionID, req)
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			log.Warn("lead update: validation error")
			transport.WriteError(w, http.StatusBadRequest, "validation error", ve.Fields)
		case errors.Is(err, ErrNotFound):
			log.Warn("lead update: not found", slog.String("session_id", sessionID))
			transport.WriteError(w, http.StatusNotFound, "lead not found", nil)
		case errors.Is(err, ErrAlreadyComplete):
			log.Warn("lead update: already complete", slog.String("session_id", sessionID))
			transport.WriteError(w, http.StatusConflict, "lead already complete", nil)
		default:
			log.Error("lead update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	// The completion email must never block or fail the transaction; it runs
	// on its own context and any failure is only logged.
	if updated.IsComplete {
		go func(completed Lead) {
			notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 8*time.Second)
			defer notifyCancel()
			if err := h.service.NotifyValuation(notifyCtx, completed); err != nil {
				h.log.Warn("lead update: valuation email failed",
					slog.String("session_id", completed.SessionID),
					slog.String("email", completed.Email),
					slog.String("error", err.Error()),
				)
			}
		}(updated)
	}

	log.Info("lead update: ok",
		slog.String("session_id", updated.SessionID),
		slog.Bool("complete", updated.IsComplete),
	)
	transport.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		log.Warn("lead get: missing session id")
		transport.WriteError(w, http.StatusBadRequest, "missing session id", nil)
		return
	}

	cacheKey := "lead:" + sessionID
	if h.cache != nil {
		if cached, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
			log.Info("lead get: cache hit", slog.String("session_id", sessionID))
			transport.WriteRawJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("lead get: not found", slog.String("session_id", sessionID))
			transport.WriteError(w, http.StatusNotFound, "lead not found", nil)
			return
		}
		log.Error("lead get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	// Only completed records are cached: they are immutable, incomplete ones
	// are still being patched.
	if lead.IsComplete && h.cache != nil {
		if payload, err := json.Marshal(lead); err == nil {
			_ = h.cache.Set(r.Context(), cacheKey, payload, h.cacheTTL)
		}
	}

	log.Info("lead get: ok", slog.String("session_id", sessionID))
	transport.WriteJSON(w, http.StatusOK, lead)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("admin lead list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Role:   strings.TrimSpace(r.URL.Query().Get("role")),
		Tenure: strings.TrimSpace(r.URL.Query().Get("property")),
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("complete")); raw != "" {
		complete := raw == "true"
		filter.Complete = &complete
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.ListAdmin(ctx, filter, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidRole) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"role": "oneof"})
			return
		}
		if errors.Is(err, ErrInvalidTenure) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"property": "oneof"})
			return
		}
		log.Error("admin lead list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin lead list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		log.Warn("admin lead get: missing session id")
		transport.WriteError(w, http.StatusBadRequest, "missing session id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin lead get: not found", slog.String("session_id", sessionID))
			transport.WriteError(w, http.StatusNotFound, "lead not found", nil)
			return
		}
		log.Error("admin lead get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin lead get: ok", slog.String("session_id", sessionID))
	transport.WriteJSON(w, http.StatusOK, lead)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
