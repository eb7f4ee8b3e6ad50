// Package handler exposes the gate log read side over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gatezero/internal/gatelog"
	id "gatezero/pkg/domain"
	dErrors "gatezero/pkg/domain-errors"
	"gatezero/pkg/platform/httputil"
	"gatezero/pkg/platform/sentinel"
	"gatezero/pkg/requestcontext"
)

const (
	defaultStatsDays = 7
	maxStatsDays     = 365
)

// Reader is the query side of the gate log store.
type Reader interface {
	FindByID(ctx context.Context, id id.GateLogID) (*gatelog.Record, error)
	ListRecent(ctx context.Context, limit int) ([]gatelog.Record, error)
	ListByVehicle(ctx context.Context, vehicleNo string, limit int) ([]gatelog.Record, error)
	Stats(ctx context.Context, since time.Time) (gatelog.Stats, error)
}

// Handler serves gate log queries.
type Handler struct {
	store  Reader
	logger *slog.Logger
}

// New constructs a gate log handler.
func New(store Reader, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts gate log endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/gate-logs", h.HandleList)
	r.Get("/gate-logs/stats", h.HandleStats)
	r.Get("/gate-logs/{id}", h.HandleGet)
}

// ListResponse is the HTTP response for GET /gate-logs.
type ListResponse struct {
	Records []gatelog.Record `json:"records"`
	Count   int              `json:"count"`
}

// StatsResponse is the HTTP response for GET /gate-logs/stats.
type StatsResponse struct {
	Days int `json:"days"`
	gatelog.Stats
}

// HandleGet handles GET /gate-logs/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	gateLogID, err := id.ParseGateLogID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.store.FindByID(ctx, gateLogID)
	if err != nil {
		h.writeStoreError(ctx, w, requestID, "gate log lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleList handles GET /gate-logs?vehicle_no=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	limit, err := intParam(r, "limit", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var records []gatelog.Record
	if vehicleNo := r.URL.Query().Get("vehicle_no"); vehicleNo != "" {
		records, err = h.store.ListByVehicle(ctx, vehicleNo, limit)
	} else {
		records, err = h.store.ListRecent(ctx, limit)
	}
	if err != nil {
		h.writeStoreError(ctx, w, requestID, "gate log list failed", err)
		return
	}
	if records == nil {
		records = []gatelog.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Records: records, Count: len(records)})
}

// HandleStats handles GET /gate-logs/stats?days=.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	days, err := intParam(r, "days", defaultStatsDays)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if days < 1 || days > maxStatsDays {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "days must be between 1 and 365"))
		return
	}

	since := requestcontext.Now(ctx).AddDate(0, 0, -days)
	stats, err := h.store.Stats(ctx, since)
	if err != nil {
		h.writeStoreError(ctx, w, requestID, "gate log stats failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatsResponse{Days: days, Stats: stats})
}

func (h *Handler) writeStoreError(ctx context.Context, w http.ResponseWriter, requestID, msg string, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "gate log not found"))
	case errors.Is(err, sentinel.ErrUnavailable):
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "gate log store unavailable"))
	default:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, msg))
	}
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" must be an integer")
	}
	return n, nil
}
