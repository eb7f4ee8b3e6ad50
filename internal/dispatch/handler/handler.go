package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatezero/internal/dispatch"
	dErrors "gatezero/pkg/domain-errors"
	"gatezero/pkg/platform/httputil"
	"gatezero/pkg/requestcontext"
)

const defaultBatchLimit = 50

// Service defines the interface for dispatch verification.
type Service interface {
	Verify(ctx context.Context, req dispatch.Request) *dispatch.Result
	VerifyBatch(ctx context.Context, reqs []dispatch.Request) []*dispatch.Result
}

// Handler wires dispatch endpoints to the dispatch service.
type Handler struct {
	service    Service
	logger     *slog.Logger
	batchLimit int
}

// Option configures a Handler.
type Option func(*Handler)

// WithBatchLimit caps the number of plates per batch request.
func WithBatchLimit(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.batchLimit = n
		}
	}
}

// New constructs a dispatch handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:    service,
		logger:     logger,
		batchLimit: defaultBatchLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register mounts dispatch endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/dispatch/verify", h.HandleVerify)
	r.Post("/dispatch/verify/batch", h.HandleVerifyBatch)
}

// HandleVerify handles POST /dispatch/verify requests. Every well-formed
// request gets a 200 with a verdict, including BLOCKED results caused by
// infrastructure failures.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.service.Verify(ctx, dispatch.Request{
		VehicleNo:  req.VehicleNo,
		EWayBillNo: req.EWayBillNo,
		OperatorID: req.OperatorID,
		OperatorIP: requestcontext.ClientIP(ctx),
	})

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleVerifyBatch handles POST /dispatch/verify/batch requests.
func (h *Handler) HandleVerifyBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[BatchVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if len(req.VehicleNos) > h.batchLimit {
		h.logger.WarnContext(ctx, "batch verification rejected",
			"request_id", requestID,
			"vehicles", len(req.VehicleNos),
			"limit", h.batchLimit,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "too many vehicle_nos in one batch"))
		return
	}

	operatorIP := requestcontext.ClientIP(ctx)
	reqs := make([]dispatch.Request, 0, len(req.VehicleNos))
	for _, v := range req.VehicleNos {
		reqs = append(reqs, dispatch.Request{
			VehicleNo:  v,
			EWayBillNo: req.EWayBillNo,
			OperatorID: req.OperatorID,
			OperatorIP: operatorIP,
		})
	}

	resp := FromResults(h.service.VerifyBatch(ctx, reqs))

	h.logger.InfoContext(ctx, "batch verification completed",
		"request_id", requestID,
		"vehicles", resp.Total,
		"approved", resp.Approved,
		"blocked", resp.Blocked,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}
