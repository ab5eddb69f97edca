package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/metrics"
	"x402_gateway/internal/usecase/interfaces"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultSettleTimeout      = 30 * time.Second
	DefaultProcessingMaxAge   = 5 * time.Minute
	DefaultWorkerPollInterval = 2 * time.Second
)

// ISettlementWorker drives queued settlements to a terminal state.
//
// ProcessOne is the single unit of work for both the poll loop and inline
// callers. Failed settlements are not re-queued.
type ISettlementWorker interface {
	ProcessOne(ctx context.Context) (s entities.Settlement, processed bool, err error)
	ReconcileStuck(ctx context.Context) (int, error)
}

// ErrInvalidWorkerConfig is returned when reconciliation could requeue a row
// whose settle call is still in flight.
var ErrInvalidWorkerConfig = errors.New("processing max age must exceed the settle timeout")

type SettlementWorkerConfig struct {
	SettleTimeout    time.Duration
	ProcessingMaxAge time.Duration
}

type SettlementWorker struct {
	repo        interfaces.ISettlementRepository
	facilitator interfaces.IFacilitatorGateway
	publisher   interfaces.ISettlementEventPublisher
	logger      *zap.Logger
	cfg         SettlementWorkerConfig
	now         func() time.Time
}

var _ ISettlementWorker = (*SettlementWorker)(nil)

func NewSettlementWorker(repo interfaces.ISettlementRepository, facilitator interfaces.IFacilitatorGateway, publisher interfaces.ISettlementEventPublisher, logger *zap.Logger, cfg SettlementWorkerConfig) (*SettlementWorker, error) {
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultSettleTimeout
	}
	if cfg.ProcessingMaxAge <= 0 {
		cfg.ProcessingMaxAge = DefaultProcessingMaxAge
	}
	if cfg.ProcessingMaxAge <= cfg.SettleTimeout {
		return nil, fmt.Errorf("%w: max age %s, settle timeout %s", ErrInvalidWorkerConfig, cfg.ProcessingMaxAge, cfg.SettleTimeout)
	}
	return &SettlementWorker{
		repo:        repo,
		facilitator: facilitator,
		publisher:   publisher,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// storedRequest is the facilitator_request column. Simulate carries an
// already-known outcome from a manual trigger.
type storedRequest struct {
	x402.FacilitatorRequest
	Simulate *x402.SettleResponse `json:"simulate,omitempty"`
}

type outcome struct {
	status   entities.SettlementStatus
	response json.RawMessage
	detail   string
	source   string
}

func (w *SettlementWorker) ProcessOne(ctx context.Context) (entities.Settlement, bool, error) {
	ctx, span := otel.Tracer("settlement-worker").Start(ctx, "settlement.process_one")
	defer span.End()

	s, ok, err := w.repo.ClaimNextQueued(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "claim failed")
		return entities.Settlement{}, false, fmt.Errorf("claim next queued: %w", err)
	}
	if !ok {
		return entities.Settlement{}, false, nil
	}
	span.SetAttributes(
		attribute.String("settlement.id", s.ID),
		attribute.String("settlement.payment_attempt_id", s.PaymentAttemptID),
	)
	w.logger.Info("settlement claimed", zap.String("settlement_id", s.ID), zap.String("payment_attempt_id", s.PaymentAttemptID))

	out := w.resolve(ctx, s)
	span.SetAttributes(attribute.String("settlement.status", string(out.status)))

	final, err := w.repo.Finalize(ctx, s, out.status, out.response)
	if errors.Is(err, interfaces.ErrSettlementAlreadyFinal) || errors.Is(err, interfaces.ErrSettlementStale) {
		if errors.Is(err, interfaces.ErrSettlementStale) {
			w.logger.Warn("settlement claim lost before finalize", zap.String("settlement_id", s.ID), zap.String("status", string(out.status)))
		} else {
			w.logger.Info("settlement finalized concurrently", zap.String("settlement_id", s.ID))
		}
		current, gErr := w.repo.GetByAttemptID(ctx, s.PaymentAttemptID)
		if gErr != nil {
			return s, true, gErr
		}
		return current, true, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize failed")
		return s, true, fmt.Errorf("finalize settlement %s: %w", s.ID, err)
	}

	meta := map[string]any{"source": out.source}
	if out.status == entities.SettlementStatusSettled {
		w.logger.Info("settlement settled", zap.String("settlement_id", final.ID), zap.String("source", out.source))
		appendLog(ctx, w.repo, w.logger, final.ID, entities.LogLevelInfo, "settlement settled", meta, out.response)
	} else {
		meta["error"] = out.detail
		w.logger.Error("settlement failed", zap.String("settlement_id", final.ID), zap.String("source", out.source), zap.String("error", out.detail))
		appendLog(ctx, w.repo, w.logger, final.ID, entities.LogLevelError, "settlement failed", meta, out.response)
	}
	metrics.RecordSettlementProcessed(string(out.status), "worker")
	publish(ctx, w.publisher, w.logger, final)
	return final, true, nil
}

func (w *SettlementWorker) resolve(ctx context.Context, s entities.Settlement) outcome {
	var req storedRequest
	if err := json.Unmarshal(s.FacilitatorRequest, &req); err != nil {
		return failedOutcome("stored", fmt.Sprintf("invalid facilitator_request: %v", err))
	}

	if req.Simulate != nil {
		resp, _ := json.Marshal(req.Simulate)
		if req.Simulate.Success {
			return outcome{status: entities.SettlementStatusSettled, response: resp, source: "simulated"}
		}
		return outcome{status: entities.SettlementStatusFailed, response: resp, detail: req.Simulate.ErrorReason, source: "simulated"}
	}

	if req.PaymentPayload.Payload.Signature == "" {
		return failedOutcome("stored", "facilitator_request has no payment payload")
	}
	if w.facilitator == nil {
		return failedOutcome("facilitator", "facilitator not configured")
	}
	if req.X402Version == 0 {
		req.X402Version = x402.Version
	}

	settleCtx, cancel := context.WithTimeout(ctx, w.cfg.SettleTimeout)
	defer cancel()

	resp, err := w.facilitator.Settle(settleCtx, req.FacilitatorRequest)
	if err != nil {
		detail := err.Error()
		if errors.Is(settleCtx.Err(), context.DeadlineExceeded) {
			detail = fmt.Sprintf("settle timed out after %s: %v", w.cfg.SettleTimeout, err)
		}
		return failedOutcome("facilitator", detail)
	}

	body, _ := json.Marshal(resp)
	if !resp.Success {
		return outcome{status: entities.SettlementStatusFailed, response: body, detail: resp.ErrorReason, source: "facilitator"}
	}
	return outcome{status: entities.SettlementStatusSettled, response: body, source: "facilitator"}
}

func failedOutcome(source, detail string) outcome {
	body, _ := json.Marshal(map[string]any{"success": false, "error": detail})
	return outcome{status: entities.SettlementStatusFailed, response: body, detail: detail, source: source}
}

// ReconcileStuck moves processing rows older than the configured max age back
// to queued so a crashed or timed-out worker cannot strand them.
func (w *SettlementWorker) ReconcileStuck(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.cfg.ProcessingMaxAge)
	rows, err := w.repo.ResetStuckProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reset stuck processing: %w", err)
	}
	for _, s := range rows {
		w.logger.Warn("stuck settlement requeued", zap.String("settlement_id", s.ID), zap.Time("last_update", s.UpdatedAt))
		appendLog(ctx, w.repo, w.logger, s.ID, entities.LogLevelWarn, "stuck processing settlement requeued",
			map[string]any{"max_age": w.cfg.ProcessingMaxAge.String()}, nil)
	}
	if len(rows) > 0 {
		metrics.RecordSettlementsRequeued(len(rows))
	}
	return len(rows), nil
}

// Run polls until ctx is done. Each tick reconciles stuck rows and then drains
// the queue one ProcessOne at a time.
func (w *SettlementWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultWorkerPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("settlement worker started", zap.Duration("interval", interval))
	for {
		w.tick(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *SettlementWorker) tick(ctx context.Context) {
	if _, err := w.ReconcileStuck(ctx); err != nil {
		w.logger.Error("reconcile failed", zap.Error(err))
	}
	for ctx.Err() == nil {
		_, processed, err := w.ProcessOne(ctx)
		if err != nil {
			w.logger.Error("process settlement failed", zap.Error(err))
			return
		}
		if !processed {
			return
		}
	}
}
