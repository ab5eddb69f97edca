package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/infrastructure/metrics"
	"x402_gateway/internal/usecase/interfaces"

	"go.uber.org/zap"
)

var (
	ErrInvalidAttemptID          = errors.New("invalid payment_attempt_id")
	ErrInvalidFacilitatorRequest = errors.New("invalid facilitator_request")
	ErrInvalidStatusFilter       = errors.New("invalid status filter")
	ErrSettlementNotFound        = interfaces.ErrSettlementNotFound
)

// defaultManualRequest is stored when a manual trigger carries no facilitator
// request: the worker then accepts a known successful outcome.
var defaultManualRequest = json.RawMessage(`{"simulate":{"success":true}}`)

const (
	defaultListLimit = 100

	// webhookFinalizeAttempts bounds retries when a worker claims or requeues
	// the row between our read and our write.
	webhookFinalizeAttempts = 3
)

// ISettlementUseCase covers the settlement entry points other than the worker:
// manual enqueue, webhook results and reads.
type ISettlementUseCase interface {
	Enqueue(ctx context.Context, paymentAttemptID string, facilitatorRequest json.RawMessage) (entities.Settlement, error)
	ApplyWebhookResult(ctx context.Context, ev x402.WebhookEvent) (entities.Settlement, error)
	GetByAttemptID(ctx context.Context, paymentAttemptID string) (entities.Settlement, error)
	List(ctx context.Context, status string) ([]entities.Settlement, error)
}

type SettlementUseCase struct {
	repo      interfaces.ISettlementRepository
	publisher interfaces.ISettlementEventPublisher
	logger    *zap.Logger
}

var _ ISettlementUseCase = (*SettlementUseCase)(nil)

func NewSettlementUseCase(repo interfaces.ISettlementRepository, publisher interfaces.ISettlementEventPublisher, logger *zap.Logger) *SettlementUseCase {
	return &SettlementUseCase{repo: repo, publisher: publisher, logger: logger}
}

func (u *SettlementUseCase) Enqueue(ctx context.Context, paymentAttemptID string, facilitatorRequest json.RawMessage) (entities.Settlement, error) {
	paymentAttemptID = strings.TrimSpace(paymentAttemptID)
	if paymentAttemptID == "" {
		return entities.Settlement{}, ErrInvalidAttemptID
	}
	if len(facilitatorRequest) == 0 || strings.TrimSpace(string(facilitatorRequest)) == "null" {
		facilitatorRequest = defaultManualRequest
	}
	if !json.Valid(facilitatorRequest) {
		return entities.Settlement{}, ErrInvalidFacilitatorRequest
	}

	s, err := u.repo.Enqueue(ctx, paymentAttemptID, facilitatorRequest)
	if err != nil {
		u.logger.Error("settlement enqueue failed", zap.String("payment_attempt_id", paymentAttemptID), zap.Error(err))
		return entities.Settlement{}, err
	}
	u.logger.Info("settlement enqueued",
		zap.String("payment_attempt_id", paymentAttemptID),
		zap.String("settlement_id", s.ID),
		zap.String("status", string(s.Status)),
	)
	return s, nil
}

// ApplyWebhookResult records a facilitator callback. An unknown attempt is
// enqueued first; a row that is already terminal is returned unchanged.
func (u *SettlementUseCase) ApplyWebhookResult(ctx context.Context, ev x402.WebhookEvent) (entities.Settlement, error) {
	attemptID, err := x402.AttemptID(ev.PaymentPayload)
	if err != nil {
		return entities.Settlement{}, fmt.Errorf("derive attempt id: %w", err)
	}
	req, err := json.Marshal(x402.FacilitatorRequest{
		X402Version:         x402.Version,
		PaymentPayload:      ev.PaymentPayload,
		PaymentRequirements: ev.PaymentRequirements,
	})
	if err != nil {
		return entities.Settlement{}, err
	}

	s, err := u.repo.Enqueue(ctx, attemptID, req)
	if err != nil {
		return entities.Settlement{}, err
	}

	status := entities.SettlementStatusSettled
	result := x402.SettleResponse{Success: true, Network: ev.PaymentPayload.Network, Payer: ev.PaymentPayload.Payload.Authorization.From}
	if ev.SettleResponse != nil {
		result = *ev.SettleResponse
	}
	if !ev.Settled() {
		status = entities.SettlementStatusFailed
	}
	resp, err := json.Marshal(result)
	if err != nil {
		return entities.Settlement{}, err
	}

	var final entities.Settlement
	for attempt := 1; ; attempt++ {
		if s.Status.IsTerminal() {
			u.logger.Info("webhook for finalized settlement ignored",
				zap.String("payment_attempt_id", attemptID),
				zap.String("status", string(s.Status)),
			)
			return s, nil
		}

		final, err = u.repo.Finalize(ctx, s, status, resp)
		if err == nil {
			break
		}
		if !errors.Is(err, interfaces.ErrSettlementAlreadyFinal) && !errors.Is(err, interfaces.ErrSettlementStale) {
			return entities.Settlement{}, err
		}
		if errors.Is(err, interfaces.ErrSettlementStale) && attempt >= webhookFinalizeAttempts {
			return entities.Settlement{}, fmt.Errorf("finalize settlement %s: %w", s.ID, err)
		}
		u.logger.Info("settlement changed concurrently, re-reading",
			zap.String("settlement_id", s.ID),
			zap.Error(err),
		)
		if s, err = u.repo.GetByAttemptID(ctx, attemptID); err != nil {
			return entities.Settlement{}, err
		}
		if s.ID == "" {
			return entities.Settlement{}, ErrSettlementNotFound
		}
	}

	level, msg := entities.LogLevelInfo, "settlement settled via webhook"
	if status == entities.SettlementStatusFailed {
		level, msg = entities.LogLevelError, "settlement failed via webhook"
	}
	appendLog(ctx, u.repo, u.logger, final.ID, level, msg, map[string]any{"source": "webhook", "transaction": result.Transaction}, resp)
	metrics.RecordSettlementProcessed(string(status), "webhook")
	publish(ctx, u.publisher, u.logger, final)
	return final, nil
}

func (u *SettlementUseCase) GetByAttemptID(ctx context.Context, paymentAttemptID string) (entities.Settlement, error) {
	paymentAttemptID = strings.TrimSpace(paymentAttemptID)
	if paymentAttemptID == "" {
		return entities.Settlement{}, ErrInvalidAttemptID
	}
	s, err := u.repo.GetByAttemptID(ctx, paymentAttemptID)
	if err != nil {
		return entities.Settlement{}, err
	}
	if s.ID == "" {
		return entities.Settlement{}, ErrSettlementNotFound
	}
	return s, nil
}

func (u *SettlementUseCase) List(ctx context.Context, status string) ([]entities.Settlement, error) {
	st := entities.SettlementStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != "" && !st.IsValid() {
		return nil, ErrInvalidStatusFilter
	}
	return u.repo.List(ctx, st, defaultListLimit)
}

// appendLog writes an audit entry; failures are logged and dropped.
func appendLog(ctx context.Context, repo interfaces.ISettlementRepository, logger *zap.Logger, settlementID string, level entities.LogLevel, message string, meta map[string]any, response json.RawMessage) {
	err := repo.AppendLog(ctx, entities.SettlementLog{
		SettlementID: settlementID,
		Level:        level,
		Message:      message,
		Meta:         meta,
		Response:     response,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("settlement log append failed", zap.String("settlement_id", settlementID), zap.Error(err))
	}
}

func publish(ctx context.Context, publisher interfaces.ISettlementEventPublisher, logger *zap.Logger, s entities.Settlement) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishSettlementFinalized(ctx, s); err != nil {
		logger.Warn("settlement event publish failed", zap.String("settlement_id", s.ID), zap.Error(err))
	}
}
