package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"time"
	"x402_gateway/internal/domain/entities"
)

var (
	ErrSettlementNotFound     = errors.New("settlement not found")
	ErrSettlementAlreadyFinal = errors.New("settlement already finalized")
	ErrSettlementStale        = errors.New("settlement changed since it was read")
	ErrInvalidFinalStatus     = errors.New("finalize target must be settled or failed")
)

// ISettlementRepository is the durable settlement queue.
//
// Contract:
//   - Enqueue is insert-or-return-existing on payment_attempt_id; an existing
//     row is returned unchanged.
//   - ClaimNextQueued atomically moves the oldest queued row to processing;
//     ok is false when nothing is queued.
//   - Finalize is keyed by the payment_attempt_id of current and only
//     applies while the row still has current's status and updated_at.
//     It returns ErrInvalidFinalStatus for a non-terminal target,
//     ErrSettlementAlreadyFinal for a terminal row and ErrSettlementStale
//     when the row was claimed or requeued since current was read.
//   - GetByID / GetByAttemptID return a zero Settlement when not found.
type ISettlementRepository interface {
	Enqueue(ctx context.Context, paymentAttemptID string, facilitatorRequest json.RawMessage) (entities.Settlement, error)
	ClaimNextQueued(ctx context.Context) (s entities.Settlement, ok bool, err error)
	Finalize(ctx context.Context, current entities.Settlement, status entities.SettlementStatus, facilitatorResponse json.RawMessage) (entities.Settlement, error)
	AppendLog(ctx context.Context, entry entities.SettlementLog) error
	GetByID(ctx context.Context, id string) (entities.Settlement, error)
	GetByAttemptID(ctx context.Context, paymentAttemptID string) (entities.Settlement, error)
	List(ctx context.Context, status entities.SettlementStatus, limit int) ([]entities.Settlement, error)
	ResetStuckProcessing(ctx context.Context, olderThan time.Time) ([]entities.Settlement, error)
}
