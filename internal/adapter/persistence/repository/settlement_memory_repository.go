package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/google/uuid"
)

// SettlementMemoryRepository keeps settlements in process memory.
// Used for local runs (STORE_BACKEND=memory) and tests; nothing survives a restart.
type SettlementMemoryRepository struct {
	mu        sync.Mutex
	byID      map[string]*memoryRow
	byAttempt map[string]string
	logs      []entities.SettlementLog
	seq       uint64
	now       func() time.Time
}

type memoryRow struct {
	s   entities.Settlement
	seq uint64
}

var _ interfaces.ISettlementRepository = (*SettlementMemoryRepository)(nil)

func NewSettlementMemoryRepository() *SettlementMemoryRepository {
	return &SettlementMemoryRepository{
		byID:      map[string]*memoryRow{},
		byAttempt: map[string]string{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *SettlementMemoryRepository) Enqueue(_ context.Context, paymentAttemptID string, facilitatorRequest json.RawMessage) (entities.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byAttempt[paymentAttemptID]; ok {
		return copySettlement(r.byID[id].s), nil
	}
	now := r.now()
	r.seq++
	s := entities.Settlement{
		ID:                 uuid.NewString(),
		PaymentAttemptID:   paymentAttemptID,
		FacilitatorRequest: append(json.RawMessage(nil), facilitatorRequest...),
		Status:             entities.SettlementStatusQueued,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	r.byID[s.ID] = &memoryRow{s: s, seq: r.seq}
	r.byAttempt[paymentAttemptID] = s.ID
	return copySettlement(s), nil
}

func (r *SettlementMemoryRepository) ClaimNextQueued(_ context.Context) (entities.Settlement, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var next *memoryRow
	for _, row := range r.byID {
		if row.s.Status != entities.SettlementStatusQueued {
			continue
		}
		if next == nil || row.s.CreatedAt.Before(next.s.CreatedAt) || (row.s.CreatedAt.Equal(next.s.CreatedAt) && row.seq < next.seq) {
			next = row
		}
	}
	if next == nil {
		return entities.Settlement{}, false, nil
	}
	next.s.Status = entities.SettlementStatusProcessing
	r.touch(next)
	return copySettlement(next.s), true, nil
}

func (r *SettlementMemoryRepository) Finalize(_ context.Context, current entities.Settlement, status entities.SettlementStatus, facilitatorResponse json.RawMessage) (entities.Settlement, error) {
	if !status.IsTerminal() {
		return entities.Settlement{}, interfaces.ErrInvalidFinalStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byAttempt[current.PaymentAttemptID]
	if !ok {
		return entities.Settlement{}, interfaces.ErrSettlementNotFound
	}
	row := r.byID[id]
	if row.s.Status.IsTerminal() {
		return entities.Settlement{}, interfaces.ErrSettlementAlreadyFinal
	}
	if row.s.Status != current.Status || !row.s.UpdatedAt.Equal(current.UpdatedAt) {
		return entities.Settlement{}, interfaces.ErrSettlementStale
	}
	row.s.Status = status
	row.s.FacilitatorResponse = append(json.RawMessage(nil), facilitatorResponse...)
	r.touch(row)
	return copySettlement(row.s), nil
}

// touch bumps updated_at, strictly increasing per row so it can serve as a
// version for Finalize.
func (r *SettlementMemoryRepository) touch(row *memoryRow) {
	now := r.now()
	if !now.After(row.s.UpdatedAt) {
		now = row.s.UpdatedAt.Add(time.Nanosecond)
	}
	row.s.UpdatedAt = now
}

func (r *SettlementMemoryRepository) AppendLog(_ context.Context, entry entities.SettlementLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	r.logs = append(r.logs, entry)
	return nil
}

// Logs returns the audit entries of one settlement in insertion order.
func (r *SettlementMemoryRepository) Logs(settlementID string) []entities.SettlementLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entities.SettlementLog
	for _, l := range r.logs {
		if l.SettlementID == settlementID {
			out = append(out, l)
		}
	}
	return out
}

func (r *SettlementMemoryRepository) GetByID(_ context.Context, id string) (entities.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if row, ok := r.byID[id]; ok {
		return copySettlement(row.s), nil
	}
	return entities.Settlement{}, nil
}

func (r *SettlementMemoryRepository) GetByAttemptID(_ context.Context, paymentAttemptID string) (entities.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byAttempt[paymentAttemptID]; ok {
		return copySettlement(r.byID[id].s), nil
	}
	return entities.Settlement{}, nil
}

func (r *SettlementMemoryRepository) List(_ context.Context, status entities.SettlementStatus, limit int) ([]entities.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]*memoryRow, 0, len(r.byID))
	for _, row := range r.byID {
		if status == "" || row.s.Status == status {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]entities.Settlement, 0, len(rows))
	for _, row := range rows {
		out = append(out, copySettlement(row.s))
	}
	return out, nil
}

func (r *SettlementMemoryRepository) ResetStuckProcessing(_ context.Context, olderThan time.Time) ([]entities.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []entities.Settlement
	for _, row := range r.byID {
		if row.s.Status == entities.SettlementStatusProcessing && row.s.UpdatedAt.Before(olderThan) {
			row.s.Status = entities.SettlementStatusQueued
			r.touch(row)
			out = append(out, copySettlement(row.s))
		}
	}
	return out, nil
}

func copySettlement(s entities.Settlement) entities.Settlement {
	s.FacilitatorRequest = append(json.RawMessage(nil), s.FacilitatorRequest...)
	if s.FacilitatorResponse != nil {
		s.FacilitatorResponse = append(json.RawMessage(nil), s.FacilitatorResponse...)
	}
	return s
}
