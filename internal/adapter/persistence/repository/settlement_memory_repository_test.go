package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"
)

func TestSettlementMemoryRepository_EnqueueIsIdempotentUnderConcurrency(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()

	const callers = 64
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := repo.Enqueue(ctx, "attempt-x", json.RawMessage(fmt.Sprintf(`{"caller":%d}`, i)))
			if err != nil {
				t.Errorf("enqueue: %v", err)
				return
			}
			ids[i] = s.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("expected a single settlement, got ids %s and %s", ids[0], id)
		}
	}
	all, _ := repo.List(ctx, "", 0)
	if len(all) != 1 {
		t.Fatalf("expected one row, got %d", len(all))
	}
}

func TestSettlementMemoryRepository_EnqueueKeepsExistingRow(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()

	first, _ := repo.Enqueue(ctx, "attempt-1", json.RawMessage(`{"v":1}`))
	if _, err := repo.Finalize(ctx, first, entities.SettlementStatusSettled, json.RawMessage(`{"success":true}`)); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	again, _ := repo.Enqueue(ctx, "attempt-1", json.RawMessage(`{"v":2}`))
	if again.Status != entities.SettlementStatusSettled || string(again.FacilitatorRequest) != `{"v":1}` {
		t.Fatalf("existing row must be returned unchanged, got %+v", again)
	}
}

func TestSettlementMemoryRepository_ClaimNextQueued(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Second) }

	a, _ := repo.Enqueue(ctx, "a", json.RawMessage(`{}`))
	b, _ := repo.Enqueue(ctx, "b", json.RawMessage(`{}`))

	got, ok, _ := repo.ClaimNextQueued(ctx)
	if !ok || got.ID != a.ID || got.Status != entities.SettlementStatusProcessing {
		t.Fatalf("expected oldest row claimed, got %+v", got)
	}
	got, ok, _ = repo.ClaimNextQueued(ctx)
	if !ok || got.ID != b.ID {
		t.Fatalf("expected second row, got %+v", got)
	}
	if _, ok, _ = repo.ClaimNextQueued(ctx); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestSettlementMemoryRepository_ConcurrentClaimsNeverOverlap(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()
	const rows = 200
	for i := 0; i < rows; i++ {
		_, _ = repo.Enqueue(ctx, fmt.Sprintf("attempt-%d", i), json.RawMessage(`{}`))
	}

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				s, ok, err := repo.ClaimNextQueued(ctx)
				if err != nil || !ok {
					return
				}
				mu.Lock()
				seen[s.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != rows {
		t.Fatalf("expected %d claims, got %d", rows, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("settlement %s claimed %d times", id, n)
		}
	}
}

func TestSettlementMemoryRepository_Finalize(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()

	s, _ := repo.Enqueue(ctx, "attempt-1", json.RawMessage(`{}`))
	if _, err := repo.Finalize(ctx, s, entities.SettlementStatusQueued, nil); !errors.Is(err, interfaces.ErrInvalidFinalStatus) {
		t.Fatalf("expected ErrInvalidFinalStatus, got %v", err)
	}
	if _, err := repo.Finalize(ctx, s, entities.SettlementStatusProcessing, nil); !errors.Is(err, interfaces.ErrInvalidFinalStatus) {
		t.Fatalf("expected ErrInvalidFinalStatus, got %v", err)
	}
	final, err := repo.Finalize(ctx, s, entities.SettlementStatusFailed, json.RawMessage(`{"error":"x"}`))
	if err != nil || final.Status != entities.SettlementStatusFailed {
		t.Fatalf("unexpected finalize result: %+v err=%v", final, err)
	}
	if _, err := repo.Finalize(ctx, s, entities.SettlementStatusSettled, nil); !errors.Is(err, interfaces.ErrSettlementAlreadyFinal) {
		t.Fatalf("expected ErrSettlementAlreadyFinal, got %v", err)
	}
	if _, err := repo.Finalize(ctx, entities.Settlement{PaymentAttemptID: "missing"}, entities.SettlementStatusSettled, nil); !errors.Is(err, interfaces.ErrSettlementNotFound) {
		t.Fatalf("expected ErrSettlementNotFound, got %v", err)
	}
	current, _ := repo.GetByID(ctx, s.ID)
	if current.Status != entities.SettlementStatusFailed {
		t.Fatalf("terminal status must not change, got %s", current.Status)
	}
}

func TestSettlementMemoryRepository_FinalizeRejectsLostClaim(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_, _ = repo.Enqueue(ctx, "attempt-1", json.RawMessage(`{}`))
	first, ok, _ := repo.ClaimNextQueued(ctx)
	if !ok {
		t.Fatalf("expected a claim")
	}

	// The first worker outlives the max age; the row is requeued and claimed again
	// without the clock moving, so only the version bump tells the claims apart.
	requeued, _ := repo.ResetStuckProcessing(ctx, now.Add(time.Second))
	if len(requeued) != 1 {
		t.Fatalf("expected the row requeued, got %+v", requeued)
	}
	second, ok, _ := repo.ClaimNextQueued(ctx)
	if !ok || second.ID != first.ID {
		t.Fatalf("expected the same row reclaimed, got %+v", second)
	}

	if _, err := repo.Finalize(ctx, first, entities.SettlementStatusSettled, json.RawMessage(`{"success":true}`)); !errors.Is(err, interfaces.ErrSettlementStale) {
		t.Fatalf("expected ErrSettlementStale for the lost claim, got %v", err)
	}
	final, err := repo.Finalize(ctx, second, entities.SettlementStatusFailed, json.RawMessage(`{"success":false}`))
	if err != nil || final.Status != entities.SettlementStatusFailed {
		t.Fatalf("current claim must finalize, got %+v err=%v", final, err)
	}
}

func TestSettlementMemoryRepository_ResetStuckProcessing(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	stuck, _ := repo.Enqueue(ctx, "stuck", json.RawMessage(`{}`))
	_, _, _ = repo.ClaimNextQueued(ctx)

	now = now.Add(10 * time.Minute)
	fresh, _ := repo.Enqueue(ctx, "fresh", json.RawMessage(`{}`))
	_, _, _ = repo.ClaimNextQueued(ctx)

	got, err := repo.ResetStuckProcessing(ctx, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(got) != 1 || got[0].ID != stuck.ID || got[0].Status != entities.SettlementStatusQueued {
		t.Fatalf("expected only the stuck row requeued, got %+v", got)
	}
	if s, _ := repo.GetByID(ctx, fresh.ID); s.Status != entities.SettlementStatusProcessing {
		t.Fatalf("fresh row must stay processing, got %s", s.Status)
	}
}

func TestSettlementMemoryRepository_Logs(t *testing.T) {
	repo := NewSettlementMemoryRepository()
	_ = repo.AppendLog(context.Background(), entities.SettlementLog{SettlementID: "s1", Level: entities.LogLevelInfo, Message: "settled"})
	_ = repo.AppendLog(context.Background(), entities.SettlementLog{SettlementID: "s2", Level: entities.LogLevelError, Message: "failed"})

	logs := repo.Logs("s1")
	if len(logs) != 1 || logs[0].ID == "" || logs[0].Message != "settled" {
		t.Fatalf("unexpected logs: %+v", logs)
	}
}
