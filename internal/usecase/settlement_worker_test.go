package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"x402_gateway/internal/adapter/persistence/repository"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/domain/x402"
	"x402_gateway/internal/usecase/interfaces"
	mock_interfaces "x402_gateway/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type workerDeps struct {
	repo        *mock_interfaces.MockISettlementRepository
	facilitator *mock_interfaces.MockIFacilitatorGateway
	publisher   *mock_interfaces.MockISettlementEventPublisher
	worker      *SettlementWorker
}

func newWorkerDeps(t *testing.T, cfg SettlementWorkerConfig) workerDeps {
	ctrl := gomock.NewController(t)
	d := workerDeps{
		repo:        mock_interfaces.NewMockISettlementRepository(ctrl),
		facilitator: mock_interfaces.NewMockIFacilitatorGateway(ctrl),
		publisher:   mock_interfaces.NewMockISettlementEventPublisher(ctrl),
	}
	w, err := NewSettlementWorker(d.repo, d.facilitator, d.publisher, zap.NewNop(), cfg)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	d.worker = w
	return d
}

func facilitatorRequestJSON(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(x402.FacilitatorRequest{
		X402Version: 1,
		PaymentPayload: x402.PaymentPayload{
			X402Version: 1,
			Scheme:      x402.SchemeExact,
			Network:     "base-sepolia",
			Payload: x402.ExactPayload{
				Signature: "0xsig",
				Authorization: x402.Authorization{
					From: "0x857b06519E91e3A54538791bDbb0E22373e36b66", To: "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
					Value: "10000", ValidAfter: "0", ValidBefore: "9999999999", Nonce: "0x01",
				},
			},
		},
		PaymentRequirements: x402.PaymentRequirement{Scheme: x402.SchemeExact, Network: "base-sepolia", MaxAmountRequired: "10000"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func claimed(req json.RawMessage) entities.Settlement {
	return entities.Settlement{ID: "set-1", PaymentAttemptID: "attempt-1", FacilitatorRequest: req, Status: entities.SettlementStatusProcessing}
}

func TestSettlementWorker_ProcessOne(t *testing.T) {
	t.Run("idle when nothing queued", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(entities.Settlement{}, false, nil)

		_, processed, err := d.worker.ProcessOne(context.Background())
		if err != nil || processed {
			t.Fatalf("expected idle, got processed=%v err=%v", processed, err)
		}
	})

	t.Run("claim error is returned", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(entities.Settlement{}, false, errors.New("db down"))

		_, _, err := d.worker.ProcessOne(context.Background())
		if err == nil || !strings.Contains(err.Error(), "db down") {
			t.Fatalf("expected claim error, got %v", err)
		}
	})

	t.Run("simulated outcome skips facilitator", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(json.RawMessage(`{"simulate":{"success":true,"transaction":"0xabc"}}`))
		final := s
		final.Status = entities.SettlementStatusSettled

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), s, entities.SettlementStatusSettled, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ entities.Settlement, _ entities.SettlementStatus, resp json.RawMessage) (entities.Settlement, error) {
				if !strings.Contains(string(resp), `"transaction":"0xabc"`) {
					t.Fatalf("unexpected response: %s", resp)
				}
				return final, nil
			})
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil)
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), final).Return(nil)

		got, processed, err := d.worker.ProcessOne(context.Background())
		if err != nil || !processed || got.Status != entities.SettlementStatusSettled {
			t.Fatalf("unexpected result: %+v processed=%v err=%v", got, processed, err)
		}
	})

	t.Run("simulated failure", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(json.RawMessage(`{"simulate":{"success":false,"errorReason":"insufficient_funds"}}`))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusFailed, gomock.Any()).Return(entities.Settlement{ID: "set-1", Status: entities.SettlementStatusFailed}, nil)
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, entry entities.SettlementLog) error {
			if entry.Level != entities.LogLevelError || entry.Meta["error"] != "insufficient_funds" {
				t.Fatalf("unexpected log entry: %+v", entry)
			}
			return nil
		})
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(nil)

		if _, _, err := d.worker.ProcessOne(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("facilitator settles", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(facilitatorRequestJSON(t))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.facilitator.EXPECT().Settle(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, req x402.FacilitatorRequest) (x402.SettleResponse, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Fatalf("settle must be bounded by a deadline")
			}
			if req.PaymentPayload.Payload.Signature != "0xsig" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return x402.SettleResponse{Success: true, Transaction: "0xtx", Network: "base-sepolia"}, nil
		})
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusSettled, gomock.Any()).Return(entities.Settlement{ID: "set-1", Status: entities.SettlementStatusSettled}, nil)
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(errors.New("log table missing"))
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		got, _, err := d.worker.ProcessOne(context.Background())
		if err != nil {
			t.Fatalf("log and publish failures must be swallowed, got %v", err)
		}
		if got.Status != entities.SettlementStatusSettled {
			t.Fatalf("expected settled, got %s", got.Status)
		}
	})

	t.Run("facilitator error fails without requeue", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(facilitatorRequestJSON(t))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.facilitator.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(x402.SettleResponse{}, interfaces.ErrFacilitatorUnreachable)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusFailed, gomock.Any()).Return(entities.Settlement{ID: "set-1", Status: entities.SettlementStatusFailed}, nil)
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil)
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(nil)

		got, _, err := d.worker.ProcessOne(context.Background())
		if err != nil || got.Status != entities.SettlementStatusFailed {
			t.Fatalf("expected failed settlement, got %+v err=%v", got, err)
		}
	})

	t.Run("facilitator rejects", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(facilitatorRequestJSON(t))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.facilitator.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(x402.SettleResponse{Success: false, ErrorReason: "invalid_transaction_state"}, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusFailed, gomock.Any()).Return(entities.Settlement{ID: "set-1", Status: entities.SettlementStatusFailed}, nil)
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil)
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(nil)

		if _, _, err := d.worker.ProcessOne(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("settle timeout is a failure", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{SettleTimeout: 20 * time.Millisecond})
		s := claimed(facilitatorRequestJSON(t))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.facilitator.EXPECT().Settle(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ x402.FacilitatorRequest) (x402.SettleResponse, error) {
			<-ctx.Done()
			return x402.SettleResponse{}, ctx.Err()
		})
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusFailed, gomock.Any()).
			DoAndReturn(func(_ context.Context, current entities.Settlement, status entities.SettlementStatus, resp json.RawMessage) (entities.Settlement, error) {
				if !strings.Contains(string(resp), "timed out") {
					t.Fatalf("expected timeout detail, got %s", resp)
				}
				return entities.Settlement{ID: current.ID, Status: status}, nil
			})
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil)
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(nil)

		if _, _, err := d.worker.ProcessOne(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unreadable request fails", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(json.RawMessage(`{"unexpected":true}`))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusFailed, gomock.Any()).Return(entities.Settlement{ID: "set-1", Status: entities.SettlementStatusFailed}, nil)
		d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil)
		d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(nil)

		if _, _, err := d.worker.ProcessOne(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("webhook finalized first", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(json.RawMessage(`{"simulate":{"success":true}}`))
		current := entities.Settlement{ID: "set-1", Status: entities.SettlementStatusSettled}

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Settlement{}, interfaces.ErrSettlementAlreadyFinal)
		d.repo.EXPECT().GetByAttemptID(gomock.Any(), "attempt-1").Return(current, nil)

		got, processed, err := d.worker.ProcessOne(context.Background())
		if err != nil || !processed || got.Status != entities.SettlementStatusSettled {
			t.Fatalf("unexpected result: %+v processed=%v err=%v", got, processed, err)
		}
	})

	t.Run("claim lost to reconciliation", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(json.RawMessage(`{"simulate":{"success":true}}`))
		reclaimed := s
		reclaimed.UpdatedAt = s.UpdatedAt.Add(time.Minute)

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), s, entities.SettlementStatusSettled, gomock.Any()).Return(entities.Settlement{}, interfaces.ErrSettlementStale)
		d.repo.EXPECT().GetByAttemptID(gomock.Any(), "attempt-1").Return(reclaimed, nil)

		got, processed, err := d.worker.ProcessOne(context.Background())
		if err != nil || !processed {
			t.Fatalf("unexpected result: processed=%v err=%v", processed, err)
		}
		if got.Status != entities.SettlementStatusProcessing || !got.UpdatedAt.Equal(reclaimed.UpdatedAt) {
			t.Fatalf("expected the current row, got %+v", got)
		}
	})

	t.Run("finalize persistence error", func(t *testing.T) {
		d := newWorkerDeps(t, SettlementWorkerConfig{})
		s := claimed(json.RawMessage(`{"simulate":{"success":true}}`))

		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(s, true, nil)
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Settlement{}, errors.New("write failed"))

		if _, _, err := d.worker.ProcessOne(context.Background()); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestNewSettlementWorker_RejectsMaxAgeWithinSettleTimeout(t *testing.T) {
	tests := []struct {
		name string
		cfg  SettlementWorkerConfig
	}{
		{"max age below settle timeout", SettlementWorkerConfig{SettleTimeout: time.Second, ProcessingMaxAge: 50 * time.Millisecond}},
		{"max age equal to settle timeout", SettlementWorkerConfig{SettleTimeout: time.Minute, ProcessingMaxAge: time.Minute}},
		{"default max age below settle timeout", SettlementWorkerConfig{SettleTimeout: 10 * time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewSettlementWorker(nil, nil, nil, zap.NewNop(), tt.cfg)
			if !errors.Is(err, ErrInvalidWorkerConfig) || w != nil {
				t.Fatalf("expected ErrInvalidWorkerConfig, got worker=%v err=%v", w, err)
			}
		})
	}

	if _, err := NewSettlementWorker(nil, nil, nil, zap.NewNop(), SettlementWorkerConfig{}); err != nil {
		t.Fatalf("defaults must be accepted: %v", err)
	}
}

// A worker whose row was requeued and claimed again must not overwrite the
// outcome recorded by the newer claim.
func TestSettlementWorker_LostClaimDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSettlementMemoryRepository()
	fac := mock_interfaces.NewMockIFacilitatorGateway(gomock.NewController(t))
	cfg := SettlementWorkerConfig{SettleTimeout: 5 * time.Second, ProcessingMaxAge: time.Minute}

	stale, err := NewSettlementWorker(repo, fac, nil, zap.NewNop(), cfg)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	current, err := NewSettlementWorker(repo, fac, nil, zap.NewNop(), cfg)
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	// The second worker sees the first claim as older than the max age.
	current.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }

	queued, err := repo.Enqueue(ctx, "attempt-1", facilitatorRequestJSON(t))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	gomock.InOrder(
		fac.EXPECT().Settle(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, x402.FacilitatorRequest) (x402.SettleResponse, error) {
			close(started)
			<-release
			return x402.SettleResponse{Success: true, Transaction: "0xstale"}, nil
		}),
		fac.EXPECT().Settle(gomock.Any(), gomock.Any()).Return(x402.SettleResponse{Success: true, Transaction: "0xcurrent"}, nil),
	)

	type result struct {
		s   entities.Settlement
		err error
	}
	staleDone := make(chan result, 1)
	go func() {
		s, _, err := stale.ProcessOne(ctx)
		staleDone <- result{s, err}
	}()
	<-started

	n, err := current.ReconcileStuck(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected the in-flight row requeued, got %d err=%v", n, err)
	}
	settled, processed, err := current.ProcessOne(ctx)
	if err != nil || !processed || settled.Status != entities.SettlementStatusSettled {
		t.Fatalf("unexpected result: %+v processed=%v err=%v", settled, processed, err)
	}

	close(release)
	var res result
	select {
	case res = <-staleDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("stale worker did not return")
	}
	if res.err != nil {
		t.Fatalf("stale worker must not fail: %v", res.err)
	}

	row, _ := repo.GetByAttemptID(ctx, "attempt-1")
	if row.ID != queued.ID || row.Status != entities.SettlementStatusSettled {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !strings.Contains(string(row.FacilitatorResponse), "0xcurrent") {
		t.Fatalf("stale claim overwrote the response: %s", row.FacilitatorResponse)
	}
	if !strings.Contains(string(res.s.FacilitatorResponse), "0xcurrent") {
		t.Fatalf("stale worker should report the stored row, got %s", res.s.FacilitatorResponse)
	}
}

func TestSettlementWorker_ReconcileStuck(t *testing.T) {
	d := newWorkerDeps(t, SettlementWorkerConfig{ProcessingMaxAge: 5 * time.Minute})
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	d.worker.now = func() time.Time { return now }

	d.repo.EXPECT().ResetStuckProcessing(gomock.Any(), now.Add(-5*time.Minute)).Return([]entities.Settlement{
		{ID: "a", Status: entities.SettlementStatusQueued},
		{ID: "b", Status: entities.SettlementStatusQueued},
	}, nil)
	d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, entry entities.SettlementLog) error {
		if entry.Level != entities.LogLevelWarn {
			t.Fatalf("expected warn entry, got %s", entry.Level)
		}
		return nil
	}).Times(2)

	n, err := d.worker.ReconcileStuck(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 requeued, got %d err=%v", n, err)
	}
}

func TestSettlementWorker_Run(t *testing.T) {
	d := newWorkerDeps(t, SettlementWorkerConfig{})
	ctx, cancel := context.WithCancel(context.Background())

	d.repo.EXPECT().ResetStuckProcessing(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	gomock.InOrder(
		d.repo.EXPECT().ClaimNextQueued(gomock.Any()).Return(claimed(json.RawMessage(`{"simulate":{"success":true}}`)), true, nil),
		d.repo.EXPECT().Finalize(gomock.Any(), gomock.Any(), entities.SettlementStatusSettled, gomock.Any()).Return(entities.Settlement{ID: "set-1", Status: entities.SettlementStatusSettled}, nil),
	)
	d.repo.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil)
	d.publisher.EXPECT().PublishSettlementFinalized(gomock.Any(), gomock.Any()).Return(nil)
	d.repo.EXPECT().ClaimNextQueued(gomock.Any()).DoAndReturn(func(context.Context) (entities.Settlement, bool, error) {
		cancel()
		return entities.Settlement{}, false, nil
	}).MinTimes(1)

	done := make(chan struct{})
	go func() {
		d.worker.Run(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop after cancel")
	}
}
