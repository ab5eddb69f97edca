package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/google/uuid"
)

const settlementColumns = `id, payment_attempt_id, facilitator_request, facilitator_response, status, created_at, updated_at`

// SettlementPostgresRepository persists settlements in Postgres. The schema
// is created by database.InitPostgres.
type SettlementPostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ interfaces.ISettlementRepository = (*SettlementPostgresRepository)(nil)

func NewSettlementPostgresRepository(db *sql.DB) *SettlementPostgresRepository {
	return &SettlementPostgresRepository{
		db:  db,
		// timestamptz keeps microseconds; Finalize compares updated_at exactly.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (entities.Settlement, error) {
	var (
		s        entities.Settlement
		status   string
		request  []byte
		response []byte
	)
	if err := row.Scan(&s.ID, &s.PaymentAttemptID, &request, &response, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return entities.Settlement{}, err
	}
	s.Status = entities.SettlementStatus(status)
	s.FacilitatorRequest = json.RawMessage(request)
	if len(response) > 0 {
		s.FacilitatorResponse = json.RawMessage(response)
	}
	return s, nil
}

func (r *SettlementPostgresRepository) Enqueue(ctx context.Context, paymentAttemptID string, facilitatorRequest json.RawMessage) (entities.Settlement, error) {
	now := r.now()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO settlements (id, payment_attempt_id, facilitator_request, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'queued', $4, $4)
		ON CONFLICT (payment_attempt_id) DO NOTHING
		RETURNING `+settlementColumns,
		uuid.NewString(), paymentAttemptID, string(facilitatorRequest), now)

	s, err := scanSettlement(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entities.Settlement{}, err
	}

	// Lost the insert race; the existing row wins.
	return scanSettlement(r.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE payment_attempt_id = $1`, paymentAttemptID))
}

func (r *SettlementPostgresRepository) ClaimNextQueued(ctx context.Context) (entities.Settlement, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE settlements SET status = 'processing', updated_at = GREATEST($1, updated_at + interval '1 microsecond')
		WHERE id = (
			SELECT id FROM settlements
			WHERE status = 'queued'
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+settlementColumns, r.now())

	s, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Settlement{}, false, nil
	}
	if err != nil {
		return entities.Settlement{}, false, err
	}
	return s, true, nil
}

func (r *SettlementPostgresRepository) Finalize(ctx context.Context, current entities.Settlement, status entities.SettlementStatus, facilitatorResponse json.RawMessage) (entities.Settlement, error) {
	if !status.IsTerminal() {
		return entities.Settlement{}, interfaces.ErrInvalidFinalStatus
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE settlements SET status = $2, facilitator_response = $3, updated_at = $4
		WHERE payment_attempt_id = $1 AND status = $5 AND updated_at = $6
		RETURNING `+settlementColumns,
		current.PaymentAttemptID, string(status), nullableJSON(facilitatorResponse), r.now(), string(current.Status), current.UpdatedAt)

	s, err := scanSettlement(row)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entities.Settlement{}, err
	}

	var latest string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM settlements WHERE payment_attempt_id = $1`, current.PaymentAttemptID).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Settlement{}, interfaces.ErrSettlementNotFound
	}
	if err != nil {
		return entities.Settlement{}, err
	}
	if entities.SettlementStatus(latest).IsTerminal() {
		return entities.Settlement{}, interfaces.ErrSettlementAlreadyFinal
	}
	return entities.Settlement{}, interfaces.ErrSettlementStale
}

func (r *SettlementPostgresRepository) AppendLog(ctx context.Context, entry entities.SettlementLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	var meta []byte
	if len(entry.Meta) > 0 {
		b, err := json.Marshal(entry.Meta)
		if err != nil {
			return err
		}
		meta = b
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settlement_logs (id, settlement_id, level, message, meta, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.SettlementID, string(entry.Level), entry.Message, nullableJSON(meta), nullableJSON(entry.Response), entry.CreatedAt)
	return err
}

func (r *SettlementPostgresRepository) GetByID(ctx context.Context, id string) (entities.Settlement, error) {
	return r.getOne(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id)
}

func (r *SettlementPostgresRepository) GetByAttemptID(ctx context.Context, paymentAttemptID string) (entities.Settlement, error) {
	return r.getOne(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE payment_attempt_id = $1`, paymentAttemptID)
}

func (r *SettlementPostgresRepository) getOne(ctx context.Context, query, arg string) (entities.Settlement, error) {
	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Settlement{}, nil
	}
	return s, err
}

func (r *SettlementPostgresRepository) List(ctx context.Context, status entities.SettlementStatus, limit int) ([]entities.Settlement, error) {
	if limit <= 0 {
		limit = 1000
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+settlementColumns+` FROM settlements WHERE status = $1 ORDER BY created_at ASC LIMIT $2`, string(status), limit)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+settlementColumns+` FROM settlements ORDER BY created_at ASC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	return collectSettlements(rows)
}

func (r *SettlementPostgresRepository) ResetStuckProcessing(ctx context.Context, olderThan time.Time) ([]entities.Settlement, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE settlements SET status = 'queued', updated_at = GREATEST($1, updated_at + interval '1 microsecond')
		WHERE status = 'processing' AND updated_at < $2
		RETURNING `+settlementColumns, r.now(), olderThan)
	if err != nil {
		return nil, err
	}
	return collectSettlements(rows)
}

func collectSettlements(rows *sql.Rows) ([]entities.Settlement, error) {
	defer rows.Close()

	var out []entities.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullableJSON maps an empty document to SQL NULL.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
