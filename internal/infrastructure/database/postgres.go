package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const settlementSchema = `
CREATE TABLE IF NOT EXISTS settlements (
	id TEXT PRIMARY KEY,
	payment_attempt_id TEXT NOT NULL UNIQUE,
	facilitator_request JSONB NOT NULL,
	facilitator_response JSONB,
	status VARCHAR(20) NOT NULL DEFAULT 'queued',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS settlements_status_created_at_idx ON settlements (status, created_at);

CREATE TABLE IF NOT EXISTS settlement_logs (
	id TEXT PRIMARY KEY,
	settlement_id TEXT NOT NULL,
	level VARCHAR(10) NOT NULL,
	message TEXT NOT NULL,
	meta JSONB,
	response JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS settlement_logs_settlement_id_idx ON settlement_logs (settlement_id);
`

// InitPostgres opens the settlement database and creates its tables.
func InitPostgres(ctx context.Context, logger *zap.Logger) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getenvDefault("DB_HOST", "localhost"),
		getenvDefault("DB_PORT", "5432"),
		getenvDefault("DB_USER", "postgres"),
		getenvDefault("DB_PASSWORD", "postgres"),
		getenvDefault("DB_NAME", "x402"),
		getenvDefault("DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database connection established")
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, settlementSchema); err != nil {
		return fmt.Errorf("failed to create settlement tables: %w", err)
	}
	return nil
}
