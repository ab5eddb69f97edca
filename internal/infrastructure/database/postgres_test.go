package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS settlements")).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := migrate(context.Background(), db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	if err := migrate(context.Background(), db); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
