// Package postgres opens the shared database handle and classifies driver
// errors into sentinels the stores understand.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"propmarket/pkg/platform/sentinel"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Postgres error codes the stores care about.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// ClassifyError maps driver-level failures onto store sentinels so services
// never see pq internals. Unrecognized errors pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrConflict)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrConflict)
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w", pqErr.Code.Name(), sentinel.ErrRetryable)
		}
	}
	return err
}
