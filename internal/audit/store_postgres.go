package audit

import (
	"context"
	"database/sql"
	"fmt"

	"propmarket/internal/platform/postgres"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, account_id, action, client_ip, user_agent, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.OccurredAt,
		event.AccountID,
		event.Action,
		event.ClientIP,
		event.UserAgent,
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", postgres.ClassifyError(err))
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string) ([]Event, error) {
	query := `
		SELECT occurred_at, account_id, action, client_ip, user_agent, detail
		FROM audit_events
		WHERE account_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", postgres.ClassifyError(err))
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.OccurredAt, &e.AccountID, &e.Action, &e.ClientIP, &e.UserAgent, &e.Detail); err != nil {
			return nil, fmt.Errorf("list audit events: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", postgres.ClassifyError(err))
	}
	return out, nil
}
