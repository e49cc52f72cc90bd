package identity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"propmarket/internal/platform/postgres"
	"propmarket/pkg/domain"
	"propmarket/pkg/email"
	"propmarket/pkg/platform/sentinel"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same store runs
// standalone or inside a registrar transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists identities in PostgreSQL. Pure I/O; the registrar
// and identity service own all cross-record logic.
type PostgresStore struct {
	db dbtx
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx scopes the store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

const identityColumns = `id, name, email, password_hash, role, created_at, updated_at`

func (s *PostgresStore) Insert(ctx context.Context, identity *Identity) error {
	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(identity.ID),
		identity.Name,
		identity.Email,
		identity.PasswordHash,
		identity.Role.String(),
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert identity: %w", postgres.ClassifyError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AccountID) (*Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	rec, err := scanIdentity(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, fmt.Errorf("find identity by id: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, addr string) (*Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE lower(email) = $1`
	rec, err := scanIdentity(s.db.QueryRowContext(ctx, query, email.Normalize(addr)))
	if err != nil {
		return nil, fmt.Errorf("find identity by email: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, identity *Identity) error {
	query := `
		UPDATE identities
		SET name = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(identity.ID),
		identity.Name,
		identity.Email,
		identity.PasswordHash,
		identity.Role.String(),
		identity.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update identity: %w", postgres.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id domain.AccountID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete identity: %w", postgres.ClassifyError(err))
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanIdentity(row *sql.Row) (*Identity, error) {
	var (
		rec     Identity
		id      uuid.UUID
		roleStr string
	)
	err := row.Scan(&id, &rec.Name, &rec.Email, &rec.PasswordHash, &roleStr, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.ID = domain.AccountID(id)
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("identity row has invalid role: %w", err)
	}
	rec.Role = role
	return &rec, nil
}
