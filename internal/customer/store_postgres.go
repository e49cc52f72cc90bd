package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"propmarket/internal/platform/postgres"
	"propmarket/pkg/domain"
	"propmarket/pkg/email"
	"propmarket/pkg/platform/sentinel"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists customer profiles in PostgreSQL.
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

const customerColumns = `id, first_name, last_name, email, phone, address, interests, registered_at, created_at, updated_at`

func (s *PostgresStore) Insert(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.Phone,
		profile.Address,
		pq.Array(profile.Interests),
		profile.RegisteredAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", postgres.ClassifyError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AccountID) (*Profile, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	rec, err := scanCustomer(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, fmt.Errorf("find customer by id: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, addr string) (*Profile, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = $1`
	rec, err := scanCustomer(s.db.QueryRowContext(ctx, query, email.Normalize(addr)))
	if err != nil {
		return nil, fmt.Errorf("find customer by email: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Profile, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY registered_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", postgres.ClassifyError(err))
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		rec, err := scanCustomerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, profile *Profile) error {
	query := `
		UPDATE customers
		SET first_name = $2, last_name = $3, phone = $4, address = $5, interests = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		profile.Address,
		pq.Array(profile.Interests),
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", postgres.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id domain.AccountID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete customer: %w", postgres.ClassifyError(err))
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row *sql.Row) (*Profile, error) {
	return scanCustomerRow(row)
}

func scanCustomerRow(row rowScanner) (*Profile, error) {
	var (
		rec Profile
		id  uuid.UUID
	)
	err := row.Scan(
		&id,
		&rec.FirstName,
		&rec.LastName,
		&rec.Email,
		&rec.Phone,
		&rec.Address,
		pq.Array(&rec.Interests),
		&rec.RegisteredAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = domain.AccountID(id)
	return &rec, nil
}
