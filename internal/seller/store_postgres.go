package seller

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

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

// PostgresStore persists seller profiles in PostgreSQL.
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

const sellerColumns = `id, first_name, last_name, email, phone, identification, profile_picture, bio,
	social_facebook, social_linkedin, social_instagram, preferred_languages,
	business_name, business_reg_number, business_designation,
	username, status, registered_at, created_at, updated_at`

func (s *PostgresStore) Insert(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO sellers (` + sellerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.Phone,
		profile.Identification,
		profile.ProfilePicture,
		profile.Bio,
		profile.SocialLinks.Facebook,
		profile.SocialLinks.LinkedIn,
		profile.SocialLinks.Instagram,
		pq.Array(profile.PreferredLanguages),
		profile.Business.Name,
		profile.Business.RegistrationNumber,
		profile.Business.Designation,
		profile.Username,
		profile.Status.String(),
		profile.RegisteredAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert seller: %w", postgres.ClassifyError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AccountID) (*Profile, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE id = $1`
	rec, err := scanSeller(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, fmt.Errorf("find seller by id: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, addr string) (*Profile, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE lower(email) = $1`
	rec, err := scanSeller(s.db.QueryRowContext(ctx, query, email.Normalize(addr)))
	if err != nil {
		return nil, fmt.Errorf("find seller by email: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*Profile, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE lower(username) = $1`
	rec, err := scanSeller(s.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(username))))
	if err != nil {
		return nil, fmt.Errorf("find seller by username: %w", postgres.ClassifyError(err))
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, status Status) ([]*Profile, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status.String())
	}
	query += ` ORDER BY registered_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sellers: %w", postgres.ClassifyError(err))
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		rec, err := scanSellerRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list sellers: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sellers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateByID(ctx context.Context, profile *Profile) error {
	query := `
		UPDATE sellers
		SET first_name = $2, last_name = $3, phone = $4, identification = $5,
			profile_picture = $6, bio = $7,
			social_facebook = $8, social_linkedin = $9, social_instagram = $10,
			preferred_languages = $11,
			business_name = $12, business_reg_number = $13, business_designation = $14,
			status = $15, updated_at = $16
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(profile.ID),
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		profile.Identification,
		profile.ProfilePicture,
		profile.Bio,
		profile.SocialLinks.Facebook,
		profile.SocialLinks.LinkedIn,
		profile.SocialLinks.Instagram,
		pq.Array(profile.PreferredLanguages),
		profile.Business.Name,
		profile.Business.RegistrationNumber,
		profile.Business.Designation,
		profile.Status.String(),
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update seller: %w", postgres.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id domain.AccountID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sellers WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete seller: %w", postgres.ClassifyError(err))
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

func scanSeller(row *sql.Row) (*Profile, error) {
	return scanSellerRow(row)
}

func scanSellerRow(row rowScanner) (*Profile, error) {
	var (
		rec       Profile
		id        uuid.UUID
		statusStr string
	)
	err := row.Scan(
		&id,
		&rec.FirstName,
		&rec.LastName,
		&rec.Email,
		&rec.Phone,
		&rec.Identification,
		&rec.ProfilePicture,
		&rec.Bio,
		&rec.SocialLinks.Facebook,
		&rec.SocialLinks.LinkedIn,
		&rec.SocialLinks.Instagram,
		pq.Array(&rec.PreferredLanguages),
		&rec.Business.Name,
		&rec.Business.RegistrationNumber,
		&rec.Business.Designation,
		&rec.Username,
		&statusStr,
		&rec.RegisteredAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = domain.AccountID(id)
	status, err := ParseStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("seller row has invalid status: %w", err)
	}
	rec.Status = status
	return &rec, nil
}
