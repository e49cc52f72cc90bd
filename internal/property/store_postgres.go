package property

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"propmarket/internal/platform/postgres"
	"propmarket/internal/seller"
	"propmarket/pkg/domain"
	"propmarket/pkg/platform/sentinel"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists property listings in PostgreSQL. Reads join the
// owning seller's public summary onto each row.
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

const propertyColumns = `p.id, p.title, p.type, p.description,
	p.addr_house, p.addr_street, p.addr_city, p.addr_postal,
	p.for_sale, p.price, p.discount_price, p.beds, p.baths,
	p.parking_spot, p.furnished, p.images, p.seller_id, p.created_at, p.updated_at,
	s.first_name, s.last_name, s.profile_picture, s.phone, s.email`

const propertyFrom = ` FROM properties p JOIN sellers s ON s.id = p.seller_id `

func (s *PostgresStore) Insert(ctx context.Context, p *Property) error {
	query := `
		INSERT INTO properties (id, title, type, description,
			addr_house, addr_street, addr_city, addr_postal,
			for_sale, price, discount_price, beds, baths,
			parking_spot, furnished, images, seller_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		p.Title,
		p.Type.String(),
		p.Description,
		p.Address.House,
		p.Address.Street,
		p.Address.City,
		p.Address.PostalCode,
		p.ForSale,
		p.Price,
		p.DiscountPrice,
		p.Beds,
		p.Baths,
		p.Options.ParkingSpot,
		p.Options.Furnished,
		pq.Array(p.Images),
		uuid.UUID(p.SellerID),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert property: %w", postgres.ClassifyError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.PropertyID) (*Property, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+propertyColumns+propertyFrom+`WHERE p.id = $1`, uuid.UUID(id))
	p, err := scanPropertyRow(row)
	if err != nil {
		return nil, fmt.Errorf("find property by id: %w", postgres.ClassifyError(err))
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*Property, error) {
	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", postgres.ClassifyError(err))
	}
	defer rows.Close()

	var out []*Property
	for rows.Next() {
		p, err := scanPropertyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list properties: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list properties: %w", postgres.ClassifyError(err))
	}
	return out, nil
}

// buildListQuery compiles a Filter into SQL with positional placeholders.
func buildListQuery(filter Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Type != "" {
		conds = append(conds, "p.type = "+arg(filter.Type.String()))
	}
	if filter.City != "" {
		conds = append(conds, "p.addr_city ILIKE "+arg("%"+filter.City+"%"))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "p.price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "p.price <= "+arg(*filter.MaxPrice))
	}
	if filter.ForSale != nil {
		conds = append(conds, "p.for_sale = "+arg(*filter.ForSale))
	}
	if !filter.SellerID.IsNil() {
		conds = append(conds, "p.seller_id = "+arg(uuid.UUID(filter.SellerID)))
	}
	if filter.MinBeds != nil {
		conds = append(conds, "p.beds >= "+arg(*filter.MinBeds))
	}
	if filter.MinBaths != nil {
		conds = append(conds, "p.baths >= "+arg(*filter.MinBaths))
	}

	query := `SELECT ` + propertyColumns + propertyFrom
	if len(conds) > 0 {
		query += `WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY p.created_at`
	return query, args
}

func (s *PostgresStore) UpdateByID(ctx context.Context, p *Property) error {
	query := `
		UPDATE properties
		SET title = $2, type = $3, description = $4,
			addr_house = $5, addr_street = $6, addr_city = $7, addr_postal = $8,
			for_sale = $9, price = $10, discount_price = $11, beds = $12, baths = $13,
			parking_spot = $14, furnished = $15, images = $16, updated_at = $17
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(p.ID),
		p.Title,
		p.Type.String(),
		p.Description,
		p.Address.House,
		p.Address.Street,
		p.Address.City,
		p.Address.PostalCode,
		p.ForSale,
		p.Price,
		p.DiscountPrice,
		p.Beds,
		p.Baths,
		p.Options.ParkingSpot,
		p.Options.Furnished,
		pq.Array(p.Images),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", postgres.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id domain.PropertyID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete property: %w", postgres.ClassifyError(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) CountBySeller(ctx context.Context, sellerID domain.AccountID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM properties WHERE seller_id = $1`, uuid.UUID(sellerID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count properties by seller: %w", postgres.ClassifyError(err))
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPropertyRow(row rowScanner) (*Property, error) {
	var (
		p       Property
		id      uuid.UUID
		typ     string
		ownerID uuid.UUID
		owner   seller.Summary
	)
	err := row.Scan(
		&id,
		&p.Title,
		&typ,
		&p.Description,
		&p.Address.House,
		&p.Address.Street,
		&p.Address.City,
		&p.Address.PostalCode,
		&p.ForSale,
		&p.Price,
		&p.DiscountPrice,
		&p.Beds,
		&p.Baths,
		&p.Options.ParkingSpot,
		&p.Options.Furnished,
		pq.Array(&p.Images),
		&ownerID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&owner.FirstName,
		&owner.LastName,
		&owner.ProfilePicture,
		&owner.Phone,
		&owner.Email,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseType(typ)
	if err != nil {
		return nil, fmt.Errorf("stored property type %q: %w", typ, err)
	}
	p.ID = domain.PropertyID(id)
	p.Type = parsed
	p.SellerID = domain.AccountID(ownerID)
	owner.ID = domain.AccountID(ownerID)
	p.Seller = &owner
	return &p, nil
}
