//go:build integration

package registrar_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/platform/postgres"
	"propmarket/internal/property"
	"propmarket/internal/registrar"
	"propmarket/internal/seller"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/testutil/containers"
)

func newPostgresRegistrar(t *testing.T) (*registrar.Service, *sql.DB) {
	t.Helper()

	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.EnsureSchema(context.Background(), pg.DB))

	stores := registrar.Stores{
		Identities: identity.NewPostgres(pg.DB),
		Customers:  customer.NewPostgres(pg.DB),
		Sellers:    seller.NewPostgres(pg.DB),
	}
	svc := registrar.New(registrar.NewPostgresTx(pg.DB), stores,
		registrar.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		registrar.WithPropertyCounter(property.NewPostgres(pg.DB)),
	)
	return svc, pg.DB
}

func countRows(t *testing.T, db *sql.DB, table string, id domain.AccountID) int {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = $1", table), id.String()).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestPostgresRegisterCreatesLinkedPair(t *testing.T) {
	svc, db := newPostgresRegistrar(t)
	ctx := context.Background()

	profile, err := svc.RegisterCustomer(ctx, registrar.RegisterCustomerInput{
		Profile: customer.NewProfileInput{
			FirstName: "Ada", LastName: "Okafor",
			Email: "ada@example.com", Phone: "+2348012345678",
		},
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, db, "customers", profile.ID))
	assert.Equal(t, 1, countRows(t, db, "identities", profile.ID))

	var role string
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT role FROM identities WHERE id = $1", profile.ID.String()).Scan(&role))
	assert.Equal(t, "customer", role)
}

func TestPostgresConcurrentDuplicateEmail(t *testing.T) {
	svc, db := newPostgresRegistrar(t)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.RegisterCustomer(context.Background(), registrar.RegisterCustomerInput{
				Profile: customer.NewProfileInput{
					FirstName: "Ada", LastName: "Okafor",
					Email: "race@example.com", Phone: "+2348012345678",
				},
				Password: "s3cret-pass",
			})
		}()
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	// Exactly one linked pair survives, never an orphan on either side.
	var identities, customers int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM identities WHERE LOWER(email) = 'race@example.com'").Scan(&identities))
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM customers WHERE LOWER(email) = 'race@example.com'").Scan(&customers))
	assert.Equal(t, 1, identities)
	assert.Equal(t, 1, customers)
}

func TestPostgresConcurrentDuplicateUsername(t *testing.T) {
	svc, db := newPostgresRegistrar(t)

	const attempts = 4
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.RegisterSeller(context.Background(), registrar.RegisterSellerInput{
				Profile: seller.NewProfileInput{
					FirstName: "Bola", LastName: "Adeyemi",
					Email: fmt.Sprintf("bola%d@example.com", i), Phone: "+2348098765432",
					Identification: "NIN-29381840", Username: "bola",
				},
				Password: "s3cret-pass",
			})
		}()
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)

	var sellers int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sellers WHERE username = 'bola'").Scan(&sellers))
	assert.Equal(t, 1, sellers)
}

func TestPostgresDeregisterRemovesPairExactlyOnce(t *testing.T) {
	svc, db := newPostgresRegistrar(t)
	ctx := context.Background()

	profile, err := svc.RegisterCustomer(ctx, registrar.RegisterCustomerInput{
		Profile: customer.NewProfileInput{
			FirstName: "Ada", LastName: "Okafor",
			Email: "ada@example.com", Phone: "+2348012345678",
		},
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	admin := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	require.NoError(t, svc.DeregisterCustomer(ctx, admin, profile.ID))
	assert.Equal(t, 0, countRows(t, db, "customers", profile.ID))
	assert.Equal(t, 0, countRows(t, db, "identities", profile.ID))

	err = svc.DeregisterCustomer(ctx, admin, profile.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "second delete: %v", err)
}

func TestPostgresDeregisterSellerBlockedByListings(t *testing.T) {
	svc, db := newPostgresRegistrar(t)
	ctx := context.Background()

	profile, err := svc.RegisterSeller(ctx, registrar.RegisterSellerInput{
		Profile: seller.NewProfileInput{
			FirstName: "Bola", LastName: "Adeyemi",
			Email: "bola@example.com", Phone: "+2348098765432",
			Identification: "NIN-29381840", Username: "bola",
		},
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	listing, err := property.New(property.NewPropertyInput{
		Title: "Two-bed flat", Type: "Residential",
		Description: "Bright two-bedroom flat",
		Address: property.Address{
			House: "4", Street: "Bourdillon Road", City: "Lagos", PostalCode: "101233",
		},
		Price:  45_000_000,
		Images: []string{"https://img.example.com/1.jpg"},
	}, profile.ID, profile.CreatedAt)
	require.NoError(t, err)
	require.NoError(t, property.NewPostgres(db).Insert(ctx, listing))

	admin := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	err = svc.DeregisterSeller(ctx, admin, profile.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "delete with listings: %v", err)
	assert.Equal(t, 1, countRows(t, db, "sellers", profile.ID))
	assert.Equal(t, 1, countRows(t, db, "identities", profile.ID))

	require.NoError(t, property.NewPostgres(db).DeleteByID(ctx, listing.ID))
	require.NoError(t, svc.DeregisterSeller(ctx, admin, profile.ID))
	assert.Equal(t, 0, countRows(t, db, "sellers", profile.ID))
}
