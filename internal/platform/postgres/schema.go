package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied at startup. Statements are idempotent so repeated boots
// are safe; this stands in for a migration tool while the schema is young.
const schema = `
CREATE TABLE IF NOT EXISTS identities (
	id            UUID PRIMARY KEY,
	name          TEXT        NOT NULL,
	email         TEXT        NOT NULL,
	password_hash TEXT        NOT NULL,
	role          TEXT        NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS identities_email_key ON identities (lower(email));

CREATE TABLE IF NOT EXISTS customers (
	id            UUID PRIMARY KEY,
	first_name    TEXT        NOT NULL,
	last_name     TEXT        NOT NULL,
	email         TEXT        NOT NULL,
	phone         TEXT        NOT NULL,
	address       TEXT        NOT NULL DEFAULT '',
	interests     TEXT[]      NOT NULL DEFAULT '{}',
	registered_at TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS customers_email_key ON customers (lower(email));

CREATE TABLE IF NOT EXISTS sellers (
	id                    UUID PRIMARY KEY,
	first_name            TEXT        NOT NULL,
	last_name             TEXT        NOT NULL,
	email                 TEXT        NOT NULL,
	phone                 TEXT        NOT NULL,
	identification        TEXT        NOT NULL,
	profile_picture       TEXT        NOT NULL DEFAULT '',
	bio                   TEXT        NOT NULL DEFAULT '',
	social_facebook       TEXT        NOT NULL DEFAULT '',
	social_linkedin       TEXT        NOT NULL DEFAULT '',
	social_instagram      TEXT        NOT NULL DEFAULT '',
	preferred_languages   TEXT[]      NOT NULL DEFAULT '{}',
	business_name         TEXT        NOT NULL DEFAULT '',
	business_reg_number   TEXT        NOT NULL DEFAULT '',
	business_designation  TEXT        NOT NULL DEFAULT '',
	username              TEXT        NOT NULL,
	status                TEXT        NOT NULL,
	registered_at         TIMESTAMPTZ NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS sellers_email_key ON sellers (lower(email));
CREATE UNIQUE INDEX IF NOT EXISTS sellers_username_key ON sellers (lower(username));

CREATE TABLE IF NOT EXISTS properties (
	id              UUID PRIMARY KEY,
	title           TEXT        NOT NULL,
	type            TEXT        NOT NULL,
	description     TEXT        NOT NULL,
	addr_house      TEXT        NOT NULL,
	addr_street     TEXT        NOT NULL,
	addr_city       TEXT        NOT NULL,
	addr_postal     TEXT        NOT NULL,
	for_sale        BOOLEAN     NOT NULL DEFAULT TRUE,
	price           BIGINT      NOT NULL,
	discount_price  BIGINT,
	beds            INT,
	baths           INT,
	parking_spot    BOOLEAN     NOT NULL DEFAULT FALSE,
	furnished       BOOLEAN     NOT NULL DEFAULT FALSE,
	images          TEXT[]      NOT NULL DEFAULT '{}',
	seller_id       UUID        NOT NULL REFERENCES sellers (id),
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS properties_seller_idx ON properties (seller_id);
CREATE INDEX IF NOT EXISTS properties_city_idx ON properties (lower(addr_city));

CREATE TABLE IF NOT EXISTS audit_events (
	id          BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	account_id  TEXT        NOT NULL DEFAULT '',
	action      TEXT        NOT NULL,
	client_ip   TEXT        NOT NULL DEFAULT '',
	user_agent  TEXT        NOT NULL DEFAULT '',
	detail      TEXT        NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_account_idx ON audit_events (account_id);
`

// EnsureSchema creates all tables and indexes if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
