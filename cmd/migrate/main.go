// Package main provides a CLI tool that applies the database schema.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"bancaflow/internal/infrastructure/storage/postgres"
	"bancaflow/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                    UUID PRIMARY KEY,
	email                 TEXT NOT NULL,
	password_hash         TEXT NOT NULL,
	first_name            TEXT NOT NULL DEFAULT '',
	last_name             TEXT NOT NULL DEFAULT '',
	is_active             BOOLEAN NOT NULL DEFAULT TRUE,
	last_login_at         TIMESTAMPTZ,
	failed_login_attempts INT NOT NULL DEFAULT 0,
	locked_until          TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id             UUID PRIMARY KEY,
	user_id        UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	token_hash     TEXT NOT NULL UNIQUE,
	expires_at     TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	revoked_at     TIMESTAMPTZ,
	revoked_reason TEXT
);
CREATE INDEX IF NOT EXISTS refresh_tokens_user_idx ON refresh_tokens (user_id);

CREATE TABLE IF NOT EXISTS magazines (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	nickname       TEXT,
	edition_number INT NOT NULL DEFAULT 0,
	barcode        TEXT,
	stock_quantity INT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
	cover_price    NUMERIC(12,2) NOT NULL DEFAULT 0,
	net_price      NUMERIC(12,2),
	image_url      TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS magazines_barcode_key ON magazines (barcode) WHERE barcode IS NOT NULL;
CREATE INDEX IF NOT EXISTS magazines_name_idx ON magazines (name);

CREATE TABLE IF NOT EXISTS delivery_notes (
	id              UUID PRIMARY KEY,
	owner_id        UUID NOT NULL REFERENCES users (id),
	outlet_id       TEXT NOT NULL DEFAULT '',
	document_number TEXT NOT NULL DEFAULT '',
	reference_date  TIMESTAMPTZ NOT NULL,
	file_url        TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS delivery_notes_owner_idx ON delivery_notes (owner_id, reference_date DESC);

CREATE TABLE IF NOT EXISTS delivery_note_lines (
	id          UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES delivery_notes (id) ON DELETE CASCADE,
	magazine_id UUID NOT NULL REFERENCES magazines (id),
	quantity    INT NOT NULL DEFAULT 0,
	UNIQUE (document_id, magazine_id)
);

CREATE TABLE IF NOT EXISTS return_calls (
	id         UUID PRIMARY KEY,
	owner_id   UUID NOT NULL REFERENCES users (id),
	outlet_id  TEXT NOT NULL DEFAULT '',
	deadline   TIMESTAMPTZ NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open',
	file_url   TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT return_calls_owner_deadline_key UNIQUE (owner_id, deadline)
);
CREATE INDEX IF NOT EXISTS return_calls_owner_idx ON return_calls (owner_id, deadline DESC);

CREATE TABLE IF NOT EXISTS return_call_lines (
	id                 UUID PRIMARY KEY,
	document_id        UUID NOT NULL REFERENCES return_calls (id) ON DELETE CASCADE,
	magazine_id        UUID NOT NULL REFERENCES magazines (id),
	quantity_received  INT NOT NULL DEFAULT 0,
	quantity_to_return INT NOT NULL DEFAULT 0 CHECK (quantity_to_return >= 0),
	received_date      TIMESTAMPTZ,
	UNIQUE (document_id, magazine_id)
);
CREATE INDEX IF NOT EXISTS return_call_lines_magazine_idx ON return_call_lines (magazine_id) WHERE quantity_to_return > 0;

CREATE TABLE IF NOT EXISTS sales (
	id               UUID PRIMARY KEY,
	owner_id         UUID NOT NULL REFERENCES users (id),
	magazine_id      UUID NOT NULL REFERENCES magazines (id),
	payment_method   TEXT NOT NULL,
	quantity         INT NOT NULL CHECK (quantity > 0),
	discount_applied NUMERIC(12,2) NOT NULL DEFAULT 0,
	total_value      NUMERIC(12,2) NOT NULL DEFAULT 0,
	sold_at          TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sales_owner_sold_idx ON sales (owner_id, sold_at DESC);

CREATE TABLE IF NOT EXISTS document_payloads (
	id               UUID PRIMARY KEY,
	document_id      UUID NOT NULL,
	document_kind    TEXT NOT NULL,
	payload          BYTEA NOT NULL,
	compression_algo TEXT NOT NULL DEFAULT 'none',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS document_payloads_document_idx ON document_payloads (document_id);
`

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	log.Info("schema applied")
}
