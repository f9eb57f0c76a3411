package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	phone         TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'customer' CHECK (role IN ('customer', 'admin')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cars (
	id            BIGSERIAL PRIMARY KEY,
	brand         TEXT NOT NULL,
	model         TEXT NOT NULL,
	year          INT NOT NULL,
	transmission  TEXT NOT NULL CHECK (transmission IN ('manual', 'automatic', 'cvt')),
	fuel_type     TEXT NOT NULL CHECK (fuel_type IN ('petrol', 'diesel', 'electric', 'hybrid')),
	seats         INT NOT NULL CHECK (seats BETWEEN 2 AND 9),
	price_per_day NUMERIC(10, 2) NOT NULL CHECK (price_per_day > 0),
	description   TEXT NOT NULL DEFAULT '',
	features      JSONB NOT NULL DEFAULT '[]',
	image_url     TEXT,
	license_plate TEXT NOT NULL UNIQUE,
	status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'maintenance')),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bookings (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	car_id      BIGINT NOT NULL REFERENCES cars (id) ON DELETE CASCADE,
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	total_price NUMERIC(10, 2) NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'completed', 'cancelled')),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (start_date <= end_date)
);

CREATE INDEX IF NOT EXISTS idx_bookings_car_status ON bookings (car_id, status);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id);

CREATE TABLE IF NOT EXISTS reviews (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	car_id     BIGINT NOT NULL REFERENCES cars (id) ON DELETE CASCADE,
	rating     INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reviews_car ON reviews (car_id);
`

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}
	return nil
}
