package storage

import (
	"context"

	"github.com/arafat-hossain/doctors-portal/libs/db"
)

// Idempotent DDL applied at startup. The unique index on bookings backs the
// one-booking-per-treatment-per-day rule; duplicate inserts are resolved by
// the store, not by a read-then-write check in the handler.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS treatment_options (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name        TEXT NOT NULL UNIQUE,
    price_cents BIGINT NOT NULL DEFAULT 0,
    slots       JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS bookings (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email            TEXT NOT NULL,
    treatment        TEXT NOT NULL,
    appointment_date TEXT NOT NULL,
    slot             TEXT NOT NULL,
    patient_name     TEXT NOT NULL DEFAULT '',
    phone            TEXT NOT NULL DEFAULT '',
    price_cents      BIGINT NOT NULL DEFAULT 0,
    paid             BOOLEAN NOT NULL DEFAULT FALSE,
    transaction_id   TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_email_treatment_date
    ON bookings (email, treatment, appointment_date);

CREATE INDEX IF NOT EXISTS idx_bookings_appointment_date
    ON bookings (appointment_date);

CREATE TABLE IF NOT EXISTS users (
    id    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email TEXT NOT NULL UNIQUE,
    name  TEXT NOT NULL DEFAULT '',
    role  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS doctors (
    id        UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name      TEXT NOT NULL,
    email     TEXT NOT NULL UNIQUE,
    specialty TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS payments (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    booking_id     TEXT NOT NULL,
    email          TEXT NOT NULL,
    price_cents    BIGINT NOT NULL DEFAULT 0,
    transaction_id TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_payments_email
    ON payments (email);

CREATE TABLE IF NOT EXISTS outbox_events (
    id             BIGSERIAL PRIMARY KEY,
    event_id       UUID NOT NULL DEFAULT gen_random_uuid(),
    aggregate_type TEXT NOT NULL,
    aggregate_id   TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    payload        JSONB NOT NULL,
    traceparent    TEXT NOT NULL DEFAULT '',
    tracestate     TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_events_unpublished
    ON outbox_events (id) WHERE published_at IS NULL;
`

func EnsureSchema(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaDDL)
	return err
}
