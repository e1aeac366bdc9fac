package storage

import (
	"context"
	"errors"

	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `
	id::text, email, treatment, appointment_date, slot, patient_name, phone,
	price_cents, paid, COALESCE(transaction_id, ''), created_at`

// Create inserts the booking unless one already exists for the same
// (email, treatment, appointment date). The unique index makes the duplicate
// check atomic: under concurrent identical requests exactly one insert wins
// and the rest observe created=false. Runs inside the caller's transaction so
// the booking commits together with its outbox event.
func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, b model.Booking) (string, bool, error) {
	id := uuid.NewString()
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(id, email, treatment, appointment_date, slot, patient_name, phone, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email, treatment, appointment_date) DO NOTHING
		RETURNING id::text
	`, id, b.Email, b.Treatment, b.AppointmentDate, b.Slot, b.PatientName, b.Phone, b.PriceCents).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func (r *BookingRepository) ListByDate(ctx context.Context, date string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE appointment_date = $1
	`, date)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *BookingRepository) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE email = $1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (model.Booking, error) {
	var b model.Booking
	err := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id::text = $1
	`, id).Scan(
		&b.ID, &b.Email, &b.Treatment, &b.AppointmentDate, &b.Slot,
		&b.PatientName, &b.Phone, &b.PriceCents, &b.Paid, &b.TransactionID, &b.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// CountSlotTaken reports how many bookings already hold a slot for the given
// (treatment, date). Only consulted when slot-capacity enforcement is enabled.
func (r *BookingRepository) CountSlotTaken(ctx context.Context, treatment, date, slot string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings
		WHERE treatment = $1 AND appointment_date = $2 AND slot = $3
	`, treatment, date, slot).Scan(&n)
	return n, err
}

// MarkPaid sets paid and the transaction id on the referenced booking and
// returns the number of rows touched. Zero rows means the booking id is
// unknown; callers decide whether that is an error.
func (r *BookingRepository) MarkPaid(ctx context.Context, tx pgx.Tx, bookingID, transactionID string) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET paid = true,
			transaction_id = $2
		WHERE id::text = $1
	`, bookingID, transactionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func scanBookings(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID, &b.Email, &b.Treatment, &b.AppointmentDate, &b.Slot,
			&b.PatientName, &b.Phone, &b.PriceCents, &b.Paid, &b.TransactionID, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}
