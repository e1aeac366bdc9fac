package storage

import (
	"context"

	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepository writes the append-only payment ledger. Rows are inserted
// inside the same transaction that marks the booking paid and are never
// updated afterwards.
type PaymentRepository struct {
	pool *db.Pool
}

func NewPaymentRepository(pool *db.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Insert(ctx context.Context, tx pgx.Tx, p model.Payment) (string, error) {
	id := uuid.NewString()
	_, err := tx.Exec(ctx, `
		INSERT INTO payments (id, booking_id, email, price_cents, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
	`, id, p.BookingID, p.Email, p.PriceCents, p.TransactionID)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, booking_id::text, email, price_cents, transaction_id, created_at
		FROM payments
		WHERE email = $1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Email, &p.PriceCents, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return payments, nil
}
