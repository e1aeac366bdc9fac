package storage

import (
	"context"

	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/google/uuid"
)

// TreatmentRepository reads the treatment catalog. The catalog is an immutable
// template; bookings never write to it.
type TreatmentRepository struct {
	pool *db.Pool
}

func NewTreatmentRepository(pool *db.Pool) *TreatmentRepository {
	return &TreatmentRepository{pool: pool}
}

func (r *TreatmentRepository) List(ctx context.Context) ([]model.TreatmentOption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, price_cents, slots
		FROM treatment_options
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.TreatmentOption
	for rows.Next() {
		var opt model.TreatmentOption
		if err := rows.Scan(&opt.ID, &opt.Name, &opt.PriceCents, &opt.Slots); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return options, nil
}

// ListNames is the name-only projection backing the specialty listing.
func (r *TreatmentRepository) ListNames(ctx context.Context) ([]model.TreatmentOption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name
		FROM treatment_options
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.TreatmentOption
	for rows.Next() {
		var opt model.TreatmentOption
		if err := rows.Scan(&opt.ID, &opt.Name); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return options, nil
}

func (r *TreatmentRepository) GetByName(ctx context.Context, name string) (model.TreatmentOption, error) {
	var opt model.TreatmentOption
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, price_cents, slots
		FROM treatment_options
		WHERE name = $1
	`, name).Scan(&opt.ID, &opt.Name, &opt.PriceCents, &opt.Slots)
	if err != nil {
		return model.TreatmentOption{}, err
	}
	return opt, nil
}

// Upsert seeds or updates a catalog entry. Used by operational tooling, not by
// any request path.
func (r *TreatmentRepository) Upsert(ctx context.Context, opt model.TreatmentOption) (string, error) {
	id := opt.ID
	if id == "" {
		id = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO treatment_options (id, name, price_cents, slots)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET price_cents = EXCLUDED.price_cents,
			slots = EXCLUDED.slots
		RETURNING id::text
	`, id, opt.Name, opt.PriceCents, opt.Slots).Scan(&id)
	return id, err
}
