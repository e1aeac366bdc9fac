package storage

import (
	"context"

	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/google/uuid"
)

type DoctorRepository struct {
	pool *db.Pool
}

func NewDoctorRepository(pool *db.Pool) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

func (r *DoctorRepository) Create(ctx context.Context, d model.Doctor) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, email, specialty, image_url)
		VALUES ($1, $2, $3, $4, $5)
	`, id, d.Name, d.Email, d.Specialty, d.ImageURL)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, specialty, COALESCE(image_url, '')
		FROM doctors
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialty, &d.ImageURL); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return doctors, nil
}

// Delete returns false when no doctor with that id existed.
func (r *DoctorRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctors
		WHERE id::text = $1
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
