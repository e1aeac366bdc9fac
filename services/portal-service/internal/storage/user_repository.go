package storage

import (
	"context"

	"github.com/arafat-hossain/doctors-portal/libs/db"
	"github.com/arafat-hossain/doctors-portal/services/portal-service/internal/model"
	"github.com/google/uuid"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert registers a user, keyed by email. Registration is not authenticated
// and may be retried by the client, so a repeat is a no-op that returns the
// existing record's id (the stored role is never downgraded by it).
func (r *UserRepository) Upsert(ctx context.Context, u model.User) (string, error) {
	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name
		RETURNING id::text
	`, id, u.Email, u.Name).Scan(&id)
	return id, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, email, name, role
		FROM users
		WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, email, name, role
		FROM users
		ORDER BY email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return users, nil
}

// PromoteAdmin sets role=Admin on the target user. Promoting a user who is
// already Admin touches the row again and is still reported as success.
// Returns false when no user with that id exists.
func (r *UserRepository) PromoteAdmin(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET role = $2
		WHERE id::text = $1
	`, id, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
