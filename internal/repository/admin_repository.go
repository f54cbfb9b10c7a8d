package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/utils"
)

// AdminRepo persists planner accounts in the 'admins' table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts an admin and returns its ID.
func (r *AdminRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (email, password_hash) VALUES (?,?)",
		email, hash)
	if err != nil {
		// MySQL duplicate-key errors carry code 1062.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an admin by normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,is_active,created_at,updated_at FROM admins WHERE email=? LIMIT 1",
		email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
