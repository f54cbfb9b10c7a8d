package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kamyarm/wedding-seating/internal/utils"
)

// adminColumns mirrors what Migrate creates for the admins table; the
// SELECT in GetByEmail must stay within this set.
var adminColumns = []string{"id", "email", "password_hash", "is_active", "created_at", "updated_at"}

func newAdminRepo(t *testing.T) (*AdminRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAdminRepo(db), mock
}

func TestAdminRepoCreate(t *testing.T) {
	repo, mock := newAdminRepo(t)

	mock.ExpectExec("INSERT INTO admins").
		WithArgs("sara@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "  Sara@Example.COM ", "s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepoCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newAdminRepo(t)

	mock.ExpectExec("INSERT INTO admins").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'sara@example.com'"))

	_, err := repo.Create(context.Background(), "sara@example.com", "s3cret", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAdminRepoGetByEmail(t *testing.T) {
	repo, mock := newAdminRepo(t)

	hash, err := utils.HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id,email,password_hash,is_active,created_at,updated_at FROM admins").
		WithArgs("sara@example.com").
		WillReturnRows(sqlmock.NewRows(adminColumns).
			AddRow(7, "sara@example.com", hash, true, now, now))

	a, err := repo.GetByEmail(context.Background(), " Sara@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), a.ID)
	assert.Equal(t, "sara@example.com", a.Email)
	assert.True(t, a.IsActive)
	assert.True(t, utils.VerifyPassword(a.PasswordHash, "s3cret"))
	require.NoError(t, mock.ExpectationsWereMet())
}
