package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kamyarm/wedding-seating/internal/config"
	"github.com/kamyarm/wedding-seating/internal/handler"
	"github.com/kamyarm/wedding-seating/internal/repository"
	"github.com/kamyarm/wedding-seating/internal/utils"
)

func newAuthHandler(t *testing.T) (*handler.AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, BcryptCost: bcrypt.MinCost}
	return handler.NewAuthHandler(cfg, repository.NewAdminRepo(db)), mock
}

func postLogin(t *testing.T, h *handler.AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	return rec
}

func adminRow(t *testing.T, password string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "is_active", "created_at", "updated_at"}).
		AddRow(3, "sara@example.com", hash, active, now, now)
}

func TestLogin_Succeeds(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT id,email,password_hash,is_active,created_at,updated_at FROM admins").
		WithArgs("sara@example.com").
		WillReturnRows(adminRow(t, "s3cret", true))

	rec := postLogin(t, h, `{"email":"Sara@Example.com","password":"s3cret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT id,email,password_hash,is_active,created_at,updated_at FROM admins").
		WillReturnRows(adminRow(t, "s3cret", true))

	rec := postLogin(t, h, `{"email":"sara@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_DisabledAccountRejected(t *testing.T) {
	h, mock := newAuthHandler(t)
	mock.ExpectQuery("SELECT id,email,password_hash,is_active,created_at,updated_at FROM admins").
		WillReturnRows(adminRow(t, "s3cret", false))

	rec := postLogin(t, h, `{"email":"sara@example.com","password":"s3cret"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
