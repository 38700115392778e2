package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/roadready/internal/config"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
	"github.com/iliyamo/roadready/internal/utils"
)

const testSecret = "handler-secret"

var ts = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:        testSecret,
		AccessTTLMin:     15,
		RefreshTTLDays:   7,
		BcryptCost:       4,
		PasswordResetTTL: time.Hour,
		DefaultRadiusKm:  20,
		MaxRadiusKm:      100,
		RadiusSteps:      []float64{10, 20, 50, 100},
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func tokenFor(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, uid, role, 15)
	require.NoError(t, err)
	return tok.Token
}

// authed returns a /v1 group behind JWTAuth, as the router mounts it.
func authed(e *echo.Echo) *echo.Group {
	return e.Group("/v1", middleware.JWTAuth(testSecret))
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// next waits briefly for one change on sub.
func next(t *testing.T, sub *realtime.Subscription) realtime.Change {
	t.Helper()
	select {
	case c := <-sub.C():
		return c
	case <-time.After(time.Second):
		t.Fatal("no change published")
		return realtime.Change{}
	}
}

func newAuthHandler(db *sql.DB) *AuthHandler {
	return NewAuthHandler(testConfig(), repository.NewUserRepo(db), repository.NewTokenRepo(db),
		repository.NewResetRepo(db), repository.NewProfileRepo(db), logger.NewNop())
}

func TestRegister(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("ada@example.com", sqlmock.AnyArg(), model.RoleMechanic).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := echo.New()
	e.POST("/v1/auth/register", newAuthHandler(db).Register)
	rec := do(e, http.MethodPost, "/v1/auth/register",
		`{"email":" Ada@Example.com ","password":"secret123","user_type":"mechanic","first_name":"Ada"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authResp
	decode(t, rec, &resp)
	assert.Equal(t, uint64(7), resp.User.ID)
	assert.Equal(t, model.UserTypeMechanic, resp.User.UserType)
	assert.NotEmpty(t, resp.Refresh.Token)

	uid, role, err := utils.ParseAccessToken(testSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	assert.Equal(t, model.RoleMechanic, role)
}

func TestRegister_Rejects(t *testing.T) {
	db, _ := newMockDB(t)
	e := echo.New()
	e.POST("/v1/auth/register", newAuthHandler(db).Register)

	cases := map[string]string{
		"short password": `{"email":"a@b.co","password":"123"}`,
		"bad email":      `{"email":"not-an-email","password":"secret123"}`,
		"bad user type":  `{"email":"a@b.co","password":"secret123","user_type":"admin"}`,
		"missing fields": `{}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/v1/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	e := echo.New()
	e.POST("/v1/auth/register", newAuthHandler(db).Register)
	rec := do(e, http.MethodPost, "/v1/auth/register", `{"email":"a@b.co","password":"secret123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("right-password", 4)
	require.NoError(t, err)
	cols := []string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

	t.Run("ok", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE email").WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "ada@example.com", hash, model.RoleDriver, true, ts, ts))
		mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

		e := echo.New()
		e.POST("/login", newAuthHandler(db).Login)
		rec := do(e, http.MethodPost, "/login", `{"email":"ada@example.com","password":"right-password"}`, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp authResp
		decode(t, rec, &resp)
		assert.Equal(t, model.UserTypeDriver, resp.User.UserType)
	})
	t.Run("wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE email").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "ada@example.com", hash, model.RoleDriver, true, ts, ts))

		e := echo.New()
		e.POST("/login", newAuthHandler(db).Login)
		rec := do(e, http.MethodPost, "/login", `{"email":"ada@example.com","password":"nope-nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE email").WillReturnError(sql.ErrNoRows)

		e := echo.New()
		e.POST("/login", newAuthHandler(db).Login)
		rec := do(e, http.MethodPost, "/login", `{"email":"x@example.com","password":"whatever"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefresh_RotatesToken(t *testing.T) {
	db, mock := newMockDB(t)
	hash := utils.HashRefreshRaw("old-token")
	mock.ExpectQuery("FROM refresh_tokens").WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).AddRow(7, time.Now().Add(time.Hour), nil))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs(hash).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM users WHERE id").WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(7, "ada@example.com", "x", model.RoleMechanic, true, ts, ts))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(2, 1))

	e := echo.New()
	e.POST("/refresh", newAuthHandler(db).Refresh)
	rec := do(e, http.MethodPost, "/refresh", `{"refresh_token":"old-token"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authResp
	decode(t, rec, &resp)
	assert.NotEqual(t, "old-token", resp.Refresh.Token)
	assert.Equal(t, model.RoleMechanic, resp.User.Role)
}

func TestLogout_RequiresSomething(t *testing.T) {
	db, _ := newMockDB(t)
	e := echo.New()
	e.POST("/logout", newAuthHandler(db).Logout)
	rec := do(e, http.MethodPost, "/logout", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_BearerRevokesAll(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE refresh_tokens").WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))

	e := echo.New()
	e.POST("/logout", newAuthHandler(db).Logout)
	rec := do(e, http.MethodPost, "/logout", `{}`, tokenFor(t, 7, model.RoleDriver))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestForgotPassword(t *testing.T) {
	cols := []string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

	t.Run("known email stores a hashed token", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE email").WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "ada@example.com", "x", model.RoleDriver, true, ts, ts))
		mock.ExpectExec("INSERT INTO password_resets").
			WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		h := newAuthHandler(db)
		h.Cfg.ExposeResetToken = true
		e := echo.New()
		e.POST("/forgot", h.ForgotPassword)
		rec := do(e, http.MethodPost, "/forgot", `{"email":" Ada@Example.com "}`, "")
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var body map[string]any
		decode(t, rec, &body)
		token, _ := body["reset_token"].(string)
		assert.Len(t, token, 64)
	})
	t.Run("unknown email looks the same", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE email").WillReturnError(sql.ErrNoRows)

		e := echo.New()
		e.POST("/forgot", newAuthHandler(db).ForgotPassword)
		rec := do(e, http.MethodPost, "/forgot", `{"email":"nobody@example.com"}`, "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.NotContains(t, rec.Body.String(), "reset_token")
	})
	t.Run("token hidden by default", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM users WHERE email").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, "ada@example.com", "x", model.RoleDriver, true, ts, ts))
		mock.ExpectExec("INSERT INTO password_resets").WillReturnResult(sqlmock.NewResult(1, 1))

		e := echo.New()
		e.POST("/forgot", newAuthHandler(db).ForgotPassword)
		rec := do(e, http.MethodPost, "/forgot", `{"email":"ada@example.com"}`, "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.NotContains(t, rec.Body.String(), "reset_token")
	})
	t.Run("bad email", func(t *testing.T) {
		db, _ := newMockDB(t)
		e := echo.New()
		e.POST("/forgot", newAuthHandler(db).ForgotPassword)
		assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/forgot", `{"email":"nope"}`, "").Code)
	})
}

func TestResetPassword(t *testing.T) {
	resetCols := []string{"user_id", "expires_at", "used_at"}

	t.Run("sets password and signs out everywhere", func(t *testing.T) {
		db, mock := newMockDB(t)
		hash := utils.HashRefreshRaw("reset-token")
		mock.ExpectBegin()
		mock.ExpectQuery("FROM password_resets WHERE token_hash = \\? LIMIT 1 FOR UPDATE").WithArgs(hash).
			WillReturnRows(sqlmock.NewRows(resetCols).AddRow(7, time.Now().Add(time.Hour), nil))
		mock.ExpectExec("UPDATE password_resets SET used_at").WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE users SET password_hash").WithArgs(sqlmock.AnyArg(), uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		e := echo.New()
		e.POST("/reset", newAuthHandler(db).ResetPassword)
		rec := do(e, http.MethodPost, "/reset", `{"token":"reset-token","password":"new-secret"}`, "")
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})
	t.Run("used token", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FROM password_resets").
			WillReturnRows(sqlmock.NewRows(resetCols).AddRow(7, time.Now().Add(time.Hour), time.Now()))
		mock.ExpectRollback()

		e := echo.New()
		e.POST("/reset", newAuthHandler(db).ResetPassword)
		rec := do(e, http.MethodPost, "/reset", `{"token":"reset-token","password":"new-secret"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("weak password is rejected before the token is spent", func(t *testing.T) {
		db, _ := newMockDB(t)
		e := echo.New()
		e.POST("/reset", newAuthHandler(db).ResetPassword)
		assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/reset", `{"token":"reset-token","password":"123"}`, "").Code)
		assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/reset", `{"password":"new-secret"}`, "").Code)
	})
}

func TestFail_MapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{repository.ErrForbidden, http.StatusForbidden},
		{repository.ErrConflict, http.StatusConflict},
		{repository.ErrEmailExists, http.StatusConflict},
		{repository.ErrInvalidTransition, http.StatusConflict},
		{repository.ErrNotCompleted, http.StatusConflict},
		{sql.ErrConnDone, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, fail(c, logger.NewNop(), tc.err, "boom"))
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}
