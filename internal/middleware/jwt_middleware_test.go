package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BlogAPI/internal/model"
	"BlogAPI/internal/repository"
	"BlogAPI/internal/security"
)

type fakeFinder struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeFinder) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTokenManager(t *testing.T) *security.TokenManager {
	t.Helper()
	tm, err := security.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return tm
}

// runProtected sends a request with the given Authorization header through
// the JWT middleware into a handler that echoes the attached identity's id.
func runProtected(t *testing.T, tm *security.TokenManager, finder UserFinder, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		user := CurrentUser(c)
		require.NotNil(t, user)
		return c.JSON(http.StatusOK, echo.Map{"data": user.ID})
	}, JWT(tm, finder, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWT_ValidTokenAttachesFreshIdentity(t *testing.T) {
	tm := newTokenManager(t)
	u := &model.User{ID: uuid.New(), Name: "Peter", Email: "peter@x.com", Role: model.RoleUser, IsActive: true}
	finder := &fakeFinder{users: map[uuid.UUID]*model.User{u.ID: u}}

	token, err := tm.Issue(u.ID, u.Role)
	require.NoError(t, err)

	rec := runProtected(t, tm, finder, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), u.ID.String())
}

func TestJWT_MissingOrMalformedHeader(t *testing.T) {
	tm := newTokenManager(t)
	finder := &fakeFinder{users: map[uuid.UUID]*model.User{}}

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer one two"} {
		rec := runProtected(t, tm, finder, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestJWT_ExpiredAndForgedTokens(t *testing.T) {
	tm := newTokenManager(t)
	u := &model.User{ID: uuid.New(), Role: model.RoleUser, IsActive: true}
	finder := &fakeFinder{users: map[uuid.UUID]*model.User{u.ID: u}}

	// signed with a different secret
	otherTM, err := security.NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := otherTM.Issue(u.ID, u.Role)
	require.NoError(t, err)

	// signed with the right secret but already past exp
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &security.Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for _, token := range []string{forged, expired, "not.a.jwt"} {
		rec := runProtected(t, tm, finder, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

// A token stays cryptographically valid for its TTL, but the fresh re-fetch
// rejects subjects that were deleted or deactivated after issuance.
func TestJWT_StaleSubjects(t *testing.T) {
	tm := newTokenManager(t)

	deleted := uuid.New()
	inactive := &model.User{ID: uuid.New(), Role: model.RoleUser, IsActive: false}
	finder := &fakeFinder{users: map[uuid.UUID]*model.User{inactive.ID: inactive}}

	tokDeleted, err := tm.Issue(deleted, model.RoleUser)
	require.NoError(t, err)
	tokInactive, err := tm.Issue(inactive.ID, model.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, runProtected(t, tm, finder, "Bearer "+tokDeleted).Code)
	assert.Equal(t, http.StatusUnauthorized, runProtected(t, tm, finder, "Bearer "+tokInactive).Code)
}

type brokenFinder struct{}

func (brokenFinder) GetByID(context.Context, uuid.UUID) (*model.User, error) {
	return nil, errors.New("connection refused")
}

// A store outage during the re-fetch is an infrastructure failure, not an
// authentication one: the client gets a generic 500, never "invalid token".
func TestJWT_StoreFailureIsNotUnauthorized(t *testing.T) {
	tm := newTokenManager(t)

	token, err := tm.Issue(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	rec := runProtected(t, tm, brokenFinder{}, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "invalid token")
}

func TestRequireRoles(t *testing.T) {
	tm := newTokenManager(t)
	admin := &model.User{ID: uuid.New(), Role: model.RoleAdmin, IsActive: true}
	user := &model.User{ID: uuid.New(), Role: model.RoleUser, IsActive: true}
	finder := &fakeFinder{users: map[uuid.UUID]*model.User{admin.ID: admin, user.ID: user}}

	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, JWT(tm, finder, testLogger()), RequireRoles(testLogger(), model.RoleAdmin))

	send := func(u *model.User) int {
		token, err := tm.Issue(u.ID, u.Role)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(admin))
	assert.Equal(t, http.StatusForbidden, send(user))
}

// RequireRoles without the JWT middleware in front is a wiring bug, answered
// as an internal error rather than 401/403.
func TestRequireRoles_NoIdentity(t *testing.T) {
	e := echo.New()
	e.GET("/miswired", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRoles(testLogger(), model.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/miswired", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
