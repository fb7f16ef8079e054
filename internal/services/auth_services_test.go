package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"BlogAPI/internal/model"
	"BlogAPI/internal/repository"
	"BlogAPI/internal/security"
)

// fakeUserRepo is an in-memory UserRepo keyed by lowercased email.
type fakeUserRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*model.User{},
		byID:    map[uuid.UUID]*model.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	key := strings.ToLower(u.Email)
	if _, ok := f.byEmail[key]; ok {
		return repository.ErrDuplicateEmail
	}
	cp := *u
	f.byEmail[key] = &cp
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (f *fakeUserRepo) List(_ context.Context, onlyActive bool) ([]model.User, error) {
	list := []model.User{}
	for _, u := range f.byEmail {
		if onlyActive && !u.IsActive {
			continue
		}
		list = append(list, *u)
	}
	return list, nil
}

func newAuthService(t *testing.T, repo UserRepo) *AuthService {
	t.Helper()
	tokens, err := security.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return NewAuthService(repo, security.NewPasswordHasher(bcrypt.MinCost), tokens)
}

func TestRegister_StoresHashNotPlaintext(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(t, repo)

	u, err := svc.Register(context.Background(), "Peter", "peter@x.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "peter@x.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.Empty(t, u.PasswordHash)

	stored := repo.byEmail["peter@x.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegister_LowercasesEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(t, repo)

	u, err := svc.Register(context.Background(), "Peter", "Peter@X.COM", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "peter@x.com", u.Email)

	_, err = svc.Register(context.Background(), "Other", "PETER@x.com", "secret123")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	cases := []struct {
		name, userName, email, password string
	}{
		{"missing name", "", "a@b.com", "secret123"},
		{"missing email", "Peter", "", "secret123"},
		{"bad email", "Peter", "invalid-email", "secret123"},
		{"short password", "Peter", "a@b.com", "1234"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Peter", "peter@x.com", "secret123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Imposter", "peter@x.com", "secret456")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Peter", "peter@x.com", "secret123")
	require.NoError(t, err)

	u, token, err := svc.Login(ctx, "peter@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "peter@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	claims, err := svc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Role, claims.Role)
}

// Wrong password and unknown email must be exactly the same error, so the
// response cannot be used to enumerate accounts.
func TestLogin_NoUserEnumeration(t *testing.T) {
	svc := newAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Peter", "peter@x.com", "secret123")
	require.NoError(t, err)

	_, _, wrongPw := svc.Login(ctx, "peter@x.com", "wrong-password")
	_, _, noUser := svc.Login(ctx, "nobody@x.com", "secret123")

	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPw, noUser)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(t, repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Peter", "peter@x.com", "secret123")
	require.NoError(t, err)

	repo.byID[u.ID].IsActive = false

	_, _, err = svc.Login(ctx, "peter@x.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
