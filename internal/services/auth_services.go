package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"BlogAPI/internal/model"
	"BlogAPI/internal/repository"
	"BlogAPI/internal/security"
)

const MinPasswordLen = 8

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// ErrValidation marks bad input; handlers map it to 400.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials covers unknown email and wrong password alike,
	// so a login response never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepo is the persistence surface the user-facing services need.
type UserRepo interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, onlyActive bool) ([]model.User, error)
}

type AuthService struct {
	Users  UserRepo
	Hasher *security.PasswordHasher
	Tokens *security.TokenManager
}

func NewAuthService(users UserRepo, hasher *security.PasswordHasher, tokens *security.TokenManager) *AuthService {
	return &AuthService{Users: users, Hasher: hasher, Tokens: tokens}
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLen)
	}
	return nil
}

// Register creates a "user"-role account. Emails are stored lowercased so
// uniqueness is case-insensitive.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	email = strings.ToLower(email)

	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: email already registered", ErrValidation)
		}
		return nil, err
	}

	// never hand the hash back, even though the model hides it from JSON
	u.PasswordHash = ""
	return u, nil
}

// Login authenticates email+password and mints a token. Every failure mode a
// caller could probe with collapses into ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !u.IsActive {
		return nil, "", ErrInvalidCredentials
	}
	if !s.Hasher.Verify(password, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}

	u.PasswordHash = ""
	return u, token, nil
}
