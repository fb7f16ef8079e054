package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"BlogAPI/internal/model"
	"BlogAPI/internal/security"
)

type seedFile struct {
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

// SeedUsers creates the accounts listed in a YAML file unless their email is
// already taken. A fresh database gets its first admin this way; reruns are
// no-ops.
func SeedUsers(ctx context.Context, path string, users UserRepo, hasher *security.PasswordHasher) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, entry := range sf.Users {
		if entry.Email == "" || entry.Password == "" {
			continue
		}
		email := strings.ToLower(entry.Email)
		exists, err := users.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		hash, err := hasher.Hash(entry.Password)
		if err != nil {
			return err
		}
		role := entry.Role
		if role == "" {
			role = model.RoleUser
		}
		u := &model.User{
			ID:           uuid.New(),
			Name:         entry.Name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}
		if err := users.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
