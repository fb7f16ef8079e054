package services

import (
	"context"

	"BlogAPI/internal/model"
)

type UserService struct {
	Users UserRepo
}

func NewUserService(users UserRepo) *UserService {
	return &UserService{Users: users}
}

func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	return stripHashes(s.Users.List(ctx, false))
}

func (s *UserService) ListActive(ctx context.Context) ([]model.User, error) {
	return stripHashes(s.Users.List(ctx, true))
}

func stripHashes(list []model.User, err error) ([]model.User, error) {
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].PasswordHash = ""
	}
	return list, nil
}
