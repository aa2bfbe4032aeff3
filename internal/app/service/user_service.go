package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/promoit/shortlink/internal/app/model"
	"github.com/promoit/shortlink/internal/app/repository"
)

// UserService resolves ownership tokens, minting one lazily when the caller
// arrives without an identity.
type UserService interface {
	GetOrCreate(ctx context.Context, userID string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a service backed by the given repository.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetOrCreate(ctx context.Context, userID string) (*model.User, error) {
	if userID != "" {
		user, err := s.repo.GetByID(ctx, userID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	user := &model.User{ID: uuid.New().String()}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return s.repo.GetByID(ctx, userID)
}
