package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// UserService exposes the user file read-only. Users are maintained by
// editing the file.
type UserService struct {
	userRepo ports.UserRepository
	opts     Options
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger, opts Options) *UserService {
	return &UserService{
		userRepo: userRepo,
		opts:     opts.withDefaults(),
		logger:   logger.WithComponent("user_service"),
	}
}

// ListUsers returns every user without passwords. An unreadable user file
// yields an empty list.
func (s *UserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		if err := degrade(s.logger, s.opts.Strict, "users.list", err); err != nil {
			return nil, err
		}
		return []*entities.User{}, nil
	}

	for _, u := range users {
		u.Password = ""
	}
	return users, nil
}

// GetUser retrieves a user by code
func (s *UserService) GetUser(ctx context.Context, code int) (*entities.User, error) {
	user, err := s.userRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, err
		}
		if err := degrade(s.logger, s.opts.Strict, "users.get_by_code", err); err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return nil, entities.ErrUserNotFound
	}

	user.Password = ""
	return user, nil
}
