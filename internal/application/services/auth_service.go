package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo ports.UserRepository
	validate *validator.Validate
	opts     Options
	logger   *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, logger *logger.Logger, opts Options) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		validate: NewValidator(),
		opts:     opts.withDefaults(),
		logger:   logger.WithComponent("auth_service"),
	}
}

// Login returns the user matching the credentials. An unreadable user file
// is reported as invalid credentials unless strict.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*entities.User, error) {
	if err := validateRequest(s.validate, s.opts.Metrics, req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByCredentials(ctx, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, entities.ErrUserNotFound) {
			if err := degrade(s.logger, s.opts.Strict, "users.get_by_credentials", err); err != nil {
				return nil, err
			}
		}
		s.logger.LogSecurityEvent("login_failed", req.Email, map[string]interface{}{
			"reason": "no matching user",
		})
		return nil, entities.ErrInvalidCredentials
	}

	s.logger.Infow("User logged in", "user_code", user.Code)
	return user, nil
}
