package server

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpHandlers "github.com/taskmaster/tracker/internal/adapters/http"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

// basicAuthMiddleware resolves HTTP basic credentials (email, password) to
// the current user
func (s *Server) basicAuthMiddleware(authService ports.AuthService) echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: "tracker",
		Validator: func(email, password string, c echo.Context) (bool, error) {
			user, err := authService.Login(c.Request().Context(), ports.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				if errors.Is(err, entities.ErrInvalidCredentials) || entities.IsValidationError(err) {
					return false, nil
				}
				return false, err
			}

			httpHandlers.SetCurrentUser(c, user)
			return true, nil
		},
	})
}
