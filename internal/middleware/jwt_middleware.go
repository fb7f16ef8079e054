package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"BlogAPI/internal/model"
	"BlogAPI/internal/repository"
	"BlogAPI/internal/security"
)

const userContextKey = "current_user"

// UserFinder resolves a token subject to a live account.
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// JWT returns an Echo middleware that verifies the bearer token and then
// re-fetches the subject from the store, so a deactivated or deleted account
// is rejected even while its token is still within TTL. The fresh profile
// (without password hash) is attached to the request context.
func JWT(tokens *security.TokenManager, users UserFinder, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization header"})
			}
			parts := strings.Fields(auth)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header"})
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				// expired and malformed/forged stay distinguishable here
				// even though both answer 401
				if errors.Is(err, security.ErrTokenExpired) {
					logger.Info("rejected expired token", "path", c.Path())
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				logger.Warn("rejected invalid token", "path", c.Path())
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			user, err := users.GetByID(c.Request().Context(), claims.UserID)
			if err != nil {
				// only a vanished subject is an auth failure; a store
				// outage must not present as an invalid token
				if errors.Is(err, repository.ErrUserNotFound) {
					logger.Info("token subject no longer resolvable", "user_id", claims.UserID)
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				logger.Error("identity lookup failed", "user_id", claims.UserID, "err", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			if !user.IsActive {
				logger.Info("token subject is deactivated", "user_id", claims.UserID)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			user.PasswordHash = ""
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireRoles gates a route to the given roles. It must run after JWT; a
// request reaching it without an identity is a route-wiring bug, not a user
// error, and answers 500.
func RequireRoles(logger *slog.Logger, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				logger.Error("role guard invoked without an authenticated identity", "path", c.Path())
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			if _, ok := allowed[user.Role]; !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}

// CurrentUser returns the identity the JWT middleware attached, or nil.
func CurrentUser(c echo.Context) *model.User {
	v := c.Get(userContextKey)
	if v == nil {
		return nil
	}
	if u, ok := v.(*model.User); ok {
		return u
	}
	return nil
}
