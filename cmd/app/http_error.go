package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"BlogAPI/internal/repository"
	"BlogAPI/internal/services"
)

// jsonError maps a service error to the status taxonomy: 400 validation,
// 401 bad credentials, 403 forbidden, 404 unknown id, 500 everything else.
// Infrastructure errors are logged with detail but answered generically.
func jsonError(c echo.Context, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, services.ErrNotPostAuthor):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not allowed to modify this post"})
	case errors.Is(err, repository.ErrPostNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
	case errors.Is(err, services.ErrNoFeaturedImage):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "post has no featured image"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		logger.Error("request failed", "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
