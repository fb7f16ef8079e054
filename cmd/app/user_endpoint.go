package main

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"BlogAPI/internal/services"
)

func registerUserRoutes(g *echo.Group, us *services.UserService, authMW, adminMW echo.MiddlewareFunc, logger *slog.Logger) {
	users := g.Group("/users")
	users.Use(authMW, adminMW)

	users.GET("", func(c echo.Context) error {
		list, err := us.ListAll(c.Request().Context())
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": list})
	})

	users.GET("/active", func(c echo.Context) error {
		list, err := us.ListActive(c.Request().Context())
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": list})
	})
}
