package main

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"BlogAPI/internal/middleware"
	"BlogAPI/internal/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func registerHandler(authSvc *services.AuthService, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(registerRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}

		user, err := authSvc.Register(c.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			return jsonError(c, logger, err)
		}

		return c.JSON(http.StatusCreated, echo.Map{
			"message": "user registered successfully",
			"data":    user,
		})
	}
}

func loginHandler(authSvc *services.AuthService, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(loginRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}

		user, token, err := authSvc.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return jsonError(c, logger, err)
		}

		return c.JSON(http.StatusOK, echo.Map{
			"token": token,
			"user":  user,
		})
	}
}

// meHandler returns the freshly resolved identity the middleware attached.
func meHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"data": middleware.CurrentUser(c)})
	}
}

func registerAuthRoutes(g *echo.Group, authSvc *services.AuthService, authMW echo.MiddlewareFunc, logger *slog.Logger) {
	auth := g.Group("/auth")

	// public
	auth.POST("/register", registerHandler(authSvc, logger))
	auth.POST("/login", loginHandler(authSvc, logger))

	// authenticated
	protected := auth.Group("")
	protected.Use(authMW)
	protected.GET("/me", meHandler())
}
