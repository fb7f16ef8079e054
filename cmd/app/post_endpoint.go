package main

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"BlogAPI/internal/middleware"
	"BlogAPI/internal/services"
)

// 5 MiB cap on featured-image uploads
const maxImageSize = 5 << 20

type postRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func parsePostID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func registerPostRoutes(g *echo.Group, ps *services.PostService, authMW echo.MiddlewareFunc, logger *slog.Logger) {
	// public list
	g.GET("/posts", func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		offset, _ := strconv.Atoi(c.QueryParam("offset"))

		list, err := ps.List(c.Request().Context(), c.QueryParam("category"), limit, offset)
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": list})
	})

	// public get
	g.GET("/posts/:id", func(c echo.Context) error {
		id, err := parsePostID(c)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		post, err := ps.Get(c.Request().Context(), id)
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": post})
	})

	// public featured image
	g.GET("/posts/:id/image", func(c echo.Context) error {
		id, err := parsePostID(c)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		data, contentType, err := ps.Image(c.Request().Context(), id)
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.Blob(http.StatusOK, contentType, data)
	})

	// protected group for the requester's posts and all mutations
	protected := g.Group("")
	protected.Use(authMW)

	protected.GET("/posts/user", func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		list, err := ps.ListByAuthor(c.Request().Context(), user.ID)
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": list})
	})

	protected.POST("/posts", func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		req := new(postRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		post, err := ps.Create(c.Request().Context(), user, services.PostInput{
			Title:    req.Title,
			Content:  req.Content,
			Category: req.Category,
			Tags:     req.Tags,
		})
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{"data": post})
	})

	protected.PUT("/posts/:id", func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		id, err := parsePostID(c)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		req := new(postRequest)
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		post, err := ps.Update(c.Request().Context(), id, user, services.PostInput{
			Title:    req.Title,
			Content:  req.Content,
			Category: req.Category,
			Tags:     req.Tags,
		})
		if err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": post})
	})

	protected.DELETE("/posts/:id", func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		id, err := parsePostID(c)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		if err := ps.Delete(c.Request().Context(), id, user); err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "post deleted"})
	})

	protected.PUT("/posts/:id/image", func(c echo.Context) error {
		user := middleware.CurrentUser(c)
		id, err := parsePostID(c)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}

		file, err := c.FormFile("image")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
		}
		if file.Size > maxImageSize {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "image too large"})
		}
		src, err := file.Open()
		if err != nil {
			return jsonError(c, logger, err)
		}
		defer src.Close()
		data, err := io.ReadAll(io.LimitReader(src, maxImageSize))
		if err != nil {
			return jsonError(c, logger, err)
		}

		contentType := file.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := ps.AttachImage(c.Request().Context(), id, user, data, contentType); err != nil {
			return jsonError(c, logger, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "image uploaded"})
	})
}
