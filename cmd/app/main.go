package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"BlogAPI/internal/config"
	"BlogAPI/internal/db"
	"BlogAPI/internal/middleware"
	"BlogAPI/internal/model"
	"BlogAPI/internal/repository"
	"BlogAPI/internal/security"
	"BlogAPI/internal/services"
	"BlogAPI/internal/storage"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ======================
	// CONFIG
	// ======================
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// ======================
	// INFRA
	// ======================
	if err := db.Migrate(ctx, cfg.DatabaseDSN); err != nil {
		log.Fatal(err)
	}
	pool, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	var images services.ImageStore
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatal(err)
		}
		images = store
	} else {
		logger.Warn("MINIO_ENDPOINT not set, featured-image uploads disabled")
	}

	// ======================
	// SECURITY
	// ======================
	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	tokens, err := security.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal(err)
	}

	// ======================
	// REPOSITORIES
	// ======================
	userRepo := repository.NewUserRepository(pool)
	postRepo := repository.NewPostRepository(pool)

	// ======================
	// SERVICES
	// ======================
	authSvc := services.NewAuthService(userRepo, hasher, tokens)
	postSvc := services.NewPostService(postRepo, images)
	userSvc := services.NewUserService(userRepo)

	if cfg.SeedUsersPath != "" {
		if err := services.SeedUsers(ctx, cfg.SeedUsersPath, userRepo, hasher); err != nil {
			log.Fatal(err)
		}
	}

	// ======================
	// ECHO
	// ======================
	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
	}))

	authMW := middleware.JWT(tokens, userRepo, logger)
	adminMW := middleware.RequireRoles(logger, model.RoleAdmin)

	registerHealthRoutes(e)

	api := e.Group("/api")

	// ======================
	// ROUTES (ONLY REGISTRATION)
	// ======================
	registerAuthRoutes(api, authSvc, authMW, logger)
	registerPostRoutes(api, postSvc, authMW, logger)
	registerUserRoutes(api, userSvc, authMW, adminMW, logger)

	// ======================
	// SERVER
	// ======================
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
