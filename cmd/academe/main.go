package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academe-hq/academe/internal/app"
	"github.com/academe-hq/academe/internal/auth"
	"github.com/academe-hq/academe/internal/classrooms"
	"github.com/academe-hq/academe/internal/memberships"
	"github.com/academe-hq/academe/internal/observability"
	"github.com/academe-hq/academe/internal/permissions"
	"github.com/academe-hq/academe/internal/platform/cache"
	"github.com/academe-hq/academe/internal/platform/db"
	"github.com/academe-hq/academe/internal/resources"
	"github.com/academe-hq/academe/internal/roles"
	"github.com/academe-hq/academe/internal/schools"
	"github.com/academe-hq/academe/internal/students"
	"github.com/academe-hq/academe/internal/users"
	"github.com/academe-hq/academe/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	cachePort := cache.NewRedis(redisClient)

	metrics := observability.NewMetrics()

	permissionsRepo := permissions.NewRepository(pool)
	registry := permissions.NewRegistry(permissionsRepo)

	usersRepo := users.NewRepository(pool)
	membershipsRepo := memberships.NewRepository(pool)
	invalidator := auth.NewCacheInvalidator(logger, cachePort, usersRepo, membershipsRepo)
	membershipsService := memberships.NewService(membershipsRepo, invalidator)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(rolesRepo, registry, invalidator)

	adapter, err := buildAuthAdapter(cfg, pool)
	if err != nil {
		logger.Error("init auth adapter", slog.Any("error", err))
		os.Exit(1)
	}
	resolver := auth.NewResolver(logger, usersRepo, membershipsRepo, cachePort, cfg.AuthCacheTTL, metrics)
	authService := auth.NewService(logger, adapter, usersRepo, membershipsService, rolesRepo)
	authMiddleware := auth.NewMiddleware(adapter, resolver)

	if err := registry.Seed(ctx); err != nil {
		logger.Error("seed permission registry", slog.Any("error", err))
		os.Exit(1)
	}
	if err := rolesService.Seed(ctx); err != nil {
		logger.Error("seed system roles", slog.Any("error", err))
		os.Exit(1)
	}
	if err := authService.SeedSuperAdmin(ctx, cfg.SuperadminEmail, cfg.SuperadminPassword); err != nil {
		logger.Error("seed super admin", slog.Any("error", err))
		os.Exit(1)
	}

	schoolsRepo := schools.NewRepository(pool)
	schoolsService := schools.NewService(schoolsRepo, membershipsService, rolesRepo, invalidator)

	classroomsRepo := classrooms.NewRepository(pool)
	classroomsService := classrooms.NewService(classroomsRepo)

	studentsRepo := students.NewRepository(pool)
	studentsService := students.NewService(studentsRepo, schoolsRepo)

	resourcesRepo := resources.NewRepository(pool)
	resourcesService := resources.NewService(resourcesRepo, classroomsRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        auth.NewHandler(logger, authService),
		UsersHandler:       users.NewHandler(logger, usersRepo),
		SchoolsHandler:     schools.NewHandler(logger, schoolsService),
		ClassroomsHandler:  classrooms.NewHandler(logger, classroomsService),
		StudentsHandler:    students.NewHandler(logger, studentsService),
		ResourcesHandler:   resources.NewHandler(logger, resourcesService),
		RolesHandler:       roles.NewHandler(logger, rolesService),
		PermissionsHandler: permissions.NewHandler(logger, registry),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func buildAuthAdapter(cfg *app.Config, pool *pgxpool.Pool) (auth.Adapter, error) {
	switch cfg.AuthProvider {
	case "local":
		identities := auth.NewIdentityRepository(pool)
		return auth.NewLocalAdapter(identities, cfg.TokenSecret, cfg.TokenTTL), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}
}
