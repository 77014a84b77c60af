package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"moul.io/chizap"

	"github.com/classroomhq/auth-service/internal/auth"
	"github.com/classroomhq/auth-service/internal/config"
	"github.com/classroomhq/auth-service/internal/database"
	"github.com/classroomhq/auth-service/internal/guard"
	"github.com/classroomhq/auth-service/internal/token"
	"github.com/classroomhq/auth-service/internal/user"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DbConfig, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	store := user.NewPostgresStore(db, logger)
	tokens := token.NewService(cfg.JWTConfig)
	authService := auth.NewAuthenticationService(store, tokens, logger)
	authHandler := auth.NewAuthenticationHandler(authService, store, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(chizap.New(logger, &chizap.Opts{WithReferer: false, WithUserAgent: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.RefreshTokenHeader},
		AllowCredentials: true,
	}))
	r.Use(guard.Middleware(tokens, logger))

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(20, time.Minute))
		r.Mount("/auth", authHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppConfig.Port,
		Handler:      r,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
