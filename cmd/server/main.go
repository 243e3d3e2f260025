package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskdesk-api/internal/auth"
	"taskdesk-api/internal/bootstrap"
	"taskdesk-api/internal/config"
	"taskdesk-api/internal/denylist"
	"taskdesk-api/internal/handlers"
	"taskdesk-api/internal/logging"
	"taskdesk-api/internal/realtime"
	"taskdesk-api/internal/routes"
	"taskdesk-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewLogger(os.Stdout, env.Env, env.SlogLevel()))

	if err := run(env); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(env *config.Env) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, env)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	if env.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := realtime.NewHub()
	issuer := auth.NewIssuer(env.JWTSecret, env.JWTIssuer, env.JWTAudience, env.JWTTTL)
	users := service.NewUserService(stores.Users, issuer, denylist.New())
	tasks := service.NewTaskService(stores.Tasks, stores.Users, hub)
	queries := service.NewQueryService(stores.Queries, stores.Tasks, stores.Users, hub)

	ginRoutes := routes.SetupRoutes(handlers.New(users, tasks, queries, hub), users)

	// CORS for the SPA
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   env.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              env.Addr(),
		Handler:           corsHandler.Handler(ginRoutes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", env.Env, "storage", env.StorageEnv.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
