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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/fileforge/fileforge/pkg/fileforge"
	"github.com/fileforge/fileforge/pkg/fileforge/api"
	"github.com/fileforge/fileforge/pkg/fileforge/config"
	"github.com/fileforge/fileforge/pkg/fileforge/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	httpLogger := httplog.NewLogger("fileforge", httplog.Options{
		JSON:     cfg.Environment == "production",
		LogLevel: slog.LevelInfo,
		Concise:  true,
		Tags: map[string]string{
			"env": cfg.Environment,
		},
	})
	logger := httpLogger.Logger
	slog.SetDefault(logger)

	store, err := cfg.BuildStore(logger)
	if err != nil {
		logger.Error("Failed to build object store", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	repo, pool, err := cfg.BuildRepository(context.Background())
	if err != nil {
		logger.Error("Failed to build repository", "error", err)
		os.Exit(1)
	}

	reaper := fileforge.NewReaper(store, cfg.GuestGraceWindow, logger)

	svc, err := fileforge.New(
		fileforge.WithObjectStore(store),
		fileforge.WithRepository(repo),
		fileforge.WithReaper(reaper),
		fileforge.WithLogger(logger),
	)
	if err != nil {
		logger.Error("Failed to build service", "error", err)
		os.Exit(1)
	}

	registry, err := tools.NewRegistry(tools.Builtins()...)
	if err != nil {
		logger.Error("Failed to build tool registry", "error", err)
		os.Exit(1)
	}

	handlerOpts := []api.Option{api.WithLogger(logger)}
	if cfg.JWTSecret != "" {
		handlerOpts = append(handlerOpts, api.WithTokenAuth(jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)))
	} else {
		logger.Warn("JWT_SECRET not set, every request runs as guest")
	}
	handler := api.NewHandler(svc, registry, handlerOpts...)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(cfg, httpLogger, handler),
	}

	go func() {
		logger.Info("Fileforge server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"storage", cfg.StorageBackend,
			"tools", registry.Slugs())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Pending guest deletions are dropped here; the grace window does not
	// survive a restart.
	reaper.Stop()
	if pool != nil {
		pool.Close()
	}
	logger.Info("Server exiting")
}

func newRouter(cfg *config.Config, httpLogger *httplog.Logger, handler *api.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(httpLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(api.RequestSizeLimit(cfg.MaxUploadBytes()))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Mount("/api", handler.Routes())

	return r
}
