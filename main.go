package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/msomdec/gadget-registry/internal/config"
	"github.com/msomdec/gadget-registry/internal/credential"
	"github.com/msomdec/gadget-registry/internal/handler"
	"github.com/msomdec/gadget-registry/internal/logging"
	"github.com/msomdec/gadget-registry/internal/repository/sqlite"
	"github.com/msomdec/gadget-registry/internal/service"
	"github.com/msomdec/gadget-registry/internal/validation"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := sqlite.New(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		return err
	}
	logger.Info("database ready", "path", cfg.Database.Path)

	creds := credential.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	limiter := service.NewTokenBucket(cfg.Auth.SignInRate, cfg.Auth.SignInBurst)
	defer limiter.Close()

	router := handler.NewRouter(handler.Deps{
		Auth:          service.NewAuthService(db.Users(), creds),
		Gadgets:       service.NewGadgetService(db.Gadgets()),
		Tokens:        creds,
		Validator:     validation.New(),
		DB:            db,
		Logger:        logger,
		SignInLimiter: limiter,
		CookieSecure:  cfg.Auth.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    1 << 20, // 1MB
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
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
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
