package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/api"
	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/config"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			fmt.Fprint(os.Stdout, config.Usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, config.Usage)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Env, cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	database, err := db.Open(cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(context.Background()); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", string(cfg.Driver)))

	emitters := audit.Multi{audit.StoreEmitter{DB: database}}
	if cfg.AuditURL != "" {
		emitters = append(emitters, audit.NewHTTPEmitter(cfg.AuditURL, cfg.AuditSecret))
		logger.Info("forwarding audit entries", zap.String("url", cfg.AuditURL))
	}
	recorder := audit.NewRecorder(emitters, logger)

	handler, err := newHandler(database, recorder, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped, closing database")
	return nil
}

// newHandler mounts the dashboard next to the API. Dashboard and static
// paths go to the web router, everything else to the API.
func newHandler(database *db.DB, recorder *audit.Recorder, logger *zap.Logger) (http.Handler, error) {
	apiRouter := api.NewRouter(database, recorder)
	webRouter, err := web.NewRouter(database, recorder)
	if err != nil {
		return nil, fmt.Errorf("setting up web router: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/dashboard", webRouter)
	mux.Handle("/dashboard/", webRouter)
	mux.Handle("/static/", webRouter)
	mux.Handle("/", apiRouter)

	return api.LoggingMiddleware(logger)(mux), nil
}
