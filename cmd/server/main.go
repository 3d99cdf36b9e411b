package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EpicMandM/rental-calendar/internal/app"
	"github.com/EpicMandM/rental-calendar/internal/config"
	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	ctx        context.Context
	logger     *logger.Logger
	infraCfg   *config.Config
	featureCfg *service.FeatureConfig
	app        *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &App{
		ctx:    ctx,
		logger: logger.New(),
	}

	if err := a.run(); err != nil {
		a.logger.Error("Application error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func (a *App) run() error {
	if err := a.initialize(); err != nil {
		return err
	}
	defer func() {
		if err := a.app.Close(context.Background()); err != nil {
			a.logger.Error("Failed to close application", logger.Error(err))
		}
	}()

	return a.serve()
}

func (a *App) initialize() error {
	envPath := getEnvOrDefault("ENV_FILE", ".env")
	infraCfg, err := config.LoadWithFile(envPath)
	if err != nil {
		a.logger.Error("Failed to load infrastructure config", logger.Error(err), logger.F("path", envPath))
		return err
	}
	a.infraCfg = infraCfg

	featureCfg, err := loadFeatureConfig(infraCfg.FeatureConfigPath, a.logger)
	if err != nil {
		a.logger.Error("Failed to load feature config", logger.Error(err), logger.F("path", infraCfg.FeatureConfigPath))
		return err
	}
	a.featureCfg = featureCfg

	a.app = app.New(infraCfg, featureCfg, a.logger)
	if err := a.app.Initialize(a.ctx); err != nil {
		a.logger.Error("Failed to initialize application", logger.Error(err))
		return err
	}
	return nil
}

// loadFeatureConfig falls back to the built-in rental settings when the file
// does not exist.
func loadFeatureConfig(path string, log *logger.Logger) (*service.FeatureConfig, error) {
	featureCfg, err := service.LoadFeatureConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("Feature config not found, using defaults", logger.F("path", path))
		return service.DefaultFeatureConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("Feature config loaded", logger.F("path", path))
	return featureCfg, nil
}

func (a *App) serve() error {
	server := &http.Server{
		Addr:              a.infraCfg.Addr(),
		Handler:           a.app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Outbound WordPress calls are bounded by WORDPRESS_TIMEOUT; leave room for
		// /api/wordpress-test, which makes several.
		WriteTimeout: a.infraCfg.WordPressTimeout*3 + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server listening", logger.Action("startup"), logger.F("ADDR", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-a.ctx.Done():
	}

	a.logger.Info("Shutdown signal received", logger.Action("shutdown"))
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	a.logger.Info("Server stopped", logger.Action("shutdown"), logger.Status("stopped"))
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
