package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/EpicMandM/rental-calendar/internal/config"
	"github.com/EpicMandM/rental-calendar/internal/handler"
	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/ratelimit"
	"github.com/EpicMandM/rental-calendar/internal/service"
	"github.com/EpicMandM/rental-calendar/internal/session"
	"github.com/EpicMandM/rental-calendar/internal/store"
)

// App owns the long-lived collaborators of the HTTP server.
type App struct {
	config  *config.Config
	feature *service.FeatureConfig
	logger  *logger.Logger

	store   *store.SQLiteStore
	content *service.WordPressClient
	handler http.Handler
}

func New(cfg *config.Config, feature *service.FeatureConfig, log *logger.Logger) *App {
	if log == nil {
		log = logger.New()
	}
	if feature == nil {
		feature = service.DefaultFeatureConfig()
	}
	return &App{
		config:  cfg,
		feature: feature,
		logger:  log,
	}
}

// Initialize opens the rental store and builds the HTTP handler.
func (a *App) Initialize(ctx context.Context) error {
	a.logger.SetDebug(a.config.Debug)

	loc, err := a.config.Location()
	if err != nil {
		return err
	}

	clientIPs, err := ratelimit.NewIPResolver(a.config.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	st, err := store.NewSQLiteStore(a.config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open rental store: %w", err)
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to reach rental store: %w", err)
	}
	a.store = st
	a.logger.Info("Rental store opened", logger.Action("startup"), logger.F("PATH", a.config.DatabasePath))

	sessions, err := session.NewManager(session.Config{
		Secret: a.config.SecretKey,
		TTL:    a.config.SessionTTL,
		Secure: a.config.SessionSecure,
	})
	if err != nil {
		return err
	}

	a.content = service.NewWordPressClient(service.WordPressConfig{
		BaseURL:  a.config.WordPressAPIURL,
		HomeURL:  a.config.WordPressHomeURL,
		Username: a.config.WordPressUsername,
		Password: a.config.WordPressPassword,
		Timeout:  a.config.WordPressTimeout,
	}, a.logger, nil)

	api := handler.NewAPIHandler(handler.Options{
		Version:        a.config.AppVersion,
		Feature:        a.feature,
		Content:        a.content,
		Reservations:   service.NewReservationService(a.content, a.config.ReservationsForward, a.logger),
		Sessions:       sessions,
		Stats:          a.store,
		LoginLimiter:   ratelimit.New(a.config.LoginRatePerMinute, a.config.LoginBurst),
		ClientIPs:      clientIPs,
		Logger:         a.logger,
		Location:       loc,
		AllowedOrigins: a.config.CORSAllowedOrigins,
		CSRFEnforce:    a.config.CSRFEnforce,
	})
	a.handler = api.Routes()

	a.logger.Info("Application initialized",
		logger.Action("startup"),
		logger.URL(a.config.WordPressAPIURL),
		logger.F("VERSION", a.config.AppVersion),
		logger.F("CSRF_ENFORCE", a.config.CSRFEnforce),
		logger.F("RESERVATIONS_FORWARD", a.config.ReservationsForward))
	return nil
}

// Handler returns the HTTP handler built by Initialize.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Store returns the rental store, or nil before Initialize.
func (a *App) Store() store.Store {
	if a.store == nil {
		return nil
	}
	return a.store
}

// Content returns the WordPress client, or nil before Initialize.
func (a *App) Content() service.ContentClient {
	if a.content == nil {
		return nil
	}
	return a.content
}

func (a *App) Close(_ context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close rental store: %w", err)
	}
	a.store = nil
	a.logger.Info("Rental store closed", logger.Action("shutdown"))
	return nil
}
