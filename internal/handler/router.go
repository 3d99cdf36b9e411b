package handler

import (
	"context"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/ratelimit"
	"github.com/EpicMandM/rental-calendar/internal/service"
	"github.com/EpicMandM/rental-calendar/internal/session"
)

// RentalStats is the part of the rental store the diagnostics endpoints read.
type RentalStats interface {
	Ping(ctx context.Context) error
	CountRentals(ctx context.Context) (int, error)
}

// Options wires an APIHandler. Content, Sessions and Reservations are
// required; the rest have defaults.
type Options struct {
	Version        string
	Feature        *service.FeatureConfig
	Content        service.ContentClient
	Reservations   *service.ReservationService
	Sessions       *session.Manager
	Stats          RentalStats
	LoginLimiter   *ratelimit.Limiter
	ClientIPs      *ratelimit.IPResolver
	Logger         *logger.Logger
	Location       *time.Location
	AllowedOrigins []string
	CSRFEnforce    bool
}

type APIHandler struct {
	version      string
	feature      *service.FeatureConfig
	content      service.ContentClient
	reservations *service.ReservationService
	sessions     *session.Manager
	stats        RentalStats
	loginLimiter *ratelimit.Limiter
	clientIPs    *ratelimit.IPResolver
	logger       *logger.Logger
	loc          *time.Location
	origins      []string
	csrfEnforce  bool
	now          func() time.Time
}

func NewAPIHandler(opts Options) *APIHandler {
	if opts.Logger == nil {
		opts.Logger = logger.NewWithWriter(io.Discard)
	}
	if opts.Feature == nil {
		opts.Feature = service.DefaultFeatureConfig()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &APIHandler{
		version:      opts.Version,
		feature:      opts.Feature,
		content:      opts.Content,
		reservations: opts.Reservations,
		sessions:     opts.Sessions,
		stats:        opts.Stats,
		loginLimiter: opts.LoginLimiter,
		clientIPs:    opts.ClientIPs,
		logger:       opts.Logger,
		loc:          opts.Location,
		origins:      opts.AllowedOrigins,
		csrfEnforce:  opts.CSRFEnforce,
		now:          time.Now,
	}
}

// endpoints is reported by /api/info.
var endpoints = []string{
	"GET /",
	"GET,POST /api/availability",
	"GET /api/formulas",
	"POST /api/calculate-price",
	"POST /api/create-reservation",
	"POST /api/login",
	"POST /api/logout",
	"GET,POST /api/user-session",
	"GET /api/status",
	"GET /api/wordpress-test",
	"GET /api/info",
	"GET /api/health",
	"GET /api/debug-formulas",
}

// Routes builds the full HTTP handler: router, CORS and request middleware.
func (h *APIHandler) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(h.notFound)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)
	router.PanicHandler = h.recoverPanic
	// OPTIONS is answered by the CORS layer.
	router.HandleOPTIONS = false

	router.GET("/", h.Index)

	router.GET("/api/availability", h.handle(h.Availability))
	router.POST("/api/availability", h.handle(h.csrf(h.Availability)))
	router.GET("/api/formulas", h.handle(h.Formulas))
	router.POST("/api/calculate-price", h.handle(h.csrf(h.CalculatePrice)))
	router.POST("/api/create-reservation", h.handle(h.csrf(h.CreateReservation)))
	router.POST("/api/login", h.handle(h.throttle(h.csrf(h.Login))))
	router.POST("/api/logout", h.handle(h.csrf(h.Logout)))
	router.GET("/api/user-session", h.handle(h.UserSession))
	router.POST("/api/user-session", h.handle(h.csrf(h.UserSession)))

	router.GET("/api/status", h.handle(h.Status))
	router.GET("/api/wordpress-test", h.handle(h.WordPressTest))
	router.GET("/api/info", h.handle(h.Info))
	router.GET("/api/health", h.handle(h.Health))
	router.GET("/api/debug-formulas", h.handle(h.DebugFormulas))

	// Credentialed requests need an explicit origin list.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", session.HeaderName, "X-Requested-With", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: !slices.Contains(h.origins, "*"),
	}).Handler(router)

	return withRequestID(h.withLogging(securityHeaders(corsHandler)))
}
