package handler

import (
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/models"
	"github.com/EpicMandM/rental-calendar/internal/service"
)

// availabilitySource labels generated availability so clients do not mistake
// it for booking data.
const availabilitySource = "placeholder"

type availabilityRequest struct {
	Start     string `json:"start"`
	StartDate string `json:"start_date"`
	End       string `json:"end"`
	EndDate   string `json:"end_date"`
}

type availabilityResponse struct {
	Success      bool                       `json:"success"`
	CSRFToken    string                     `json:"csrf_token"`
	Availability []models.AvailabilityEntry `json:"availability"`
	DataSource   string                     `json:"data_source"`
	StartDate    string                     `json:"start_date"`
	EndDate      string                     `json:"end_date"`
	Version      string                     `json:"version"`
}

// Availability handles GET and POST /api/availability. Missing bounds default
// to the current month.
func (h *APIHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var start, end string
	if r.Method == http.MethodPost {
		var req availabilityRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		start = firstNonEmpty(req.StartDate, req.Start)
		end = firstNonEmpty(req.EndDate, req.End)
	} else {
		q := r.URL.Query()
		start = firstNonEmpty(q.Get("start"), q.Get("start_date"))
		end = firstNonEmpty(q.Get("end"), q.Get("end_date"))
	}

	if start == "" || end == "" {
		from, to := service.DefaultRange(h.now().In(h.loc))
		start, end = from.Format(models.DateLayout), to.Format(models.DateLayout)
	}

	csrf, err := h.sessions.CSRFToken(w, r)
	if err != nil {
		return internalError("Failed to issue CSRF token", err)
	}

	res := h.content.GetAvailability(r.Context(), start, end)
	if !res.Success {
		return internalError(res.Message, nil)
	}

	h.writeJSON(w, http.StatusOK, availabilityResponse{
		Success:      true,
		CSRFToken:    csrf,
		Availability: res.Data,
		DataSource:   availabilitySource,
		StartDate:    start,
		EndDate:      end,
		Version:      h.version,
	})
	return nil
}

type formulasResponse struct {
	Formulas []models.Tier `json:"formulas"`
	Version  string        `json:"version"`
}

// Formulas handles GET /api/formulas.
func (h *APIHandler) Formulas(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) error {
	h.writeJSON(w, http.StatusOK, formulasResponse{Formulas: service.PricingCatalog(), Version: h.version})
	return nil
}

type calculatePriceRequest struct {
	Days      int     `json:"days"`
	BasePrice float64 `json:"base_price"`
}

type calculatePriceResponse struct {
	Success bool `json:"success"`
	service.PriceQuote
	Version string `json:"version"`
}

// CalculatePrice handles POST /api/calculate-price.
func (h *APIHandler) CalculatePrice(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var req calculatePriceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	quote, err := service.CalculatePrice(req.Days, req.BasePrice, h.feature)
	if err != nil {
		return internalError(err.Error(), nil)
	}

	h.writeJSON(w, http.StatusOK, calculatePriceResponse{Success: true, PriceQuote: quote, Version: h.version})
	return nil
}

type reservationResponse struct {
	Success bool `json:"success"`
	*service.IntakeResult
	Forwarded bool   `json:"forwarded"`
	Version   string `json:"version"`
}

// CreateReservation handles POST /api/create-reservation. The body must be a
// JSON object; its fields are passed through unchecked.
func (h *APIHandler) CreateReservation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var payload map[string]any
	if err := decodeJSON(r, &payload); err != nil {
		return err
	}
	if payload == nil {
		return internalError("Reservation payload must be a JSON object", nil)
	}

	result, err := h.reservations.Submit(r.Context(), payload)
	if err != nil {
		var fwd *service.ForwardError
		if errors.As(err, &fwd) {
			return internalError(fwd.Message, err)
		}
		return internalError("Failed to create reservation", err)
	}

	h.writeJSON(w, http.StatusOK, reservationResponse{
		Success:      true,
		IntakeResult: result,
		Forwarded:    result.Persisted,
		Version:      h.version,
	})
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool                 `json:"success"`
	User      models.WordPressUser `json:"user"`
	CSRFToken string               `json:"csrf_token"`
	Version   string               `json:"version"`
}

// Login handles POST /api/login against the WordPress token endpoint and
// starts a session on success.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return unauthorized("Username and password are required")
	}

	res := h.content.AuthenticateUser(r.Context(), req.Username, req.Password)
	if !res.Success {
		if res.Kind == models.KindUnauthorized {
			return unauthorized("Invalid credentials")
		}
		return internalError(res.Message, nil)
	}

	claims, err := h.sessions.Login(w, res.Data.User)
	if err != nil {
		return internalError("Failed to start session", err)
	}

	h.logger.Info("Login succeeded", logger.Action("login"), logger.User(res.Data.User.Username),
		logger.RequestID(requestIDFrom(r.Context())))
	h.writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		User:      res.Data.User,
		CSRFToken: claims.CSRF,
		Version:   h.version,
	})
	return nil
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// Logout handles POST /api/logout.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	if c := h.sessions.Current(r); c.Authenticated() {
		h.logger.Info("Logout", logger.Action("logout"), logger.User(c.Username))
	}
	h.sessions.Logout(w)
	h.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logged out successfully", Version: h.version})
	return nil
}

type userSessionResponse struct {
	CSRFToken            string          `json:"csrf_token"`
	UserInfo             models.UserInfo `json:"user_info"`
	IsWordPressAvailable bool            `json:"is_wordpress_available"`
	Version              string          `json:"version"`
}

// UserSession handles GET and POST /api/user-session. Connectivity failures
// are reported as is_wordpress_available=false.
func (h *APIHandler) UserSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	csrf, err := h.sessions.CSRFToken(w, r)
	if err != nil {
		return internalError("Failed to issue CSRF token", err)
	}

	h.writeJSON(w, http.StatusOK, userSessionResponse{
		CSRFToken:            csrf,
		UserInfo:             h.sessions.UserInfo(r),
		IsWordPressAvailable: h.content.TestConnection(r.Context()).Success,
		Version:              h.version,
	})
	return nil
}

type statusResponse struct {
	SystemStatus        string `json:"system_status"`
	WordPressConnection bool   `json:"wordpress_connection"`
	GoVersion           string `json:"go_version"`
	Version             string `json:"version"`
	Timestamp           string `json:"timestamp"`
}

// Status handles GET /api/status.
func (h *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	h.writeJSON(w, http.StatusOK, statusResponse{
		SystemStatus:        "operational",
		WordPressConnection: h.content.TestConnection(r.Context()).Success,
		GoVersion:           runtime.Version(),
		Version:             h.version,
		Timestamp:           h.timestamp(),
	})
	return nil
}

type wordpressTestResponse struct {
	WordPressTest models.ConnectionStatus `json:"wordpress_test"`
	URLCheck      models.URLReport        `json:"url_check"`
	APIURL        string                  `json:"api_url"`
	Version       string                  `json:"version"`
}

// WordPressTest handles GET /api/wordpress-test.
func (h *APIHandler) WordPressTest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	h.writeJSON(w, http.StatusOK, wordpressTestResponse{
		WordPressTest: h.content.TestConnection(r.Context()),
		URLCheck:      h.content.CheckURLs(r.Context()),
		APIURL:        h.content.Info().APIURL,
		Version:       h.version,
	})
	return nil
}

type infoResponse struct {
	APIURL          string   `json:"api_url"`
	HomeURL         string   `json:"home_url"`
	RentalsRecorded *int     `json:"rentals_recorded"`
	Endpoints       []string `json:"endpoints"`
	Version         string   `json:"version"`
}

// Info handles GET /api/info. rentals_recorded is null when the store is
// unavailable.
func (h *APIHandler) Info(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	info := h.content.Info()
	resp := infoResponse{
		APIURL:    info.APIURL,
		HomeURL:   info.HomeURL,
		Endpoints: endpoints,
		Version:   h.version,
	}
	if h.stats != nil {
		if n, err := h.stats.CountRentals(r.Context()); err != nil {
			h.logger.Warn("Failed to count rentals", logger.Action("info"), logger.Error(err))
		} else {
			resp.RentalsRecorded = &n
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Database  string `json:"database"`
}

// Health handles GET /api/health. A failing database probe is reported but
// does not change the status.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: h.timestamp(),
		Version:   h.version,
		Database:  "disabled",
	}
	if h.stats != nil {
		if err := h.stats.Ping(r.Context()); err != nil {
			h.logger.Warn("Database probe failed", logger.Action("health"), logger.Error(err))
			resp.Database = "error: " + err.Error()
		} else {
			resp.Database = "ok"
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

type debugFormulasResponse struct {
	Formulas     []models.Tier          `json:"formulas"`
	FormulaCount int                    `json:"formula_count"`
	Settings     *service.FeatureConfig `json:"settings"`
	Version      string                 `json:"version"`
}

// DebugFormulas handles GET /api/debug-formulas.
func (h *APIHandler) DebugFormulas(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) error {
	tiers := service.PricingCatalog()
	h.writeJSON(w, http.StatusOK, debugFormulasResponse{
		Formulas:     tiers,
		FormulaCount: len(tiers),
		Settings:     h.feature,
		Version:      h.version,
	})
	return nil
}

func (h *APIHandler) timestamp() string {
	return h.now().In(h.loc).Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
