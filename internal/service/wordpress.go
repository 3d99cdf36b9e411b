package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/models"
)

const (
	defaultWordPressTimeout = 10 * time.Second
	urlProbeTimeout         = 5 * time.Second
	defaultUserAgent        = "KroanWorks-Rental-Calendar/1.0"
)

// WordPressConfig holds the remote content system settings.
type WordPressConfig struct {
	BaseURL   string // REST root, e.g. https://example.com/wp-json
	HomeURL   string
	Username  string // service account used for writes
	Password  string
	Timeout   time.Duration
	UserAgent string
}

// WordPressClient talks to the WordPress REST API. Its configuration is fixed
// at construction, so one instance is shared by all request handlers.
//
// Every operation reports failures through its return value; nothing here
// returns a transport error to the caller.
type WordPressClient struct {
	baseURL   string
	homeURL   string
	username  string
	password  string
	userAgent string
	client    *http.Client
	logger    *logger.Logger
}

// NewWordPressClient creates a client. A nil httpClient gets a pooled client
// bounded by cfg.Timeout.
func NewWordPressClient(cfg WordPressConfig, log *logger.Logger, httpClient *http.Client) *WordPressClient {
	if log == nil {
		log = logger.NewWithWriter(io.Discard)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultWordPressTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &WordPressClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		homeURL:   cfg.HomeURL,
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
		client:    httpClient,
		logger:    log,
	}
}

// Info reports the configured endpoints.
func (c *WordPressClient) Info() models.ClientInfo {
	return models.ClientInfo{APIURL: c.baseURL, HomeURL: c.homeURL}
}

// TestConnection probes the posts listing endpoint.
func (c *WordPressClient) TestConnection(ctx context.Context) models.ConnectionStatus {
	status := models.ConnectionStatus{APIURL: c.baseURL}

	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/wp/v2/posts", nil)
	if err != nil {
		status.Message = fmt.Sprintf("Connection failed: %v", err)
		c.logger.Error("WordPress connection test failed", logger.Action("test_connection"), logger.Error(err))
		return status
	}

	resp, err := c.client.Do(req)
	if err != nil {
		status.Message = fmt.Sprintf("Connection failed: %v", err)
		c.logger.Error("WordPress connection test failed", logger.Action("test_connection"), logger.Error(err))
		return status
	}
	c.closeBody(resp)

	status.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		status.Message = fmt.Sprintf("WordPress API returned status %d", resp.StatusCode)
		c.logger.Warn("WordPress connection test failed", logger.Action("test_connection"), logger.StatusCode(resp.StatusCode))
		return status
	}

	status.Success = true
	status.Message = "WordPress API connected successfully"
	c.logger.Debug("WordPress connection test passed", logger.Action("test_connection"), logger.URL(c.baseURL))
	return status
}

// tokenResponse accepts both plain keys and the JWT Authentication plugin's keys.
type tokenResponse struct {
	Token       string `json:"token"`
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Nicename    string `json:"user_nicename"`
	Email       string `json:"email"`
	UserEmail   string `json:"user_email"`
	Name        string `json:"name"`
	DisplayName string `json:"user_display_name"`
}

func (t tokenResponse) user() models.WordPressUser {
	return models.WordPressUser{
		ID:       t.ID,
		Username: firstNonEmpty(t.Username, t.Nicename),
		Email:    firstNonEmpty(t.Email, t.UserEmail),
		Name:     firstNonEmpty(t.Name, t.DisplayName),
	}
}

// AuthenticateUser exchanges credentials for a WordPress JWT.
func (c *WordPressClient) AuthenticateUser(ctx context.Context, username, password string) models.Result[models.AuthSession] {
	tok, res := c.requestToken(ctx, username, password)
	if !res.Success {
		return res
	}

	user := tok.user()
	if user.Username == "" {
		user.Username = username
	}
	if user.ID == 0 {
		// The token endpoint does not always return an id; look it up.
		if lookup := c.GetUser(ctx, user.Username); lookup.Success {
			user.ID = lookup.Data.ID
			user.Email = firstNonEmpty(user.Email, lookup.Data.Email)
			user.Name = firstNonEmpty(user.Name, lookup.Data.Name)
		}
	}

	c.logger.Info("User authenticated", logger.Action("login"), logger.User(user.Username))
	return models.Ok(models.AuthSession{Token: tok.Token, User: user})
}

func (c *WordPressClient) requestToken(ctx context.Context, username, password string) (tokenResponse, models.Result[models.AuthSession]) {
	var tok tokenResponse
	fail := func(kind models.ErrorKind, msg string) (tokenResponse, models.Result[models.AuthSession]) {
		return tok, models.Err(kind, msg, models.AuthSession{})
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/jwt-auth/v1/token", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		c.logger.Error("Authentication request failed", logger.Action("login"), logger.Error(err))
		return fail(models.KindTransport, fmt.Sprintf("Authentication error: %v", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Authentication request failed", logger.Action("login"), logger.User(username), logger.Error(err))
		return fail(models.KindTransport, fmt.Sprintf("Authentication error: %v", err))
	}
	defer c.closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Warn("Authentication rejected", logger.Action("login"), logger.User(username), logger.StatusCode(resp.StatusCode))
		return fail(models.KindUnauthorized, fmt.Sprintf("Authentication failed: %d", resp.StatusCode))
	default:
		c.logger.Warn("Authentication failed", logger.Action("login"), logger.User(username), logger.StatusCode(resp.StatusCode))
		return fail(models.KindUpstream, fmt.Sprintf("Authentication failed: %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		c.logger.Error("Invalid token response", logger.Action("login"), logger.Error(err))
		return fail(models.KindUpstream, "Authentication failed: invalid token response")
	}
	if tok.Token == "" {
		c.logger.Error("Token response without token", logger.Action("login"), logger.User(username))
		return fail(models.KindUpstream, "Authentication failed: no token returned")
	}
	return tok, models.Ok(models.AuthSession{Token: tok.Token})
}

// GetAvailability returns the placeholder availability for [start, end].
func (c *WordPressClient) GetAvailability(_ context.Context, start, end string) models.Result[[]models.AvailabilityEntry] {
	from, to, err := ParseDateRange(start, end)
	if err != nil {
		c.logger.Warn("Availability request rejected", logger.Action("availability"), logger.Error(err))
		return models.Err(models.KindInvalid, err.Error(), []models.AvailabilityEntry{})
	}

	entries := GenerateAvailability(from, to)
	c.logger.Debug("Availability generated", logger.Action("availability"), logger.Count(len(entries)))
	return models.Ok(entries)
}

// CreateReservation stores a reservation as a private post of the
// "reservations" custom post type. When a service account is configured the
// request is authorised with its token.
func (c *WordPressClient) CreateReservation(ctx context.Context, payload map[string]any) models.Result[models.RemoteReservation] {
	fail := func(kind models.ErrorKind, msg string) models.Result[models.RemoteReservation] {
		return models.Err(kind, msg, models.RemoteReservation{})
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return fail(models.KindInvalid, fmt.Sprintf("Reservation error: %v", err))
	}
	name, _ := payload["customer_name"].(string)
	if name == "" {
		name = "Unknown"
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/wp/v2/reservations", map[string]string{
		"title":   "Reservation - " + name,
		"content": string(content),
		"status":  "private",
	})
	if err != nil {
		return fail(models.KindTransport, fmt.Sprintf("Reservation error: %v", err))
	}

	if c.username != "" {
		tok, res := c.requestToken(ctx, c.username, c.password)
		if !res.Success {
			return fail(res.Kind, "Reservation error: service account "+res.Message)
		}
		req.Header.Set("Authorization", "Bearer "+tok.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Reservation request failed", logger.Action("create_reservation"), logger.Error(err))
		return fail(models.KindTransport, fmt.Sprintf("Reservation error: %v", err))
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn("Reservation rejected", logger.Action("create_reservation"), logger.StatusCode(resp.StatusCode))
		return fail(models.KindUpstream, fmt.Sprintf("Failed to create reservation: %d", resp.StatusCode))
	}

	var created models.RemoteReservation
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return fail(models.KindUpstream, "Failed to create reservation: invalid response")
	}

	c.logger.Info("Reservation created", logger.Action("create_reservation"), logger.F("RESERVATION_ID", created.ID))
	return models.Ok(created)
}

type wpUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Slug     string `json:"slug"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// GetUser searches users and returns the first match.
func (c *WordPressClient) GetUser(ctx context.Context, username string) models.Result[models.WordPressUser] {
	fail := func(kind models.ErrorKind, msg string) models.Result[models.WordPressUser] {
		return models.Err(kind, msg, models.WordPressUser{})
	}

	endpoint := c.baseURL + "/wp/v2/users?search=" + url.QueryEscape(username)
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(models.KindTransport, err.Error())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("User lookup failed", logger.Action("get_user"), logger.User(username), logger.Error(err))
		return fail(models.KindTransport, err.Error())
	}
	defer c.closeBody(resp)

	var users []wpUser
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
			return fail(models.KindUpstream, "invalid user response")
		}
	}
	if len(users) == 0 {
		c.logger.Warn("User not found", logger.Action("get_user"), logger.User(username), logger.StatusCode(resp.StatusCode))
		return fail(models.KindUpstream, "User not found")
	}

	u := users[0]
	return models.Ok(models.WordPressUser{
		ID:       u.ID,
		Username: firstNonEmpty(u.Username, u.Slug),
		Email:    u.Email,
		Name:     u.Name,
	})
}

// CheckURLs probes the main WordPress endpoints concurrently.
func (c *WordPressClient) CheckURLs(ctx context.Context) models.URLReport {
	urls := []string{
		c.baseURL + "/wp/v2/posts",
		c.baseURL + "/wp/v2/users",
		c.baseURL + "/jwt-auth/v1/token",
	}
	if c.homeURL != "" {
		urls = append(urls, c.homeURL)
	}

	results := make([]models.URLCheck, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.probe(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	report := models.URLReport{TotalURLs: len(urls), Results: results}
	for _, r := range results {
		if r.Success {
			report.SuccessfulURLs++
		}
	}
	c.logger.Info("URL check completed", logger.Action("check_urls"),
		logger.Count(report.SuccessfulURLs), logger.F("TOTAL", report.TotalURLs))
	return report
}

func (c *WordPressClient) probe(ctx context.Context, target string) models.URLCheck {
	ctx, cancel := context.WithTimeout(ctx, urlProbeTimeout)
	defer cancel()

	check := models.URLCheck{URL: target}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	c.closeBody(resp)

	check.Status = resp.StatusCode
	check.Success = resp.StatusCode == http.StatusOK
	return check
}

func (c *WordPressClient) newRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// closeBody drains the body so the connection returns to the pool.
func (c *WordPressClient) closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if err := resp.Body.Close(); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("Failed to close response body", logger.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
