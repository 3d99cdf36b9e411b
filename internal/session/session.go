package session

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

const (
	CookieName = "rental_session"
	HeaderName = "X-CSRFToken"

	DefaultTTL = 24 * time.Hour

	keyInfo     = "rental-calendar session v1"
	csrfBytes   = 32
	tokenIssuer = "rental-calendar"
)

var ErrInvalidSession = errors.New("invalid session")

// Claims is the signed content of the session cookie. Anonymous sessions carry
// only the anti-forgery token.
type Claims struct {
	UserID   int64  `json:"uid,omitempty"`
	Username string `json:"usr,omitempty"`
	Email    string `json:"eml,omitempty"`
	Name     string `json:"nam,omitempty"`
	CSRF     string `json:"csrf"`
	jwt.RegisteredClaims
}

// Authenticated reports whether the session belongs to a logged-in user.
func (c *Claims) Authenticated() bool {
	return c != nil && c.Username != ""
}

type Config struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Manager issues and verifies session cookies. It holds no per-session state.
type Manager struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager derives the signing key from cfg.Secret.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(cfg.Secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}

	return &Manager{key: key, ttl: cfg.TTL, secure: cfg.Secure, now: time.Now}, nil
}

// Current returns the verified session claims, or nil when the request has no
// valid session cookie.
func (m *Manager) Current(r *http.Request) *Claims {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := m.parse(cookie.Value)
	if err != nil {
		return nil
	}
	return claims
}

// UserInfo describes the session's user for API responses.
func (m *Manager) UserInfo(r *http.Request) models.UserInfo {
	c := m.Current(r)
	if !c.Authenticated() {
		return models.UserInfo{}
	}
	return models.UserInfo{Authenticated: true, Username: c.Username, Email: c.Email}
}

// Login starts an authenticated session for user. The anti-forgery token is
// rotated.
func (m *Manager) Login(w http.ResponseWriter, user models.WordPressUser) (*Claims, error) {
	csrf, err := newCSRFToken()
	if err != nil {
		return nil, err
	}
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
		CSRF:     csrf,
	}
	if err := m.issue(w, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CSRFToken returns the session's anti-forgery token, minting one and
// re-issuing the cookie when the request has none.
func (m *Manager) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if c := m.Current(r); c != nil && c.CSRF != "" {
		return c.CSRF, nil
	}

	csrf, err := newCSRFToken()
	if err != nil {
		return "", err
	}
	if err := m.issue(w, &Claims{CSRF: csrf}); err != nil {
		return "", err
	}
	return csrf, nil
}

// VerifyCSRF checks the X-CSRFToken header against the session token.
func (m *Manager) VerifyCSRF(r *http.Request) bool {
	c := m.Current(r)
	header := r.Header.Get(HeaderName)
	if c == nil || c.CSRF == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.CSRF), []byte(header)) == 1
}

func (m *Manager) issue(w http.ResponseWriter, claims *Claims) error {
	now := m.now()
	expires := now.Add(m.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   claims.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) parse(value string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func newCSRFToken() (string, error) {
	buf := make([]byte, csrfBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
