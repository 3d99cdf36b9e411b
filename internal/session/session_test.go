package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EpicMandM/rental-calendar/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	return m
}

// requestWith builds a request carrying the cookies set on rec.
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	assert.Error(t, err)
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m, err := NewManager(Config{Secret: "s"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, m.ttl)
}

func TestLoginAndCurrent(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()

	claims, err := m.Login(rec, models.WordPressUser{ID: 7, Username: "luc", Email: "luc@example.be", Name: "Luc"})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.CSRF)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)

	got := m.Current(requestWith(rec))
	require.NotNil(t, got)
	assert.True(t, got.Authenticated())
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "luc", got.Username)
	assert.Equal(t, "Luc", got.Name)
	assert.Equal(t, claims.CSRF, got.CSRF)

	assert.Equal(t, models.UserInfo{Authenticated: true, Username: "luc", Email: "luc@example.be"}, m.UserInfo(requestWith(rec)))
}

func TestCurrent_NoCookie(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Nil(t, m.Current(req))
	assert.Equal(t, models.UserInfo{}, m.UserInfo(req))
}

func TestCurrent_RejectsTamperedCookie(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	_, err := m.Login(rec, models.WordPressUser{Username: "luc"})
	require.NoError(t, err)

	cookie := sessionCookie(t, rec)
	parts := strings.Split(cookie.Value, ".")
	require.Len(t, parts, 3)
	parts[2] = strings.Repeat("A", len(parts[2]))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: strings.Join(parts, ".")})
	assert.Nil(t, m.Current(req))
}

func TestCurrent_RejectsOtherSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{Secret: "another-secret"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	_, err = other.Login(rec, models.WordPressUser{Username: "luc"})
	require.NoError(t, err)

	assert.Nil(t, m.Current(requestWith(rec)))
}

func TestCurrent_RejectsExpired(t *testing.T) {
	m := newTestManager(t)
	issued := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	rec := httptest.NewRecorder()
	_, err := m.Login(rec, models.WordPressUser{Username: "luc"})
	require.NoError(t, err)
	require.NotNil(t, m.Current(requestWith(rec)))

	m.now = func() time.Time { return issued.Add(2 * time.Hour) }
	assert.Nil(t, m.Current(requestWith(rec)))
}

func TestParse_ErrorWrapsSentinel(t *testing.T) {
	m := newTestManager(t)
	_, err := m.parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogout(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.Logout(rec)

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestCSRFToken_MintsAndReuses(t *testing.T) {
	m := newTestManager(t)

	first := httptest.NewRecorder()
	token, err := m.CSRFToken(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, token, 43)

	anon := m.Current(requestWith(first))
	require.NotNil(t, anon)
	assert.False(t, anon.Authenticated())

	second := httptest.NewRecorder()
	again, err := m.CSRFToken(second, requestWith(first))
	require.NoError(t, err)
	assert.Equal(t, token, again)
	assert.Empty(t, second.Result().Cookies())
}

func TestLogin_RotatesCSRF(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	token, err := m.CSRFToken(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	loginRec := httptest.NewRecorder()
	claims, err := m.Login(loginRec, models.WordPressUser{Username: "luc"})
	require.NoError(t, err)
	assert.NotEqual(t, token, claims.CSRF)
}

func TestVerifyCSRF(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	token, err := m.CSRFToken(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie bool
		header string
		want   bool
	}{
		{"matching header", true, token, true},
		{"wrong header", true, "forged-token", false},
		{"missing header", true, "", false},
		{"no session", false, token, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
			if tt.cookie {
				req = requestWith(rec)
				req.Method = http.MethodPost
			}
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			assert.Equal(t, tt.want, m.VerifyCSRF(req))
		})
	}
}
