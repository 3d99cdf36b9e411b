package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EpicMandM/rental-calendar/internal/logger"
	"github.com/EpicMandM/rental-calendar/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*WordPressClient, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	client := NewWordPressClient(WordPressConfig{
		BaseURL: srv.URL + "/wp-json/",
		HomeURL: srv.URL + "/home",
		Timeout: 2 * time.Second,
	}, logger.NewWithWriter(&buf), nil)
	return client, &buf
}

// unreachableURL returns the address of a server that has already shut down.
func unreachableURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

// --- TestConnection ---

func TestTestConnection_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[]`))
	})

	status := client.TestConnection(context.Background())
	assert.True(t, status.Success)
	assert.Equal(t, http.StatusOK, status.StatusCode)
	assert.Equal(t, "WordPress API connected successfully", status.Message)
	assert.Equal(t, client.Info().APIURL, status.APIURL)
}

func TestTestConnection_NonOKStatus(t *testing.T) {
	client, buf := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	status := client.TestConnection(context.Background())
	assert.False(t, status.Success)
	assert.Equal(t, http.StatusServiceUnavailable, status.StatusCode)
	assert.Equal(t, "WordPress API returned status 503", status.Message)
	assert.Contains(t, buf.String(), "LEVEL=WARNING")
}

func TestTestConnection_Unreachable(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: unreachableURL()}, nil, nil)

	status := client.TestConnection(context.Background())
	assert.False(t, status.Success)
	assert.Contains(t, status.Message, "Connection failed")
	assert.Equal(t, client.Info().APIURL, status.APIURL)
}

func TestTestConnection_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewWordPressClient(WordPressConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, nil)

	start := time.Now()
	status := client.TestConnection(context.Background())
	assert.False(t, status.Success)
	assert.Contains(t, status.Message, "Connection failed")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTestConnection_ConcurrentUse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, client.TestConnection(context.Background()).Success)
		}()
	}
	wg.Wait()
}

// --- AuthenticateUser ---

func TestAuthenticateUser_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/jwt-auth/v1/token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "luc", body["username"])
		assert.Equal(t, "pw", body["password"])

		_, _ = w.Write([]byte(`{"token":"jwt-abc","id":7,"username":"luc","email":"luc@example.be","name":"Luc"}`))
	})

	res := client.AuthenticateUser(context.Background(), "luc", "pw")
	require.True(t, res.Success)
	assert.Equal(t, "jwt-abc", res.Data.Token)
	assert.Equal(t, models.WordPressUser{ID: 7, Username: "luc", Email: "luc@example.be", Name: "Luc"}, res.Data.User)
}

func TestAuthenticateUser_PluginKeysWithIDLookup(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/jwt-auth/v1/token":
			_, _ = w.Write([]byte(`{"token":"jwt-xyz","user_email":"an@example.be","user_nicename":"an","user_display_name":"An"}`))
		case "/wp-json/wp/v2/users":
			assert.Equal(t, "an", r.URL.Query().Get("search"))
			_, _ = w.Write([]byte(`[{"id":42,"slug":"an","name":"An V."}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	res := client.AuthenticateUser(context.Background(), "an@example.be", "pw")
	require.True(t, res.Success)
	assert.Equal(t, int64(42), res.Data.User.ID)
	assert.Equal(t, "an", res.Data.User.Username)
	assert.Equal(t, "an@example.be", res.Data.User.Email)
	assert.Equal(t, "An", res.Data.User.Name)
}

func TestAuthenticateUser_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind models.ErrorKind
		wantMsg  string
	}{
		{"forbidden", http.StatusForbidden, `{"code":"[jwt_auth] incorrect_password"}`, models.KindUnauthorized, "Authentication failed: 403"},
		{"unauthorized", http.StatusUnauthorized, ``, models.KindUnauthorized, "Authentication failed: 401"},
		{"server error", http.StatusInternalServerError, ``, models.KindUpstream, "Authentication failed: 500"},
		{"invalid json", http.StatusOK, `not json`, models.KindUpstream, "invalid token response"},
		{"missing token", http.StatusOK, `{"user_email":"a@b.c"}`, models.KindUpstream, "no token returned"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			res := client.AuthenticateUser(context.Background(), "luc", "wrong")
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Contains(t, res.Message, tt.wantMsg)
		})
	}
}

func TestAuthenticateUser_Unreachable(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: unreachableURL()}, nil, nil)

	res := client.AuthenticateUser(context.Background(), "luc", "pw")
	assert.False(t, res.Success)
	assert.Equal(t, models.KindTransport, res.Kind)
	assert.Contains(t, res.Message, "Authentication error")
}

// --- GetAvailability ---

func TestGetAvailability_Success(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: "https://wp.example.com/wp-json"}, nil, nil)

	res := client.GetAvailability(context.Background(), "2025-11-01", "2025-11-30")
	require.True(t, res.Success)
	assert.Len(t, res.Data, 30)
}

func TestGetAvailability_InvalidDate(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: "https://wp.example.com/wp-json"}, nil, nil)

	res := client.GetAvailability(context.Background(), "tomorrow", "2025-11-30")
	assert.False(t, res.Success)
	assert.Equal(t, models.KindInvalid, res.Kind)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Contains(t, res.Message, "invalid start date")
}

// --- CreateReservation ---

func TestCreateReservation_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/reservations", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Reservation - Jan", body["title"])
		assert.Equal(t, "private", body["status"])
		assert.JSONEq(t, `{"customer_name":"Jan","days":3}`, body["content"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":991,"status":"private"}`))
	})

	res := client.CreateReservation(context.Background(), map[string]any{"customer_name": "Jan", "days": 3})
	require.True(t, res.Success)
	assert.Equal(t, int64(991), res.Data.ID)
}

func TestCreateReservation_UnknownCustomer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Reservation - Unknown", body["title"])
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	res := client.CreateReservation(context.Background(), map[string]any{})
	assert.True(t, res.Success)
}

func TestCreateReservation_WithServiceAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jwt-auth/v1/token":
			_, _ = w.Write([]byte(`{"token":"svc-token"}`))
		case "/wp/v2/reservations":
			assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":5}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewWordPressClient(WordPressConfig{BaseURL: srv.URL, Username: "svc", Password: "pw"}, nil, nil)
	res := client.CreateReservation(context.Background(), map[string]any{"customer_name": "Jan"})
	require.True(t, res.Success)
	assert.Equal(t, int64(5), res.Data.ID)
}

func TestCreateReservation_ServiceAccountRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp/v2/reservations" {
			t.Error("reservation must not be posted without a token")
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewWordPressClient(WordPressConfig{BaseURL: srv.URL, Username: "svc", Password: "bad"}, nil, nil)
	res := client.CreateReservation(context.Background(), map[string]any{})
	assert.False(t, res.Success)
	assert.Equal(t, models.KindUnauthorized, res.Kind)
	assert.Contains(t, res.Message, "service account")
}

func TestCreateReservation_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	res := client.CreateReservation(context.Background(), map[string]any{"customer_name": "Jan"})
	assert.False(t, res.Success)
	assert.Equal(t, models.KindUpstream, res.Kind)
	assert.Equal(t, "Failed to create reservation: 404", res.Message)
}

func TestCreateReservation_Unreachable(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: unreachableURL()}, nil, nil)

	res := client.CreateReservation(context.Background(), map[string]any{})
	assert.False(t, res.Success)
	assert.Equal(t, models.KindTransport, res.Kind)
}

// --- GetUser ---

func TestGetUser_Found(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/users", r.URL.Path)
		assert.Equal(t, "luc snel", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`[{"id":3,"username":"luc","name":"Luc Snel"},{"id":4,"slug":"other"}]`))
	})

	res := client.GetUser(context.Background(), "luc snel")
	require.True(t, res.Success)
	assert.Equal(t, models.WordPressUser{ID: 3, Username: "luc", Name: "Luc Snel"}, res.Data)
}

func TestGetUser_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	res := client.GetUser(context.Background(), "nobody")
	assert.False(t, res.Success)
	assert.Equal(t, "User not found", res.Message)
}

func TestGetUser_HTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	res := client.GetUser(context.Background(), "luc")
	assert.False(t, res.Success)
}

// --- CheckURLs ---

func TestCheckURLs_MixedResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wp-json/wp/v2/posts", "/home":
			w.WriteHeader(http.StatusOK)
		case "/wp-json/jwt-auth/v1/token":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})

	report := client.CheckURLs(context.Background())
	assert.Equal(t, 4, report.TotalURLs)
	assert.Equal(t, 2, report.SuccessfulURLs)
	require.Len(t, report.Results, 4)
	assert.Contains(t, report.Results[0].URL, "/wp/v2/posts")
	assert.True(t, report.Results[0].Success)
	assert.Equal(t, http.StatusMethodNotAllowed, report.Results[2].Status)
	assert.True(t, report.Results[3].Success)
}

func TestCheckURLs_Unreachable(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: unreachableURL()}, nil, nil)

	report := client.CheckURLs(context.Background())
	assert.Equal(t, 3, report.TotalURLs)
	assert.Zero(t, report.SuccessfulURLs)
	for _, r := range report.Results {
		assert.False(t, r.Success)
		assert.NotEmpty(t, r.Error)
	}
}

func TestInfo_TrimsTrailingSlash(t *testing.T) {
	client := NewWordPressClient(WordPressConfig{BaseURL: "https://wp.example.com/wp-json/", HomeURL: "https://wp.example.com"}, nil, nil)
	assert.Equal(t, models.ClientInfo{APIURL: "https://wp.example.com/wp-json", HomeURL: "https://wp.example.com"}, client.Info())
}
