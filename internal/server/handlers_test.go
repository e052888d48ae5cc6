package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/telcal/internal/database"
)

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("disk I/O error") }

func createTestServer(t *testing.T, db Pinger) *Server {
	t.Helper()
	return New(ServerConfig{DB: db, Port: 0, CallbackRatePerMinute: 3})
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandleHealthCheck(t *testing.T) {
	t.Run("healthy with database", func(t *testing.T) {
		s := createTestServer(t, database.NewTestDB(t))

		w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response["status"])
	})

	t.Run("database unavailable", func(t *testing.T) {
		s := createTestServer(t, failingPinger{})

		w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "database unavailable")
	})
}

func TestRequestID(t *testing.T) {
	s := createTestServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = serve(s, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := createTestServer(t, nil)
	serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `telcal_http_request_duration_seconds_count{method="GET",route="/healthz",status="200"}`)
}

func TestHandleOAuthCallback(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "shows code",
			query:        "?code=4/0AbCdEf&scope=calendar",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<code>4/0AbCdEf</code>", "send it to the bot"},
		},
		{
			name:         "escapes code",
			query:        "?code=%3Cscript%3E",
			wantStatus:   http.StatusOK,
			wantContains: []string{"&lt;script&gt;"},
			wantAbsent:   []string{"<script>"},
		},
		{
			name:         "consent denied",
			query:        "?error=access_denied&error_description=User+declined",
			wantStatus:   http.StatusBadRequest,
			wantContains: []string{"Google returned: access_denied (User declined)"},
		},
		{
			name:         "no code",
			query:        "",
			wantStatus:   http.StatusBadRequest,
			wantContains: []string{"No authorization code received."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestServer(t, nil)

			w := serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			for _, want := range tt.wantContains {
				assert.Contains(t, w.Body.String(), want)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, w.Body.String(), absent)
			}
		})
	}
}

func TestOAuthCallbackRateLimited(t *testing.T) {
	s := createTestServer(t, nil)

	for i := 0; i < 3; i++ {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=x", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(s, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Other routes are not limited.
	w = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := createTestServer(t, nil)
	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
