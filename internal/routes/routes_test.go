package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisiscare/crisiscare-backend/internal/handlers"
	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/internal/middleware"
	"github.com/crisiscare/crisiscare-backend/internal/services"
	"github.com/crisiscare/crisiscare-backend/internal/store"
	"github.com/crisiscare/crisiscare-backend/pkg/clientip"
)

func init() {
	logger.IsTest = true
}

type testServer struct {
	*httptest.Server
	hub *services.Hub
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	st, err := store.NewEntryStore(t.TempDir(), "", "")
	require.NoError(t, err)

	m := metrics.New()
	hub := services.NewHub(m)
	svc := services.NewCommunityHelpService(st,
		services.WithMetrics(m),
		services.WithFeed(services.NewLiveFeed(hub, nil)),
	)

	d := Deps{
		CommunityHelp:  &handlers.CommunityHelpHandler{Service: svc},
		LiveFeed:       &handlers.LiveFeedHandler{Hub: hub},
		Metrics:        m.Handler(),
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	if mutate != nil {
		mutate(&d)
	}

	srv := httptest.NewServer(NewRouter(d))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: hub}
}

func (s *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(s.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *testServer) submit(t *testing.T, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(s.URL+"/api/community-help", form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func validForm() url.Values {
	return url.Values{"role": {"volunteer"}, "name": {"Asha"}, "email": {"a@x.com"}}
}

func TestRouter_HealthAndLocations(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := srv.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = srv.get(t, "/api/help-locations")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Swoyambhu Community Hospital (Demo)")
}

func TestRouter_SubmitListAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, srv.submit(t, validForm()).StatusCode)
	assert.Equal(t, http.StatusBadRequest, srv.submit(t, url.Values{"name": {"Asha"}}).StatusCode)

	_, body := srv.get(t, "/api/community-help")
	assert.Contains(t, body, `"name":"Asha"`)

	_, body = srv.get(t, "/metrics")
	assert.Contains(t, body, `crisiscare_community_help_submissions_total{outcome="accepted"} 1`)
	assert.Contains(t, body, `crisiscare_community_help_submissions_total{outcome="rejected"} 1`)
}

func TestRouter_SubmitRateLimited(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) {
		d.SubmitLimiter = middleware.NewIPRateLimiter(1, 1, clientip.Resolver{}, nil).Middleware
	})

	assert.Equal(t, http.StatusOK, srv.submit(t, validForm()).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, srv.submit(t, validForm()).StatusCode)

	// Reads are not limited.
	resp, _ := srv.get(t, "/api/community-help")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_LiveFeedReceivesNewEntries(t *testing.T) {
	srv := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/community-help"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, srv.submit(t, validForm()).StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event services.FeedEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "entry", event.Type)
	assert.Equal(t, "Asha", event.Entry.Name)
	assert.NotZero(t, event.Entry.ID)

	conn.Close()
	require.Eventually(t, func() bool { return srv.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_StaticFilesAndSecurityHeaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>CrisisCare</h1>"), 0644))

	srv := newTestServer(t, func(d *Deps) {
		d.StaticDir = dir
		d.Production = true
	})

	resp, body := srv.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "CrisisCare")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, _ = srv.get(t, "/api/community-help")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
