package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/solatis/flowkeeper/internal/core/api"
	"github.com/solatis/flowkeeper/internal/core/config"
	"github.com/solatis/flowkeeper/internal/metrics"
	"github.com/solatis/flowkeeper/internal/types"
)

type emptyStore struct{}

func (emptyStore) AddRecord(context.Context, *types.FlowControlRecord) error { return nil }
func (emptyStore) DeleteRecords(context.Context, types.GroupSet) (int, error) {
	return 0, nil
}
func (emptyStore) UpdateRecord(context.Context, *types.FlowControlRecord) error { return nil }
func (emptyStore) GetRecord(context.Context, types.GroupName) (*types.FlowControlRecord, error) {
	return nil, nil
}
func (emptyStore) QueryRecords(context.Context, types.RecordFilter) ([]*types.FlowControlRecord, error) {
	return nil, nil
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, string) error { return nil }

func newTestServer(t *testing.T, cfg *config.AdminAPIConfig) *HTTPServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := zaptest.NewLogger(t)

	svc, err := api.NewAdminService(emptyStore{}, allowAll{}, cfg, logger, metrics.New(reg))
	require.NoError(t, err)
	srv, err := NewHTTPServer(cfg, svc, reg, logger)
	require.NoError(t, err)
	return srv
}

func TestNewHTTPServerNil(t *testing.T) {
	_, err := NewHTTPServer(nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewHTTPServer(config.DefaultAdminAPIConfig(), nil, nil, nil)
	assert.Error(t, err)
}

func TestHTTPServerRoutes(t *testing.T) {
	srv := newTestServer(t, config.DefaultAdminAPIConfig())

	t.Run("healthz", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("request id assigned", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/flow-rules/group/query", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.JSONEq(t, `{"result":true,"errCode":0,"errMsg":"OK","data":[],"count":0}`, w.Body.String())
	})

	t.Run("request id propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("metrics exposes admin counters", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "flowkeeper_admin_requests_total"), w.Body.String())
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	deadlineOf := func(d time.Duration) (bool, time.Duration) {
		engine := gin.New()
		engine.Use(Timeout(d))
		var (
			hasDeadline bool
			remaining   time.Duration
		)
		engine.GET("/deadline", func(c *gin.Context) {
			var deadline time.Time
			deadline, hasDeadline = c.Request.Context().Deadline()
			remaining = time.Until(deadline)
		})
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/deadline", nil))
		return hasDeadline, remaining
	}

	hasDeadline, remaining := deadlineOf(time.Minute)
	assert.True(t, hasDeadline)
	assert.LessOrEqual(t, remaining, time.Minute)

	hasDeadline, _ = deadlineOf(0)
	assert.False(t, hasDeadline)
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(zap.NewNop()))
	boom := func(*gin.Context) { panic("boom") }
	engine.POST("/api/v1/flow-rules/group/add", boom)
	engine.GET("/api/v1/flow-rules/group/query", boom)
	engine.GET("/webapi.htm", boom)

	tests := []struct {
		name   string
		method string
		target string
		want   string
	}{
		{
			name:   "mutation",
			method: http.MethodPost,
			target: "/api/v1/flow-rules/group/add",
			want:   `{"result":false,"errCode":400,"errMsg":"Internal server error, please retry later!"}`,
		},
		{
			name:   "query",
			method: http.MethodGet,
			target: "/api/v1/flow-rules/group/query",
			want:   `{"result":false,"errCode":400,"errMsg":"Internal server error, please retry later!","data":[],"count":0}`,
		},
		{
			name:   "legacy query",
			method: http.MethodGet,
			target: "/webapi.htm?method=admin_query_group_flow_control_rule",
			want:   `{"result":false,"errCode":400,"errMsg":"Internal server error, please retry later!","data":[],"count":0}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestHTTPServerLifecycle(t *testing.T) {
	cfg := config.DefaultAdminAPIConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	srv := newTestServer(t, cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return srv.Addr() != ""
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
