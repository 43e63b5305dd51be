package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireEnvelope struct {
	Result  bool              `json:"result"`
	ErrCode int               `json:"errCode"`
	ErrMsg  string            `json:"errMsg"`
	Data    []json.RawMessage `json:"data"`
	Count   *int              `json:"count"`
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)

	engine := gin.New()
	svc.RegisterRoutes(engine.Group("/api/v1"))
	svc.RegisterLegacyRoutes(engine)
	return engine
}

func do(t *testing.T, engine *gin.Engine, method, target string, body url.Values) wireEnvelope {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var env wireEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHTTPRoutes(t *testing.T) {
	engine := newTestEngine(t)

	env := do(t, engine, http.MethodPost, "/api/v1/flow-rules/group/add", authed("groupName", "g1,g2"))
	require.True(t, env.Result, env.ErrMsg)
	assert.Nil(t, env.Count, "non-query envelopes carry no count")

	env = do(t, engine, http.MethodPost, "/api/v1/flow-rules/default/add", authed())
	require.True(t, env.Result, env.ErrMsg)

	env = do(t, engine, http.MethodGet, "/api/v1/flow-rules/group/query?groupName=g2", nil)
	require.True(t, env.Result, env.ErrMsg)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)
	assert.Len(t, env.Data, 1)

	// query string and form body are merged
	env = do(t, engine, http.MethodPost, "/api/v1/flow-rules/group/modify?groupName=g1", authed("statusId", "1"))
	require.True(t, env.Result, env.ErrMsg)

	env = do(t, engine, http.MethodGet, "/api/v1/flow-rules/group/query?statusId=1", nil)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	env = do(t, engine, http.MethodPost, "/api/v1/flow-rules/group/delete", authed("groupName", "g1,g2"))
	require.True(t, env.Result, env.ErrMsg)

	env = do(t, engine, http.MethodGet, "/api/v1/flow-rules/default/query", nil)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	t.Run("failure is still HTTP 200", func(t *testing.T) {
		env := do(t, engine, http.MethodPost, "/api/v1/flow-rules/group/add", form("groupName", "g1"))
		assert.False(t, env.Result)
		assert.Equal(t, CodeFailure, env.ErrCode)
	})
}

func TestLegacyDispatch(t *testing.T) {
	engine := newTestEngine(t)

	add := authed("method", "admin_set_group_flow_control_rule", "groupName", "g1")
	env := do(t, engine, http.MethodPost, LegacyPath, add)
	require.True(t, env.Result, env.ErrMsg)

	env = do(t, engine, http.MethodGet, LegacyPath+"?method=admin_query_group_flow_control_rule", nil)
	require.True(t, env.Result, env.ErrMsg)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	env = do(t, engine, http.MethodGet, LegacyPath+"?method=admin_query_def_flow_control_rule", nil)
	require.NotNil(t, env.Count)
	assert.Equal(t, 0, *env.Count)

	env = do(t, engine, http.MethodGet, LegacyPath+"?method=admin_drop_everything", nil)
	assert.False(t, env.Result)
	assert.Contains(t, env.ErrMsg, "admin_drop_everything")
}

func TestEnvelopeWireBytes(t *testing.T) {
	engine := newTestEngine(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, LegacyPath+"?method=a%3Cb%26c", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"errMsg":"Unsupported method: a<b&c"`)
	assert.NotContains(t, w.Body.String(), `\u003c`)
}
