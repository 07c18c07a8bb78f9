package frontend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrotech/internal/environment"
)

func TestEnvironmentJSON(t *testing.T) {
	app, err := NewApp("production", nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/environment.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env environment.Environment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, environment.Production(), env)
}

func TestEnvJS(t *testing.T) {
	app, err := NewApp("development", nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/env.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "window.__env = Object.freeze("))

	raw := strings.TrimSuffix(strings.TrimPrefix(body, "window.__env = Object.freeze("), ");\n")
	var env environment.Environment
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.False(t, env.Production)
	assert.Equal(t, "http://localhost:3001/api/v1", env.APIURL)
}

func TestHealth(t *testing.T) {
	app, err := NewApp("production", nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "production", resp["target"])
}

func TestNewAppUnknownTarget(t *testing.T) {
	_, err := NewApp("staging", nil)
	assert.ErrorIs(t, err, environment.ErrUnknownTarget)
}
