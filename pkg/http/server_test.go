package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveStatus(t *testing.T, s *Server, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestMetricsEndpointMountedByDefault(t *testing.T) {
	s := NewServer(nil)
	require.Equal(t, http.StatusOK, serveStatus(t, s, "/metrics"))
}

func TestMetricsEndpointDisabled(t *testing.T) {
	s := NewServer(nil, WithMetricsEndpoint(false, ""))
	assert.Equal(t, http.StatusNotFound, serveStatus(t, s, "/metrics"))
}

func TestMetricsEndpointCustomPath(t *testing.T) {
	s := NewServer(nil, WithMetricsEndpoint(true, "/internal/metrics"))
	require.Equal(t, http.StatusOK, serveStatus(t, s, "/internal/metrics"))
	assert.Equal(t, http.StatusNotFound, serveStatus(t, s, "/metrics"))
}
