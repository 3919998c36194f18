package httpadapter_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/disturbance-data-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/disturbance-data-etl/internal/observability"
	"github.com/stretchr/testify/assert"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) (*httpadapter.Server, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, m.Registry(), slog.Default()), m
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(nil)
	assert.Equal(t, http.StatusOK, get(srv, "/healthz").Code)
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name     string
		readyErr error
		want     int
	}{
		{"outputs written", nil, http.StatusOK},
		{"batch still running", errors.New("batch has not written its outputs yet"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(tt.readyErr)
			assert.Equal(t, tt.want, get(srv, "/readyz").Code)
		})
	}
}

func TestMetricsEndpointServesRunRegistry(t *testing.T) {
	srv, m := newTestServer(nil)
	m.PipelineRunning.Set(1)
	m.RowsIn.Add(42)

	rec := get(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "disturbance_etl_pipeline_running 1")
	assert.Contains(t, body, "disturbance_etl_rows_in_total 42")
	assert.NotContains(t, body, "go_goroutines")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(nil)
	assert.Equal(t, http.StatusNotFound, get(srv, "/report").Code)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
