package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelValues returns every value of label across the series of the named family.
func labelValues(t *testing.T, family, label string) []string {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var values []string
	for _, f := range families {
		if f.GetName() != family {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == label {
					values = append(values, l.GetValue())
				}
			}
		}
	}
	return values
}

func TestHTTPMetricsUnmatchedPathsShareOneRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, path := range []string{"/users/7", "/scan/a1", "/scan/b2", "/.env"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	routes := labelValues(t, "majlis_http_requests_total", "route")
	assert.Contains(t, routes, "/users/{id}")
	assert.Contains(t, routes, "not_found")
	for _, route := range routes {
		assert.NotContains(t, route, "/scan/")
		assert.NotEqual(t, "/.env", route)
		assert.NotEqual(t, "/users/7", route)
	}
}

func TestSendOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}
