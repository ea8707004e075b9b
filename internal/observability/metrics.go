/*
Package observability registers the Prometheus collectors of the server and the helpers that
update them.
*/
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "majlis_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "majlis_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveTabs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "majlis_ws_active_tabs",
			Help: "Number of connected chat tabs.",
		},
	)
	wsCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "majlis_ws_commands_total",
			Help: "Total number of tab commands received over websocket.",
		},
		[]string{"command"},
	)
	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "majlis_messages_sent_total",
			Help: "Total number of message sends by outcome.",
		},
		[]string{"driver", "outcome"},
	)
	feedDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "majlis_feed_deliveries_total",
			Help: "Total number of change feed events by outcome.",
		},
		[]string{"outcome"},
	)
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "majlis_auth_attempts_total",
			Help: "Total number of login and registration attempts by outcome.",
		},
		[]string{"mode", "outcome"},
	)
	expiredMessagesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "majlis_expired_messages_deleted_total",
			Help: "Total number of messages removed by the expiry sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveTabs,
		wsCommandsTotal,
		messagesSentTotal,
		feedDeliveriesTotal,
		authAttemptsTotal,
		expiredMessagesDeleted,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// notFoundRoute labels requests that matched no route, keeping raw paths out of the label set.
const notFoundRoute = "not_found"

// HTTPMetricsMiddleware counts requests by chi route pattern and records their latency.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := notFoundRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func IncTabs() {
	wsActiveTabs.Inc()
}

func DecTabs() {
	wsActiveTabs.Dec()
}

func IncCommand(command string) {
	wsCommandsTotal.WithLabelValues(command).Inc()
}

// ObserveSend records a message send for driver ("local" or "remote").
func ObserveSend(driver string, err error) {
	messagesSentTotal.WithLabelValues(driver, outcome(err)).Inc()
}

// IncFeedDelivery records a change feed event: "delivered", "dropped" or "overflow".
func IncFeedDelivery(result string) {
	feedDeliveriesTotal.WithLabelValues(result).Inc()
}

func ObserveAuth(mode string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	authAttemptsTotal.WithLabelValues(mode, result).Inc()
}

func AddExpiredDeleted(n int64) {
	expiredMessagesDeleted.Add(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
