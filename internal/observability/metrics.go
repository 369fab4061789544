package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oxidedb",
			Name:      "commands_total",
			Help:      "Commands dispatched, by command and reply status.",
		},
		[]string{"command", "status"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oxidedb",
			Name:      "command_duration_seconds",
			Help:      "Time spent dispatching a command, excluding network I/O.",
			Buckets:   prometheus.ExponentialBuckets(0.000005, 4, 10),
		},
		[]string{"command"},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oxidedb",
			Name:      "connections_active",
			Help:      "Client connections currently being served.",
		},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oxidedb",
			Name:      "decode_errors_total",
			Help:      "Connections closed because a frame could not be decoded.",
		},
		[]string{"kind"},
	)
	keys = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "oxidedb",
			Name:      "keys",
			Help:      "Keys held by the store after the last write command.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commandsTotal, commandDuration, connectionsActive, decodeErrors, keys)
	})
}

func RecordCommand(command string, ok bool, duration time.Duration) {
	RegisterMetrics()
	status := "ok"
	if !ok {
		status = "error"
	}
	commandsTotal.WithLabelValues(command, status).Inc()
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func ConnectionOpened() {
	RegisterMetrics()
	connectionsActive.Inc()
}

func ConnectionClosed() {
	RegisterMetrics()
	connectionsActive.Dec()
}

func RecordDecodeError(kind string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(kind).Inc()
}

func SetKeys(n int) {
	RegisterMetrics()
	keys.Set(float64(n))
}

// MetricsHandler serves the default registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}
