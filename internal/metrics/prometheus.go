package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "storefront_client_request_duration_seconds",
		Help: "Duration of outbound storefront API requests.",
	}, []string{"method", "status"})
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_client_token_refresh_total",
		Help: "Token refresh calls by result.",
	}, []string{"result"})
	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_client_token_refresh_duration_seconds",
		Help:    "Duration of token refresh calls.",
		Buckets: prometheus.DefBuckets,
	})
	replayTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_client_replay_total",
		Help: "Requests replayed after a token refresh.",
	})
	waitingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_client_refresh_waiters",
		Help: "Requests waiting on the in-flight token refresh.",
	})
)

// GatewayObserver satisfies client.Observer.
type GatewayObserver struct{}

func NewGatewayObserver() *GatewayObserver {
	return &GatewayObserver{}
}

func (GatewayObserver) ObserveRequest(method string, status int, d time.Duration) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (GatewayObserver) RecordRefresh(success bool, d time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	refreshTotal.WithLabelValues(result).Inc()
	refreshDuration.Observe(d.Seconds())
}

func (GatewayObserver) RecordReplay() {
	replayTotal.Inc()
}

func (GatewayObserver) SetWaiting(n int) {
	waitingGauge.Set(float64(n))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
