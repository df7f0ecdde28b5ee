package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal *prometheus.CounterVec
	votesTotal        prometheus.Counter
	roomsCreatedTotal prometheus.Counter
	roomsEndedTotal   prometheus.Counter
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votingrooms",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the gateway.",
		}, []string{"method", "path", "status"})
		votesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "votingrooms",
			Name:      "votes_total",
			Help:      "Total encrypted votes accepted by the registry.",
		})
		roomsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "votingrooms",
			Name:      "rooms_created_total",
			Help:      "Total rooms created.",
		})
		roomsEndedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "votingrooms",
			Name:      "rooms_ended_total",
			Help:      "Total rooms ended: explicitly, by sweep, or by full turnout.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncVote() {
	if votesTotal != nil {
		votesTotal.Inc()
	}
}

func IncRoomCreated() {
	if roomsCreatedTotal != nil {
		roomsCreatedTotal.Inc()
	}
}

func IncRoomEnded() {
	if roomsEndedTotal != nil {
		roomsEndedTotal.Inc()
	}
}
