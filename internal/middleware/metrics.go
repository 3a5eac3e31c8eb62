package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgdesk_redis_errors_total",
		Help: "Number of failed Redis commands.",
	}, []string{"command"})

	// ApprovalTransitions counts workflow transitions by action and outcome.
	ApprovalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgdesk_approval_transitions_total",
		Help: "Number of approval transitions attempted, by action and outcome.",
	}, []string{"action", "outcome"})

	// BulkSelectionSize observes how many records each bulk transition covered.
	BulkSelectionSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orgdesk_approval_bulk_selection_size",
		Help:    "Records per bulk transition request.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-level metrics handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
