package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultAllow = "allow"
	ResultDeny  = "deny"
	ResultError = "error"
)

// Instrumentation publishes Prometheus metrics for the decision flow.
type Instrumentation struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	inFlight         *prometheus.GaugeVec
	hierarchyNodes   prometheus.Gauge
}

// NewInstrumentation registers all metric vectors against reg.
func NewInstrumentation(reg prometheus.Registerer) *Instrumentation {
	inst := &Instrumentation{
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hierauthz",
			Name:      "decisions_total",
			Help:      "Total access decisions by operation and result",
		}, []string{"operation", "result"}),
		decisionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hierauthz",
			Name:      "decision_duration_seconds",
			Help:      "Latency of is_allowed evaluations",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .025, .05, .1},
		}, []string{"operation", "result"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hierauthz",
			Name:      "inflight_decisions",
			Help:      "Decision requests currently being evaluated",
		}, []string{"operation"}),
		hierarchyNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hierauthz",
			Name:      "hierarchy_nodes",
			Help:      "Number of nodes in the loaded resource hierarchy",
		}),
	}

	reg.MustRegister(
		inst.decisionsTotal,
		inst.decisionDuration,
		inst.inFlight,
		inst.hierarchyNodes,
	)
	return inst
}

// InFlight increments or decrements the in-flight gauge for operation.
func (i *Instrumentation) InFlight(operation string, delta float64) {
	if i == nil || delta == 0 {
		return
	}
	if delta > 0 {
		i.inFlight.WithLabelValues(operation).Add(delta)
		return
	}
	i.inFlight.WithLabelValues(operation).Sub(-delta)
}

// ObserveDecision records a completed decision's result and duration.
func (i *Instrumentation) ObserveDecision(operation, result string, duration time.Duration) {
	if i == nil {
		return
	}
	i.decisionsTotal.WithLabelValues(operation, result).Inc()
	i.decisionDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// SetHierarchyNodes records the size of the currently loaded hierarchy.
func (i *Instrumentation) SetHierarchyNodes(count int) {
	if i == nil {
		return
	}
	i.hierarchyNodes.Set(float64(count))
}
