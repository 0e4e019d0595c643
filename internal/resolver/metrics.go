package resolver

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"llamalink/pkg/types"
)

// Metrics is a Recorder backed by Prometheus collectors.
type Metrics struct {
	resolutions *prometheus.CounterVec
	capability  *prometheus.GaugeVec
}

// NewMetrics registers the resolver collectors with reg. Registering twice
// on the same registry reuses the collectors already there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	resolutions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamalink",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of link plan resolutions",
		},
		[]string{"platform", "result"},
	)
	capability := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llamalink",
			Subsystem: "resolver",
			Name:      "capability_found",
			Help:      "1 if the last successful resolution found a GPU toolchain",
		},
		[]string{"platform"},
	)
	return &Metrics{
		resolutions: register(reg, resolutions).(*prometheus.CounterVec),
		capability:  register(reg, capability).(*prometheus.GaugeVec),
	}
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// Record counts the outcome and tracks the GPU capability of successful plans.
func (m *Metrics) Record(platform types.TargetPlatform, plan types.LinkPlan, err error) {
	switch {
	case err == nil:
	case !Supported(platform):
		m.resolutions.WithLabelValues(string(platform), "unsupported").Inc()
		return
	default:
		m.resolutions.WithLabelValues(string(platform), "error").Inc()
		return
	}
	m.resolutions.WithLabelValues(string(platform), "ok").Inc()
	if plan.Capability.Found {
		m.capability.WithLabelValues(string(platform)).Set(1)
	} else {
		m.capability.WithLabelValues(string(platform)).Set(0)
	}
}
