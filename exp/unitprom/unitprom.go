package unitprom

import (
	"github.com/prometheus/client_golang/prometheus"

	borg "github.com/kibotu/Borg"
)

// Observer bridges borg events into Prometheus collectors.
type Observer struct {
	initTotal    *prometheus.CounterVec
	initDuration *prometheus.HistogramVec
	state        prometheus.Gauge
}

// New registers the collectors on reg and returns the observer.
// Namespace is prefixed to every metric name.
func New(reg prometheus.Registerer, namespace string) (*Observer, error) {
	o := &Observer{
		initTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "init",
			Name:      "units_total",
			Help:      "Finished unit initializations by outcome.",
		}, []string{"unit", "outcome"}),
		initDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "init",
			Name:      "unit_duration_seconds",
			Help:      "Unit initialization duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"unit"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "init",
			Name:      "state",
			Help:      "Orchestrator lifecycle state (0 not started, 1 in progress, 2 complete).",
		}),
	}
	for _, c := range []prometheus.Collector{o.initTotal, o.initDuration, o.state} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ObserveUnit records one finished unit initialization.
// Pass it to borg.WithUnitObserver.
func (o *Observer) ObserveUnit(e borg.Event) {
	outcome := "success"
	if e.Err != nil {
		outcome = "error"
	}
	o.initTotal.WithLabelValues(string(e.Key), outcome).Inc()
	o.initDuration.WithLabelValues(string(e.Key)).Observe(e.Duration.Seconds())
}

// ObserveState records a lifecycle state transition.
// Pass it to borg.WithStateObserver.
func (o *Observer) ObserveState(s borg.State) {
	o.state.Set(float64(s))
}
