package status

import (
	"github.com/prometheus/client_golang/prometheus"

	"sensoralert/condition"
	"sensoralert/controller"
)

// Metrics mirrors controller snapshots and publish results into Prometheus
// collectors.
type Metrics struct {
	Samples   *prometheus.CounterVec
	Condition *prometheus.GaugeVec
	Failures  prometheus.Gauge
	Values    *prometheus.GaugeVec
	Publishes *prometheus.CounterVec
	Dropped   prometheus.Counter

	lastSamples uint64
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensoralert_samples_total",
			Help: "Sensor samples taken, by result.",
		}, []string{"result"}),
		Condition: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensoralert_condition",
			Help: "1 for the current condition, 0 for the others.",
		}, []string{"condition"}),
		Failures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensoralert_consecutive_failures",
			Help: "Current run of invalid readings.",
		}),
		Values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sensoralert_reading",
			Help: "Last valid value per quantity.",
		}, []string{"quantity"}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensoralert_publishes_total",
			Help: "Telemetry publish attempts, by sink and result.",
		}, []string{"sink", "result"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensoralert_telemetry_dropped_total",
			Help: "Readings dropped because the telemetry queue was full.",
		}),
	}
	reg.MustRegister(m.Samples, m.Condition, m.Failures, m.Values, m.Publishes, m.Dropped)
	return m
}

// Observe is called on every snapshot; only new samples are counted.
func (m *Metrics) Observe(s controller.Snapshot) {
	m.Failures.Set(float64(s.Failures))
	if s.Samples == m.lastSamples {
		return
	}
	m.lastSamples = s.Samples

	if s.Reading.Valid {
		m.Samples.WithLabelValues("valid").Inc()
		for q, v := range s.Reading.Values {
			m.Values.WithLabelValues(q).Set(v)
		}
	} else {
		m.Samples.WithLabelValues("invalid").Inc()
	}
	for _, tag := range condition.Tags {
		v := 0.0
		if tag == s.Tag {
			v = 1
		}
		m.Condition.WithLabelValues(tag.String()).Set(v)
	}
}

func (m *Metrics) ObservePublish(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.Publishes.WithLabelValues(sink, result).Inc()
}

func (m *Metrics) ObserveDrop() {
	m.Dropped.Inc()
}
