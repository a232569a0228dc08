package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records delivery lifecycle activity.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
	podDuration prometheus.Histogram
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_status_transitions",
		Help: "Applied job status transitions by target status.",
	}, []string{"to"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "job_status_conflicts",
		Help: "Transitions rejected because another writer moved the job first.",
	})
	podDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pod_generation_duration_seconds",
		Help:    "Duration of proof-of-delivery document generation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(transitions, conflicts, podDuration)
	return &LifecycleMetrics{
		transitions: transitions,
		conflicts:   conflicts,
		podDuration: podDuration,
	}
}

// IncTransition counts an applied transition into the named status.
func (l *LifecycleMetrics) IncTransition(to string) {
	if l == nil || l.transitions == nil {
		return
	}
	l.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncConflict counts a transition lost to a concurrent writer.
func (l *LifecycleMetrics) IncConflict() {
	if l == nil || l.conflicts == nil {
		return
	}
	l.conflicts.Inc()
}

// ObservePodGeneration records how long one document generation took.
func (l *LifecycleMetrics) ObservePodGeneration(elapsed time.Duration) {
	if l == nil || l.podDuration == nil {
		return
	}
	l.podDuration.Observe(elapsed.Seconds())
}
