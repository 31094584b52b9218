package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/reusedev/draw-studio/internal/consts"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
)

// Collector turns dispatcher events into prometheus series.
type Collector struct {
	Attempts        *prometheus.CounterVec
	Dispatches      *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
	RetryDelay      prometheus.Histogram
	AttemptsPerCall prometheus.Histogram
}

func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_studio_dispatch_attempts_total",
				Help: "Remote generation calls by classified kind",
			},
			[]string{"model", "kind"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_studio_dispatches_total",
				Help: "Finished dispatches by final kind",
			},
			[]string{"model", "kind"},
		),
		AttemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "draw_studio_attempt_duration_seconds",
				Help:    "Latency of one remote generation call",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"model"},
		),
		RetryDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "draw_studio_retry_delay_seconds",
			Help:    "Wait applied before rotating to the next credential",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		AttemptsPerCall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "draw_studio_attempts_per_dispatch",
			Help:    "Number of credentials tried per dispatch",
			Buckets: []float64{0, 1, 2, 3, 4, 6, 8, 12, 16},
		}),
	}
	if reg != nil {
		reg.MustRegister(c.Attempts, c.Dispatches, c.AttemptDuration, c.RetryDelay, c.AttemptsPerCall)
	}
	return c
}

func (c *Collector) Update(event string, data interface{}) {
	switch event {
	case consts.EventAttempt:
		e, ok := data.(image.AttemptEvent)
		if !ok {
			return
		}
		c.Attempts.WithLabelValues(e.Model, e.Attempt.Kind.String()).Inc()
		c.AttemptDuration.WithLabelValues(e.Model).Observe(e.Attempt.Duration.Seconds())
		if e.Attempt.Delay > 0 {
			c.RetryDelay.Observe(e.Attempt.Delay.Seconds())
		}
	case consts.EventOutcome:
		e, ok := data.(image.OutcomeEvent)
		if !ok {
			return
		}
		kind := image.KindSuccess
		if e.Outcome.Failure != nil {
			kind = e.Outcome.Failure.Kind
		}
		c.Dispatches.WithLabelValues(e.Model, kind.String()).Inc()
		c.AttemptsPerCall.Observe(float64(len(e.Outcome.Attempts)))
	}
}
