package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Timer measures an operation and reports it to a histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in seconds.
func (t *Timer) ObserveDuration(o prometheus.Observer) time.Duration {
	d := t.Duration()
	o.Observe(d.Seconds())
	return d
}
