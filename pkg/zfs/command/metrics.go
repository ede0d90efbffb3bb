// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times command executions per subcommand.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zstate",
			Subsystem: "command",
			Name:      "executions_total",
			Help:      "Number of zfs/zpool invocations by outcome.",
		}, []string{"command", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zstate",
			Subsystem: "command",
			Name:      "duration_seconds",
			Help:      "Wall time of zfs/zpool invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"command"}),
	}

	for _, c := range []prometheus.Collector{m.commands, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(cmd Command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(cmd.Key(), outcome).Inc()
	m.duration.WithLabelValues(cmd.Key()).Observe(elapsed.Seconds())
}
