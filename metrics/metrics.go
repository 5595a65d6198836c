// Package metrics exposes Prometheus instrumentation for publish passes.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/next-trace/scg-mdb-client/contract/messaging"
	"github.com/next-trace/scg-mdb-client/publisher"
	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "mdbclient"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Metrics struct {
	messagesSent *prometheus.CounterVec   // by destination
	sendFailures *prometheus.CounterVec   // by destination
	sendDuration *prometheus.HistogramVec // by destination
	batches      *prometheus.CounterVec   // by destination, status
	passes       *prometheus.CounterVec   // by mode
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "messages_sent_total",
			Help:      "Messages accepted by the transport",
		}, []string{"destination"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "send_failures_total",
			Help:      "Sends rejected by the transport",
		}, []string{"destination"}),
		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "send_duration_seconds",
			Help:      "Time to hand one message to the transport",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"destination"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "batches_total",
			Help:      "Destination batches by outcome",
		}, []string{"destination", "status"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "passes_total",
			Help:      "Publish passes by primary mode",
		}, []string{"mode"}),
	}

	err := errors.Join(
		reg.Register(m.messagesSent),
		reg.Register(m.sendFailures),
		reg.Register(m.sendDuration),
		reg.Register(m.batches),
		reg.Register(m.passes),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// SendMiddleware records count, failures and latency of every send.
func (m *Metrics) SendMiddleware() publisher.SendMiddleware {
	return func(next publisher.SendFunc) publisher.SendFunc {
		return func(ctx context.Context, dst messaging.Destination, text string) error {
			start := time.Now()
			err := next(ctx, dst, text)
			m.sendDuration.WithLabelValues(dst.Address).Observe(time.Since(start).Seconds())

			if err != nil {
				m.sendFailures.WithLabelValues(dst.Address).Inc()

				return err
			}

			m.messagesSent.WithLabelValues(dst.Address).Inc()

			return nil
		}
	}
}

// ObservePass counts one pass and the outcome of each of its batches.
func (m *Metrics) ObservePass(useTopic bool, reports []publisher.Report) {
	mode := string(messaging.KindQueue)
	if useTopic {
		mode = string(messaging.KindTopic)
	}

	m.passes.WithLabelValues(mode).Inc()

	for _, r := range reports {
		status := StatusOK
		if !r.OK() {
			status = StatusFailed
		}

		m.batches.WithLabelValues(r.Destination.Address, status).Inc()
	}
}
