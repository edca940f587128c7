// Package metrics exposes Prometheus metrics for sessions and tool calls.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/session"
)

const namespace = "browserbase_mcp"

// Metrics holds all Prometheus metrics of one server.
type Metrics struct {
	Registry *prometheus.Registry

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionCreates *prometheus.CounterVec

	// Tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
}

// New creates the metrics on a fresh registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of live browser sessions",
			},
		),
		SessionCreates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_creates_total",
				Help:      "Total number of session launches by result",
			},
			[]string{"result"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool calls by tool and result",
			},
			[]string{"tool", "result"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Tool call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
	}
}

// StoreOption keeps SessionsActive in step with the store size.
func (m *Metrics) StoreOption() session.StoreOption {
	return session.WithOnChange(func(size int) {
		m.SessionsActive.Set(float64(size))
	})
}

// CallObserver records every finished tool call.
func (m *Metrics) CallObserver() dispatch.Option {
	return dispatch.WithCallObserver(func(tool string, elapsed time.Duration, err error) {
		m.ToolCalls.WithLabelValues(tool, dispatch.ErrorKind(err)).Inc()
		m.ToolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
	})
}

// InstrumentLauncher counts launches made through l.
func (m *Metrics) InstrumentLauncher(l session.Launcher) session.Launcher {
	return &countingLauncher{next: l, creates: m.SessionCreates}
}

type countingLauncher struct {
	next    session.Launcher
	creates *prometheus.CounterVec
}

func (c *countingLauncher) Launch(ctx context.Context, cfg *config.Config, params session.CreateParams, sessionID string, logger *logging.Logger) (*session.Record, error) {
	rec, err := c.next.Launch(ctx, cfg, params, sessionID, logger)
	c.creates.WithLabelValues(launchResult(err)).Inc()
	return rec, err
}

func launchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, session.ErrConfiguration):
		return "configuration"
	case errors.Is(err, session.ErrLaunch):
		return "launch"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
