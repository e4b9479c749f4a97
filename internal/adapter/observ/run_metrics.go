package observ

import (
	"context"
	"time"

	"github.com/aq2208/gorder-seed/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

type RunMetrics struct {
	gatherer prometheus.Gatherer

	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
	stageDur *prometheus.HistogramVec
	lastRun  prometheus.Gauge
}

func NewRunMetrics(reg prometheus.Registerer, g prometheus.Gatherer) *RunMetrics {
	f := promauto.With(reg)
	return &RunMetrics{
		gatherer: g,
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seed_runs_total",
				Help: "Seed runs by result",
			},
			[]string{"result"},
		),
		rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seed_rows_inserted_total",
				Help: "Rows inserted by table",
			},
			[]string{"table"},
		),
		stageDur: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seed_stage_duration_seconds",
				Help:    "Duration of each seed stage",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "seed_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run",
		}),
	}
}

func (m *RunMetrics) ObserveStage(stage string, d time.Duration) {
	m.stageDur.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *RunMetrics) AddRows(table usecase.Table, n int) {
	m.rows.WithLabelValues(string(table)).Add(float64(n))
}

func (m *RunMetrics) RunFinished(result string) {
	m.runs.WithLabelValues(result).Inc()
	m.lastRun.SetToCurrentTime()
}

// Push sends everything gathered to a Pushgateway; used by one-shot CLI runs.
func (m *RunMetrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.gatherer).PushContext(ctx)
}

var _ usecase.RunMetrics = (*RunMetrics)(nil)
