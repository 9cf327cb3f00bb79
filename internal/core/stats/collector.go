package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/colonyops/taskr/internal/core/task"
)

// Collector exports the latest published Statistics as Prometheus gauges. It
// reads the published value only and never triggers a computation.
type Collector struct {
	agg *Aggregator

	total          *prometheus.Desc
	byStatus       *prometheus.Desc
	highPending    *prometheus.Desc
	overdue        *prometheus.Desc
	completionRate *prometheus.Desc
	computedAt     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector for agg.
func NewCollector(agg *Aggregator) *Collector {
	return &Collector{
		agg: agg,
		total: prometheus.NewDesc(
			"taskr_tasks_total",
			"Number of tasks in the working set",
			nil, nil,
		),
		byStatus: prometheus.NewDesc(
			"taskr_tasks",
			"Number of tasks per status",
			[]string{"status"}, nil,
		),
		highPending: prometheus.NewDesc(
			"taskr_tasks_high_pending",
			"High priority tasks that are not completed",
			nil, nil,
		),
		overdue: prometheus.NewDesc(
			"taskr_tasks_overdue",
			"Tasks past their due date that are not completed",
			nil, nil,
		),
		completionRate: prometheus.NewDesc(
			"taskr_completion_rate",
			"Completed tasks divided by total tasks",
			nil, nil,
		),
		computedAt: prometheus.NewDesc(
			"taskr_stats_computed_timestamp_seconds",
			"Unix time the published statistics were computed",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.byStatus
	ch <- c.highPending
	ch <- c.overdue
	ch <- c.completionRate
	ch <- c.computedAt
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st, ok := c.agg.Latest()
	if !ok {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(st.Total))
	for _, status := range task.Statuses {
		ch <- prometheus.MustNewConstMetric(c.byStatus, prometheus.GaugeValue,
			float64(st.ByStatus()[status]), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.highPending, prometheus.GaugeValue, float64(st.HighPending))
	ch <- prometheus.MustNewConstMetric(c.overdue, prometheus.GaugeValue, float64(st.Overdue))
	ch <- prometheus.MustNewConstMetric(c.completionRate, prometheus.GaugeValue, st.CompletionRate)
	ch <- prometheus.MustNewConstMetric(c.computedAt, prometheus.GaugeValue, float64(st.ComputedAt.Unix()))
}
