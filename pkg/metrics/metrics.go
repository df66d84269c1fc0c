// Package metrics exposes experiment results as Prometheus metrics, written
// to a node-exporter textfile after each run.
package metrics

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theokoles7/parcus/pkg/results"
)

type Collector struct {
	registry *prometheus.Registry

	Samples     *prometheus.CounterVec
	Tokens      *prometheus.HistogramVec
	Accuracy    *prometheus.GaugeVec
	MeanTokens  *prometheus.GaugeVec
	RunDuration *prometheus.GaugeVec
	LastRun     *prometheus.GaugeVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parcus_samples_total",
				Help: "Samples evaluated, by outcome",
			},
			[]string{"model", "dataset", "budget", "outcome"},
		),
		Tokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parcus_tokens_used",
				Help:    "Completion tokens generated per sample",
				Buckets: prometheus.ExponentialBuckets(16, 2, 9),
			},
			[]string{"model", "dataset", "budget"},
		),
		Accuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parcus_accuracy_ratio",
				Help: "Fraction of samples answered correctly in the latest run",
			},
			[]string{"model", "dataset", "budget"},
		),
		MeanTokens: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parcus_mean_tokens",
				Help: "Mean completion tokens per sample in the latest run",
			},
			[]string{"model", "dataset", "budget"},
		),
		RunDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parcus_run_duration_seconds",
				Help: "Wall time of the latest run",
			},
			[]string{"model", "dataset"},
		),
		LastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parcus_last_run_timestamp_seconds",
				Help: "Unix time the latest run finished",
			},
			[]string{"model", "dataset"},
		),
	}

	c.registry.MustRegister(c.Samples, c.Tokens, c.Accuracy, c.MeanTokens, c.RunDuration, c.LastRun)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) ObserveRecord(r results.Record) {
	budget := strconv.Itoa(r.Budget)
	c.Samples.WithLabelValues(r.Model, r.Dataset, budget, outcome(r)).Inc()
	if r.Error == "" {
		c.Tokens.WithLabelValues(r.Model, r.Dataset, budget).Observe(float64(r.TokensUsed))
	}
}

func (c *Collector) ObserveSummary(s results.Summary) {
	budget := strconv.Itoa(s.Budget)
	c.Accuracy.WithLabelValues(s.Model, s.Dataset, budget).Set(s.Accuracy)
	c.MeanTokens.WithLabelValues(s.Model, s.Dataset, budget).Set(s.MeanTokens)
}

func (c *Collector) ObserveRun(model, dataset string, duration time.Duration, finished time.Time) {
	c.RunDuration.WithLabelValues(model, dataset).Set(duration.Seconds())
	c.LastRun.WithLabelValues(model, dataset).Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return prometheus.WriteToTextfile(path, c.registry)
}

func outcome(r results.Record) string {
	switch {
	case r.Error != "":
		return "error"
	case r.Correct:
		return "correct"
	default:
		return "incorrect"
	}
}
