// Package telemetry exposes leap counters and timings to Prometheus.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gravkern"

// Collector records per-leap outcomes. The zero value is not usable; create
// one with New.
type Collector struct {
	reg *prometheus.Registry

	leaps    *prometheus.CounterVec
	steps    *prometheus.CounterVec
	halts    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the leap collectors on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		reg: reg,
		leaps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaps_total",
			Help:      "Leaps attempted, by ensemble size.",
		}, []string{"bodies"}),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_completed_total",
			Help:      "Integration steps that completed and were committed.",
		}, []string{"bodies"}),
		halts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "halts_total",
			Help:      "Leaps cut short by numeric breakdown.",
		}, []string{"bodies"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leap_duration_seconds",
			Help:      "Wall time of one leap.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"bodies"}),
	}
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// ObserveLeap records one leap of an ensemble of n bodies.
func (c *Collector) ObserveLeap(n, requested, completed int, elapsed time.Duration) {
	label := strconv.Itoa(n)
	c.leaps.WithLabelValues(label).Inc()
	c.steps.WithLabelValues(label).Add(float64(completed))
	if completed < requested {
		c.halts.WithLabelValues(label).Inc()
	}
	c.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
