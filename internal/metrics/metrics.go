// Package metrics exposes editor counters and timings to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"icednano/internal/buildinfo"
	"icednano/nano/store"
)

const namespace = "icednano"

// Metrics implements render.Recorder and session.Observer.
type Metrics struct {
	reg *prometheus.Registry

	buildSeconds *prometheus.HistogramVec
	primitives   *prometheus.GaugeVec
	vertices     *prometheus.GaugeVec
	frames       prometheus.Counter
	gestures     *prometheus.CounterVec
	saves        *prometheus.CounterVec
	saveSeconds  prometheus.Histogram
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		buildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "build_seconds",
			Help:      "Time to build one draw list, by view.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"view"}),
		primitives: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "primitives",
			Help:      "Primitives in the last draw list, by view.",
		}, []string{"view"}),
		vertices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "vertices",
			Help:      "Vertices in the last draw list, by view.",
		}, []string{"view"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "frames_total",
			Help:      "Frames presented.",
		}),
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "gestures_total",
			Help:      "Gesture outcomes, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Finished saves, by status.",
		}, []string{"status"}),
		saveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "save_seconds",
			Help:      "Time to write one design file.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build version of the running binary.",
		ConstLabels: prometheus.Labels{"version": buildinfo.Short()},
	})
	info.Set(1)
	m.reg.MustRegister(m.buildSeconds, m.primitives, m.vertices, m.frames, m.gestures, m.saves, m.saveSeconds, info)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveBuild records one draw list build.
func (m *Metrics) ObserveBuild(view string, elapsed time.Duration, primitives, vertices int) {
	m.buildSeconds.WithLabelValues(view).Observe(elapsed.Seconds())
	m.primitives.WithLabelValues(view).Set(float64(primitives))
	m.vertices.WithLabelValues(view).Set(float64(vertices))
}

// ObserveGesture counts a gesture outcome.
func (m *Metrics) ObserveGesture(kind, outcome string) {
	m.gestures.WithLabelValues(kind, outcome).Inc()
}

// ObserveSave records a finished save. It fits store.Saver.Observe.
func (m *Metrics) ObserveSave(res store.SaveResult) {
	status := "ok"
	if res.Err != nil {
		status = "error"
	}
	m.saves.WithLabelValues(status).Inc()
	m.saveSeconds.Observe(res.Elapsed.Seconds())
}

// FramePresented counts one presented frame.
func (m *Metrics) FramePresented() { m.frames.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("metrics: listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
