package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "casenotes"

// Recorder agrupa las métricas del pipeline sobre un registry propio.
type Recorder struct {
	registry *prometheus.Registry

	tierOutcomes     *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	batchNotes       *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		tierOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_attempts_total",
			Help:      "Tier attempts by analysis stage, tier and outcome.",
		}, []string{"stage", "tier", "outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "note_analysis_duration_seconds",
			Help:      "Wall time to analyze a single note.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
		batchNotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_notes_total",
			Help:      "Notes processed by batch analysis, by result.",
		}, []string{"result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_cache_lookups_total",
			Help:      "Aggregate metrics cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		r.tierOutcomes,
		r.analysisDuration,
		r.batchNotes,
		r.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveTier implementa nlp.Observer.
func (r *Recorder) ObserveTier(stage, tier, outcome string) {
	r.tierOutcomes.WithLabelValues(stage, tier, outcome).Inc()
}

func (r *Recorder) ObserveAnalysis(d time.Duration) {
	r.analysisDuration.Observe(d.Seconds())
}

// ObserveBatchNote cuenta una nota del batch; result es "analyzed" o "failed".
func (r *Recorder) ObserveBatchNote(result string) {
	r.batchNotes.WithLabelValues(result).Inc()
}

// ObserveCache cuenta un lookup del cache de agregados ("hit", "miss", "error").
func (r *Recorder) ObserveCache(result string) {
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve expone /metrics hasta que ctx se cancele.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
