package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facesim"

// Recorder owns the service's prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	recognitions *prometheus.CounterVec
	scores       *prometheus.HistogramVec
	latency      *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	identities   prometheus.Gauge
	enrollments  prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recognitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognitions_total",
			Help:      "Recognition operations by kind and outcome",
		}, []string{"kind", "status"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognition_score",
			Help:      "Best similarity score per recognition",
			Buckets:   prometheus.LinearBuckets(-1, 0.1, 21),
		}, []string{"kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recognition_duration_seconds",
			Help:      "Time spent scoring a recognition request",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		identities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_identities",
			Help:      "Distinct labels in the gallery at the last sample",
		}),
		enrollments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_enrollments",
			Help:      "Enrolled embeddings in the gallery at the last sample",
		}),
	}

	r.registry.MustRegister(
		r.recognitions,
		r.scores,
		r.latency,
		r.httpRequests,
		r.identities,
		r.enrollments,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// ObserveRecognition counts one scored request. Score is skipped when the
// request had nothing to score, such as an identify against an empty gallery.
func (r *Recorder) ObserveRecognition(kind, status string, score *float64, elapsed time.Duration) {
	r.recognitions.WithLabelValues(kind, status).Inc()
	r.latency.WithLabelValues(kind).Observe(elapsed.Seconds())
	if score != nil {
		r.scores.WithLabelValues(kind).Observe(*score)
	}
}

func (r *Recorder) ObserveHTTP(path, method, status string) {
	r.httpRequests.WithLabelValues(path, method, status).Inc()
}

func (r *Recorder) SetGallerySize(identities, enrollments int) {
	r.identities.Set(float64(identities))
	r.enrollments.Set(float64(enrollments))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
