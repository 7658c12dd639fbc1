package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusObserver exports recognition and routing events as Prometheus metrics
type PrometheusObserver struct {
	recognitions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	confidence   prometheus.Histogram
	routes       *prometheus.CounterVec
}

// NewPrometheusObserver registers its collectors with reg
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	factory := promauto.With(reg)

	return &PrometheusObserver{
		recognitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hallnav_recognitions_total",
				Help: "Total number of recognition requests by outcome",
			},
			[]string{"status", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hallnav_recognition_duration_seconds",
				Help:    "Duration of the recognition pipeline in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hallnav_recognition_confidence",
				Help:    "Classifier confidence of recognized halls",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		routes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hallnav_routes_total",
				Help: "Total number of route requests by outcome",
			},
			[]string{"status"},
		),
	}
}

func (o *PrometheusObserver) OnEvent(ctx context.Context, event RecognitionEvent) {
	switch event.EventType {
	case RecognitionCompleted:
		o.recognitions.WithLabelValues("success", "").Inc()
		o.duration.WithLabelValues("success").Observe(event.Duration.Seconds())
		o.confidence.Observe(event.Confidence)
	case RecognitionRejected:
		o.recognitions.WithLabelValues("validation_error", event.Kind).Inc()
		o.duration.WithLabelValues("validation_error").Observe(event.Duration.Seconds())
	case RecognitionFailed:
		o.recognitions.WithLabelValues("system_error", event.Kind).Inc()
		o.duration.WithLabelValues("system_error").Observe(event.Duration.Seconds())
	case RouteComputed:
		o.routes.WithLabelValues("success").Inc()
	case RouteRejected:
		o.routes.WithLabelValues("validation_error").Inc()
	}
}

func (o *PrometheusObserver) GetObserverName() string {
	return "prometheus_observer"
}
