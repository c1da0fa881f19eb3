package station

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	samples  prometheus.Counter
	lines    *prometheus.CounterVec
	headers  *prometheus.CounterVec
	images   *prometheus.CounterVec
	dropped  prometheus.Counter
	subs     prometheus.Gauge
	progress prometheus.Gauge
}

// NewMetrics registers the station collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		samples: f.NewCounter(prometheus.CounterOpts{
			Name: "robot36_samples_total",
			Help: "Audio samples handed to the decoder",
		}),
		lines: f.NewCounterVec(prometheus.CounterOpts{
			Name: "robot36_scan_lines_total",
			Help: "Pixel rows decoded",
		}, []string{"mode"}),
		headers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "robot36_vis_headers_total",
			Help: "VIS headers that passed parity, by mode; unknown codes use mode=\"unknown\"",
		}, []string{"mode"}),
		images: f.NewCounterVec(prometheus.CounterOpts{
			Name: "robot36_images_total",
			Help: "Pictures completed",
		}, []string{"mode"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "robot36_events_dropped_total",
			Help: "Events not delivered to a slow subscriber",
		}),
		subs: f.NewGauge(prometheus.GaugeOpts{
			Name: "robot36_subscribers",
			Help: "Connected event subscribers",
		}),
		progress: f.NewGauge(prometheus.GaugeOpts{
			Name: "robot36_image_progress_ratio",
			Help: "Fraction of the current picture decoded",
		}),
	}
}
