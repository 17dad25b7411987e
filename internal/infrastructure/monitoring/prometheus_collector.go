package monitoring

import (
	"time"

	"gridcast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Gauges
	streamsActive prometheus.Gauge
	audibleStream prometheus.Gauge
	eventClients  prometheus.Gauge

	// Counters
	framesDrawnTotal   prometheus.Counter
	framesDroppedTotal prometheus.Counter
	recordedBytesTotal prometheus.Counter

	// Histograms
	compositorTickDuration prometheus.Histogram
	sessionMutateDuration  prometheus.Histogram

	// Per-state metrics
	segmentsByStatus  *prometheus.GaugeVec
	streamsByPlatform *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		streamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gridcast_streams_active_total",
			Help: "Number of streams currently in the session",
		}),

		audibleStream: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gridcast_audible_stream",
			Help: "1 when exactly one stream is unmuted, 0 when silent",
		}),

		eventClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gridcast_event_clients",
			Help: "Number of connected WebSocket event clients",
		}),

		framesDrawnTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gridcast_compositor_frames_drawn_total",
			Help: "Total composited frames drawn",
		}),

		framesDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gridcast_compositor_frames_dropped_total",
			Help: "Total frames that overran the per-frame budget",
		}),

		recordedBytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gridcast_recording_bytes_total",
			Help: "Total bytes written to recording segments",
		}),

		compositorTickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridcast_compositor_tick_duration_seconds",
			Help:    "Duration of compositor render ticks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.016, 0.033, 0.05, 0.1},
		}),

		sessionMutateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridcast_session_mutation_duration_seconds",
			Help:    "Duration of session mutation operations",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),

		segmentsByStatus: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gridcast_recording_segments",
			Help: "Recording segments by status",
		}, []string{"status"}),

		streamsByPlatform: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gridcast_streams_by_platform",
			Help: "Streams in the session by platform",
		}, []string{"platform"}),
	}
}

// ObserveSession refreshes all session-shape gauges from a snapshot.
func (p *PrometheusCollector) ObserveSession(session *domain.Session) {
	p.streamsActive.Set(float64(len(session.Streams)))

	if session.AudibleStream() != nil {
		p.audibleStream.Set(1)
	} else {
		p.audibleStream.Set(0)
	}

	counts := map[domain.Platform]int{
		domain.PlatformTwitch:  0,
		domain.PlatformYouTube: 0,
		domain.PlatformKick:    0,
		domain.PlatformCustom:  0,
	}
	for _, stream := range session.Streams {
		counts[stream.Platform]++
	}
	for platform, n := range counts {
		p.streamsByPlatform.WithLabelValues(string(platform)).Set(float64(n))
	}
}

// ObserveSegments refreshes the per-status segment gauges.
func (p *PrometheusCollector) ObserveSegments(segments []*domain.RecordingSegment) {
	counts := map[domain.SegmentStatus]int{
		domain.SegmentRecording:  0,
		domain.SegmentProcessing: 0,
		domain.SegmentCompleted:  0,
		domain.SegmentFailed:     0,
	}
	for _, segment := range segments {
		counts[segment.Status]++
	}
	for status, n := range counts {
		p.segmentsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

func (p *PrometheusCollector) RecordCompositorTick(d time.Duration, dropped bool) {
	p.compositorTickDuration.Observe(d.Seconds())
	p.framesDrawnTotal.Inc()
	if dropped {
		p.framesDroppedTotal.Inc()
	}
}

func (p *PrometheusCollector) RecordSessionMutation(d time.Duration) {
	p.sessionMutateDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordBytesWritten(bytes int64) {
	p.recordedBytesTotal.Add(float64(bytes))
}

func (p *PrometheusCollector) SetEventClients(n int) {
	p.eventClients.Set(float64(n))
}
