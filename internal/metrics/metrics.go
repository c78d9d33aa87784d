package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(HTTPTotalRequests)
	prometheus.MustRegister(HTTPResponseDuration)
	prometheus.MustRegister(InvitesCreated)
	prometheus.MustRegister(InvitesAnswered)
	prometheus.MustRegister(InvitesExpired)
	prometheus.MustRegister(NotificationsDelivered)
	prometheus.MustRegister(NotificationsSuppressed)
	prometheus.MustRegister(FilesUploadedBytes)
	prometheus.MustRegister(RealtimeConnections)
}

const (
	namespace = "fatecteams"

	LabelPath   = "path"
	LabelCode   = "code"
	LabelMethod = "method"
	LabelResult = "result"
	LabelType   = "type"
	LabelReason = "reason"
)

var (
	histogramBuckets = []float64{.005, .025, .1, .25, .5, 1, 5}

	// HTTPTotalRequests is broken down by route pattern, method and status code.
	HTTPTotalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of total requests.",
		},
		[]string{LabelPath, LabelMethod, LabelCode})

	HTTPResponseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "response_time_seconds",
		Help:      "Duration of HTTP response.",
		Buckets:   histogramBuckets,
	}, []string{LabelPath, LabelMethod})

	InvitesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invites",
		Name:      "created_total",
		Help:      "Number of invites created.",
	})

	// InvitesAnswered counts accepted and declined invites.
	InvitesAnswered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invites",
		Name:      "answered_total",
		Help:      "Number of invites answered, by result.",
	}, []string{LabelResult})

	InvitesExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "invites",
		Name:      "expired_total",
		Help:      "Number of pending invites flipped to expired by the sweep.",
	})

	NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "delivered_total",
		Help:      "Number of notifications stored, by type.",
	}, []string{LabelType})

	NotificationsSuppressed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "suppressed_total",
		Help:      "Number of notifications dropped by recipient settings.",
	}, []string{LabelReason})

	FilesUploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "files",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes uploaded to object storage.",
	})

	RealtimeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Open websocket connections.",
	})
)
