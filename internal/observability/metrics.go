package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reconcileEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_reconcile_events_total",
			Help: "Total number of reconcile events applied to the local message list.",
		},
		[]string{"source", "result"},
	)
	listLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatsync_message_list_length",
			Help: "Current length of the local message list.",
		},
	)
	discardedPayloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_discarded_payloads_total",
			Help: "Total number of malformed or suppressed channel payloads discarded.",
		},
		[]string{"reason"},
	)
	publishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_publish_errors_total",
			Help: "Total number of live channel publish errors.",
		},
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_attachment_uploads_total",
			Help: "Total number of attachment binary uploads by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		reconcileEventsTotal,
		listLength,
		discardedPayloadsTotal,
		publishErrorsTotal,
		uploadsTotal,
	)
}

func IncReconcileEvent(source, result string) {
	reconcileEventsTotal.WithLabelValues(source, result).Inc()
}

func SetListLength(n int) {
	listLength.Set(float64(n))
}

func IncDiscardedPayload(reason string) {
	discardedPayloadsTotal.WithLabelValues(reason).Inc()
}

func IncPublishError() {
	publishErrorsTotal.Inc()
}

func IncUpload(outcome string) {
	uploadsTotal.WithLabelValues(outcome).Inc()
}
