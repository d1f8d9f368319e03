package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	callDurationBucketStart  = 0.05
	callDurationBucketFactor = 2.0
	callDurationBucketCount  = 12
)

var CallsInitiated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "calls_initiated_total",
		Help: "Call sessions created",
	},
)

var CallsFinished = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "calls_finished_total",
		Help: "Call sessions that reached a terminal status",
	},
	[]string{"status"},
)

var CallProcessingDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name: "call_processing_duration_seconds",
		Help: "Time spent in background call processing",
		Buckets: prometheus.ExponentialBuckets(
			callDurationBucketStart,
			callDurationBucketFactor,
			callDurationBucketCount,
		),
	},
)

var CallsActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "calls_processing",
		Help: "Background call processors currently running",
	},
)

var ConversationIntents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "conversation_intents_total",
		Help: "Conversation turns by detected intent",
	},
	[]string{"intent"},
)

var VoiceConversions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "voice_conversions_total",
		Help: "Voice conversion requests by direction",
	},
	[]string{"direction"},
)

func init() {
	prometheus.MustRegister(CallsInitiated)
	prometheus.MustRegister(CallsFinished)
	prometheus.MustRegister(CallProcessingDuration)
	prometheus.MustRegister(CallsActive)
	prometheus.MustRegister(ConversationIntents)
	prometheus.MustRegister(VoiceConversions)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
