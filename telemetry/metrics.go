// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ConversionsStarted   prometheus.Counter
	ConversionsMatched   prometheus.Counter
	ConversionsUnmatched prometheus.Counter
	ConversionsFailed    prometheus.Counter
	ChatMessagesSeen     prometheus.Counter
	ChatRepliesSent      prometheus.Counter

	// Histograms
	LookupDuration     prometheus.Observer // source track resolution, seconds
	SearchDuration     prometheus.Observer // per-target candidate search, seconds
	ConversionDuration prometheus.Observer // whole conversion, seconds
	MatchScores        prometheus.Observer // accepted match scores, 0-100

	// Gauges
	SubscribedChannelsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ConversionsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "tunebridge_conversions_started_total", Help: "Number of link conversions started"})
		ConversionsMatched = promauto.NewCounter(prometheus.CounterOpts{Name: "tunebridge_conversions_matched_total", Help: "Number of conversions that found an acceptable match"})
		ConversionsUnmatched = promauto.NewCounter(prometheus.CounterOpts{Name: "tunebridge_conversions_unmatched_total", Help: "Number of conversions with no acceptable match"})
		ConversionsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "tunebridge_conversions_failed_total", Help: "Number of conversions that failed on catalog errors"})
		ChatMessagesSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "tunebridge_chat_messages_total", Help: "Number of chat messages inspected"})
		ChatRepliesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "tunebridge_chat_replies_total", Help: "Number of chat replies sent"})
		LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "tunebridge_lookup_duration_seconds", Help: "Source track lookup duration seconds", Buckets: prometheus.DefBuckets})
		SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "tunebridge_search_duration_seconds", Help: "Candidate search duration seconds", Buckets: prometheus.DefBuckets})
		ConversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "tunebridge_conversion_duration_seconds", Help: "Total conversion duration seconds", Buckets: prometheus.DefBuckets})
		MatchScores = promauto.NewHistogram(prometheus.HistogramOpts{Name: "tunebridge_match_score", Help: "Accepted match scores", Buckets: prometheus.LinearBuckets(0, 10, 11)})
		SubscribedChannelsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "tunebridge_subscribed_channels", Help: "Current number of subscribed channels"})
	})
}

// SetSubscribedChannels records the current subscribed channel count.
func SetSubscribedChannels(n int) {
	if SubscribedChannelsGauge != nil {
		SubscribedChannelsGauge.Set(float64(n))
	}
}

// ObserveMatchScore records an accepted match score.
func ObserveMatchScore(score int) {
	if MatchScores != nil {
		MatchScores.Observe(float64(score))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
