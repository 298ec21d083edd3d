package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
)

var (
	llmRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerdesk_llm_requests_total",
		Help: "Total LLM chat completion calls by purpose and outcome",
	}, []string{"purpose", "outcome"})

	llmDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sellerdesk_llm_request_duration_seconds",
		Help:    "LLM chat completion latency by purpose",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
	}, []string{"purpose"})

	cacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerdesk_cache_operations_total",
		Help: "Cache operations by type and outcome",
	}, []string{"op", "outcome"})

	rankFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerdesk_rankdata_fetches_total",
		Help: "Ranked keyword fetches per ASIN by outcome",
	}, []string{"outcome"})

	keywordsGenerated = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sellerdesk_keywords_generated",
		Help:    "Number of keywords produced per keyword research run",
		Buckets: prometheus.ExponentialBuckets(5, 2, 8),
	})

	draftsDesc = prometheus.NewDesc(
		"sellerdesk_listing_drafts",
		"Stored listing drafts by status",
		[]string{"status"},
		nil,
	)
)

// DraftCounter reports stored listing drafts grouped by status.
type DraftCounter interface {
	CountDraftsByStatus(ctx context.Context) (map[string]int64, error)
}

// DraftCollector is a custom Prometheus collector that reads draft counts
// from the database on each scrape.
type DraftCollector struct {
	counter DraftCounter
}

// Describe sends the metric descriptor to the channel.
func (c *DraftCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- draftsDesc
}

// Collect queries the database for draft counts and emits them as gauges.
func (c *DraftCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.counter.CountDraftsByStatus(ctx)
	if err != nil {
		slog.Error("failed to collect listing draft metrics", "error", err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(draftsDesc, prometheus.GaugeValue, float64(n), status)
	}
}

var initOnce sync.Once

// Init registers all collectors with the default registry. counter may be
// nil when no database is configured. Must be called once at startup.
func Init(counter DraftCounter) {
	initOnce.Do(func() {
		prometheus.MustRegister(llmRequests, llmDuration, cacheOps, rankFetches, keywordsGenerated)
		if counter != nil {
			prometheus.MustRegister(&DraftCollector{counter: counter})
		}
	})
}

// RecordLLMRequest records one chat completion call.
func RecordLLMRequest(purpose string, elapsed time.Duration, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	llmRequests.WithLabelValues(purpose, outcome).Inc()
	llmDuration.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

// RecordCacheOp records a cache operation outcome.
func RecordCacheOp(op, outcome string) {
	cacheOps.WithLabelValues(op, outcome).Inc()
}

// RecordRankFetch records a ranked keyword fetch outcome.
func RecordRankFetch(err error) {
	if err != nil {
		rankFetches.WithLabelValues(OutcomeError).Inc()
		return
	}
	rankFetches.WithLabelValues(OutcomeOK).Inc()
}

// ObserveKeywordsGenerated records the size of a keyword research result.
func ObserveKeywordsGenerated(n int) {
	keywordsGenerated.Observe(float64(n))
}
