// Package metrics provides Prometheus metrics for the bookhub service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Award reasons used as the "reason" label.
const (
	ReasonCompletion = "completion"
	ReasonQuiz       = "quiz"
	ReasonManual     = "manual"
)

// Recorder owns the service metrics. A nil *Recorder is valid and records
// nothing, so components can be built without metrics in tests.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	pointsAwarded    *prometheus.CounterVec
	awards           *prometheus.CounterVec
	completions      prometheus.Counter
	quizSubmissions  prometheus.Counter
	txConflicts      prometheus.Counter
	transientErrors  prometheus.Counter
	cacheLookups     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	leaderboardReads prometheus.Counter
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the metric namespace (default "bookhub").
func WithNamespace(ns string) Option {
	return func(r *Recorder) { r.namespace = ns }
}

// WithRegistry registers on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) { r.registry = reg }
}

// New creates a Recorder on its own registry, so the default Go collectors
// only show up because we add them explicitly.
func New(opts ...Option) *Recorder {
	r := &Recorder{namespace: "bookhub"}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	auto := promauto.With(r.registry)
	r.pointsAwarded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rewards",
		Name:      "points_awarded_total",
		Help:      "Points credited to users, by reason",
	}, []string{"reason"})
	r.awards = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "rewards",
		Name:      "awards_total",
		Help:      "Successful ledger mutations, by reason",
	}, []string{"reason"})
	r.completions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "progress",
		Name:      "books_completed_total",
		Help:      "Books that reached 100 percent for the first time",
	})
	r.quizSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "quiz",
		Name:      "submissions_total",
		Help:      "Graded quiz submissions",
	})
	r.txConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "store",
		Name:      "tx_conflicts_total",
		Help:      "Transactions retried after a concurrent update conflict",
	})
	r.transientErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "store",
		Name:      "tx_exhausted_total",
		Help:      "Operations that gave up after exhausting conflict retries",
	})
	r.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "leaderboard",
		Name:      "cache_lookups_total",
		Help:      "Leaderboard cache lookups by result (hit, miss, error)",
	}, []string{"result"})
	r.leaderboardReads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "leaderboard",
		Name:      "store_reads_total",
		Help:      "Leaderboard snapshots read from the store",
	})
	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})
	r.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	return r
}

// Handler exposes the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry is the underlying registry, for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Award(reason string, points int) {
	if r == nil {
		return
	}
	r.awards.WithLabelValues(reason).Inc()
	r.pointsAwarded.WithLabelValues(reason).Add(float64(points))
}

func (r *Recorder) BookCompleted() {
	if r == nil {
		return
	}
	r.completions.Inc()
}

func (r *Recorder) QuizSubmitted() {
	if r == nil {
		return
	}
	r.quizSubmissions.Inc()
}

func (r *Recorder) TxConflict() {
	if r == nil {
		return
	}
	r.txConflicts.Inc()
}

func (r *Recorder) TxExhausted() {
	if r == nil {
		return
	}
	r.transientErrors.Inc()
}

// CacheLookup records a leaderboard cache result: "hit", "miss" or "error".
func (r *Recorder) CacheLookup(result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) LeaderboardRead() {
	if r == nil {
		return
	}
	r.leaderboardReads.Inc()
}

func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
