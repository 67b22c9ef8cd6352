package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                      sync.Once
	metricsRouter             *chi.Mux
	economyOpCounter          *prometheus.CounterVec
	economyDocConflictCounter prometheus.Counter
	pollerDurationHistogram   *prometheus.HistogramVec
	activeWithdrawalsGauge    prometheus.Gauge
	lapsedWithdrawalsCounter  prometheus.Counter
	dbLatency                 *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	economyOpCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_operation_result_count",
			Help: "The total number of economy engine operations split by operation and result code.",
		},
		[]string{"operation", "code"},
	)

	economyDocConflictCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "economy_doc_write_conflict_count",
			Help: "The total number of economy document version races lost and retried.",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	activeWithdrawalsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_withdrawals_count",
			Help: "Number of withdrawals currently waiting on their commit timer",
		},
	)

	lapsedWithdrawalsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lapsed_withdrawals_count",
			Help: "Number of withdrawals that failed their fire-time balance check and lapsed",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		economyOpCounter,
		economyDocConflictCounter,
		pollerDurationHistogram,
		activeWithdrawalsGauge,
		lapsedWithdrawalsCounter,
		dbLatency,
	)
}

func RecordEconomyOpResult(operation, code string) {
	if economyOpCounter == nil {
		return
	}
	economyOpCounter.WithLabelValues(operation, code).Inc()
}

func RecordEconomyDocConflict() {
	if economyDocConflictCounter == nil {
		return
	}
	economyDocConflictCounter.Inc()
}

func RecordActiveWithdrawals(count int) {
	if activeWithdrawalsGauge == nil {
		return
	}
	activeWithdrawalsGauge.Set(float64(count))
}

func IncLapsedWithdrawals() {
	if lapsedWithdrawalsCounter == nil {
		return
	}
	lapsedWithdrawalsCounter.Inc()
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	if dbLatency == nil {
		return
	}

	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}
