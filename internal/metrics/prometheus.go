package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profitscout_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profitscout_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "profitscout_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Selection metrics
	CandidatesSelected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "profitscout_candidates_selected_count",
			Help: "Candidates in the latest committed selection run",
		},
		[]string{"option_type"},
	)

	TickersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profitscout_tickers_processed_total",
			Help: "Per-ticker pipeline outcomes",
		},
		[]string{"worker", "status"}, // status: success|failed|no_data
	)

	FeatureRecordsUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "profitscout_feature_records_upserted_total",
			Help: "Feature records written by enrichment runs",
		},
	)

	// Store metrics
	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profitscout_store_query_duration_seconds",
			Help:    "Backing store query duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"store", "operation"},
	)
)

// ObserveStoreQuery records one store query's duration, measured from start
func ObserveStoreQuery(store, operation string, start time.Time) {
	StoreQueryDuration.WithLabelValues(store, operation).Observe(time.Since(start).Seconds())
}

// Register registers all metrics with the default registry
func Register() {
	prometheus.MustRegister(
		WorkerExecutions,
		WorkerDuration,
		WorkerLastRun,
		CandidatesSelected,
		TickersProcessed,
		FeatureRecordsUpserted,
		StoreQueryDuration,
	)
}

// Server serves the Prometheus scrape endpoint
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics HTTP server on addr
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the listener closes
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	return s.srv.Close()
}
