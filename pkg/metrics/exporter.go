package metrics

import (
	"fmt"
	"net/http"

	"github.com/downfa11-org/logseg/util"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(SegmentBytesAppended, SegmentBytesTransferred, SegmentTruncations, SegmentTruncatedBytes)
	prometheus.MustRegister(SegmentStorageChanged, SegmentIterationFailures, SegmentCorruptRecords, SearchScannedFrames, OpenSegments)
}

// NewRouter serves /metrics and /healthz.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// StartMetricsServer serves NewRouter on port in the background.
func StartMetricsServer(port int) *http.Server {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewRouter(),
	}
	go func() {
		util.Info("Prometheus exporter listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Error("Failed to start metrics server: %v", err)
		}
	}()
	return srv
}
