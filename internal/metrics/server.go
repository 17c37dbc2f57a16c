package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPort is used when the configured metrics port is zero.
const DefaultPort = 9090

// NewHTTPServer creates an HTTP server that exposes Prometheus metrics at
// /metrics and a liveness probe at /healthz while a batch read is running.
func NewHTTPServer(address string, port int) *http.Server {
	if port == 0 {
		port = DefaultPort
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", address, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
