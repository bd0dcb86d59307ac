package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/tripshift/infra/logger"
)

// StartPromServer starts an HTTP server exposing the metrics of gatherer on
// /metrics, plus any extra routes keyed by mux pattern. A nil gatherer
// serves the default registry. The server runs until the provided context
// is canceled.
func StartPromServer(ctx context.Context, addr string, gatherer prometheus.Gatherer, routes map[string]http.Handler) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := NewMux(gatherer, routes)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log := logger.New("prom-server")
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("prom server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// NewMux routes /metrics to gatherer and the extra routes to their handlers.
func NewMux(gatherer prometheus.Gatherer, routes map[string]http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	for pattern, h := range routes {
		mux.Handle(pattern, h)
	}
	return mux
}
