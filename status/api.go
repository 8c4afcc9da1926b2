package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter serves /status, /healthz and /metrics.
func NewRouter(store *Store, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.Report()); err != nil {
			log.Warn("failed to write status", "err", err)
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return r
}

// AccessLog writes one common log format line per request at debug level.
func AccessLog(h http.Handler) http.Handler {
	w := log.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer()
	return handlers.LoggingHandler(w, h)
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, wg *sync.WaitGroup, addr string, h http.Handler) {
	defer wg.Done()
	srv := &http.Server{Addr: addr, Handler: AccessLog(h), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("status API listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("status API stopped", "err", err)
	}
}
