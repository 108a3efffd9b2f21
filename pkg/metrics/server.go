package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/uartbridge/pkg/framework"
)

// ShutdownTimeout bounds draining in-flight scrapes on stop.
const ShutdownTimeout = 5 * time.Second

// Server serves /metrics until its context is canceled.
type Server struct {
	Addr    string
	Metrics *Metrics
}

// Name implements fx.Named.
func (s *Server) Name() string {
	return "metrics"
}

// Run implements fx.Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	srv := &http.Server{Addr: s.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	glog.Infof("metrics listening on %s", s.Addr)
	return fx.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}, srv.ListenAndServe)
}
