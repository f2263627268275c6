package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/scoizzle/poly/config"
	"github.com/scoizzle/poly/metrics"
	"github.com/scoizzle/poly/pathmux"
)

const (
	lookupPath      = "/lookup/"
	metricsPath     = "/metrics"
	shutdownTimeout = 5 * time.Second
)

func metricsHandler(m metrics.Metrics) http.Handler {
	if m == metrics.Void {
		return nil
	}

	switch mt := m.(type) {
	case *metrics.All:
		return mt.CreateHandler(metricsPath)
	case *metrics.Prometheus:
		return mt.CreateHandler()
	case *metrics.CodaHale:
		return mt.CreateHandler(metricsPath)
	default:
		return nil
	}
}

type lookupHandler struct {
	routes *pathmux.Collection[any]
}

// ServeHTTP looks up the request path after /lookup/ in the route table.
func (h *lookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, lookupPath)
	result, ok := lookup(h.routes, key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Errorf("failed to write lookup result: %v", err)
	}
}

func newServeMux(routes *pathmux.Collection[any], m metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(lookupPath, &lookupHandler{routes: routes})
	if h := metricsHandler(m); h != nil {
		mux.Handle(metricsPath, h)
		mux.Handle(metricsPath+"/", h)
	}

	return mux
}

func listenAndServe(ctx context.Context, srv *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

func serveCmd(cfg *config.Config, _ io.Writer) error {
	m := metrics.New(cfg.MetricsOptions())
	routes, err := loadCollection(cfg, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           newServeMux(routes, m),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return listenAndServe(ctx, srv)
}
