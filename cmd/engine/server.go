package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"jobscout-engine/internal/httpapi"
	"jobscout-engine/internal/scheduler"
)

// lockDataDir takes an exclusive lock so two engines never share one store.
func lockDataDir(dataDir string) (func(), error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(dataDir, "jobscout.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another engine is already running on %s", dataDir)
	}
	return func() { _ = fl.Unlock() }, nil
}

// serve starts the ops server in the background. It stops with ctx or shutdown.
func (a *app) serve(ctx context.Context, addr string, runner *scheduler.Runner) (*http.Server, error) {
	d := httpapi.Deps{
		Cache:   a.locator,
		Hub:     a.hub,
		Runner:  runner,
		Metrics: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Log:     a.log,
	}
	if a.db != nil {
		d.Jobs = a.db
		d.History = a.db
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           httpapi.NewHandler(d),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	a.log.Info("[http] listening", zap.String("addr", "http://"+ln.Addr().String()))

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("[http] serve failed", zap.Error(err))
		}
	}()
	return srv, nil
}

func shutdown(srv *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("[http] shutdown", zap.Error(err))
	}
}
