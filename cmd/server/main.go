package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sitenav/internal/api"
	"sitenav/internal/config"
	"sitenav/internal/session"
	"sitenav/pkg/logger"
	"sitenav/pkg/metrics"
)

func main() {
	cfgPath := flag.String("config", "sitenav.yml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.New(os.Stderr, "error").Errorf("load config: %v", err)
		os.Exit(1)
	}
	l := logger.New(os.Stdout, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		l.Errorf("invalid config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	provider, err := cfg.NewPrefsProvider(ctx)
	if err != nil {
		l.Errorf("prefs backend: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	client := cfg.NewFetcher()
	opts := cfg.SessionOptions()
	factory := func(id, visitor string) (*session.Session, error) {
		return session.New(id, session.Deps{
			Fetcher: client,
			Prefs:   provider.For(visitor),
			Metrics: m,
			Logger:  l,
		}, opts)
	}

	apiSrv := api.NewServer(factory, reg, m, l, api.Options{
		MaxSessions:    cfg.Server.MaxSessions,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	defer apiSrv.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiSrv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
			stop()
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	l.Infof("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf("shutdown: %v", err)
	}
	l.Infof("bye")
}
