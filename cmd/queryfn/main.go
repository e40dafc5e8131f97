package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pizzachain/curator/pkg/config"
	"github.com/pizzachain/curator/pkg/logging"
	"github.com/pizzachain/curator/pkg/messaging"
	"github.com/pizzachain/curator/pkg/metrics"
	"github.com/pizzachain/curator/pkg/queryfn"
)

var (
	version = "0.1.0-dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to config file (.json, .yaml, .toml)")
	addr := flag.String("listen", "", "Serve the handler over HTTP on this address instead of running once")
	flag.Parse()

	if *showVersion {
		fmt.Println("queryfn", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(config.CmdQuery); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	engine, err := queryfn.NewBigQuery(ctx, cfg.Query.Project, cfg.Query.Location)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create query engine")
		os.Exit(1)
	}
	defer engine.Close()

	broker, err := messaging.Dial(cfg.Broker.URL, cfg.Broker.Queue, "")
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to broker")
		os.Exit(1)
	}
	defer func() {
		if err := broker.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close broker")
		}
	}()

	m := metrics.New()
	h := queryfn.New(engine, broker, cfg.Query.SQL, m)

	if *addr == "" {
		res, err := h.Handle(ctx)
		if perr := m.Push(cfg.Metrics.PushGateway, "queryfn"); perr != nil {
			logger.Warn().Err(perr).Msg("failed to push metrics")
		}
		if err != nil {
			logger.Error().Err(err).Msg("handler failed")
			os.Exit(1)
		}
		logger.Info().Int("status", res.StatusCode).Str("body", res.Body).Msg("handler finished")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/", withLogger(h, logger))
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	logger.Info().Str("addr", *addr).Msg("serving query handler")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

// withLogger carries the process logger into request contexts.
func withLogger(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
