package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pizzachain/curator/pkg/config"
	"github.com/pizzachain/curator/pkg/logging"
	"github.com/pizzachain/curator/pkg/messaging"
	"github.com/pizzachain/curator/pkg/metrics"
	"github.com/pizzachain/curator/pkg/relay"
)

var (
	version = "0.1.0-dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to config file (.json, .yaml, .toml)")
	once := flag.Bool("once", false, "Forward a single batch and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("relay", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(config.CmdRelay); err != nil {
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

	broker, err := messaging.Dial(cfg.Broker.URL, cfg.Broker.Queue, cfg.Broker.Topic)
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
	r := relay.New(broker, broker, relay.Config{
		MaxMessages:   cfg.Relay.MaxMessages,
		Wait:          cfg.Relay.Wait.D(),
		IdleInterval:  cfg.Relay.IdleInterval.D(),
		BatchInterval: cfg.Relay.BatchInterval.D(),
		Subject:       cfg.Relay.Subject,
	}, m)

	logger.Info().Str("queue", cfg.Broker.Queue).Str("topic", cfg.Broker.Topic).Msg("relay started")
	if *once {
		n, err := r.RunOnce(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("relay batch failed")
			os.Exit(1)
		}
		logger.Info().Int("messages", n).Msg("relay batch done")
	} else if err := r.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("relay stopped")
		os.Exit(1)
	}
	if err := m.Push(cfg.Metrics.PushGateway, "relay"); err != nil {
		logger.Warn().Err(err).Msg("failed to push metrics")
	}
	logger.Info().Msg("relay stopped")
}
