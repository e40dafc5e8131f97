package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pizzachain/curator/pkg/catalog"
	"github.com/pizzachain/curator/pkg/catalog/filecatalog"
	"github.com/pizzachain/curator/pkg/catalog/sqlcatalog"
	"github.com/pizzachain/curator/pkg/config"
	"github.com/pizzachain/curator/pkg/curate"
	"github.com/pizzachain/curator/pkg/logging"
	"github.com/pizzachain/curator/pkg/metrics"
	"github.com/pizzachain/curator/pkg/sink"
)

var (
	version = "0.1.0-dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to config file (.json, .yaml, .toml)")
	root := flag.String("root", "", "Override destination root (local dir or gs://bucket/prefix)")
	fill := flag.Bool("fill-missing-totals", false, "Write 0 instead of null totals for orders without items")
	parallel := flag.Int("parallel", 0, "Max concurrent dataset writes (0 = all)")
	flag.Parse()

	if *showVersion {
		fmt.Println("curate", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *root != "" {
		cfg.Destination.Root = *root
	}
	if *fill {
		cfg.Curate.FillMissingTotals = true
	}
	if err := cfg.Validate(config.CmdCurate); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx := logger.WithContext(context.Background())

	if err := run(ctx, cfg, *parallel); err != nil {
		logger.Error().Err(err).Msg("curate run failed")
		os.Exit(1)
	}
	logger.Info().Str("root", cfg.Destination.Root).Msg("curate run finished")
}

func run(ctx context.Context, cfg config.Config, parallel int) (err error) {
	m := metrics.New()
	defer func() {
		if perr := m.Push(cfg.Metrics.PushGateway, cfg.Metrics.Job); perr != nil {
			zerolog.Ctx(ctx).Warn().Err(perr).Msg("failed to push metrics")
		}
	}()

	format, err := sink.ParseFormat(cfg.Destination.Format)
	if err != nil {
		return err
	}
	dest, closeSink, err := sink.Open(ctx, cfg.Destination.Root, format)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeSink(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	job := curate.NewJob(newCatalog(cfg), dest,
		curate.WithMetrics(m),
		curate.WithPrefix(cfg.Curate.Prefix),
		curate.WithFilledTotals(cfg.Curate.FillMissingTotals),
		curate.WithWriteConcurrency(parallel),
	)
	return job.Run(ctx)
}

func newCatalog(cfg config.Config) catalog.Catalog {
	if cfg.Catalog.Kind == "file" {
		return filecatalog.New(filecatalog.Config{
			Dir:     cfg.Catalog.Dir,
			Name:    cfg.Catalog.Name,
			Prefix:  cfg.Catalog.Prefix,
			Charset: cfg.Catalog.Charset,
		})
	}
	return sqlcatalog.New(sqlcatalog.Config{
		Name:   cfg.Catalog.Name,
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DataSourceName(),
		Prefix: cfg.Catalog.Prefix,
	})
}
