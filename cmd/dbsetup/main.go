package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pizzachain/curator/pkg/config"
	"github.com/pizzachain/curator/pkg/dbsetup"
	"github.com/pizzachain/curator/pkg/gen"
	"github.com/pizzachain/curator/pkg/logging"
)

var (
	version = "0.1.0-dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to config file (.json, .yaml, .toml)")
	generate := flag.Bool("generate", false, "Generate sample data into the data dir first")
	dataDir := flag.String("data", "", "Override directory holding the CSV files")
	flag.Parse()

	if *showVersion {
		fmt.Println("dbsetup", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *dataDir != "" {
		cfg.Setup.DataDir = *dataDir
	}
	if err := cfg.Validate(config.CmdDBSetup); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx := logger.WithContext(context.Background())

	if err := run(ctx, cfg, *generate); err != nil {
		logger.Error().Err(err).Msg("database setup failed")
		os.Exit(1)
	}
	logger.Info().Msg("database setup completed")
}

func run(ctx context.Context, cfg config.Config, generate bool) error {
	if generate {
		g := cfg.Generate
		d, err := gen.Generate(gen.Config{
			Seed:        uint64(g.Seed),
			Orders:      g.Orders,
			Customers:   g.Customers,
			Stores:      g.Stores,
			MaxItems:    g.MaxItems,
			DaysHistory: g.DaysHistory,
		})
		if err != nil {
			return err
		}
		if err := gen.WriteDir(ctx, cfg.Setup.DataDir, d); err != nil {
			return err
		}
	}

	dsn := cfg.Database.DataSourceName()
	if cfg.Database.Driver == "mysql" {
		if err := dbsetup.CreateDatabase(ctx, dsn); err != nil {
			return err
		}
	}
	s, err := dbsetup.Open(ctx, cfg.Database.Driver, dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Bootstrap(ctx); err != nil {
		return err
	}
	failed := 0
	for _, r := range s.LoadDir(ctx, cfg.Setup.DataDir, cfg.Setup.BatchSize) {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		zerolog.Ctx(ctx).Warn().Int("tables", failed).Msg("some tables failed to load")
	}
	rep, err := s.Validate(ctx)
	if err != nil {
		return err
	}
	rep.Log(ctx)
	return nil
}
