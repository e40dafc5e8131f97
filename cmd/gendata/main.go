package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pizzachain/curator/pkg/config"
	"github.com/pizzachain/curator/pkg/gen"
	"github.com/pizzachain/curator/pkg/logging"
)

var (
	version = "0.1.0-dev"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "", "Path to config file (.json, .yaml, .toml)")
	dir := flag.String("out", "", "Override output directory")
	seed := flag.Int64("seed", -1, "Override random seed")
	flag.Parse()

	if *showVersion {
		fmt.Println("gendata", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *dir != "" {
		cfg.Generate.Dir = *dir
	}
	if *seed >= 0 {
		cfg.Generate.Seed = *seed
	}
	if err := cfg.Validate(config.CmdGen); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx := logger.WithContext(context.Background())

	if err := generate(ctx, cfg.Generate); err != nil {
		logger.Error().Err(err).Msg("generation failed")
		os.Exit(1)
	}
	logger.Info().Str("dir", cfg.Generate.Dir).Msg("done")
}

// generate writes the synthetic dataset described by g to g.Dir.
func generate(ctx context.Context, g config.Generate) error {
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
	return gen.WriteDir(ctx, g.Dir, d)
}
