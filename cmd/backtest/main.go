package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/stratlab/backtest-go/internal/backtest"
	"github.com/stratlab/backtest-go/internal/config"
	"github.com/stratlab/backtest-go/internal/datasource"
	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/internal/store"
	"github.com/stratlab/backtest-go/internal/strategy"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(cmd.String("config"), log)
	if err != nil {
		return err
	}

	// Flags override the file where given.
	if s := cmd.String("strategy"); s != "" {
		cfg.Strategy = s
	}
	if symbols := cmd.StringSlice("symbol"); len(symbols) > 0 {
		cfg.Symbols = symbols
	}
	if out := cmd.String("output"); out != "" {
		cfg.OutputDir = out
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry := strategy.NewRegistry()

	provider, closeProvider, err := buildProvider(cmd, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	resultStore, err := store.NewResultStore(log)
	if err != nil {
		return err
	}
	defer resultStore.Close()

	runAll := cmd.Bool("all")
	strategies := []string{cfg.Strategy}
	if runAll {
		strategies = registry.Names()
	}

	for _, name := range strategies {
		runCfg := cfg
		runCfg.Strategy = name
		// Params from the file only fit the configured strategy; the
		// others run on their defaults.
		if runAll && name != cfg.Strategy {
			runCfg.StrategyParams = nil
		}

		engine := backtest.NewEngine(runCfg, registry, provider, log)

		bar := progressbar.Default(1)
		bar.Describe(fmt.Sprintf("Running %s", name))
		engine.SetProgressCallback(func(current, total int) {
			bar.ChangeMax(total)
			bar.Set(current)
		})

		result, err := engine.Run()
		if err != nil {
			return err
		}
		bar.Finish()

		if err := resultStore.Save(result); err != nil {
			return err
		}

		outDir := cfg.OutputDir
		if runAll {
			outDir = filepath.Join(cfg.OutputDir, name)
		}
		if err := resultStore.Export(result.ID, outDir); err != nil {
			return err
		}

		summary := result.Summarize()
		fmt.Printf("\n%s: return %.2f%%, sharpe %.2f, max drawdown %.2f%%, win rate %.0f%%, %d trades\n",
			name, summary.TotalReturn*100, summary.SharpeRatio,
			summary.MaxDrawdown*100, summary.WinRate*100, summary.TradeCount)
	}

	if runAll {
		ranked, err := resultStore.RankedRuns()
		if err != nil {
			return err
		}

		fmt.Println("\nRanked by total return:")
		for i, run := range ranked {
			fmt.Printf("%2d. %-16s %8.2f%%  sharpe %6.2f  drawdown %7.2f%%  win %5.1f%%\n",
				i+1, run.Strategy, run.TotalReturn*100, run.SharpeRatio,
				run.MaxDrawdown*100, run.WinRate*100)
		}
	}

	log.Info("all runs complete", zap.Int("runs", len(strategies)))

	return nil
}

// buildProvider assembles the bar provider: CSV files under the data
// directory, optionally fronted by a SQLite read-through cache.
func buildProvider(cmd *cli.Command, log *logger.Logger) (datasource.BarProvider, func(), error) {
	csvProvider := datasource.NewCSVProvider(cmd.String("data"), log)

	cachePath := cmd.String("cache")
	if cachePath == "" {
		return csvProvider, func() {}, nil
	}

	cache, err := datasource.NewSQLiteCache(cachePath, csvProvider, log)
	if err != nil {
		return nil, nil, err
	}

	return cache, func() { cache.Close() }, nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.DefaultConfig()

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run deterministic strategy backtests over historical bar data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Directory holding per-symbol CSV bar files",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Optional SQLite bar cache path",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for run artifacts",
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy to run, overriding the config file",
			},
			&cli.StringSliceFlag{
				Name:  "symbol",
				Usage: "Symbols to simulate, overriding the config file",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Run every registered strategy and print a ranked comparison",
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
