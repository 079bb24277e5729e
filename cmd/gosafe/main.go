// Command gosafe samples a walk-forward window from a price dataset and
// either sweeps the drawdown reversion parameters over it or runs the
// configured parameters once.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/data"
	"github.com/evdnx/gosafe/logger"
	"github.com/evdnx/gosafe/optimize"
	"github.com/evdnx/gosafe/walkforward"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "gosafe:", err)
		os.Exit(1)
	}
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func run(args []string) error {
	fs := flag.NewFlagSet("gosafe", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "YAML configuration file (defaults are used when empty)")
	envPath := fs.String("env", ".env", "optional dotenv file with GOSAFE_* overrides")
	optimizeRun := fs.Bool("optimize", true, "sweep parameters; false runs the configured parameters once")
	seed := fs.Int64("seed", 0, "seed for window sampling and random search")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := loadEnvFile(*envPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Window.Seed, cfg.Search.Seed = *seed, *seed
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error("metrics_server_stopped", logger.Err(err))
			}
		}()
	}

	catalog := data.NewCatalog(cfg.Dataset)
	if err := catalog.Discover(); err != nil {
		return fmt.Errorf("discover dataset: %w", err)
	}
	universe := catalog.Symbols()
	log.Info("dataset_indexed", logger.String("root", cfg.Dataset.Root), logger.Int("instruments", len(universe)))

	sampler, err := walkforward.NewSampler(cfg.Window)
	if err != nil {
		return err
	}
	window, err := sampler.Sample(universe)
	if err != nil {
		return err
	}
	log.Info("trade_window",
		logger.String("from", window.Start.Format(config.DateLayout)),
		logger.String("to", window.End.Format(config.DateLayout)),
		logger.Strings("symbols", window.Symbols),
	)

	verbose := optimize.NewBacktestRunner(catalog, cfg.Broker, cfg.Options, log)
	if !*optimizeRun {
		sum, err := verbose.Run(cfg.Strategy, window)
		if err != nil {
			return err
		}
		log.Info("final_portfolio_value",
			logger.Float64("equity", sum.FinalEquity),
			logger.Float64("cash", sum.FinalCash),
			logger.Float64("total_return", sum.TotalReturn),
		)
		return nil
	}

	source, err := optimize.NewSource(cfg.Search, cfg.Strategy)
	if err != nil {
		return err
	}
	quiet := optimize.NewBacktestRunner(catalog, cfg.Broker, cfg.Options, logger.NewNop())
	opt, err := optimize.NewOptimizer(quiet, source, cfg.Search.TopN, optimize.NewResultLog(cfg.ResultLog), log)
	if err != nil {
		return err
	}
	rep, err := opt.WithConfirmRunner(verbose).Search(window)
	if err != nil {
		return err
	}
	log.Info("search_finished",
		logger.String("run_id", rep.RunID),
		logger.Int("evaluated", rep.Evaluated),
		logger.Float64("best_total_return", rep.Best.TerminalReturn),
		logger.Float64("confirmation_equity", rep.Confirmation.FinalEquity),
		logger.String("duration", rep.Duration.String()),
		logger.String("result_log", cfg.ResultLog),
	)
	return nil
}
