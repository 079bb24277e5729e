package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of every date in the YAML configuration.
const DateLayout = "2006-01-02"

// Dataset locates the historical price files.
type Dataset struct {
	Root string `yaml:"root"`
	// Alternates are searched in order when a file is missing under Root.
	Alternates []string `yaml:"alternates"`
}

// Window configures the walk-forward sampler.
type Window struct {
	From              string `yaml:"from"`
	To                string `yaml:"to"`
	TradeIntervalDays int    `yaml:"trade_interval_days"`
	InstrumentCount   int    `yaml:"instrument_count"`
	Seed              int64  `yaml:"seed"`
}

// Bounds parses From and To.
func (w Window) Bounds() (time.Time, time.Time, error) {
	from, err := time.Parse(DateLayout, w.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: window.from: %v", ErrInvalidConfiguration, err)
	}
	to, err := time.Parse(DateLayout, w.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: window.to: %v", ErrInvalidConfiguration, err)
	}
	return from, to, nil
}

// TradeInterval returns the window duration.
func (w Window) TradeInterval() time.Duration {
	return time.Duration(w.TradeIntervalDays) * 24 * time.Hour
}

// Broker configures the paper execution engine.
type Broker struct {
	StartCash  float64 `yaml:"start_cash"`
	Commission float64 `yaml:"commission"`
}

// Grid holds one axis per searched parameter.
type Grid struct {
	BuyAfterDecreasePercents Axis `yaml:"buy_after_decrease_percents"`
	SellAfterProfitPercents  Axis `yaml:"sell_after_profit_percents"`
	ReBuyPercents            Axis `yaml:"re_buy_percents"`
	BuySize                  Axis `yaml:"buy_size"`
	ReBuySize                Axis `yaml:"re_buy_size"`
}

// SearchMode selects the candidate generator.
type SearchMode string

const (
	SearchGrid   SearchMode = "grid"
	SearchRandom SearchMode = "random"
)

// Search configures the parameter sweep.
type Search struct {
	Mode     SearchMode `yaml:"mode"`
	Grid     Grid       `yaml:"grid"`
	MaxTries int        `yaml:"max_tries"`
	Seed     int64      `yaml:"seed"`
	TopN     int        `yaml:"top_n"`
}

// Log configures the process logger.
type Log struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	Dataset     Dataset            `yaml:"dataset"`
	Window      Window             `yaml:"window"`
	Broker      Broker             `yaml:"broker"`
	Strategy    StrategyParameters `yaml:"strategy"`
	Options     StrategyOptions    `yaml:"options"`
	Search      Search             `yaml:"search"`
	ResultLog   string             `yaml:"result_log"`
	MetricsAddr string             `yaml:"metrics_addr"`
	Log         Log                `yaml:"log"`
}

// Default reproduces the historical research setup.
func Default() Config {
	return Config{
		Dataset: Dataset{Root: "stock_market_data"},
		Window: Window{
			From:              "2010-01-01",
			To:                "2021-12-01",
			TradeIntervalDays: 365 * 3,
			InstrumentCount:   8,
		},
		Broker:   Broker{StartCash: 10_000, Commission: 0.005},
		Strategy: DefaultParameters(),
		Options:  DefaultOptions(),
		Search: Search{
			Mode: SearchGrid,
			Grid: Grid{
				BuyAfterDecreasePercents: Range(10, 100, 20),
				SellAfterProfitPercents:  Range(10, 200, 20),
				ReBuyPercents:            Range(5, 100, 15),
				BuySize:                  Linspace(0.01, 0.5, 10),
				ReBuySize:                Linspace(0.5, 3, 5),
			},
			MaxTries: 500,
			TopN:     20,
		},
		ResultLog: "result.txt",
		Log:       Log{Level: "info", Encoding: "console"},
	}
}

// Validate returns the first configuration problem found.
func (c *Config) Validate() error {
	if c.Dataset.Root == "" {
		return fmt.Errorf("%w: dataset.root is required", ErrInvalidConfiguration)
	}
	from, to, err := c.Window.Bounds()
	if err != nil {
		return err
	}
	if !to.After(from) {
		return fmt.Errorf("%w: window.to must be after window.from", ErrInvalidConfiguration)
	}
	if c.Window.TradeIntervalDays <= 0 {
		return fmt.Errorf("%w: window.trade_interval_days must be positive", ErrInvalidConfiguration)
	}
	if c.Window.InstrumentCount <= 0 {
		return fmt.Errorf("%w: window.instrument_count must be positive", ErrInvalidConfiguration)
	}
	if c.Broker.StartCash <= 0 {
		return fmt.Errorf("%w: broker.start_cash must be positive", ErrInvalidConfiguration)
	}
	if c.Broker.Commission < 0 || c.Broker.Commission >= 1 {
		return fmt.Errorf("%w: broker.commission (%f) must be in [0, 1)", ErrInvalidConfiguration, c.Broker.Commission)
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Options.Validate(); err != nil {
		return err
	}
	switch c.Search.Mode {
	case SearchGrid:
	case SearchRandom:
		if c.Search.MaxTries <= 0 {
			return fmt.Errorf("%w: search.max_tries must be positive in random mode", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown search mode %q", ErrInvalidConfiguration, c.Search.Mode)
	}
	if c.Search.TopN <= 0 {
		return fmt.Errorf("%w: search.top_n must be positive", ErrInvalidConfiguration)
	}
	if c.ResultLog == "" {
		return errors.New("result_log path is required")
	}
	return nil
}

// Load reads a YAML file from disk on top of Default().
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides selected fields from GOSAFE_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GOSAFE_DATASET_ROOT"); ok && v != "" {
		c.Dataset.Root = v
	}
	if v, ok := lookup("GOSAFE_RESULT_LOG"); ok && v != "" {
		c.ResultLog = v
	}
	if v, ok := lookup("GOSAFE_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("GOSAFE_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := lookup("GOSAFE_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GOSAFE_SEED: %w", err)
		}
		c.Window.Seed = seed
		c.Search.Seed = seed
	}
	if v, ok := lookup("GOSAFE_INSTRUMENT_COUNT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOSAFE_INSTRUMENT_COUNT: %w", err)
		}
		c.Window.InstrumentCount = n
	}
	return nil
}
