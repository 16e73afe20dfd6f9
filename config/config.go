// Package config loads the tracker configuration file.
//
// A configuration is a YAML document:
//
//	currency: EUR
//	by_account: false
//	averaging: full
//	ledger:
//	  driver: jsonl
//	  path: trades.jsonl
//	quotes:
//	  provider: tradegate
//	  timeout: 10s
//	  rate: 2
//	  burst: 4
//	  isin:
//	    AAPL: US0378331005
//	refresh: 60s
//	listen: ":9090"
//
// Every field is optional, a missing file is the default configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/etnz/tracker"
	"github.com/etnz/tracker/quote"
	"github.com/etnz/tracker/store"
	"gopkg.in/yaml.v3"
)

// Quote providers.
const (
	ProviderTradegate = "tradegate"
	ProviderEODHD     = "eodhd"
	ProviderStatic    = "static"
)

// Config is the tracker configuration.
type Config struct {
	Currency  string        `yaml:"currency"`
	ByAccount bool          `yaml:"by_account"`
	Averaging string        `yaml:"averaging"`
	Ledger    LedgerConfig  `yaml:"ledger"`
	Quotes    QuotesConfig  `yaml:"quotes"`
	Refresh   time.Duration `yaml:"refresh"`
	// Listen is the watch mode HTTP address, disabled if empty.
	Listen string `yaml:"listen"`
}

// LedgerConfig selects the ledger store.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// QuotesConfig selects and tunes the quote provider.
type QuotesConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	// Rate is the number of quote requests per second, unlimited if zero.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	// CacheDir holds the daily search cache, the user cache dir if empty.
	CacheDir string             `yaml:"cache_dir"`
	ISIN     map[string]string  `yaml:"isin"`
	Static   map[string]float64 `yaml:"static"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Currency:  "USD",
		Averaging: tracker.FullHistory.String(),
		Ledger: LedgerConfig{
			Driver: store.DriverJSONL,
			Path:   "trades.jsonl",
		},
		Quotes: QuotesConfig{
			Provider: ProviderTradegate,
			Timeout:  tracker.DefaultQuoteTimeout,
			Rate:     2,
			Burst:    4,
		},
		Refresh: 60 * time.Second,
	}
}

// Load reads the configuration file at path. A missing file returns the
// default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	cfg, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromBytes parses a YAML configuration over the defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if cfg.Quotes.APIKey == "" {
		cfg.Quotes.APIKey = os.Getenv(quote.EODHDKeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if err := tracker.ValidateCurrency(c.Currency); err != nil {
		errs = append(errs, err)
	}
	switch c.Ledger.Driver {
	case store.DriverJSONL, store.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver))
	}
	if c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger path is required"))
	}
	if _, err := tracker.ParseAveraging(c.Averaging); err != nil {
		errs = append(errs, err)
	}
	switch c.Quotes.Provider {
	case ProviderTradegate, ProviderStatic:
	case ProviderEODHD:
		if c.Quotes.APIKey == "" {
			errs = append(errs, fmt.Errorf("eodhd provider requires quotes.api_key or $%s", quote.EODHDKeyEnv))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown quote provider %q", c.Quotes.Provider))
	}
	if c.Quotes.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("quotes.timeout must be positive, got %v", c.Quotes.Timeout))
	}
	if c.Quotes.Rate < 0 {
		errs = append(errs, fmt.Errorf("quotes.rate must not be negative, got %v", c.Quotes.Rate))
	}
	if c.Quotes.Rate > 0 && c.Quotes.Burst < 1 {
		errs = append(errs, fmt.Errorf("quotes.burst must be at least 1, got %d", c.Quotes.Burst))
	}
	if c.Refresh <= 0 {
		errs = append(errs, fmt.Errorf("refresh must be positive, got %v", c.Refresh))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Options returns the evaluation options. The configuration must be valid.
func (c *Config) Options() tracker.Options {
	averaging, _ := tracker.ParseAveraging(c.Averaging)
	grouping := tracker.BySymbol
	if c.ByAccount {
		grouping = tracker.BySymbolAndAccount
	}
	return tracker.Options{
		Currency:     c.Currency,
		Grouping:     grouping,
		Averaging:    averaging,
		QuoteTimeout: c.Quotes.Timeout,
	}
}

// OpenLedger opens the configured ledger store.
func (c *Config) OpenLedger() (store.Store, error) {
	return store.Open(c.Ledger.Driver, c.Ledger.Path)
}

// QuoteProvider builds the configured quote provider, rate limited when a
// rate is set.
func (c *Config) QuoteProvider() tracker.QuoteProvider {
	var p tracker.QuoteProvider
	switch c.Quotes.Provider {
	case ProviderEODHD:
		e := quote.NewEODHD(c.Quotes.APIKey)
		e.CacheDir = c.Quotes.CacheDir
		p = e
	case ProviderStatic:
		p = quote.NewStatic(c.Quotes.Static)
	default:
		isin := make(map[string]string, len(c.Quotes.ISIN))
		for symbol, id := range c.Quotes.ISIN {
			isin[tracker.NormalizeSymbol(symbol)] = id
		}
		p = &quote.Tradegate{ISIN: isin}
	}
	if c.Quotes.Rate > 0 {
		p = quote.NewLimited(p, c.Quotes.Rate, c.Quotes.Burst)
	}
	return p
}

// SymbolSearcher builds the searcher matching the quote provider.
// Tradegate has no search endpoint, EODHD is used when an API key exists.
func (c *Config) SymbolSearcher() tracker.SymbolSearcher {
	switch {
	case c.Quotes.Provider == ProviderStatic:
		return quote.NewStatic(c.Quotes.Static)
	case c.Quotes.APIKey != "":
		e := quote.NewEODHD(c.Quotes.APIKey)
		e.CacheDir = c.Quotes.CacheDir
		return e
	default:
		return nil
	}
}
