// Package config reads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider/cae"
	"github.com/robotomize/ratewatch/provider/ecb"
	"github.com/robotomize/ratewatch/provider/rcb"
	"github.com/robotomize/ratewatch/provider/xe"
)

var (
	ErrNotPositive     = errors.New("must be positive")
	ErrNoSymbols       = errors.New("no valid symbols")
	ErrNoProviders     = errors.New("no providers")
	ErrUnknownProvider = errors.New("unknown provider")
)

// DefaultDotenv is read before the environment when present
const DefaultDotenv = ".env"

type Config struct {
	Interval       time.Duration `env:"RATEWATCH_INTERVAL" env-default:"1s" env-description:"fetch and display refresh interval"`
	RequestTimeout time.Duration `env:"RATEWATCH_REQUEST_TIMEOUT" env-default:"10s" env-description:"ceiling for a single fetch, retries included"`
	RetryNum       uint64        `env:"RATEWATCH_RETRY_NUM" env-default:"0" env-description:"extra attempts per tick on network errors"`
	RetryDuration  time.Duration `env:"RATEWATCH_RETRY_DURATION" env-default:"200ms" env-description:"pause between attempts"`
	FiatSymbols    []string      `env:"RATEWATCH_FIAT_SYMBOLS" env-default:"EUR,GBP,CNY,JPY" env-separator:"," env-description:"fiat symbols"`
	CryptoSymbols  []string      `env:"RATEWATCH_CRYPTO_SYMBOLS" env-default:"BTC,ETH,XRP,BCH" env-separator:"," env-description:"crypto symbols"`
	FiatProviders  []string      `env:"RATEWATCH_FIAT_PROVIDERS" env-default:"xe" env-separator:"," env-description:"ordered fiat providers: xe, ecb, rcb, cae"`
	MetricsAddr    string        `env:"RATEWATCH_METRICS_ADDR" env-description:"prometheus listen address, disabled when empty"`
}

// Load reads the dotenv file if it exists, then the environment. Variables already set in the
// environment win over the dotenv file
func Load(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	return &cfg, nil
}

// Validate reports every invalid value at once
func (c *Config) Validate() error {
	var merr *multierror.Error

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{name: "RATEWATCH_INTERVAL", value: c.Interval},
		{name: "RATEWATCH_REQUEST_TIMEOUT", value: c.RequestTimeout},
		{name: "RATEWATCH_RETRY_DURATION", value: c.RetryDuration},
	} {
		if d.value <= 0 {
			merr = multierror.Append(merr, fmt.Errorf("%s %w: %s", d.name, ErrNotPositive, d.value))
		}
	}

	if len(c.Fiat()) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("RATEWATCH_FIAT_SYMBOLS: %w", ErrNoSymbols))
	}

	if len(c.Crypto()) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("RATEWATCH_CRYPTO_SYMBOLS: %w", ErrNoSymbols))
	}

	providers := c.Providers()
	if len(providers) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("RATEWATCH_FIAT_PROVIDERS: %w", ErrNoProviders))
	}

	for _, name := range providers {
		switch name {
		case xe.Name, ecb.Name, rcb.Name, cae.Name:
		default:
			merr = multierror.Append(merr, fmt.Errorf("RATEWATCH_FIAT_PROVIDERS: %w: %q", ErrUnknownProvider, name))
		}
	}

	if merr != nil {
		merr.ErrorFormat = listFormat
	}

	return merr.ErrorOrNil()
}

// Fiat returns normalized, de-duplicated fiat symbols
func (c *Config) Fiat() []label.Symbol {
	return label.Parse(c.FiatSymbols...)
}

// Crypto returns normalized, de-duplicated crypto symbols
func (c *Config) Crypto() []label.Symbol {
	return label.Parse(c.CryptoSymbols...)
}

// Providers returns lower-cased provider names in the configured order
func (c *Config) Providers() []string {
	list := make([]string, 0, len(c.FiatProviders))
	for _, p := range c.FiatProviders {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			list = append(list, p)
		}
	}

	return list
}

// Usage writes the list of supported variables
func Usage(w io.Writer) {
	var cfg Config
	header := "Environment variables:"
	cleanenv.FUsage(w, &cfg, &header)()
}

func listFormat(errs []error) string {
	list := make([]string, len(errs))
	for i, err := range errs {
		list[i] = err.Error()
	}

	return strings.Join(list, "; ")
}
