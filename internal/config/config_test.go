package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/ratewatch/label"
)

var variables = []string{
	"RATEWATCH_INTERVAL",
	"RATEWATCH_REQUEST_TIMEOUT",
	"RATEWATCH_RETRY_NUM",
	"RATEWATCH_RETRY_DURATION",
	"RATEWATCH_FIAT_SYMBOLS",
	"RATEWATCH_CRYPTO_SYMBOLS",
	"RATEWATCH_FIAT_PROVIDERS",
	"RATEWATCH_METRICS_ADDR",
}

// clearEnv unsets every variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range variables {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	expected := &Config{
		Interval:       time.Second,
		RequestTimeout: 10 * time.Second,
		RetryNum:       0,
		RetryDuration:  200 * time.Millisecond,
		FiatSymbols:    []string{"EUR", "GBP", "CNY", "JPY"},
		CryptoSymbols:  []string{"BTC", "ETH", "XRP", "BCH"},
		FiatProviders:  []string{"xe"},
	}

	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("bad config (-want, +got): %s", diff)
	}

	if diff := cmp.Diff(label.DefaultFiat, cfg.Fiat()); diff != "" {
		t.Errorf("bad fiat (-want, +got): %s", diff)
	}

	if diff := cmp.Diff(label.DefaultCrypto, cfg.Crypto()); diff != "" {
		t.Errorf("bad crypto (-want, +got): %s", diff)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)

	t.Setenv("RATEWATCH_INTERVAL", "500ms")
	t.Setenv("RATEWATCH_REQUEST_TIMEOUT", "3s")
	t.Setenv("RATEWATCH_RETRY_NUM", "2")
	t.Setenv("RATEWATCH_RETRY_DURATION", "50ms")
	t.Setenv("RATEWATCH_FIAT_SYMBOLS", " eur ,usd,EUR")
	t.Setenv("RATEWATCH_CRYPTO_SYMBOLS", "btc")
	t.Setenv("RATEWATCH_FIAT_PROVIDERS", "xe, ECB,rcb , Cae")
	t.Setenv("RATEWATCH_METRICS_ADDR", "127.0.0.1:9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff(500*time.Millisecond, cfg.Interval); diff != "" {
		t.Errorf("bad interval (-want, +got): %s", diff)
	}

	if diff := cmp.Diff(3*time.Second, cfg.RequestTimeout); diff != "" {
		t.Errorf("bad request timeout (-want, +got): %s", diff)
	}

	if diff := cmp.Diff(uint64(2), cfg.RetryNum); diff != "" {
		t.Errorf("bad retry num (-want, +got): %s", diff)
	}

	if diff := cmp.Diff([]label.Symbol{label.EUR, label.USD}, cfg.Fiat()); diff != "" {
		t.Errorf("bad fiat (-want, +got): %s", diff)
	}

	if diff := cmp.Diff([]label.Symbol{label.BTC}, cfg.Crypto()); diff != "" {
		t.Errorf("bad crypto (-want, +got): %s", diff)
	}

	if diff := cmp.Diff([]string{"xe", "ecb", "rcb", "cae"}, cfg.Providers()); diff != "" {
		t.Errorf("bad providers (-want, +got): %s", diff)
	}

	if diff := cmp.Diff("127.0.0.1:9090", cfg.MetricsAddr); diff != "" {
		t.Errorf("bad metrics addr (-want, +got): %s", diff)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("RATEWATCH_INTERVAL", "0s")
	t.Setenv("RATEWATCH_CRYPTO_SYMBOLS", " , ")
	t.Setenv("RATEWATCH_FIAT_PROVIDERS", "xe,bloomberg")

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error")
	}

	for _, want := range []error{ErrNotPositive, ErrNoSymbols, ErrUnknownProvider} {
		if !errors.Is(err, want) {
			t.Errorf("error %v does not wrap %v", err, want)
		}
	}

	if !strings.Contains(err.Error(), "bloomberg") {
		t.Errorf("error must name the provider: %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	clearEnv(t)

	t.Setenv("RATEWATCH_REQUEST_TIMEOUT", "soon")

	if _, err := Load(""); err == nil {
		t.Errorf("expected error for malformed duration")
	}
}

func TestLoad_Dotenv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	content := "RATEWATCH_INTERVAL=2s\nRATEWATCH_CRYPTO_SYMBOLS=eth,xrp\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	t.Setenv("RATEWATCH_CRYPTO_SYMBOLS", "bch")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if diff := cmp.Diff(2*time.Second, cfg.Interval); diff != "" {
		t.Errorf("dotenv value ignored (-want, +got): %s", diff)
	}

	if diff := cmp.Diff([]label.Symbol{label.BCH}, cfg.Crypto()); diff != "" {
		t.Errorf("environment must win over dotenv (-want, +got): %s", diff)
	}
}

func TestLoad_MissingDotenv(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing dotenv must be ignored, got %v", err)
	}
}

func TestUsage(t *testing.T) {
	var sb strings.Builder
	Usage(&sb)

	for _, key := range variables {
		if !strings.Contains(sb.String(), key) {
			t.Errorf("usage does not mention %s", key)
		}
	}
}
