package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robotomize/ratewatch"
	"github.com/robotomize/ratewatch/internal/config"
	"github.com/robotomize/ratewatch/internal/logging"
	"github.com/robotomize/ratewatch/internal/metrics"
	"github.com/robotomize/ratewatch/provider"
	"github.com/robotomize/ratewatch/provider/cae"
	"github.com/robotomize/ratewatch/provider/coindesk"
	"github.com/robotomize/ratewatch/provider/ecb"
	"github.com/robotomize/ratewatch/provider/httputil"
	"github.com/robotomize/ratewatch/provider/rcb"
	"github.com/robotomize/ratewatch/provider/xe"
	"github.com/robotomize/ratewatch/store"
)

const shutdownTimeout = 5 * time.Second

var (
	flagSet = flag.NewFlagSet("ratewatch", flag.ContinueOnError)
	envFile = flagSet.String("env", config.DefaultDotenv, "path to the dotenv file, ignored when missing")
)

func main() {
	ctx := logging.WithLogger(context.Background(), logging.DefaultLogger())
	logger := logging.FromContext(ctx)

	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Usage of %s:\n", flagSet.Name())
		flagSet.PrintDefaults()
		config.Usage(flagSet.Output())
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}

		logger.Fatalf("flag parse: %v", err)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx, cfg); err != nil {
		stop()
		logger.Fatal(err)
	}
}

func realMain(ctx context.Context, cfg *config.Config) error {
	logger := logging.FromContext(ctx)

	client := httputil.DefaultClient()
	prices := store.New()

	opts := []ratewatch.Option{
		ratewatch.WithStore(prices),
		ratewatch.WithInterval(cfg.Interval),
		ratewatch.WithRequestTimeout(cfg.RequestTimeout),
		ratewatch.WithRetryNum(cfg.RetryNum),
		ratewatch.WithRetryDuration(cfg.RetryDuration),
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, ratewatch.WithObserver(metrics.New(reg, prices)))

		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Printf("metrics listening on %s", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("metrics server: %v", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Printf("metrics server shutdown: %v", err)
			}
		}()
	}

	fiat, err := fiatSource(client, cfg.Providers())
	if err != nil {
		return err
	}

	w := ratewatch.New(client, opts...)
	w.Register(ratewatch.TaskFiat, fiat, cfg.Fiat()...)
	w.Register(ratewatch.TaskCrypto, coindesk.NewSource(client), cfg.Crypto()...)

	logger.Printf("polling every %s, fiat via %v", cfg.Interval, cfg.Providers())

	if err := w.Run(ctx, os.Stdout); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}

// fiatSource builds the configured provider, several providers become a fallback chain
func fiatSource(client *http.Client, names []string) (provider.Source, error) {
	sources := make([]provider.Named, 0, len(names))
	for _, name := range names {
		switch name {
		case xe.Name:
			sources = append(sources, provider.Named{Name: name, Source: xe.NewSource(client)})
		case ecb.Name:
			sources = append(sources, provider.Named{Name: name, Source: ecb.NewSource(client)})
		case rcb.Name:
			sources = append(sources, provider.Named{Name: name, Source: rcb.NewSource(client)})
		case cae.Name:
			sources = append(sources, provider.Named{Name: name, Source: cae.NewSource(client)})
		default:
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, name)
		}
	}

	if len(sources) == 1 {
		return sources[0].Source, nil
	}

	return provider.Fallback(sources...), nil
}
