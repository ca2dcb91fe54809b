package ecb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
	"github.com/robotomize/ratewatch/provider/httputil"
)

// Name is the provider name attached to every price
const Name = "ecb"

const hostname = "www.ecb.europa.eu"

const (
	dailyXMLRawPath  = "/stats/eurofxref/eurofxref-daily.xml"
	hist90XMLRawPath = "/stats/eurofxref/eurofxref-hist-90d.xml"
)

var (
	defaultDailyResource  = url.URL{Scheme: "https", Host: hostname, Path: dailyXMLRawPath}
	defaultHist90Resource = url.URL{Scheme: "https", Host: hostname, Path: hist90XMLRawPath}
)

var _ provider.Source = (*source)(nil)

type fetcher struct {
	latestURL url.URL
	decodeFunc
	httputil.SourceHTTPClient
}

type Option func(*source)

// WithURLs replaces the published documents the source races against each other
func WithURLs(urls ...url.URL) Option {
	return func(s *source) {
		fetchers := make([]fetcher, 0, len(urls))
		for _, u := range urls {
			fetchers = append(fetchers, fetcher{
				latestURL:        u,
				decodeFunc:       decodeXML(),
				SourceHTTPClient: s.client,
			})
		}

		s.fetchers = fetchers
	}
}

// NewSource returns a fiat source built on the ECB euro reference rates. Rates are re-based to USD,
// so the source only answers while the ECB publishes a USD rate
func NewSource(client *http.Client, opts ...Option) *source {
	s := &source{
		client: httputil.NewHTTPClient(client),
		now:    time.Now,
	}

	WithURLs(defaultDailyResource, defaultHist90Resource)(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type source struct {
	client   httputil.SourceHTTPClient
	fetchers []fetcher
	now      func() time.Time
}

func (s *source) Fetch(ctx context.Context, symbols []label.Symbol) (provider.Batch, error) {
	wanted, err := provider.NewWanted(symbols)
	if err != nil {
		return nil, err
	}

	b, decode, err := s.fetchingPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching plan: %w", err)
	}

	batch, err := s.decode(b, decode, wanted)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: none of %v in the reference rates", provider.ErrEmptyResult, symbols)
	}

	return batch, nil
}

// fetchingPlan requests every document at once and keeps the first body that arrives
func (s *source) fetchingPlan(ctx context.Context) ([]byte, decodeFunc, error) {
	type fetchingDat struct {
		err error
		b   []byte
		d   decodeFunc
	}

	if len(s.fetchers) == 0 {
		return nil, nil, fmt.Errorf("%w: no documents configured", provider.ErrNetwork)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan fetchingDat, len(s.fetchers))
	for _, fet := range s.fetchers {
		fet := fet
		go func() {
			b, err := fet.Get(ctx, fet.latestURL)
			ch <- fetchingDat{b: b, d: fet.decodeFunc, err: err}
		}()
	}

	var ferr *multierror.Error
	for range s.fetchers {
		dat := <-ch
		if dat.err == nil {
			return dat.b, dat.d, nil
		}

		ferr = multierror.Append(ferr, dat.err)
	}

	return nil, nil, ferr.ErrorOrNil()
}

// decode keeps the most recent publication day and converts euro rates to USD prices:
// price(S) = rate(USD) / rate(S)
func (s *source) decode(b []byte, decode decodeFunc, wanted provider.Wanted) (provider.Batch, error) {
	var latest euroDailyRates
	if err := decode(b, func(r euroDailyRates) error {
		if latest.rates == nil || r.time.After(latest.time) {
			latest = r
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, err)
	}

	if latest.rates == nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, errNoReferenceRates)
	}

	usd, ok := latest.rates[label.USD]
	if !ok {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, errUSDRateMissing)
	}

	latest.rates[label.EUR] = 1

	fetchedAt := s.now()
	batch := make(provider.Batch)
	for symbol, rate := range latest.rates {
		if !wanted.Has(symbol) {
			continue
		}

		batch[symbol] = provider.Price{
			Symbol:    symbol,
			Value:     usd / rate,
			FetchedAt: fetchedAt,
			Source:    Name,
		}
	}

	return batch, nil
}
