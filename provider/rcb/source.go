package rcb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
	"github.com/robotomize/ratewatch/provider/httputil"
)

// Name is the provider name attached to every price
const Name = "rcb"

const hostname = "www.cbr.ru"

var defaultLatestResource = url.URL{Scheme: "https", Host: hostname, Path: "/scripts/XML_daily.asp"}

var _ provider.Source = (*source)(nil)

type Option func(*source)

// WithURL replaces the daily document address
func WithURL(u url.URL) Option {
	return func(s *source) {
		s.latestURL = u
	}
}

// NewSource returns a fiat source built on the Russian central bank daily rates. Rates are
// re-based from roubles to USD, RUB itself is priced too
func NewSource(client *http.Client, opts ...Option) *source {
	s := &source{
		latestURL:        defaultLatestResource,
		SourceHTTPClient: httputil.NewHTTPClient(client),
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type source struct {
	latestURL url.URL
	httputil.SourceHTTPClient
	now func() time.Time
}

func (s *source) Fetch(ctx context.Context, symbols []label.Symbol) (provider.Batch, error) {
	wanted, err := provider.NewWanted(symbols)
	if err != nil {
		return nil, err
	}

	b, err := s.Get(ctx, s.latestURL)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	batch, err := s.decode(b, wanted)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: none of %v in the daily rates", provider.ErrEmptyResult, symbols)
	}

	return batch, nil
}

// decode converts rouble rates to USD prices: price(S) = rub(S) / rub(USD)
func (s *source) decode(b []byte, wanted provider.Wanted) (provider.Batch, error) {
	daily, err := decodeXML(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, err)
	}

	if len(daily.rates) == 0 {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, errNoReferenceRates)
	}

	usd, ok := daily.rates[label.USD]
	if !ok {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, errUSDRateMissing)
	}

	daily.rates[label.RUB] = 1

	fetchedAt := s.now()
	batch := make(provider.Batch)
	for symbol, rub := range daily.rates {
		if !wanted.Has(symbol) {
			continue
		}

		batch[symbol] = provider.Price{
			Symbol:    symbol,
			Value:     rub / usd,
			FetchedAt: fetchedAt,
			Source:    Name,
		}
	}

	return batch, nil
}
