package cae

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
const Name = "cae"

const (
	hostname   = "www.centralbank.ae"
	dateQuery  = "date_req"
	dateFormat = "02/01/2006"
)

var defaultLatestResource = url.URL{Scheme: "https", Host: hostname, Path: "/en/fx-rates"}

var _ provider.Source = (*source)(nil)

type Option func(*source)

// WithURL replaces the fx-rates page address
func WithURL(u url.URL) Option {
	return func(s *source) {
		s.latestURL = u
	}
}

// NewSource returns a fiat source built on the UAE central bank fx-rates page.
// Dirham rates are re-based to USD, AED itself is priced too
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

	u := s.latestURL
	query := u.Query()
	query.Set(dateQuery, s.now().UTC().Format(dateFormat))
	u.RawQuery = query.Encode()

	b, err := s.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	batch, err := s.decode(b, wanted)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: none of %v on the fx-rates page", provider.ErrEmptyResult, symbols)
	}

	return batch, nil
}

// decode converts dirham rates to USD prices: price(S) = aed(S) / aed(USD)
func (s *source) decode(b []byte, wanted provider.Wanted) (provider.Batch, error) {
	daily, err := parseHTML(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, err)
	}

	usd, ok := daily.rates[label.USD]
	if !ok {
		return nil, fmt.Errorf("%w: %w", provider.ErrParse, errUSDRateMissing)
	}

	daily.rates[label.AED] = 1

	fetchedAt := s.now()
	batch := make(provider.Batch)
	for symbol, aed := range daily.rates {
		if !wanted.Has(symbol) {
			continue
		}

		batch[symbol] = provider.Price{
			Symbol:    symbol,
			Value:     aed / usd,
			FetchedAt: fetchedAt,
			Source:    Name,
		}
	}

	return batch, nil
}
