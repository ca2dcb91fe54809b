package coindesk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
	"github.com/robotomize/ratewatch/provider/httputil"
)

// Name is the provider name attached to every price
const Name = "coindesk"

const hostname = "production.api.coindesk.com"

var defaultTickerResource = url.URL{Scheme: "https", Host: hostname, Path: "/v1/currency/ticker"}

var _ provider.Source = (*source)(nil)

type Option func(*source)

// WithURL replaces the ticker endpoint, the currencies query parameter is still added per request
func WithURL(u url.URL) Option {
	return func(s *source) {
		s.tickerURL = u
	}
}

// NewSource returns the crypto source backed by the CoinDesk ticker API
func NewSource(client *http.Client, opts ...Option) *source {
	s := &source{
		tickerURL:        defaultTickerResource,
		SourceHTTPClient: httputil.NewHTTPClient(client),
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type source struct {
	tickerURL url.URL
	httputil.SourceHTTPClient
	now func() time.Time
}

func (s *source) Fetch(ctx context.Context, symbols []label.Symbol) (provider.Batch, error) {
	wanted, err := provider.NewWanted(symbols)
	if err != nil {
		return nil, err
	}

	u := s.tickerURL
	query := u.Query()
	query.Set("currencies", strings.Join(label.Strings(label.Parse(label.Strings(symbols)...)), ","))
	u.RawQuery = query.Encode()

	b, err := s.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching: %w", err)
	}

	quotes, err := decodeTicker(b, wanted)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: none of %v in the ticker", provider.ErrEmptyResult, symbols)
	}

	fetchedAt := s.now()
	batch := make(provider.Batch, len(quotes))
	for _, q := range quotes {
		batch[q.symbol] = provider.Price{
			Symbol:    q.symbol,
			Value:     q.price,
			FetchedAt: fetchedAt,
			Source:    Name,
		}
	}

	return batch, nil
}
