package xe

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
const Name = "xe"

const hostname = "www.xe.com"

var defaultLatestResource = url.URL{Scheme: "https", Host: hostname, Path: "/currencytables/", RawQuery: "from=USD"}

var _ provider.Source = (*source)(nil)

type Option func(*source)

// WithURL points the source at another currency table, mostly for tests and mirrors
func WithURL(u url.URL) Option {
	return func(s *source) {
		s.latestURL = u
	}
}

// NewSource returns the fiat source backed by the xe.com currency table quoted from USD
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

	rates, err := parseHTML(b, wanted)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: none of %v in the table", provider.ErrEmptyResult, symbols)
	}

	fetchedAt := s.now()
	batch := make(provider.Batch, len(rates))
	for _, r := range rates {
		batch[r.symbol] = provider.Price{
			Symbol:    r.symbol,
			Value:     r.price,
			FetchedAt: fetchedAt,
			Source:    Name,
		}
	}

	return batch, nil
}
