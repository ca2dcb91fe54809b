package provider

import (
	"context"
	"errors"
	"time"

	"github.com/robotomize/ratewatch/label"
)

var (
	// ErrNetwork reports transport failures, timeouts and non-200 responses
	ErrNetwork = errors.New("network error")
	// ErrParse reports a response that could not be decoded into the expected shape
	ErrParse = errors.New("parse error")
	// ErrEmptyResult reports a well-formed response without any of the requested symbols
	ErrEmptyResult = errors.New("empty result")
	// ErrNoSymbols is returned when Fetch is called without symbols
	ErrNoSymbols = errors.New("no symbols requested")
)

// Source is an interface for getting USD prices from an external provider. Source takes care of
// a single round trip and of decoding the provider format, it never touches shared state
//
//go:generate mockgen -source source.go -destination mock_source.go -package provider
type Source interface {
	// Fetch returns prices for the requested symbols the provider knows about. Symbols the
	// provider does not return are omitted, that is not an error
	Fetch(ctx context.Context, symbols []label.Symbol) (Batch, error)
}

// Price is the USD price of one symbol at the moment it was fetched
type Price struct {
	Symbol    label.Symbol
	Value     float64
	FetchedAt time.Time
	Source    string
}

// Batch is the result of one successful fetch
type Batch map[label.Symbol]Price

// Symbols returns batch keys in no particular order
func (b Batch) Symbols() []label.Symbol {
	list := make([]label.Symbol, 0, len(b))
	for sym := range b {
		list = append(list, sym)
	}

	return list
}

// Kind classifies err into one of the fetch error kinds, "unknown" otherwise
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrNoSymbols):
		return "no_symbols"
	default:
		return "unknown"
	}
}
