package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/ratewatch/label"
)

var _ Source = (*FallbackSource)(nil)

// Named binds a Source to the name used in error messages
type Named struct {
	Name string
	Source
}

// FallbackSource asks its sources in order and returns the first successful batch
type FallbackSource struct {
	sources []Named
}

// Fallback returns a Source which tries every source in order. With a single source it is
// just a passthrough
func Fallback(sources ...Named) *FallbackSource {
	list := make([]Named, len(sources))
	copy(list, sources)

	return &FallbackSource{sources: list}
}

func (f *FallbackSource) Fetch(ctx context.Context, symbols []label.Symbol) (Batch, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	var merr *multierror.Error
	for _, s := range f.sources {
		if err := ctx.Err(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%w: %v", ErrNetwork, err))
			break
		}

		batch, err := s.Fetch(ctx, symbols)
		if err == nil {
			return batch, nil
		}

		merr = multierror.Append(merr, fmt.Errorf("%s: %w", s.Name, err))
	}

	if merr == nil {
		return nil, fmt.Errorf("%w: fallback without sources", ErrEmptyResult)
	}

	return nil, merr.ErrorOrNil()
}
