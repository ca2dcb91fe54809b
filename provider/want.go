package provider

import "github.com/robotomize/ratewatch/label"

// Wanted indexes the requested symbols. Sources use it to keep only what was asked for
type Wanted map[label.Symbol]struct{}

// NewWanted builds the index, normalizing every symbol
func NewWanted(symbols []label.Symbol) (Wanted, error) {
	w := make(Wanted, len(symbols))
	for _, s := range symbols {
		if sym := label.Normalize(string(s)); sym != "" {
			w[sym] = struct{}{}
		}
	}

	if len(w) == 0 {
		return nil, ErrNoSymbols
	}

	return w, nil
}

// Has reports whether sym was requested
func (w Wanted) Has(sym label.Symbol) bool {
	_, ok := w[sym]
	return ok
}
