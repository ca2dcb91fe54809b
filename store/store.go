// Package store keeps the latest known USD price per symbol. It is the only state shared between
// the fetch tasks and the display.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
)

// Store is a concurrency-safe symbol to price table. The zero value is ready to use
type Store struct {
	mtx       sync.RWMutex
	items     map[label.Symbol]provider.Price
	updatedAt time.Time
	now       func() time.Time
}

// New returns an empty store
func New() *Store {
	return &Store{
		items: make(map[label.Symbol]provider.Price),
		now:   time.Now,
	}
}

// Upsert merges the whole batch under one write lock, so readers see either none or all of it.
// Entries are keyed by the normalized symbol; existing symbols missing from the batch stay as they are.
// When several batch keys normalize to one symbol, a key already in normal form wins, otherwise the
// smallest raw key does
func (s *Store) Upsert(batch provider.Batch) {
	if len(batch) == 0 {
		return
	}

	normalized := make(map[label.Symbol]provider.Price, len(batch))
	chosen := make(map[label.Symbol]label.Symbol, len(batch))
	for key, p := range batch {
		sym := label.Normalize(string(key))
		if sym == "" {
			continue
		}

		if prev, ok := chosen[sym]; ok && !preferKey(key, prev, sym) {
			continue
		}

		chosen[sym] = key
		p.Symbol = sym
		normalized[sym] = p
	}

	if len(normalized) == 0 {
		return
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.items == nil {
		s.items = make(map[label.Symbol]provider.Price, len(normalized))
	}

	for sym, p := range normalized {
		s.items[sym] = p
	}

	if s.now != nil {
		s.updatedAt = s.now()
	} else {
		s.updatedAt = time.Now()
	}
}

// preferKey reports whether key should replace prev as the source of sym
func preferKey(key, prev, sym label.Symbol) bool {
	switch {
	case prev == sym:
		return false
	case key == sym:
		return true
	default:
		return key < prev
	}
}

// Snapshot returns a copy of every known price sorted by symbol. Sorting happens after the read
// lock is released
func (s *Store) Snapshot() []provider.Price {
	s.mtx.RLock()
	list := make([]provider.Price, 0, len(s.items))
	for _, p := range s.items {
		list = append(list, p)
	}
	s.mtx.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Symbol < list[j].Symbol
	})

	return list
}

// Get returns the latest price of one symbol
func (s *Store) Get(symbol label.Symbol) (provider.Price, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.items[label.Normalize(string(symbol))]
	return p, ok
}

// Len returns the number of known symbols
func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return len(s.items)
}

// UpdatedAt returns the time of the last applied upsert, zero while the store is empty
func (s *Store) UpdatedAt() time.Time {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.updatedAt
}
