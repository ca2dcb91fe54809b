// Package ratewatch polls fiat and crypto USD prices on a fixed interval and renders them as a
// single refreshed terminal line.
//
//	w := ratewatch.New(http.DefaultClient)
//	if err := w.Run(ctx, os.Stdout); err != nil {
//		log.Fatal(err)
//	}
package ratewatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/ratewatch/display"
	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
	"github.com/robotomize/ratewatch/provider/coindesk"
	"github.com/robotomize/ratewatch/provider/xe"
	"github.com/robotomize/ratewatch/scheduler"
	"github.com/robotomize/ratewatch/store"
)

const (
	DefaultInterval       = time.Second
	DefaultRequestTimeout = scheduler.DefaultRequestTimeout
	DefaultRetryNum       = scheduler.DefaultRetryNum
	DefaultRetryDuration  = scheduler.DefaultRetryDuration
)

const (
	// TaskFiat polls fiat currencies from xe.com
	TaskFiat = "fiat"
	// TaskCrypto polls crypto currencies from coindesk
	TaskCrypto = "crypto"
)

type Option func(*Watcher)

type Options struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	RetryNum       uint64
	RetryDuration  time.Duration
}

// WithInterval set the fetch and display refresh interval
func WithInterval(t time.Duration) Option {
	return func(w *Watcher) {
		w.opts.Interval = t
	}
}

// WithRequestTimeout set a timeout for source requests
func WithRequestTimeout(t time.Duration) Option {
	return func(w *Watcher) {
		w.opts.RequestTimeout = t
	}
}

// WithRetryNum set number of repeated requests for network errors within one tick
func WithRetryNum(n uint64) Option {
	return func(w *Watcher) {
		w.opts.RetryNum = n
	}
}

// WithRetryDuration constant retry backoff
func WithRetryDuration(t time.Duration) Option {
	return func(w *Watcher) {
		w.opts.RetryDuration = t
	}
}

// WithObserver receives the outcome of every tick, e.g. for metrics
func WithObserver(o scheduler.Observer) Option {
	return func(w *Watcher) {
		w.observer = o
	}
}

// WithStore shares an existing price table, e.g. with a metrics collector
func WithStore(s *store.Store) Option {
	return func(w *Watcher) {
		if s != nil {
			w.store = s
		}
	}
}

// WithDisplayOptions passes options through to the terminal display
func WithDisplayOptions(opts ...display.Option) Option {
	return func(w *Watcher) {
		w.displayOpts = append(w.displayOpts, opts...)
	}
}

type registration struct {
	name    string
	source  provider.Source
	symbols []label.Symbol
}

// New returns a watcher with the fiat and crypto tasks registered
func New(client *http.Client, opts ...Option) *Watcher {
	w := &Watcher{
		opts: Options{
			Interval:       DefaultInterval,
			RequestTimeout: DefaultRequestTimeout,
			RetryNum:       DefaultRetryNum,
			RetryDuration:  DefaultRetryDuration,
		},
		store: store.New(),
		registrations: []registration{
			{
				name:    TaskFiat,
				source:  xe.NewSource(client),
				symbols: label.DefaultFiat,
			},
			{
				name:    TaskCrypto,
				source:  coindesk.NewSource(client),
				symbols: label.DefaultCrypto,
			},
		},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

type Watcher struct {
	opts        Options
	observer    scheduler.Observer
	displayOpts []display.Option
	store       *store.Store

	mtx           sync.RWMutex
	registrations []registration
}

// Register adds a task or replaces the one with the same name
func (w *Watcher) Register(name string, source provider.Source, symbols ...label.Symbol) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	r := registration{name: name, source: source, symbols: symbols}
	for i := range w.registrations {
		if w.registrations[i].name == name {
			w.registrations[i] = r
			return
		}
	}

	w.registrations = append(w.registrations, r)
}

// Delete removes tasks by name
func (w *Watcher) Delete(names ...string) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	excluded := make(map[string]struct{}, len(names))
	for _, name := range names {
		excluded[name] = struct{}{}
	}

	kept := w.registrations[:0]
	for _, r := range w.registrations {
		if _, ok := excluded[r.name]; ok {
			continue
		}

		kept = append(kept, r)
	}

	w.registrations = kept
}

// Tasks builds scheduler tasks from the registrations in registration order
func (w *Watcher) Tasks() ([]scheduler.Task, error) {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	var merr *multierror.Error

	tasks := make([]scheduler.Task, 0, len(w.registrations))
	for _, r := range w.registrations {
		task, err := scheduler.NewTask(r.name, r.source, r.symbols, w.opts.Interval)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		tasks = append(tasks, task)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// Store is the price table shared by the tasks and the display
func (w *Watcher) Store() *store.Store {
	return w.store
}

// Run polls all tasks and renders the table into out until ctx is done. A failing display stops
// the polling too
func (w *Watcher) Run(ctx context.Context, out io.Writer) error {
	tasks, err := w.Tasks()
	if err != nil {
		return fmt.Errorf("build tasks: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []scheduler.Option{
		scheduler.WithRequestTimeout(w.opts.RequestTimeout),
		scheduler.WithRetryNum(w.opts.RetryNum),
		scheduler.WithRetryDuration(w.opts.RetryDuration),
	}

	if w.observer != nil {
		opts = append(opts, scheduler.WithObserver(w.observer))
	}

	sched := scheduler.New(w.store, opts...)
	disp := display.New(w.store, out, append([]display.Option{display.WithInterval(w.opts.Interval)}, w.displayOpts...)...)

	var g multierror.Group
	g.Go(func() error {
		defer cancel()
		return sched.Run(ctx, tasks...)
	})

	g.Go(func() error {
		defer cancel()
		return disp.Run(ctx)
	})

	return g.Wait().ErrorOrNil()
}
