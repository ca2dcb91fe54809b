// Package scheduler runs fetch tasks on fixed intervals and merges their results into a store.
//
// Every task ticks on its own goroutine. A tick that comes due while the previous fetch of the
// same task is still running is skipped, so at most one fetch per task is in flight. Failures
// are logged and reported to the Observer, the next tick is the retry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robotomize/ratewatch/internal/logging"
	"github.com/robotomize/ratewatch/provider"
	"github.com/sethvargo/go-retry"
)

var ErrNoTasks = errors.New("no tasks to run")

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultRetryNum       = 0
	DefaultRetryDuration  = 200 * time.Millisecond
)

// Upserter receives every successful batch
type Upserter interface {
	Upsert(batch provider.Batch)
}

// Observer is notified about every tick outcome
type Observer interface {
	TickSkipped(task string)
	FetchSucceeded(task string, symbols int, took time.Duration)
	FetchFailed(task string, err error, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) TickSkipped(string)                        {}
func (nopObserver) FetchSucceeded(string, int, time.Duration) {}
func (nopObserver) FetchFailed(string, error, time.Duration)  {}

type Options struct {
	RequestTimeout time.Duration
	RetryNum       uint64
	RetryDuration  time.Duration
}

type Option func(*Scheduler)

// WithRequestTimeout bounds a single tick, retries included
func WithRequestTimeout(t time.Duration) Option {
	return func(s *Scheduler) {
		if t > 0 {
			s.opts.RequestTimeout = t
		}
	}
}

// WithRetryNum set number of repeated requests for network errors inside one tick
func WithRetryNum(n uint64) Option {
	return func(s *Scheduler) {
		s.opts.RetryNum = n
	}
}

// WithRetryDuration constant pause between attempts inside one tick
func WithRetryDuration(t time.Duration) Option {
	return func(s *Scheduler) {
		if t > 0 {
			s.opts.RetryDuration = t
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// New returns a scheduler writing into store
func New(store Upserter, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		opts: Options{
			RequestTimeout: DefaultRequestTimeout,
			RetryNum:       DefaultRetryNum,
			RetryDuration:  DefaultRetryDuration,
		},
		observer: nopObserver{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type Scheduler struct {
	store    Upserter
	opts     Options
	observer Observer
}

// Run starts every task and blocks until ctx is done. It returns after all in-flight fetches have
// observed the cancellation
func (s *Scheduler) Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	for _, t := range tasks {
		if t.source == nil || t.interval <= 0 || len(t.symbols) == 0 {
			return fmt.Errorf("task %q: use NewTask to build tasks", t.name)
		}
	}

	var wg sync.WaitGroup
	for _, t := range tasks {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runTask(ctx, t)
		}()
	}

	wg.Wait()

	return nil
}

func (s *Scheduler) runTask(ctx context.Context, t Task) {
	ctx = logging.WithTask(ctx, t.name)
	logger := logging.FromContext(ctx)

	var (
		inFlight atomic.Bool
		wg       sync.WaitGroup
		seq      uint64
	)

	defer wg.Wait()

	tick := func() {
		seq++
		n := seq

		if !inFlight.CompareAndSwap(false, true) {
			logger.Printf("tick #%d: previous fetch still running, skipped", n)
			s.observer.TickSkipped(t.name)
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer inFlight.Store(false)

			s.tick(ctx, t, n)
		}()
	}

	tick()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, t Task, n uint64) {
	start := time.Now()

	batch, err := s.fetch(ctx, t)
	took := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return
		}

		logging.FromContext(ctx).Printf("tick #%d: fetch %v failed after %s: %v", n, t.symbols, took, err)
		s.observer.FetchFailed(t.name, err, took)

		return
	}

	s.store.Upsert(batch)
	s.observer.FetchSucceeded(t.name, len(batch), took)
}

func (s *Scheduler) fetch(ctx context.Context, t Task) (provider.Batch, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	b, err := retry.NewConstant(s.opts.RetryDuration)
	if err != nil {
		return nil, fmt.Errorf("retry backoff: %w", err)
	}

	b = retry.WithMaxRetries(s.opts.RetryNum, b)

	var batch provider.Batch
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		res, err := t.source.Fetch(ctx, t.Symbols())
		if err != nil {
			if errors.Is(err, provider.ErrNetwork) {
				return retry.RetryableError(err)
			}

			return err
		}

		batch = res

		return nil
	}); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, provider.ErrNetwork) {
			err = fmt.Errorf("%w: %w", provider.ErrNetwork, err)
		}

		return nil, err
	}

	return batch, nil
}
