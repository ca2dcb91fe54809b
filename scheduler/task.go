package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
)

var (
	ErrTaskName     = errors.New("task name is empty")
	ErrTaskSource   = errors.New("task source is nil")
	ErrTaskSymbols  = errors.New("task has no valid symbols")
	ErrTaskInterval = errors.New("task interval must be positive")
)

// Task binds a source to an ordered symbol set and an interval. It is immutable once created
type Task struct {
	name     string
	source   provider.Source
	symbols  []label.Symbol
	interval time.Duration
}

// NewTask validates the input and returns a Task. Symbols are normalized and de-duplicated, their
// order is kept
func NewTask(name string, source provider.Source, symbols []label.Symbol, interval time.Duration) (Task, error) {
	var merr *multierror.Error

	if name == "" {
		merr = multierror.Append(merr, ErrTaskName)
	}

	if source == nil {
		merr = multierror.Append(merr, ErrTaskSource)
	}

	parsed := label.Parse(label.Strings(symbols)...)
	if len(parsed) == 0 {
		merr = multierror.Append(merr, ErrTaskSymbols)
	}

	if interval <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrTaskInterval, interval))
	}

	if err := merr.ErrorOrNil(); err != nil {
		return Task{}, fmt.Errorf("task %q: %w", name, err)
	}

	return Task{
		name:     name,
		source:   source,
		symbols:  parsed,
		interval: interval,
	}, nil
}

func (t Task) Name() string {
	return t.name
}

func (t Task) Source() provider.Source {
	return t.source
}

// Symbols returns a copy of the symbol set
func (t Task) Symbols() []label.Symbol {
	list := make([]label.Symbol, len(t.symbols))
	copy(list, t.symbols)

	return list
}

func (t Task) Interval() time.Duration {
	return t.interval
}
