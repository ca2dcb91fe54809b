package ratewatch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/robotomize/ratewatch/label"
	"github.com/robotomize/ratewatch/provider"
	"github.com/robotomize/ratewatch/scheduler"
)

type syncBuffer struct {
	mtx sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.buf.String()
}

func taskNames(t *testing.T, w *Watcher) []string {
	t.Helper()

	tasks, err := w.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}

	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name()
	}

	return names
}

func TestWatcher_Register(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		taskName string
		expected []string
	}{
		{
			name:     "test_add",
			taskName: "metals",
			expected: []string{TaskFiat, TaskCrypto, "metals"},
		},
		{
			name:     "test_replace",
			taskName: TaskFiat,
			expected: []string{TaskFiat, TaskCrypto},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			source := provider.NewMockSource(ctrl)

			w := New(http.DefaultClient)
			w.Register(tc.taskName, source, "xau")

			if diff := cmp.Diff(tc.expected, taskNames(t, w)); diff != "" {
				t.Errorf("bad tasks (-want, +got): %s", diff)
			}

			tasks, err := w.Tasks()
			if err != nil {
				t.Fatalf("Tasks: %v", err)
			}

			for _, task := range tasks {
				if task.Name() != tc.taskName {
					continue
				}

				if task.Source() != source {
					t.Errorf("task %s has not been replaced", tc.taskName)
				}

				if diff := cmp.Diff([]label.Symbol{"XAU"}, task.Symbols()); diff != "" {
					t.Errorf("bad symbols (-want, +got): %s", diff)
				}
			}
		})
	}
}

func TestWatcher_Delete(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		excluded []string
		expected []string
	}{
		{
			name:     "test_without_fiat",
			excluded: []string{TaskFiat},
			expected: []string{TaskCrypto},
		},
		{
			name:     "test_without_nil",
			excluded: nil,
			expected: []string{TaskFiat, TaskCrypto},
		},
		{
			name:     "test_without_all",
			excluded: []string{TaskCrypto, TaskFiat},
			expected: []string{},
		},
		{
			name:     "test_without_unknown",
			excluded: []string{"stocks"},
			expected: []string{TaskFiat, TaskCrypto},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := New(http.DefaultClient)
			w.Delete(tc.excluded...)

			if diff := cmp.Diff(tc.expected, taskNames(t, w)); diff != "" {
				t.Errorf("bad tasks (-want, +got): %s", diff)
			}
		})
	}
}

func TestWatcher_TasksInvalid(t *testing.T) {
	t.Parallel()

	w := New(http.DefaultClient, WithInterval(time.Second))
	w.Register("broken", nil)

	if _, err := w.Tasks(); !errors.Is(err, scheduler.ErrTaskSource) || !errors.Is(err, scheduler.ErrTaskSymbols) {
		t.Errorf("expected task validation errors, got %v", err)
	}

	if err := w.Run(context.Background(), &bytes.Buffer{}); !errors.Is(err, scheduler.ErrTaskSource) {
		t.Errorf("Run must refuse invalid tasks, got %v", err)
	}
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	fiat := provider.NewMockSource(ctrl)
	fiat.EXPECT().Fetch(gomock.Any(), label.DefaultFiat).Return(provider.Batch{
		label.EUR: {Symbol: label.EUR, Value: 1.10},
		label.GBP: {Symbol: label.GBP, Value: 0.85},
	}, nil).MinTimes(1)

	crypto := provider.NewMockSource(ctrl)
	crypto.EXPECT().Fetch(gomock.Any(), label.DefaultCrypto).Return(provider.Batch{
		label.BTC: {Symbol: label.BTC, Value: 51000.5},
		label.ETH: {Symbol: label.ETH, Value: 3000.25},
	}, nil).MinTimes(1)

	w := New(http.DefaultClient, WithInterval(5*time.Millisecond))
	w.Register(TaskFiat, fiat, label.DefaultFiat...)
	w.Register(TaskCrypto, crypto, label.DefaultCrypto...)

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, out)
	}()

	expected := "BTC: 51000.50 | ETH: 3000.25 | EUR: 1.10 | GBP: 0.85"
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), expected) {
		if time.Now().After(deadline) {
			t.Fatalf("line %q never rendered, got %q", expected, out.String())
		}
		time.Sleep(2 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diff := cmp.Diff(4, w.Store().Len()); diff != "" {
		t.Errorf("bad store len (-want, +got): %s", diff)
	}

	if !strings.HasSuffix(out.String(), "\n") {
		t.Errorf("output must end with a newline")
	}
}
