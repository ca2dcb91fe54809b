// Package display renders the store as a single terminal line that is rewritten in place.
package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/robotomize/ratewatch/provider"
	"golang.org/x/term"
)

const (
	DefaultInterval    = time.Second
	DefaultPlaceholder = "loading..."
	Separator          = " | "

	// clearLine erases the whole current line and returns the cursor to column 0
	clearLine = "\x1b[2K\r"
	// carriageReturn restarts the line on sinks that do not understand escape codes
	carriageReturn = "\r"
)

// Snapshotter is the read side of the price store
type Snapshotter interface {
	Snapshot() []provider.Price
}

// WidthFunc reports the usable width of the sink. ok is false when the sink is not a terminal
type WidthFunc func() (width int, ok bool)

type Option func(*Display)

func WithInterval(t time.Duration) Option {
	return func(d *Display) {
		if t > 0 {
			d.interval = t
		}
	}
}

func WithPlaceholder(s string) Option {
	return func(d *Display) {
		d.placeholder = s
	}
}

// WithWidth overrides terminal detection: the sink is treated as a terminal of the reported width
func WithWidth(fn WidthFunc) Option {
	return func(d *Display) {
		d.width = fn
		d.tty = fn != nil
	}
}

// New returns a display reading prices from src and writing to w. When w is a terminal the
// line is cleared before every render and cut to the terminal width, other sinks only get a
// carriage return
func New(src Snapshotter, w io.Writer, opts ...Option) *Display {
	width := terminalWidth(w)
	d := &Display{
		src:         src,
		w:           w,
		interval:    DefaultInterval,
		placeholder: DefaultPlaceholder,
		width:       width,
		tty:         width != nil,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type Display struct {
	src         Snapshotter
	w           io.Writer
	interval    time.Duration
	placeholder string
	width       WidthFunc
	tty         bool
}

// Format renders prices as "SYMBOL: price" pairs with two decimals. Prices are expected sorted
func Format(prices []provider.Price) string {
	return formatWith(prices, DefaultPlaceholder)
}

func formatWith(prices []provider.Price, placeholder string) string {
	if len(prices) == 0 {
		return placeholder
	}

	var sb strings.Builder
	for i, p := range prices {
		if i > 0 {
			sb.WriteString(Separator)
		}

		sb.WriteString(p.Symbol.String())
		sb.WriteString(": ")
		sb.WriteString(strconv.FormatFloat(p.Value, 'f', 2, 64))
	}

	return sb.String()
}

// Line is the current content without control sequences
func (d *Display) Line() string {
	line := formatWith(d.src.Snapshot(), d.placeholder)
	if d.width == nil {
		return line
	}

	if width, ok := d.width(); ok && width > 0 {
		line = truncate(line, width)
	}

	return line
}

// Render replaces the current line with a fresh snapshot
func (d *Display) Render() error {
	prefix := carriageReturn
	if d.tty {
		prefix = clearLine
	}

	if _, err := io.WriteString(d.w, prefix+d.Line()); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	return nil
}

// Run renders immediately and then on every interval until ctx is done. It leaves the last line
// on screen followed by a newline
func (d *Display) Run(ctx context.Context) error {
	if err := d.Render(); err != nil {
		return err
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if _, err := io.WriteString(d.w, "\n"); err != nil {
				return fmt.Errorf("render: %w", err)
			}

			return nil
		case <-ticker.C:
			if err := d.Render(); err != nil {
				return err
			}
		}
	}
}

// truncate keeps at most width runes, a line one column short of the edge never wraps
func truncate(s string, width int) string {
	if width > 1 {
		width--
	}

	if utf8.RuneCountInString(s) <= width {
		return s
	}

	runes := []rune(s)

	return string(runes[:width])
}

func terminalWidth(w io.Writer) WidthFunc {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}

	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	return func() (int, bool) {
		width, _, err := term.GetSize(fd)
		if err != nil {
			return 0, false
		}

		return width, true
	}
}
