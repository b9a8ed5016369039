// Package audit writes the append-only trail of a deployment run.
package audit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/socforge/socforge/internal/ports"
)

// Trail appends timestamped run records to a fixed-path log file. Every
// write is fire-and-forget: a failed append is surfaced once on the
// error writer and never escalated, so a broken log can never abort a
// deployment.
type Trail struct {
	mu       sync.Mutex
	file     *os.File
	errOut   io.Writer
	warned   bool
	runID    string
	now      func() time.Time
	disabled bool
}

// Option configures a Trail.
type Option func(*Trail)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) { t.now = now }
}

// WithErrorOutput sets where append failures are reported (default: os.Stderr).
func WithErrorOutput(w io.Writer) Option {
	return func(t *Trail) { t.errOut = w }
}

// Open creates or appends to the trail at path. Open itself is also
// best-effort: on failure it returns a disabled Trail that reports once
// and swallows all writes.
func Open(path string, opts ...Option) *Trail {
	t := &Trail{
		errOut: os.Stderr,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.disable(err)
		return t
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.disable(err)
		return t
	}
	t.file = file
	return t
}

// Discard returns a Trail that drops everything. Useful for check-only
// runs and tests.
func Discard() *Trail {
	return &Trail{disabled: true, errOut: io.Discard, runID: uuid.NewString(), now: time.Now}
}

// RunID returns this run's identifier.
func (t *Trail) RunID() string {
	return t.runID
}

// Banner writes the run header: a boxed line with run id, timestamp and
// the process arguments.
func (t *Trail) Banner(argv []string) {
	rule := strings.Repeat("=", 72)
	t.append(rule + "\n")
	t.append(fmt.Sprintf("== deployment run %s\n", t.runID))
	t.append(fmt.Sprintf("== started %s\n", t.now().Format(time.RFC3339)))
	t.append(fmt.Sprintf("== argv: %s\n", strings.Join(argv, " ")))
	t.append(rule + "\n")
}

// Log appends one leveled, timestamped line.
func (t *Trail) Log(level ports.Level, msg string) {
	t.append(fmt.Sprintf("%s [%s] %s\n", t.now().Format("2006-01-02 15:04:05"), level.String(), msg))
}

// Writer returns an io.Writer that appends raw bytes to the trail, used
// to capture the delegate's streamed output verbatim.
func (t *Trail) Writer() io.Writer {
	return trailWriter{t}
}

// Close releases the underlying file.
func (t *Trail) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
}

func (t *Trail) append(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disabled || t.file == nil {
		return
	}
	if _, err := t.file.WriteString(s); err != nil {
		t.reportOnce(err)
	}
}

func (t *Trail) disable(err error) {
	t.disabled = true
	t.reportOnce(err)
}

func (t *Trail) reportOnce(err error) {
	if t.warned {
		return
	}
	t.warned = true
	_, _ = fmt.Fprintf(t.errOut, "note: audit log unavailable, continuing without it: %v\n", err)
}

type trailWriter struct {
	t *Trail
}

func (w trailWriter) Write(p []byte) (int, error) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	if w.t.disabled || w.t.file == nil {
		return len(p), nil
	}
	if _, err := w.t.file.Write(p); err != nil {
		w.t.reportOnce(err)
	}
	// Report full write regardless: the trail never propagates failure
	// into the delegate's output stream.
	return len(p), nil
}
