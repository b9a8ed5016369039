// Package logging provides console logging adapters.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/socforge/socforge/internal/ports"
)

// Level label colors, resolved once against the output profile.
var (
	colorInfo  = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"}
	colorOK    = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorWarn  = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	colorError = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}
)

// ConsoleLogger logs leveled messages to the console.
type ConsoleLogger struct {
	mu          sync.Mutex
	out         io.Writer
	fields      []ports.Field
	color       bool
	includeTime bool
	styles      map[ports.Level]lipgloss.Style
}

// ConsoleLoggerOption configures the console logger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the output writer (default: os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.out = w
	}
}

// WithColor enables or disables colored level labels.
func WithColor(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.color = enabled
	}
}

// WithTimestamp includes a timestamp in log entries.
func WithTimestamp(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.includeTime = enabled
	}
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		out:         os.Stderr,
		color:       true,
		includeTime: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.styles = map[ports.Level]lipgloss.Style{
		ports.LevelDebug: lipgloss.NewStyle().Foreground(colorMuted),
		ports.LevelInfo:  lipgloss.NewStyle().Foreground(colorInfo),
		ports.LevelOK:    lipgloss.NewStyle().Foreground(colorOK),
		ports.LevelWarn:  lipgloss.NewStyle().Foreground(colorWarn),
		ports.LevelError: lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}

	return l
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// OK logs a passed-check message.
func (l *ConsoleLogger) OK(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelOK, msg, fields)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a new logger with additional fields.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	newFields := make([]ports.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &ConsoleLogger{
		out:         l.out,
		fields:      newFields,
		color:       l.color,
		includeTime: l.includeTime,
		styles:      l.styles,
	}
}

func (l *ConsoleLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	label := fmt.Sprintf("[%-5s]", level.String())
	if l.color {
		label = l.styles[level].Render(label)
	}

	var prefix string
	if l.includeTime {
		prefix = time.Now().Format("15:04:05") + " "
	}

	line := prefix + label + " " + msg

	allFields := make([]ports.Field, 0, len(l.fields)+len(fields))
	allFields = append(allFields, l.fields...)
	allFields = append(allFields, fields...)
	for _, f := range allFields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}

	_, _ = fmt.Fprintln(l.out, line)
}

// Ensure ConsoleLogger implements Logger.
var _ ports.Logger = (*ConsoleLogger)(nil)
