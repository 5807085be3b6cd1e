package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var severityLabel = map[Severity]string{
	SeverityError:   "[error]",
	SeverityWarning: "[warning]",
	SeverityInfo:    "[info]",
	SeveritySuccess: "[ok]",
}

// Terminal prints notices and reads acknowledgements from a line-based input.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader
}

func NewTerminal(out io.Writer, in io.Reader) *Terminal {
	return &Terminal{out: out, in: bufio.NewReader(in)}
}

// Notify prints the notice and waits for Enter.
func (t *Terminal) Notify(n Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n%s %s\n%s\n[press Enter] ", severityLabel[n.Severity], n.Title, n.Message)
	_, _ = t.in.ReadString('\n')
}

// Confirm accepts y or yes, case-insensitively. Anything else, including EOF, is no.
func (t *Terminal) Confirm(title, message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n%s\n%s [y/N] ", title, message)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Logger sends notices to a zap logger. It has no one to ask, so every
// confirmation is denied.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(n Notice) {
	fields := []zap.Field{
		zap.String("severity", string(n.Severity)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	switch n.Severity {
	case SeverityError:
		l.logger.Error("Notice", fields...)
	case SeverityWarning:
		l.logger.Warn("Notice", fields...)
	default:
		l.logger.Info("Notice", fields...)
	}
}

func (l *Logger) Confirm(title, message string) bool {
	l.logger.Warn("Confirmation denied (headless)", zap.String("title", title), zap.String("message", message))
	return false
}
