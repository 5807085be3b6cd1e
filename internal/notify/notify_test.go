package notify

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type titledError struct{ title, message string }

func (e *titledError) Error() string { return e.message }

func (e *titledError) Notice() Notice {
	return Notice{Severity: SeverityWarning, Title: e.title, Message: e.message}
}

func TestFromError(t *testing.T) {
	t.Run("noticer in chain", func(t *testing.T) {
		err := fmt.Errorf("login: %w", &titledError{"Email Not Verified", "check your inbox"})

		n := FromError(err)
		assert.Equal(t, Notice{Severity: SeverityWarning, Title: "Email Not Verified", Message: "check your inbox"}, n)
	})

	t.Run("plain error keeps raw message", func(t *testing.T) {
		n := FromError(errors.New("dial tcp: connection refused"))
		assert.Equal(t, SeverityError, n.Severity)
		assert.Equal(t, "dial tcp: connection refused", n.Message)
	})
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(true)
	_, ok := r.Last()
	assert.False(t, ok)

	Error(r, errors.New("boom"))
	Error(r, nil)
	assert.True(t, r.Confirm("Logout", "Are you sure?"))

	require.Len(t, r.Notices(), 1)
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "boom", last.Message)
	assert.Equal(t, "Logout", r.Prompts()[0].Title)
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(&out, strings.NewReader(tt.input))

			assert.Equal(t, tt.want, term.Confirm("Logout", "Are you sure you want to logout?"))
			assert.Contains(t, out.String(), "Are you sure you want to logout?")
		})
	}

	var out bytes.Buffer
	NewTerminal(&out, strings.NewReader("\n")).Notify(Notice{Severity: SeveritySuccess, Title: "Email Sent!", Message: "Check your inbox"})
	assert.Contains(t, out.String(), "[ok] Email Sent!")
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogger(zap.New(core))

	l.Notify(Notice{Severity: SeverityError, Title: "Login Failed", Message: "bad"})
	assert.False(t, l.Confirm("Logout", "sure?"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Login Failed", entries[0].ContextMap()["title"])
}
