// Package notify is the single place user-facing notices go through. Every
// notice has one of four severities, a title and a message; destructive
// actions ask for confirmation through the same dispatcher.
package notify

import (
	"errors"
	"sync"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Notice is one modal message with a single acknowledgement.
type Notice struct {
	Severity Severity
	Title    string
	Message  string
}

// Dispatcher shows notices and asks yes/no questions.
type Dispatcher interface {
	Notify(n Notice)
	// Confirm returns true only on an explicit yes.
	Confirm(title, message string) bool
}

// Noticer is implemented by errors that know how they should be shown.
type Noticer interface {
	Notice() Notice
}

// FromError turns err into the notice shown to the user. Errors that
// implement Noticer anywhere in their chain decide for themselves; anything
// else is an error notice carrying the raw message.
func FromError(err error) Notice {
	var n Noticer
	if errors.As(err, &n) {
		return n.Notice()
	}
	return Notice{
		Severity: SeverityError,
		Title:    "Oops, Something's Wrong!",
		Message:  err.Error(),
	}
}

// Error shows err through d.
func Error(d Dispatcher, err error) {
	if err != nil {
		d.Notify(FromError(err))
	}
}

// Recorder keeps every notice and confirmation prompt it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	prompts []Notice
	answer  bool
}

// NewRecorder returns a Recorder that answers every confirmation with answer.
func NewRecorder(answer bool) *Recorder {
	return &Recorder{answer: answer}
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Confirm(title, message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, Notice{Severity: SeverityWarning, Title: title, Message: message})
	return r.answer
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *Recorder) Prompts() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.prompts...)
}

// Last returns the most recent notice, or false if there is none.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
