package viewmodel

import (
	"context"
	"sync"
)

// Notifier is how view-models talk to the user. Toasts follow "most recent
// wins"; Confirm never blocks the caller, it hands back a Prompt that the
// user resolves later.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
	Info(msg string)
	Confirm(msg string) *Prompt
}

// Prompt is a pending yes/no question.
type Prompt struct {
	Message string

	once   sync.Once
	done   chan struct{}
	answer bool
}

// NewPrompt returns an unanswered prompt.
func NewPrompt(msg string) *Prompt {
	return &Prompt{Message: msg, done: make(chan struct{})}
}

// Answered returns a prompt that is already resolved with ok.
func Answered(msg string, ok bool) *Prompt {
	p := NewPrompt(msg)
	p.Resolve(ok)
	return p
}

// Resolve records the user's decision. Only the first call counts.
func (p *Prompt) Resolve(ok bool) {
	p.once.Do(func() {
		p.answer = ok
		close(p.done)
	})
}

// Done is closed once the prompt has been resolved.
func (p *Prompt) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the prompt is resolved or ctx ends. There is no
// timeout of its own.
func (p *Prompt) Wait(ctx context.Context) (bool, error) {
	select {
	case <-p.done:
		return p.answer, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Level of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
	LevelConfirm Level = "confirm"
)

// Note is one recorded notification.
type Note struct {
	Level   Level
	Message string
}

// Recorder is a Notifier that keeps every notification and answers every
// confirmation with Answer. Used by tests and dry runs.
type Recorder struct {
	Answer bool

	mu    sync.Mutex
	notes []Note
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Note{Level: level, Message: msg})
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Warning(msg string) { r.add(LevelWarning, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }

func (r *Recorder) Confirm(msg string) *Prompt {
	r.add(LevelConfirm, msg)
	return Answered(msg, r.Answer)
}

// Notes returns a copy of what was recorded so far.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Last returns the most recent note, or a zero Note.
func (r *Recorder) Last() Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Note{}
	}
	return r.notes[len(r.notes)-1]
}
