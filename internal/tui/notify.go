package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/petsalud/vet-cli/internal/viewmodel"
)

// Messages posted by the notifier
type noteMsg struct {
	note viewmodel.Note
}

type confirmMsg struct {
	prompt *viewmodel.Prompt
}

// notifier turns view-model notifications into program messages. View-models
// call it from Update as well as from commands, so posting never blocks:
// messages are queued and delivered in order by run.
type notifier struct {
	mu      sync.Mutex
	pending []tea.Msg
	wake    chan struct{}
}

func newNotifier() *notifier {
	return &notifier{wake: make(chan struct{}, 1)}
}

func (n *notifier) post(msg tea.Msg) {
	n.mu.Lock()
	n.pending = append(n.pending, msg)
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// run delivers posted messages with send until ctx ends.
func (n *notifier) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.wake:
		}
		n.mu.Lock()
		batch := n.pending
		n.pending = nil
		n.mu.Unlock()
		for _, msg := range batch {
			send(msg)
		}
	}
}

func (n *notifier) note(level viewmodel.Level, msg string) {
	n.post(noteMsg{viewmodel.Note{Level: level, Message: msg}})
}

func (n *notifier) Success(msg string) { n.note(viewmodel.LevelSuccess, msg) }
func (n *notifier) Warning(msg string) { n.note(viewmodel.LevelWarning, msg) }
func (n *notifier) Error(msg string)   { n.note(viewmodel.LevelError, msg) }
func (n *notifier) Info(msg string)    { n.note(viewmodel.LevelInfo, msg) }

func (n *notifier) Confirm(msg string) *viewmodel.Prompt {
	p := viewmodel.NewPrompt(msg)
	n.post(confirmMsg{p})
	return p
}
