package infra

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/counter-dapp/business/counter/app"
	"github.com/fd1az/counter-dapp/pkg/ui"
)

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIReporter implements app.Reporter for the Bubble Tea TUI. Report never
// blocks; only the newest pending snapshot is forwarded.
type TUIReporter struct {
	mu      sync.Mutex
	pending *app.State
	notify  chan struct{}
}

// NewTUIReporter creates a TUIReporter. Nothing is delivered until Run.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{
		notify: make(chan struct{}, 1),
	}
}

// Report queues s, replacing any older pending snapshot.
func (r *TUIReporter) Report(s app.State) {
	r.mu.Lock()
	if r.pending == nil || s.Version > r.pending.Version {
		r.pending = &s
	}
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Run forwards snapshots to sender as ui.StateMsg until ctx is done.
func (r *TUIReporter) Run(ctx context.Context, sender Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.notify:
			r.mu.Lock()
			s := r.pending
			r.pending = nil
			r.mu.Unlock()

			if s != nil {
				sender.Send(ui.StateMsg{State: *s})
			}
		}
	}
}
