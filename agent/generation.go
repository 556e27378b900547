package agent

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/spetersoncode/cellmate/event"
)

// generation is the cancellation handle of one GenerateResponse call.
// Every event goes through emit, which holds mu while sending; stop cancels
// the context and then takes mu, so once stop returns nothing more is sent.
type generation struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	events chan event.Event
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	reason  string
}

func newGeneration(parent context.Context) *generation {
	ctx, cancel := context.WithCancel(parent)
	return &generation{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		events: event.NewChannel(),
		done:   make(chan struct{}),
	}
}

// emit sends e unless the generation has been stopped.
func (g *generation) emit(e event.Event) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return false
	}
	return event.Emit(g.ctx, g.events, e)
}

// stop cancels the generation and blocks further events. The first reason wins.
func (g *generation) stop(reason string) {
	g.cancel()
	g.mu.Lock()
	if !g.stopped {
		g.stopped = true
		g.reason = reason
	}
	g.mu.Unlock()
}

// cancelReason returns the reason given to stop, or ReasonCancelled when
// the parent context ended the generation.
func (g *generation) cancelReason() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reason == "" {
		return ReasonCancelled
	}
	return g.reason
}

// finish closes the event channel and marks the generation done.
func (g *generation) finish() {
	g.mu.Lock()
	g.stopped = true
	close(g.events)
	g.mu.Unlock()
	g.cancel()
	close(g.done)
}

func (g *generation) cancelled() bool {
	return g.ctx.Err() != nil
}
