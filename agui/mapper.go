package agui

import (
	"context"
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/event"
)

// Mapper converts session events for a single run into AG-UI events.
type Mapper struct {
	threadID string
	runID    string

	// message id of the text message open in the front end, if any
	open string
}

// NewMapper creates a Mapper. Empty ids are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{threadID: threadID, runID: runID}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event carrying a user-facing description
// of err.
func (m *Mapper) RunError(err error) events.Event {
	if err == nil {
		err = errors.New("unknown error")
	}
	return events.NewRunErrorEvent(ai.Describe(err))
}

// MapEvent converts one session event. A tool call start expands into the
// AG-UI start, args and end triple since arguments arrive whole. Events
// with no AG-UI counterpart map to nothing.
func (m *Mapper) MapEvent(e event.Event) []events.Event {
	switch e.Type {
	case event.MessageStart:
		m.open = e.MessageID
		return []events.Event{
			events.NewTextMessageStartEvent(e.MessageID, events.WithRole(RoleAssistant)),
		}

	case event.MessageChunk:
		if e.Delta == "" {
			return nil
		}
		return []events.Event{events.NewTextMessageContentEvent(e.MessageID, e.Delta)}

	case event.MessageComplete:
		m.open = ""
		return []events.Event{events.NewTextMessageEndEvent(e.MessageID)}

	case event.ToolCallStart:
		out := []events.Event{events.NewToolCallStartEvent(e.CallID, e.ToolName)}
		if len(e.Input) > 0 {
			out = append(out, events.NewToolCallArgsEvent(e.CallID, string(e.Input)))
		}
		return append(out, events.NewToolCallEndEvent(e.CallID))

	case event.ToolCallComplete:
		return []events.Event{
			events.NewToolCallResultEvent(events.GenerateMessageID(), e.CallID, e.Output),
		}

	case event.Error:
		var out []events.Event
		if m.open != "" {
			out = append(out, events.NewTextMessageEndEvent(m.open))
			m.open = ""
		}
		return append(out, m.RunError(e.Err))
	}
	return nil
}

// Stream maps every event from in until it closes, framed by RUN_STARTED
// and RUN_FINISHED. An error event ends the run with RUN_ERROR instead. A
// text message left open by a cancelled generation is ended before
// RUN_FINISHED. The returned channel closes when in closes or ctx is done.
func (m *Mapper) Stream(ctx context.Context, in <-chan event.Event) <-chan events.Event {
	out := make(chan events.Event, 16)
	go func() {
		defer close(out)
		send := func(ev events.Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(m.RunStarted()) {
			return
		}
		failed := false
		for {
			var (
				e  event.Event
				ok bool
			)
			select {
			case e, ok = <-in:
			case <-ctx.Done():
				return
			}
			if !ok {
				break
			}
			if e.Type == event.Error {
				failed = true
			}
			for _, ev := range m.MapEvent(e) {
				if !send(ev) {
					return
				}
			}
		}
		if failed {
			return
		}
		if m.open != "" {
			if !send(events.NewTextMessageEndEvent(m.open)) {
				return
			}
			m.open = ""
		}
		send(m.RunFinished())
	}()
	return out
}
