// Package agui maps session events onto the AG-UI protocol so a browser
// front end can render a generation as it streams.
//
// A [Mapper] is created per generation and turns each [event.Event] into
// zero or more AG-UI events. [Mapper.Stream] wraps a whole session event
// channel, adding RUN_STARTED and a closing RUN_FINISHED or RUN_ERROR:
//
//	ch, err := session.GenerateResponse(ctx, text)
//	if err != nil {
//	    return err
//	}
//	for ev := range agui.NewMapper(session.ID(), "").Stream(ctx, ch) {
//	    writeSSE(w, ev)
//	}
//
// Approval decisions travel back as [ApprovalInput] values that resolve
// entries of an [agent.ApprovalGate].
//
// A Mapper is not safe for concurrent use. The message conversion
// functions are stateless.
package agui
