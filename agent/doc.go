// Package agent runs the conversation loop between a user, a model and
// the workspace tools.
//
// A [Manager] holds the collaborators every conversation shares: a model
// factory, a tool registry, settings, and the [ApprovalGate]. Each
// conversation is a [Session] with its own history, tool selection, active
// provider and token account.
//
// # Generating a Response
//
// GenerateResponse starts a generation and returns its event channel:
//
//	mgr := agent.NewManager(factory, registry, settings,
//	    agent.WithSkills(skills),
//	    agent.WithLogger(logger),
//	)
//	sess, err := mgr.NewSession(ctx, "notebook-1", agent.WithProvider("anthropic"))
//	if err != nil {
//	    return err
//	}
//
//	events, err := sess.GenerateResponse(ctx, "Plot column B")
//	if err != nil {
//	    return err // *agent.ConfigurationError: no usable model
//	}
//	for e := range events {
//	    switch e.Type {
//	    case event.MessageChunk:
//	        render(e.MessageID, e.FullContent)
//	    case event.ToolCallStart:
//	        showTool(e.CallID, e.ToolName, e.Input)
//	    case event.ToolCallComplete:
//	        finishTool(e.CallID, e.Output, e.IsError)
//	    case event.Error:
//	        showError(e.Err)
//	    }
//	}
//
// Only one generation runs per session. Starting another, StopStreaming,
// ClearHistory and Close all cancel the current one; its channel is closed
// without a terminal event and nothing more is sent on it.
//
// # Approvals
//
// A tool call needs approval when its registry entry was registered with
// tool.WithApproval or its name is listed in
// Settings.CommandsRequiringApproval. The session then appends a marker to
// the assistant message text and waits:
//
//	[APPROVAL_BUTTONS:<callId>]
//	[GROUP_APPROVAL_BUTTONS:<groupId>:<callId1>,<callId2>]
//
// A group marker is used when consecutive calls of one turn all need
// approval. The session waits until every member is decided, then runs the
// approved ones concurrently. Approvals never time out. Resolve them with
// ApproveToolCall and RejectToolCall; unknown and repeated ids are ignored.
// The gate keys requests by session and call id, so a decision only reaches
// the session that asked for it. Session.ToolCalls reports each call's
// progress through the dispatch statuses.
//
// Rejected calls and failing tools are reported back to the model as error
// results and the loop continues. Provider failures and exceeding
// Settings.MaxTurns end the generation with an error event.
package agent
