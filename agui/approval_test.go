package agui

import (
	"testing"

	"github.com/spetersoncode/cellmate/agent"
)

func TestParseApprovalInput(t *testing.T) {
	t.Run("approval", func(t *testing.T) {
		in, err := ParseApprovalInput([]byte(`{"threadId":"nb-1","toolCallId":"call-1","approved":true}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if in.ThreadID != "nb-1" || in.ToolCallID != "call-1" || !in.Approved {
			t.Errorf("unexpected input %+v", in)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if _, err := ParseApprovalInput([]byte(`{"threadId":"nb-1","approved":true}`)); err != ErrNoToolCallID {
			t.Errorf("expected ErrNoToolCallID, got %v", err)
		}
	})

	t.Run("missing thread", func(t *testing.T) {
		if _, err := ParseApprovalInput([]byte(`{"toolCallId":"call-1","approved":true}`)); err != ErrNoThread {
			t.Errorf("expected ErrNoThread, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := ParseApprovalInput([]byte(`{`)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestApprovalInput_Decision(t *testing.T) {
	approved := (&ApprovalInput{ToolCallID: "c", Approved: true, Reason: "ignored"}).Decision()
	if !approved.Approved || approved.Reason != "" {
		t.Errorf("unexpected decision %+v", approved)
	}

	rejected := (&ApprovalInput{ToolCallID: "c", Reason: "wrong cell"}).Decision()
	if rejected.Approved || rejected.Reason != "wrong cell" {
		t.Errorf("unexpected decision %+v", rejected)
	}
}

func TestApprovalInput_Apply(t *testing.T) {
	gate := agent.NewApprovalGate()
	ch, err := gate.Register("nb-1", "gen-1", "call-1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	other := &ApprovalInput{ThreadID: "nb-2", ToolCallID: "call-1", Approved: true}
	if other.Apply(gate) {
		t.Fatal("expected another thread's input to be ignored")
	}

	in := &ApprovalInput{ThreadID: "nb-1", ToolCallID: "call-1", Approved: true}
	if !in.Apply(gate) {
		t.Fatal("expected pending approval to resolve")
	}
	if d := <-ch; !d.Approved {
		t.Errorf("expected approval, got %+v", d)
	}
	if in.Apply(gate) {
		t.Error("expected second resolution to be ignored")
	}
}
