package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit(t *testing.T) {
	t.Run("delivers and stamps the event", func(t *testing.T) {
		ch := NewChannel()
		ok := Emit(context.Background(), ch, Event{Type: MessageStart, MessageID: "m1"})
		require.True(t, ok)

		got := <-ch
		assert.Equal(t, MessageStart, got.Type)
		assert.False(t, got.Timestamp.IsZero())
	})

	t.Run("does not send once the context is done", func(t *testing.T) {
		ch := make(chan Event)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, Emit(ctx, ch, Event{Type: MessageStart}))
	})

	t.Run("unblocks a full channel on cancel", func(t *testing.T) {
		ch := make(chan Event)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan bool)
		go func() { done <- Emit(ctx, ch, Event{Type: MessageChunk}) }()

		cancel()
		assert.False(t, <-done)
	})
}

func TestEventHelpers(t *testing.T) {
	assert.True(t, Event{Type: MessageComplete}.IsTerminal())
	assert.True(t, Event{Type: Error}.IsTerminal())
	assert.False(t, Event{Type: ToolCallComplete}.IsTerminal())

	assert.Equal(t, "", Event{Type: Error}.ErrorText())
	assert.Equal(t, "boom", Event{Type: Error, Err: errors.New("boom")}.ErrorText())
}

func TestSignal(t *testing.T) {
	t.Run("late subscriber sees the current value", func(t *testing.T) {
		var s Signal[int]
		s.Publish(1)

		ch, cancel := s.Subscribe()
		defer cancel()
		assert.Equal(t, 1, <-ch)
	})

	t.Run("slow subscriber keeps only the latest value", func(t *testing.T) {
		var s Signal[string]
		ch, cancel := s.Subscribe()
		defer cancel()

		s.Publish("anthropic")
		s.Publish("openai")
		s.Publish("google")

		assert.Equal(t, "google", <-ch)
		select {
		case v := <-ch:
			t.Fatalf("unexpected extra value %q", v)
		default:
		}
	})

	t.Run("cancel closes the channel and is idempotent", func(t *testing.T) {
		var s Signal[int]
		ch, cancel := s.Subscribe()
		cancel()
		cancel()

		_, open := <-ch
		assert.False(t, open)
		s.Publish(5)

		v, ok := s.Value()
		assert.True(t, ok)
		assert.Equal(t, 5, v)
	})

	t.Run("close ends all subscriptions", func(t *testing.T) {
		var s Signal[int]
		a, _ := s.Subscribe()
		b, _ := s.Subscribe()
		s.Close()

		_, openA := <-a
		_, openB := <-b
		assert.False(t, openA)
		assert.False(t, openB)
	})
}
