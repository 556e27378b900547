package agent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalGate(t *testing.T) {
	t.Run("resolves once", func(t *testing.T) {
		g := NewApprovalGate()
		ch, err := g.Register("s1", "gen", "c1")
		require.NoError(t, err)
		assert.Equal(t, 1, g.Len())

		assert.True(t, g.Approve("s1", "c1"))
		assert.False(t, g.Approve("s1", "c1"))
		assert.False(t, g.Reject("s1", "c1", "late"))

		d := <-ch
		assert.True(t, d.Approved)
		assert.Equal(t, 0, g.Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		g := NewApprovalGate()
		assert.False(t, g.Approve("s1", "nope"))
		assert.False(t, g.Reject("s1", "nope", ReasonRejectedByUser))
	})

	t.Run("duplicate registration", func(t *testing.T) {
		g := NewApprovalGate()
		_, err := g.Register("s1", "gen", "c1")
		require.NoError(t, err)
		_, err = g.Register("s1", "other", "c1")
		assert.ErrorIs(t, err, ErrApprovalPending)
	})

	t.Run("same id in two sessions", func(t *testing.T) {
		g := NewApprovalGate()
		a, err := g.Register("s1", "gen-a", "c1")
		require.NoError(t, err)
		b, err := g.Register("s2", "gen-b", "c1")
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())

		assert.True(t, g.Approve("s2", "c1"))
		assert.True(t, (<-b).Approved)
		select {
		case <-a:
			t.Fatal("resolving s2 resolved s1")
		default:
		}
		assert.False(t, g.Approve("s3", "c1"))

		pending := g.Pending()
		require.Len(t, pending, 1)
		assert.Equal(t, "s1", pending[0].Session)
		assert.True(t, g.Reject("s1", "c1", ReasonRejectedByUser))
		assert.False(t, (<-a).Approved)
	})

	t.Run("reject carries reason", func(t *testing.T) {
		g := NewApprovalGate()
		ch, _ := g.Register("s1", "gen", "c1")
		g.Reject("s1", "c1", ReasonRejectedByUser)
		d := <-ch
		assert.False(t, d.Approved)
		assert.Equal(t, ReasonRejectedByUser, d.Reason)
	})

	t.Run("reject owner", func(t *testing.T) {
		g := NewApprovalGate()
		a, _ := g.Register("s1", "gen-a", "c1")
		b, _ := g.Register("s1", "gen-a", "c2")
		_, _ = g.Register("s1", "gen-b", "c3")

		assert.Equal(t, 2, g.RejectOwner("gen-a", ReasonSessionCleared))
		assert.Equal(t, ReasonSessionCleared, (<-a).Reason)
		assert.Equal(t, ReasonSessionCleared, (<-b).Reason)

		pending := g.Pending()
		require.Len(t, pending, 1)
		assert.Equal(t, "c3", pending[0].ID)
		assert.Equal(t, "gen-b", pending[0].Owner)
		assert.Zero(t, g.RejectOwner("gen-a", ReasonCancelled))
	})

	t.Run("concurrent resolution", func(t *testing.T) {
		g := NewApprovalGate()
		ch, _ := g.Register("s1", "gen", "c1")

		var wg sync.WaitGroup
		wins := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					wins <- g.Approve("s1", "c1")
				} else {
					wins <- g.Reject("s1", "c1", ReasonRejectedByUser)
				}
			}(i)
		}
		wg.Wait()
		close(wins)

		n := 0
		for w := range wins {
			if w {
				n++
			}
		}
		assert.Equal(t, 1, n)
		<-ch
	})

	t.Run("change callback", func(t *testing.T) {
		g := NewApprovalGate()
		var seen []int
		g.onChange = func(n int) { seen = append(seen, n) }
		_, _ = g.Register("s1", "gen", "c1")
		_, _ = g.Register("s1", "gen", "c2")
		g.Approve("s1", "c1")
		g.RejectOwner("gen", ReasonCancelled)
		assert.Equal(t, []int{1, 2, 1, 0}, seen)
	})
}
