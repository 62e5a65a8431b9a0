package broadcast

import (
	"sync"
	"testing"

	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func errorPush(msg string) protocol.Command {
	return protocol.Push(nil, protocol.MustAction(protocol.ServerError, protocol.Text(msg)))
}

func TestSendReachesRegisteredUser(t *testing.T) {
	g := NewGateway(4, zaptest.NewLogger(t))
	c := g.Register(7)
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, 1, g.Connected())

	g.Send(7, errorPush("hello"))
	g.Send(8, errorPush("nobody"))

	msg := <-c.Messages()
	cmd, err := protocol.DecodeCommand(msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ServerError, cmd.Action.Kind())
	assert.Equal(t, "hello", cmd.Action.Text(0))
	assert.Empty(t, c.Messages())
}

func TestFullBufferDrops(t *testing.T) {
	g := NewGateway(2, zaptest.NewLogger(t))
	c := g.Register(1)
	for i := 0; i < 5; i++ {
		g.Send(1, errorPush("x"))
	}
	assert.Len(t, c.Messages(), 2)
}

func TestRegisterReplacesOldConnection(t *testing.T) {
	g := NewGateway(0, nil)
	old := g.Register(1)
	cur := g.Register(1)
	assert.NotEqual(t, old.ID(), cur.ID())

	_, open := <-old.Messages()
	assert.False(t, open)

	// Unregistering the stale client must not drop the new one.
	g.Unregister(old)
	assert.Equal(t, 1, g.Connected())
	g.Send(1, errorPush("still here"))
	assert.Len(t, cur.Messages(), 1)

	g.Unregister(cur)
	g.Unregister(cur)
	assert.Zero(t, g.Connected())
}

func TestConcurrentSendAndUnregister(t *testing.T) {
	g := NewGateway(DefaultSendBuffer, zaptest.NewLogger(t))
	var wg sync.WaitGroup
	for u := 0; u < 10; u++ {
		c := g.Register(u)
		wg.Add(2)
		go func(u int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				g.Send(u, errorPush("m"))
			}
		}(u)
		go func(c *Client) {
			defer wg.Done()
			g.Unregister(c)
		}(c)
	}
	wg.Wait()
	assert.Zero(t, g.Connected())
}
