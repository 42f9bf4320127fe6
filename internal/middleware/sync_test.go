package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsim/venue/pkg/errors"
)

type echoReceiver struct{ delay time.Duration }

func (e echoReceiver) Process(req int, reply *int) error {
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	*reply = req * 2
	return nil
}

func TestSyncChannelCallUnboundReturnsChannelUnbound(t *testing.T) {
	c := NewSyncChannel[int, int]()
	_, err := c.Call(5, 0)
	require.Error(t, err)
	assert.Equal(t, errors.CodeChannelUnbound, errors.CodeOf(err))
}

func TestSyncChannelCallNoDeadline(t *testing.T) {
	c := NewSyncChannel[int, int]()
	c.Bind(echoReceiver{})

	reply, err := c.Call(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, reply)
}

func TestSyncChannelCallWithinDeadline(t *testing.T) {
	c := NewSyncChannel[int, int]()
	c.Bind(echoReceiver{delay: 5 * time.Millisecond})

	reply, err := c.Call(5, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 10, reply)
}

func TestSyncChannelCallExceedsDeadline(t *testing.T) {
	c := NewSyncChannel[int, int]()
	c.Bind(echoReceiver{delay: 50 * time.Millisecond})

	_, err := c.Call(5, 5*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTimeout, errors.CodeOf(err))
}

func TestSyncChannelReleaseUnbinds(t *testing.T) {
	c := NewSyncChannel[int, int]()
	c.Bind(echoReceiver{})
	assert.True(t, c.Bound())
	c.Release()
	assert.False(t, c.Bound())
}
