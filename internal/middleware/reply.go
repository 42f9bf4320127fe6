package middleware

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/marketsim/venue/pkg/errors"
)

// ReplyChannel is the trading-reply channel (§4.5 item 2): async delivery
// of report/reject/market-data/security-status replies, fanned out across
// a bounded ants.Pool so one slow receiver can never make the venue spawn
// unbounded goroutines (§2 EXPANSION domain-stack note).
type ReplyChannel[T any] struct {
	mu       sync.RWMutex
	receiver Receiver[T]
	pool     *ants.Pool
}

// NewReplyChannel builds a reply channel backed by a worker pool capped at
// poolSize concurrent deliveries.
func NewReplyChannel[T any](poolSize int) (*ReplyChannel[T], error) {
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &ReplyChannel[T]{pool: pool}, nil
}

func (c *ReplyChannel[T]) Bind(receiver Receiver[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = receiver
}

func (c *ReplyChannel[T]) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = nil
}

func (c *ReplyChannel[T]) Bound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receiver != nil
}

// Send hands v to the bound receiver on a pooled goroutine. Returns a
// CodeChannelUnbound error if nothing is bound, a CodeQueueFull error if the
// pool has no free worker (§7: never blocks, never panics).
func (c *ReplyChannel[T]) Send(v T) error {
	c.mu.RLock()
	r := c.receiver
	c.mu.RUnlock()
	if r == nil {
		return errors.New(errors.CodeChannelUnbound, "reply channel has no bound receiver")
	}

	err := c.pool.Submit(func() { r.Process(v) })
	if err == ants.ErrPoolOverload {
		return errors.New(errors.CodeQueueFull, "reply channel worker pool is saturated")
	}
	return err
}

// Close releases the underlying worker pool.
func (c *ReplyChannel[T]) Close() {
	c.pool.Release()
}
