// Package middleware implements the venue's process-wide typed channels
// (§4.5): decoupled request/reply routing between frontends (FIX, HTTP) and
// the trading system, with explicit bind/release semantics and a bounded
// per-channel delivery queue (§5).
package middleware

import (
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/marketsim/venue/pkg/errors"
)

// Receiver processes one delivery of T, asynchronously, on the channel's
// own dispatch goroutine (§4.5: "handed to the receiver on the caller's
// thread; if the receiver needs off-thread execution, it does so
// internally" — here the channel's single dispatch goroutine stands in for
// that thread, which also gives the channel its per-channel ordering
// guarantee, §5).
type Receiver[T any] interface {
	Process(T)
}

// envelope wraps a queued delivery with a ksuid ordering token (diagnostic
// only — delivery order is FIFO regardless) and a uuid correlation id that
// dispatchLoop logs against the delivery, so a request can be traced from
// Send through to the receiver call even though the two run on different
// goroutines.
type envelope[T any] struct {
	token         ksuid.KSUID
	correlationId uuid.UUID
	payload       T
}

// Channel marshals async requests from any number of producer goroutines to
// a single bound Receiver, serialized through a bounded queue (§5: "marshal
// calls to the runtime thread via a bounded message queue per channel").
// Within one Channel, delivery order matches Send order.
type Channel[T any] struct {
	mu       sync.RWMutex
	receiver Receiver[T]

	queue  chan envelope[T]
	done   chan struct{}
	logger *zap.Logger
}

// NewChannel builds a channel with the given bounded queue size (§5
// EXPANSION) and starts its dispatch goroutine.
func NewChannel[T any](queueSize int, logger *zap.Logger) *Channel[T] {
	c := &Channel[T]{
		queue:  make(chan envelope[T], queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go c.dispatchLoop()
	return c
}

func (c *Channel[T]) dispatchLoop() {
	for {
		select {
		case env := <-c.queue:
			c.mu.RLock()
			r := c.receiver
			c.mu.RUnlock()
			if r != nil {
				c.logger.Debug("dispatching channel delivery",
					zap.String("correlation_id", env.correlationId.String()),
					zap.String("token", env.token.String()))
				r.Process(env.payload)
			}
		case <-c.done:
			return
		}
	}
}

// Bind installs receiver as the channel's current receiver, replacing any
// previous one. Safe only from the orchestration thread (§4.5).
func (c *Channel[T]) Bind(receiver Receiver[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = receiver
}

// Release unbinds the current receiver; subsequent sends return a
// CodeChannelUnbound error until a new receiver is bound.
func (c *Channel[T]) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = nil
}

// Bound reports whether a receiver is currently bound.
func (c *Channel[T]) Bound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receiver != nil
}

// Send enqueues v for asynchronous delivery to the bound receiver. It
// never panics: an unbound channel or a full queue both return a tagged
// error rather than blocking or dropping silently (§4.5, §7).
func (c *Channel[T]) Send(v T) error {
	c.mu.RLock()
	bound := c.receiver != nil
	c.mu.RUnlock()
	if !bound {
		return errors.New(errors.CodeChannelUnbound, "channel has no bound receiver")
	}

	env := envelope[T]{token: ksuid.New(), correlationId: uuid.New(), payload: v}
	select {
	case c.queue <- env:
		return nil
	default:
		return errors.New(errors.CodeQueueFull, "channel delivery queue is full")
	}
}

// Close stops the dispatch goroutine. Used at shutdown only.
func (c *Channel[T]) Close() {
	close(c.done)
}
