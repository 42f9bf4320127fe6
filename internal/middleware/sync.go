package middleware

import (
	"sync"
	"time"

	"github.com/marketsim/venue/pkg/errors"
)

// SyncReceiver services a synchronous request by filling reply in place
// and returning any internal error (§4.5: "sync requests block until the
// receiver fills the provided reply").
type SyncReceiver[Req, Reply any] interface {
	Process(req Req, reply *Reply) error
}

// SyncChannel carries synchronous admin and instrument-state requests
// (§4.5 items 1/3): trading-admin and the sync side of the trading-request
// channel. Unlike Channel, there is no queue — the receiver runs as soon as
// Call is made, on the caller's goroutine when no deadline is given and on
// a helper goroutine the caller waits on otherwise (the "marshal to runtime
// thread" in §5 is realized
// by the receiver itself being the trading system, which never shares
// engine state across goroutines — see internal/tradingsystem) — except
// that Call still serializes concurrent callers through callMu so the
// single-threaded-core guarantee (§5) holds even if two frontends call in
// simultaneously.
type SyncChannel[Req, Reply any] struct {
	mu       sync.RWMutex
	callMu   sync.Mutex
	receiver SyncReceiver[Req, Reply]
}

// NewSyncChannel builds an unbound synchronous channel.
func NewSyncChannel[Req, Reply any]() *SyncChannel[Req, Reply] {
	return &SyncChannel[Req, Reply]{}
}

func (c *SyncChannel[Req, Reply]) Bind(receiver SyncReceiver[Req, Reply]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = receiver
}

func (c *SyncChannel[Req, Reply]) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiver = nil
}

func (c *SyncChannel[Req, Reply]) Bound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receiver != nil
}

// Call invokes the bound receiver synchronously. If deadline is non-zero
// and elapses before the receiver returns, Call itself still waits for
// completion (§5: "the runtime thread still completes the operation — no
// mid-operation abort") but reports CodeTimeout to the caller instead of
// the receiver's own result.
func (c *SyncChannel[Req, Reply]) Call(req Req, deadline time.Duration) (Reply, error) {
	var reply Reply

	c.mu.RLock()
	r := c.receiver
	c.mu.RUnlock()
	if r == nil {
		return reply, errors.New(errors.CodeChannelUnbound, "channel has no bound receiver")
	}

	c.callMu.Lock()
	defer c.callMu.Unlock()

	if deadline <= 0 {
		err := r.Process(req, &reply)
		return reply, err
	}

	type result struct {
		reply Reply
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		var rep Reply
		err := r.Process(req, &rep)
		resultCh <- result{reply: rep, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.reply, res.err
	case <-time.After(deadline):
		res := <-resultCh
		return res.reply, errors.New(errors.CodeTimeout, "synchronous call exceeded its deadline")
	}
}
