// Package idgen allocates process-lifetime-stable ids for orders,
// executions, trades, and market-data requests (§4.1).
package idgen

import (
	"math"
	"sync/atomic"

	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/types"
)

// Generator produces monotonically increasing ids for one kind of entity.
// Collision is only possible at math.MaxInt64, at which point Next returns
// CodeIdGenerationExhausted rather than wrapping.
type Generator struct {
	counter int64
}

// NewGenerator seeds a counter so the first allocated id is seed+1. Pass 0
// for a fresh venue; pass the highest id observed in a recovered snapshot
// to reseed after a restart (§4.1).
func NewGenerator(seed int64) *Generator {
	return &Generator{counter: seed}
}

// Next allocates the next id in sequence.
func (g *Generator) Next() (int64, error) {
	next := atomic.AddInt64(&g.counter, 1)
	if next == math.MaxInt64 {
		return 0, errors.New(errors.CodeIdGenerationExhausted, "id generator exhausted")
	}
	return next, nil
}

// Reseed advances the counter to at least seed, used when reseeding from
// recovered state to max(observed)+1. It never moves the counter backwards.
func (g *Generator) Reseed(seed int64) {
	for {
		cur := atomic.LoadInt64(&g.counter)
		if seed <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&g.counter, cur, seed) {
			return
		}
	}
}

// Generators bundles the four independently-seeded counters the venue
// needs (§4.1): order, execution, trade, market-data-request.
type Generators struct {
	Order      *Generator
	Execution  *Generator
	Trade      *Generator
	MarketData *Generator
}

// NewGenerators builds a fresh set of generators, all seeded at zero.
func NewGenerators() *Generators {
	return &Generators{
		Order:      NewGenerator(0),
		Execution:  NewGenerator(0),
		Trade:      NewGenerator(0),
		MarketData: NewGenerator(0),
	}
}

func (g *Generators) NextOrderId() (types.OrderId, error) {
	id, err := g.Order.Next()
	return types.OrderId(id), err
}

func (g *Generators) NextExecutionId() (types.ExecutionId, error) {
	id, err := g.Execution.Next()
	return types.ExecutionId(id), err
}

func (g *Generators) NextTradeId() (types.TradeId, error) {
	id, err := g.Trade.Next()
	return types.TradeId(id), err
}

func (g *Generators) NextMarketDataRequestId() (types.MarketDataRequestId, error) {
	id, err := g.MarketData.Next()
	return types.MarketDataRequestId(id), err
}

// ReseedFromSnapshot reseeds every counter to max(observed)+1 after a
// recovery, per §4.1.
func (g *Generators) ReseedFromSnapshot(maxOrderId int64, maxExecutionId int64, maxTradeId int64, maxMarketDataRequestId int64) {
	g.Order.Reseed(maxOrderId)
	g.Execution.Reseed(maxExecutionId)
	g.Trade.Reseed(maxTradeId)
	g.MarketData.Reseed(maxMarketDataRequestId)
}
