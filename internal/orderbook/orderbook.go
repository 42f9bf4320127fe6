package orderbook

import "github.com/marketsim/venue/pkg/types"

// OrderBook is the sole owner of one instrument's resting orders, split
// into buy and sell Pages (§3). An order's lifetime ends when it is fully
// filled, cancelled, expired, or cleared via a snapshot restore.
type OrderBook struct {
	Buy  *Page
	Sell *Page
}

// New builds an empty order book.
func New() *OrderBook {
	return &OrderBook{
		Buy:  newPage(false),
		Sell: newPage(true),
	}
}

// PageFor returns the page an order of the given side rests on.
func (b *OrderBook) PageFor(side types.Side) *Page {
	if side.IsSell() {
		return b.Sell
	}
	return b.Buy
}

// OppositePageFor returns the page a taker of the given side would match
// against.
func (b *OrderBook) OppositePageFor(side types.Side) *Page {
	if side.IsSell() {
		return b.Buy
	}
	return b.Sell
}

// Find locates a resting order by id across both pages.
func (b *OrderBook) Find(id types.OrderId) (*types.LimitOrder, bool) {
	if o, ok := b.Buy.Get(id); ok {
		return o, true
	}
	return b.Sell.Get(id)
}

// Remove removes a resting order by id from whichever page holds it.
func (b *OrderBook) Remove(id types.OrderId) (*types.LimitOrder, bool) {
	if o, ok := b.Buy.Remove(id); ok {
		return o, true
	}
	return b.Sell.Remove(id)
}

// IsCrossed reports whether the book is crossed: buy best ≥ sell best.
// Invariant 3 (§8) requires this to be false in continuous phases after
// matching completes.
func (b *OrderBook) IsCrossed() bool {
	buyBest := b.Buy.Best()
	sellBest := b.Sell.Best()
	if buyBest == nil || sellBest == nil {
		return false
	}
	return !buyBest.OrderPrice.LessThan(sellBest.OrderPrice)
}

// Clear empties both pages — used by snapshot restore (§4.3) to discard
// pre-recovery state before rebuilding it from the snapshot.
func (b *OrderBook) Clear() {
	b.Buy = newPage(false)
	b.Sell = newPage(true)
}

// Snapshot returns every resting order on both pages in priority order, for
// persistence (§6: "buy_orders"/"sell_orders ... in priority order").
func (b *OrderBook) Snapshot() (buy []types.LimitOrder, sell []types.LimitOrder) {
	for _, lvl := range b.Buy.Levels() {
		for _, o := range lvl.Orders() {
			buy = append(buy, *o)
		}
	}
	for _, lvl := range b.Sell.Levels() {
		for _, o := range lvl.Orders() {
			sell = append(sell, *o)
		}
	}
	return buy, sell
}

// Restore rebuilds the book from priority-ordered slices (as persisted by
// Snapshot), preserving arrival order within each price level.
func (b *OrderBook) Restore(buy, sell []types.LimitOrder) {
	b.Clear()
	for i := range buy {
		o := buy[i]
		b.Buy.Insert(&o)
	}
	for i := range sell {
		o := sell[i]
		b.Sell.Insert(&o)
	}
}
