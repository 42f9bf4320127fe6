// Package orderbook implements the two-sided, price-time-ordered resting
// order structure each matching engine owns (§3 OrderBook).
package orderbook

import "github.com/marketsim/venue/pkg/types"

// OrderNode is one order's slot in a PriceLevel's FIFO queue. A doubly
// linked list gives O(1) removal from anywhere in the queue, which matters
// for cancel-anywhere.
type OrderNode struct {
	Order *types.LimitOrder
	prev  *OrderNode
	next  *OrderNode
	level *PriceLevel
}

// PriceLevel holds every resting order at one price, in arrival order
// (earliest first — strict FIFO per §3).
type PriceLevel struct {
	Price types.Price
	head  *OrderNode
	tail  *OrderNode
	count int
}

func newPriceLevel(price types.Price) *PriceLevel {
	return &PriceLevel{Price: price}
}

func (pl *PriceLevel) IsEmpty() bool { return pl.count == 0 }
func (pl *PriceLevel) Count() int    { return pl.count }

// Head returns the first (best priority) order at this level, or nil.
func (pl *PriceLevel) Head() *types.LimitOrder {
	if pl.head == nil {
		return nil
	}
	return pl.head.Order
}

// TotalQuantity sums leaves across every order resting at this level — the
// aggregation rule used by market-data snapshots (§4.3).
func (pl *PriceLevel) TotalQuantity() types.Quantity {
	total := types.ZeroQuantity()
	for n := pl.head; n != nil; n = n.next {
		total = total.Add(n.Order.Leaves())
	}
	return total
}

// append adds an order to the tail of the queue (lowest priority at this
// price). Returns the node for O(1) later removal.
func (pl *PriceLevel) append(order *types.LimitOrder) *OrderNode {
	node := &OrderNode{Order: order, level: pl}
	if pl.tail == nil {
		pl.head = node
		pl.tail = node
	} else {
		node.prev = pl.tail
		pl.tail.next = node
		pl.tail = node
	}
	pl.count++
	return node
}

// remove detaches node from its level's queue in O(1).
func (pl *PriceLevel) remove(node *OrderNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		pl.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		pl.tail = node.prev
	}
	pl.count--
	node.prev = nil
	node.next = nil
	node.level = nil
}

// popFront removes and returns the first (best priority) order.
func (pl *PriceLevel) popFront() *types.LimitOrder {
	if pl.head == nil {
		return nil
	}
	node := pl.head
	pl.remove(node)
	return node.Order
}

// Orders returns every order at this level in priority order. Allocates;
// intended for snapshot/test use, not the matching hot path.
func (pl *PriceLevel) Orders() []*types.LimitOrder {
	out := make([]*types.LimitOrder, 0, pl.count)
	for n := pl.head; n != nil; n = n.next {
		out = append(out, n.Order)
	}
	return out
}
