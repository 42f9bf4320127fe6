package orderbook

import "github.com/marketsim/venue/pkg/types"

// Page is one side of an OrderBook: a sequence of PriceLevels kept sorted
// best-first (buy page: highest price first; sell page: lowest price
// first), each level a FIFO queue of resting orders (§3).
type Page struct {
	sell   bool
	levels []*PriceLevel
	nodes  map[types.OrderId]*OrderNode
}

func newPage(sell bool) *Page {
	return &Page{sell: sell, nodes: make(map[types.OrderId]*OrderNode)}
}

// betterPrice reports whether a has priority over b on this page.
func (p *Page) betterPrice(a, b types.Price) bool {
	if p.sell {
		return a.LessThan(b)
	}
	return a.GreaterThan(b)
}

// findLevel locates the index of the level at price, and whether it exists.
func (p *Page) findLevel(price types.Price) (int, bool) {
	for i, lvl := range p.levels {
		if lvl.Price.Equal(price) {
			return i, true
		}
		if p.betterPrice(price, lvl.Price) {
			return i, false
		}
	}
	return len(p.levels), false
}

// Insert places order into its price level in FIFO order, creating the
// level if necessary. O(levels) to locate, O(1) to append.
func (p *Page) Insert(order *types.LimitOrder) {
	idx, exists := p.findLevel(order.OrderPrice)
	var lvl *PriceLevel
	if exists {
		lvl = p.levels[idx]
	} else {
		lvl = newPriceLevel(order.OrderPrice)
		p.levels = append(p.levels, nil)
		copy(p.levels[idx+1:], p.levels[idx:])
		p.levels[idx] = lvl
	}
	node := lvl.append(order)
	p.nodes[order.OrderId] = node
}

// Remove detaches the order with id from the page, pruning its price level
// if it becomes empty. Reports whether an order was found.
func (p *Page) Remove(id types.OrderId) (*types.LimitOrder, bool) {
	node, ok := p.nodes[id]
	if !ok {
		return nil, false
	}
	lvl := node.level
	lvl.remove(node)
	delete(p.nodes, id)
	if lvl.IsEmpty() {
		p.pruneLevel(lvl)
	}
	return node.Order, true
}

func (p *Page) pruneLevel(lvl *PriceLevel) {
	for i, l := range p.levels {
		if l == lvl {
			p.levels = append(p.levels[:i], p.levels[i+1:]...)
			return
		}
	}
}

// PopBestFront removes and returns the best-priority resting order on the
// page (the head of the best price level), per the continuous matching
// algorithm (§4.3).
func (p *Page) PopBestFront() *types.LimitOrder {
	if len(p.levels) == 0 {
		return nil
	}
	lvl := p.levels[0]
	order := lvl.popFront()
	delete(p.nodes, order.OrderId)
	if lvl.IsEmpty() {
		p.levels = p.levels[1:]
	}
	return order
}

// Best returns the best-priority resting order without removing it, or nil
// if the page is empty.
func (p *Page) Best() *types.LimitOrder {
	if len(p.levels) == 0 {
		return nil
	}
	return p.levels[0].Head()
}

// Get returns the order with id, if present on this page.
func (p *Page) Get(id types.OrderId) (*types.LimitOrder, bool) {
	node, ok := p.nodes[id]
	if !ok {
		return nil, false
	}
	return node.Order, true
}

// Levels returns the page's price levels in priority order — best first.
// Callers must not mutate the returned slice.
func (p *Page) Levels() []*PriceLevel {
	return p.levels
}

// Len returns the number of resting orders on the page.
func (p *Page) Len() int {
	return len(p.nodes)
}

// ReplacePriority removes order id (if present) and reinserts it at its
// current OrderPrice with a fresh arrival position — used when a
// modification causes it to lose priority (§4.3 modification semantics).
func (p *Page) ReplacePriority(order *types.LimitOrder) {
	p.Remove(order.OrderId)
	p.Insert(order)
}
