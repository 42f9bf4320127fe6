package marketdata

import (
	"github.com/marketsim/venue/internal/orderbook"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// Subscription tracks one active market-data subscription's prior known
// book state, so incremental updates carry only what changed since the
// last Diff call (§4.3 "market-data update").
type Subscription struct {
	RequestId        types.MarketDataRequestId
	Descriptor       types.InstrumentDescriptor
	MaxDepthLevels   int
	IncludeLastTrade bool
	Session          types.SessionHandle

	prior LevelSnapshot
}

// NewSubscription opens a subscription with its baseline set to the book's
// current state, so the first Diff after the initial snapshot push reports
// only what changed since that push.
func NewSubscription(requestId types.MarketDataRequestId, descriptor types.InstrumentDescriptor, maxDepth int, includeLastTrade bool, session types.SessionHandle, book *orderbook.OrderBook) *Subscription {
	return &Subscription{
		RequestId:        requestId,
		Descriptor:       descriptor,
		MaxDepthLevels:   maxDepth,
		IncludeLastTrade: includeLastTrade,
		Session:          session,
		prior:            Aggregate(book, maxDepth),
	}
}

// Diff computes New/Change/Delete entries against the subscription's prior
// known state and atomically adopts the new state as the baseline for the
// next call (§4.3: "after emission, the subscription's prior state is
// updated atomically"; diffing is per price level, not per order).
func (s *Subscription) Diff(book *orderbook.OrderBook) []protocol.PriceLevelEntry {
	curr := Aggregate(book, s.MaxDepthLevels)
	entries := diffSide(s.prior.Bids, curr.Bids, types.MdEntryTypeBid)
	entries = append(entries, diffSide(s.prior.Offers, curr.Offers, types.MdEntryTypeOffer)...)
	s.prior = curr
	return entries
}

func diffSide(prev, curr []protocol.PriceLevelEntry, entryType types.MdEntryType) []protocol.PriceLevelEntry {
	prevByPrice := make(map[string]protocol.PriceLevelEntry, len(prev))
	for _, e := range prev {
		prevByPrice[e.Price.String()] = e
	}
	currPrices := make(map[string]struct{}, len(curr))

	var out []protocol.PriceLevelEntry
	for _, c := range curr {
		key := c.Price.String()
		currPrices[key] = struct{}{}
		p, existed := prevByPrice[key]
		switch {
		case !existed:
			out = append(out, protocol.PriceLevelEntry{EntryType: entryType, Action: types.MarketEntryActionNew, Price: c.Price, Quantity: c.Quantity})
		case !p.Quantity.Equal(c.Quantity):
			out = append(out, protocol.PriceLevelEntry{EntryType: entryType, Action: types.MarketEntryActionChange, Price: c.Price, Quantity: c.Quantity})
		}
	}
	for _, p := range prev {
		if _, ok := currPrices[p.Price.String()]; !ok {
			out = append(out, protocol.PriceLevelEntry{EntryType: entryType, Action: types.MarketEntryActionDelete, Price: p.Price, Quantity: types.ZeroQuantity()})
		}
	}
	return out
}
