// Package marketdata aggregates an instrument's order book into the
// snapshot and incremental-update shapes carried on the trading-reply
// channel (§4.3 "market-data snapshot"/"market-data update").
package marketdata

import (
	"github.com/marketsim/venue/internal/orderbook"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// LevelSnapshot is one side-aggregated view of a book at a point in time,
// kept by a Subscription as its prior known state for diffing.
type LevelSnapshot struct {
	Bids   []protocol.PriceLevelEntry
	Offers []protocol.PriceLevelEntry
}

// Aggregate walks book from best to maxDepth levels (0 = all), summing
// quantity at each price into one entry (§4.3 aggregation rule). The
// aggregator is deterministic: same book + same maxDepth always produce
// the same entries in the same order.
func Aggregate(book *orderbook.OrderBook, maxDepth int) LevelSnapshot {
	return LevelSnapshot{
		Bids:   aggregateSide(book.Buy.Levels(), types.MdEntryTypeBid, maxDepth),
		Offers: aggregateSide(book.Sell.Levels(), types.MdEntryTypeOffer, maxDepth),
	}
}

func aggregateSide(levels []*orderbook.PriceLevel, entryType types.MdEntryType, maxDepth int) []protocol.PriceLevelEntry {
	n := len(levels)
	if maxDepth > 0 && maxDepth < n {
		n = maxDepth
	}
	out := make([]protocol.PriceLevelEntry, 0, n)
	for i := 0; i < n; i++ {
		lvl := levels[i]
		out = append(out, protocol.PriceLevelEntry{
			EntryType: entryType,
			Action:    types.MarketEntryActionNew,
			Price:     lvl.Price,
			Quantity:  lvl.TotalQuantity(),
		})
	}
	return out
}

// BuildSnapshot produces a full MarketDataSnapshot reply for a one-shot
// snapshot request or the initial push on subscribe.
func BuildSnapshot(requestId types.MarketDataRequestId, descriptor types.InstrumentDescriptor, book *orderbook.OrderBook, maxDepth int, lastTrade *types.Trade, includeLastTrade bool, session types.SessionHandle) protocol.MarketDataSnapshot {
	agg := Aggregate(book, maxDepth)
	snap := protocol.MarketDataSnapshot{
		RequestId:  requestId,
		Descriptor: descriptor,
		Bids:       agg.Bids,
		Offers:     agg.Offers,
		Session:    session,
	}
	if includeLastTrade {
		snap.LastTrade = lastTrade
	}
	return snap
}
