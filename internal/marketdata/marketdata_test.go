package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsim/venue/internal/orderbook"
	"github.com/marketsim/venue/pkg/types"
)

func mkOrder(t *testing.T, id int64, side types.Side, price, qty string) *types.LimitOrder {
	t.Helper()
	p, err := types.NewPrice(price)
	require.NoError(t, err)
	q, err := types.NewQuantity(qty)
	require.NoError(t, err)
	return &types.LimitOrder{
		OrderId:       types.OrderId(id),
		Side:          side,
		OrderType:     types.OrderTypeLimit,
		OrderStatus:   types.OrderStatusNew,
		OrderPrice:    p,
		TotalQuantity: q,
		OrderTime:     types.NewTimestamp(time.Now()),
	}
}

func TestAggregateSumsSamePrice(t *testing.T) {
	book := orderbook.New()
	book.Buy.Insert(mkOrder(t, 1, types.SideBuy, "10.00", "50"))
	book.Buy.Insert(mkOrder(t, 2, types.SideBuy, "10.00", "30"))

	agg := Aggregate(book, 0)
	require.Len(t, agg.Bids, 1)
	want, _ := types.NewQuantity("80")
	assert.True(t, agg.Bids[0].Quantity.Equal(want))
}

func TestAggregateRespectsMaxDepth(t *testing.T) {
	book := orderbook.New()
	book.Buy.Insert(mkOrder(t, 1, types.SideBuy, "10.00", "10"))
	book.Buy.Insert(mkOrder(t, 2, types.SideBuy, "9.99", "10"))
	book.Buy.Insert(mkOrder(t, 3, types.SideBuy, "9.98", "10"))

	agg := Aggregate(book, 2)
	assert.Len(t, agg.Bids, 2)
}

func TestSubscriptionDiffEmptyWhenUnchanged(t *testing.T) {
	book := orderbook.New()
	book.Buy.Insert(mkOrder(t, 1, types.SideBuy, "10.00", "50"))

	sub := NewSubscription(1, types.InstrumentDescriptor{Symbol: "AAPL"}, 0, false, types.SessionHandle{}, book)
	entries := sub.Diff(book)
	assert.Empty(t, entries)
}

func TestSubscriptionDiffReportsNewChangeDelete(t *testing.T) {
	book := orderbook.New()
	book.Buy.Insert(mkOrder(t, 1, types.SideBuy, "10.00", "50"))
	sub := NewSubscription(1, types.InstrumentDescriptor{Symbol: "AAPL"}, 0, false, types.SessionHandle{}, book)

	book.Buy.Insert(mkOrder(t, 2, types.SideBuy, "10.00", "20"))
	book.Buy.Insert(mkOrder(t, 3, types.SideBuy, "9.99", "10"))
	entries := sub.Diff(book)
	require.Len(t, entries, 2)

	var sawChange, sawNew bool
	for _, e := range entries {
		switch e.Action {
		case types.MarketEntryActionChange:
			sawChange = true
			want, _ := types.NewQuantity("70")
			assert.True(t, e.Quantity.Equal(want))
		case types.MarketEntryActionNew:
			sawNew = true
		}
	}
	assert.True(t, sawChange)
	assert.True(t, sawNew)

	book.Buy.Remove(1)
	book.Buy.Remove(2)
	entries = sub.Diff(book)
	require.Len(t, entries, 1)
	assert.Equal(t, types.MarketEntryActionDelete, entries[0].Action)
}

func TestBuildSnapshotIncludesLastTradeWhenConfigured(t *testing.T) {
	book := orderbook.New()
	book.Sell.Insert(mkOrder(t, 1, types.SideSell, "10.05", "70"))
	trade := &types.Trade{TradeId: 1}

	snap := BuildSnapshot(1, types.InstrumentDescriptor{Symbol: "AAPL"}, book, 0, trade, true, types.SessionHandle{})
	require.NotNil(t, snap.LastTrade)
	assert.Equal(t, types.TradeId(1), snap.LastTrade.TradeId)

	snap2 := BuildSnapshot(1, types.InstrumentDescriptor{Symbol: "AAPL"}, book, 0, trade, false, types.SessionHandle{})
	assert.Nil(t, snap2.LastTrade)
}
