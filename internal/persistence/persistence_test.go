package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsim/venue/pkg/types"
)

func mkOrder(t *testing.T, id int64, side types.Side, price, qty string) types.LimitOrder {
	t.Helper()
	p, err := types.NewPrice(price)
	require.NoError(t, err)
	q, err := types.NewQuantity(qty)
	require.NoError(t, err)
	return types.LimitOrder{
		OrderId:       types.OrderId(id),
		ClientOrderId: types.ClientOrderId("c1"),
		Side:          side,
		OrderType:     types.OrderTypeLimit,
		OrderStatus:   types.OrderStatusNew,
		OrderPrice:    p,
		TotalQuantity: q,
		TimeInForce:   types.TimeInForceDay,
		OrderTime:     types.NewTimestamp(time.Now()),
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	price, err := types.NewPrice("10.00")
	require.NoError(t, err)

	snap := types.Snapshot{
		VenueId: "SIM",
		Instruments: []types.InstrumentSnapshot{
			{
				Instrument: types.Instrument{InstrumentId: 1, Symbol: "ABC"},
				Info:       &types.InstrumentInfo{LowPrice: price, HighPrice: price},
				BuyOrders:  []types.LimitOrder{mkOrder(t, 1, types.SideBuy, "10.00", "100")},
				SellOrders: []types.LimitOrder{mkOrder(t, 2, types.SideSell, "10.05", "50")},
			},
		},
	}

	require.NoError(t, Store(path, snap))
	assert.True(t, Exists(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, snap.VenueId, loaded.VenueId)
	require.Len(t, loaded.Instruments, 1)
	assert.Equal(t, types.Symbol("ABC"), loaded.Instruments[0].Instrument.Symbol)
	require.Len(t, loaded.Instruments[0].BuyOrders, 1)
	assert.Equal(t, types.OrderId(1), loaded.Instruments[0].BuyOrders[0].OrderId)
	require.NotNil(t, loaded.Instruments[0].Info)
	assert.True(t, loaded.Instruments[0].Info.LowPrice.Equal(price))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestExistsFalseForMissingFile(t *testing.T) {
	assert.False(t, Exists(filepath.Join(t.TempDir(), "missing.json")))
}
