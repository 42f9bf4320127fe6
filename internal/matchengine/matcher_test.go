package matchengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

func price(t *testing.T, s string) types.Price {
	t.Helper()
	p, err := types.NewPrice(s)
	require.NoError(t, err)
	return p
}

func qty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.NewQuantity(s)
	require.NoError(t, err)
	return q
}

func addTime(ts types.Timestamp, d time.Duration) types.Timestamp {
	return types.NewTimestamp(ts.Time().Add(d))
}

func limitOrder(t *testing.T, side types.Side, p, q string, tif types.TimeInForce, when types.Timestamp) types.LimitOrder {
	t.Helper()
	return types.LimitOrder{
		ClientOrderId: types.ClientOrderId("c"),
		Side:          side,
		OrderType:     types.OrderTypeLimit,
		OrderPrice:    price(t, p),
		TotalQuantity: qty(t, q),
		TimeInForce:   tif,
		OrderTime:     when,
	}
}

// TestBasicCross covers spec §8 scenario 1: a resting sell fully crossed
// by an incoming buy at the same price trades in full and clears the book.
func TestBasicCross(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	sellReports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideSell, "10.00", "100", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Len(t, sellReports, 1)
	assert.Equal(t, types.ExecutionTypeNew, sellReports[0].ExecType)

	buyReports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideBuy, "10.00", "100", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Len(t, buyReports, 2)
	for _, r := range buyReports {
		assert.Equal(t, types.ExecutionTypeTrade, r.ExecType)
		assert.Equal(t, price(t, "10.00"), r.LastPrice)
		assert.Equal(t, qty(t, "100"), r.LastQuantity)
	}

	assert.Equal(t, 0, e.Book.Buy.Len())
	assert.Equal(t, 0, e.Book.Sell.Len())
	require.NotNil(t, e.LastTrade)
	assert.True(t, e.Info.LowPrice.Equal(price(t, "10.00")))
	assert.True(t, e.Info.HighPrice.Equal(price(t, "10.00")))
	assert.Equal(t, types.AggressorSideBuy, e.LastTrade.AggressorSide)
}

// TestPartialFillAndRest covers spec §8 scenario 2.
func TestPartialFillAndRest(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideBuy, "10.00", "100", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)

	reports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideSell, "10.00", "60", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Len(t, reports, 2)

	assert.Equal(t, 1, e.Book.Buy.Len())
	assert.Equal(t, 0, e.Book.Sell.Len())
	resting := e.Book.Buy.Best()
	require.NotNil(t, resting)
	assert.True(t, resting.CumExecutedQuantity.Equal(qty(t, "60")))
	assert.Equal(t, types.OrderStatusPartiallyFilled, resting.OrderStatus)
	assert.Equal(t, types.AggressorSideSell, e.LastTrade.AggressorSide)
}

// TestPriceTimePriority covers spec §8 scenario 3: best price first, then
// earlier arrival at equal price.
func TestPriceTimePriority(t *testing.T) {
	e := newTestEngine(t)
	t1 := types.Now()
	t2 := addTime(t1, time.Second)
	t3 := addTime(t2, time.Second)
	t4 := addTime(t3, time.Second)

	for _, o := range []types.LimitOrder{
		limitOrder(t, types.SideSell, "10.00", "50", types.TimeInForceDay, t1),
		limitOrder(t, types.SideSell, "10.00", "50", types.TimeInForceDay, t2),
		limitOrder(t, types.SideSell, "9.99", "50", types.TimeInForceDay, t3),
	} {
		_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Order: o}, o.OrderTime)
		require.NoError(t, err)
		require.Nil(t, reject)
	}

	reports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideBuy, "10.00", "150", types.TimeInForceDay, t4),
	}, t4)
	require.NoError(t, err)
	require.Nil(t, reject)

	var tradePrices []string
	for _, r := range reports {
		if r.ExecType == types.ExecutionTypeTrade && r.Side == types.SideBuy {
			tradePrices = append(tradePrices, r.LastPrice.String())
		}
	}
	require.Equal(t, []string{"9.99", "10", "10"}, tradePrices)
}

// TestFillOrKillRollback covers spec §8 scenario 4: an unsatisfiable FOK
// leaves the book untouched and is rejected atomically.
func TestFillOrKillRollback(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideSell, "10.00", "40", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)

	reports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideBuy, "10.00", "100", types.TimeInForceFillOrKill, now),
	}, now)
	require.NoError(t, err)
	require.Empty(t, reports)
	require.NotNil(t, reject)
	assert.Equal(t, string(errors.CodeFillOrKillUnsatisfied), reject.ErrorCode)

	assert.Equal(t, 1, e.Book.Sell.Len())
	assert.Equal(t, 0, e.Book.Buy.Len())
	assert.Nil(t, e.LastTrade)
}

// TestImmediateOrCancelNoOverlap covers spec §8 boundary behaviour: an IOC
// with no price overlap cancels immediately with no trade or book change.
func TestImmediateOrCancelNoOverlap(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideSell, "10.00", "40", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)

	reports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideBuy, "9.00", "40", types.TimeInForceImmediateOrCancel, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Len(t, reports, 1)
	assert.Equal(t, types.ExecutionTypeCancelled, reports[0].ExecType)
	assert.Equal(t, 1, e.Book.Sell.Len())
	assert.Equal(t, 0, e.Book.Buy.Len())
	assert.Nil(t, e.LastTrade)
}

// TestMarketOrderNoLiquidityRejected covers §4.3's market-order liquidity
// check firing before any book mutation.
func TestMarketOrderNoLiquidityRejected(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	order := types.LimitOrder{
		ClientOrderId: types.ClientOrderId("c"),
		Side:          types.SideBuy,
		OrderType:     types.OrderTypeMarket,
		TotalQuantity: qty(t, "40"),
		TimeInForce:   types.TimeInForceDay,
		OrderTime:     now,
	}

	reports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Order: order}, now)
	require.NoError(t, err)
	assert.Empty(t, reports)
	require.NotNil(t, reject)
	assert.Equal(t, string(errors.CodeNoLiquidity), reject.ErrorCode)
}

func TestCancelOrderOwnershipEnforced(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	owner := types.SessionHandle{SenderCompId: "owner"}
	order := limitOrder(t, types.SideBuy, "10.00", "100", types.TimeInForceDay, now)
	reports, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Session: owner, Order: order}, now)
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Len(t, reports, 1)
	orderId := reports[0].OrderId

	_, cancelReject := e.CancelOrder(protocol.CancelOrderRequest{
		Session: types.SessionHandle{SenderCompId: "other"},
		OrderId: orderId,
	}, now)
	require.NotNil(t, cancelReject)
	assert.Equal(t, string(errors.CodeOrderNotFound), cancelReject.ErrorCode)
	assert.Equal(t, 1, e.Book.Buy.Len())

	report, cancelReject := e.CancelOrder(protocol.CancelOrderRequest{
		Session: owner,
		OrderId: orderId,
	}, now)
	require.Nil(t, cancelReject)
	require.NotNil(t, report)
	assert.Equal(t, types.ExecutionTypeCancelled, report.ExecType)
	assert.Equal(t, 0, e.Book.Buy.Len())
}

func TestCancelOrderNotFoundIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	_, reject := e.CancelOrder(protocol.CancelOrderRequest{OrderId: 999}, types.Now())
	require.NotNil(t, reject)
	assert.Equal(t, string(errors.CodeOrderNotFound), reject.ErrorCode)
	assert.Equal(t, 0, e.Book.Buy.Len())
	assert.Equal(t, 0, e.Book.Sell.Len())
}

func TestModifyOrderOwnershipEnforced(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	owner := types.SessionHandle{SenderCompId: "owner"}
	order := limitOrder(t, types.SideBuy, "10.00", "100", types.TimeInForceDay, now)
	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Session: owner, Order: order}, now)
	require.NoError(t, err)
	require.Nil(t, reject)
	orderId := e.Book.Buy.Best().OrderId

	_, modReject := e.ModifyOrder(protocol.ModifyOrderRequest{
		Session:          types.SessionHandle{SenderCompId: "other"},
		OrderId:          orderId,
		NewTotalQuantity: qty(t, "50"),
	}, now)
	require.NotNil(t, modReject)
	assert.Equal(t, string(errors.CodeOrderNotFound), modReject.ErrorCode)
}

// TestModifyDecreaseBelowTickRejected covers spec §8 boundary behaviour:
// shrinking total quantity to within a tick of cum_executed_quantity is
// rejected rather than silently clamped.
func TestModifyDecreaseBelowTickRejected(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()

	owner := types.SessionHandle{SenderCompId: "owner"}
	buy := limitOrder(t, types.SideBuy, "10.00", "100", types.TimeInForceDay, now)
	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Session: owner, Order: buy}, now)
	require.NoError(t, err)
	require.Nil(t, reject)

	_, reject, err = e.PlaceOrder(protocol.PlaceOrderRequest{
		Order: limitOrder(t, types.SideSell, "10.00", "60", types.TimeInForceDay, now),
	}, now)
	require.NoError(t, err)
	require.Nil(t, reject)

	resting := e.Book.Buy.Best()
	require.NotNil(t, resting)
	require.True(t, resting.CumExecutedQuantity.Equal(qty(t, "60")))

	_, modReject := e.ModifyOrder(protocol.ModifyOrderRequest{
		Session:          owner,
		OrderId:          resting.OrderId,
		NewTotalQuantity: qty(t, "60.5"),
	}, now)
	require.NotNil(t, modReject)
}

func TestModifyPriceChangeLosesPriority(t *testing.T) {
	e := newTestEngine(t)
	t1 := types.Now()
	t2 := addTime(t1, time.Second)

	owner := types.SessionHandle{SenderCompId: "owner"}
	first := limitOrder(t, types.SideBuy, "10.00", "50", types.TimeInForceDay, t1)
	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Session: owner, Order: first}, t1)
	require.NoError(t, err)
	require.Nil(t, reject)
	firstId := e.Book.Buy.Best().OrderId

	second := limitOrder(t, types.SideBuy, "10.00", "50", types.TimeInForceDay, t2)
	_, reject, err = e.PlaceOrder(protocol.PlaceOrderRequest{Order: second}, t2)
	require.NoError(t, err)
	require.Nil(t, reject)

	report, modReject := e.ModifyOrder(protocol.ModifyOrderRequest{
		Session:  owner,
		OrderId:  firstId,
		NewPrice: price(t, "9.99"),
	}, addTime(t2, time.Second))
	require.Nil(t, modReject)
	require.NotNil(t, report)

	assert.NotEqual(t, firstId, e.Book.Buy.Best().OrderId)
}

func TestExpirySweepRemovesLapsedDayOrder(t *testing.T) {
	e := newTestEngine(t)
	yesterday := addTime(types.Now(), -24*time.Hour)

	order := limitOrder(t, types.SideBuy, "10.00", "50", types.TimeInForceDay, yesterday)
	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Order: order}, yesterday)
	require.NoError(t, err)
	require.Nil(t, reject)
	require.Equal(t, 1, e.Book.Buy.Len())

	reports := e.ExpireSweep(types.Now())
	require.Len(t, reports, 1)
	assert.Equal(t, types.ExecutionTypeExpired, reports[0].ExecType)
	assert.Equal(t, 0, e.Book.Buy.Len())
}

// TestExpirySweepAtCutoffIsInclusive covers spec §8 boundary behaviour:
// GoodTillDate expiry at exactly the cutoff second expires the order.
func TestExpirySweepAtCutoffIsInclusive(t *testing.T) {
	e := newTestEngine(t)
	now := types.Now()
	cutoff := addTime(now, time.Second)

	order := limitOrder(t, types.SideBuy, "10.00", "50", types.TimeInForceGoodTillDate, now)
	order.ExpireTime = &cutoff
	_, reject, err := e.PlaceOrder(protocol.PlaceOrderRequest{Order: order}, now)
	require.NoError(t, err)
	require.Nil(t, reject)

	reports := e.ExpireSweep(cutoff)
	require.Len(t, reports, 1)
	assert.Equal(t, types.ExecutionTypeExpired, reports[0].ExecType)
}
