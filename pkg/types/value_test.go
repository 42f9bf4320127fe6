package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRespectsTick(t *testing.T) {
	tick, err := NewPrice("0.01")
	require.NoError(t, err)

	good, err := NewPrice("10.02")
	require.NoError(t, err)
	assert.True(t, good.RespectsTick(tick))

	bad, err := NewPrice("10.025")
	require.NoError(t, err)
	assert.False(t, bad.RespectsTick(tick))
}

func TestPriceRespectsTickNoConstraint(t *testing.T) {
	p, err := NewPrice("10.023")
	require.NoError(t, err)
	assert.True(t, p.RespectsTick(Price{}))
}

func TestQuantityInRange(t *testing.T) {
	min, _ := NewQuantity("1")
	max, _ := NewQuantity("1000")

	q, _ := NewQuantity("500")
	assert.True(t, q.InRange(min, max))

	tooSmall, _ := NewQuantity("0")
	assert.False(t, tooSmall.InRange(min, max))

	tooBig, _ := NewQuantity("1001")
	assert.False(t, tooBig.InRange(min, max))
}

func TestQuantityMin(t *testing.T) {
	a, _ := NewQuantity("50")
	b, _ := NewQuantity("60")
	assert.True(t, a.Min(b).Equal(a))
	assert.True(t, b.Min(a).Equal(a))
}

func TestLimitOrderLeaves(t *testing.T) {
	total, _ := NewQuantity("100")
	cum, _ := NewQuantity("60")
	o := &LimitOrder{TotalQuantity: total, CumExecutedQuantity: cum}
	leaves := o.Leaves()
	want, _ := NewQuantity("40")
	assert.True(t, leaves.Equal(want))
}

func TestLimitOrderBetterThanBuyPage(t *testing.T) {
	high, _ := NewPrice("10.01")
	low, _ := NewPrice("10.00")
	a := &LimitOrder{OrderPrice: high, OrderTime: Now()}
	b := &LimitOrder{OrderPrice: low, OrderTime: Now()}
	assert.True(t, a.BetterThan(b, false))
	assert.False(t, b.BetterThan(a, false))
}

func TestLimitOrderBetterThanSellPage(t *testing.T) {
	high, _ := NewPrice("10.01")
	low, _ := NewPrice("10.00")
	a := &LimitOrder{OrderPrice: low, OrderTime: Now()}
	b := &LimitOrder{OrderPrice: high, OrderTime: Now()}
	assert.True(t, a.BetterThan(b, true))
}

func TestLimitOrderBetterThanEqualPriceFIFO(t *testing.T) {
	price, _ := NewPrice("10.00")
	earlier := NewTimestamp(mustParseTestTime("2025-01-01 10:00:00"))
	later := NewTimestamp(mustParseTestTime("2025-01-01 10:00:01"))
	a := &LimitOrder{OrderPrice: price, OrderTime: earlier}
	b := &LimitOrder{OrderPrice: price, OrderTime: later}
	assert.True(t, a.BetterThan(b, false))
	assert.False(t, b.BetterThan(a, false))
}

func TestInstrumentDescriptorKind(t *testing.T) {
	assert.Equal(t, DescriptorKindSymbol, InstrumentDescriptor{Symbol: "AAPL"}.Kind())
	assert.Equal(t, DescriptorKindSecurityId, InstrumentDescriptor{
		SecurityId: "037833100", SecurityIdSource: SecurityIdSourceCUSIP,
	}.Kind())
	assert.Equal(t, DescriptorKindExchange, InstrumentDescriptor{
		ExchangeId: "XNAS", SecurityType: SecurityTypeCommonStock,
	}.Kind())
	assert.Equal(t, DescriptorKindNone, InstrumentDescriptor{}.Kind())
}

func TestMarketPhaseAcceptsNewOrders(t *testing.T) {
	open := MarketPhase{Phase: TradingPhaseOpen, Status: TradingStatusResume}
	assert.True(t, open.AcceptsNewOrders())

	halted := MarketPhase{Phase: TradingPhaseHalted, Status: TradingStatusResume}
	assert.False(t, halted.AcceptsNewOrders())

	haltOverride := MarketPhase{Phase: TradingPhaseOpen, Status: TradingStatusHalt}
	assert.False(t, haltOverride.AcceptsNewOrders())
}

func TestTimestampRoundTripJSON(t *testing.T) {
	ts := NewTimestamp(mustParseTestTime("2025-01-02 10:00:00.123456"))
	data, err := ts.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-02 10:00:00.123456"`, string(data))

	var out Timestamp
	require.NoError(t, out.UnmarshalJSON(data))
	assert.True(t, ts.Equal(out))
}
