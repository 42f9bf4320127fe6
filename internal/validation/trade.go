package validation

import (
	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/types"
)

// TradePriceValid checks trade_price respects the instrument's price tick.
func TradePriceValid(inst *types.Instrument) Check[*types.Trade] {
	return func(tr *types.Trade) error {
		if !tr.TradePrice.RespectsTick(inst.PriceTick) {
			return errors.New(errors.CodeTradePriceTickViolated, "trade price violates instrument price tick")
		}
		return nil
	}
}

// TradeQuantityValid checks traded_quantity respects tick and min/max
// bounds.
func TradeQuantityValid(inst *types.Instrument) Check[*types.Trade] {
	return func(tr *types.Trade) error {
		if !tr.TradedQuantity.RespectsTick(inst.QuantityTick) {
			return errors.New(errors.CodeTradeQtyTickViolated, "traded quantity violates instrument quantity tick")
		}
		if !tr.TradedQuantity.InRange(inst.MinQuantity, inst.MaxQuantity) {
			return errors.New(errors.CodeTradeQtyOutOfRange, "traded quantity out of instrument bounds")
		}
		return nil
	}
}

// NewTradeValidator builds the full trade validation chain (§4.4).
func NewTradeValidator(inst *types.Instrument) Check[*types.Trade] {
	return Chain(
		TradePriceValid(inst),
		TradeQuantityValid(inst),
	)
}

// InstrumentInfoValid checks low_price ≤ high_price and both respect the
// instrument's price tick (§3, §4.4).
func InstrumentInfoValid(inst *types.Instrument) Check[*types.InstrumentInfo] {
	return func(info *types.InstrumentInfo) error {
		if info.LowPrice.GreaterThan(info.HighPrice) {
			return errors.New(errors.CodeLowHighPriceInverted, "low_price must not exceed high_price")
		}
		if !info.LowPrice.RespectsTick(inst.PriceTick) {
			return errors.New(errors.CodeLowPriceTickViolated, "low_price violates instrument price tick")
		}
		if !info.HighPrice.RespectsTick(inst.PriceTick) {
			return errors.New(errors.CodeHighPriceTickViolated, "high_price violates instrument price tick")
		}
		return nil
	}
}
