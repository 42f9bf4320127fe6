package validation

import (
	"time"

	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/types"
)

// OrderContext supplies the instrument constraints and venue clock an order
// validator needs; it is never mutated by a check.
type OrderContext struct {
	Instrument *types.Instrument
	VenueTZ    *time.Location
	Now        types.Timestamp
}

// SideValid checks side is present and in the supported set (§4.4 "side
// present; side in supported set"). Whether the side is legal for the page
// the order is destined for is a separate check — see SideValidForPage —
// since placement derives the destination page from the side itself
// (always consistent by construction), while snapshot recovery re-checks
// it against the page list the order was actually filed under.
func SideValid(_ OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if o.Side == types.SideUnknown {
			return errors.New(errors.CodeSideMissing, "side is required")
		}
		if !o.Side.Valid() {
			return errors.Newf(errors.CodeSideUnsupported, "unsupported side %q", o.Side)
		}
		return nil
	}
}

// OrderTypeValid checks order type is present and in {Limit, Market}.
func OrderTypeValid(_ OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if o.OrderType == types.OrderTypeUnknown {
			return errors.New(errors.CodeOrderTypeMissing, "order type is required")
		}
		if !o.OrderType.Valid() {
			return errors.Newf(errors.CodeOrderTypeUnsupported, "unsupported order type %q", o.OrderType)
		}
		return nil
	}
}

// OrderStatusValid checks order status, for recovery, is one a resting
// order may legally hold.
func OrderStatusValid(_ OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if !o.OrderStatus.RestingValid() {
			return errors.Newf(errors.CodeOrderStatusInvalid, "invalid resting order status %q", o.OrderStatus)
		}
		return nil
	}
}

// TotalQuantityValid checks total_quantity is present and respects the
// instrument's tick and min/max bounds.
func TotalQuantityValid(ctx OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if o.TotalQuantity.IsZero() {
			return errors.New(errors.CodeQuantityMissing, "total quantity is required")
		}
		if !o.TotalQuantity.RespectsTick(ctx.Instrument.QuantityTick) {
			return errors.New(errors.CodeTotalQuantityTick, "total quantity violates instrument quantity tick")
		}
		if !o.TotalQuantity.InRange(ctx.Instrument.MinQuantity, ctx.Instrument.MaxQuantity) {
			return errors.New(errors.CodeQuantityOutOfRange, "total quantity out of instrument bounds")
		}
		return nil
	}
}

// CumExecutedQuantityValid checks cum_executed_quantity ≥ 0, respects tick,
// and is strictly less than total_quantity (§3 invariant).
func CumExecutedQuantityValid(ctx OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if o.CumExecutedQuantity.Sign() < 0 {
			return errors.New(errors.CodeCumQtyNegative, "cumulative executed quantity must be non-negative")
		}
		if !o.CumExecutedQuantity.RespectsTick(ctx.Instrument.QuantityTick) {
			return errors.New(errors.CodeCumQtyTickViolated, "cumulative executed quantity violates instrument quantity tick")
		}
		if !o.CumExecutedQuantity.LessThan(o.TotalQuantity) {
			return errors.New(errors.CodeCumQtyNotLessThanTotal, "cumulative executed quantity must be strictly less than total quantity")
		}
		return nil
	}
}

// OrderPriceValid checks order_price is present for limit orders, absent
// for market orders, and respects the instrument's price tick.
func OrderPriceValid(ctx OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		switch o.OrderType {
		case types.OrderTypeLimit:
			if o.OrderPrice.IsZero() {
				return errors.New(errors.CodePriceMissing, "limit orders require a price")
			}
			if !o.OrderPrice.RespectsTick(ctx.Instrument.PriceTick) {
				return errors.New(errors.CodePriceTickViolated, "order price violates instrument price tick")
			}
		case types.OrderTypeMarket:
			if !o.OrderPrice.IsZero() {
				return errors.New(errors.CodePriceNotAllowed, "market orders must not carry a price")
			}
		}
		return nil
	}
}

// TimeInForceValid checks TIF is in the supported set and its GTD/Day
// companion rules are obeyed.
func TimeInForceValid(ctx OrderContext) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if !o.TimeInForce.Valid() {
			return errors.Newf(errors.CodeTimeInForceUnsupported, "unsupported time in force %q", o.TimeInForce)
		}

		switch o.TimeInForce {
		case types.TimeInForceGoodTillDate:
			hasTime := o.ExpireTime != nil
			hasDate := o.ExpireDate != nil
			if hasTime == hasDate {
				return errors.New(errors.CodeExpireFieldConflict, "exactly one of expire_time or expire_date must be set for GoodTillDate")
			}
			if hasTime && !o.ExpireTime.After(ctx.Now) {
				return errors.New(errors.CodeExpireNotInFuture, "expire_time must be strictly in the future")
			}
			if hasDate {
				today := ctx.Now.DateInVenueTZ(ctx.VenueTZ)
				if !today.Before(*o.ExpireDate) {
					return errors.New(errors.CodeExpireNotInFuture, "expire_date must be strictly in the future")
				}
			}
		case types.TimeInForceDay:
			today := ctx.Now.DateInVenueTZ(ctx.VenueTZ)
			orderDate := o.OrderTime.DateInVenueTZ(ctx.VenueTZ)
			if orderDate.Before(today) {
				return errors.New(errors.CodeOrderTimeNotToday, "Day order's order_time must be today or later in venue timezone")
			}
		default:
			if o.ExpireTime != nil || o.ExpireDate != nil {
				return errors.New(errors.CodeExpireFieldMissing, "expire_time/expire_date only apply to GoodTillDate")
			}
		}
		return nil
	}
}

// SideValidForPage checks the order's side matches the page it is
// destined for (buy orders only ever rest on the buy page; sell-side
// variants — Sell, SellShort, SellShortExempt — only ever rest on the
// sell page). expectSell names the page independently of the order's own
// Side field, which is what makes this check meaningful on recovery: a
// snapshot's order_book.buy_orders/sell_orders lists (§6) could disagree
// with an order's own Side if the persisted state were corrupted.
func SideValidForPage(expectSell bool) Check[*types.LimitOrder] {
	return func(o *types.LimitOrder) error {
		if o.Side.IsSell() != expectSell {
			return errors.Newf(errors.CodeSideInvalidForPage, "side %q invalid for this page", o.Side)
		}
		return nil
	}
}

// NewOrderValidator builds the full placement/recovery chain for an order,
// per §4.4's list, in the order the fields are described there.
func NewOrderValidator(ctx OrderContext) Check[*types.LimitOrder] {
	return Chain(
		SideValid(ctx),
		OrderTypeValid(ctx),
		TotalQuantityValid(ctx),
		CumExecutedQuantityValid(ctx),
		OrderPriceValid(ctx),
		TimeInForceValid(ctx),
	)
}

// NewRecoveryOrderValidator extends the placement chain with the
// order_status check and the page/side cross-check, both only meaningful
// when re-validating resting orders recovered from a snapshot (§4.3
// recover, §4.4 "on recovery"). expectSell names the page the order was
// filed under in the snapshot (false for order_book.buy_orders, true for
// order_book.sell_orders — see SideValidForPage).
func NewRecoveryOrderValidator(ctx OrderContext, expectSell bool) Check[*types.LimitOrder] {
	return Chain(
		NewOrderValidator(ctx),
		OrderStatusValid(ctx),
		SideValidForPage(expectSell),
	)
}
