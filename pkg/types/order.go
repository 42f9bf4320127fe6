package types

// LimitOrder is a resting order on an OrderBook page (§3). Exactly one of
// ExpireTime/ExpireDate is set when TimeInForce is GoodTillDate.
type LimitOrder struct {
	OrderId       OrderId
	ClientOrderId ClientOrderId

	InstrumentId InstrumentId
	Side         Side
	OrderType    OrderType
	OrderStatus  OrderStatus

	OrderPrice          Price
	TotalQuantity       Quantity
	CumExecutedQuantity Quantity

	OrderTime   Timestamp
	TimeInForce TimeInForce
	ExpireTime  *Timestamp
	ExpireDate  *Date

	Parties                  []Party
	ShortSaleExemptionReason string

	Session    SessionHandle
	Descriptor InstrumentDescriptor
}

// Leaves returns total_quantity - cum_executed_quantity.
func (o *LimitOrder) Leaves() Quantity {
	return o.TotalQuantity.Sub(o.CumExecutedQuantity)
}

// IsMarket reports whether this order carries no limit price.
func (o *LimitOrder) IsMarket() bool {
	return o.OrderType == OrderTypeMarket
}

// BetterThan reports whether o has strictly better priority than other on
// the same page: better price, or equal price and earlier order_time
// (strict FIFO). Page side determines what "better price" means.
func (o *LimitOrder) BetterThan(other *LimitOrder, sell bool) bool {
	if o.OrderPrice.Equal(other.OrderPrice) {
		return o.OrderTime.Before(other.OrderTime)
	}
	if sell {
		return o.OrderPrice.LessThan(other.OrderPrice)
	}
	return o.OrderPrice.GreaterThan(other.OrderPrice)
}

// Trade records one execution between a resting maker and an arriving
// taker (§3).
type Trade struct {
	TradeId  TradeId
	BuyerId  OrderId
	SellerId OrderId

	InstrumentId   InstrumentId
	TradePrice     Price
	TradedQuantity Quantity
	AggressorSide  AggressorSide // AggressorSideUnknown for book-initiated trades
	TradeTime      Timestamp
	Phase          MarketPhase
}
