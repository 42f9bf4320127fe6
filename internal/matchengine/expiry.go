package matchengine

import (
	"github.com/marketsim/venue/internal/orderbook"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// ExpireSweep removes every resting order whose time-in-force has lapsed
// as of now (§4.3 "expiry sweep"), driven externally by the runtime loop
// at 1 Hz. Expiry at exactly the cutoff second is inclusive.
func (e *Engine) ExpireSweep(now types.Timestamp) []protocol.ExecutionReport {
	today := now.DateInVenueTZ(e.venueTZ)

	var expired []types.OrderId
	collect := func(page *orderbook.Page) {
		for _, lvl := range page.Levels() {
			for _, o := range lvl.Orders() {
				if e.orderExpired(o, now, today) {
					expired = append(expired, o.OrderId)
				}
			}
		}
	}
	collect(e.Book.Buy)
	collect(e.Book.Sell)

	var reports []protocol.ExecutionReport
	for _, id := range expired {
		order, ok := e.Book.Remove(id)
		if !ok {
			continue
		}
		order.OrderStatus = types.OrderStatusExpired
		reports = append(reports, protocol.ExecutionReport{
			OrderId:             order.OrderId,
			ClientOrderId:       order.ClientOrderId,
			ExecType:            types.ExecutionTypeExpired,
			OrderStatus:         order.OrderStatus,
			Side:                order.Side,
			OrderPrice:          order.OrderPrice,
			TotalQuantity:       order.TotalQuantity,
			CumExecutedQuantity: order.CumExecutedQuantity,
			TransactTime:        now,
			Session:             order.Session,
		})
	}
	return reports
}

// orderExpired reports whether o's time-in-force has lapsed as of now/today
// (venue TZ): Day orders expire once their order_time's date is before
// today; GoodTillDate orders expire once their expire_time/expire_date has
// elapsed, inclusive of the cutoff instant.
func (e *Engine) orderExpired(o *types.LimitOrder, now types.Timestamp, today types.Date) bool {
	switch o.TimeInForce {
	case types.TimeInForceDay:
		orderDate := o.OrderTime.DateInVenueTZ(e.venueTZ)
		return orderDate.Before(today)
	case types.TimeInForceGoodTillDate:
		if o.ExpireTime != nil && !now.Before(*o.ExpireTime) {
			return true
		}
		if o.ExpireDate != nil && !today.Before(*o.ExpireDate) {
			return true
		}
	}
	return false
}
