package matchengine

import (
	"go.uber.org/zap"

	"github.com/marketsim/venue/internal/validation"
	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// matchStep is one resting order's contribution to a planned match, computed
// without mutating the book so Fill-or-Kill can be evaluated before
// anything is applied (§5 "staged" rollback).
type matchStep struct {
	orderId types.OrderId
	price   types.Price
	qty     types.Quantity
}

// PlaceOrder validates and applies a limit or market order placement
// (§4.3 "place limit"/"place market"). The returned error is an internal
// error (e.g. id generation exhaustion) that the caller must propagate
// further up rather than surface as a domain reject (§7).
func (e *Engine) PlaceOrder(req protocol.PlaceOrderRequest, now types.Timestamp) ([]protocol.ExecutionReport, *protocol.OrderPlacementReject, error) {
	if !e.Phase.AcceptsNewOrders() {
		return nil, &protocol.OrderPlacementReject{
			ClientOrderId: req.Order.ClientOrderId,
			Reason:        types.BusinessRejectReasonApplicationError,
			ErrorCode:     string(errors.CodePhaseDisallowsOperation),
			Text:          "instrument phase does not accept new orders",
			Session:       req.Session,
		}, nil
	}

	order := req.Order
	order.InstrumentId = e.Instrument.InstrumentId
	order.Session = req.Session
	order.OrderStatus = types.OrderStatusNew
	order.CumExecutedQuantity = types.ZeroQuantity()
	if order.OrderTime.IsZero() {
		order.OrderTime = now
	}

	if err := validation.NewOrderValidator(e.orderContext(now))(&order); err != nil {
		code, text := rejectionText(err)
		return nil, &protocol.OrderPlacementReject{
			ClientOrderId: order.ClientOrderId,
			Reason:        types.BusinessRejectReasonApplicationError,
			ErrorCode:     code,
			Text:          text,
			Session:       req.Session,
		}, nil
	}

	opposite := e.Book.OppositePageFor(order.Side)
	if order.IsMarket() && opposite.Len() == 0 {
		return nil, &protocol.OrderPlacementReject{
			ClientOrderId: order.ClientOrderId,
			Reason:        types.BusinessRejectReasonApplicationError,
			ErrorCode:     string(errors.CodeNoLiquidity),
			Text:          "market order has no liquidity on the opposite side",
			Session:       req.Session,
		}, nil
	}

	if !e.Phase.MatchesImmediately() {
		if order.TimeInForce == types.TimeInForceImmediateOrCancel || order.TimeInForce == types.TimeInForceFillOrKill {
			return nil, &protocol.OrderPlacementReject{
				ClientOrderId: order.ClientOrderId,
				Reason:        types.BusinessRejectReasonApplicationError,
				ErrorCode:     string(errors.CodePhaseDisallowsOperation),
				Text:          "IOC/FOK orders cannot be accepted outside continuous trading",
				Session:       req.Session,
			}, nil
		}
		id, err := e.gens.NextOrderId()
		if err != nil {
			return nil, nil, err
		}
		order.OrderId = id
		e.Book.PageFor(order.Side).Insert(&order)
		return []protocol.ExecutionReport{e.newOrderReport(&order, now)}, nil, nil
	}

	id, err := e.gens.NextOrderId()
	if err != nil {
		return nil, nil, err
	}
	order.OrderId = id

	steps := e.planMatch(&order)
	if order.TimeInForce == types.TimeInForceFillOrKill && !planSatisfies(steps, order.Leaves()) {
		return nil, &protocol.OrderPlacementReject{
			ClientOrderId: order.ClientOrderId,
			Reason:        types.BusinessRejectReasonApplicationError,
			ErrorCode:     string(errors.CodeFillOrKillUnsatisfied),
			Text:          "order could not be filled in its entirety",
			Session:       req.Session,
		}, nil
	}

	reports, err := e.applyMatch(&order, steps, now, req.Session)
	if err != nil {
		return reports, nil, err
	}
	return reports, nil, nil
}

// planMatch walks the opposite page in priority order, computing how much
// of the taker's residual quantity each resting order would absorb,
// without mutating any state.
func (e *Engine) planMatch(taker *types.LimitOrder) []matchStep {
	opposite := e.Book.OppositePageFor(taker.Side)
	remaining := taker.Leaves()
	var steps []matchStep

	for _, lvl := range opposite.Levels() {
		if remaining.IsZero() {
			break
		}
		if !priceCompatible(taker, lvl.Price) {
			break
		}
		for _, resting := range lvl.Orders() {
			if remaining.IsZero() {
				break
			}
			m := remaining.Min(resting.Leaves())
			steps = append(steps, matchStep{orderId: resting.OrderId, price: lvl.Price, qty: m})
			remaining = remaining.Sub(m)
		}
	}
	return steps
}

func planSatisfies(steps []matchStep, leaves types.Quantity) bool {
	total := types.ZeroQuantity()
	for _, s := range steps {
		total = total.Add(s.qty)
	}
	return total.Equal(leaves)
}

// priceCompatible reports whether a resting order at restingPrice is
// willing to trade against taker (§4.3 step 1: "buy: taker.price ≥
// best.price or taker is market; sell: taker.price ≤ best.price").
func priceCompatible(taker *types.LimitOrder, restingPrice types.Price) bool {
	if taker.IsMarket() {
		return true
	}
	if taker.Side.IsSell() {
		return !taker.OrderPrice.GreaterThan(restingPrice)
	}
	return !taker.OrderPrice.LessThan(restingPrice)
}

// applyMatch executes a previously computed plan against the book,
// emitting a Trade and two ExecutionReports per step, then disposes of the
// taker's residual quantity per its time-in-force (§4.3 steps 1-2).
func (e *Engine) applyMatch(taker *types.LimitOrder, steps []matchStep, now types.Timestamp, session types.SessionHandle) ([]protocol.ExecutionReport, error) {
	var reports []protocol.ExecutionReport

	for _, step := range steps {
		resting, ok := e.Book.Find(step.orderId)
		if !ok {
			continue
		}

		tradeId, err := e.gens.NextTradeId()
		if err != nil {
			return reports, err
		}
		trade := e.buildTrade(tradeId, taker, resting, step.price, step.qty, now)

		taker.CumExecutedQuantity = taker.CumExecutedQuantity.Add(step.qty)
		resting.CumExecutedQuantity = resting.CumExecutedQuantity.Add(step.qty)

		restingFilled := resting.Leaves().IsZero()
		if restingFilled {
			resting.OrderStatus = types.OrderStatusFilled
			e.Book.Remove(resting.OrderId)
		} else {
			resting.OrderStatus = types.OrderStatusPartiallyFilled
		}

		e.updateInfo(step.price)
		e.LastTrade = &trade

		takerReport, err := e.tradeReport(taker, &trade, now, session)
		if err != nil {
			return reports, err
		}
		restingReport, err := e.tradeReport(resting, &trade, now, resting.Session)
		if err != nil {
			return reports, err
		}
		reports = append(reports, takerReport, restingReport)

		e.logger.Debug("trade executed",
			zap.Int64("trade_id", int64(trade.TradeId)),
			zap.String("price", trade.TradePrice.String()),
			zap.String("quantity", trade.TradedQuantity.String()))
	}

	if taker.Leaves().IsZero() {
		taker.OrderStatus = types.OrderStatusFilled
		return reports, nil
	}

	if taker.TimeInForce == types.TimeInForceImmediateOrCancel || (taker.IsMarket() && !taker.Leaves().IsZero()) {
		taker.OrderStatus = types.OrderStatusCancelled
		reports = append(reports, e.cancelReport(taker, now, session))
		return reports, nil
	}

	if len(steps) > 0 {
		taker.OrderStatus = types.OrderStatusPartiallyFilled
	}
	e.Book.PageFor(taker.Side).Insert(taker)
	if len(steps) == 0 {
		reports = append(reports, e.newOrderReport(taker, now))
	}
	return reports, nil
}

func (e *Engine) buildTrade(id types.TradeId, taker, resting *types.LimitOrder, price types.Price, qty types.Quantity, now types.Timestamp) types.Trade {
	trade := types.Trade{
		TradeId:        id,
		InstrumentId:   e.Instrument.InstrumentId,
		TradePrice:     price,
		TradedQuantity: qty,
		AggressorSide:  aggressorSide(taker.Side),
		TradeTime:      now,
		Phase:          e.Phase,
	}
	if taker.Side.IsSell() {
		trade.SellerId = taker.OrderId
		trade.BuyerId = resting.OrderId
	} else {
		trade.BuyerId = taker.OrderId
		trade.SellerId = resting.OrderId
	}
	return trade
}

func aggressorSide(side types.Side) types.AggressorSide {
	if side.IsSell() {
		return types.AggressorSideSell
	}
	return types.AggressorSideBuy
}

func (e *Engine) updateInfo(tradePrice types.Price) {
	if e.Info.LowPrice.IsZero() && e.Info.HighPrice.IsZero() {
		e.Info.LowPrice = tradePrice
		e.Info.HighPrice = tradePrice
		return
	}
	if tradePrice.LessThan(e.Info.LowPrice) {
		e.Info.LowPrice = tradePrice
	}
	if tradePrice.GreaterThan(e.Info.HighPrice) {
		e.Info.HighPrice = tradePrice
	}
}

func (e *Engine) tradeReport(o *types.LimitOrder, trade *types.Trade, now types.Timestamp, session types.SessionHandle) (protocol.ExecutionReport, error) {
	execId, err := e.gens.NextExecutionId()
	if err != nil {
		return protocol.ExecutionReport{}, err
	}
	return protocol.ExecutionReport{
		ExecutionId:         execId,
		OrderId:             o.OrderId,
		ClientOrderId:       o.ClientOrderId,
		ExecType:            types.ExecutionTypeTrade,
		OrderStatus:         o.OrderStatus,
		Side:                o.Side,
		OrderPrice:          o.OrderPrice,
		TotalQuantity:       o.TotalQuantity,
		CumExecutedQuantity: o.CumExecutedQuantity,
		LastPrice:           trade.TradePrice,
		LastQuantity:        trade.TradedQuantity,
		TransactTime:        now,
		Session:             session,
	}, nil
}

func (e *Engine) newOrderReport(o *types.LimitOrder, now types.Timestamp) protocol.ExecutionReport {
	return protocol.ExecutionReport{
		OrderId:             o.OrderId,
		ClientOrderId:       o.ClientOrderId,
		ExecType:            types.ExecutionTypeNew,
		OrderStatus:         o.OrderStatus,
		Side:                o.Side,
		OrderPrice:          o.OrderPrice,
		TotalQuantity:       o.TotalQuantity,
		CumExecutedQuantity: o.CumExecutedQuantity,
		TransactTime:        now,
		Session:             o.Session,
	}
}

func (e *Engine) cancelReport(o *types.LimitOrder, now types.Timestamp, session types.SessionHandle) protocol.ExecutionReport {
	return protocol.ExecutionReport{
		OrderId:             o.OrderId,
		ClientOrderId:       o.ClientOrderId,
		ExecType:            types.ExecutionTypeCancelled,
		OrderStatus:         o.OrderStatus,
		Side:                o.Side,
		OrderPrice:          o.OrderPrice,
		TotalQuantity:       o.TotalQuantity,
		CumExecutedQuantity: o.CumExecutedQuantity,
		TransactTime:        now,
		Session:             session,
	}
}
