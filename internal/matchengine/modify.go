package matchengine

import (
	"github.com/marketsim/venue/internal/validation"
	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// ModifyOrder applies a price/quantity/TIF change to a resting order
// (§4.3 "modify"/"modification semantics"). A price change or quantity
// increase loses priority (re-inserted with a fresh order_time); a
// quantity-only decrease preserves priority and is applied in place.
func (e *Engine) ModifyOrder(req protocol.ModifyOrderRequest, now types.Timestamp) (*protocol.ExecutionReport, *protocol.OrderCancellationReject) {
	if !e.Phase.AcceptsNewOrders() {
		return nil, &protocol.OrderCancellationReject{
			OrderId:       req.OrderId,
			ClientOrderId: req.ClientOrderId,
			ErrorCode:     string(errors.CodePhaseDisallowsOperation),
			Text:          "instrument phase does not accept modifications",
			Session:       req.Session,
		}
	}

	resting, ok := e.Book.Find(req.OrderId)
	if !ok || !resting.Session.Equal(req.Session) {
		return nil, &protocol.OrderCancellationReject{
			OrderId:       req.OrderId,
			ClientOrderId: req.ClientOrderId,
			ErrorCode:     string(errors.CodeOrderNotFound),
			Text:          "order not found",
			Session:       req.Session,
		}
	}

	candidate := *resting
	priceChanged := !req.NewPrice.IsZero() && !req.NewPrice.Equal(resting.OrderPrice)
	if priceChanged {
		candidate.OrderPrice = req.NewPrice
	}
	qtyChanged := !req.NewTotalQuantity.IsZero() && !req.NewTotalQuantity.Equal(resting.TotalQuantity)
	if qtyChanged {
		candidate.TotalQuantity = req.NewTotalQuantity
	}
	if req.NewTimeInForce != types.TimeInForceUnknown {
		candidate.TimeInForce = req.NewTimeInForce
	}
	if req.NewExpireTime != nil || req.NewExpireDate != nil {
		candidate.ExpireTime = req.NewExpireTime
		candidate.ExpireDate = req.NewExpireDate
	}

	if err := validation.NewOrderValidator(e.orderContext(now))(&candidate); err != nil {
		code, text := rejectionText(err)
		return nil, &protocol.OrderCancellationReject{
			OrderId:       req.OrderId,
			ClientOrderId: req.ClientOrderId,
			ErrorCode:     code,
			Text:          text,
			Session:       req.Session,
		}
	}

	qtyIncreased := qtyChanged && candidate.TotalQuantity.GreaterThan(resting.TotalQuantity)
	losesPriority := priceChanged || qtyIncreased

	candidate.OrderStatus = types.OrderStatusModified
	if losesPriority {
		candidate.OrderTime = now
		e.Book.PageFor(candidate.Side).ReplacePriority(&candidate)
	} else {
		*resting = candidate
	}

	report := protocol.ExecutionReport{
		OrderId:             candidate.OrderId,
		ClientOrderId:       candidate.ClientOrderId,
		ExecType:            types.ExecutionTypeReplaced,
		OrderStatus:         candidate.OrderStatus,
		Side:                candidate.Side,
		OrderPrice:          candidate.OrderPrice,
		TotalQuantity:       candidate.TotalQuantity,
		CumExecutedQuantity: candidate.CumExecutedQuantity,
		TransactTime:        now,
		Session:             req.Session,
	}
	return &report, nil
}
