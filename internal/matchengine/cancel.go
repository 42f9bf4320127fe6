package matchengine

import (
	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// CancelOrder removes a resting order immediately (§4.3 "cancel
// semantics"). Cancels are accepted in every phase (§4.3 phase semantics).
func (e *Engine) CancelOrder(req protocol.CancelOrderRequest, now types.Timestamp) (*protocol.ExecutionReport, *protocol.OrderCancellationReject) {
	if resting, ok := e.Book.Find(req.OrderId); !ok || !resting.Session.Equal(req.Session) {
		return nil, &protocol.OrderCancellationReject{
			OrderId:       req.OrderId,
			ClientOrderId: req.ClientOrderId,
			ErrorCode:     string(errors.CodeOrderNotFound),
			Text:          "order not found or already terminal",
			Session:       req.Session,
		}
	}

	order, _ := e.Book.Remove(req.OrderId)

	order.OrderStatus = types.OrderStatusCancelled
	return &protocol.ExecutionReport{
		OrderId:             order.OrderId,
		ClientOrderId:       order.ClientOrderId,
		ExecType:            types.ExecutionTypeCancelled,
		OrderStatus:         order.OrderStatus,
		Side:                order.Side,
		OrderPrice:          order.OrderPrice,
		TotalQuantity:       order.TotalQuantity,
		CumExecutedQuantity: order.CumExecutedQuantity,
		TransactTime:        now,
		Session:             req.Session,
	}, nil
}
