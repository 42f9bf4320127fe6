package matchengine

import (
	"github.com/marketsim/venue/internal/marketdata"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// HandleMarketDataRequest services a snapshot, subscribe, or unsubscribe
// request (§4.3 "market-data request: *"). Snapshot and subscribe are
// rejected outright in Halted (§4.3 phase semantics); unsubscribe always
// succeeds against a known subscription.
func (e *Engine) HandleMarketDataRequest(req protocol.MarketDataRequest, now types.Timestamp) (*protocol.MarketDataSnapshot, *protocol.MarketDataRequestReject) {
	switch req.Type {
	case types.MdSubscriptionRequestTypeUnsubscribe:
		if _, ok := e.subs[req.RequestId]; !ok {
			return nil, &protocol.MarketDataRequestReject{
				RequestId: req.RequestId,
				Reason:    types.MdRejectReasonInvalidRequest,
				Text:      "subscription not found",
				Session:   req.Session,
			}
		}
		delete(e.subs, req.RequestId)
		return nil, nil

	case types.MdSubscriptionRequestTypeSnapshot, types.MdSubscriptionRequestTypeSubscribe:
		if e.Phase.Phase == types.TradingPhaseHalted {
			return nil, &protocol.MarketDataRequestReject{
				RequestId: req.RequestId,
				Reason:    types.MdRejectReasonPhaseDisallows,
				Text:      "market data requests are rejected while halted",
				Session:   req.Session,
			}
		}

		requestId := req.RequestId
		if req.Type == types.MdSubscriptionRequestTypeSubscribe {
			id, err := e.gens.NextMarketDataRequestId()
			if err != nil {
				return nil, &protocol.MarketDataRequestReject{
					RequestId: req.RequestId,
					Reason:    types.MdRejectReasonInvalidRequest,
					Text:      err.Error(),
					Session:   req.Session,
				}
			}
			requestId = id
		}

		snap := marketdata.BuildSnapshot(requestId, req.Descriptor, e.Book, req.MaxDepthLevels, e.LastTrade, req.IncludeLastTrade, req.Session)

		if req.Type == types.MdSubscriptionRequestTypeSubscribe {
			e.subs[requestId] = marketdata.NewSubscription(requestId, req.Descriptor, req.MaxDepthLevels, req.IncludeLastTrade, req.Session, e.Book)
		}
		return &snap, nil

	default:
		return nil, &protocol.MarketDataRequestReject{
			RequestId: req.RequestId,
			Reason:    types.MdRejectReasonInvalidRequest,
			Text:      "unknown market data request type",
			Session:   req.Session,
		}
	}
}

// PublishUpdates diffs every active subscription against the book's
// current state and returns one coalesced MarketDataUpdate per
// subscription with a non-empty diff (§9 EXPANSION: coalesce-per-request,
// not per-event). Callers invoke this once after each mutating operation
// (place/modify/cancel/expire sweep/uncross) has fully completed.
func (e *Engine) PublishUpdates() []protocol.MarketDataUpdate {
	var updates []protocol.MarketDataUpdate
	for _, sub := range e.subs {
		entries := sub.Diff(e.Book)
		if len(entries) == 0 {
			continue
		}
		updates = append(updates, protocol.MarketDataUpdate{
			RequestId:  sub.RequestId,
			Descriptor: sub.Descriptor,
			Entries:    entries,
			Session:    sub.Session,
		})
	}
	return updates
}

// SubscriptionCount reports how many active market-data subscriptions the
// engine currently holds, for diagnostics and tests.
func (e *Engine) SubscriptionCount() int {
	return len(e.subs)
}

// SubscriberSessions returns the session handle of every active market-data
// subscriber, for pushing a SecurityStatus to each of them on a phase
// transition (§9 EXPANSION open-question resolution).
func (e *Engine) SubscriberSessions() []types.SessionHandle {
	sessions := make([]types.SessionHandle, 0, len(e.subs))
	for _, sub := range e.subs {
		sessions = append(sessions, sub.Session)
	}
	return sessions
}
