package middleware

import (
	"go.uber.org/zap"

	"github.com/marketsim/venue/pkg/protocol"
)

// RequestChannels bundles the async request-side variants of the
// trading-request channel (§4.5 item 1) plus its one synchronous variant
// (instrument-state query). Modeled as an explicit registry struct passed
// by reference, per §9's "process-wide singletons" design note, rather than
// raw package globals.
type RequestChannels struct {
	PlaceOrder      *Channel[protocol.PlaceOrderRequest]
	ModifyOrder     *Channel[protocol.ModifyOrderRequest]
	CancelOrder     *Channel[protocol.CancelOrderRequest]
	MarketData      *Channel[protocol.MarketDataRequest]
	SecurityStatus  *Channel[protocol.SecurityStatusRequest]
	InstrumentState *SyncChannel[protocol.InstrumentStateQueryRequest, protocol.InstrumentStateReply]
}

// NewRequestChannels builds a fresh, unbound set of request channels, each
// async channel queued to queueSize (§5).
func NewRequestChannels(queueSize int, logger *zap.Logger) *RequestChannels {
	return &RequestChannels{
		PlaceOrder:      NewChannel[protocol.PlaceOrderRequest](queueSize, logger),
		ModifyOrder:     NewChannel[protocol.ModifyOrderRequest](queueSize, logger),
		CancelOrder:     NewChannel[protocol.CancelOrderRequest](queueSize, logger),
		MarketData:      NewChannel[protocol.MarketDataRequest](queueSize, logger),
		SecurityStatus:  NewChannel[protocol.SecurityStatusRequest](queueSize, logger),
		InstrumentState: NewSyncChannel[protocol.InstrumentStateQueryRequest, protocol.InstrumentStateReply](),
	}
}

// Close stops every async channel's dispatch goroutine.
func (c *RequestChannels) Close() {
	c.PlaceOrder.Close()
	c.ModifyOrder.Close()
	c.CancelOrder.Close()
	c.MarketData.Close()
	c.SecurityStatus.Close()
}

// ReplyChannels bundles the trading-reply channel's per-variant async
// deliveries (§4.5 item 2), each fanned out across its own bounded worker
// pool.
type ReplyChannels struct {
	ExecutionReport         *ReplyChannel[protocol.ExecutionReport]
	OrderPlacementReject    *ReplyChannel[protocol.OrderPlacementReject]
	OrderCancellationReject *ReplyChannel[protocol.OrderCancellationReject]
	BusinessMessageReject   *ReplyChannel[protocol.BusinessMessageReject]
	MarketDataSnapshot      *ReplyChannel[protocol.MarketDataSnapshot]
	MarketDataUpdate        *ReplyChannel[protocol.MarketDataUpdate]
	MarketDataRequestReject *ReplyChannel[protocol.MarketDataRequestReject]
	SecurityStatus          *ReplyChannel[protocol.SecurityStatus]
}

// NewReplyChannels builds a fresh, unbound set of reply channels, each
// worker pool sized to poolSize concurrent deliveries.
func NewReplyChannels(poolSize int) (*ReplyChannels, error) {
	var rc ReplyChannels
	var err error

	if rc.ExecutionReport, err = NewReplyChannel[protocol.ExecutionReport](poolSize); err != nil {
		return nil, err
	}
	if rc.OrderPlacementReject, err = NewReplyChannel[protocol.OrderPlacementReject](poolSize); err != nil {
		return nil, err
	}
	if rc.OrderCancellationReject, err = NewReplyChannel[protocol.OrderCancellationReject](poolSize); err != nil {
		return nil, err
	}
	if rc.BusinessMessageReject, err = NewReplyChannel[protocol.BusinessMessageReject](poolSize); err != nil {
		return nil, err
	}
	if rc.MarketDataSnapshot, err = NewReplyChannel[protocol.MarketDataSnapshot](poolSize); err != nil {
		return nil, err
	}
	if rc.MarketDataUpdate, err = NewReplyChannel[protocol.MarketDataUpdate](poolSize); err != nil {
		return nil, err
	}
	if rc.MarketDataRequestReject, err = NewReplyChannel[protocol.MarketDataRequestReject](poolSize); err != nil {
		return nil, err
	}
	if rc.SecurityStatus, err = NewReplyChannel[protocol.SecurityStatus](poolSize); err != nil {
		return nil, err
	}
	return &rc, nil
}

// Close releases every reply channel's worker pool.
func (c *ReplyChannels) Close() {
	c.ExecutionReport.Close()
	c.OrderPlacementReject.Close()
	c.OrderCancellationReject.Close()
	c.BusinessMessageReject.Close()
	c.MarketDataSnapshot.Close()
	c.MarketDataUpdate.Close()
	c.MarketDataRequestReject.Close()
	c.SecurityStatus.Close()
}

// AdminChannels bundles the trading-admin channel (§4.5 item 3: phase
// halt/resume, venue-wide store/recover) and the generator-admin channel
// (§4.5 item 4).
type AdminChannels struct {
	PhaseTransition *SyncChannel[protocol.PhaseTransitionRequest, protocol.AdminReply]
	StoreState      *SyncChannel[protocol.VenueStoreStateRequest, protocol.VenueStoreStateReply]
	RecoverState    *SyncChannel[protocol.VenueRecoverStateRequest, protocol.VenueRecoverStateReply]
	Generator       *SyncChannel[protocol.GeneratorAdminRequest, protocol.GeneratorAdminReply]
}

// NewAdminChannels builds a fresh, unbound set of admin channels.
func NewAdminChannels() *AdminChannels {
	return &AdminChannels{
		PhaseTransition: NewSyncChannel[protocol.PhaseTransitionRequest, protocol.AdminReply](),
		StoreState:      NewSyncChannel[protocol.VenueStoreStateRequest, protocol.VenueStoreStateReply](),
		RecoverState:    NewSyncChannel[protocol.VenueRecoverStateRequest, protocol.VenueRecoverStateReply](),
		Generator:       NewSyncChannel[protocol.GeneratorAdminRequest, protocol.GeneratorAdminReply](),
	}
}

// SessionEventChannel is the trading-session-event channel (§4.5 item 5).
type SessionEventChannel = Channel[protocol.SessionEvent]

// NewSessionEventChannel builds a fresh, unbound session-event channel.
func NewSessionEventChannel(queueSize int, logger *zap.Logger) *SessionEventChannel {
	return NewChannel[protocol.SessionEvent](queueSize, logger)
}

// Channels is the process-wide registry of every middleware channel the
// venue exposes (§4.5, §9: "a small set of global channels only at the
// very top edge"). Frontends obtain their channel references from here
// rather than from package-level globals.
type Channels struct {
	Request *RequestChannels
	Reply   *ReplyChannels
	Admin   *AdminChannels
	Session *SessionEventChannel
}

// NewChannels builds the full process-wide channel registry.
func NewChannels(requestQueueSize, replyPoolSize int, logger *zap.Logger) (*Channels, error) {
	reply, err := NewReplyChannels(replyPoolSize)
	if err != nil {
		return nil, err
	}
	return &Channels{
		Request: NewRequestChannels(requestQueueSize, logger),
		Reply:   reply,
		Admin:   NewAdminChannels(),
		Session: NewSessionEventChannel(requestQueueSize, logger),
	}, nil
}

// Close tears down every channel's background resources.
func (c *Channels) Close() {
	c.Request.Close()
	c.Reply.Close()
	c.Session.Close()
}
