// Package protocol defines the typed request and reply variants that cross
// the middleware channels between frontends and the trading system (§4.5,
// §6, §9 "variant dispatch"): tagged structs rather than a single envelope,
// dispatched by a type switch at the receiving end.
package protocol

import "github.com/marketsim/venue/pkg/types"

// PlaceOrderRequest covers both limit and market order placement; OrderType
// on the embedded order distinguishes them (§4.3 "place limit"/"place market").
type PlaceOrderRequest struct {
	Session    types.SessionHandle
	Descriptor types.InstrumentDescriptor
	Order      types.LimitOrder
}

// ModifyOrderRequest carries the fields a resting order may change (§4.3
// modification semantics): price, total quantity, TIF/expiry.
type ModifyOrderRequest struct {
	Session       types.SessionHandle
	Descriptor    types.InstrumentDescriptor
	OrderId       types.OrderId
	ClientOrderId types.ClientOrderId

	NewPrice         types.Price
	NewTotalQuantity types.Quantity
	NewTimeInForce   types.TimeInForce
	NewExpireTime    *types.Timestamp
	NewExpireDate    *types.Date
}

// CancelOrderRequest requests immediate removal of a resting order (§4.3
// cancel semantics).
type CancelOrderRequest struct {
	Session       types.SessionHandle
	Descriptor    types.InstrumentDescriptor
	OrderId       types.OrderId
	ClientOrderId types.ClientOrderId
}

// MarketDataRequest covers snapshot/subscribe/unsubscribe (§4.3) — Type
// selects the variant, MaxDepthLevels applies to Snapshot and Subscribe
// (0 = all levels).
type MarketDataRequest struct {
	Session          types.SessionHandle
	Descriptor       types.InstrumentDescriptor
	Type             types.MdSubscriptionRequestType
	RequestId        types.MarketDataRequestId // set by caller for Unsubscribe, assigned by engine for Subscribe
	MaxDepthLevels   int
	IncludeLastTrade bool
}

// InstrumentStateQueryRequest is a synchronous read of an instrument's
// current derived state (§4.3 "instrument-state query").
type InstrumentStateQueryRequest struct {
	Descriptor types.InstrumentDescriptor
}

// StoreStateRequest asks an engine (or, venue-wide, the trading system) to
// snapshot its current state (§4.3 "store state").
type StoreStateRequest struct{}

// RecoverStateRequest asks an engine to restore from a previously stored
// snapshot (§4.3 "recover state"); Phase must be Halted to accept it.
type RecoverStateRequest struct {
	Snapshot types.InstrumentSnapshot
}

// PhaseTransitionRequest drives venue-wide or per-instrument phase/status
// changes (§4.6 admin channel).
type PhaseTransitionRequest struct {
	Descriptor *types.InstrumentDescriptor // nil means venue-wide
	Phase      types.TradingPhase
	Status     types.TradingStatus
}

// SecurityStatusRequest asks for the current MarketPhase of an instrument,
// pushed both on transition and on demand (§9 EXPANSION open-question
// resolution).
type SecurityStatusRequest struct {
	Descriptor types.InstrumentDescriptor
}

// VenueStoreStateRequest asks the trading system to snapshot every engine
// into one venue-level Snapshot (§6) for persistence.
type VenueStoreStateRequest struct{}

// VenueRecoverStateRequest asks the trading system to restore every engine
// from a previously persisted venue-level Snapshot (§4.3 "recover state",
// §7: instrument-set mismatch aborts the whole operation).
type VenueRecoverStateRequest struct {
	Snapshot types.Snapshot
}

// GeneratorAdminOp selects the operation carried by a GeneratorAdminRequest
// (§4.5 item 4, §6 admin surface: "get/start/stop generator").
type GeneratorAdminOp string

const (
	GeneratorAdminOpStatus GeneratorAdminOp = "Status"
	GeneratorAdminOpStart  GeneratorAdminOp = "Start"
	GeneratorAdminOpStop   GeneratorAdminOp = "Stop"
)

// GeneratorAdminRequest carries a lifecycle operation for the out-of-scope
// historical-data replay generator (§1); the trading core only owns the
// channel contract, not the generator's implementation.
type GeneratorAdminRequest struct {
	Op GeneratorAdminOp
}

// SessionEvent notifies the trading-session-event channel's receiver of a
// client session lifecycle event (§4.5 item 5).
type SessionEvent struct {
	Session   types.SessionHandle
	Kind      SessionEventKind
	Reason    string
}

// SessionEventKind distinguishes the kinds of session event the venue
// reacts to.
type SessionEventKind string

const (
	SessionEventKindUnknown     SessionEventKind = ""
	SessionEventKindTerminated  SessionEventKind = "Terminated"
	SessionEventKindEstablished SessionEventKind = "Established"
)
