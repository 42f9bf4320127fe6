package protocol

import "github.com/marketsim/venue/pkg/types"

// ExecutionReport is emitted for every order lifecycle event: new, trade,
// cancelled, replaced, expired (§4.3, §7).
type ExecutionReport struct {
	ExecutionId   types.ExecutionId
	OrderId       types.OrderId
	ClientOrderId types.ClientOrderId
	ExecType      types.ExecutionType
	OrderStatus   types.OrderStatus

	Side                types.Side
	OrderPrice          types.Price
	TotalQuantity       types.Quantity
	CumExecutedQuantity types.Quantity
	LastPrice           types.Price
	LastQuantity        types.Quantity

	TransactTime types.Timestamp
	Session      types.SessionHandle
}

// OrderPlacementReject rejects an order placement (§4.3 place limit/market,
// §4.4 validation, §5 FillOrKill rollback).
type OrderPlacementReject struct {
	ClientOrderId types.ClientOrderId
	Reason        types.BusinessRejectReason
	ErrorCode     string
	Text          string // bounded 256 bytes per §6
	Session       types.SessionHandle
}

// OrderCancellationReject rejects a cancel or modify request that
// references a missing/already-terminal order (§4.3 cancel semantics).
type OrderCancellationReject struct {
	OrderId       types.OrderId
	ClientOrderId types.ClientOrderId
	ErrorCode     string
	Text          string
	Session       types.SessionHandle
}

// BusinessMessageReject surfaces session-layer/resolution errors — unknown
// symbol, ambiguous instrument, internal errors (§6, §7).
type BusinessMessageReject struct {
	RefMessageType types.RejectedMessageType
	Reason         types.BusinessRejectReason
	Text           string
	Session        types.SessionHandle
}

// PriceLevelEntry is one aggregated price level in a market-data
// snapshot/update (§4.3 aggregation rule: same-price entries summed).
type PriceLevelEntry struct {
	EntryType types.MdEntryType
	Action    types.MarketEntryAction
	Price     types.Price
	Quantity  types.Quantity
	PartyIds  []types.PartyId
}

// MarketDataSnapshot is a full walk of the book to max_depth_levels (§4.3).
type MarketDataSnapshot struct {
	RequestId  types.MarketDataRequestId
	Descriptor types.InstrumentDescriptor
	Bids       []PriceLevelEntry
	Offers     []PriceLevelEntry
	LastTrade  *types.Trade
	Session    types.SessionHandle
}

// MarketDataUpdate is an incremental diff against a subscription's prior
// known state (§4.3: New/Change/Delete per price level).
type MarketDataUpdate struct {
	RequestId  types.MarketDataRequestId
	Descriptor types.InstrumentDescriptor
	Entries    []PriceLevelEntry
	Session    types.SessionHandle
}

// MarketDataRequestReject rejects a snapshot/subscribe/unsubscribe request
// (§4.3): PhaseDisallows while halted, otherwise InvalidRequest (including
// an unsubscribe for an unknown subscription).
type MarketDataRequestReject struct {
	RequestId types.MarketDataRequestId
	Reason    types.MdRejectReason
	Text      string
	Session   types.SessionHandle
}

// SecurityStatus reports an instrument's current MarketPhase, pushed on
// every phase transition and on new subscription (§9 EXPANSION).
type SecurityStatus struct {
	Descriptor types.InstrumentDescriptor
	Phase      types.MarketPhase
	Session    types.SessionHandle
}

// InstrumentStateReply answers an instrument-state query (§4.3) — always
// succeeds.
type InstrumentStateReply struct {
	Instrument types.Instrument
	Phase      types.MarketPhase
	Info       types.InstrumentInfo
	LastTrade  *types.Trade
}

// Result is the outcome of a synchronous admin operation (§6: "Success,
// Error{code, reason}").
type Result struct {
	Success bool
	Code    string
	Reason  string
}

// Ok builds a successful Result.
func Ok() Result { return Result{Success: true} }

// Err builds a failed Result.
func Err(code, reason string) Result {
	return Result{Success: false, Code: code, Reason: reason}
}

// StoreStateReply carries the outcome of a store-state admin request,
// including the snapshot produced on success.
type StoreStateReply struct {
	Result   Result
	Snapshot *types.InstrumentSnapshot
}

// RecoverStateReply carries the outcome of a recover-state admin request.
type RecoverStateReply struct {
	Result Result
}

// AdminReply is the aggregate reply for a venue-wide admin operation that
// sequences across every engine (§4.6): PerInstrument preserves per-engine
// detail, Overall carries the result of the operation as a whole.
type AdminReply struct {
	Overall       Result
	PerInstrument map[types.InstrumentId]Result
}

// VenueStoreStateReply carries the outcome of a venue-wide store-state
// admin request (§6), including the full Snapshot produced on success.
type VenueStoreStateReply struct {
	Overall       Result
	PerInstrument map[types.InstrumentId]Result
	Snapshot      *types.Snapshot
}

// VenueRecoverStateReply carries the outcome of a venue-wide recover-state
// admin request (§4.3: instrument-set mismatch or any per-order violation
// aborts the whole operation, leaving every engine in its pre-recovery
// state, §7).
type VenueRecoverStateReply struct {
	Overall       Result
	PerInstrument map[types.InstrumentId]Result
}

// GeneratorAdminReply answers a GeneratorAdminRequest (§6 admin surface).
type GeneratorAdminReply struct {
	Result  Result
	Running bool
}
