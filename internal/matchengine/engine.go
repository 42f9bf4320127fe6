// Package matchengine implements one matching engine per instrument: the
// order book, resting market-data subscriptions, and the operation table
// from §4.3 (place, modify, cancel, expire sweep, market data, state
// query/store/recover).
package matchengine

import (
	"time"

	"go.uber.org/zap"

	"github.com/marketsim/venue/internal/idgen"
	"github.com/marketsim/venue/internal/marketdata"
	"github.com/marketsim/venue/internal/orderbook"
	"github.com/marketsim/venue/internal/validation"
	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// Engine owns everything reachable for one instrument. It is reachable
// only from the runtime thread (§5: "no engine state is shared"), so none
// of its methods take a lock.
type Engine struct {
	Instrument *types.Instrument
	Book       *orderbook.OrderBook
	LastTrade  *types.Trade
	Info       types.InstrumentInfo
	Phase      types.MarketPhase

	venueTZ *time.Location
	gens    *idgen.Generators
	subs    map[types.MarketDataRequestId]*marketdata.Subscription
	logger  *zap.Logger
}

// New builds an engine for inst, starting in the Closed/Resume phase until
// the trading system or an admin request opens it.
func New(inst *types.Instrument, venueTZ *time.Location, gens *idgen.Generators, logger *zap.Logger) *Engine {
	return &Engine{
		Instrument: inst,
		Book:       orderbook.New(),
		Phase:      types.MarketPhase{Phase: types.TradingPhaseClosed, Status: types.TradingStatusResume},
		venueTZ:    venueTZ,
		gens:       gens,
		subs:       make(map[types.MarketDataRequestId]*marketdata.Subscription),
		logger:     logger.With(zap.String("instrument", string(inst.Symbol))),
	}
}

func (e *Engine) orderContext(now types.Timestamp) validation.OrderContext {
	return validation.OrderContext{Instrument: e.Instrument, VenueTZ: e.venueTZ, Now: now}
}

func rejectionText(err error) (code string, text string) {
	return string(errors.CodeOf(err)), err.Error()
}

// InstrumentState answers a synchronous instrument-state query (§4.3),
// which always succeeds.
func (e *Engine) InstrumentState() protocol.InstrumentStateReply {
	return protocol.InstrumentStateReply{
		Instrument: *e.Instrument,
		Phase:      e.Phase,
		Info:       e.Info,
		LastTrade:  e.LastTrade,
	}
}

// StoreState snapshots the book (both pages in priority order), last
// trade, and info for persistence (§4.3 "store state").
func (e *Engine) StoreState() types.InstrumentSnapshot {
	buy, sell := e.Book.Snapshot()
	snap := types.InstrumentSnapshot{
		Instrument: *e.Instrument,
		LastTrade:  e.LastTrade,
		BuyOrders:  buy,
		SellOrders: sell,
	}
	info := e.Info
	snap.Info = &info
	return snap
}

// RecoverState restores the engine from a previously stored snapshot.
// Phase must be Halted; every resting order and the trade tape are
// re-validated, and any violation aborts the recovery leaving the engine
// in its pre-recovery state (§4.3, §7: "partial recovery is never
// observable").
func (e *Engine) RecoverState(snap types.InstrumentSnapshot, now types.Timestamp) error {
	if e.Phase.Phase != types.TradingPhaseHalted {
		return errors.New(errors.CodePhaseDisallowsOperation, "recover state requires the engine to be halted")
	}
	if snap.Instrument.InstrumentId != e.Instrument.InstrumentId {
		return errors.New(errors.CodeSnapshotInstrumentMismatch, "snapshot instrument does not match this engine")
	}

	ctx := e.orderContext(now)
	buyValidator := validation.NewRecoveryOrderValidator(ctx, false)
	sellValidator := validation.NewRecoveryOrderValidator(ctx, true)
	group := errors.NewGroup()
	for i := range snap.BuyOrders {
		group.Add(buyValidator(&snap.BuyOrders[i]))
	}
	for i := range snap.SellOrders {
		group.Add(sellValidator(&snap.SellOrders[i]))
	}
	if snap.LastTrade != nil {
		group.Add(validation.NewTradeValidator(e.Instrument)(snap.LastTrade))
	}
	if snap.Info != nil {
		group.Add(validation.InstrumentInfoValid(e.Instrument)(snap.Info))
	}
	if group.HasErrors() {
		return errors.Wrap(group, errors.CodeSnapshotInvalid, "recovered snapshot failed validation")
	}

	e.Book.Restore(snap.BuyOrders, snap.SellOrders)
	e.LastTrade = snap.LastTrade
	if snap.Info != nil {
		e.Info = *snap.Info
	} else {
		e.Info = types.InstrumentInfo{}
	}
	return nil
}

// TransitionPhase applies a phase/status change. Exiting an auction phase
// triggers uncrossing (§4.3 phase semantics); the returned reports are the
// executions produced by that uncrossing, if any.
func (e *Engine) TransitionPhase(phase types.TradingPhase, status types.TradingStatus, now types.Timestamp) []protocol.ExecutionReport {
	wasAuction := e.Phase.Phase.IsAuction()
	leavingAuction := wasAuction && phase != e.Phase.Phase

	e.Phase = types.MarketPhase{Phase: phase, Status: status}

	if leavingAuction {
		return e.uncross(now)
	}
	return nil
}
