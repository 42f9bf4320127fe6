// Package tradingsystem implements the venue's single process-wide
// dispatcher (§4.6): it owns the instrument registry and one matching
// engine per instrument, resolves every request's instrument descriptor,
// and forwards to the owning engine. It implements every trading-request,
// trading-admin, and market-data receiver contract the middleware channels
// (§4.5) expect to bind.
package tradingsystem

import (
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/marketsim/venue/internal/idgen"
	"github.com/marketsim/venue/internal/matchengine"
	"github.com/marketsim/venue/internal/middleware"
	"github.com/marketsim/venue/internal/persistence"
	"github.com/marketsim/venue/internal/registry"
	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

// TradingSystem is the venue's single instance of this type per process
// (§4.6). All engine access is serialized through mu, which stands in for
// the "runtime thread" of §5: a request is dispatched to completion
// (including every emitted report and market-data update) before mu is
// released for the next one, giving the atomicity §5 requires even though
// requests may arrive concurrently from several bound middleware channels.
type TradingSystem struct {
	mu sync.Mutex

	registry *registry.Registry
	engines  map[types.InstrumentId]*matchengine.Engine
	order    []types.InstrumentId

	venueTZ      *time.Location
	gens         *idgen.Generators
	snapshotPath string

	channels *middleware.Channels
	logger   *zap.Logger

	generatorRunning bool
}

// New builds a trading system with one fresh engine per registered
// instrument, all starting Closed/Resume until an admin phase transition
// opens them (§4.3).
func New(reg *registry.Registry, venueTZ *time.Location, snapshotPath string, channels *middleware.Channels, logger *zap.Logger) *TradingSystem {
	gens := idgen.NewGenerators()
	ts := &TradingSystem{
		registry:     reg,
		engines:      make(map[types.InstrumentId]*matchengine.Engine),
		order:        reg.All(),
		venueTZ:      venueTZ,
		gens:         gens,
		snapshotPath: snapshotPath,
		channels:     channels,
		logger:       logger,
	}
	for _, id := range ts.order {
		inst, _ := reg.Get(id)
		ts.engines[id] = matchengine.New(inst, venueTZ, gens, logger)
	}
	return ts
}

// Bind installs the trading system as the receiver of every channel in
// channels. Safe only from the orchestration thread (§4.5).
func (ts *TradingSystem) Bind(channels *middleware.Channels) {
	channels.Request.PlaceOrder.Bind(placeOrderReceiver{ts})
	channels.Request.ModifyOrder.Bind(modifyOrderReceiver{ts})
	channels.Request.CancelOrder.Bind(cancelOrderReceiver{ts})
	channels.Request.MarketData.Bind(marketDataReceiver{ts})
	channels.Request.SecurityStatus.Bind(securityStatusReceiver{ts})
	channels.Request.InstrumentState.Bind(instrumentStateReceiver{ts})
	channels.Admin.PhaseTransition.Bind(phaseTransitionReceiver{ts})
	channels.Admin.StoreState.Bind(storeStateReceiver{ts})
	channels.Admin.RecoverState.Bind(recoverStateReceiver{ts})
	channels.Admin.Generator.Bind(generatorReceiver{ts})
}

func (ts *TradingSystem) resolve(desc types.InstrumentDescriptor) (*matchengine.Engine, error) {
	id, err := ts.registry.Resolve(desc)
	if err != nil {
		return nil, err
	}
	return ts.engines[id], nil
}

func (ts *TradingSystem) businessReject(refType types.RejectedMessageType, session types.SessionHandle, err error) {
	code := errors.CodeOf(err)
	reason := types.BusinessRejectReasonApplicationError
	switch code {
	case errors.CodeUnknownSymbol:
		reason = types.BusinessRejectReasonUnknownSymbol
	case errors.CodeAmbiguousInstrument:
		reason = types.BusinessRejectReasonAmbiguousInstrument
	case errors.CodeInsufficientInstrumentInfo:
		reason = types.BusinessRejectReasonInsufficientInfo
	}
	if sendErr := ts.channels.Reply.BusinessMessageReject.Send(protocol.BusinessMessageReject{
		RefMessageType: refType,
		Reason:         reason,
		Text:           err.Error(),
		Session:        session,
	}); sendErr != nil {
		ts.logger.Warn("failed to deliver business message reject", zap.Error(sendErr))
	}
}

func (ts *TradingSystem) sendReports(reports []protocol.ExecutionReport) {
	for _, r := range reports {
		if err := ts.channels.Reply.ExecutionReport.Send(r); err != nil {
			ts.logger.Warn("failed to deliver execution report", zap.Error(err))
		}
	}
}

// publishMarketData diffs e's subscriptions once after a completed mutating
// operation (§9 EXPANSION: coalesce-per-request) and pushes any non-empty
// update to the reply channel.
func (ts *TradingSystem) publishMarketData(e *matchengine.Engine) {
	for _, u := range e.PublishUpdates() {
		if err := ts.channels.Reply.MarketDataUpdate.Send(u); err != nil {
			ts.logger.Warn("failed to deliver market data update", zap.Error(err))
		}
	}
}

// pushSecurityStatus notifies every active subscriber of e's current phase
// (§9 EXPANSION open-question resolution: pushed on every phase
// transition, in addition to on new subscription).
func (ts *TradingSystem) pushSecurityStatus(e *matchengine.Engine, descriptor types.InstrumentDescriptor, sessions []types.SessionHandle) {
	for _, session := range sessions {
		if err := ts.channels.Reply.SecurityStatus.Send(protocol.SecurityStatus{
			Descriptor: descriptor,
			Phase:      e.Phase,
			Session:    session,
		}); err != nil {
			ts.logger.Warn("failed to deliver security status", zap.Error(err))
		}
	}
}

// --- place order ---

type placeOrderReceiver struct{ ts *TradingSystem }

func (r placeOrderReceiver) Process(req protocol.PlaceOrderRequest) {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	e, err := ts.resolve(req.Descriptor)
	if err != nil {
		ts.businessReject(types.RejectedMessageTypeOrderPlacement, req.Session, err)
		return
	}

	now := types.Now()
	reports, reject, err := e.PlaceOrder(req, now)
	if err != nil {
		ts.logger.Error("internal error placing order", zap.Error(err))
		ts.businessReject(types.RejectedMessageTypeOrderPlacement, req.Session, err)
		return
	}
	if reject != nil {
		if sendErr := ts.channels.Reply.OrderPlacementReject.Send(*reject); sendErr != nil {
			ts.logger.Warn("failed to deliver order placement reject", zap.Error(sendErr))
		}
		return
	}
	ts.sendReports(reports)
	ts.publishMarketData(e)
}

// --- modify order ---

type modifyOrderReceiver struct{ ts *TradingSystem }

func (r modifyOrderReceiver) Process(req protocol.ModifyOrderRequest) {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	e, err := ts.resolve(req.Descriptor)
	if err != nil {
		ts.businessReject(types.RejectedMessageTypeOrderModification, req.Session, err)
		return
	}

	now := types.Now()
	report, reject := e.ModifyOrder(req, now)
	if reject != nil {
		if sendErr := ts.channels.Reply.OrderCancellationReject.Send(*reject); sendErr != nil {
			ts.logger.Warn("failed to deliver modify reject", zap.Error(sendErr))
		}
		return
	}
	ts.sendReports([]protocol.ExecutionReport{*report})
	ts.publishMarketData(e)
}

// --- cancel order ---

type cancelOrderReceiver struct{ ts *TradingSystem }

func (r cancelOrderReceiver) Process(req protocol.CancelOrderRequest) {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	e, err := ts.resolve(req.Descriptor)
	if err != nil {
		ts.businessReject(types.RejectedMessageTypeOrderCancellation, req.Session, err)
		return
	}

	now := types.Now()
	report, reject := e.CancelOrder(req, now)
	if reject != nil {
		if sendErr := ts.channels.Reply.OrderCancellationReject.Send(*reject); sendErr != nil {
			ts.logger.Warn("failed to deliver cancel reject", zap.Error(sendErr))
		}
		return
	}
	ts.sendReports([]protocol.ExecutionReport{*report})
	ts.publishMarketData(e)
}

// --- market data ---

type marketDataReceiver struct{ ts *TradingSystem }

func (r marketDataReceiver) Process(req protocol.MarketDataRequest) {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	e, err := ts.resolve(req.Descriptor)
	if err != nil {
		ts.businessReject(types.RejectedMessageTypeMarketDataRequest, req.Session, err)
		return
	}

	now := types.Now()
	snap, reject := e.HandleMarketDataRequest(req, now)
	if reject != nil {
		if sendErr := ts.channels.Reply.MarketDataRequestReject.Send(*reject); sendErr != nil {
			ts.logger.Warn("failed to deliver market data reject", zap.Error(sendErr))
		}
		return
	}
	if snap != nil {
		if sendErr := ts.channels.Reply.MarketDataSnapshot.Send(*snap); sendErr != nil {
			ts.logger.Warn("failed to deliver market data snapshot", zap.Error(sendErr))
		}
		if req.Type == types.MdSubscriptionRequestTypeSubscribe {
			ts.pushSecurityStatus(e, req.Descriptor, []types.SessionHandle{req.Session})
		}
	}
}

// --- security status ---

type securityStatusReceiver struct{ ts *TradingSystem }

func (r securityStatusReceiver) Process(req protocol.SecurityStatusRequest) {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	e, err := ts.resolve(req.Descriptor)
	if err != nil {
		ts.businessReject(types.RejectedMessageTypeBusinessMessage, types.SessionHandle{}, err)
		return
	}
	if sendErr := ts.channels.Reply.SecurityStatus.Send(protocol.SecurityStatus{
		Descriptor: req.Descriptor,
		Phase:      e.Phase,
	}); sendErr != nil {
		ts.logger.Warn("failed to deliver security status", zap.Error(sendErr))
	}
}

// --- instrument state (sync) ---

type instrumentStateReceiver struct{ ts *TradingSystem }

func (r instrumentStateReceiver) Process(req protocol.InstrumentStateQueryRequest, reply *protocol.InstrumentStateReply) error {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	e, err := ts.resolve(req.Descriptor)
	if err != nil {
		return err
	}
	*reply = e.InstrumentState()
	return nil
}

// --- phase transition (sync, venue-wide or per-instrument) ---

type phaseTransitionReceiver struct{ ts *TradingSystem }

func (r phaseTransitionReceiver) Process(req protocol.PhaseTransitionRequest, reply *protocol.AdminReply) error {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := types.Now()
	perInstrument := make(map[types.InstrumentId]protocol.Result)

	apply := func(id types.InstrumentId) {
		e := ts.engines[id]
		reports := e.TransitionPhase(req.Phase, req.Status, now)
		ts.sendReports(reports)
		ts.publishMarketData(e)
		ts.pushSecurityStatus(e, types.InstrumentDescriptor{Symbol: e.Instrument.Symbol}, e.SubscriberSessions())
		perInstrument[id] = protocol.Ok()
	}

	if req.Descriptor == nil {
		for _, id := range ts.order {
			apply(id)
		}
	} else {
		id, err := ts.registry.Resolve(*req.Descriptor)
		if err != nil {
			reply.Overall = protocol.Err(string(errors.CodeOf(err)), err.Error())
			return nil
		}
		apply(id)
	}

	reply.Overall = protocol.Ok()
	reply.PerInstrument = perInstrument
	return nil
}

// --- venue-wide store state (sync) ---

type storeStateReceiver struct{ ts *TradingSystem }

func (r storeStateReceiver) Process(_ protocol.VenueStoreStateRequest, reply *protocol.VenueStoreStateReply) error {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	perInstrument := make(map[types.InstrumentId]protocol.Result, len(ts.order))
	snap := types.Snapshot{Instruments: make([]types.InstrumentSnapshot, 0, len(ts.order))}

	for _, id := range ts.order {
		e := ts.engines[id]
		snap.Instruments = append(snap.Instruments, e.StoreState())
		perInstrument[id] = protocol.Ok()
	}

	if err := persistence.Store(ts.snapshotPath, snap); err != nil {
		reply.Overall = protocol.Err(string(errors.CodeInternal), err.Error())
		reply.PerInstrument = perInstrument
		return nil
	}

	reply.Overall = protocol.Ok()
	reply.PerInstrument = perInstrument
	reply.Snapshot = &snap
	return nil
}

// --- venue-wide recover state (sync) ---

type recoverStateReceiver struct{ ts *TradingSystem }

func (r recoverStateReceiver) Process(req protocol.VenueRecoverStateRequest, reply *protocol.VenueRecoverStateReply) error {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if len(req.Snapshot.Instruments) != len(ts.order) {
		reply.Overall = protocol.Err(string(errors.CodeSnapshotInstrumentMismatch), "snapshot instrument count does not match the registry")
		return nil
	}

	now := types.Now()
	perInstrument := make(map[types.InstrumentId]protocol.Result, len(ts.order))
	byId := make(map[types.InstrumentId]types.InstrumentSnapshot, len(req.Snapshot.Instruments))
	for _, is := range req.Snapshot.Instruments {
		byId[is.Instrument.InstrumentId] = is
	}

	var combined error
	for _, id := range ts.order {
		is, ok := byId[id]
		if !ok {
			combined = multierr.Append(combined, errors.Newf(errors.CodeSnapshotInstrumentMismatch, "snapshot is missing instrument %s", id))
			continue
		}
		if err := ts.engines[id].RecoverState(is, now); err != nil {
			combined = multierr.Append(combined, err)
			perInstrument[id] = protocol.Err(string(errors.CodeOf(err)), err.Error())
			continue
		}
		perInstrument[id] = protocol.Ok()
	}

	if combined != nil {
		reply.Overall = protocol.Err(string(errors.CodeSnapshotInvalid), combined.Error())
		reply.PerInstrument = perInstrument
		return nil
	}

	reply.Overall = protocol.Ok()
	reply.PerInstrument = perInstrument
	return nil
}

// ReseedIdGenerators walks a just-recovered snapshot and reseeds every id
// generator to max(observed)+1 (§4.1).
func (ts *TradingSystem) ReseedIdGenerators(snap types.Snapshot) {
	var maxOrder, maxExec, maxTrade, maxMd int64
	trackOrder := func(o types.LimitOrder) {
		if int64(o.OrderId) > maxOrder {
			maxOrder = int64(o.OrderId)
		}
	}
	for _, is := range snap.Instruments {
		for _, o := range is.BuyOrders {
			trackOrder(o)
		}
		for _, o := range is.SellOrders {
			trackOrder(o)
		}
		if is.LastTrade != nil && int64(is.LastTrade.TradeId) > maxTrade {
			maxTrade = int64(is.LastTrade.TradeId)
		}
	}
	ts.gens.ReseedFromSnapshot(maxOrder, maxExec, maxTrade, maxMd)
}

// --- generator admin (sync; out-of-scope generator, channel contract only) ---

type generatorReceiver struct{ ts *TradingSystem }

func (r generatorReceiver) Process(req protocol.GeneratorAdminRequest, reply *protocol.GeneratorAdminReply) error {
	ts := r.ts
	ts.mu.Lock()
	defer ts.mu.Unlock()

	switch req.Op {
	case protocol.GeneratorAdminOpStart:
		ts.generatorRunning = true
	case protocol.GeneratorAdminOpStop:
		ts.generatorRunning = false
	}
	reply.Result = protocol.Ok()
	reply.Running = ts.generatorRunning
	return nil
}

// ExpireSweep runs the 1 Hz expiry sweep (§4.3, §4.7) across every engine
// in ascending InstrumentId order, emitting reports and market-data
// updates for each. Invoked by the runtime loop, never by a frontend.
func (ts *TradingSystem) ExpireSweep() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := types.Now()
	for _, id := range ts.order {
		e := ts.engines[id]
		reports := e.ExpireSweep(now)
		if len(reports) == 0 {
			continue
		}
		ts.sendReports(reports)
		ts.publishMarketData(e)
	}
}
