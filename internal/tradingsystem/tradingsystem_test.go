package tradingsystem

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketsim/venue/internal/middleware"
	"github.com/marketsim/venue/internal/registry"
	"github.com/marketsim/venue/pkg/protocol"
	"github.com/marketsim/venue/pkg/types"
)

const seedYAML = `
instruments:
  - symbol: AAPL
    security_type: CommonStock
    exchange_id: XNAS
    price_tick: "0.01"
    quantity_tick: "1"
    min_quantity: "1"
    max_quantity: "1000"
`

type recordingExecReceiver struct {
	mu      sync.Mutex
	reports []protocol.ExecutionReport
}

func (r *recordingExecReceiver) Process(rep protocol.ExecutionReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *recordingExecReceiver) snapshot() []protocol.ExecutionReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.ExecutionReport, len(r.reports))
	copy(out, r.reports)
	return out
}

func newTestSystem(t *testing.T) (*TradingSystem, *middleware.Channels, string) {
	t.Helper()
	dir := t.TempDir()
	instrumentsPath := filepath.Join(dir, "instruments.yaml")
	require.NoError(t, os.WriteFile(instrumentsPath, []byte(seedYAML), 0o600))

	reg, err := registry.LoadFromFile(instrumentsPath)
	require.NoError(t, err)

	channels, err := middleware.NewChannels(16, 4, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(channels.Close)

	snapshotPath := filepath.Join(dir, "snapshot.json")
	ts := New(reg, time.UTC, snapshotPath, channels, zap.NewNop())
	ts.Bind(channels)

	return ts, channels, snapshotPath
}

func descriptor() types.InstrumentDescriptor {
	return types.InstrumentDescriptor{Symbol: "AAPL"}
}

func openInstrument(t *testing.T, channels *middleware.Channels) {
	t.Helper()
	reply, err := channels.Admin.PhaseTransition.Call(protocol.PhaseTransitionRequest{
		Phase:  types.TradingPhaseOpen,
		Status: types.TradingStatusResume,
	}, time.Second)
	require.NoError(t, err)
	require.True(t, reply.Overall.Success)
}

func mkOrder(side types.Side, price, qty string) types.LimitOrder {
	p, _ := types.NewPrice(price)
	q, _ := types.NewQuantity(qty)
	return types.LimitOrder{
		ClientOrderId: types.ClientOrderId("c1"),
		Side:          side,
		OrderType:     types.OrderTypeLimit,
		OrderPrice:    p,
		TotalQuantity: q,
		TimeInForce:   types.TimeInForceDay,
	}
}

func TestInstrumentStateQueryUnknownSymbolFails(t *testing.T) {
	_, channels, _ := newTestSystem(t)

	_, err := channels.Request.InstrumentState.Call(protocol.InstrumentStateQueryRequest{
		Descriptor: types.InstrumentDescriptor{Symbol: "NOPE"},
	}, time.Second)
	require.Error(t, err)
}

func TestInstrumentStateQuerySucceeds(t *testing.T) {
	_, channels, _ := newTestSystem(t)

	reply, err := channels.Request.InstrumentState.Call(protocol.InstrumentStateQueryRequest{
		Descriptor: descriptor(),
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, types.Symbol("AAPL"), reply.Instrument.Symbol)
	assert.Equal(t, types.TradingPhaseClosed, reply.Phase.Phase)
}

func TestPlaceOrderRejectedWhileClosed(t *testing.T) {
	_, channels, _ := newTestSystem(t)

	recv := &recordingExecReceiver{}
	channels.Reply.ExecutionReport.Bind(recv)

	rejectRecv := make(chan protocol.OrderPlacementReject, 1)
	channels.Reply.OrderPlacementReject.Bind(rejectFunc(func(r protocol.OrderPlacementReject) {
		rejectRecv <- r
	}))

	require.NoError(t, channels.Request.PlaceOrder.Send(protocol.PlaceOrderRequest{
		Descriptor: descriptor(),
		Order:      mkOrder(types.SideBuy, "10.00", "100"),
	}))

	select {
	case reject := <-rejectRecv:
		assert.NotEmpty(t, reject.Text)
	case <-time.After(time.Second):
		t.Fatal("expected an order placement reject while the instrument is closed")
	}
	assert.Empty(t, recv.snapshot())
}

type rejectFunc func(protocol.OrderPlacementReject)

func (f rejectFunc) Process(r protocol.OrderPlacementReject) { f(r) }

func TestPlaceOrderMatchesAndPublishesExecutionReports(t *testing.T) {
	ts, channels, _ := newTestSystem(t)
	openInstrument(t, channels)

	recv := &recordingExecReceiver{}
	channels.Reply.ExecutionReport.Bind(recv)

	require.NoError(t, channels.Request.PlaceOrder.Send(protocol.PlaceOrderRequest{
		Descriptor: descriptor(),
		Order:      mkOrder(types.SideSell, "10.00", "100"),
	}))
	require.Eventually(t, func() bool { return len(recv.snapshot()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, channels.Request.PlaceOrder.Send(protocol.PlaceOrderRequest{
		Descriptor: descriptor(),
		Order:      mkOrder(types.SideBuy, "10.00", "100"),
	}))
	require.Eventually(t, func() bool { return len(recv.snapshot()) == 3 }, time.Second, time.Millisecond)

	reports := recv.snapshot()
	fills := 0
	for _, r := range reports {
		if r.ExecType == types.ExecutionTypeTrade {
			fills++
		}
	}
	assert.Equal(t, 2, fills)
	_ = ts
}

func TestStoreAndRecoverStateRoundTrip(t *testing.T) {
	ts, channels, snapshotPath := newTestSystem(t)
	openInstrument(t, channels)

	require.NoError(t, channels.Request.PlaceOrder.Send(protocol.PlaceOrderRequest{
		Descriptor: descriptor(),
		Order:      mkOrder(types.SideBuy, "10.00", "50"),
	}))
	time.Sleep(20 * time.Millisecond)

	storeReply, err := channels.Admin.StoreState.Call(protocol.VenueStoreStateRequest{}, time.Second)
	require.NoError(t, err)
	require.True(t, storeReply.Overall.Success)
	require.NotNil(t, storeReply.Snapshot)
	require.FileExists(t, snapshotPath)

	haltReply, err := channels.Admin.PhaseTransition.Call(protocol.PhaseTransitionRequest{
		Phase:  types.TradingPhaseHalted,
		Status: types.TradingStatusHalt,
	}, time.Second)
	require.NoError(t, err)
	require.True(t, haltReply.Overall.Success)

	recoverReply, err := channels.Admin.RecoverState.Call(protocol.VenueRecoverStateRequest{
		Snapshot: *storeReply.Snapshot,
	}, time.Second)
	require.NoError(t, err)
	assert.True(t, recoverReply.Overall.Success)

	ts.ReseedIdGenerators(*storeReply.Snapshot)
}
