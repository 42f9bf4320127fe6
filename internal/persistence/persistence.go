// Package persistence reads and writes the venue's sole persistent
// representation: a single JSON Snapshot document per venue (§6).
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketsim/venue/pkg/types"
)

// wireSnapshot mirrors §6's JSON document shape exactly, including its
// field names and the order_book nesting; types.Snapshot's Go-idiomatic
// shape is translated to and from it at the boundary.
type wireSnapshot struct {
	VenueId     string                `json:"venue_id"`
	Instruments []wireInstrumentEntry `json:"instruments"`
}

type wireInstrumentEntry struct {
	Instrument types.Instrument       `json:"instrument"`
	LastTrade  *types.Trade           `json:"last_trade"`
	Info       *wireInstrumentInfo    `json:"info"`
	OrderBook  wireOrderBook          `json:"order_book"`
}

type wireInstrumentInfo struct {
	LowPrice  types.Price `json:"low_price"`
	HighPrice types.Price `json:"high_price"`
}

type wireOrderBook struct {
	BuyOrders  []types.LimitOrder `json:"buy_orders"`
	SellOrders []types.LimitOrder `json:"sell_orders"`
}

func toWire(s types.Snapshot) wireSnapshot {
	w := wireSnapshot{VenueId: s.VenueId, Instruments: make([]wireInstrumentEntry, 0, len(s.Instruments))}
	for _, inst := range s.Instruments {
		entry := wireInstrumentEntry{
			Instrument: inst.Instrument,
			LastTrade:  inst.LastTrade,
			OrderBook: wireOrderBook{
				BuyOrders:  orEmpty(inst.BuyOrders),
				SellOrders: orEmpty(inst.SellOrders),
			},
		}
		if inst.Info != nil {
			entry.Info = &wireInstrumentInfo{LowPrice: inst.Info.LowPrice, HighPrice: inst.Info.HighPrice}
		}
		w.Instruments = append(w.Instruments, entry)
	}
	return w
}

func orEmpty(orders []types.LimitOrder) []types.LimitOrder {
	if orders == nil {
		return []types.LimitOrder{}
	}
	return orders
}

func fromWire(w wireSnapshot) types.Snapshot {
	s := types.Snapshot{VenueId: w.VenueId, Instruments: make([]types.InstrumentSnapshot, 0, len(w.Instruments))}
	for _, entry := range w.Instruments {
		is := types.InstrumentSnapshot{
			Instrument: entry.Instrument,
			LastTrade:  entry.LastTrade,
			BuyOrders:  entry.OrderBook.BuyOrders,
			SellOrders: entry.OrderBook.SellOrders,
		}
		if entry.Info != nil {
			is.Info = &types.InstrumentInfo{LowPrice: entry.Info.LowPrice, HighPrice: entry.Info.HighPrice}
		}
		s.Instruments = append(s.Instruments, is)
	}
	return s
}

// Store writes snap to path as the §6 JSON document, atomically: it writes
// to a temporary file in the same directory and renames over the target so
// a crash mid-write never leaves a half-written snapshot on disk.
func Store(path string, snap types.Snapshot) error {
	data, err := json.MarshalIndent(toWire(snap), "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("persistence: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persistence: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persistence: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("persistence: rename into place: %w", err)
	}
	return nil
}

// Load reads and parses a §6 JSON snapshot document from path.
func Load(path string) (types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("persistence: read %s: %w", path, err)
	}
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return types.Snapshot{}, fmt.Errorf("persistence: parse %s: %w", path, err)
	}
	return fromWire(w), nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
