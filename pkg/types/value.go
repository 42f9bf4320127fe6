// Package types holds the venue's strongly typed domain scalars and core
// records: attribute value wrappers, enums, ids, timestamps, and the
// Instrument/LimitOrder/Trade/MarketPhase/InstrumentInfo/Snapshot shapes
// every other package builds on.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a fixed-precision price. It wraps decimal.Decimal rather than a
// float so tick comparisons are exact.
type Price struct {
	d decimal.Decimal
}

// NewPrice builds a Price from a decimal string (e.g. "10.00").
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return Price{d: d}, nil
}

// PriceFromDecimal wraps an already-parsed decimal.
func PriceFromDecimal(d decimal.Decimal) Price { return Price{d: d} }

func (p Price) Decimal() decimal.Decimal { return p.d }
func (p Price) IsZero() bool             { return p.d.IsZero() }
func (p Price) String() string           { return p.d.String() }

func (p Price) Cmp(o Price) int      { return p.d.Cmp(o.d) }
func (p Price) LessThan(o Price) bool { return p.d.LessThan(o.d) }
func (p Price) GreaterThan(o Price) bool { return p.d.GreaterThan(o.d) }
func (p Price) Equal(o Price) bool   { return p.d.Equal(o.d) }

// RespectsTick reports whether p is an exact multiple of tick. A zero or
// negative tick means "no constraint configured" and is always satisfied.
func (p Price) RespectsTick(tick Price) bool {
	if tick.d.Sign() <= 0 {
		return true
	}
	mod := p.d.Mod(tick.d)
	return mod.IsZero()
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.d.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	p.d = d
	return nil
}

// Quantity is a fixed-precision order/trade size.
type Quantity struct {
	d decimal.Decimal
}

func NewQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return Quantity{d: d}, nil
}

func QuantityFromDecimal(d decimal.Decimal) Quantity { return Quantity{d: d} }

func ZeroQuantity() Quantity { return Quantity{d: decimal.Zero} }

func (q Quantity) Decimal() decimal.Decimal { return q.d }
func (q Quantity) IsZero() bool             { return q.d.IsZero() }
func (q Quantity) Sign() int                { return q.d.Sign() }
func (q Quantity) String() string           { return q.d.String() }

func (q Quantity) Cmp(o Quantity) int         { return q.d.Cmp(o.d) }
func (q Quantity) LessThan(o Quantity) bool    { return q.d.LessThan(o.d) }
func (q Quantity) GreaterThan(o Quantity) bool { return q.d.GreaterThan(o.d) }
func (q Quantity) Equal(o Quantity) bool       { return q.d.Equal(o.d) }

func (q Quantity) Add(o Quantity) Quantity { return Quantity{d: q.d.Add(o.d)} }
func (q Quantity) Sub(o Quantity) Quantity { return Quantity{d: q.d.Sub(o.d)} }

// Min returns the smaller of q and o — used to compute match_qty.
func (q Quantity) Min(o Quantity) Quantity {
	if q.LessThan(o) {
		return q
	}
	return o
}

func (q Quantity) RespectsTick(tick Quantity) bool {
	if tick.d.Sign() <= 0 {
		return true
	}
	return q.d.Mod(tick.d).IsZero()
}

// InRange reports whether q is within [min, max] inclusive. A zero or
// negative bound means "no constraint configured".
func (q Quantity) InRange(min, max Quantity) bool {
	if min.d.Sign() > 0 && q.LessThan(min) {
		return false
	}
	if max.d.Sign() > 0 && q.GreaterThan(max) {
		return false
	}
	return true
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.d.String()), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	q.d = d
	return nil
}
