// Package registry holds the venue's configured instruments and resolves
// client-supplied descriptors to InstrumentIds (§4.2).
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/marketsim/venue/pkg/errors"
	"github.com/marketsim/venue/pkg/types"
)

// seedFile is the on-disk shape of the instrument seed file loaded at
// startup — a stand-in for the out-of-scope relational reference-data layer.
type seedFile struct {
	Instruments []seedInstrument `yaml:"instruments"`
}

type seedInstrument struct {
	Symbol           string `yaml:"symbol"`
	SecurityId       string `yaml:"security_id"`
	SecurityIdSource string `yaml:"security_id_source"`
	SecurityType     string `yaml:"security_type"`
	ExchangeId       string `yaml:"exchange_id"`
	PriceCurrency    string `yaml:"price_currency"`
	BaseCurrency     string `yaml:"base_currency"`
	PriceTick        string `yaml:"price_tick"`
	QuantityTick     string `yaml:"quantity_tick"`
	MinQuantity      string `yaml:"min_quantity"`
	MaxQuantity      string `yaml:"max_quantity"`
}

// Registry is the immutable, post-init-read-only set of configured
// instruments (§5: "read-only post-init, no lock").
type Registry struct {
	byId         map[types.InstrumentId]*types.Instrument
	bySymbol     map[types.Symbol]types.InstrumentId
	bySecurityId map[securityIdKey]types.InstrumentId
	byExchange   map[exchangeKey]types.InstrumentId
	ordered      []types.InstrumentId
}

type securityIdKey struct {
	id     types.SecurityId
	source types.SecurityIdSource
}

type exchangeKey struct {
	exchange types.ExchangeId
	secType  types.SecurityType
}

// LoadFromFile populates a Registry once, in file order, assigning dense
// InstrumentIds starting at 1 (§4.2 EXPANSION: "dense and stable ...
// incrementing counter at load time, in file order").
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}
	return build(sf)
}

func build(sf seedFile) (*Registry, error) {
	r := &Registry{
		byId:         make(map[types.InstrumentId]*types.Instrument),
		bySymbol:     make(map[types.Symbol]types.InstrumentId),
		bySecurityId: make(map[securityIdKey]types.InstrumentId),
		byExchange:   make(map[exchangeKey]types.InstrumentId),
	}

	for i, s := range sf.Instruments {
		id := types.InstrumentId(i + 1)

		priceTick, err := parsePrice(s.PriceTick)
		if err != nil {
			return nil, fmt.Errorf("registry: instrument %q: %w", s.Symbol, err)
		}
		qtyTickQ, err := parseQuantity(s.QuantityTick)
		if err != nil {
			return nil, fmt.Errorf("registry: instrument %q: %w", s.Symbol, err)
		}
		minQtyQ, err := parseQuantity(s.MinQuantity)
		if err != nil {
			return nil, fmt.Errorf("registry: instrument %q: %w", s.Symbol, err)
		}
		maxQtyQ, err := parseQuantity(s.MaxQuantity)
		if err != nil {
			return nil, fmt.Errorf("registry: instrument %q: %w", s.Symbol, err)
		}

		inst := &types.Instrument{
			InstrumentId:     id,
			Symbol:           types.Symbol(s.Symbol),
			SecurityId:       types.SecurityId(s.SecurityId),
			SecurityIdSource: types.SecurityIdSource(s.SecurityIdSource),
			SecurityType:     types.SecurityType(s.SecurityType),
			ExchangeId:       types.ExchangeId(s.ExchangeId),
			PriceCurrency:    types.CurrencyCode(s.PriceCurrency),
			BaseCurrency:     types.CurrencyCode(s.BaseCurrency),
			PriceTick:        priceTick,
			QuantityTick:     qtyTickQ,
			MinQuantity:      minQtyQ,
			MaxQuantity:      maxQtyQ,
		}

		r.byId[id] = inst
		r.ordered = append(r.ordered, id)
		if inst.Symbol != "" {
			r.bySymbol[inst.Symbol] = id
		}
		if inst.SecurityId != "" && inst.SecurityIdSource != "" {
			r.bySecurityId[securityIdKey{inst.SecurityId, inst.SecurityIdSource}] = id
		}
		if inst.ExchangeId != "" && inst.SecurityType != "" {
			r.byExchange[exchangeKey{inst.ExchangeId, inst.SecurityType}] = id
		}
	}

	return r, nil
}

func parsePrice(s string) (types.Price, error) {
	if s == "" {
		return types.Price{}, nil
	}
	return types.NewPrice(s)
}

func parseQuantity(s string) (types.Quantity, error) {
	if s == "" {
		return types.ZeroQuantity(), nil
	}
	return types.NewQuantity(s)
}

// Resolve looks up an InstrumentId by client descriptor (§4.2). Returns a
// VenueError with CodeUnknownSymbol or CodeInsufficientInstrumentInfo on
// failure. Keys are not checked for uniqueness at load time: when several
// seed entries share a symbol, security-id pair or exchange pair, the one
// later in the file wins, and CodeAmbiguousInstrument is never returned.
func (r *Registry) Resolve(desc types.InstrumentDescriptor) (types.InstrumentId, error) {
	switch desc.Kind() {
	case types.DescriptorKindSymbol:
		id, ok := r.bySymbol[desc.Symbol]
		if !ok {
			return 0, errors.Newf(errors.CodeUnknownSymbol, "unknown symbol %q", desc.Symbol)
		}
		return id, nil
	case types.DescriptorKindSecurityId:
		id, ok := r.bySecurityId[securityIdKey{desc.SecurityId, desc.SecurityIdSource}]
		if !ok {
			return 0, errors.Newf(errors.CodeUnknownSymbol, "unknown security id %q/%q", desc.SecurityId, desc.SecurityIdSource)
		}
		return id, nil
	case types.DescriptorKindExchange:
		id, ok := r.byExchange[exchangeKey{desc.ExchangeId, desc.SecurityType}]
		if !ok {
			return 0, errors.Newf(errors.CodeUnknownSymbol, "unknown exchange id %q/%q", desc.ExchangeId, desc.SecurityType)
		}
		return id, nil
	default:
		return 0, errors.New(errors.CodeInsufficientInstrumentInfo, "instrument descriptor carries no usable lookup key")
	}
}

// Get returns the canonical Instrument record for id.
func (r *Registry) Get(id types.InstrumentId) (*types.Instrument, bool) {
	inst, ok := r.byId[id]
	return inst, ok
}

// All returns every configured InstrumentId in ascending, stable order —
// the order the trading system sequences venue-wide admin operations in
// (§4.6).
func (r *Registry) All() []types.InstrumentId {
	out := make([]types.InstrumentId, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len reports the number of configured instruments.
func (r *Registry) Len() int {
	return len(r.ordered)
}
