package types

// Instrument is the engine's canonical record for one tradeable symbol,
// identified for the lifetime of a session by its InstrumentId (§3).
type Instrument struct {
	InstrumentId InstrumentId

	Symbol           Symbol
	SecurityId       SecurityId
	SecurityIdSource SecurityIdSource
	SecurityType     SecurityType
	ExchangeId       ExchangeId

	PriceCurrency CurrencyCode
	BaseCurrency  CurrencyCode

	Parties []Party

	// Numeric constraints — any may be the zero value, meaning "no
	// constraint configured" (§3 invariant: absent or positive finite).
	PriceTick    Price
	QuantityTick Quantity
	MinQuantity  Quantity
	MaxQuantity  Quantity
}

// Party attaches an identified participant to an instrument or order.
type Party struct {
	PartyId     PartyId
	PartyRole   PartyRole
	IdSource    PartyIdSource
}

// InstrumentDescriptor is the client-supplied lookup key the registry
// resolves to an InstrumentId (§3, §4.2 EXPANSION). Exactly one of the three
// shapes is populated.
type InstrumentDescriptor struct {
	// By symbol.
	Symbol Symbol

	// By security id + source.
	SecurityId       SecurityId
	SecurityIdSource SecurityIdSource

	// By exchange id + security type.
	ExchangeId   ExchangeId
	SecurityType SecurityType
}

// Kind reports which of the three lookup shapes is populated.
type DescriptorKind int

const (
	DescriptorKindNone DescriptorKind = iota
	DescriptorKindSymbol
	DescriptorKindSecurityId
	DescriptorKindExchange
)

func (d InstrumentDescriptor) Kind() DescriptorKind {
	if d.Symbol != "" {
		return DescriptorKindSymbol
	}
	if d.SecurityId != "" && d.SecurityIdSource != "" {
		return DescriptorKindSecurityId
	}
	if d.ExchangeId != "" && d.SecurityType != "" {
		return DescriptorKindExchange
	}
	return DescriptorKindNone
}

// SessionHandle is the routing descriptor carried by every request, used to
// order replies per client session (§3 EXPANSION, §5).
type SessionHandle struct {
	BeginString   string
	SenderCompId  string
	TargetCompId  string
	ClientSubId   *string
}

// Equal compares session identity by value rather than by the ClientSubId
// pointer, so two requests describing the same client session from
// different call sites still compare equal (§4.3 "owned by requester's
// session").
func (s SessionHandle) Equal(other SessionHandle) bool {
	if s.BeginString != other.BeginString || s.SenderCompId != other.SenderCompId || s.TargetCompId != other.TargetCompId {
		return false
	}
	switch {
	case s.ClientSubId == nil && other.ClientSubId == nil:
		return true
	case s.ClientSubId == nil || other.ClientSubId == nil:
		return false
	default:
		return *s.ClientSubId == *other.ClientSubId
	}
}

// InstrumentInfo carries per-instrument session-derived aggregates (§3).
type InstrumentInfo struct {
	LowPrice  Price
	HighPrice Price
}
