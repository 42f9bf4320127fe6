// Package errors provides the structured error taxonomy shared by every
// venue component: validation, resolution, phase, not-found, liquidity,
// channel, snapshot, and internal errors, each tagged with a stable code.
package errors

import (
	"fmt"
	"runtime"
	"time"
)

// Code identifies a specific error condition in the venue.
type Code string

const (
	// Validation errors (§4.4)
	CodeSideMissing            Code = "SIDE_MISSING"
	CodeSideUnsupported        Code = "SIDE_UNSUPPORTED"
	CodeSideInvalidForPage     Code = "SIDE_INVALID_FOR_PAGE"
	CodeOrderTypeMissing       Code = "ORDER_TYPE_MISSING"
	CodeOrderTypeUnsupported   Code = "ORDER_TYPE_UNSUPPORTED"
	CodeOrderStatusInvalid     Code = "ORDER_STATUS_INVALID"
	CodeQuantityMissing        Code = "QUANTITY_MISSING"
	CodeQuantityTickViolated   Code = "QUANTITY_TICK_VIOLATED"
	CodeQuantityOutOfRange     Code = "QUANTITY_OUT_OF_RANGE"
	CodeTotalQuantityTick      Code = "TOTAL_QUANTITY_TICK_VIOLATED"
	CodeCumQtyNegative         Code = "CUM_QTY_NEGATIVE"
	CodeCumQtyTickViolated     Code = "CUM_QTY_TICK_VIOLATED"
	CodeCumQtyNotLessThanTotal Code = "CUM_QTY_NOT_LESS_THAN_TOTAL"
	CodePriceMissing           Code = "PRICE_MISSING"
	CodePriceNotAllowed        Code = "PRICE_NOT_ALLOWED"
	CodePriceTickViolated      Code = "PRICE_TICK_VIOLATED"
	CodeTimeInForceUnsupported Code = "TIME_IN_FORCE_UNSUPPORTED"
	CodeExpireFieldMissing     Code = "EXPIRE_FIELD_MISSING"
	CodeExpireFieldConflict    Code = "EXPIRE_FIELD_CONFLICT"
	CodeExpireNotInFuture      Code = "EXPIRE_NOT_IN_FUTURE"
	CodeOrderTimeNotToday      Code = "ORDER_TIME_NOT_TODAY"
	CodeTradePriceTickViolated Code = "TRADE_PRICE_TICK_VIOLATED"
	CodeTradeQtyTickViolated   Code = "TRADE_QTY_TICK_VIOLATED"
	CodeTradeQtyOutOfRange     Code = "TRADE_QTY_OUT_OF_RANGE"
	CodeLowHighPriceInverted   Code = "LOW_HIGH_PRICE_INVERTED"
	CodeLowPriceTickViolated   Code = "LOW_PRICE_TICK_VIOLATED"
	CodeHighPriceTickViolated  Code = "HIGH_PRICE_TICK_VIOLATED"

	// Resolution errors (§4.2, §7)
	CodeUnknownSymbol              Code = "UNKNOWN_SYMBOL"
	CodeAmbiguousInstrument        Code = "AMBIGUOUS_INSTRUMENT"
	CodeInsufficientInstrumentInfo Code = "INSUFFICIENT_INSTRUMENT_INFO"

	// Phase errors (§4.3, §7)
	CodePhaseDisallowsOperation Code = "PHASE_DISALLOWS_OPERATION"

	// Not-found errors (§7)
	CodeOrderNotFound        Code = "ORDER_NOT_FOUND"
	CodeSubscriptionNotFound Code = "SUBSCRIPTION_NOT_FOUND"

	// Liquidity errors (§7)
	CodeNoLiquidity           Code = "NO_LIQUIDITY"
	CodeFillOrKillUnsatisfied Code = "FILL_OR_KILL_UNSATISFIED"

	// Modification policy (§4.3)
	CodeModifyLosesPriority Code = "MODIFY_LOSES_PRIORITY"

	// Channel errors (§7)
	CodeChannelUnbound Code = "CHANNEL_UNBOUND"
	CodeQueueFull      Code = "QUEUE_FULL"
	CodeTimeout        Code = "TIMEOUT"

	// Snapshot errors (§7)
	CodeSnapshotInvalid            Code = "SNAPSHOT_INVALID"
	CodeSnapshotInstrumentMismatch Code = "SNAPSHOT_INSTRUMENT_MISMATCH"

	// Internal errors (§7)
	CodeIdGenerationExhausted Code = "ID_GENERATION_EXHAUSTED"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// Severity classifies how urgently an error needs operator attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// VenueError is the structured error type returned by every venue
// component. It carries enough context to be logged, surfaced as a FIX
// reject, or compared by code without string matching.
type VenueError struct {
	Code      Code
	Message   string
	Details   map[string]interface{}
	Severity  Severity
	Timestamp time.Time
	File      string
	Line      int
	Cause     error
}

func (e *VenueError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *VenueError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a diagnostic key/value pair to the error.
func (e *VenueError) WithDetail(key string, value interface{}) *VenueError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a VenueError with the default severity for its code.
func New(code Code, message string) *VenueError {
	_, file, line, _ := runtime.Caller(1)
	return &VenueError{
		Code:      code,
		Message:   message,
		Severity:  severityFor(code),
		Timestamp: time.Now().UTC(),
		File:      file,
		Line:      line,
	}
}

// Newf creates a VenueError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *VenueError {
	_, file, line, _ := runtime.Caller(1)
	return &VenueError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Severity:  severityFor(code),
		Timestamp: time.Now().UTC(),
		File:      file,
		Line:      line,
	}
}

// Wrap attaches a VenueError code/message to an existing error.
func Wrap(err error, code Code, message string) *VenueError {
	if err == nil {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	return &VenueError{
		Code:      code,
		Message:   message,
		Severity:  severityFor(code),
		Timestamp: time.Now().UTC(),
		File:      file,
		Line:      line,
		Cause:     err,
	}
}

// Is reports whether err is a VenueError with the given code.
func Is(err error, code Code) bool {
	var ve *VenueError
	if As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// As finds the first VenueError in err's chain.
func As(err error, target **VenueError) bool {
	if err == nil {
		return false
	}
	if ve, ok := err.(*VenueError); ok {
		*target = ve
		return true
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return As(unwrapper.Unwrap(), target)
	}
	return false
}

// CodeOf extracts the Code from err, or "" if err is not a VenueError.
func CodeOf(err error) Code {
	var ve *VenueError
	if As(err, &ve) {
		return ve.Code
	}
	return ""
}

func severityFor(code Code) Severity {
	switch code {
	case CodeIdGenerationExhausted, CodeInternal, CodeSnapshotInvalid, CodeSnapshotInstrumentMismatch:
		return SeverityCritical
	case CodeQueueFull, CodeTimeout, CodeChannelUnbound, CodePhaseDisallowsOperation:
		return SeverityHigh
	case CodeOrderNotFound, CodeSubscriptionNotFound, CodeUnknownSymbol,
		CodeAmbiguousInstrument, CodeInsufficientInstrumentInfo, CodeNoLiquidity, CodeFillOrKillUnsatisfied:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Group collects multiple independent errors, e.g. per-order snapshot
// validation violations.
type Group struct {
	errs []error
}

// NewGroup creates an empty error group.
func NewGroup() *Group {
	return &Group{}
}

// Add appends a non-nil error to the group.
func (g *Group) Add(err error) {
	if err != nil {
		g.errs = append(g.errs, err)
	}
}

// HasErrors reports whether the group contains any errors.
func (g *Group) HasErrors() bool {
	return len(g.errs) > 0
}

// Errors returns all collected errors.
func (g *Group) Errors() []error {
	return g.errs
}

func (g *Group) Error() string {
	if len(g.errs) == 0 {
		return ""
	}
	if len(g.errs) == 1 {
		return g.errs[0].Error()
	}
	return fmt.Sprintf("%d errors occurred, first: %v", len(g.errs), g.errs[0])
}
