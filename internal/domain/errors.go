package domain

import "errors"

// Source-scoped failures: they abort one source's contribution, not the run.
var (
	// ErrSourceUnavailable marks network or I/O failure reading a source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource marks a structural mismatch: unexpected nesting,
	// a missing table, an unparseable payload. Wrapping errors name the
	// offending source.
	ErrMalformedSource = errors.New("malformed source")
)

// Record-scoped failures: the record is excluded and counted, the run
// completes with a partial result.
var (
	// ErrUnparseableValue marks a value that cannot be coerced to a number.
	ErrUnparseableValue = errors.New("unparseable value")

	// ErrImplausibleValue marks a numeric value outside the metric's
	// physically plausible domain (sensor sentinel, digitization garbage).
	ErrImplausibleValue = errors.New("implausible value")

	// ErrUnresolvedEntity marks an entity hint with zero metadata matches.
	ErrUnresolvedEntity = errors.New("unresolved entity")

	// ErrOffsetOutOfRange marks a day offset at or past the declared season
	// length. Loud by contract: excluded and counted, never a silent drop.
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// ExclusionReason labels why a record was excluded, for the run summary
// and the exclusion metrics.
type ExclusionReason string

const (
	ReasonUnparseableValue ExclusionReason = "unparseable_value"
	ReasonImplausibleValue ExclusionReason = "implausible_value"
	ReasonUnresolvedEntity ExclusionReason = "unresolved_entity"
	ReasonOffsetOutOfRange ExclusionReason = "offset_out_of_range"
)

// ExclusionReasonFor maps a record-scoped error to its summary reason.
// Returns false for source-scoped or unknown errors.
func ExclusionReasonFor(err error) (ExclusionReason, bool) {
	switch {
	case errors.Is(err, ErrUnparseableValue):
		return ReasonUnparseableValue, true
	case errors.Is(err, ErrImplausibleValue):
		return ReasonImplausibleValue, true
	case errors.Is(err, ErrUnresolvedEntity):
		return ReasonUnresolvedEntity, true
	case errors.Is(err, ErrOffsetOutOfRange):
		return ReasonOffsetOutOfRange, true
	}
	return "", false
}
