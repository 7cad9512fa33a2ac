package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EarningsRecord is one row of the provider's earnings calendar: a company
// expected (or recently seen) to report results on a given date. Records are
// fetched fresh each run and never persisted.
type EarningsRecord struct {
	Symbol string

	// Date is the report date with no time component; stored as midnight UTC
	// and re-anchored into the calendar timezone by the formatter.
	Date time.Time

	// Quarter / Year describe the fiscal period being reported.
	// Quarter is 0 when the provider does not say.
	Quarter int
	Year    int

	// Hour is the provider's session code: "bmo" (before market open),
	// "amc" (after market close) or "dmh" (during market hours). May be empty.
	Hour string

	// Estimates may be absent for thinly covered companies.
	EPSEstimate     decimal.NullDecimal
	RevenueEstimate *int64

	// Actuals only appear for dates already in the past (lookbehind window).
	EPSActual     decimal.NullDecimal
	RevenueActual *int64
}

// Event is a single all-day calendar event derived 1:1 from an EarningsRecord.
type Event struct {
	// UID is deterministic for a given (ticker, date) pair so that
	// regenerating the calendar keeps stable event identities.
	UID string

	Ticker      string
	Summary     string
	Description string

	// Date is midnight in the calendar timezone; the event covers that
	// whole day with no time-of-day component.
	Date time.Time
}
