package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"earningscal/internal/model"
)

// uidNamespace seeds deterministic event UIDs. It must never change, or
// subscribers would see every event duplicated under a new identity.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("earningscal://calendar/earnings"))

// BuildConfig controls how records are turned into events.
type BuildConfig struct {
	// Location is the calendar timezone all-day dates are anchored to.
	// Defaults to America/New_York; US report dates are Eastern dates.
	Location *time.Location
}

// BuildEvents converts fetched records into calendar events. It is pure:
// same records in, same events out, regardless of host timezone.
func BuildEvents(records []model.EarningsRecord, cfg BuildConfig) []model.Event {
	loc := cfg.Location
	if loc == nil {
		loc = easternOrUTC()
	}

	events := make([]model.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, BuildEvent(rec, loc))
	}
	return events
}

// BuildEvent derives the single all-day event for one earnings record.
func BuildEvent(rec model.EarningsRecord, loc *time.Location) model.Event {
	// Re-anchor the date-only value into the calendar timezone.
	day := time.Date(rec.Date.Year(), rec.Date.Month(), rec.Date.Day(), 0, 0, 0, 0, loc)

	lines := []string{
		"Ticker: " + rec.Symbol,
		"Fiscal Quarter: " + formatQuarter(rec.Quarter, rec.Year),
	}
	if s := sessionLabel(rec.Hour); s != "" {
		lines = append(lines, "Session: "+s)
	}
	lines = append(lines,
		"EPS: "+formatEPS(rec.EPSEstimate),
		"Revenue: "+formatRevenue(rec.RevenueEstimate),
	)
	if rec.EPSActual.Valid {
		lines = append(lines, "Actual EPS: "+formatEPS(rec.EPSActual))
	}
	if rec.RevenueActual != nil {
		lines = append(lines, "Actual Revenue: "+formatRevenue(rec.RevenueActual))
	}
	lines = append(lines, "Source: Finnhub")

	return model.Event{
		UID:         eventUID(rec.Symbol, day),
		Ticker:      rec.Symbol,
		Summary:     rec.Symbol + " Earnings",
		Description: strings.Join(lines, "\n"),
		Date:        day,
	}
}

// eventUID returns a stable UID for a (ticker, date) pair.
func eventUID(ticker string, day time.Time) string {
	key := ticker + "/" + day.Format("2006-01-02")
	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}

// formatEPS renders an EPS value with two fixed decimals, or "N/A" when the
// provider reported none.
func formatEPS(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return d.Decimal.StringFixed(2)
}

// formatRevenue abbreviates large revenue figures:
// >= 1e9 as "1.0 B", >= 1e6 as "1 M", smaller values verbatim, absent "N/A".
func formatRevenue(v *int64) string {
	if v == nil {
		return "N/A"
	}
	n := float64(*v)
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1f B", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.0f M", n/1e6)
	}
	return strconv.FormatInt(*v, 10)
}

func formatQuarter(quarter, year int) string {
	if quarter < 1 || quarter > 4 || year == 0 {
		return "-"
	}
	return fmt.Sprintf("Q%d %d", quarter, year)
}

// sessionLabel decodes the provider's report-hour code. Unknown non-empty
// codes pass through verbatim rather than being dropped.
func sessionLabel(hour string) string {
	switch hour {
	case "":
		return ""
	case "bmo":
		return "before market open"
	case "amc":
		return "after market close"
	case "dmh":
		return "during market hours"
	}
	return hour
}

func easternOrUTC() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}
