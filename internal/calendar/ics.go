package calendar

import (
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"

	"earningscal/internal/model"
)

const productID = "-//earningscal//Earnings Calendar//EN"

// Serialize renders the events as a single VCALENDAR artifact. It is pure
// and deterministic: events are sorted by (date, ticker) first and every
// emitted property is derived from the events alone, so identical input in
// any order yields byte-identical output.
func Serialize(events []model.Event, name string) string {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range sorted {
		ve := cal.AddEvent(ev.UID)
		// DTSTAMP derived from the event's own date, not time.Now(), so
		// regeneration from identical input stays byte-identical.
		ve.SetDtStampTime(time.Date(ev.Date.Year(), ev.Date.Month(), ev.Date.Day(), 0, 0, 0, 0, time.UTC))
		ve.SetAllDayStartAt(ev.Date)
		// DTEND is exclusive for all-day events: the next midnight.
		ve.SetAllDayEndAt(ev.Date.AddDate(0, 0, 1))
		// TEXT escaping (commas, semicolons, newlines) is done by the
		// library's setters; values must go in raw.
		ve.SetSummary(ev.Summary)
		ve.SetDescription(ev.Description)
	}

	return cal.Serialize()
}
