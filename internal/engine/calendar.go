package engine

import "time"

// PickupEvent is one qualifying day in the computed window. It is immutable
// once produced; the filtered sequence is the engine's sole output artifact.
type PickupEvent struct {
	// Date is the civil calendar date of the pickup (midnight, no
	// time-of-day semantics).
	Date time.Time

	// Categories is the non-empty set of pickup categories for the day.
	Categories []Category

	// PossibleHoliday flags a date coinciding with the holiday table.
	PossibleHoliday bool
}

// Events walks days consecutive dates beginning at start (inclusive)
// and collects a PickupEvent for every date with at least one applicable
// category, preserving chronological order. Zero or negative days yields an
// empty sequence, matching the engine's missing-data-means-empty-result
// policy.
func (c Classifier) Events(start time.Time, days int) []PickupEvent {
	start = civilDate(start)

	var events []PickupEvent
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		cats := c.CategoriesFor(date)
		if len(cats) == 0 {
			continue
		}
		events = append(events, PickupEvent{
			Date:            date,
			Categories:      cats,
			PossibleHoliday: c.IsPossibleHoliday(date),
		})
	}
	return events
}

// civilDate strips the time-of-day component, keeping the calendar date.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
