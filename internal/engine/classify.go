package engine

import "time"

// Category tags a pickup event with the kind of collection taking place.
type Category string

const (
	CategoryWaste     Category = "waste"
	CategoryJunk      Category = "junk"
	CategoryTree      Category = "tree"
	CategoryRecycling Category = "recycling"
)

// Classifier decides which pickup categories apply to a single calendar
// date. It is pure and deterministic given its rules and holiday set; all
// date arithmetic constructs new values, nothing is mutated in place.
type Classifier struct {
	Rules    PickupRules
	Holidays *HolidaySet
}

// IsWasteDay reports whether date falls on the weekly waste weekday.
func (c Classifier) IsWasteDay(date time.Time) bool {
	return c.Rules.WasteSet && date.Weekday() == c.Rules.WasteDay
}

// IsHeavyOccurrence reports whether date is the HeavyWeek-th occurrence of
// HeavyDay within its calendar month. Months with fewer occurrences of the
// weekday than HeavyWeek have no heavy-pickup day at all.
func (c Classifier) IsHeavyOccurrence(date time.Time) bool {
	if !c.Rules.HeavySet || date.Weekday() != c.Rules.HeavyDay {
		return false
	}

	// Walk forward from the first of the month, counting occurrences of
	// the heavy weekday up to and including the candidate date.
	occurrences := 0
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	for d := first; !d.After(date); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == c.Rules.HeavyDay {
			occurrences++
		}
	}
	return occurrences == c.Rules.HeavyWeek
}

// IsJunkDay reports a heavy occurrence falling in an even calendar month.
func (c Classifier) IsJunkDay(date time.Time) bool {
	return isEvenMonth(date) && c.IsHeavyOccurrence(date)
}

// IsTreeDay reports a heavy occurrence falling in an odd calendar month.
// Junk and tree are mutually exclusive for any given date.
func (c Classifier) IsTreeDay(date time.Time) bool {
	return !isEvenMonth(date) && c.IsHeavyOccurrence(date)
}

// IsRecyclingDay reports whether date matches the recycling weekday and the
// configured ISO-week parity. Only parity relative to a fixed epoch matters,
// so any uniform week-numbering rule works; ISO week numbers are used.
func (c Classifier) IsRecyclingDay(date time.Time) bool {
	if !c.Rules.RecyclingSet || date.Weekday() != c.Rules.RecyclingDay {
		return false
	}
	_, week := date.ISOWeek()
	return c.Rules.RecyclingEvenWeeks == (week%2 == 0)
}

// IsPossibleHoliday reports whether date coincides with an entry in the
// holiday set. The flag is informational only; it never suppresses or
// alters the categories for the day.
func (c Classifier) IsPossibleHoliday(date time.Time) bool {
	return c.Holidays.Contains(date)
}

// CategoriesFor returns the set of pickup categories applying to date, in a
// fixed order. An empty result is valid: no pickup that day.
func (c Classifier) CategoriesFor(date time.Time) []Category {
	var cats []Category
	if c.IsWasteDay(date) {
		cats = append(cats, CategoryWaste)
	}
	if c.IsJunkDay(date) {
		cats = append(cats, CategoryJunk)
	}
	if c.IsTreeDay(date) {
		cats = append(cats, CategoryTree)
	}
	if c.IsRecyclingDay(date) {
		cats = append(cats, CategoryRecycling)
	}
	return cats
}

// isEvenMonth reports whether the 1-based month number of date is even.
func isEvenMonth(date time.Time) bool {
	return int(date.Month())%2 == 0
}
