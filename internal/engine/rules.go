package engine

import (
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-curbside/internal/config"
)

// PickupRules is the normalized schedule configuration derived once per
// computation run. Any field may independently be unset (source record
// missing or malformed); the classifier treats unset as "never matches",
// never as an error.
type PickupRules struct {
	// WasteDay is the single weekly weekday waste is collected.
	WasteDay time.Weekday
	WasteSet bool

	// HeavyDay and HeavyWeek locate the one heavy-pickup day per month:
	// the HeavyWeek-th occurrence of HeavyDay. HeavyWeek is 1-based.
	HeavyDay  time.Weekday
	HeavyWeek int
	HeavySet  bool

	// RecyclingDay is the recycling weekday; RecyclingEvenWeeks selects
	// which half of the alternating ISO-week cycle recycling falls on.
	//
	// The even/odd mapping reproduces the upstream convention literally:
	// a "-<suffix>" marker on the service day selects odd weeks, its
	// absence selects even weeks. The convention is tied to an external
	// published calendar and can drift from year to year; it is carried
	// as given, not re-derived.
	RecyclingDay       time.Weekday
	RecyclingSet       bool
	RecyclingEvenWeeks bool
}

// ParseRules turns the three raw attribute records into PickupRules.
// Missing or malformed records yield unset fields; this function never fails.
//
// Grammars:
//
//	waste:     "<weekday-name>"
//	heavy:     "<ordinal-digit> <weekday-name>"   e.g. "3 Tuesday"
//	recycling: "<weekday-name>[-<suffix>]"        e.g. "Friday-A"
func ParseRules(waste, heavy, recycling *ScheduleRecord) PickupRules {
	var rules PickupRules

	if day, ok := waste.serviceDay(); ok {
		if wd, ok := parseWeekday(day); ok {
			rules.WasteDay = wd
			rules.WasteSet = true
		}
	}

	if day, ok := heavy.serviceDay(); ok {
		ord, name, found := strings.Cut(day, config.HeavySeparator)
		if found {
			week, err := strconv.Atoi(ord)
			if wd, ok := parseWeekday(name); err == nil && week > 0 && ok {
				rules.HeavyDay = wd
				rules.HeavyWeek = week
				rules.HeavySet = true
			}
		}
	}

	if day, ok := recycling.serviceDay(); ok {
		name, suffix, _ := strings.Cut(day, config.RecyclingSeparator)
		if wd, ok := parseWeekday(name); ok {
			rules.RecyclingDay = wd
			rules.RecyclingSet = true
			rules.RecyclingEvenWeeks = suffix == ""
		}
	}

	return rules
}

// parseWeekday maps an English weekday name to its index, case-insensitively.
// No other calendar representation is accepted.
func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(name, wd.String()) {
			return wd, true
		}
	}
	return 0, false
}
