package engine

import (
	"log/slog"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/tartampluch/go-curbside/internal/config"
)

// HolidaySet is the read-only table of dates flagged as possible collection
// holidays. It combines the observed US federal holidays with any extra
// dates supplied by the operator. The set never alters scheduling logic;
// the classifier only reads it to populate the holiday flag.
type HolidaySet struct {
	calendar *cal.BusinessCalendar
	extra    map[string]struct{}
}

// NewHolidaySet builds the holiday table. Extra dates are YYYY-MM-DD
// strings; malformed entries are skipped with a warning rather than
// rejected, in line with the engine's degrade-gracefully policy.
func NewHolidaySet(extraDates []string) *HolidaySet {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
		us.Juneteenth,
	)

	extra := make(map[string]struct{}, len(extraDates))
	for _, d := range extraDates {
		if _, err := time.Parse(config.DateFormatDay, d); err != nil {
			slog.Warn(config.MsgHolidaySkip,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyValue, d,
				config.LogKeyError, err,
			)
			continue
		}
		extra[d] = struct{}{}
	}

	return &HolidaySet{calendar: calendar, extra: extra}
}

// Contains reports whether date (compared by calendar day) is in the table.
// A nil set contains nothing.
func (h *HolidaySet) Contains(date time.Time) bool {
	if h == nil {
		return false
	}
	if _, ok := h.extra[date.Format(config.DateFormatDay)]; ok {
		return true
	}
	_, observed, _ := h.calendar.IsHoliday(date)
	return observed
}
