package engine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-curbside/internal/config"
)

// Messages resolves localized strings by translation key. It is satisfied
// by the i18n translator; a nil Messages falls back to English labels.
type Messages interface {
	GetMsg(key string) string
}

// RenderICS renders the event sequence as an iCalendar feed of all-day
// events, one VEVENT per category per day. Event UIDs are deterministic so
// subscribed clients keep stable identities across refreshes.
func RenderICS(events []PickupEvent, now time.Time, msgs Messages) ([]byte, error) {
	cal := ical.NewCalendar()

	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	if msgs != nil {
		cal.Props.SetText(config.PropXWRCalDesc, msgs.GetMsg(config.TKeyFeedDesc))
	}
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval matching the upstream cadence.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, e := range events {
		for _, cat := range e.Categories {
			event := ical.NewEvent()
			event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID,
				e.Date.Format(config.DateFormatDay), cat, config.ICalDomain))
			event.Props.SetText(config.PropSummary, categoryLabel(cat, msgs))

			if e.PossibleHoliday {
				event.Props.SetText(config.PropDescription, holidayNote(msgs))
			}

			dtStartProp := ical.NewProp(config.PropDTStart)
			dtStartProp.SetDate(e.Date)
			event.Props.Set(dtStartProp)

			event.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, event.Component)
		}
	}

	// A window with no pickups still yields a valid VCALENDAR, so clients
	// don't flag the feed as broken.
	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// messageKey maps a category to its translation key.
func (c Category) messageKey() string {
	switch c {
	case CategoryWaste:
		return config.TKeyCatWaste
	case CategoryJunk:
		return config.TKeyCatJunk
	case CategoryTree:
		return config.TKeyCatTree
	case CategoryRecycling:
		return config.TKeyCatRecycling
	}
	return string(c)
}

// categoryLabel resolves the localized summary for a category.
func categoryLabel(c Category, msgs Messages) string {
	if msgs != nil {
		return msgs.GetMsg(c.messageKey())
	}
	switch c {
	case CategoryWaste:
		return config.FallbackLabelWaste
	case CategoryJunk:
		return config.FallbackLabelJunk
	case CategoryTree:
		return config.FallbackLabelTree
	case CategoryRecycling:
		return config.FallbackLabelRecycling
	}
	return string(c)
}

// holidayNote resolves the localized possible-holiday description.
func holidayNote(msgs Messages) string {
	if msgs != nil {
		return msgs.GetMsg(config.TKeyHolidayNote)
	}
	return config.FallbackHolidayNote
}
