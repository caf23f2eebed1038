package ics

import (
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"
)

// Verify parses a rendered document with an independent iCalendar parser
// and returns the number of VEVENT components it contains.
//
// Every VEVENT must carry a non-empty UID, DTSTART and DTEND.
func Verify(doc string) (int, error) {
	if strings.TrimSpace(doc) == "" {
		return 0, errors.New("empty calendar document")
	}

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		return 0, fmt.Errorf("parse calendar: %w", err)
	}

	events := cal.Events()
	for i, ev := range events {
		for _, prop := range []ical.ComponentProperty{
			ical.ComponentPropertyUniqueId,
			ical.ComponentPropertyDtStart,
			ical.ComponentPropertyDtEnd,
		} {
			if p := ev.GetProperty(prop); p == nil || p.Value == "" {
				return 0, fmt.Errorf("vevent %d: missing %s", i, prop)
			}
		}
	}

	return len(events), nil
}
