package ics

import (
	"bytes"
	"errors"
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/roomward/roomward/internal/domain/model"
)

// parseCalendar converts an ICS payload into bookings. When location is
// non-empty, only events for that location are kept. Events missing a UID
// or usable times are skipped.
func parseCalendar(body []byte, location string) ([]model.Booking, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		b, ok := parseVEvent(ve, location)
		if !ok {
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func parseVEvent(ve *ical.VEvent, location string) (model.Booking, bool) {
	var b model.Booking

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return b, false
	}
	b.ID = uidProp.Value
	b.MeetingRef = uidProp.Value

	if location != "" {
		p := ve.GetProperty(ical.ComponentPropertyLocation)
		if p == nil || p.Value != location {
			return b, false
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return b, false
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return b, false
	}
	if !end.After(start) {
		return b, false
	}
	b.Start = start
	b.End = end

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		b.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		b.Organizer = strings.TrimPrefix(p.Value, "mailto:")
	}

	return b, true
}
