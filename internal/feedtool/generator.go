package feedtool

import (
	"fmt"
	"math/rand"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Meeting titles the generator picks from. A few carry keywords that
// typical profile configurations treat specially.
var meetingTitles = []string{
	"Roadmap sync",
	"Sprint planning",
	"Design review",
	"Customer call",
	"1:1 catch up",
	"Budget review",
	"Quarterly review",
	"Training: new hire onboarding",
	"Incident retro",
	"Team standup",
}

// Organizer addresses the generator picks from.
var organizerAddresses = []string{
	"maria.lopez@example.com",
	"jens.petersen@example.com",
	"amara.okafor@example.com",
	"li.wei@example.com",
	"tom.becker@example.com",
}

// Booking durations the generator picks from, in minutes.
var durationChoices = []int{15, 30, 45, 60, 90}

// booking is one generated calendar entry.
type booking struct {
	UID       string
	Summary   string
	Organizer string
	Start     time.Time
	End       time.Time
}

// generateBookings produces a back-to-back schedule starting lead after now.
func generateBookings(cfg *Config, now time.Time) []booking {
	bookings := make([]booking, 0, cfg.NumBookings)

	start := now.Add(cfg.Lead).Truncate(time.Minute)
	for i := 0; i < cfg.NumBookings; i++ {
		duration := time.Duration(durationChoices[rand.Intn(len(durationChoices))]) * time.Minute
		b := booking{
			UID:       fmt.Sprintf("feedgen-%d-%d", now.Unix(), i),
			Summary:   meetingTitles[rand.Intn(len(meetingTitles))],
			Organizer: organizerAddresses[rand.Intn(len(organizerAddresses))],
			Start:     start,
			End:       start.Add(duration),
		}
		bookings = append(bookings, b)
		start = b.End.Add(cfg.Gap)
	}

	return bookings
}

// buildCalendar renders the bookings as an iCalendar document.
func buildCalendar(bookings []booking, location string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)

	now := time.Now().UTC()
	for _, b := range bookings {
		ev := cal.AddEvent(b.UID)
		ev.SetDtStampTime(now)
		ev.SetCreatedTime(now)
		ev.SetStartAt(b.Start)
		ev.SetEndAt(b.End)
		ev.SetSummary(b.Summary)
		ev.SetOrganizer("mailto:" + b.Organizer)
		if location != "" {
			ev.SetLocation(location)
		}
	}

	return cal.Serialize()
}
