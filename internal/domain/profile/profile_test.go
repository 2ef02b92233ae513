package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	model "github.com/roomward/roomward/internal/domain/model"
	profile "github.com/roomward/roomward/internal/domain/profile"
	. "github.com/smartystreets/goconvey/convey"
)

func booking(title, organizer string, minutes int) model.Booking {
	start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	return model.Booking{
		ID:        "bk-1",
		Title:     title,
		Organizer: organizer,
		Start:     start,
		End:       start.Add(time.Duration(minutes) * time.Minute),
	}
}

func TestMatcherDuration(t *testing.T) {
	Convey("Given a matcher with a (0,60] duration profile and a default", t, func() {
		matcher := profile.NewMatcher([]profile.Profile{
			{Name: "short", Kind: profile.KindDuration, DurationMin: 0, DurationMax: 60, Monitor: true,
				StopAfter: 10 * time.Minute, RequiredUnoccupied: 5 * time.Minute},
			{Name: "fallback", Kind: profile.KindDefault, Monitor: true,
				StopAfter: 10 * time.Minute, RequiredUnoccupied: 5 * time.Minute},
		})
		ctx := context.Background()

		Convey("When the booking is 45 minutes long", func() {
			p, ok := matcher.Match(ctx, booking("Standup", "Ada", 45))

			Convey("Then the duration profile matches", func() {
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "short")
			})
		})

		Convey("When the booking is exactly the lower bound", func() {
			p, ok := matcher.Match(ctx, booking("Standup", "Ada", 0))

			Convey("Then the half-open range excludes it and the default wins", func() {
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "fallback")
			})
		})

		Convey("When the booking is one minute above the lower bound", func() {
			p, ok := matcher.Match(ctx, booking("Standup", "Ada", 1))
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "short")
		})

		Convey("When the booking is exactly the upper bound", func() {
			p, ok := matcher.Match(ctx, booking("Standup", "Ada", 60))

			Convey("Then the inclusive upper bound admits it", func() {
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "short")
			})
		})

		Convey("When the booking crosses an hour boundary", func() {
			// 09:50 -> 10:20: minute-of-hour arithmetic would yield -30.
			b := model.Booking{
				ID:    "bk-2",
				Title: "Sync",
				Start: time.Date(2024, 3, 18, 9, 50, 0, 0, time.UTC),
				End:   time.Date(2024, 3, 18, 10, 20, 0, 0, time.UTC),
			}
			p, ok := matcher.Match(ctx, b)
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "short")
		})
	})
}

func TestMatcherKeywordsAndOrganizers(t *testing.T) {
	Convey("Given a matcher with keyword and organizer profiles", t, func() {
		matcher := profile.NewMatcher([]profile.Profile{
			{Name: "training", Kind: profile.KindKeywords, Keywords: []string{"Training", "Test"}},
			{Name: "vip", Kind: profile.KindOrganizers, Organizers: []string{"Jane Doe"}},
			{Name: "fallback", Kind: profile.KindDefault, Monitor: true,
				StopAfter: 10 * time.Minute, RequiredUnoccupied: 5 * time.Minute},
		})
		ctx := context.Background()

		Convey("When the title contains a keyword as a substring", func() {
			p, ok := matcher.Match(ctx, booking("Quarterly Training Session", "Ada", 45))
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "training")
		})

		Convey("When the title contains the keyword in a different case", func() {
			p, ok := matcher.Match(ctx, booking("quarterly training session", "Ada", 45))

			Convey("Then matching is case-sensitive and the default wins", func() {
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "fallback")
			})
		})

		Convey("When the organizer matches exactly", func() {
			p, ok := matcher.Match(ctx, booking("1:1", "Jane Doe", 30))
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "vip")
		})

		Convey("When the organizer differs in case", func() {
			p, ok := matcher.Match(ctx, booking("1:1", "jane doe", 30))
			So(ok, ShouldBeTrue)
			So(p.Name, ShouldEqual, "fallback")
		})
	})
}

func TestMatcherOrderAndCoverage(t *testing.T) {
	Convey("Given a list where the keyword profile precedes the duration profile", t, func() {
		matcher := profile.NewMatcher([]profile.Profile{
			{Name: "no-monitor", Kind: profile.KindKeywords, Keywords: []string{"Training"}, Monitor: false},
			{Name: "short", Kind: profile.KindDuration, DurationMin: 0, DurationMax: 60, Monitor: true,
				StopAfter: 10 * time.Minute, RequiredUnoccupied: 5 * time.Minute},
			{Name: "fallback", Kind: profile.KindDefault, Monitor: true,
				StopAfter: 10 * time.Minute, RequiredUnoccupied: 5 * time.Minute},
		})
		ctx := context.Background()

		Convey("When a Training booking would also match on duration", func() {
			p, ok := matcher.Match(ctx, booking("Training Day", "Jane Doe", 45))

			Convey("Then first match wins and monitoring stays disabled", func() {
				So(ok, ShouldBeTrue)
				So(p.Name, ShouldEqual, "no-monitor")
				So(p.Monitor, ShouldBeFalse)
			})
		})
	})

	Convey("Given a list ending in a default profile", t, func() {
		matcher := profile.NewMatcher([]profile.Profile{
			{Name: "vip", Kind: profile.KindOrganizers, Organizers: []string{"Nobody"}},
			{Name: "fallback", Kind: profile.KindDefault},
		})

		Convey("Then every booking resolves to some profile", func() {
			for _, minutes := range []int{0, 1, 59, 60, 61, 480} {
				_, ok := matcher.Match(context.Background(), booking("Anything", "Anyone", minutes))
				So(ok, ShouldBeTrue)
			}
		})
	})

	Convey("Given a list without a default profile", t, func() {
		matcher := profile.NewMatcher([]profile.Profile{
			{Name: "short", Kind: profile.KindDuration, DurationMin: 0, DurationMax: 60},
		})

		Convey("When no profile matches", func() {
			_, ok := matcher.Match(context.Background(), booking("Offsite", "Ada", 120))

			Convey("Then the matcher reports no match", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestProfileValidate(t *testing.T) {
	Convey("Given profile validation", t, func() {
		valid := profile.Profile{
			Name: "short", Kind: profile.KindDuration, DurationMin: 0, DurationMax: 60,
			Monitor: true, StartAfter: 0, StopAfter: 10 * time.Minute,
			RequiredUnoccupied: 5 * time.Minute, AlertBefore: time.Minute,
		}

		Convey("Then a well-formed profile passes", func() {
			So(valid.Validate(), ShouldBeNil)
		})

		Convey("Then an empty duration range fails", func() {
			p := valid
			p.DurationMin, p.DurationMax = 60, 60
			So(errors.Is(p.Validate(), profile.ErrInvalidProfile), ShouldBeTrue)
		})

		Convey("Then an alert lead at least as long as the countdown fails", func() {
			p := valid
			p.AlertBefore = 5 * time.Minute
			So(errors.Is(p.Validate(), profile.ErrInvalidProfile), ShouldBeTrue)
		})

		Convey("Then an empty monitoring window fails", func() {
			p := valid
			p.StopAfter = 0
			So(errors.Is(p.Validate(), profile.ErrInvalidProfile), ShouldBeTrue)
		})

		Convey("Then an unknown kind fails", func() {
			p := valid
			p.Kind = "mystery"
			So(errors.Is(p.Validate(), profile.ErrInvalidProfile), ShouldBeTrue)
		})

		Convey("Then a non-monitoring profile skips window checks", func() {
			p := profile.Profile{Name: "skip", Kind: profile.KindKeywords, Keywords: []string{"Test"}}
			So(p.Validate(), ShouldBeNil)
		})

		Convey("Then an empty list fails as a whole", func() {
			So(errors.Is(profile.ValidateList(nil), profile.ErrInvalidProfile), ShouldBeTrue)
		})
	})
}
