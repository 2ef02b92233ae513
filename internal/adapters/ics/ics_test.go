package ics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ics "github.com/roomward/roomward/internal/adapters/ics"
	model "github.com/roomward/roomward/internal/domain/model"
	monitor "github.com/roomward/roomward/internal/monitor"
	clock "github.com/roomward/roomward/pkg/clock"
	logging "github.com/roomward/roomward/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

// feedPayload renders a minimal calendar. ICS requires CRLF line endings.
func feedPayload(events ...string) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//roomward//test//EN",
	}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

func vevent(uid, summary, location, start, end string) string {
	return strings.Join([]string{
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:20240318T080000Z",
		"DTSTART:" + start,
		"DTEND:" + end,
		"SUMMARY:" + summary,
		"ORGANIZER:mailto:ada@example.com",
		"LOCATION:" + location,
		"END:VEVENT",
	}, "\r\n")
}

// feedServer serves a swappable ICS body.
type feedServer struct {
	mu   sync.Mutex
	body string
	srv  *httptest.Server
}

func newFeedServer(body string) *feedServer {
	fs := &feedServer{body: body}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(fs.body))
	}))
	return fs
}

func (fs *feedServer) set(body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.body = body
}

type eventRecorder struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (r *eventRecorder) record(ev model.BookingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) all() []model.BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.BookingEvent{}, r.events...)
}

func TestFeedSource(t *testing.T) {
	Convey("Given a feed with one upcoming booking", t, func() {
		fs := newFeedServer(feedPayload(
			vevent("bk-1", "Roadmap sync", "HQ Huddle 1", "20240318T090000Z", "20240318T094500Z"),
		))
		defer fs.srv.Close()

		clk := clock.NewFake(time.Date(2024, 3, 18, 8, 0, 0, 0, time.UTC))
		source := ics.NewSource(fs.srv.URL, ics.WithClock(clk))
		rec := &eventRecorder{}
		unsubscribe, err := source.Subscribe(rec.record)
		So(err, ShouldBeNil)
		defer unsubscribe()

		Convey("When the feed is refreshed", func() {
			So(source.Refresh(context.Background()), ShouldBeNil)

			Convey("Then the booking resolves with its parsed fields", func() {
				b, err := source.Get(context.Background(), "bk-1")
				So(err, ShouldBeNil)
				So(b.Title, ShouldEqual, "Roadmap sync")
				So(b.Organizer, ShouldEqual, "ada@example.com")
				So(b.MeetingRef, ShouldEqual, "bk-1")
				So(b.Start.Equal(time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(b.End.Sub(b.Start), ShouldEqual, 45*time.Minute)
			})

			Convey("Then an unknown id is rejected", func() {
				_, err := source.Get(context.Background(), "bk-404")
				So(errors.Is(err, monitor.ErrBookingNotFound), ShouldBeTrue)
			})

			Convey("Then nothing is active before the start time", func() {
				active, err := source.Active(context.Background())
				So(err, ShouldBeNil)
				So(active, ShouldBeEmpty)
			})

			Convey("And when the start time arrives", func() {
				clk.Advance(time.Hour)

				Convey("Then a start event is emitted and the booking is active", func() {
					events := rec.all()
					So(len(events), ShouldEqual, 1)
					So(events[0].Kind, ShouldEqual, model.BookingStarted)
					So(events[0].BookingID, ShouldEqual, "bk-1")

					active, err := source.Active(context.Background())
					So(err, ShouldBeNil)
					So(len(active), ShouldEqual, 1)
				})

				Convey("And when the end time arrives", func() {
					clk.Advance(45 * time.Minute)

					Convey("Then an end event follows", func() {
						events := rec.all()
						So(len(events), ShouldEqual, 2)
						So(events[1].Kind, ShouldEqual, model.BookingEnded)
					})
				})
			})

			Convey("And when a refresh sees unchanged times", func() {
				So(source.Refresh(context.Background()), ShouldBeNil)

				Convey("Then timers are not rearmed and no duplicate events fire", func() {
					clk.Advance(time.Hour)
					So(len(rec.all()), ShouldEqual, 1)
				})
			})

			Convey("And when the booking disappears while in progress", func() {
				clk.Advance(time.Hour) // started
				fs.set(feedPayload())
				So(source.Refresh(context.Background()), ShouldBeNil)

				Convey("Then an end event is synthesized", func() {
					events := rec.all()
					So(len(events), ShouldEqual, 2)
					So(events[1].Kind, ShouldEqual, model.BookingEnded)

					_, err := source.Get(context.Background(), "bk-1")
					So(err, ShouldNotBeNil)
				})
			})
		})
	})
}

func TestFeedSourceInProgressBooking(t *testing.T) {
	Convey("Given a feed whose booking is already in progress", t, func() {
		fs := newFeedServer(feedPayload(
			vevent("bk-1", "Roadmap sync", "HQ Huddle 1", "20240318T090000Z", "20240318T094500Z"),
		))
		defer fs.srv.Close()

		clk := clock.NewFake(time.Date(2024, 3, 18, 9, 10, 0, 0, time.UTC))
		source := ics.NewSource(fs.srv.URL, ics.WithClock(clk))
		rec := &eventRecorder{}
		_, err := source.Subscribe(rec.record)
		So(err, ShouldBeNil)

		Convey("When the feed is refreshed", func() {
			So(source.Refresh(context.Background()), ShouldBeNil)

			Convey("Then the start event fires immediately", func() {
				events := rec.all()
				So(len(events), ShouldEqual, 1)
				So(events[0].Kind, ShouldEqual, model.BookingStarted)
			})
		})
	})
}

func TestFeedSourceLocationFilter(t *testing.T) {
	Convey("Given a feed with bookings in two rooms", t, func() {
		fs := newFeedServer(feedPayload(
			vevent("bk-1", "Roadmap sync", "HQ Huddle 1", "20240318T090000Z", "20240318T094500Z"),
			vevent("bk-2", "Design review", "HQ Huddle 2", "20240318T090000Z", "20240318T100000Z"),
		))
		defer fs.srv.Close()

		clk := clock.NewFake(time.Date(2024, 3, 18, 8, 0, 0, 0, time.UTC))
		source := ics.NewSource(fs.srv.URL,
			ics.WithClock(clk),
			ics.WithLocationFilter("HQ Huddle 1"),
		)

		Convey("When the feed is refreshed", func() {
			So(source.Refresh(context.Background()), ShouldBeNil)

			Convey("Then only the filtered room's booking is retained", func() {
				_, err := source.Get(context.Background(), "bk-1")
				So(err, ShouldBeNil)
				_, err = source.Get(context.Background(), "bk-2")
				So(errors.Is(err, monitor.ErrBookingNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestFeedSourceFailures(t *testing.T) {
	Convey("Given an endpoint returning a server error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		source := ics.NewSource(srv.URL)

		Convey("When the feed is refreshed", func() {
			err := source.Refresh(context.Background())

			Convey("Then a feed error is returned", func() {
				So(errors.Is(err, ics.ErrFeedUnavailable), ShouldBeTrue)
			})
		})
	})

	Convey("Given an invalid refresh schedule", t, func() {
		fs := newFeedServer(feedPayload())
		defer fs.srv.Close()

		source := ics.NewSource(fs.srv.URL, ics.WithRefreshSchedule("not-a-schedule"))

		Convey("When the source starts", func() {
			err := source.Start(context.Background())

			Convey("Then the schedule is rejected", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "invalid refresh schedule")
			})
		})
	})
}
