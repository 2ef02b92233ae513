package clock_test

import (
	"testing"
	"time"

	clock "github.com/roomward/roomward/pkg/clock"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFakeClock(t *testing.T) {
	Convey("Given a fake clock", t, func() {
		start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
		fake := clock.NewFake(start)

		Convey("When no time has passed", func() {
			So(fake.Now().Equal(start), ShouldBeTrue)
		})

		Convey("When advancing past a timer deadline", func() {
			fired := 0
			fake.AfterFunc(5*time.Minute, func() { fired++ })
			fake.Advance(4 * time.Minute)
			So(fired, ShouldEqual, 0)

			fake.Advance(time.Minute)

			Convey("Then the timer fires exactly once", func() {
				So(fired, ShouldEqual, 1)
				So(fake.Pending(), ShouldEqual, 0)

				fake.Advance(10 * time.Minute)
				So(fired, ShouldEqual, 1)
			})
		})

		Convey("When several timers are due in one advance", func() {
			var order []string
			fake.AfterFunc(2*time.Minute, func() { order = append(order, "second") })
			fake.AfterFunc(time.Minute, func() { order = append(order, "first") })
			fake.Advance(5 * time.Minute)

			Convey("Then they fire in deadline order", func() {
				So(order, ShouldResemble, []string{"first", "second"})
			})
		})

		Convey("When a callback observes the clock", func() {
			var seen time.Time
			fake.AfterFunc(3*time.Minute, func() { seen = fake.Now() })
			fake.Advance(10 * time.Minute)

			Convey("Then the fake time equals the timer deadline during the callback", func() {
				So(seen.Equal(start.Add(3*time.Minute)), ShouldBeTrue)
				So(fake.Now().Equal(start.Add(10*time.Minute)), ShouldBeTrue)
			})
		})

		Convey("When a callback arms a follow-up timer within the advance window", func() {
			fired := 0
			fake.AfterFunc(time.Minute, func() {
				fake.AfterFunc(time.Minute, func() { fired++ })
			})
			fake.Advance(5 * time.Minute)

			Convey("Then the follow-up fires in the same advance", func() {
				So(fired, ShouldEqual, 1)
			})
		})

		Convey("When stopping a timer before its deadline", func() {
			fired := 0
			timer := fake.AfterFunc(time.Minute, func() { fired++ })

			So(timer.Stop(), ShouldBeTrue)
			fake.Advance(5 * time.Minute)

			Convey("Then it never fires and a second stop reports false", func() {
				So(fired, ShouldEqual, 0)
				So(timer.Stop(), ShouldBeFalse)
			})
		})

		Convey("When a timer has a zero duration", func() {
			fired := 0
			fake.AfterFunc(0, func() { fired++ })
			fake.Advance(0)
			So(fired, ShouldEqual, 1)
		})
	})
}

func TestSystemClock(t *testing.T) {
	Convey("Given the system clock", t, func() {
		sys := clock.System()

		Convey("When reading the time", func() {
			So(sys.Now().IsZero(), ShouldBeFalse)
		})

		Convey("When arming and stopping a timer", func() {
			timer := sys.AfterFunc(time.Hour, func() {})
			So(timer.Stop(), ShouldBeTrue)
		})
	})
}
