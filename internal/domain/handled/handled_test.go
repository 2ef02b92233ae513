package handled_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	handled "github.com/roomward/roomward/internal/domain/handled"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTrackerMark(t *testing.T) {
	Convey("Given an in-memory tracker", t, func() {
		tracker := handled.NewInMemoryTracker()
		ctx := context.Background()

		Convey("When marking a new booking", func() {
			already := tracker.Mark(ctx, "bk-1")

			Convey("Then it was not previously seen", func() {
				So(already, ShouldBeFalse)
				So(tracker.Seen(ctx, "bk-1"), ShouldBeTrue)
				So(tracker.Size(), ShouldEqual, 1)
			})
		})

		Convey("When marking the same booking twice", func() {
			tracker.Mark(ctx, "bk-1")
			already := tracker.Mark(ctx, "bk-1")

			Convey("Then the second mark reports it as seen", func() {
				So(already, ShouldBeTrue)
				So(tracker.Size(), ShouldEqual, 1)
			})
		})

		Convey("When checking an unknown booking", func() {
			So(tracker.Seen(ctx, "bk-404"), ShouldBeFalse)
		})
	})
}

func TestTrackerEviction(t *testing.T) {
	Convey("Given a tracker bounded to three bookings", t, func() {
		tracker := handled.NewInMemoryTracker(handled.WithMaxSize(3))
		ctx := context.Background()

		Convey("When marking four bookings", func() {
			for i := 1; i <= 4; i++ {
				tracker.Mark(ctx, fmt.Sprintf("bk-%d", i))
			}

			Convey("Then the oldest booking is evicted", func() {
				So(tracker.Size(), ShouldEqual, 3)
				So(tracker.Seen(ctx, "bk-1"), ShouldBeFalse)
				So(tracker.Seen(ctx, "bk-4"), ShouldBeTrue)
			})
		})
	})
}

func TestTrackerConcurrency(t *testing.T) {
	Convey("Given concurrent marks on the same tracker", t, func() {
		tracker := handled.NewInMemoryTracker(handled.WithMaxSize(1000))
		ctx := context.Background()

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					tracker.Mark(ctx, fmt.Sprintf("bk-%d-%d", g, i))
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every mark is retained within the bound", func() {
			So(tracker.Size(), ShouldEqual, 800)
		})
	})
}
