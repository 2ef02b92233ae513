package monitor_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	model "github.com/roomward/roomward/internal/domain/model"
	monitor "github.com/roomward/roomward/internal/monitor"
	clock "github.com/roomward/roomward/pkg/clock"
	. "github.com/smartystreets/goconvey/convey"
)

func registryMonitor(id string, clk *clock.Fake) *monitor.Monitor {
	start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	booking := model.Booking{
		ID:    id,
		Title: "Booking " + id,
		Start: start,
		End:   start.Add(30 * time.Minute),
	}
	return monitor.New(booking, shortProfile(), monitor.Deps{
		Sensors:  newFakeSensors(),
		Prompt:   &fakePrompt{},
		Releaser: &fakeReleaser{},
		Audit:    &fakeSink{},
	}, monitor.WithClock(clk))
}

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		clk := clock.NewFake(time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC))
		reg := monitor.NewRegistry()

		Convey("When a monitor is added", func() {
			m := registryMonitor("bk-1", clk)
			So(reg.Add(m), ShouldBeTrue)

			Convey("Then it is retrievable and counted", func() {
				got, ok := reg.Get("bk-1")
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, m)
				So(reg.Len(), ShouldEqual, 1)
			})

			Convey("Then adding a second monitor for the same booking is rejected", func() {
				dup := registryMonitor("bk-1", clk)
				So(reg.Add(dup), ShouldBeFalse)
				got, _ := reg.Get("bk-1")
				So(got, ShouldEqual, m)
			})

			Convey("Then removing it empties the registry", func() {
				reg.Remove("bk-1")
				_, ok := reg.Get("bk-1")
				So(ok, ShouldBeFalse)
				So(reg.Len(), ShouldEqual, 0)
			})
		})

		Convey("When removing an unknown booking", func() {
			So(func() { reg.Remove("missing") }, ShouldNotPanic)
		})

		Convey("When several monitors are registered", func() {
			for _, id := range []string{"bk-3", "bk-1", "bk-2"} {
				So(reg.Add(registryMonitor(id, clk)), ShouldBeTrue)
			}

			Convey("Then Infos returns snapshots sorted by booking id", func() {
				infos := reg.Infos(context.Background())
				So(len(infos), ShouldEqual, 3)
				So(infos[0].BookingID, ShouldEqual, "bk-1")
				So(infos[1].BookingID, ShouldEqual, "bk-2")
				So(infos[2].BookingID, ShouldEqual, "bk-3")
				So(infos[0].Phase, ShouldEqual, "created")
			})

			Convey("Then StopAll drives every monitor to its terminal phase", func() {
				reg.StopAll(monitor.ReasonShutdown)
				for _, info := range reg.Infos(context.Background()) {
					So(info.Phase, ShouldEqual, "stopped")
				}
			})
		})

		Convey("When monitors are added and removed concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					id := fmt.Sprintf("bk-%03d", n)
					reg.Add(registryMonitor(id, clk))
					if n%2 == 0 {
						reg.Remove(id)
					}
				}(i)
			}
			wg.Wait()

			Convey("Then only the odd half remains", func() {
				So(reg.Len(), ShouldEqual, 25)
			})
		})
	})
}
