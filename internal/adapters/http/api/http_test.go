package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roomward/roomward/internal/adapters/http/api"
	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/domain/types"
	logging "github.com/roomward/roomward/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

// Mock implementation of api.Dependencies for testing.
type mockDeps struct {
	monitors []types.MonitorInfo
	actions  []model.AuditAction
	status   types.ServiceStatus
}

func (m *mockDeps) Monitors(_ context.Context) []types.MonitorInfo {
	return m.monitors
}

func (m *mockDeps) RecentActions(_ context.Context, n int) []model.AuditAction {
	if n > 0 && n < len(m.actions) {
		return m.actions[:n]
	}
	return m.actions
}

func (m *mockDeps) Status(_ context.Context) types.ServiceStatus {
	return m.status
}

func newTestServer(deps *mockDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func sampleDeps() *mockDeps {
	start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)
	deadline := start.Add(15 * time.Minute)
	return &mockDeps{
		monitors: []types.MonitorInfo{
			{
				BookingID:    "bk-1",
				BookingTitle: "Roadmap sync",
				Profile:      "Short Meetings",
				Phase:        "counting_down",
				WindowStart:  start,
				WindowStop:   start.Add(10 * time.Minute),
				ReleaseAt:    &deadline,
			},
			{
				BookingID:    "bk-2",
				BookingTitle: "Design review",
				Profile:      "Everything Else",
				Phase:        "active",
				WindowStart:  start,
				WindowStop:   start.Add(30 * time.Minute),
			},
		},
		actions: []model.AuditAction{
			{ID: "act-2", BookingID: "bk-9", Action: "Released booking [bk-9]"},
			{ID: "act-1", BookingID: "bk-8", Action: "Released booking [bk-8]"},
		},
		status: types.ServiceStatus{
			Workspace:      "HQ Huddle 1",
			DryRun:         true,
			ActiveMonitors: 2,
			QueueDepth:     0,
			Profiles:       []string{"Short Meetings", "Everything Else"},
		},
	}
}

func TestStatusEndpoint(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv := newTestServer(sampleDeps())
		defer srv.Close()

		Convey("When GET /status is requested", func() {
			resp, err := http.Get(srv.URL + "/status")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the service snapshot is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "application/json")

				var status types.ServiceStatus
				So(json.NewDecoder(resp.Body).Decode(&status), ShouldBeNil)
				So(status.Workspace, ShouldEqual, "HQ Huddle 1")
				So(status.DryRun, ShouldBeTrue)
				So(status.ActiveMonitors, ShouldEqual, 2)
			})
		})

		Convey("When /status is requested with the wrong method", func() {
			resp, err := http.Post(srv.URL+"/status", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestMonitorsEndpoint(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv := newTestServer(sampleDeps())
		defer srv.Close()

		Convey("When GET /monitors is requested", func() {
			resp, err := http.Get(srv.URL + "/monitors")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then every active monitor is listed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var infos []types.MonitorInfo
				So(json.NewDecoder(resp.Body).Decode(&infos), ShouldBeNil)
				So(len(infos), ShouldEqual, 2)
				So(infos[0].BookingID, ShouldEqual, "bk-1")
				So(infos[0].ReleaseAt, ShouldNotBeNil)
				So(infos[1].ReleaseAt, ShouldBeNil)
			})
		})

		Convey("When GET /monitors/bk-2 is requested", func() {
			resp, err := http.Get(srv.URL + "/monitors/bk-2")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then that monitor's snapshot is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var info types.MonitorInfo
				So(json.NewDecoder(resp.Body).Decode(&info), ShouldBeNil)
				So(info.BookingID, ShouldEqual, "bk-2")
				So(info.Phase, ShouldEqual, "active")
			})
		})

		Convey("When GET /monitors/bk-404 is requested", func() {
			resp, err := http.Get(srv.URL + "/monitors/bk-404")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then a not-found error is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the monitor path has extra segments", func() {
			resp, err := http.Get(srv.URL + "/monitors/bk-1/extra")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestActionsEndpoint(t *testing.T) {
	Convey("Given a running API server", t, func() {
		deps := sampleDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When GET /actions is requested", func() {
			resp, err := http.Get(srv.URL + "/actions")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then recent actions are returned newest first", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var actions []model.AuditAction
				So(json.NewDecoder(resp.Body).Decode(&actions), ShouldBeNil)
				So(len(actions), ShouldEqual, 2)
				So(actions[0].ID, ShouldEqual, "act-2")
			})
		})

		Convey("When a limit is supplied", func() {
			resp, err := http.Get(srv.URL + "/actions?limit=1")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var actions []model.AuditAction
			So(json.NewDecoder(resp.Body).Decode(&actions), ShouldBeNil)
			So(len(actions), ShouldEqual, 1)
		})

		Convey("When the limit is not a number", func() {
			resp, err := http.Get(srv.URL + "/actions?limit=abc")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the maximum", func() {
			resp, err := http.Get(srv.URL + "/actions?limit=100000")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When no actions have been recorded", func() {
			deps.actions = nil
			resp, err := http.Get(srv.URL + "/actions")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then an empty JSON array is returned", func() {
				var actions []model.AuditAction
				So(json.NewDecoder(resp.Body).Decode(&actions), ShouldBeNil)
				So(actions, ShouldBeEmpty)
			})
		})
	})
}

func TestHealthEndpoint(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv := newTestServer(sampleDeps())
		defer srv.Close()

		Convey("When GET /healthz is requested", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then a metrics scrape succeeds", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}
