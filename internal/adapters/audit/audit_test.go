package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	audit "github.com/roomward/roomward/internal/adapters/audit"
	model "github.com/roomward/roomward/internal/domain/model"
	logging "github.com/roomward/roomward/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

func sampleAction() model.AuditAction {
	return model.AuditAction{
		ID:           "act-1",
		Workspace:    "HQ Huddle 1",
		BookingID:    "bk-1",
		BookingTitle: "Roadmap sync",
		Profile:      "Short Meetings",
		Action:       "Released booking [bk-1] - meeting [meet-1]",
		Simulated:    false,
		At:           time.Date(2024, 3, 18, 9, 5, 0, 0, time.UTC),
	}
}

func TestWebhookSink(t *testing.T) {
	Convey("Given a webhook sink with a bearer token", t, func() {
		var gotAuth, gotContentType string
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sink := audit.NewSink(srv.URL, audit.WithToken("secret-token"))

		Convey("When an action is reported", func() {
			err := sink.Report(context.Background(), sampleAction())

			Convey("Then the endpoint receives the full JSON document", func() {
				So(err, ShouldBeNil)
				So(gotAuth, ShouldEqual, "Bearer secret-token")
				So(gotContentType, ShouldEqual, "application/json")
				So(gotBody["id"], ShouldEqual, "act-1")
				So(gotBody["workspace"], ShouldEqual, "HQ Huddle 1")
				So(gotBody["bookingId"], ShouldEqual, "bk-1")
				So(gotBody["bookingTitle"], ShouldEqual, "Roadmap sync")
				So(gotBody["profile"], ShouldEqual, "Short Meetings")
				So(gotBody["simulated"], ShouldEqual, false)
			})
		})
	})
}

func TestChatSink(t *testing.T) {
	Convey("Given a chat-mode sink", t, func() {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sink := audit.NewSink(srv.URL,
			audit.WithMode(audit.ModeChat),
			audit.WithRecipient("facilities@example.com"),
		)

		Convey("When an action is reported", func() {
			action := sampleAction()
			action.Simulated = true
			err := sink.Report(context.Background(), action)

			Convey("Then the endpoint receives a markdown chat message", func() {
				So(err, ShouldBeNil)
				So(gotBody["recipient"], ShouldEqual, "facilities@example.com")
				markdown, _ := gotBody["markdown"].(string)
				So(markdown, ShouldContainSubstring, "**HQ Huddle 1**")
				So(markdown, ShouldContainSubstring, "Released booking")
				So(markdown, ShouldContainSubstring, "[dry run]")
			})
		})
	})
}

func TestSinkFailures(t *testing.T) {
	Convey("Given an endpoint that rejects deliveries", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		sink := audit.NewSink(srv.URL)

		Convey("When an action is reported", func() {
			err := sink.Report(context.Background(), sampleAction())

			Convey("Then a delivery error is returned", func() {
				So(errors.Is(err, audit.ErrDelivery), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unreachable endpoint", t, func() {
		sink := audit.NewSink("http://127.0.0.1:1", audit.WithTimeout(200*time.Millisecond))

		Convey("When an action is reported", func() {
			err := sink.Report(context.Background(), sampleAction())

			Convey("Then a delivery error is returned", func() {
				So(errors.Is(err, audit.ErrDelivery), ShouldBeTrue)
			})
		})
	})
}

type countingSink struct {
	calls int
	err   error
}

func (c *countingSink) Report(_ context.Context, _ model.AuditAction) error {
	c.calls++
	return c.err
}

func TestMultiSink(t *testing.T) {
	Convey("Given a fan-out over several sinks", t, func() {
		first := &countingSink{err: errors.New("first failed")}
		second := &countingSink{}
		multi := audit.Multi(first, nil, second)

		Convey("When an action is reported", func() {
			err := multi.Report(context.Background(), sampleAction())

			Convey("Then every sink is attempted and the first error surfaces", func() {
				So(first.calls, ShouldEqual, 1)
				So(second.calls, ShouldEqual, 1)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "first failed")
			})
		})
	})
}
