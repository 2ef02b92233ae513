// Package audit delivers release actions to an external review endpoint
// over HTTP. Two payload shapes are supported: a generic webhook JSON
// document and a chat message with a markdown body.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/logger"
)

// Mode selects the payload shape a sink sends.
type Mode string

// Supported payload shapes.
const (
	ModeWebhook Mode = "webhook"
	ModeChat    Mode = "chat"
)

// Default sink configuration constants.
const (
	defaultRequestTimeout = 10 * time.Second
)

// webhookPayload is the generic JSON document posted in webhook mode.
type webhookPayload struct {
	ID           string    `json:"id"`
	Workspace    string    `json:"workspace"`
	BookingID    string    `json:"bookingId"`
	BookingTitle string    `json:"bookingTitle"`
	Profile      string    `json:"profile"`
	Action       string    `json:"action"`
	Simulated    bool      `json:"simulated"`
	TS           time.Time `json:"ts"`
}

// chatPayload is a direct chat message with a markdown body.
type chatPayload struct {
	Recipient string `json:"recipient"`
	Markdown  string `json:"markdown"`
}

// Sink posts audit actions to a single HTTP endpoint.
type Sink struct {
	client    *http.Client
	url       string
	token     string
	mode      Mode
	recipient string
	log       logger.Logger
}

// NewSink creates a sink posting to the given URL. The default mode is
// webhook.
func NewSink(url string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: defaultRequestTimeout},
		url:    url,
		mode:   ModeWebhook,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("audit")
	}
	return s
}

// Report posts one action. The request body depends on the sink mode.
func (s *Sink) Report(ctx context.Context, action model.AuditAction) error {
	var payload any
	switch s.mode {
	case ModeChat:
		payload = chatPayload{
			Recipient: s.recipient,
			Markdown:  renderMarkdown(action),
		}
	default:
		payload = webhookPayload{
			ID:           action.ID,
			Workspace:    action.Workspace,
			BookingID:    action.BookingID,
			BookingTitle: action.BookingTitle,
			Profile:      action.Profile,
			Action:       action.Action,
			Simulated:    action.Simulated,
			TS:           action.At,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: endpoint returned %s", ErrDelivery, resp.Status)
	}

	s.log.Debug(ctx, "audit action delivered",
		logger.String("actionID", action.ID),
		logger.String("mode", string(s.mode)),
	)
	return nil
}

// renderMarkdown formats an action as a one-line chat message.
func renderMarkdown(action model.AuditAction) string {
	text := fmt.Sprintf("**%s**: %s _(profile: %s)_", action.Workspace, action.Action, action.Profile)
	if action.Simulated {
		text += " `[dry run]`"
	}
	return text
}

// Multi fans one action out to several sinks. Every sink is attempted;
// the first error is returned.
func Multi(sinks ...monitor.AuditSink) monitor.AuditSink {
	return multiSink(sinks)
}

type multiSink []monitor.AuditSink

func (m multiSink) Report(ctx context.Context, action model.AuditAction) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(ctx, action); err != nil && first == nil {
			first = err
		}
	}
	return first
}
