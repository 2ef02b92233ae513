// Package sim provides an in-process stand-in for a room device and its
// calendar: presence signals, occupant prompts, and booking decline
// requests, all scriptable from code. It backs demo runs and tests where
// no real device is reachable.
package sim

import (
	"context"
	"sync"

	"github.com/roomward/roomward/internal/domain/presence"
	"github.com/roomward/roomward/internal/monitor"
	"github.com/roomward/roomward/pkg/logger"
)

// Device simulates the room device surface: presence sensors, the prompt
// panel, and the decline endpoint.
type Device struct {
	log logger.Logger

	mu       sync.Mutex
	signals  map[presence.Signal]bool
	readErr  map[presence.Signal]error
	subs     map[presence.Signal]map[int]func()
	nextSub  int
	prompt   *monitor.Prompt
	declined []string
	declErr  error
}

// NewDevice creates a device with every signal reading inactive.
func NewDevice(opts ...DeviceOption) *Device {
	d := &Device{
		signals: make(map[presence.Signal]bool),
		readErr: make(map[presence.Signal]error),
		subs:    make(map[presence.Signal]map[int]func()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Get().Named("sim")
	}
	return d
}

// Read reports the scripted state of a signal.
func (d *Device) Read(_ context.Context, sig presence.Signal) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.readErr[sig]; err != nil {
		return false, err
	}
	return d.signals[sig], nil
}

// Subscribe registers a change callback for a signal.
func (d *Device) Subscribe(sig presence.Signal, onChange func()) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.subs[sig] == nil {
		d.subs[sig] = make(map[int]func())
	}
	id := d.nextSub
	d.nextSub++
	d.subs[sig][id] = onChange

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs[sig], id)
	}, nil
}

// SetSignal scripts a signal state and notifies subscribers on change.
func (d *Device) SetSignal(sig presence.Signal, active bool) {
	d.mu.Lock()
	if d.signals[sig] == active {
		d.mu.Unlock()
		return
	}
	d.signals[sig] = active
	callbacks := d.callbacksLocked(sig)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// FailSignal scripts a read error for a signal. A nil error restores it.
func (d *Device) FailSignal(sig presence.Signal, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.readErr, sig)
		return
	}
	d.readErr[sig] = err
}

// Interact fires one UI interaction event.
func (d *Device) Interact() {
	d.mu.Lock()
	callbacks := d.callbacksLocked(presence.SignalUIInteraction)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

func (d *Device) callbacksLocked(sig presence.Signal) []func() {
	callbacks := make([]func(), 0, len(d.subs[sig]))
	for _, cb := range d.subs[sig] {
		callbacks = append(callbacks, cb)
	}
	return callbacks
}

// Display shows a prompt on the simulated panel.
func (d *Device) Display(ctx context.Context, p monitor.Prompt) error {
	d.mu.Lock()
	d.prompt = &p
	d.mu.Unlock()

	d.log.Info(ctx, "prompt displayed",
		logger.String("title", p.Title),
		logger.String("text", p.Text),
	)
	return nil
}

// Clear removes the current prompt, if any.
func (d *Device) Clear(ctx context.Context) error {
	d.mu.Lock()
	cleared := d.prompt != nil
	d.prompt = nil
	d.mu.Unlock()

	if cleared {
		d.log.Info(ctx, "prompt cleared")
	}
	return nil
}

// CurrentPrompt returns the prompt currently on the panel, if any.
func (d *Device) CurrentPrompt() (monitor.Prompt, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.prompt == nil {
		return monitor.Prompt{}, false
	}
	return *d.prompt, true
}

// Decline records a decline request.
func (d *Device) Decline(ctx context.Context, meetingRef string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.declErr != nil {
		return d.declErr
	}
	d.declined = append(d.declined, meetingRef)
	d.log.Info(ctx, "decline recorded", logger.String("meetingRef", meetingRef))
	return nil
}

// FailDecline scripts an error for subsequent decline requests.
func (d *Device) FailDecline(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.declErr = err
}

// Declined returns the meeting refs declined so far.
func (d *Device) Declined() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.declined...)
}
