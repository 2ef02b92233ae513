// Package presence combines independent room-presence signals into a single
// occupancy verdict.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/roomward/roomward/pkg/logger"
)

// Default aggregation configuration constants.
const (
	defaultReadTimeout = 3 * time.Second
)

// Signal identifies one independent presence signal source.
type Signal string

// Presence signal types.
const (
	SignalActiveCall     Signal = "active_call"
	SignalMTRCall        Signal = "mtr_call"
	SignalPresentation   Signal = "presentation"
	SignalPeopleCount    Signal = "people_count"
	SignalPeoplePresence Signal = "people_presence"
	SignalUIInteraction  Signal = "ui_interaction"
)

// PollableSignals lists the signals the aggregator reads on demand.
// SignalUIInteraction is edge-triggered and never polled: any interaction
// event counts as presence at the moment it occurs.
var PollableSignals = []Signal{
	SignalActiveCall,
	SignalMTRCall,
	SignalPresentation,
	SignalPeopleCount,
	SignalPeoplePresence,
}

// Reader reads the current boolean state of one presence signal.
// Reads are async I/O against an external sensor and may fail.
type Reader interface {
	Read(ctx context.Context, signal Signal) (bool, error)
}

// Result is the outcome of reading one signal during an evaluation.
type Result struct {
	Signal Signal
	Active bool
	Err    error // non-nil means the signal was unavailable for this evaluation
}

// Verdict is the combined outcome of one presence evaluation.
type Verdict struct {
	// Occupied is true iff at least one available signal read true.
	Occupied bool

	// Results holds the per-signal outcomes in enablement order.
	Results []Result
}

// Available returns how many signals produced a usable reading.
func (v Verdict) Available() int {
	n := 0
	for _, r := range v.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Aggregator evaluates a fixed set of enabled signals through a Reader.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	sensors Reader
	enabled []Signal
	timeout time.Duration
	log     logger.Logger
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithReadTimeout bounds each individual signal read. A read that does not
// complete within the timeout counts as unavailable.
func WithReadTimeout(timeout time.Duration) Option {
	return func(a *Aggregator) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the aggregator.
func WithLogger(log logger.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAggregator creates an Aggregator over the enabled signals. The slice is
// copied; signals for which nothing can be read (none enabled) yield an
// unoccupied verdict with zero results.
func NewAggregator(sensors Reader, enabled []Signal, opts ...Option) *Aggregator {
	a := &Aggregator{
		sensors: sensors,
		enabled: append([]Signal(nil), enabled...),
		timeout: defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Signals returns the enabled signal set.
func (a *Aggregator) Signals() []Signal {
	return append([]Signal(nil), a.enabled...)
}

// Evaluate reads every enabled signal concurrently, waits for all reads to
// finish, and ORs the available readings into one occupancy verdict.
// A failed or timed-out read is unavailable: excluded from the OR, never
// treated as true or false. Evaluate never returns an error; sensor failures
// degrade the verdict, they do not abort it.
func (a *Aggregator) Evaluate(ctx context.Context) Verdict {
	results := make([]Result, len(a.enabled))

	var wg sync.WaitGroup
	for i, sig := range a.enabled {
		wg.Add(1)
		go func(i int, sig Signal) {
			defer wg.Done()
			readCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			active, err := a.sensors.Read(readCtx, sig)
			results[i] = Result{Signal: sig, Active: active, Err: err}
		}(i, sig)
	}
	wg.Wait()

	verdict := Verdict{Results: results}
	for _, r := range results {
		if r.Err != nil {
			a.debugUnavailable(ctx, r)
			continue
		}
		if r.Active {
			verdict.Occupied = true
		}
	}
	return verdict
}

func (a *Aggregator) debugUnavailable(ctx context.Context, r Result) {
	if a.log == nil {
		return
	}
	a.log.Warn(ctx, "presence signal unavailable",
		logger.String("signal", string(r.Signal)),
		logger.Error(r.Err),
	)
}
