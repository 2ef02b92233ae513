package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/domain/presence"
	"github.com/roomward/roomward/internal/domain/profile"
	"github.com/roomward/roomward/internal/domain/types"
	"github.com/roomward/roomward/pkg/clock"
	"github.com/roomward/roomward/pkg/logger"
	"github.com/roomward/roomward/pkg/metrics"
)

// Default monitor configuration constants.
const (
	defaultAlertDuration = 30 * time.Second
	alertDismissLabel    = "Don't release"
)

// Deps bundles the collaborators a monitor drives.
type Deps struct {
	Sensors  PresenceSensors
	Prompt   PromptRenderer
	Releaser BookingReleaser
	Audit    AuditSink
}

// Monitor is the per-booking release state machine. All transitions are
// serialized by the monitor's own mutex; the signal reads feeding it run
// concurrently outside the lock.
type Monitor struct {
	booking   model.Booking
	prof      profile.Profile
	deps      Deps
	clk       clock.Clock
	log       logger.Logger
	workspace string
	dryRun    bool
	signals   []presence.Signal
	uiEvents  bool
	readTO    time.Duration
	onStopped func(bookingID string, reason StopReason)

	agg *presence.Aggregator
	ctx context.Context

	mu           sync.Mutex
	phase        Phase
	windowStartT clock.Timer
	windowStopT  clock.Timer
	countdownT   clock.Timer
	alertT       clock.Timer
	cdGen        uint64 // bumped on every disarm; stale timer fires check it
	alertShown   bool
	releaseAt    time.Time
	disposers    []func()
	evalInFlight bool
	evalPending  bool
}

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithClock sets the time source. Defaults to the system clock.
func WithClock(clk clock.Clock) Option {
	return func(m *Monitor) {
		if clk != nil {
			m.clk = clk
		}
	}
}

// WithLogger sets a custom logger for the monitor.
func WithLogger(log logger.Logger) Option {
	return func(m *Monitor) {
		if log != nil {
			m.log = log
		}
	}
}

// WithWorkspace sets the workspace name recorded in audit actions.
func WithWorkspace(name string) Option {
	return func(m *Monitor) {
		if name != "" {
			m.workspace = name
		}
	}
}

// WithDryRun suppresses real decline requests. The release transition still
// runs and the audit action is recorded as simulated.
func WithDryRun(dryRun bool) Option {
	return func(m *Monitor) {
		m.dryRun = dryRun
	}
}

// WithSignals sets the pollable presence signals this monitor aggregates.
func WithSignals(signals []presence.Signal) Option {
	return func(m *Monitor) {
		m.signals = append([]presence.Signal(nil), signals...)
	}
}

// WithUIInteraction enables the edge-triggered UI-interaction presence
// override.
func WithUIInteraction(enabled bool) Option {
	return func(m *Monitor) {
		m.uiEvents = enabled
	}
}

// WithReadTimeout bounds each presence signal read.
func WithReadTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		if timeout > 0 {
			m.readTO = timeout
		}
	}
}

// WithOnStopped registers a callback invoked exactly once when the monitor
// reaches its terminal phase. The registry uses it to deregister.
func WithOnStopped(fn func(bookingID string, reason StopReason)) Option {
	return func(m *Monitor) {
		m.onStopped = fn
	}
}

// New creates a monitor for a booking matched to a profile. Start must be
// called to schedule the monitoring window.
func New(booking model.Booking, prof profile.Profile, deps Deps, opts ...Option) *Monitor {
	m := &Monitor{
		booking:   booking,
		prof:      prof,
		deps:      deps,
		clk:       clock.System(),
		workspace: "workspace",
		signals:   append([]presence.Signal(nil), presence.PollableSignals...),
		uiEvents:  true,
		phase:     PhaseCreated,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get().Named("monitor")
	}

	aggOpts := []presence.Option{presence.WithLogger(m.log)}
	if m.readTO > 0 {
		aggOpts = append(aggOpts, presence.WithReadTimeout(m.readTO))
	}
	m.agg = presence.NewAggregator(deps.Sensors, m.signals, aggOpts...)
	return m
}

// Start schedules the monitoring window. For profiles with monitoring
// disabled it transitions straight to the terminal phase and does nothing
// else.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != PhaseCreated {
		m.mu.Unlock()
		return fmt.Errorf("%w: booking %s", ErrAlreadyStarted, m.booking.ID)
	}

	if !m.prof.Monitor {
		m.mu.Unlock()
		m.log.Info(ctx, "profile disables monitoring; leaving booking untouched",
			logger.String("bookingID", m.booking.ID),
			logger.String("profile", m.prof.Name),
		)
		m.Stop(ReasonNotMonitored)
		return nil
	}

	m.ctx = ctx
	now := m.clk.Now()
	startDelay := m.booking.Start.Add(m.prof.StartAfter).Sub(now)
	if startDelay < 0 {
		startDelay = 0
	}
	stopDelay := m.booking.Start.Add(m.prof.StopAfter).Sub(now)
	if stopDelay < 0 {
		stopDelay = 0
	}

	m.phase = PhaseAwaitingWindow
	m.windowStartT = m.clk.AfterFunc(startDelay, m.onWindowStart)
	m.windowStopT = m.clk.AfterFunc(stopDelay, m.onWindowStop)
	m.mu.Unlock()

	metrics.RecordMonitorStarted()
	m.log.Info(ctx, "monitoring window scheduled",
		logger.String("bookingID", m.booking.ID),
		logger.String("profile", m.prof.Name),
		logger.Duration("startIn", startDelay),
		logger.Duration("stopIn", stopDelay),
	)
	return nil
}

// Stop drives the monitor to its terminal phase: cancels every timer and
// every subscription, exactly once. Safe to call repeatedly from any phase.
func (m *Monitor) Stop(reason StopReason) {
	m.mu.Lock()
	if m.phase == PhaseStopped {
		m.mu.Unlock()
		return
	}
	wasCountingDown := m.phase == PhaseCountingDown
	m.phase = PhaseStopped

	stopTimer(m.windowStartT)
	stopTimer(m.windowStopT)
	m.disarmCountdownLocked()
	m.windowStartT, m.windowStopT = nil, nil

	disposers := m.disposers
	m.disposers = nil
	m.mu.Unlock()

	for _, dispose := range disposers {
		dispose()
	}
	if wasCountingDown {
		m.clearPrompt()
	}

	m.log.Info(m.baseCtx(), "monitor stopped",
		logger.String("bookingID", m.booking.ID),
		logger.String("reason", string(reason)),
	)
	// A profile that never monitored was never counted as started.
	if reason != ReasonNotMonitored {
		metrics.RecordMonitorStopped(string(reason))
	}

	if reason == ReasonWindowClosed {
		m.audit("Stopped monitoring booking ["+m.booking.ID+"] without releasing", false)
	}

	if m.onStopped != nil {
		m.onStopped(m.booking.ID, reason)
	}
}

// Phase returns the current phase.
func (m *Monitor) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// BookingID returns the id of the monitored booking.
func (m *Monitor) BookingID() string {
	return m.booking.ID
}

// Info returns a status snapshot for the HTTP API.
func (m *Monitor) Info() types.MonitorInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := types.MonitorInfo{
		BookingID:    m.booking.ID,
		BookingTitle: m.booking.Title,
		Profile:      m.prof.Name,
		Phase:        m.phase.String(),
		WindowStart:  m.booking.Start.Add(m.prof.StartAfter),
		WindowStop:   m.booking.Start.Add(m.prof.StopAfter),
	}
	if m.phase == PhaseCountingDown {
		at := m.releaseAt
		info.ReleaseAt = &at
		info.AlertPending = m.alertShown
	}
	return info
}

// onWindowStart subscribes to presence signals and runs the first
// evaluation.
func (m *Monitor) onWindowStart() {
	m.mu.Lock()
	if m.phase != PhaseAwaitingWindow {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseActiveMonitoring

	for _, sig := range m.agg.Signals() {
		unsubscribe, err := m.deps.Sensors.Subscribe(sig, m.triggerEvaluation)
		if err != nil {
			m.log.Warn(m.baseCtx(), "signal subscription failed",
				logger.String("bookingID", m.booking.ID),
				logger.String("signal", string(sig)),
				logger.Error(err),
			)
			continue
		}
		m.disposers = append(m.disposers, unsubscribe)
	}
	if m.uiEvents {
		unsubscribe, err := m.deps.Sensors.Subscribe(presence.SignalUIInteraction, m.onInteraction)
		if err != nil {
			m.log.Warn(m.baseCtx(), "UI interaction subscription failed",
				logger.String("bookingID", m.booking.ID),
				logger.Error(err),
			)
		} else {
			m.disposers = append(m.disposers, unsubscribe)
		}
	}
	m.mu.Unlock()

	m.log.Info(m.baseCtx(), "presence monitoring active",
		logger.String("bookingID", m.booking.ID),
		logger.String("profile", m.prof.Name),
	)
	m.triggerEvaluation()
}

// onWindowStop closes the monitoring window without a release.
func (m *Monitor) onWindowStop() {
	m.mu.Lock()
	if m.phase == PhaseStopped || m.phase == PhaseReleasing {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.Stop(ReasonWindowClosed)
}

// triggerEvaluation requests a presence evaluation. An evaluation already in
// flight absorbs the request: concurrent signal changes coalesce into one
// follow-up evaluation instead of stacking.
func (m *Monitor) triggerEvaluation() {
	m.mu.Lock()
	if m.phase != PhaseActiveMonitoring && m.phase != PhaseCountingDown {
		m.mu.Unlock()
		return
	}
	if m.evalInFlight {
		m.evalPending = true
		m.mu.Unlock()
		return
	}
	m.evalInFlight = true
	m.mu.Unlock()

	for {
		m.evaluateOnce()

		m.mu.Lock()
		if !m.evalPending {
			m.evalInFlight = false
			m.mu.Unlock()
			return
		}
		m.evalPending = false
		m.mu.Unlock()
	}
}

// evaluateOnce runs one full presence evaluation and applies the verdict.
func (m *Monitor) evaluateOnce() {
	ctx := m.baseCtx()
	start := time.Now()
	verdict := m.agg.Evaluate(ctx)
	metrics.RecordEvaluationDuration(float64(time.Since(start).Milliseconds()))
	metrics.RecordEvaluation(verdict.Occupied)
	for _, r := range verdict.Results {
		outcome := "ok"
		if r.Err != nil {
			outcome = "unavailable"
		}
		metrics.RecordSignalRead(string(r.Signal), outcome)
	}

	m.log.Debug(ctx, "presence evaluated",
		logger.String("bookingID", m.booking.ID),
		logger.Bool("occupied", verdict.Occupied),
		logger.Int("signalsAvailable", verdict.Available()),
	)
	if verdict.Available() == 0 && len(verdict.Results) > 0 {
		m.log.Warn(ctx, "no presence signal available; treating room as unoccupied",
			logger.String("bookingID", m.booking.ID),
		)
	}

	m.applyVerdict(ctx, verdict.Occupied)
}

// applyVerdict advances the state machine on an occupancy verdict.
func (m *Monitor) applyVerdict(ctx context.Context, occupied bool) {
	m.mu.Lock()
	switch {
	case occupied && m.phase == PhaseCountingDown:
		m.disarmCountdownLocked()
		m.phase = PhaseActiveMonitoring
		m.mu.Unlock()

		metrics.RecordCountdownCanceled("presence")
		m.clearPrompt()
		m.log.Info(ctx, "presence detected; countdown canceled",
			logger.String("bookingID", m.booking.ID),
		)

	case !occupied && m.phase == PhaseActiveMonitoring:
		m.armCountdownLocked()
		m.mu.Unlock()

		metrics.RecordCountdownStarted()
		m.log.Info(ctx, "no presence detected; countdown started",
			logger.String("bookingID", m.booking.ID),
			logger.Duration("countdown", m.prof.RequiredUnoccupied),
		)

	default:
		// Occupied while plainly active, or unoccupied while already
		// counting down (steady no-presence must not restart the clock).
		m.mu.Unlock()
	}
}

// onInteraction handles an edge-triggered UI interaction: it counts as
// presence immediately, regardless of what the aggregator would report.
func (m *Monitor) onInteraction() {
	m.mu.Lock()
	if m.phase != PhaseCountingDown {
		m.mu.Unlock()
		return
	}
	m.disarmCountdownLocked()
	m.phase = PhaseActiveMonitoring
	m.mu.Unlock()

	metrics.RecordCountdownCanceled("ui_interaction")
	m.clearPrompt()
	m.log.Info(m.baseCtx(), "UI interaction; countdown canceled",
		logger.String("bookingID", m.booking.ID),
	)
}

// armCountdownLocked arms the countdown and alert timer pair. Arming always
// disarms any existing pair first, so at most one pair is ever live.
// Must be called with m.mu held.
func (m *Monitor) armCountdownLocked() {
	m.disarmCountdownLocked()

	gen := m.cdGen
	m.releaseAt = m.clk.Now().Add(m.prof.RequiredUnoccupied)
	m.countdownT = m.clk.AfterFunc(m.prof.RequiredUnoccupied, func() { m.onCountdownExpired(gen) })
	if m.prof.AlertBefore > 0 {
		m.alertT = m.clk.AfterFunc(m.prof.RequiredUnoccupied-m.prof.AlertBefore, func() { m.onAlertDue(gen) })
	}
	m.phase = PhaseCountingDown
}

// disarmCountdownLocked cancels the countdown and alert timer pair and
// invalidates any fire already queued behind the lock.
// Must be called with m.mu held.
func (m *Monitor) disarmCountdownLocked() {
	stopTimer(m.countdownT)
	stopTimer(m.alertT)
	m.countdownT, m.alertT = nil, nil
	m.alertShown = false
	m.releaseAt = time.Time{}
	m.cdGen++
}

// onAlertDue shows the pre-release warning. Informational only: the phase
// does not change.
func (m *Monitor) onAlertDue(gen uint64) {
	m.mu.Lock()
	if m.phase != PhaseCountingDown || gen != m.cdGen {
		m.mu.Unlock()
		return
	}
	m.alertShown = true
	m.mu.Unlock()

	metrics.RecordAlertDisplayed()
	ctx := m.baseCtx()
	prompt := Prompt{
		Title:    "No Presence Detected",
		Text:     fmt.Sprintf("Booking [%s] will be released in [%s]", m.booking.Title, m.prof.AlertBefore),
		Option:   alertDismissLabel,
		Duration: defaultAlertDuration,
	}
	if err := m.deps.Prompt.Display(ctx, prompt); err != nil {
		m.log.Warn(ctx, "failed to display release alert",
			logger.String("bookingID", m.booking.ID),
			logger.Error(err),
		)
	}
}

// onCountdownExpired transitions to releasing and issues the release.
func (m *Monitor) onCountdownExpired(gen uint64) {
	m.mu.Lock()
	if m.phase != PhaseCountingDown || gen != m.cdGen {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseReleasing
	stopTimer(m.alertT)
	m.countdownT, m.alertT = nil, nil
	m.releaseAt = time.Time{}
	m.mu.Unlock()

	m.release()
}

// release issues the decline request (or simulates it in dry-run mode),
// records the audit action, and stops the monitor. A failed request is
// logged and audited but never blocks shutdown.
func (m *Monitor) release() {
	ctx := m.baseCtx()

	if m.dryRun {
		m.log.Info(ctx, "dry run: skipping decline request",
			logger.String("bookingID", m.booking.ID),
			logger.String("meetingRef", m.booking.MeetingRef),
		)
		metrics.RecordRelease("simulated")
		m.audit(fmt.Sprintf("Simulated release of booking [%s] - meeting [%s]",
			m.booking.ID, m.booking.MeetingRef), true)
		m.Stop(ReasonReleased)
		return
	}

	err := m.deps.Releaser.Decline(ctx, m.booking.MeetingRef)
	if err != nil {
		m.log.Warn(ctx, "decline request failed",
			logger.String("bookingID", m.booking.ID),
			logger.String("meetingRef", m.booking.MeetingRef),
			logger.Error(fmt.Errorf("%w: %w", ErrReleaseFailed, err)),
		)
		metrics.RecordRelease("failed")
		m.audit(fmt.Sprintf("Unable to release booking [%s] - meeting [%s]: %v",
			m.booking.ID, m.booking.MeetingRef, err), false)
	} else {
		m.log.Info(ctx, "booking released",
			logger.String("bookingID", m.booking.ID),
			logger.String("meetingRef", m.booking.MeetingRef),
		)
		metrics.RecordRelease("released")
		m.audit(fmt.Sprintf("Released booking [%s] - meeting [%s]",
			m.booking.ID, m.booking.MeetingRef), false)
	}

	m.Stop(ReasonReleased)
}

// audit reports one action to the sink. Best-effort: failures are logged
// and swallowed, never retried.
func (m *Monitor) audit(text string, simulated bool) {
	if m.deps.Audit == nil {
		return
	}
	ctx := m.baseCtx()
	action := model.AuditAction{
		ID:           uuid.NewString(),
		Workspace:    m.workspace,
		BookingID:    m.booking.ID,
		BookingTitle: m.booking.Title,
		Profile:      m.prof.Name,
		Action:       text,
		Simulated:    simulated,
		At:           m.clk.Now(),
	}
	if err := m.deps.Audit.Report(ctx, action); err != nil {
		m.log.Warn(ctx, "audit report delivery failed",
			logger.String("bookingID", m.booking.ID),
			logger.Error(err),
		)
		metrics.RecordAuditReport("failed")
		return
	}
	metrics.RecordAuditReport("accepted")
}

func (m *Monitor) clearPrompt() {
	if m.deps.Prompt == nil {
		return
	}
	ctx := m.baseCtx()
	if err := m.deps.Prompt.Clear(ctx); err != nil {
		m.log.Debug(ctx, "failed to clear prompt",
			logger.String("bookingID", m.booking.ID),
			logger.Error(err),
		)
	}
}

func (m *Monitor) baseCtx() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}

func stopTimer(t clock.Timer) {
	if t != nil {
		t.Stop()
	}
}
