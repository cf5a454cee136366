package uwb

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MetricsReporter is the narrow metrics surface the manager depends on,
// implemented by internal/metrics.Collector. Kept as an interface here so
// internal/uwb never imports the prometheus client directly.
type MetricsReporter interface {
	RegisterSession(sessionType string)
	UnregisterSession(sessionType string)
	RecordStateTransition(sessionType, from, to string)
	IncDataReceived(sessionType string)
	IncDataDropped(sessionType string)
	IncErrorStreakFired(sessionType string)
	IncEviction(sessionType string)
}

// noopMetrics is used when no MetricsReporter is supplied.
type noopMetrics struct{}

func (noopMetrics) RegisterSession(string)             {}
func (noopMetrics) UnregisterSession(string)            {}
func (noopMetrics) RecordStateTransition(_, _, _ string) {}
func (noopMetrics) IncDataReceived(string)              {}
func (noopMetrics) IncDataDropped(string)               {}
func (noopMetrics) IncErrorStreakFired(string)          {}
func (noopMetrics) IncEviction(string)                  {}

// Config bundles the Policy Engine's tunables (spec §4.3-§4.5), loaded from
// internal/config and passed to NewManager.
type Config struct {
	MaxFiraSessions                  int
	MaxCccSessions                   int
	BackgroundRangingEnabled         bool
	RangingErrorStreakTimerEnabled   bool
	CccAbsoluteInitiationTimeEnabled bool
	ErrorStreakDefaultMultiplier     uint32
	RxQueueMaxDepth                  int

	OpenTimeout        time.Duration
	StartTimeout       time.Duration
	StopTimeout        time.Duration
	ReconfigureTimeout time.Duration
	SendDataTimeout    time.Duration
	MulticastTimeout   time.Duration
}

// DefaultConfig returns the policy/timeout defaults named in spec §4.2-§4.5.
func DefaultConfig() Config {
	return Config{
		MaxFiraSessions:                  5,
		MaxCccSessions:                   1,
		BackgroundRangingEnabled:         false,
		RangingErrorStreakTimerEnabled:   true,
		CccAbsoluteInitiationTimeEnabled: true,
		ErrorStreakDefaultMultiplier:     2,
		RxQueueMaxDepth:                  defaultRxQueueMaxDepth,
		OpenTimeout:                      time.Second,
		StartTimeout:                     time.Second,
		StopTimeout:                      time.Second,
		ReconfigureTimeout:               time.Second,
		SendDataTimeout:                  time.Second,
		MulticastTimeout:                 time.Second,
	}
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithMetrics attaches a MetricsReporter.
func WithMetrics(m MetricsReporter) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ManagerOption {
	return func(mgr *Manager) { mgr.logger = l }
}

// WithAdvertiseManager attaches the OwR-AoA advertise-target registry
// collaborator (spec §1, §4.7).
func WithAdvertiseManager(a AdvertiseManager) ManagerOption {
	return func(mgr *Manager) { mgr.advertiseManager = a }
}

// WithOemPointedTargetChecker attaches the optional oem-extension hook
// consulted during OwR-AoA delivery (spec §4.7 step 3).
func WithOemPointedTargetChecker(c OemPointedTargetChecker) ManagerOption {
	return func(mgr *Manager) { mgr.oemChecker = c }
}

// Manager is the top-level session manager: owns the Session Table, the
// Command Dispatcher, the Policy Engine's shared state, and the
// notification fan-out channels. It is the single entry point client code
// and the Notification Router use.
type Manager struct {
	table      *Table
	dispatcher *Dispatcher
	driver     Driver
	cfg        Config
	metrics    MetricsReporter
	logger     *slog.Logger

	policy *policyState

	advertiseManager AdvertiseManager
	oemChecker       OemPointedTargetChecker

	nextSessionID uint32

	rawNotifyCh    chan StateChange
	publicNotifyCh chan StateChange
}

// NewManager constructs a Manager. The caller must run mgr.dispatcher.Run
// and mgr.RunNotify in their own goroutines (typically via errgroup in
// cmd/uwbd) before issuing any session operations.
func NewManager(driver Driver, cfg Config, opts ...ManagerOption) *Manager {
	mgr := &Manager{
		table:          NewTable(),
		dispatcher:     NewDispatcher(),
		driver:         driver,
		cfg:            cfg,
		metrics:        noopMetrics{},
		logger:         slog.Default(),
		rawNotifyCh:    make(chan StateChange, 64),
		publicNotifyCh: make(chan StateChange, 64),
	}
	mgr.policy = newPolicyState(mgr)
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Dispatcher exposes the manager's command dispatcher so the daemon can run
// it under its own supervision (cmd/uwbd).
func (m *Manager) Dispatcher() *Dispatcher { return m.dispatcher }

// StateChanges returns the public, de-duplicated fan-out channel of session
// state changes. External consumers (logging bridges, CLI watchers) read
// from this channel rather than registering callbacks directly.
func (m *Manager) StateChanges() <-chan StateChange { return m.publicNotifyCh }

// RunNotify forwards state changes from the internal raw channel to the
// public channel, dropping (with a warning log) if a slow consumer leaves
// the public channel full, so that a stalled subscriber never blocks the
// Notification Router.
func (m *Manager) RunNotify(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-m.rawNotifyCh:
			select {
			case m.publicNotifyCh <- change:
			default:
				m.logger.Warn("dropping state change notification, public channel full",
					"session_id", change.SessionID, "from", change.From.String(), "to", change.To.String())
			}
		}
	}
}

func (m *Manager) emitStateChange(s *Session, from, to State) {
	change := StateChange{SessionID: s.id, SessionHandle: s.handle, From: from, To: to}
	select {
	case m.rawNotifyCh <- change:
	default:
		m.logger.Warn("dropping raw state change, internal channel full", "session_id", s.id)
	}
	m.metrics.RecordStateTransition(s.sessionType.String(), from.String(), to.String())
}

func (m *Manager) allocateSessionID() uint32 {
	m.nextSessionID++
	return m.nextSessionID
}

// Sessions returns a snapshot of all resident sessions.
func (m *Manager) Sessions() []*Session { return m.table.Snapshot() }

// LookupByHandle resolves a client-scoped handle to its Session.
func (m *Manager) LookupByHandle(h SessionHandle) *Session { return m.table.LookupByHandle(h) }

// LookupByID resolves a numeric session id to its Session.
func (m *Manager) LookupByID(id uint32) *Session { return m.table.LookupByID(id) }

// Close shuts down the dispatcher, refusing further Post calls. It does not
// cancel in-flight work; callers should cancel the context passed to Run
// and RunNotify separately, after Close, to drain cleanly.
func (m *Manager) Close() {
	m.dispatcher.Close()
}

// errCallbackReason renders an error into the string form the client
// callback sink expects for free-text reason fields.
func errCallbackReason(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
