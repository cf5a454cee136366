package uwb

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// SessionHandle is an opaque client-scoped token identifying a session from
// the caller's point of view, distinct from the numeric session-id used
// internally and with the driver.
type SessionHandle uint64

// Attribution identifies one link in a session's attribution chain (uid +
// package), used by the foreground/background policy.
type Attribution struct {
	UID     int
	Package string
}

// SessionConfig carries the caller-supplied, immutable-for-life fields used
// to construct a Session.
type SessionConfig struct {
	SessionID     uint32
	SessionHandle SessionHandle
	SessionType   SessionType
	ChipID        string
	Attribution   []Attribution
	Callbacks     ClientCallbacks
	Params        OpenParams

	// RxQueueMaxDepth bounds the per-peer inbound queue (§3
	// ReceivedDataInfo). Zero means use the package default of 10.
	RxQueueMaxDepth int
}

// Sentinel validation errors for NewSession.
var (
	ErrNilCallbacks = fmt.Errorf("uwb: session callbacks: %w", ErrInvalidParam)
	ErrNilParams    = fmt.Errorf("uwb: session params: %w", ErrInvalidParam)
)

func validateSessionConfig(cfg SessionConfig) error {
	if cfg.Callbacks == nil {
		return ErrNilCallbacks
	}
	if cfg.Params == nil {
		return ErrNilParams
	}
	return nil
}

const defaultRxQueueMaxDepth = 10

// Session is the per-session record owned by the Session Table for its
// lifetime (spec §3). Atomic fields support lock-free reads from outside
// the dispatcher/router critical sections; the mutex guards the
// compound/slice-valued mutable fields (params cache, queues, controlee
// list) that cannot be represented atomically.
type Session struct {
	// Immutable for the lifetime of the session.
	id          uint32
	handle      SessionHandle
	sessionType SessionType
	chipID      string
	attribution []Attribution
	callbacks   ClientCallbacks

	// state is read lock-free by status queries; mutated only by
	// applyFSMEvent, which holds mu.
	state atomic.Uint32

	// priority is the stack-assigned priority (§4.3); mutated by the
	// foreground/background policy.
	priority atomic.Uint32

	mu sync.Mutex

	// params is the cached, already-rewritten open-params variant.
	params OpenParams

	// controlees is the ordered controlee list (§3 ControleeList).
	controlees []uint64

	// rxQueues holds the bounded, sequence-ordered inbound queue per peer
	// MAC, used only for OwR-AoA sessions (datapath.go).
	rxQueues map[uint64]*rxQueue

	// sends tracks in-flight outbound packets by UCI sequence number
	// (senddata.go).
	sends map[uint16]*sendRecord
	nextSeq uint16

	// errorStreakTimer is the armed error-streak alarm, nil when disarmed
	// (errorstreak.go).
	errorStreakTimer *time.Timer

	// bgTimer is the armed background-app timer, nil when disarmed
	// (foreground.go).
	bgTimer *time.Timer

	// cond is signalled whenever state changes, waking the dispatcher's
	// blocking wait for an expected transition (dispatcher.go).
	cond *sync.Cond

	rxQueueMaxDepth int
}

// NewSession constructs a Session in StateInit. It does not contact the
// driver; the caller (Manager.CreateSession) is responsible for issuing
// initSession via the dispatcher after construction.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := validateSessionConfig(cfg); err != nil {
		return nil, err
	}

	depth := cfg.RxQueueMaxDepth
	if depth <= 0 {
		depth = defaultRxQueueMaxDepth
	}

	s := &Session{
		id:              cfg.SessionID,
		handle:          cfg.SessionHandle,
		sessionType:     cfg.SessionType,
		chipID:          cfg.ChipID,
		attribution:     cfg.Attribution,
		callbacks:       cfg.Callbacks,
		params:          cfg.Params,
		rxQueues:        make(map[uint64]*rxQueue),
		sends:           make(map[uint16]*sendRecord),
		rxQueueMaxDepth: depth,
	}
	s.cond = sync.NewCond(&s.mu)
	s.state.Store(uint32(StateInit))
	return s, nil
}

// ID returns the session's numeric id.
func (s *Session) ID() uint32 { return s.id }

// Handle returns the session's client-scoped handle.
func (s *Session) Handle() SessionHandle { return s.handle }

// Type returns the session's protocol type.
func (s *Session) Type() SessionType { return s.sessionType }

// ChipID returns the chip the session was opened on.
func (s *Session) ChipID() string { return s.chipID }

// State returns the session's current FSM state. Safe for concurrent use.
func (s *Session) State() State { return State(s.state.Load()) }

// Priority returns the session's current stack-assigned priority. Safe for
// concurrent use.
func (s *Session) Priority() Priority { return Priority(s.priority.Load()) }

// SetPriority updates the session's stack-assigned priority. Called by the
// Policy Engine on creation and on foreground/background transitions.
func (s *Session) SetPriority(p Priority) { s.priority.Store(uint32(p)) }

// Attribution returns the session's attribution chain.
func (s *Session) Attribution() []Attribution { return s.attribution }

// Callbacks returns the session's client callback sink.
func (s *Session) Callbacks() ClientCallbacks { return s.callbacks }

// Params returns a clone of the session's cached open-params, safe for the
// caller to read or mutate without affecting the session's cache.
func (s *Session) Params() OpenParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Clone()
}

// setParams replaces the session's cached open-params. Called by the
// Protocol Adapter after rewriting and by reconfigure.
func (s *Session) setParams(p OpenParams) {
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
}

// Controlees returns a copy of the session's ordered controlee list.
func (s *Session) Controlees() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.controlees))
	copy(out, s.controlees)
	return out
}

// applyFSMEvent applies event to the session's FSM under its lock, updates
// state, signals waiters, and returns the result for the caller to act on
// (invoking client callbacks, logging, metrics).
func (s *Session) applyFSMEvent(event Event) FSMResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := ApplyEvent(State(s.state.Load()), event)
	if result.Changed {
		s.state.Store(uint32(result.NewState))
		s.cond.Broadcast()
	}
	return result
}

// waitForState blocks until the session reaches one of the wanted states or
// deadline elapses, returning the state actually observed and whether the
// wait succeeded. Only the Command Dispatcher calls this (spec §4.2 step 4,
// §5 "only the dispatcher thread ever blocks").
func (s *Session) waitForState(wanted []State, deadline time.Time) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		cur := State(s.state.Load())
		for _, w := range wanted {
			if cur == w {
				return cur, true
			}
		}
		if cur == StateError || cur == StateDeinit {
			return cur, false
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return cur, false
		}

		timer := time.AfterFunc(remaining, func() {
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		s.cond.Wait()
		timer.Stop()
	}
}

// allocateSeq returns the next monotonic UCI sequence number for an
// outbound send and records a pending sendRecord for it (senddata.go).
func (s *Session) allocateSeq(rec *sendRecord) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.nextSeq
	s.nextSeq++
	s.sends[seq] = rec
	return seq
}
