package uwb

import (
	"testing"
	"time"
)

type foregroundCallbacks struct {
	noopCallbacks
	stopped       chan StopReason
	reconfigured  chan bool // true = disabled, false = re-enabled
}

func newForegroundCallbacks() *foregroundCallbacks {
	return &foregroundCallbacks{
		stopped:      make(chan StopReason, 4),
		reconfigured: make(chan bool, 4),
	}
}

func (c *foregroundCallbacks) OnRangingStoppedWithAPIReasonCode(reason StopReason) {
	c.stopped <- reason
}

func (c *foregroundCallbacks) OnRangingReconfigured() {
	c.reconfigured <- true
}

func newForegroundTestSession(t *testing.T, cb ClientCallbacks, uid int, state State) *Session {
	t.Helper()
	s, err := NewSession(SessionConfig{
		SessionID:   1,
		Attribution: []Attribution{{UID: uid, Package: "com.example.app"}},
		Callbacks:   cb,
		Params:      &FiraParams{RangingIntervalMs: 200},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.state.Store(uint32(state))
	s.SetPriority(PriorityFG)
	return s
}

func TestOnUIDBackgroundedDisablesRangeDataNtfWhileActive(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.BackgroundRangingEnabled = true // avoid arming the bg timer for this assertion
	mgr := newTimerTestManager(t, cfg)

	cb := newForegroundCallbacks()
	s := newForegroundTestSession(t, cb, 42, StateActive)
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.OnForegroundChanged(42, false)

	select {
	case <-cb.reconfigured:
	case <-time.After(time.Second):
		t.Fatal("expected a reconfigure callback disabling range-data notifications")
	}

	if s.Priority() != PriorityBG {
		t.Errorf("priority = %v, want BG after backgrounding", s.Priority())
	}
}

func TestOnUIDBackgroundedArmsTimerWhenBackgroundRangingDisabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.BackgroundRangingEnabled = false
	mgr := newTimerTestManager(t, cfg)

	cb := newForegroundCallbacks()
	s := newForegroundTestSession(t, cb, 42, StateIdle)
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.OnForegroundChanged(42, false)

	s.mu.Lock()
	armed := s.bgTimer != nil
	s.mu.Unlock()
	if !armed {
		t.Error("background-app timer should be armed when background ranging is disabled")
	}
	mgr.cancelTimers(s)
}

func TestOnUIDForegroundedCancelsTimerAndReenablesNtf(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.BackgroundRangingEnabled = false
	mgr := newTimerTestManager(t, cfg)

	cb := newForegroundCallbacks()
	s := newForegroundTestSession(t, cb, 42, StateActive)
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.OnForegroundChanged(42, false)
	select {
	case <-cb.reconfigured:
	case <-time.After(time.Second):
		t.Fatal("expected reconfigure callback on backgrounding")
	}

	mgr.OnForegroundChanged(42, true)

	select {
	case <-cb.reconfigured:
	case <-time.After(time.Second):
		t.Fatal("expected reconfigure callback on foregrounding")
	}

	s.mu.Lock()
	armed := s.bgTimer != nil
	s.mu.Unlock()
	if armed {
		t.Error("background-app timer should be cancelled once the app returns to foreground")
	}
}

func TestOnForegroundChangedIgnoresUnrelatedUID(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	mgr := newTimerTestManager(t, cfg)

	cb := newForegroundCallbacks()
	s := newForegroundTestSession(t, cb, 42, StateActive)
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.OnForegroundChanged(999, false)

	select {
	case <-cb.reconfigured:
		t.Error("unrelated UID change must not affect this session")
	case <-time.After(100 * time.Millisecond):
	}
	if s.Priority() != PriorityFG {
		t.Errorf("priority = %v, want unchanged FG", s.Priority())
	}
}

func TestCancelTimersClearsBothTimers(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RangingErrorStreakTimerEnabled = true
	cfg.BackgroundRangingEnabled = false
	mgr := newTimerTestManager(t, cfg)

	cb := newForegroundCallbacks()
	s := newForegroundTestSession(t, cb, 42, StateIdle)
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.armErrorStreakTimer(s)
	mgr.OnForegroundChanged(42, false)

	mgr.cancelTimers(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errorStreakTimer != nil || s.bgTimer != nil {
		t.Error("cancelTimers should clear both the error-streak and background-app timers")
	}
}
