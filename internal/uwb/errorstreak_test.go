package uwb

import (
	"context"
	"testing"
	"time"
)

// stubDriver is a minimal Driver whose StopRanging/Reconfigure always
// succeed immediately; used by timer-firing tests that only care about the
// client-callback side effects, not driver correlation.
type stubDriver struct{}

func (stubDriver) InitSession(context.Context, uint32, SessionType, string, OpenParams) (Status, error) {
	return StatusOK, nil
}
func (stubDriver) DeInitSession(context.Context, uint32, string) (Status, error) { return StatusOK, nil }
func (stubDriver) StartRanging(context.Context, uint32, string) (Status, error)  { return StatusOK, nil }
func (stubDriver) StopRanging(context.Context, uint32, string) (Status, error)   { return StatusOK, nil }
func (stubDriver) Reconfigure(context.Context, uint32, string, OpenParams) (Status, error) {
	return StatusOK, nil
}
func (stubDriver) SendData(context.Context, uint32, string, uint64, uint16, []byte) (Status, error) {
	return StatusOK, nil
}
func (stubDriver) MulticastListUpdate(context.Context, uint32, string, MulticastUpdate) (Status, error) {
	return StatusOK, nil
}
func (stubDriver) QueryMaxDataSizeBytes(context.Context, uint32, string) (int, error) { return 0, nil }
func (stubDriver) QueryUwbsTimestampMicros(context.Context) (uint64, error)           { return 0, nil }
func (stubDriver) GetSessionToken(context.Context, uint32, string) (int, error)       { return 0, nil }
func (stubDriver) UpdateDtTagRangingRounds(context.Context, uint32, string, []uint8) (DtTagRangingRoundsStatus, error) {
	return DtTagRangingRoundsStatus{Status: StatusOK}, nil
}
func (stubDriver) SetHybridSessionConfiguration(context.Context, uint32, string, uint8, []byte, []byte) (Status, error) {
	return StatusOK, nil
}
func (stubDriver) QueryMaxSessionNumber(context.Context) (int, error)         { return 5, nil }
func (stubDriver) QueryCachedDeviceInfo(context.Context, string) (DeviceInfo, error) {
	return DeviceInfo{}, nil
}

var _ Driver = stubDriver{}

func newTimerTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	mgr := NewManager(stubDriver{}, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go mgr.dispatcher.Run(ctx)
	return mgr
}

type streakCallbacks struct {
	noopCallbacks
	stopped chan StopReason
}

func newStreakCallbacks() *streakCallbacks {
	return &streakCallbacks{stopped: make(chan StopReason, 4)}
}

func (c *streakCallbacks) OnRangingStoppedWithAPIReasonCode(reason StopReason) {
	c.stopped <- reason
}

func TestErrorStreakTimerFiresAndStopsSession(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RangingErrorStreakTimerEnabled = true
	cfg.ErrorStreakDefaultMultiplier = 1
	mgr := newTimerTestManager(t, cfg)

	cb := newStreakCallbacks()
	s, err := NewSession(SessionConfig{
		SessionID: 1,
		Callbacks: cb,
		Params:    &FiraParams{RangingIntervalMs: 1},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.armErrorStreakTimer(s)

	select {
	case reason := <-cb.stopped:
		if reason != StopReasonSystemPolicy {
			t.Errorf("reason = %v, want SystemPolicy", reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error-streak timer to fire")
	}
}

func TestErrorStreakTimerDisabledNeverArms(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RangingErrorStreakTimerEnabled = false
	mgr := newTimerTestManager(t, cfg)

	cb := newStreakCallbacks()
	s, err := NewSession(SessionConfig{SessionID: 1, Callbacks: cb, Params: &FiraParams{RangingIntervalMs: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.armErrorStreakTimer(s)

	s.mu.Lock()
	armed := s.errorStreakTimer != nil
	s.mu.Unlock()
	if armed {
		t.Error("timer should not be armed when the feature is disabled")
	}
}

func TestCancelErrorStreakTimerPreventsFiring(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RangingErrorStreakTimerEnabled = true
	cfg.ErrorStreakDefaultMultiplier = 1
	mgr := newTimerTestManager(t, cfg)

	cb := newStreakCallbacks()
	s, err := NewSession(SessionConfig{
		SessionID: 1,
		Callbacks: cb,
		Params:    &FiraParams{RangingIntervalMs: 200},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.armErrorStreakTimer(s)
	mgr.cancelErrorStreakTimer(s)

	select {
	case reason := <-cb.stopped:
		t.Errorf("timer fired with reason %v after being cancelled", reason)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestArmErrorStreakTimerIdempotentWhileArmed(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.RangingErrorStreakTimerEnabled = true
	mgr := newTimerTestManager(t, cfg)

	cb := newStreakCallbacks()
	s, err := NewSession(SessionConfig{SessionID: 1, Callbacks: cb, Params: &FiraParams{RangingIntervalMs: 200}})
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.table.Insert(s); err != nil {
		t.Fatal(err)
	}

	mgr.armErrorStreakTimer(s)
	s.mu.Lock()
	first := s.errorStreakTimer
	s.mu.Unlock()

	mgr.armErrorStreakTimer(s)
	s.mu.Lock()
	second := s.errorStreakTimer
	s.mu.Unlock()

	if first != second {
		t.Error("re-arming while already armed should not replace the timer")
	}
	mgr.cancelErrorStreakTimer(s)
}

func TestErrorStreakDurationUsesBlockStrideWhenSet(t *testing.T) {
	t.Parallel()

	stride := uint32(2)
	dur := errorStreakDuration(&FiraParams{RangingIntervalMs: 100, BlockStride: &stride}, 9)
	want := 100 * time.Millisecond * 2 * 3
	if dur != want {
		t.Errorf("duration = %v, want %v", dur, want)
	}
}

func TestErrorStreakDurationUsesDefaultMultiplierWithoutBlockStride(t *testing.T) {
	t.Parallel()

	dur := errorStreakDuration(&FiraParams{RangingIntervalMs: 100}, 4)
	want := 400 * time.Millisecond
	if dur != want {
		t.Errorf("duration = %v, want %v", dur, want)
	}
}
