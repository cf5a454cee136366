package uwb

import (
	"context"
	"time"
)

// armErrorStreakTimer implements spec §4.5 steps 1-2: arm an exact alarm on
// the first non-OK range-data notification; subsequent errors while armed
// do not reset it. A no-op if the feature flag is off or the timer is
// already armed.
func (m *Manager) armErrorStreakTimer(s *Session) {
	if !m.cfg.RangingErrorStreakTimerEnabled {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.errorStreakTimer != nil {
		return
	}

	dur := errorStreakDuration(s.params, m.cfg.ErrorStreakDefaultMultiplier)
	s.errorStreakTimer = time.AfterFunc(dur, func() { m.onErrorStreakFired(s) })
}

// cancelErrorStreakTimer implements spec §4.5 step 3: a subsequent
// successful range-data notification cancels the timer. Idempotent.
func (m *Manager) cancelErrorStreakTimer(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.errorStreakTimer != nil {
		s.errorStreakTimer.Stop()
		s.errorStreakTimer = nil
	}
}

// errorStreakDuration implements the §9 open-question resolution: once a
// reconfigure has set blockStride, the duration is
// interval × 2 × (blockStride+1); otherwise interval × the configured
// default multiplier.
func errorStreakDuration(params OpenParams, defaultMultiplier uint32) time.Duration {
	fira, ok := params.(*FiraParams)
	if !ok {
		return time.Duration(defaultMultiplier) * time.Second
	}

	interval := time.Duration(fira.RangingIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}

	if fira.BlockStride != nil {
		return interval * 2 * time.Duration(*fira.BlockStride+1)
	}
	return interval * time.Duration(defaultMultiplier)
}

// onErrorStreakFired implements spec §4.5 step 4: on fire, enqueue
// stopRanging and surface onRangingStoppedWithApiReasonCode(SYSTEM_POLICY).
func (m *Manager) onErrorStreakFired(s *Session) {
	m.metrics.IncErrorStreakFired(s.Type().String())

	s.mu.Lock()
	s.errorStreakTimer = nil
	s.mu.Unlock()

	_ = m.dispatcher.Post(context.Background(), func(dctx context.Context) {
		stopCtx, cancel := context.WithTimeout(dctx, m.cfg.StopTimeout)
		defer cancel()
		_, _ = m.driver.StopRanging(stopCtx, s.ID(), s.ChipID())
	})

	s.Callbacks().OnRangingStoppedWithAPIReasonCode(StopReasonSystemPolicy)
}
