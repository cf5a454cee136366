package uwb

import (
	"context"
	"time"
)

// NonPrivilegedBgAppTimerTag names the exact wall-time alarm armed by the
// background-app policy (spec §4.4 step 3).
const NonPrivilegedBgAppTimerTag = "NON_PRIVILEGED_BG_APP_TIMER_TAG"

// defaultBackgroundAppTimeout is the wall-clock grace period before a
// backgrounded, non-privileged session is stopped when background ranging
// is disabled by policy.
const defaultBackgroundAppTimeout = 30 * time.Second

// OnForegroundChanged is invoked by the UID importance listener (external
// collaborator, spec §1) whenever a UID's foreground/background status
// changes. It implements spec §4.4 for every resident session whose
// attribution chain includes uid.
func (m *Manager) OnForegroundChanged(uid int, foreground bool) {
	for _, s := range m.table.Snapshot() {
		if !sessionHasUID(s, uid) {
			continue
		}
		if foreground {
			m.onUIDForegrounded(s)
		} else {
			m.onUIDBackgrounded(s)
		}
	}
}

func sessionHasUID(s *Session, uid int) bool {
	for _, a := range s.Attribution() {
		if a.UID == uid {
			return true
		}
	}
	return false
}

// onUIDBackgrounded implements §4.4 steps 1-3.
func (m *Manager) onUIDBackgrounded(s *Session) {
	if s.State() == StateActive {
		m.reconfigureRangeDataNtf(s, true)
	}

	s.SetPriority(PriorityBG)

	if m.cfg.BackgroundRangingEnabled {
		return
	}

	s.mu.Lock()
	alreadyArmed := s.bgTimer != nil
	if !alreadyArmed {
		s.bgTimer = time.AfterFunc(defaultBackgroundAppTimeout, func() { m.onBackgroundAppTimerFired(s) })
	}
	s.mu.Unlock()
}

// onUIDForegrounded implements §4.4's "if the app returns to foreground
// before the alarm fires, cancel the alarm and re-enable range-data
// notifications".
func (m *Manager) onUIDForegrounded(s *Session) {
	s.mu.Lock()
	if s.bgTimer != nil {
		s.bgTimer.Stop()
		s.bgTimer = nil
	}
	s.mu.Unlock()

	if s.State() == StateActive {
		m.reconfigureRangeDataNtf(s, false)
	}
}

// reconfigureRangeDataNtf posts a reconfigure command that only flips
// RangeDataNtfConfigDisabled, preserving all other parameters (§4.4 step 1).
func (m *Manager) reconfigureRangeDataNtf(s *Session, disable bool) {
	_ = m.dispatcher.Post(context.Background(), func(dctx context.Context) {
		fira, ok := s.Params().(*FiraParams)
		if !ok {
			return
		}
		fira.RangeDataNtfConfigDisabled = disable
		fira.SessionPriority = s.Priority()

		reconfCtx, cancel := context.WithTimeout(dctx, m.cfg.ReconfigureTimeout)
		defer cancel()

		status, err := m.driver.Reconfigure(reconfCtx, s.ID(), s.ChipID(), fira)
		if err != nil || status != StatusOK {
			s.Callbacks().OnRangingReconfigureFailed("FAILED")
			return
		}
		s.setParams(fira)
		s.Callbacks().OnRangingReconfigured()
	})
}

// onBackgroundAppTimerFired implements §4.4 step 3's "on fire" clause.
func (m *Manager) onBackgroundAppTimerFired(s *Session) {
	s.mu.Lock()
	s.bgTimer = nil
	s.mu.Unlock()

	_ = m.dispatcher.Post(context.Background(), func(dctx context.Context) {
		stopCtx, cancel := context.WithTimeout(dctx, m.cfg.StopTimeout)
		defer cancel()
		_, _ = m.driver.StopRanging(stopCtx, s.ID(), s.ChipID())
	})

	s.Callbacks().OnRangingStoppedWithAPIReasonCode(StopReasonSystemPolicy)
}

// cancelTimers disarms both the error-streak and background-app alarms,
// leaving no leaked handle (spec §8 property 8). Called on DeInit.
func (m *Manager) cancelTimers(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.errorStreakTimer != nil {
		s.errorStreakTimer.Stop()
		s.errorStreakTimer = nil
	}
	if s.bgTimer != nil {
		s.bgTimer.Stop()
		s.bgTimer = nil
	}
}
