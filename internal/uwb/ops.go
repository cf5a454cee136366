package uwb

import (
	"context"
	"time"
)

// CreateSessionRequest carries everything needed to open a new session
// (spec §3, §4.1 initSession, §4.3 admission).
type CreateSessionRequest struct {
	SessionID   uint32
	Handle      SessionHandle
	SessionType SessionType
	ChipID      string
	Attribution []Attribution
	Params      OpenParams
	Callbacks   ClientCallbacks
	SystemUID   bool
	Foreground  bool
}

// CreateSession implements initSession (spec §4.1, §4.3). It assigns the
// session's stack priority, performs admission (possibly evicting a
// strictly-lower-priority resident), inserts the session into the table,
// and posts the driver initSession call through the dispatcher. Exactly one
// terminal callback (OnRangingOpened / OnRangingOpenFailed) is delivered
// per call, per spec §7's propagation policy.
func (m *Manager) CreateSession(ctx context.Context, req CreateSessionRequest) error {
	if m.table.LookupByID(req.SessionID) != nil {
		req.Callbacks.OnRangingOpenFailed("BAD_PARAMETERS", nil)
		return ErrSessionExists
	}

	priority := m.policy.AssignPriority(req.SystemUID, req.SessionType, req.Foreground)

	victim, err := m.policy.Admit(req.SessionType, priority)
	if err != nil {
		req.Callbacks.OnRangingOpenFailed("MAX_SESSIONS_REACHED", nil)
		return err
	}

	if err := m.policy.CheckBackgroundAllowed(priority); err != nil {
		req.Callbacks.OnRangingOpenFailed("SYSTEM_POLICY", nil)
		return err
	}
	if victim != nil {
		m.closeSession(victim, CloseReasonMaxSessionsExceeded)
		m.evictDriverSide(victim)
	}

	s, err := NewSession(SessionConfig{
		SessionID:       req.SessionID,
		SessionHandle:   req.Handle,
		SessionType:     req.SessionType,
		ChipID:          req.ChipID,
		Attribution:     req.Attribution,
		Callbacks:       req.Callbacks,
		Params:          req.Params,
		RxQueueMaxDepth: m.cfg.RxQueueMaxDepth,
	})
	if err != nil {
		req.Callbacks.OnRangingOpenFailed("BAD_PARAMETERS", nil)
		return err
	}
	s.SetPriority(priority)

	if err := m.table.Insert(s); err != nil {
		req.Callbacks.OnRangingOpenFailed("BAD_PARAMETERS", nil)
		return err
	}
	m.metrics.RegisterSession(req.SessionType.String())

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		rewritten, err := rewriteOnOpen(dctx, m.driver, priority, m.cfg.CccAbsoluteInitiationTimeEnabled, s.Params())
		if err != nil {
			m.failOpen(s)
			return
		}
		s.setParams(rewritten)

		openCtx, cancel := context.WithTimeout(dctx, m.cfg.OpenTimeout)
		defer cancel()

		status, err := m.driver.InitSession(openCtx, s.ID(), s.Type(), s.ChipID(), rewritten)
		if err != nil || status != StatusOK {
			m.failOpen(s)
			return
		}

		deadline := time.Now().Add(m.cfg.OpenTimeout)
		if _, ok := s.waitForState([]State{StateIdle}, deadline); !ok {
			deinitCtx, cancel2 := context.WithTimeout(context.Background(), m.cfg.OpenTimeout)
			defer cancel2()
			_, _ = m.driver.DeInitSession(deinitCtx, s.ID(), s.ChipID())
			m.failOpen(s)
		}
	})
}

// failOpen undoes a session that never reached IDLE: removes it from the
// table and reports the single failure callback for this request.
func (m *Manager) failOpen(s *Session) {
	m.table.Remove(s.ID())
	m.metrics.UnregisterSession(s.Type().String())
	s.Callbacks().OnRangingOpenFailed("FAILED", nil)
}

// evictDriverSide issues the driver-facing deInit for a session being
// evicted by the Policy Engine. The table-side bookkeeping and client
// callback were already handled by closeSession before this is called, so
// failures here are not reported to the (already-notified) evicted client.
func (m *Manager) evictDriverSide(s *Session) {
	_ = m.dispatcher.Post(context.Background(), func(dctx context.Context) {
		deinitCtx, cancel := context.WithTimeout(dctx, m.cfg.StopTimeout)
		defer cancel()
		_, _ = m.driver.DeInitSession(deinitCtx, s.ID(), s.ChipID())
	})
}

// StartRanging implements §4.1's startRanging entry point.
func (m *Manager) StartRanging(ctx context.Context, handle SessionHandle) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return ErrSessionNotFound
	}

	if s.State() != StateIdle {
		if s.State() == StateActive {
			s.Callbacks().OnRangingStartFailed("REJECTED")
		} else {
			s.Callbacks().OnRangingStartFailed("FAILED")
		}
		return ErrWrongState
	}

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		if s.State() != StateIdle {
			s.Callbacks().OnRangingStartFailed("REJECTED")
			return
		}

		if ccc, ok := s.Params().(*CCCParams); ok {
			rewritten, err := rewriteCCCOnOpenOrStartAbsoluteTime(dctx, m.driver, m.cfg.CccAbsoluteInitiationTimeEnabled, ccc)
			if err != nil {
				s.Callbacks().OnRangingStartFailed("FAILED")
				return
			}
			s.setParams(rewritten)
		}

		startCtx, cancel := context.WithTimeout(dctx, m.cfg.StartTimeout)
		defer cancel()

		status, err := m.driver.StartRanging(startCtx, s.ID(), s.ChipID())
		if err != nil || status != StatusOK {
			s.Callbacks().OnRangingStartFailed("FAILED")
			return
		}

		deadline := time.Now().Add(m.cfg.StartTimeout)
		if _, ok := s.waitForState([]State{StateActive}, deadline); !ok {
			s.Callbacks().OnRangingStartFailed("FAILED")
		}
	})
}

// StartRangingWithCCCParams is StartRanging for CCC sessions that carry
// explicit start-params, applying the CCC start-param merge rule (§4.6).
func (m *Manager) StartRangingWithCCCParams(ctx context.Context, handle SessionHandle, start *CCCStartParams) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return ErrSessionNotFound
	}
	if cached, ok := s.Params().(*CCCParams); ok {
		s.setParams(rewriteCCCOnStart(cached, start))
	}
	return m.StartRanging(ctx, handle)
}

// StopRanging implements §4.1's stopRanging entry point.
func (m *Manager) StopRanging(ctx context.Context, handle SessionHandle) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return ErrSessionNotFound
	}

	switch s.State() {
	case StateActive:
	case StateIdle:
		s.Callbacks().OnRangingStopped(StopReasonSessionMgmt)
		return nil
	case StateError:
		s.Callbacks().OnRangingStopFailed("REJECTED")
		return ErrWrongState
	default:
		s.Callbacks().OnRangingStopFailed("REJECTED")
		return ErrWrongState
	}

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		stopCtx, cancel := context.WithTimeout(dctx, m.cfg.StopTimeout)
		defer cancel()

		status, err := m.driver.StopRanging(stopCtx, s.ID(), s.ChipID())
		if err != nil || status != StatusOK {
			s.Callbacks().OnRangingStopFailed("FAILED")
			return
		}

		deadline := time.Now().Add(m.cfg.StopTimeout)
		if _, ok := s.waitForState([]State{StateIdle}, deadline); !ok {
			s.Callbacks().OnRangingStopFailed("FAILED")
		}
	})
}

// Reconfigure implements §4.1's generic reconfigure entry point (distinct
// from the multicast-specific transaction in multicast.go).
func (m *Manager) Reconfigure(ctx context.Context, handle SessionHandle, newParams OpenParams) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return ErrSessionNotFound
	}
	if s.State() != StateIdle && s.State() != StateActive {
		return ErrSessionNotFound
	}

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		rewritten := rewriteOnReconfigure(s.Priority(), newParams)

		reconfCtx, cancel := context.WithTimeout(dctx, m.cfg.ReconfigureTimeout)
		defer cancel()

		status, err := m.driver.Reconfigure(reconfCtx, s.ID(), s.ChipID(), rewritten)
		if err != nil || status != StatusOK {
			s.Callbacks().OnRangingReconfigureFailed("FAILED")
			return
		}
		s.setParams(rewritten)
		s.Callbacks().OnRangingReconfigured()
	})
}

// DeInitSession implements §4.1's deInitSession entry point: a no-op if
// the session does not exist (spec §4.1 table), otherwise the universal
// abort that supersedes all in-flight work for that session (§5
// "Cancellation"). A deinit already in flight makes subsequent deinits for
// the same session no-ops, since the first one removes the session from
// the table.
func (m *Manager) DeInitSession(ctx context.Context, handle SessionHandle) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return nil
	}

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		if m.table.LookupByID(s.ID()) == nil {
			return
		}

		deinitCtx, cancel := context.WithTimeout(dctx, m.cfg.StopTimeout)
		defer cancel()
		_, _ = m.driver.DeInitSession(deinitCtx, s.ID(), s.ChipID())

		m.closeSession(s, CloseReasonOK)
	})
}
