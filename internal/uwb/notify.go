package uwb

// DriverCallbackSink is the port the native driver adapter (internal/driver)
// invokes asynchronously to deliver notifications back into the core (spec
// §6 "Driver callbacks"). The Manager implements this interface; its
// methods are the Notification Router (spec §4's "Notification Router"
// component).
//
// These methods may be called concurrently by one or more driver threads.
// Each method resolves the notification to a Session and does its work
// under that session's lock (via applyFSMEvent / the datapath/senddata/
// multicast helpers), never the table lock, so notifications for different
// sessions do not serialize against each other.
type DriverCallbackSink interface {
	OnSessionStatusNotificationReceived(sessionID uint32, newState State, reason string)
	OnRangeDataNotificationReceived(data RangeData)
	OnMulticastListUpdateNotificationReceived(sessionID uint32, results []MulticastResult)
	OnDataReceived(sessionID uint32, status Status, seqNum uint16, peerMAC uint64, payload []byte)
	OnDataSendStatus(sessionID uint32, status DataTransferStatus, seqNum uint16, txCount uint32)
	OnRadarDataMessageReceived(data RadarData)
}

var _ DriverCallbackSink = (*Manager)(nil)

// reasonMaxRetry is the driver-reported reason string that selects the
// distinct "stopped with max retry" client callback (§4.1).
const reasonMaxRetry = "MAX_RANGING_ROUND_RETRY_COUNT_REACHED"

// OnSessionStatusNotificationReceived implements DriverCallbackSink. It
// resolves the driver's reported state to an FSM event, applies it, and
// executes the resulting actions.
func (m *Manager) OnSessionStatusNotificationReceived(sessionID uint32, newState State, reason string) {
	s := m.table.LookupByID(sessionID)
	if s == nil {
		m.logger.Warn("session status notification for unknown session", "session_id", sessionID)
		return
	}

	old := s.State()
	event, closeReason := sessionStatusToEvent(old, newState, reason)

	result := s.applyFSMEvent(event)
	if !result.Changed {
		return
	}

	m.emitStateChange(s, result.OldState, result.NewState)
	m.executeActions(s, result, closeReason)
}

func sessionStatusToEvent(old, newState State, reason string) (Event, CloseReason) {
	switch newState {
	case StateIdle:
		if old == StateInit {
			return EventDriverIdle, CloseReasonOK
		}
		if reason == reasonMaxRetry {
			return EventDriverIdleMaxRetry, CloseReasonOK
		}
		return EventDriverIdleStopped, CloseReasonOK
	case StateActive:
		return EventDriverActive, CloseReasonOK
	case StateError:
		return EventDriverError, CloseReasonError
	case StateDeinit:
		return EventDeinit, CloseReasonError
	default:
		return EventDriverError, CloseReasonError
	}
}

// executeActions runs the side effects an FSM transition requires: client
// callback invocation, table removal on terminal DEINIT, metrics and timer
// cleanup. closeReason is only consulted for ActionNotifyClosed.
func (m *Manager) executeActions(s *Session, result FSMResult, closeReason CloseReason) {
	for _, a := range result.Actions {
		switch a {
		case ActionNotifyOpened:
			s.Callbacks().OnRangingOpened(nil)
		case ActionNotifyStarted:
			s.Callbacks().OnRangingStarted(nil)
		case ActionNotifyStoppedSessionMgmt:
			s.Callbacks().OnRangingStopped(StopReasonSessionMgmt)
		case ActionNotifyStoppedMaxRetry:
			s.Callbacks().OnRangingStoppedWithUciReasonCode(reasonMaxRetry)
		case ActionNotifyError:
			m.logger.Info("session entered error state", "session_id", s.ID())
		case ActionNotifyClosed:
			m.closeSession(s, closeReason)
		}
	}
}

// closeSession performs the bookkeeping shared by every path that removes
// a session from the table: client callback, metrics, timer cleanup.
func (m *Manager) closeSession(s *Session, reason CloseReason) {
	m.cancelTimers(s)
	m.table.Remove(s.ID())
	m.metrics.UnregisterSession(s.Type().String())
	m.dropSendRecords(s)

	if reason == CloseReasonMaxSessionsExceeded {
		s.Callbacks().OnRangingClosedWithAPIReasonCode(reason)
		m.metrics.IncEviction(s.Type().String())
		return
	}
	s.Callbacks().OnRangingClosed(reason)
}

// OnRangeDataNotificationReceived implements DriverCallbackSink. It arms or
// disarms the error-streak timer (§4.5) and, for OwR-AoA sessions, drives
// pointed-target delivery (§4.7); for two-way sessions it forwards directly
// to the client.
func (m *Manager) OnRangeDataNotificationReceived(data RangeData) {
	s := m.table.LookupByID(data.SessionID)
	if s == nil {
		return
	}

	if data.Status != StatusOK {
		m.armErrorStreakTimer(s)
	} else {
		m.cancelErrorStreakTimer(s)
	}

	if data.MeasurementType == MeasurementOwrAoA && data.Role == RoleObserver &&
		s.Type() != SessionTypeRadar {
		m.deliverOwrAoA(s, data)
		return
	}

	s.Callbacks().OnRangingResult(data)
}

// OnRadarDataMessageReceived implements DriverCallbackSink.
func (m *Manager) OnRadarDataMessageReceived(data RadarData) {
	s := m.table.LookupByID(data.SessionID)
	if s == nil {
		return
	}
	s.Callbacks().OnRadarDataMessageReceived(data)
}
