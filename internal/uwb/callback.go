package uwb

// ClientCallbacks is the sink the core invokes to deliver results back to
// the owning client (spec §6, "Client callback sink"). Exactly one
// terminal callback is delivered per accepted client request (spec §7
// propagation policy), except when the client has already died.
//
// Implementations (internal/api) are expected to be cheap and
// non-blocking: the Notification Router invokes these synchronously while
// holding the session's lock, so a slow implementation would stall
// correlation of further notifications for that session.
type ClientCallbacks interface {
	OnRangingOpened(bundle any)
	OnRangingOpenFailed(reason string, bundle any)

	OnRangingStarted(bundle any)
	OnRangingStartFailed(reason string)

	OnRangingStopped(reason StopReason)
	OnRangingStopFailed(reason string)
	OnRangingStoppedWithUciReasonCode(reason string)
	OnRangingStoppedWithAPIReasonCode(reason StopReason)

	OnRangingResult(data RangeData)
	OnDataReceived(peer uint64, bundle any, payload []byte)
	OnDataSent(peer uint64, bundle any)
	OnDataSendFailed(peer uint64, status string, bundle any)

	OnRangingReconfigured()
	OnRangingReconfigureFailed(status string)
	OnControleeAdded(addr uint64)
	OnControleeAddFailed(addr uint64, status string)
	OnControleeRemoved(addr uint64)
	OnControleeRemoveFailed(addr uint64, status string)

	OnRangingClosed(reason CloseReason)
	OnRangingClosedWithAPIReasonCode(reason CloseReason)

	OnRadarDataMessageReceived(data RadarData)
}

// StateChange is emitted on the manager's notification fan-out channel
// whenever a session's FSM transitions, mirroring the decoupled
// state-change-consumer pattern used elsewhere in this codebase: external
// subscribers read from Manager.StateChanges() rather than registering
// callbacks directly, avoiding import cycles between this package and its
// consumers.
//
// Usage:
//
//	for change := range mgr.StateChanges() {
//	    handle(change)
//	}
type StateChange struct {
	SessionID     uint32
	SessionHandle SessionHandle
	From          State
	To            State
}

// RangeData carries a single ranging measurement report, correlated to a
// session by the Notification Router.
type RangeData struct {
	SessionID       uint32
	MeasurementType MeasurementType
	Role            DeviceRole
	RoundUsage      RangingRoundUsage
	PeerMAC         uint64
	Status          Status
}

// RadarData carries a single radar measurement report.
type RadarData struct {
	SessionID uint32
	Payload   []byte
}
