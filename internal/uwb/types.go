package uwb

// State is a session's current position in the session FSM (fsm.go).
type State uint8

const (
	// StateInit is the initial state immediately after the driver accepts
	// initSession.
	StateInit State = iota
	// StateIdle is reached after the driver reports IDLE following a
	// successful app-config write, or after stopRanging.
	StateIdle
	// StateActive is reached after the driver reports ACTIVE following
	// startRanging.
	StateActive
	// StateError is reached when the driver reports ERROR. Recoverable
	// only by DeInit.
	StateError
	// StateDeinit is terminal. Once reached the session is removed from
	// the table and never reused.
	StateDeinit
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	case StateError:
		return "ERROR"
	case StateDeinit:
		return "DEINIT"
	default:
		return "UNKNOWN"
	}
}

// SessionType names the ranging/data protocol family a session was opened
// under.
type SessionType uint8

const (
	// SessionTypeFiraRanging is a FiRa ranging session.
	SessionTypeFiraRanging SessionType = iota
	// SessionTypeCCC is a CCC (privileged by construction) session.
	SessionTypeCCC
	// SessionTypeRadar is a radar session.
	SessionTypeRadar
)

// String returns the human-readable name of the session type.
func (t SessionType) String() string {
	switch t {
	case SessionTypeFiraRanging:
		return "FIRA_RANGING"
	case SessionTypeCCC:
		return "CCC"
	case SessionTypeRadar:
		return "RADAR"
	default:
		return "UNKNOWN"
	}
}

// Priority is the stack-assigned session priority ladder (policy.go §4.3).
// Higher numeric value means higher priority; System is the highest.
type Priority uint8

const (
	// PriorityBG is the lowest priority: third-party, background.
	PriorityBG Priority = iota
	// PriorityFG is third-party, foreground.
	PriorityFG
	// PriorityCCC is CCC protocol, privileged by construction.
	PriorityCCC
	// PrioritySystem is the system UID caller, the highest priority.
	PrioritySystem
)

// String returns the human-readable name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityBG:
		return "BG"
	case PriorityFG:
		return "FG"
	case PriorityCCC:
		return "CCC"
	case PrioritySystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Less reports whether p is strictly lower priority than other, matching
// the "strictly lower priority" language used for eviction tie-breaks.
func (p Priority) Less(other Priority) bool {
	return p < other
}

// RangingRoundUsage distinguishes two-way ranging sessions from one-way
// angle-of-arrival (OwR-AoA) sessions, which changes how inbound data is
// routed in the data path (datapath.go).
type RangingRoundUsage uint8

const (
	// RangingRoundUsageTwoWay is the default two-way ranging mode.
	RangingRoundUsageTwoWay RangingRoundUsage = iota
	// RangingRoundUsageOwrAoA is one-way ranging with angle-of-arrival.
	RangingRoundUsageOwrAoA
)

// DeviceRole distinguishes the controller/initiator from the
// controlee/observer in a ranging exchange.
type DeviceRole uint8

const (
	// RoleController is the controller/initiator role.
	RoleController DeviceRole = iota
	// RoleObserver is the observer role, relevant to OwR-AoA delivery.
	RoleObserver
)

// MeasurementType names the kind of range-data measurement reported by the
// driver.
type MeasurementType uint8

const (
	// MeasurementTwoWay is a standard two-way ranging measurement.
	MeasurementTwoWay MeasurementType = iota
	// MeasurementOwrAoA is a one-way AoA measurement.
	MeasurementOwrAoA
)

// StopReason names why a session transitioned out of ACTIVE, surfaced to
// the client callback sink.
type StopReason uint8

const (
	// StopReasonSessionMgmt is a local stopRanging or reconfigure command.
	StopReasonSessionMgmt StopReason = iota
	// StopReasonMaxRetry is the driver-reported
	// MAX_RANGING_ROUND_RETRY_COUNT_REACHED reason.
	StopReasonMaxRetry
	// StopReasonSystemPolicy is a policy-driven stop (background-app timer
	// or error-streak timer fired).
	StopReasonSystemPolicy
)

// String returns the human-readable name of the stop reason.
func (r StopReason) String() string {
	switch r {
	case StopReasonSessionMgmt:
		return "SESSION_MGMT"
	case StopReasonMaxRetry:
		return "MAX_RETRY"
	case StopReasonSystemPolicy:
		return "SYSTEM_POLICY"
	default:
		return "UNKNOWN"
	}
}

// CloseReason names why a session was removed from the table.
type CloseReason uint8

const (
	// CloseReasonOK is a normal client-initiated deInitSession.
	CloseReasonOK CloseReason = iota
	// CloseReasonMaxSessionsExceeded is a policy eviction (§4.3).
	CloseReasonMaxSessionsExceeded
	// CloseReasonError is the driver reporting ERROR with no further
	// recovery.
	CloseReasonError
	// CloseReasonClientDied is an attributed client's death.
	CloseReasonClientDied
)

// String returns the human-readable name of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonOK:
		return "OK"
	case CloseReasonMaxSessionsExceeded:
		return "MAX_SESSIONS_EXCEEDED"
	case CloseReasonError:
		return "ERROR"
	case CloseReasonClientDied:
		return "CLIENT_DIED"
	default:
		return "UNKNOWN"
	}
}
