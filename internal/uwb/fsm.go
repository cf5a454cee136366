// Package uwb implements the UWB ranging session manager core: per-session
// state machines, a single-threaded command dispatcher, asynchronous
// notification correlation, and session policy (priority, foreground/
// background, error-streak).
package uwb

// This file implements the session state machine as a pure function over a
// transition table, mirroring the reception-FSM pattern used for wire
// protocol state machines elsewhere in this codebase: no side effects, no
// Session dependency, trivially unit-testable.
//
// State diagram:
//
//	INIT --driver IDLE (app-config applied)--> IDLE
//	IDLE --driver ACTIVE (startRanging)--> ACTIVE
//	ACTIVE --driver IDLE (stopRanging / SESSION_MGMT_COMMANDS)--> IDLE
//	ACTIVE --driver IDLE (MAX_RANGING_ROUND_RETRY_COUNT_REACHED)--> IDLE
//	any --driver ERROR--> ERROR
//	any --deinit (client, eviction, driver DEINIT)--> DEINIT

// Event represents an input to the session FSM: either a driver-reported
// status notification or a locally originated lifecycle event.
type Event uint8

const (
	// EventDriverIdle is the event for the driver reporting IDLE after a
	// successful app-config write following initSession.
	EventDriverIdle Event = iota

	// EventDriverActive is the event for the driver reporting ACTIVE after
	// startRanging.
	EventDriverActive

	// EventDriverIdleStopped is the event for the driver reporting IDLE
	// after stopRanging or for reason SESSION_MGMT_COMMANDS.
	EventDriverIdleStopped

	// EventDriverIdleMaxRetry is the event for the driver reporting IDLE
	// with reason MAX_RANGING_ROUND_RETRY_COUNT_REACHED.
	EventDriverIdleMaxRetry

	// EventDriverError is the event for the driver reporting ERROR.
	EventDriverError

	// EventDeinit is the event for a successful deinit, client death,
	// policy eviction, or an unsolicited driver DEINIT notification.
	EventDeinit
)

// String returns the human-readable name of the event.
func (e Event) String() string {
	switch e {
	case EventDriverIdle:
		return "DriverIdle"
	case EventDriverActive:
		return "DriverActive"
	case EventDriverIdleStopped:
		return "DriverIdleStopped"
	case EventDriverIdleMaxRetry:
		return "DriverIdleMaxRetry"
	case EventDriverError:
		return "DriverError"
	case EventDeinit:
		return "Deinit"
	default:
		return "Unknown"
	}
}

// Action represents a side-effect the caller must execute after an FSM
// transition. The FSM itself never executes actions; Session.applyFSMEvent
// does.
type Action uint8

const (
	// ActionNotifyOpened triggers the client onRangingOpened callback.
	ActionNotifyOpened Action = iota + 1

	// ActionNotifyStarted triggers the client onRangingStarted callback.
	ActionNotifyStarted

	// ActionNotifyStoppedSessionMgmt triggers onRangingStopped(SESSION_MGMT).
	ActionNotifyStoppedSessionMgmt

	// ActionNotifyStoppedMaxRetry triggers onRangingStoppedWithUciReasonCode
	// with MAX_RANGING_ROUND_RETRY_COUNT_REACHED.
	ActionNotifyStoppedMaxRetry

	// ActionNotifyError triggers any waiters + the client error surface.
	ActionNotifyError

	// ActionNotifyClosed triggers onRangingClosed and removes the session
	// from the table.
	ActionNotifyClosed
)

// String returns the human-readable name of the action.
func (a Action) String() string {
	switch a {
	case ActionNotifyOpened:
		return "NotifyOpened"
	case ActionNotifyStarted:
		return "NotifyStarted"
	case ActionNotifyStoppedSessionMgmt:
		return "NotifyStoppedSessionMgmt"
	case ActionNotifyStoppedMaxRetry:
		return "NotifyStoppedMaxRetry"
	case ActionNotifyError:
		return "NotifyError"
	case ActionNotifyClosed:
		return "NotifyClosed"
	default:
		return "Unknown"
	}
}

// stateEvent is the FSM transition table key: current state + incoming event.
type stateEvent struct {
	state State
	event Event
}

// transition describes the target state and side-effects for one FSM edge.
type transition struct {
	newState State
	actions  []Action
}

// FSMResult holds the outcome of applying an event to the FSM. The caller
// inspects Changed to decide whether state-change processing (logging,
// metrics, notifications) is needed.
type FSMResult struct {
	// OldState is the state before the event was applied.
	OldState State

	// NewState is the state after the event was applied. Equal to OldState
	// when the event has no entry for the current state.
	NewState State

	// Actions lists the side-effects the caller must execute. Empty when
	// the event is not applicable.
	Actions []Action

	// Changed is true when NewState differs from OldState.
	Changed bool
}

// fsmTable is the complete session FSM transition table. Every (state,
// event) pair listed here is a legal transition per the core's state
// machine definition. Unlisted pairs are silently ignored.
//
//nolint:gochecknoglobals
var fsmTable = map[stateEvent]transition{
	// INIT -> IDLE: driver reports IDLE after successful app-config write.
	{StateInit, EventDriverIdle}: {
		newState: StateIdle,
		actions:  []Action{ActionNotifyOpened},
	},

	// IDLE -> ACTIVE: driver reports ACTIVE after startRanging.
	{StateIdle, EventDriverActive}: {
		newState: StateActive,
		actions:  []Action{ActionNotifyStarted},
	},

	// ACTIVE -> IDLE: driver reports IDLE after stopRanging or
	// SESSION_MGMT_COMMANDS.
	{StateActive, EventDriverIdleStopped}: {
		newState: StateIdle,
		actions:  []Action{ActionNotifyStoppedSessionMgmt},
	},

	// ACTIVE -> IDLE: driver reports IDLE with reason
	// MAX_RANGING_ROUND_RETRY_COUNT_REACHED. Surfaced as a distinct
	// ranging-stopped-with-reason callback rather than the generic one.
	{StateActive, EventDriverIdleMaxRetry}: {
		newState: StateIdle,
		actions:  []Action{ActionNotifyStoppedMaxRetry},
	},

	// any -> ERROR: recoverable only by DeInit.
	{StateInit, EventDriverError}:   {newState: StateError, actions: []Action{ActionNotifyError}},
	{StateIdle, EventDriverError}:   {newState: StateError, actions: []Action{ActionNotifyError}},
	{StateActive, EventDriverError}: {newState: StateError, actions: []Action{ActionNotifyError}},

	// any -> DEINIT: successful deinit, client death, eviction, or driver
	// DEINIT notification. DEINIT itself has no outgoing DEINIT edge; a
	// second deinit is a no-op handled by the caller before reaching the FSM.
	{StateInit, EventDeinit}:   {newState: StateDeinit, actions: []Action{ActionNotifyClosed}},
	{StateIdle, EventDeinit}:   {newState: StateDeinit, actions: []Action{ActionNotifyClosed}},
	{StateActive, EventDeinit}: {newState: StateDeinit, actions: []Action{ActionNotifyClosed}},
	{StateError, EventDeinit}:  {newState: StateDeinit, actions: []Action{ActionNotifyClosed}},
}

// ApplyEvent applies an FSM event to the given state and returns the result.
//
// This is a pure function with no side effects. The caller executes the
// returned actions. If the (state, event) pair has no entry in the
// transition table, the event is silently ignored and FSMResult.Changed is
// false with an empty action list.
func ApplyEvent(currentState State, event Event) FSMResult {
	key := stateEvent{state: currentState, event: event}

	tr, ok := fsmTable[key]
	if !ok {
		return FSMResult{
			OldState: currentState,
			NewState: currentState,
			Actions:  nil,
			Changed:  false,
		}
	}

	return FSMResult{
		OldState: currentState,
		NewState: tr.newState,
		Actions:  tr.actions,
		Changed:  currentState != tr.newState,
	}
}
