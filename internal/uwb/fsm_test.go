package uwb_test

import (
	"slices"
	"testing"

	"github.com/uwbd/uwbd/internal/uwb"
)

// TestFSMTransitionTable verifies every legal (state, event) transition in
// the session FSM against the state diagram documented in fsm.go.
func TestFSMTransitionTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		state       uwb.State
		event       uwb.Event
		wantState   uwb.State
		wantChanged bool
		wantActions []uwb.Action
	}{
		{
			name:        "Init+DriverIdle->Idle",
			state:       uwb.StateInit,
			event:       uwb.EventDriverIdle,
			wantState:   uwb.StateIdle,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyOpened},
		},
		{
			name:        "Idle+DriverActive->Active",
			state:       uwb.StateIdle,
			event:       uwb.EventDriverActive,
			wantState:   uwb.StateActive,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyStarted},
		},
		{
			name:        "Active+DriverIdleStopped->Idle",
			state:       uwb.StateActive,
			event:       uwb.EventDriverIdleStopped,
			wantState:   uwb.StateIdle,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyStoppedSessionMgmt},
		},
		{
			name:        "Active+DriverIdleMaxRetry->Idle",
			state:       uwb.StateActive,
			event:       uwb.EventDriverIdleMaxRetry,
			wantState:   uwb.StateIdle,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyStoppedMaxRetry},
		},
		{
			name:        "Init+DriverError->Error",
			state:       uwb.StateInit,
			event:       uwb.EventDriverError,
			wantState:   uwb.StateError,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyError},
		},
		{
			name:        "Idle+DriverError->Error",
			state:       uwb.StateIdle,
			event:       uwb.EventDriverError,
			wantState:   uwb.StateError,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyError},
		},
		{
			name:        "Active+DriverError->Error",
			state:       uwb.StateActive,
			event:       uwb.EventDriverError,
			wantState:   uwb.StateError,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyError},
		},
		{
			name:        "Init+Deinit->Deinit",
			state:       uwb.StateInit,
			event:       uwb.EventDeinit,
			wantState:   uwb.StateDeinit,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyClosed},
		},
		{
			name:        "Idle+Deinit->Deinit",
			state:       uwb.StateIdle,
			event:       uwb.EventDeinit,
			wantState:   uwb.StateDeinit,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyClosed},
		},
		{
			name:        "Active+Deinit->Deinit",
			state:       uwb.StateActive,
			event:       uwb.EventDeinit,
			wantState:   uwb.StateDeinit,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyClosed},
		},
		{
			name:        "Error+Deinit->Deinit",
			state:       uwb.StateError,
			event:       uwb.EventDeinit,
			wantState:   uwb.StateDeinit,
			wantChanged: true,
			wantActions: []uwb.Action{uwb.ActionNotifyClosed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := uwb.ApplyEvent(tt.state, tt.event)

			if result.NewState != tt.wantState {
				t.Errorf("NewState = %v, want %v", result.NewState, tt.wantState)
			}
			if result.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", result.Changed, tt.wantChanged)
			}
			if !slices.Equal(result.Actions, tt.wantActions) {
				t.Errorf("Actions = %v, want %v", result.Actions, tt.wantActions)
			}
			if result.OldState != tt.state {
				t.Errorf("OldState = %v, want %v", result.OldState, tt.state)
			}
		})
	}
}

// TestFSMUnknownEventIgnored verifies that a (state, event) pair with no
// table entry leaves the state unchanged and produces no actions.
func TestFSMUnknownEventIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state uwb.State
		event uwb.Event
	}{
		{"Deinit ignores DriverIdle", uwb.StateDeinit, uwb.EventDriverIdle},
		{"Init ignores DriverActive", uwb.StateInit, uwb.EventDriverActive},
		{"Idle ignores DriverIdle", uwb.StateIdle, uwb.EventDriverIdle},
		{"Active ignores DriverIdle", uwb.StateActive, uwb.EventDriverIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := uwb.ApplyEvent(tt.state, tt.event)
			if result.Changed {
				t.Errorf("Changed = true, want false for %v+%v", tt.state, tt.event)
			}
			if result.NewState != tt.state {
				t.Errorf("NewState = %v, want unchanged %v", result.NewState, tt.state)
			}
			if result.Actions != nil {
				t.Errorf("Actions = %v, want nil", result.Actions)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state uwb.State
		want  string
	}{
		{uwb.StateInit, "INIT"},
		{uwb.StateIdle, "IDLE"},
		{uwb.StateActive, "ACTIVE"},
		{uwb.StateError, "ERROR"},
		{uwb.StateDeinit, "DEINIT"},
		{uwb.State(255), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestEventString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event uwb.Event
		want  string
	}{
		{uwb.EventDriverIdle, "DriverIdle"},
		{uwb.EventDriverActive, "DriverActive"},
		{uwb.EventDriverIdleStopped, "DriverIdleStopped"},
		{uwb.EventDriverIdleMaxRetry, "DriverIdleMaxRetry"},
		{uwb.EventDriverError, "DriverError"},
		{uwb.EventDeinit, "Deinit"},
		{uwb.Event(255), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("Event(%d).String() = %q, want %q", tt.event, got, tt.want)
		}
	}
}
