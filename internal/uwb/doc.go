// Package uwb owns the UWB ranging/data-transfer session manager: per-session
// state (session.go, table.go), the session finite state machine (fsm.go),
// the single-threaded command dispatcher (dispatcher.go), asynchronous
// notification correlation (notify.go), admission/priority/timer policy
// (policy.go, foreground.go, errorstreak.go), the inbound/outbound data path
// (datapath.go, senddata.go), controlee multicast updates (multicast.go) and
// FiRa/CCC/Radar parameter rewriting (protoadapt.go, params.go).
//
// The native UWB driver and the client callback transport are external
// collaborators; this package only defines the ports (Driver, ClientCallbacks)
// that concrete adapters (internal/driver, internal/api) implement.
package uwb
