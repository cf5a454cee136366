package api

import (
	"sync"

	"github.com/uwbd/uwbd/internal/uwb"
)

// maxSessionEvents bounds the per-session async-notification log retained
// for polling clients; older entries are dropped once full.
const maxSessionEvents = 64

// Event is one async notification delivered through a session's callback
// sink (ranging results, data receipt, controlee changes, closure) recorded
// for later retrieval via GET /sessions/{handle}/events.
type Event struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// outcome is the terminal result of the one open/start/stop/reconfigure
// command currently in flight for a session, read by the handler
// immediately after the corresponding Manager call returns.
type outcome struct {
	ok     bool
	reason string
}

// sessionCallbacks implements uwb.ClientCallbacks for exactly one session,
// translating the push-style callback sink into state an HTTP handler can
// read back. The session's terminal open/start/stop/reconfigure callback
// can arrive on a different goroutine than the one blocked inside the
// Manager call that triggered it (the driver's status notification may race
// the dispatcher's own wait-for-state), so a handler arms a one-shot
// channel before issuing the call and waits on it rather than assuming the
// callback has already landed.
type sessionCallbacks struct {
	mu      sync.Mutex
	latest  outcome
	armedCh chan struct{}
	events  []Event
}

func newSessionCallbacks() *sessionCallbacks {
	return &sessionCallbacks{}
}

// arm prepares a fresh signal channel for the next terminal callback, resets
// the recorded outcome to ok:false, and returns the channel for the caller to
// wait on.
func (c *sessionCallbacks) arm() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan struct{})
	c.armedCh = ch
	c.latest = outcome{}
	return ch
}

func (c *sessionCallbacks) setOutcome(ok bool, reason string) {
	c.mu.Lock()
	c.latest = outcome{ok: ok, reason: reason}
	ch := c.armedCh
	c.armedCh = nil
	c.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// latestOutcome returns the outcome of the most recently completed command.
func (c *sessionCallbacks) latestOutcome() outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *sessionCallbacks) record(kind, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Event{Kind: kind, Detail: detail})
	if len(c.events) > maxSessionEvents {
		c.events = c.events[len(c.events)-maxSessionEvents:]
	}
}

// eventsSnapshot returns a copy of the session's recorded async events.
func (c *sessionCallbacks) eventsSnapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

var _ uwb.ClientCallbacks = (*sessionCallbacks)(nil)

func (c *sessionCallbacks) OnRangingOpened(bundle any) {
	c.setOutcome(true, "")
}

func (c *sessionCallbacks) OnRangingOpenFailed(reason string, bundle any) {
	c.setOutcome(false, reason)
}

func (c *sessionCallbacks) OnRangingStarted(bundle any) {
	c.setOutcome(true, "")
}

func (c *sessionCallbacks) OnRangingStartFailed(reason string) {
	c.setOutcome(false, reason)
}

func (c *sessionCallbacks) OnRangingStopped(reason uwb.StopReason) {
	c.setOutcome(true, "")
	c.record("stopped", reason.String())
}

func (c *sessionCallbacks) OnRangingStopFailed(reason string) {
	c.setOutcome(false, reason)
}

func (c *sessionCallbacks) OnRangingStoppedWithUciReasonCode(reason string) {
	c.record("stopped_uci", reason)
}

func (c *sessionCallbacks) OnRangingStoppedWithAPIReasonCode(reason uwb.StopReason) {
	c.record("stopped_api", reason.String())
}

func (c *sessionCallbacks) OnRangingResult(data uwb.RangeData) {
	c.record("ranging_result", uint64Hex(data.PeerMAC))
}

func (c *sessionCallbacks) OnDataReceived(peer uint64, bundle any, payload []byte) {
	c.record("data_received", uint64Hex(peer))
}

func (c *sessionCallbacks) OnDataSent(peer uint64, bundle any) {
	c.record("data_sent", uint64Hex(peer))
}

func (c *sessionCallbacks) OnDataSendFailed(peer uint64, status string, bundle any) {
	c.record("data_send_failed", status)
}

func (c *sessionCallbacks) OnRangingReconfigured() {
	c.setOutcome(true, "")
}

func (c *sessionCallbacks) OnRangingReconfigureFailed(status string) {
	c.setOutcome(false, status)
}

func (c *sessionCallbacks) OnControleeAdded(addr uint64) {
	c.record("controlee_added", uint64Hex(addr))
}

func (c *sessionCallbacks) OnControleeAddFailed(addr uint64, status string) {
	c.record("controlee_add_failed", status)
}

func (c *sessionCallbacks) OnControleeRemoved(addr uint64) {
	c.record("controlee_removed", uint64Hex(addr))
}

func (c *sessionCallbacks) OnControleeRemoveFailed(addr uint64, status string) {
	c.record("controlee_remove_failed", status)
}

func (c *sessionCallbacks) OnRangingClosed(reason uwb.CloseReason) {
	c.record("closed", reason.String())
}

func (c *sessionCallbacks) OnRangingClosedWithAPIReasonCode(reason uwb.CloseReason) {
	c.record("closed_api", reason.String())
}

func (c *sessionCallbacks) OnRadarDataMessageReceived(data uwb.RadarData) {
	c.record("radar_data", "")
}

// hub registers one sessionCallbacks per live session handle so handlers
// for operations past creation (start/stop/events/...) can find the sink
// that was wired in at CreateSession time.
type hub struct {
	mu    sync.Mutex
	byHnd map[uwb.SessionHandle]*sessionCallbacks
}

func newHub() *hub {
	return &hub{byHnd: make(map[uwb.SessionHandle]*sessionCallbacks)}
}

func (h *hub) register(handle uwb.SessionHandle) *sessionCallbacks {
	cb := newSessionCallbacks()
	h.mu.Lock()
	h.byHnd[handle] = cb
	h.mu.Unlock()
	return cb
}

func (h *hub) get(handle uwb.SessionHandle) (*sessionCallbacks, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cb, ok := h.byHnd[handle]
	return cb, ok
}

func (h *hub) remove(handle uwb.SessionHandle) {
	h.mu.Lock()
	delete(h.byHnd, handle)
	h.mu.Unlock()
}
