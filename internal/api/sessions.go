package api

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uwbd/uwbd/internal/uwb"
)

// callbackGrace bounds how long a handler waits for the session's terminal
// callback to land after its triggering Manager call returns, covering the
// window where the driver's status notification races the dispatcher's own
// wait-for-state.
const callbackGrace = 2 * time.Second

// SessionHandler exposes the session manager's operations over HTTP,
// translating each request into the corresponding Manager call and
// correlating its single terminal client callback back into the response.
type SessionHandler struct {
	manager *uwb.Manager
	hub     *hub
	logger  *slog.Logger
}

// NewSessionHandler constructs a SessionHandler bound to manager.
func NewSessionHandler(manager *uwb.Manager, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{manager: manager, hub: newHub(), logger: logger}
}

// newHandle mints a fresh client-scoped session handle. The admin API plays
// the role the Android framework plays in the original stack: one process,
// many logical callers, each needing a distinct opaque token.
func newHandle() uwb.SessionHandle {
	id := uuid.New()
	return uwb.SessionHandle(binary.BigEndian.Uint64(id[:8]))
}

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	sessionType, err := parseSessionType(req.SessionType)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	params, err := req.toOpenParams()
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	handle := newHandle()
	cb := h.hub.register(handle)
	armed := cb.arm()

	err = h.manager.CreateSession(r.Context(), uwb.CreateSessionRequest{
		SessionID:   req.SessionID,
		Handle:      handle,
		SessionType: sessionType,
		ChipID:      req.ChipID,
		Attribution: toAttribution(req.Attribution),
		Params:      params,
		Callbacks:   cb,
		SystemUID:   req.SystemUID,
		Foreground:  req.Foreground,
	})
	if err != nil {
		h.hub.remove(handle)
		writeManagerError(w, err)
		return
	}

	waitForOutcome(armed)
	outcome := cb.latestOutcome()
	if !outcome.ok {
		h.hub.remove(handle)
		UnprocessableEntity(w, outcome.reason)
		return
	}

	s := h.manager.LookupByHandle(handle)
	if s == nil {
		h.hub.remove(handle)
		InternalServerError(w, "session vanished before response")
		return
	}
	WriteJSONCreated(w, sessionToResponse(s))
}

// List handles GET /sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.manager.Sessions()
	out := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionToResponse(s)
	}
	WriteJSONOK(w, out)
}

// Get handles GET /sessions/{handle}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSONOK(w, sessionToResponse(s))
}

// Destroy handles DELETE /sessions/{handle}.
func (h *SessionHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	if err := h.manager.DeInitSession(r.Context(), handle); err != nil {
		writeManagerError(w, err)
		return
	}
	h.hub.remove(handle)
	WriteNoContent(w)
}

// Start handles POST /sessions/{handle}/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	cb, ok := h.hub.get(handle)
	if !ok {
		NotFound(w, "session not found")
		return
	}

	var req StartRequest
	if r.ContentLength > 0 {
		if !decodeJSONBody(w, r, &req) {
			return
		}
	}

	armed := cb.arm()
	var err error
	if req.CCCRanMultiplier != nil {
		err = h.manager.StartRangingWithCCCParams(r.Context(), handle, &uwb.CCCStartParams{RanMultiplier: req.CCCRanMultiplier})
	} else {
		err = h.manager.StartRanging(r.Context(), handle)
	}
	if err != nil {
		writeManagerError(w, err)
		return
	}

	waitForOutcome(armed)
	outcome := cb.latestOutcome()
	if !outcome.ok {
		UnprocessableEntity(w, outcome.reason)
		return
	}
	WriteNoContent(w)
}

// Stop handles POST /sessions/{handle}/stop.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	cb, ok := h.hub.get(handle)
	if !ok {
		NotFound(w, "session not found")
		return
	}

	armed := cb.arm()
	if err := h.manager.StopRanging(r.Context(), handle); err != nil {
		writeManagerError(w, err)
		return
	}

	waitForOutcome(armed)
	outcome := cb.latestOutcome()
	if !outcome.ok {
		UnprocessableEntity(w, outcome.reason)
		return
	}
	WriteNoContent(w)
}

// Reconfigure handles POST /sessions/{handle}/reconfigure.
func (h *SessionHandler) Reconfigure(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	cb, ok := h.hub.get(handle)
	if !ok {
		NotFound(w, "session not found")
		return
	}

	var req ReconfigureRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	s := h.manager.LookupByHandle(handle)
	if s == nil {
		NotFound(w, "session not found")
		return
	}

	var newParams uwb.OpenParams
	switch {
	case req.Fira != nil:
		newParams = &uwb.FiraParams{
			UCIVersion:          parseUCIVersion(req.Fira.UCIVersion),
			RangingIntervalMs:   req.Fira.RangingIntervalMs,
			DataRepetitionCount: req.Fira.DataRepetitionCount,
		}
	case req.CCC != nil:
		newParams = &uwb.CCCParams{
			UCIVersion:        parseUCIVersion(req.CCC.UCIVersion),
			RanMultiplier:     req.CCC.RanMultiplier,
			RangingIntervalMs: req.CCC.RangingIntervalMs,
		}
	default:
		BadRequest(w, "one of fira_params or ccc_params required")
		return
	}

	armed := cb.arm()
	if err := h.manager.Reconfigure(r.Context(), handle, newParams); err != nil {
		writeManagerError(w, err)
		return
	}

	waitForOutcome(armed)
	outcome := cb.latestOutcome()
	if !outcome.ok {
		UnprocessableEntity(w, outcome.reason)
		return
	}
	WriteNoContent(w)
}

// MulticastUpdate handles POST /sessions/{handle}/multicast.
func (h *SessionHandler) MulticastUpdate(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	if _, ok := h.hub.get(handle); !ok {
		NotFound(w, "session not found")
		return
	}

	var req MulticastUpdateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	var action uwb.MulticastAction
	switch req.Action {
	case "add":
		action = uwb.MulticastActionAdd
	case "remove":
		action = uwb.MulticastActionRemove
	default:
		BadRequest(w, "action must be \"add\" or \"remove\"")
		return
	}

	sessionKey, err := hex.DecodeString(req.SessionKeyHex)
	if err != nil {
		BadRequest(w, "invalid session_key_hex")
		return
	}
	subKeys := make([][]byte, len(req.SubSessionKeysHex))
	for i, s := range req.SubSessionKeysHex {
		b, err := hex.DecodeString(s)
		if err != nil {
			BadRequest(w, "invalid sub_session_keys_hex entry")
			return
		}
		subKeys[i] = b
	}

	update := uwb.MulticastUpdate{
		Action:         action,
		Addresses:      req.Addresses,
		SubSessionIDs:  req.SubSessionIDs,
		SessionKey:     sessionKey,
		SubSessionKeys: subKeys,
	}

	if err := h.manager.MulticastUpdate(r.Context(), handle, update); err != nil {
		writeManagerError(w, err)
		return
	}
	WriteJSONOK(w, map[string]string{"status": "accepted"})
}

// SendData handles POST /sessions/{handle}/send.
func (h *SessionHandler) SendData(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	if _, ok := h.hub.get(handle); !ok {
		NotFound(w, "session not found")
		return
	}

	var req SendDataRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	payload, err := hex.DecodeString(req.PayloadHex)
	if err != nil {
		BadRequest(w, "invalid payload_hex")
		return
	}

	if err := h.manager.SendData(r.Context(), handle, req.PeerMAC, nil, payload); err != nil {
		writeManagerError(w, err)
		return
	}
	WriteJSONOK(w, map[string]string{"status": "accepted"})
}

// Events handles GET /sessions/{handle}/events, returning the bounded log
// of async notifications (ranging results, data receipt, controlee and
// closure events) recorded since the session was opened.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return
	}
	cb, ok := h.hub.get(handle)
	if !ok {
		NotFound(w, "session not found")
		return
	}
	WriteJSONOK(w, cb.eventsSnapshot())
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*uwb.Session, bool) {
	handle, ok := parseHandleParam(w, r)
	if !ok {
		return nil, false
	}
	s := h.manager.LookupByHandle(handle)
	if s == nil {
		NotFound(w, "session not found")
		return nil, false
	}
	return s, true
}

func parseHandleParam(w http.ResponseWriter, r *http.Request) (uwb.SessionHandle, bool) {
	raw := chi.URLParam(r, "handle")
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		BadRequest(w, "invalid handle")
		return 0, false
	}
	return uwb.SessionHandle(v), true
}

// waitForOutcome blocks until ch closes (the session's terminal callback
// landed) or callbackGrace elapses, whichever comes first. A timeout here
// means the driver never reported the expected transition within the
// Manager's own bound either, so the handler falls through to whatever
// outcome was last recorded (ok:false by default for a fresh arm).
func waitForOutcome(ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(callbackGrace):
	}
}

func writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, uwb.ErrSessionExists):
		Conflict(w, err.Error())
	case errors.Is(err, uwb.ErrSessionNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, uwb.ErrWrongState):
		Conflict(w, err.Error())
	case errors.Is(err, uwb.ErrInvalidParam), errors.Is(err, uwb.ErrPartialMulticastKeys):
		BadRequest(w, err.Error())
	case errors.Is(err, uwb.ErrMaxSessionsReached), errors.Is(err, uwb.ErrSystemPolicy):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, uwb.ErrDispatcherClosed):
		ServiceUnavailable(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
