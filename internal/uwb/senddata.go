package uwb

import "context"

// sendRecord tracks one in-flight outbound packet (spec §3 "SendDataInfo"),
// held until a terminal DataTransferStatus notification arrives or the
// session is DeInited, whichever comes first.
type sendRecord struct {
	peerMAC    uint64
	payload    []byte
	bundle     any
	txCount    uint32
	repetition uint32 // dataRepetitionCount from params; 0 means "terminal OK only"
}

// DataTransferStatus is the asynchronous outcome reported by
// onDataSendStatus, distinct from the synchronous Status byte (spec §4.7).
type DataTransferStatus uint8

const (
	// DataTransferOK is a terminal success.
	DataTransferOK DataTransferStatus = iota
	// DataTransferRepetitionOK is a non-terminal success that repeats until
	// txCount reaches the configured repetition count.
	DataTransferRepetitionOK
	// DataTransferError is any terminal failure status.
	DataTransferError
)

// SendData implements spec §4.7 "Send". Validation failures and
// synchronous driver failures are reported via the session's
// OnDataSendFailed callback; the terminal outcome otherwise arrives later
// through OnDataSendStatus.
func (m *Manager) SendData(ctx context.Context, handle SessionHandle, peerMAC uint64, bundle any, payload []byte) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return ErrSessionNotFound
	}
	if s.State() != StateActive {
		s.Callbacks().OnDataSendFailed(peerMAC, "ERROR_SESSION_NOT_EXIST", bundle)
		return ErrWrongState
	}
	if len(payload) == 0 {
		s.Callbacks().OnDataSendFailed(peerMAC, "INVALID_PARAM", bundle)
		return ErrInvalidParam
	}

	var repetition uint32
	if fira, ok := s.Params().(*FiraParams); ok {
		repetition = fira.DataRepetitionCount
	}

	rec := &sendRecord{peerMAC: peerMAC, payload: payload, bundle: bundle, repetition: repetition}
	seq := s.allocateSeq(rec)

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		sendCtx, cancel := context.WithTimeout(dctx, m.cfg.SendDataTimeout)
		defer cancel()

		status, err := m.driver.SendData(sendCtx, s.ID(), s.ChipID(), peerMAC, seq, payload)
		if err != nil || status != StatusOK {
			s.mu.Lock()
			delete(s.sends, seq)
			s.mu.Unlock()
			s.Callbacks().OnDataSendFailed(peerMAC, "FAILED", bundle)
		}
	})
}

// OnDataSendStatus implements DriverCallbackSink (spec §4.7 "Await
// onDataSendStatus"). Mismatched session or unknown sequence number drops
// silently, with no callback, per spec.
func (m *Manager) OnDataSendStatus(sessionID uint32, status DataTransferStatus, seqNum uint16, txCount uint32) {
	s := m.table.LookupByID(sessionID)
	if s == nil {
		return
	}

	s.mu.Lock()
	rec, ok := s.sends[seqNum]
	if !ok {
		s.mu.Unlock()
		return
	}
	rec.txCount = txCount

	var terminal bool
	switch status {
	case DataTransferOK:
		terminal = true
	case DataTransferRepetitionOK:
		terminal = rec.repetition != 0 && txCount >= rec.repetition
	case DataTransferError:
		terminal = true
	}
	if terminal {
		delete(s.sends, seqNum)
	}
	s.mu.Unlock()

	switch {
	case status == DataTransferOK:
		s.Callbacks().OnDataSent(rec.peerMAC, rec.bundle)
	case status == DataTransferRepetitionOK && !terminal:
		// Keep until a terminal OK; no callback yet.
	case terminal:
		s.Callbacks().OnDataSendFailed(rec.peerMAC, "FAILED", rec.bundle)
	}
}

// dropSendRecords discards all outstanding sendRecords on DeInit without
// any client notification (spec §4.7 "On DeInit, remove all outstanding
// SendDataInfo without notification").
func (m *Manager) dropSendRecords(s *Session) {
	s.mu.Lock()
	s.sends = make(map[uint16]*sendRecord)
	s.mu.Unlock()
}
