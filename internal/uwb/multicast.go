package uwb

import "context"

// MulticastResult is one controlee's outcome within a MulticastListUpdate
// notification (spec §4.8).
type MulticastResult struct {
	Address uint64
	Action  MulticastAction
	Status  Status
}

// MulticastUpdate implements spec §4.8: a two-step transaction. The
// synchronous leg validates v2 joint-key presence and issues the driver
// call; the asynchronous leg (OnMulticastListUpdateNotificationReceived)
// reconciles the controlee list and emits per-address callbacks once the
// driver's MulticastListUpdateStatus notification arrives.
func (m *Manager) MulticastUpdate(ctx context.Context, handle SessionHandle, update MulticastUpdate) error {
	s := m.table.LookupByHandle(handle)
	if s == nil {
		return ErrSessionNotFound
	}

	hasKey := len(update.SessionKey) > 0
	hasSubKeys := len(update.SubSessionKeys) > 0
	if hasKey != hasSubKeys {
		s.Callbacks().OnRangingReconfigureFailed("REJECTED")
		return ErrPartialMulticastKeys
	}

	return m.dispatcher.Post(ctx, func(dctx context.Context) {
		mCtx, cancel := context.WithTimeout(dctx, m.cfg.MulticastTimeout)
		defer cancel()

		status, err := m.driver.MulticastListUpdate(mCtx, s.ID(), s.ChipID(), update)
		if err != nil || status != StatusOK {
			m.failMulticastSync(s, update)
			return
		}
		// Success here only means the driver accepted the command; the
		// terminal outcome arrives via OnMulticastListUpdateNotificationReceived.
	})
}

func (m *Manager) failMulticastSync(s *Session, update MulticastUpdate) {
	for _, addr := range update.Addresses {
		if update.Action == MulticastActionAdd {
			s.Callbacks().OnControleeAddFailed(addr, "FAILED")
		} else {
			s.Callbacks().OnControleeRemoveFailed(addr, "FAILED")
		}
	}
	s.Callbacks().OnRangingReconfigureFailed("FAILED")
}

// OnMulticastListUpdateNotificationReceived implements DriverCallbackSink
// (spec §4.8 "Await the MulticastListUpdateStatus notification").
func (m *Manager) OnMulticastListUpdateNotificationReceived(sessionID uint32, results []MulticastResult) {
	s := m.table.LookupByID(sessionID)
	if s == nil {
		return
	}

	anyFailed := false
	s.mu.Lock()
	for _, r := range results {
		if r.Status != StatusOK {
			anyFailed = true
			continue
		}
		switch r.Action {
		case MulticastActionAdd:
			s.controlees = append(s.controlees, r.Address)
		case MulticastActionRemove:
			s.controlees = removeAddr(s.controlees, r.Address)
		}
	}
	s.mu.Unlock()

	for _, r := range results {
		switch {
		case r.Status == StatusOK && r.Action == MulticastActionAdd:
			s.Callbacks().OnControleeAdded(r.Address)
		case r.Status == StatusOK && r.Action == MulticastActionRemove:
			s.Callbacks().OnControleeRemoved(r.Address)
		case r.Status != StatusOK && r.Action == MulticastActionAdd:
			s.Callbacks().OnControleeAddFailed(r.Address, "FAILED")
		case r.Status != StatusOK && r.Action == MulticastActionRemove:
			s.Callbacks().OnControleeRemoveFailed(r.Address, "FAILED")
		}
	}

	if anyFailed {
		s.Callbacks().OnRangingReconfigureFailed("FAILED")
		return
	}
	s.Callbacks().OnRangingReconfigured()
}

func removeAddr(addrs []uint64, target uint64) []uint64 {
	out := addrs[:0]
	for _, a := range addrs {
		if a != target {
			out = append(out, a)
		}
	}
	return out
}
