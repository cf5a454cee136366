package uwb

import "sort"

// rxQueue is the bounded, sequence-ordered inbound queue for one peer MAC
// within an OwR-AoA session (spec §3 "ReceivedDataInfo", §4.7 "Receive").
// Entries are kept sorted ascending by sequence number; duplicates (same
// seq) are discarded; on overflow the smallest-sequence entry is evicted.
type rxQueue struct {
	items    []ReceivedDataInfo
	maxDepth int
}

// ReceivedDataInfo is one queued inbound application packet (spec §3).
type ReceivedDataInfo struct {
	SessionID uint32
	Status    Status
	SeqNum    uint16
	PeerMAC   uint64
	Payload   []byte
}

func newRxQueue(maxDepth int) *rxQueue {
	return &rxQueue{maxDepth: maxDepth}
}

// insert adds info in sequence order. It returns false if info was a
// duplicate of an already-queued sequence number (discarded, per spec).
func (q *rxQueue) insert(info ReceivedDataInfo) bool {
	idx := sort.Search(len(q.items), func(i int) bool { return q.items[i].SeqNum >= info.SeqNum })
	if idx < len(q.items) && q.items[idx].SeqNum == info.SeqNum {
		return false
	}

	q.items = append(q.items, ReceivedDataInfo{})
	copy(q.items[idx+1:], q.items[idx:])
	q.items[idx] = info

	if len(q.items) > q.maxDepth {
		// Evict the smallest-seqnum item (index 0), never the newly
		// arrived one unless it itself is the smallest (spec §8 property 6).
		q.items = q.items[1:]
	}
	return true
}

// drain removes and returns all queued items in ascending sequence order.
func (q *rxQueue) drain() []ReceivedDataInfo {
	out := q.items
	q.items = nil
	return out
}

// OnDataReceived implements DriverCallbackSink (spec §4.7 "Receive"). For
// OwR-AoA sessions the packet is queued per-peer; for two-way ranging
// sessions it is delivered directly.
func (m *Manager) OnDataReceived(sessionID uint32, status Status, seqNum uint16, peerMAC uint64, payload []byte) {
	s := m.table.LookupByID(sessionID)
	if s == nil {
		m.metrics.IncDataDropped("unknown")
		return
	}

	m.metrics.IncDataReceived(s.Type().String())

	params := s.Params()
	fira, ok := params.(*FiraParams)
	if !ok || fira.RangingRoundUsage != RangingRoundUsageOwrAoA {
		s.Callbacks().OnDataReceived(peerMAC, nil, payload)
		return
	}

	info := ReceivedDataInfo{SessionID: sessionID, Status: status, SeqNum: seqNum, PeerMAC: peerMAC, Payload: payload}

	s.mu.Lock()
	q, ok := s.rxQueues[peerMAC]
	if !ok {
		q = newRxQueue(s.rxQueueMaxDepth)
		s.rxQueues[peerMAC] = q
	}
	q.insert(info)
	s.mu.Unlock()
}

// AdvertiseManager is the external collaborator that tracks OwR-AoA
// candidate transmitters (spec §1 "advertise-target registry — used, not
// defined here", §4.7). The core only calls it; it never owns the registry.
type AdvertiseManager interface {
	UpdateAdvertiseTarget(data RangeData)
	IsPointedTarget(peerMAC uint64) bool
	RemoveAdvertiseTarget(peerMAC uint64)
}

// OemPointedTargetChecker is the optional oem-extension hook consulted
// after IsPointedTarget (spec §4.7 step 3). A nil checker is treated as
// "always true".
type OemPointedTargetChecker interface {
	OnCheckPointedTarget(peerMAC uint64) bool
}

// deliverOwrAoA implements spec §4.7's "One-way AoA (OwR-AoA) delivery"
// sequence: update the advertise target, check it is pointed, optionally
// consult the oem hook, then drain and deliver all queued data for that
// peer in sequence order.
func (m *Manager) deliverOwrAoA(s *Session, data RangeData) {
	if m.advertiseManager == nil {
		return
	}

	m.advertiseManager.UpdateAdvertiseTarget(data)

	if !m.advertiseManager.IsPointedTarget(data.PeerMAC) {
		return
	}

	if m.oemChecker != nil && !m.oemChecker.OnCheckPointedTarget(data.PeerMAC) {
		return
	}

	s.mu.Lock()
	q, ok := s.rxQueues[data.PeerMAC]
	var items []ReceivedDataInfo
	if ok {
		items = q.drain()
	}
	s.mu.Unlock()

	for _, info := range items {
		s.Callbacks().OnDataReceived(info.PeerMAC, nil, info.Payload)
	}

	m.advertiseManager.RemoveAdvertiseTarget(data.PeerMAC)
}
