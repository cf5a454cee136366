package uwb

import (
	"slices"
	"testing"
)

func TestRxQueueInsertOrdersBySequence(t *testing.T) {
	t.Parallel()

	q := newRxQueue(10)
	q.insert(ReceivedDataInfo{SeqNum: 3})
	q.insert(ReceivedDataInfo{SeqNum: 1})
	q.insert(ReceivedDataInfo{SeqNum: 2})

	got := q.drain()
	want := []uint16{1, 2, 3}
	var gotSeqs []uint16
	for _, it := range got {
		gotSeqs = append(gotSeqs, it.SeqNum)
	}
	if !slices.Equal(gotSeqs, want) {
		t.Errorf("drain order = %v, want %v", gotSeqs, want)
	}
}

func TestRxQueueDiscardsDuplicateSequence(t *testing.T) {
	t.Parallel()

	q := newRxQueue(10)
	ok1 := q.insert(ReceivedDataInfo{SeqNum: 5, PeerMAC: 1})
	ok2 := q.insert(ReceivedDataInfo{SeqNum: 5, PeerMAC: 2})

	if !ok1 {
		t.Error("first insert of seq 5 should succeed")
	}
	if ok2 {
		t.Error("duplicate insert of seq 5 should be discarded")
	}
	items := q.drain()
	if len(items) != 1 || items[0].PeerMAC != 1 {
		t.Errorf("queue after duplicate insert = %+v, want single entry from first insert", items)
	}
}

func TestRxQueueEvictsSmallestSequenceOnOverflow(t *testing.T) {
	t.Parallel()

	q := newRxQueue(2)
	q.insert(ReceivedDataInfo{SeqNum: 1})
	q.insert(ReceivedDataInfo{SeqNum: 2})
	q.insert(ReceivedDataInfo{SeqNum: 3})

	items := q.drain()
	var seqs []uint16
	for _, it := range items {
		seqs = append(seqs, it.SeqNum)
	}
	want := []uint16{2, 3}
	if !slices.Equal(seqs, want) {
		t.Errorf("after overflow = %v, want %v (smallest seq evicted)", seqs, want)
	}
}

func TestRxQueueDrainEmptiesQueue(t *testing.T) {
	t.Parallel()

	q := newRxQueue(10)
	q.insert(ReceivedDataInfo{SeqNum: 1})
	_ = q.drain()
	if len(q.drain()) != 0 {
		t.Error("second drain should return nothing")
	}
}

// fakeAdvertiseManager is the minimal AdvertiseManager test double.
type fakeAdvertiseManager struct {
	pointed   map[uint64]bool
	updated   []RangeData
	removed   []uint64
}

func newFakeAdvertiseManager() *fakeAdvertiseManager {
	return &fakeAdvertiseManager{pointed: make(map[uint64]bool)}
}

func (f *fakeAdvertiseManager) UpdateAdvertiseTarget(data RangeData) { f.updated = append(f.updated, data) }
func (f *fakeAdvertiseManager) IsPointedTarget(peerMAC uint64) bool  { return f.pointed[peerMAC] }
func (f *fakeAdvertiseManager) RemoveAdvertiseTarget(peerMAC uint64) { f.removed = append(f.removed, peerMAC) }

var _ AdvertiseManager = (*fakeAdvertiseManager)(nil)

// recordingDataCallbacks captures OnDataReceived invocations for datapath
// delivery assertions; all other ClientCallbacks methods are no-ops.
type recordingDataCallbacks struct {
	noopCallbacks
	received []uint64
}

func (c *recordingDataCallbacks) OnDataReceived(peer uint64, _ any, _ []byte) {
	c.received = append(c.received, peer)
}

func TestOnDataReceivedTwoWayDeliversDirectly(t *testing.T) {
	t.Parallel()

	mgr := newPolicyTestManager(DefaultConfig())
	cb := &recordingDataCallbacks{}
	s, err := NewSession(SessionConfig{
		SessionID: 1,
		Callbacks: cb,
		Params:    &FiraParams{RangingRoundUsage: RangingRoundUsageTwoWay},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := mgr.table.Insert(s); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	mgr.OnDataReceived(1, StatusOK, 1, 42, []byte("hi"))

	if !slices.Equal(cb.received, []uint64{42}) {
		t.Errorf("received = %v, want [42]", cb.received)
	}
}

func TestOnDataReceivedOwrAoAQueuesUntilDelivery(t *testing.T) {
	t.Parallel()

	mgr := newPolicyTestManager(DefaultConfig())
	adv := newFakeAdvertiseManager()
	mgr.advertiseManager = adv

	cb := &recordingDataCallbacks{}
	s, err := NewSession(SessionConfig{
		SessionID: 1,
		Callbacks: cb,
		Params:    &FiraParams{RangingRoundUsage: RangingRoundUsageOwrAoA},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := mgr.table.Insert(s); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	mgr.OnDataReceived(1, StatusOK, 1, 42, []byte("a"))
	mgr.OnDataReceived(1, StatusOK, 2, 42, []byte("b"))

	if len(cb.received) != 0 {
		t.Fatalf("received = %v, want none before pointed-target delivery", cb.received)
	}

	adv.pointed[42] = true
	mgr.deliverOwrAoA(s, RangeData{
		SessionID:       1,
		MeasurementType: MeasurementOwrAoA,
		Role:            RoleObserver,
		PeerMAC:         42,
		Status:          StatusOK,
	})

	if !slices.Equal(cb.received, []uint64{42, 42}) {
		t.Errorf("received after delivery = %v, want [42 42]", cb.received)
	}
	if !slices.Equal(adv.removed, []uint64{42}) {
		t.Errorf("removed = %v, want [42]", adv.removed)
	}
}

func TestOnDataReceivedUnknownSessionDropsAndCounts(t *testing.T) {
	t.Parallel()

	mgr := newPolicyTestManager(DefaultConfig())
	// No session inserted; must not panic and must route through the metrics
	// drop counter rather than a nil-session callback invocation.
	mgr.OnDataReceived(99, StatusOK, 1, 1, nil)
}
