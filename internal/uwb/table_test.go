package uwb_test

import (
	"testing"

	"github.com/uwbd/uwbd/internal/uwb"
)

func newTableTestSession(t *testing.T, id uint32, handle uwb.SessionHandle, st uwb.SessionType) *uwb.Session {
	t.Helper()
	s, err := uwb.NewSession(uwb.SessionConfig{
		SessionID:     id,
		SessionHandle: handle,
		SessionType:   st,
		Callbacks:     noopTableCallbacks{},
		Params:        &uwb.FiraParams{},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestTableInsertLookupRemove(t *testing.T) {
	t.Parallel()

	tbl := uwb.NewTable()
	s := newTableTestSession(t, 1, 100, uwb.SessionTypeFiraRanging)

	if err := tbl.Insert(s); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := tbl.LookupByID(1); got != s {
		t.Errorf("LookupByID = %v, want %v", got, s)
	}
	if got := tbl.LookupByHandle(100); got != s {
		t.Errorf("LookupByHandle = %v, want %v", got, s)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}

	tbl.Remove(1)
	if tbl.LookupByID(1) != nil {
		t.Error("session should be gone after Remove")
	}
	if tbl.LookupByHandle(100) != nil {
		t.Error("handle index should be cleared after Remove")
	}
	if tbl.Len() != 0 {
		t.Errorf("Len = %d, want 0", tbl.Len())
	}
}

func TestTableInsertDuplicateIDRejected(t *testing.T) {
	t.Parallel()

	tbl := uwb.NewTable()
	s1 := newTableTestSession(t, 1, 100, uwb.SessionTypeFiraRanging)
	s2 := newTableTestSession(t, 1, 200, uwb.SessionTypeFiraRanging)

	if err := tbl.Insert(s1); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := tbl.Insert(s2); err != uwb.ErrSessionExists {
		t.Errorf("second Insert err = %v, want ErrSessionExists", err)
	}
}

func TestTableRemoveUnknownIsNoop(t *testing.T) {
	t.Parallel()

	tbl := uwb.NewTable()
	tbl.Remove(999) // must not panic
}

func TestTableCountByType(t *testing.T) {
	t.Parallel()

	tbl := uwb.NewTable()
	if err := tbl.Insert(newTableTestSession(t, 1, 100, uwb.SessionTypeFiraRanging)); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Insert(newTableTestSession(t, 2, 200, uwb.SessionTypeFiraRanging)); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Insert(newTableTestSession(t, 3, 300, uwb.SessionTypeCCC)); err != nil {
		t.Fatal(err)
	}

	if n := tbl.CountByType(uwb.SessionTypeFiraRanging); n != 2 {
		t.Errorf("CountByType(Fira) = %d, want 2", n)
	}
	if n := tbl.CountByType(uwb.SessionTypeCCC); n != 1 {
		t.Errorf("CountByType(CCC) = %d, want 1", n)
	}
	if n := tbl.CountByType(uwb.SessionTypeRadar); n != 0 {
		t.Errorf("CountByType(Radar) = %d, want 0", n)
	}
}

func TestTableSnapshotIsIndependentCopy(t *testing.T) {
	t.Parallel()

	tbl := uwb.NewTable()
	if err := tbl.Insert(newTableTestSession(t, 1, 100, uwb.SessionTypeFiraRanging)); err != nil {
		t.Fatal(err)
	}

	snap := tbl.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot len = %d, want 1", len(snap))
	}

	tbl.Remove(1)
	if len(snap) != 1 {
		t.Error("prior snapshot should not be affected by later Remove")
	}
}

// noopTableCallbacks satisfies uwb.ClientCallbacks for table tests that
// never exercise the callback sink itself.
type noopTableCallbacks struct{}

func (noopTableCallbacks) OnRangingOpened(any)                               {}
func (noopTableCallbacks) OnRangingOpenFailed(string, any)                   {}
func (noopTableCallbacks) OnRangingStarted(any)                              {}
func (noopTableCallbacks) OnRangingStartFailed(string)                       {}
func (noopTableCallbacks) OnRangingStopped(uwb.StopReason)                   {}
func (noopTableCallbacks) OnRangingStopFailed(string)                        {}
func (noopTableCallbacks) OnRangingStoppedWithUciReasonCode(string)          {}
func (noopTableCallbacks) OnRangingStoppedWithAPIReasonCode(uwb.StopReason)  {}
func (noopTableCallbacks) OnRangingResult(uwb.RangeData)                    {}
func (noopTableCallbacks) OnDataReceived(uint64, any, []byte)                {}
func (noopTableCallbacks) OnDataSent(uint64, any)                            {}
func (noopTableCallbacks) OnDataSendFailed(uint64, string, any)              {}
func (noopTableCallbacks) OnRangingReconfigured()                           {}
func (noopTableCallbacks) OnRangingReconfigureFailed(string)                {}
func (noopTableCallbacks) OnControleeAdded(uint64)                          {}
func (noopTableCallbacks) OnControleeAddFailed(uint64, string)              {}
func (noopTableCallbacks) OnControleeRemoved(uint64)                        {}
func (noopTableCallbacks) OnControleeRemoveFailed(uint64, string)           {}
func (noopTableCallbacks) OnRangingClosed(uwb.CloseReason)                  {}
func (noopTableCallbacks) OnRangingClosedWithAPIReasonCode(uwb.CloseReason) {}
func (noopTableCallbacks) OnRadarDataMessageReceived(uwb.RadarData)         {}

var _ uwb.ClientCallbacks = noopTableCallbacks{}
