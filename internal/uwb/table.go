package uwb

import "sync"

// Table is the Session Table (spec §3 "Global Maps"): a mapping from
// session-handle to Session (primary) and session-id to Session (secondary
// index), enforcing uniqueness and exposing atomic lookup/insert/remove.
// Guarded by a table-level lock held only during lookup/insert/remove,
// never while a command is in flight (spec §5).
type Table struct {
	mu         sync.RWMutex
	byHandle   map[SessionHandle]*Session
	byID       map[uint32]*Session
}

// NewTable constructs an empty Session Table.
func NewTable() *Table {
	return &Table{
		byHandle: make(map[SessionHandle]*Session),
		byID:     make(map[uint32]*Session),
	}
}

// Insert adds a session to the table. Returns ErrSessionExists if a session
// with the same id is already present (spec §3 invariant 1).
func (t *Table) Insert(s *Session) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byID[s.id]; ok {
		return ErrSessionExists
	}
	t.byID[s.id] = s
	t.byHandle[s.handle] = s
	return nil
}

// LookupByHandle returns the session for handle, or nil if absent.
func (t *Table) LookupByHandle(h SessionHandle) *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byHandle[h]
}

// LookupByID returns the session for id, or nil if absent.
func (t *Table) LookupByID(id uint32) *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byID[id]
}

// Remove deletes a session from the table by id. It is a no-op if the
// session is not present (idempotent, matching DeInit-is-terminal
// semantics).
func (t *Table) Remove(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.byID[id]
	if !ok {
		return
	}
	delete(t.byID, id)
	delete(t.byHandle, s.handle)
}

// Snapshot returns a copy of all sessions currently in the table, safe to
// range over without holding the table lock.
func (t *Table) Snapshot() []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Session, 0, len(t.byID))
	for _, s := range t.byID {
		out = append(out, s)
	}
	return out
}

// CountByType returns the number of resident sessions of the given type,
// used by the Policy Engine's per-protocol admission bound (§4.3).
func (t *Table) CountByType(st SessionType) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, s := range t.byID {
		if s.sessionType == st {
			n++
		}
	}
	return n
}

// Len returns the total number of resident sessions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
