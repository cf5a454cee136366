package uwb

import "sync"

// policyState holds the Policy Engine's admission/priority bookkeeping
// (spec §4.3). It has no goroutine of its own; its methods are called
// synchronously by Manager.CreateSession on the caller's goroutine, before
// the open command is posted to the dispatcher, so concurrent creates can
// reach Admit at once; it carries its own mutex for that reason.
type policyState struct {
	mgr *Manager
	mu  sync.Mutex
}

func newPolicyState(mgr *Manager) *policyState {
	return &policyState{mgr: mgr}
}

// AssignPriority implements the fixed priority ladder (§4.3): system UID
// callers get PrioritySystem, CCC sessions are privileged by construction,
// third-party callers get PriorityFG or PriorityBG depending on current
// importance.
func (p *policyState) AssignPriority(systemUID bool, sessionType SessionType, foreground bool) Priority {
	switch {
	case systemUID:
		return PrioritySystem
	case sessionType == SessionTypeCCC:
		return PriorityCCC
	case foreground:
		return PriorityFG
	default:
		return PriorityBG
	}
}

// maxSessionsFor returns the configured bound for sessionType. Radar
// sessions share the FiRa bound; spec §4.3 only names maxFiraSessions and
// maxCccSessions, and radar is a FiRa-adjacent session type with no
// separate bound called out.
func (p *policyState) maxSessionsFor(sessionType SessionType) int {
	if sessionType == SessionTypeCCC {
		return p.mgr.cfg.MaxCccSessions
	}
	return p.mgr.cfg.MaxFiraSessions
}

// Admit checks the per-protocol session bound for sessionType against the
// incoming priority. If admission requires an eviction, it returns the
// victim session (still present in the table; the caller evicts it). If no
// eviction is needed, it returns (nil, nil). If admission must be refused,
// it returns ErrMaxSessionsReached.
//
// Tie-break: among residents of the lowest priority strictly below the
// incoming session's priority, the oldest (lowest session id, since ids are
// allocated monotonically) is chosen.
func (p *policyState) Admit(sessionType SessionType, incoming Priority) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	max := p.maxSessionsFor(sessionType)
	if p.mgr.table.CountByType(sessionType) < max {
		return nil, nil
	}

	var victim *Session
	for _, s := range p.mgr.table.Snapshot() {
		if s.Type() != sessionType {
			continue
		}
		if !s.Priority().Less(incoming) {
			continue
		}
		if victim == nil || s.Priority() < victim.Priority() ||
			(s.Priority() == victim.Priority() && s.ID() < victim.ID()) {
			victim = s
		}
	}

	if victim == nil {
		return nil, ErrMaxSessionsReached
	}
	return victim, nil
}

// CheckBackgroundAllowed returns ErrSystemPolicy if the caller is
// third-party-background and background ranging is disabled by policy
// (§4.3).
func (p *policyState) CheckBackgroundAllowed(priority Priority) error {
	if priority == PriorityBG && !p.mgr.cfg.BackgroundRangingEnabled {
		return ErrSystemPolicy
	}
	return nil
}
