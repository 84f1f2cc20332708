// Package ledger tracks which (user, tool) pairs a human has approved.
// The ledger is inert storage: it never expires entries on its own, the
// caller clears it at session boundaries.
package ledger

import (
	"sort"
	"sync"
)

// Ledger is the per-user record of confirmed tools.
type Ledger struct {
	mu sync.RWMutex
	// userID -> set of approved tool names
	grants map[string]map[string]bool
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{grants: make(map[string]map[string]bool)}
}

// Approve records that the user confirmed the tool. Idempotent.
func (l *Ledger) Approve(tool, userID string) {
	if tool == "" || userID == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.grants[userID]
	if set == nil {
		set = make(map[string]bool)
		l.grants[userID] = set
	}
	set[tool] = true
}

// Reject removes the grant if present. Idempotent.
func (l *Ledger) Reject(tool, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if set := l.grants[userID]; set != nil {
		delete(set, tool)
	}
}

// IsApproved reports whether the user has confirmed the tool.
func (l *Ledger) IsApproved(tool, userID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.grants[userID][tool]
}

// ClearAll removes every grant for the user, e.g. at session end.
func (l *Ledger) ClearAll(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.grants, userID)
}

// Approved returns the user's approved tool names in sorted order.
func (l *Ledger) Approved(userID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set := l.grants[userID]
	tools := make([]string, 0, len(set))
	for tool := range set {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	return tools
}
