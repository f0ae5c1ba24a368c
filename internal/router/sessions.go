package router

import (
	"fmt"
	"sync"
	"time"
)

// Session is one bookkeeping row in the router's session table. Router
// sessions live in the router's own namespace; DomainSessionID records the
// id the domain server issued for the same conversation, when it could be
// recovered from the startsession response.
type Session struct {
	ID              string
	Domain          string
	DomainSessionID string
	EntityName      string
	EntityType      string
	Active          bool
	CreatedAt       time.Time
}

// SessionTable is the in-process session bookkeeping. Rows are only ever
// appended and flagged; nothing is removed, so ended sessions stay
// inspectable. All mutation goes through table methods under one mutex,
// and getters return copies.
type SessionTable struct {
	mu       sync.Mutex
	counter  uint64
	sessions []*Session
}

// NewSessionTable creates an empty session table.
func NewSessionTable() *SessionTable {
	return &SessionTable{}
}

// Start appends a new active session for the given domain and returns a
// copy of the row. Ids combine a monotonic counter, the domain name and the
// creation timestamp, so they are unique for the process lifetime.
func (t *SessionTable) Start(domainName string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	now := time.Now()
	s := &Session{
		ID:        fmt.Sprintf("%s_session_%d_%d", domainName, t.counter, now.UnixMilli()),
		Domain:    domainName,
		Active:    true,
		CreatedAt: now,
	}
	t.sessions = append(t.sessions, s)
	return *s
}

// Get finds a session by router id. Inactive sessions are found too; ending
// a session never hides it from lookup.
func (t *SessionTable) Get(id string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.ID == id {
			return *s, true
		}
	}
	return Session{}, false
}

// FirstActive returns the first active session for a domain, in insertion
// order. First match, not most recent: callers relying on the default
// session get the oldest still-active one.
func (t *SessionTable) FirstActive(domainName string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.Active && s.Domain == domainName {
			return *s, true
		}
	}
	return Session{}, false
}

// SetEntity records the last entity loaded into a session.
func (t *SessionTable) SetEntity(id, entityName, entityType string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.ID == id {
			s.EntityName = entityName
			s.EntityType = entityType
			return true
		}
	}
	return false
}

// SetDomainSessionID records the domain-issued session id for a router
// session.
func (t *SessionTable) SetDomainSessionID(id, domainSessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.ID == id {
			s.DomainSessionID = domainSessionID
			return true
		}
	}
	return false
}

// Deactivate flips a session's active flag off. The row stays in the table.
func (t *SessionTable) Deactivate(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.ID == id {
			s.Active = false
			return true
		}
	}
	return false
}

// All returns copies of every row in insertion order.
func (t *SessionTable) All() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, *s)
	}
	return out
}
