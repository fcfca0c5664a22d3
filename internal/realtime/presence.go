package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status values tracked per user.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusBusy    = "busy"
	StatusAway    = "away"
	StatusAFK     = "afk"
)

// Presence tracks which users are reachable and through which connections.
// It is pure in-memory state shared by every connection handler, so every
// mutation runs under the mutex as a single read-modify-write step.
type Presence struct {
	mu       sync.Mutex
	conns    map[uint][]string
	status   map[uint]string
	lastSeen map[uint]time.Time
	log      zerolog.Logger
}

// NewPresence constructs an empty presence registry.
func NewPresence(logger zerolog.Logger) *Presence {
	return &Presence{
		conns:    make(map[uint][]string),
		status:   make(map[uint]string),
		lastSeen: make(map[uint]time.Time),
		log:      logger.With().Str("component", "presence").Logger(),
	}
}

// AddConnection registers a connection for a user and marks them online.
// Re-adding a known pair is a no-op.
func (p *Presence) AddConnection(userID uint, connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.conns[userID] {
		if existing == connectionID {
			p.log.Debug().Uint("user_id", userID).Str("connection_id", connectionID).Msg("connection already registered")
			return
		}
	}

	p.conns[userID] = append(p.conns[userID], connectionID)
	p.status[userID] = StatusOnline
}

// RemoveConnection drops a connection id from whichever user holds it. When a
// user's last connection goes away their status flips to offline and lastSeen
// is stamped in the same critical section.
func (p *Presence) RemoveConnection(connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for userID, ids := range p.conns {
		for i, id := range ids {
			if id != connectionID {
				continue
			}
			p.conns[userID] = append(ids[:i], ids[i+1:]...)
			if len(p.conns[userID]) == 0 {
				delete(p.conns, userID)
				p.status[userID] = StatusOffline
				p.lastSeen[userID] = time.Now().UTC()
			}
			return
		}
	}
}

// RemoveUser force-clears every connection for a user. Logout is
// authoritative: the user goes offline even if other tabs are still open.
func (p *Presence) RemoveUser(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.conns, userID)
	p.status[userID] = StatusOffline
	p.lastSeen[userID] = time.Now().UTC()
}

// Connections returns the connection ids registered for a user, oldest first.
// The result is a copy and never nil.
func (p *Presence) Connections(userID uint) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := p.conns[userID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Status reports the user's current status, defaulting to offline.
func (p *Presence) Status(userID uint) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if status, ok := p.status[userID]; ok {
		return status
	}
	return StatusOffline
}

// LastSeen returns the timestamp stamped at the user's last offline
// transition, zero if the user was never seen disconnecting.
func (p *Presence) LastSeen(userID uint) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastSeen[userID]
}

// ListOnline returns the ids of every user holding at least one connection.
func (p *Presence) ListOnline() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]uint, 0, len(p.conns))
	for userID := range p.conns {
		out = append(out, userID)
	}
	return out
}

// SetStatus overrides the derived status for busy/away/afk. A user with no
// active connections cannot be marked anything other than offline.
func (p *Presence) SetStatus(userID uint, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.conns[userID]) == 0 {
		p.log.Debug().Uint("user_id", userID).Str("status", status).Msg("ignoring status for disconnected user")
		return
	}
	p.status[userID] = status
}
