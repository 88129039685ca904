// Package mediator implements the session broker: the registry that pairs
// technicians to registered client sessions, the relay that bridges the two
// encrypted legs of a paired session, and the server that listens on the
// client and technician endpoints.
package mediator

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/logging"
	"github.com/dmitrijs2005/remotehelp/internal/wire"
	"github.com/google/uuid"
)

// SessionState tracks a session through its lifecycle. Reclaimed sessions
// are removed from the registry; a new registration always gets a fresh id.
type SessionState int

const (
	StateRegistered SessionState = iota + 1
	StatePaired
	StateUnpaired
	StateReclaimed
)

func (s SessionState) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StatePaired:
		return "paired"
	case StateUnpaired:
		return "unpaired"
	case StateReclaimed:
		return "reclaimed"
	default:
		return "unknown"
	}
}

// session is the registry's bookkeeping for one client. The client
// transport is set exactly once at registration; the technician transport
// is bound and unbound by pairing.
type session struct {
	id           string
	state        SessionState
	client       *wire.Session
	tech         *wire.Session
	registeredAt time.Time
	idleSince    time.Time
}

// SessionInfo is the read-only view returned by Lookup.
type SessionInfo struct {
	ID           string
	State        SessionState
	RegisteredAt time.Time
}

// Registry is the single shared mutable structure of the mediator. All
// mutations happen under one mutex; the guarded work is pointer swaps, so
// the lock is never held across I/O.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	idleTimeout time.Duration
	logger      logging.Logger

	now func() time.Time // seam for reaper tests
}

func NewRegistry(idleTimeout time.Duration, logger logging.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*session),
		idleTimeout: idleTimeout,
		logger:      logger.With("module", "registry"),
		now:         time.Now,
	}
}

// IdleTimeout reports the reclamation threshold. The reaper applies it to
// unpaired sessions; the relay applies the same value to paired links that
// have gone quiet in both directions.
func (r *Registry) IdleTimeout() time.Duration {
	return r.idleTimeout
}

// Register creates a session owning the client transport. requestedID may
// be empty, in which case an unguessable id is generated; a requested id
// that is already in use is rejected with ErrSessionBusy.
func (r *Registry) Register(requestedID string, client *wire.Session) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := requestedID
	if id == "" {
		id = uuid.NewString()
	} else if _, exists := r.sessions[id]; exists {
		return "", common.ErrSessionBusy
	}

	now := r.now()
	r.sessions[id] = &session{
		id:           id,
		state:        StateRegistered,
		client:       client,
		registeredAt: now,
		idleSince:    now,
	}
	return id, nil
}

// Pair atomically binds the technician transport to the session and
// returns the client transport for the relay. Exactly one of several
// concurrent callers can win; losers get ErrSessionBusy and never see the
// client transport.
func (r *Registry) Pair(id string, tech *wire.Session) (*wire.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	if s.tech != nil || s.state == StatePaired {
		return nil, common.ErrSessionBusy
	}

	s.tech = tech
	s.state = StatePaired
	return s.client, nil
}

// ReleaseTechnician returns a paired session to the unpaired state after
// the technician leg ended while the client leg survived. The technician
// transport is assumed already closed by the relay.
func (r *Registry) ReleaseTechnician(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.state != StatePaired {
		return
	}

	s.tech = nil
	s.state = StateUnpaired
	s.idleSince = r.now()
}

// Unregister reclaims a session, synchronously closing both transports so
// a paired technician is never left talking to a dead client.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	s.state = StateReclaimed
	s.client.Close()
	if s.tech != nil {
		s.tech.Close()
	}
}

// Lookup returns a snapshot of the session, or nil if it is unknown or
// already reclaimed.
func (r *Registry) Lookup(id string) *SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return &SessionInfo{ID: s.id, State: s.state, RegisteredAt: s.registeredAt}
}

// RunReaper reclaims sessions that have sat unpaired past the idle
// timeout. Paired links are not its business: those fail through transport
// errors and the relay's teardown path. On context cancellation every
// remaining session is reclaimed.
func (r *Registry) RunReaper(ctx context.Context) {
	interval := r.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, id := range r.allIDs() {
				r.Unregister(id)
			}
			return
		case <-ticker.C:
			for _, id := range r.expiredIDs() {
				r.logger.Info(ctx, "reclaiming idle session", "session_id", id)
				r.Unregister(id)
			}
		}
	}
}

func (r *Registry) allIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) expiredIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTimeout)
	var ids []string
	for id, s := range r.sessions {
		if s.state != StatePaired && s.idleSince.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
