package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Signal core.SignalConnection
	Cancel context.CancelFunc
	// User is nil until the connection registers.
	User *domain.User
}

// Registry tracks live connections. A connection is bound at transport
// connect and becomes visible to others only after Register.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*connEntry),
	}
}

func (r *Registry) Bind(id domain.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Signal: conn, Cancel: cancel}
	log.Debug().Str("module", "app.registry").Str("sid", string(id)).Msg("bound signal")
}

// Unbind drops the connection together with its registration.
// It reports whether the connection was bound.
func (r *Registry) Unbind(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Debug().Str("module", "app.registry").Str("sid", string(id)).Msg("unbind signal")
	return true
}

// Register gives a bound connection its display name, replacing any
// previous one. It returns the accepted (normalized) name.
func (r *Registry) Register(id domain.ConnID, proposed string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", ErrNotConnected
	}
	if e.User == nil {
		e.User = domain.NewUser(id, proposed, now)
	} else {
		e.User.Username = domain.NormalizeName(proposed)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("name", e.User.Username).Msg("registered")
	return e.User.Username, nil
}

// Unregister removes the display identity but keeps the transport binding.
func (r *Registry) Unregister(id domain.ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.User == nil {
		return "", false
	}
	name := e.User.Username
	e.User = nil
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Str("name", name).Msg("unregistered")
	return name, true
}

func (r *Registry) Lookup(id domain.ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.User == nil {
		return "", false
	}
	return e.User.Username, true
}

// Conn returns the transport of a bound connection, registered or not.
func (r *Registry) Conn(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Signal, true
	}
	return nil, false
}

type regSnap struct {
	SID    domain.ConnID
	Signal core.SignalConnection
}

// Registered returns every registered connection.
func (r *Registry) Registered() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.conns))
	for sid, e := range r.conns {
		if e.User != nil {
			out = append(out, regSnap{SID: sid, Signal: e.Signal})
		}
	}
	return out
}

// Snapshot lists registered users ordered by join time, then id.
func (r *Registry) Snapshot() []domain.UserDTO {
	r.mu.RLock()
	users := make([]domain.User, 0, len(r.conns))
	for _, e := range r.conns {
		if e.User != nil {
			users = append(users, *e.User)
		}
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].JoinedAt.Before(users[j].JoinedAt)
		}
		return users[i].ID < users[j].ID
	})
	out := make([]domain.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, u.DTO())
	}
	return out
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.conns {
		if e.User != nil {
			n++
		}
	}
	return n
}

// Cancel tears down the transport of id through its context.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("canceled connection")
	return true
}
