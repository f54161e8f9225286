package app

import (
	"sync"
	"time"

	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

// CallTable owns every live call. Ended calls are removed, not retained.
type CallTable struct {
	mu    sync.RWMutex
	calls map[domain.CallID]domain.Call
	// byConn indexes the call each connection is currently in.
	byConn map[domain.ConnID]domain.CallID
}

func NewCallTable() *CallTable {
	return &CallTable{
		calls:  make(map[domain.CallID]domain.Call),
		byConn: make(map[domain.ConnID]domain.CallID),
	}
}

// Create starts a ringing call between caller and callee. The busy check
// and the insert happen under one lock.
func (t *CallTable) Create(caller, callee domain.ConnID, now time.Time) (domain.Call, error) {
	if caller == callee {
		return domain.Call{}, ErrSelfCall
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.byConn[caller]; busy {
		return domain.Call{}, ErrBusy
	}
	if _, busy := t.byConn[callee]; busy {
		return domain.Call{}, ErrBusy
	}
	c := domain.NewCall(caller, callee, now)
	t.calls[c.ID] = c
	t.byConn[caller] = c.ID
	t.byConn[callee] = c.ID
	log.Info().Str("module", "app.calls").Str("room_id", string(c.ID)).Msg("call created")
	return c, nil
}

func (t *CallTable) Get(id domain.CallID) (domain.Call, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.calls[id]
	return c, ok
}

// Accept moves a ringing call to active.
func (t *CallTable) Accept(id domain.CallID, by domain.ConnID) (domain.Call, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	if !ok {
		return domain.Call{}, ErrCallNotFound
	}
	if !c.Has(by) {
		return domain.Call{}, ErrNotParticipant
	}
	if c.State != domain.CallRinging {
		return domain.Call{}, ErrCallActive
	}
	c.State = domain.CallActive
	t.calls[id] = c
	log.Info().Str("module", "app.calls").Str("room_id", string(id)).Msg("call active")
	return c, nil
}

// Remove deletes the call and returns it as it was last stored.
func (t *CallTable) Remove(id domain.CallID) (domain.Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.calls[id]
	if !ok {
		return domain.Call{}, false
	}
	delete(t.calls, id)
	for _, p := range c.Participants() {
		if t.byConn[p] == id {
			delete(t.byConn, p)
		}
	}
	log.Info().Str("module", "app.calls").Str("room_id", string(id)).Msg("call removed")
	return c, true
}

// CallsOf scans the whole table for calls containing conn. Under the busy
// guard there is at most one, but callers must not rely on it.
func (t *CallTable) CallsOf(conn domain.ConnID) []domain.Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []domain.Call
	for _, c := range t.calls {
		if c.Has(conn) {
			out = append(out, c)
		}
	}
	return out
}

func (t *CallTable) Busy(conn domain.ConnID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byConn[conn]
	return ok
}

func (t *CallTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.calls)
}

// List returns a copy of every live call.
func (t *CallTable) List() []domain.Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Call, 0, len(t.calls))
	for _, c := range t.calls {
		out = append(out, c)
	}
	return out
}
