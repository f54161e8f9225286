package orch

import (
	"context"

	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

// Connect binds a freshly accepted transport connection. It stays invisible
// to other users until Register.
func (o *Orchestrator) Connect(sid domain.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.mu.Lock()
	o.Registry.Bind(sid, conn, cancel)
	box := o.newOutbox()
	box.to(sid, connectedEvent{
		Type:       core.EvConnected,
		SID:        sid,
		Message:    connectedMessage,
		ICEServers: o.ICEServers,
	})
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("client connected")
	o.flush(box)
}

// Register sets the display name of sid and announces it to everyone.
func (o *Orchestrator) Register(sid domain.ConnID, proposed string) (string, error) {
	o.mu.Lock()
	name, err := o.Registry.Register(sid, proposed, o.now())
	if err != nil {
		o.mu.Unlock()
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("register")
		return "", err
	}
	box := o.newOutbox()
	box.to(sid, registeredEvent{Type: core.EvRegistered, Success: true, Name: name, SID: sid})
	box.broadcast(userEvent{Type: core.EvUserJoined, Name: name, SID: sid}, sid)
	box.broadcast(userListEvent{Type: core.EvUserList, Users: o.Registry.Snapshot()})
	o.observe()
	o.mu.Unlock()

	o.flush(box)
	return name, nil
}

// Users answers a get_users request from sid only.
func (o *Orchestrator) Users(sid domain.ConnID) {
	o.mu.Lock()
	box := o.newOutbox()
	box.to(sid, userListEvent{Type: core.EvUserList, Users: o.Registry.Snapshot()})
	o.mu.Unlock()

	o.flush(box)
}

// Disconnect removes sid from the registry, tears down every call it takes
// part in and tells the remaining users. A second call for the same sid is
// a no-op; it reports whether anything was removed.
func (o *Orchestrator) Disconnect(sid domain.ConnID) bool {
	o.mu.Lock()
	if _, bound := o.Registry.Conn(sid); !bound {
		o.mu.Unlock()
		return false
	}

	box := o.newOutbox()
	name, registered := o.Registry.Unregister(sid)
	ender := name
	if !registered {
		ender = "Someone"
	}

	for _, c := range o.Calls.CallsOf(sid) {
		if _, ok := o.Calls.Remove(c.ID); !ok {
			continue
		}
		o.Metrics.CallEvent("disconnected")
		other, _ := c.Other(sid)
		box.to(other, callEndedEvent{
			Type:      core.EvCallEnded,
			EnderName: ender,
			RoomID:    c.ID,
			Reason:    "disconnected",
		})
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(c.ID)).Msg("call ended by disconnect")
	}

	if registered {
		box.broadcast(userEvent{Type: core.EvUserLeft, Name: name, SID: sid})
		box.broadcast(userListEvent{Type: core.EvUserList, Users: o.Registry.Snapshot()})
	}
	o.Registry.Unbind(sid)
	o.observe()
	o.mu.Unlock()

	log.Info().Str("module", "orch").Str("sid", string(sid)).Bool("registered", registered).Msg("client disconnected")
	o.flush(box)
	return true
}
