package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/dkeye/yumee/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Orchestrator drives registration, the call state machine and message
// relay on top of the Registry and the CallTable.
//
// mu is the single exclusion domain for every operation that reads or
// mutates both tables. Frames are collected under mu and sent after it is
// released. Lock order: mu, then the table locks.
type Orchestrator struct {
	Registry   *app.Registry
	Calls      *app.CallTable
	Policy     app.Policy
	Metrics    *metrics.Metrics
	ICEServers []webrtc.ICEServer
	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

type delivery struct {
	to    domain.ConnID
	conn  core.SignalConnection
	frame core.Frame
}

// outbox accumulates frames while mu is held.
type outbox struct {
	o   *Orchestrator
	out []delivery
}

func (o *Orchestrator) newOutbox() *outbox { return &outbox{o: o} }

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode event")
		return nil, false
	}
	return b, true
}

// to queues v for a single bound connection.
func (b *outbox) to(id domain.ConnID, v any) {
	conn, ok := b.o.Registry.Conn(id)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(id)).Msg("send to unbound connection")
		return
	}
	f, ok := encode(v)
	if !ok {
		return
	}
	b.out = append(b.out, delivery{to: id, conn: conn, frame: f})
}

// toCall queues v for every participant of c.
func (b *outbox) toCall(c domain.Call, v any) {
	for _, p := range c.Participants() {
		b.to(p, v)
	}
}

// broadcast queues v for every registered connection except the listed ones.
func (b *outbox) broadcast(v any, except ...domain.ConnID) {
	f, ok := encode(v)
	if !ok {
		return
	}
next:
	for _, snap := range b.o.Registry.Registered() {
		for _, ex := range except {
			if snap.SID == ex {
				continue next
			}
		}
		b.out = append(b.out, delivery{to: snap.SID, conn: snap.Signal, frame: f})
	}
}

// flush sends queued frames. It must be called without mu held.
func (o *Orchestrator) flush(b *outbox) {
	for _, d := range b.out {
		err := d.conn.TrySend(d.frame)
		if err == nil {
			continue
		}
		if errors.Is(err, core.ErrClosed) {
			o.Metrics.Drop(metrics.DropReasonClosed)
			log.Debug().Str("module", "orch").Str("sid", string(d.to)).Msg("send on closed connection")
			continue
		}
		o.Metrics.Drop(metrics.DropReasonBackpressure)
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(d.to)).Msg("frame dropped")
		if o.Policy == nil {
			continue
		}
		switch o.Policy.OnBackPressure(d.to) {
		case app.KickMember:
			o.Registry.Cancel(d.to)
		case app.DropFrame, app.NoAction:
		}
	}
}

// observe refreshes gauges; call with mu held.
func (o *Orchestrator) observe() {
	o.Metrics.Observe(o.Registry.Count(), o.Calls.Count())
}

// Stats reports the number of registered connections and live calls.
func (o *Orchestrator) Stats() (users, calls int) {
	return o.Registry.Count(), o.Calls.Count()
}

func (o *Orchestrator) nameOr(id domain.ConnID, fallback string) string {
	if name, ok := o.Registry.Lookup(id); ok {
		return name
	}
	return fallback
}
