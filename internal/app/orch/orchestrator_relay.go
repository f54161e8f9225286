package orch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/dkeye/yumee/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Relay forwards an offer, answer or ICE candidate from sender to target
// without looking at payload. A target that is not registered is treated
// as a race with its disconnect: the frame is dropped and the sender is not
// told.
func (o *Orchestrator) Relay(sender, target domain.ConnID, kind string, payload json.RawMessage) error {
	if !core.RelayKind(kind) {
		o.Metrics.Drop(metrics.DropReasonInvalid)
		return fmt.Errorf("relay %q: not a relay event", kind)
	}

	o.mu.Lock()
	senderName, ok := o.Registry.Lookup(sender)
	if !ok {
		o.mu.Unlock()
		o.Metrics.Drop(metrics.DropReasonUnregistered)
		log.Warn().Str("module", "orch").Str("sid", string(sender)).Str("kind", kind).Msg("relay from unregistered sender")
		return app.ErrNotRegistered
	}
	if _, ok := o.Registry.Lookup(target); !ok {
		o.mu.Unlock()
		o.Metrics.Drop(metrics.DropReasonTargetOffline)
		log.Debug().Str("module", "orch").Str("sid", string(sender)).Str("target", string(target)).Str("kind", kind).Msg("relay target gone")
		return app.ErrUserOffline
	}
	if payload == nil {
		payload = json.RawMessage("null")
	}
	box := o.newOutbox()
	box.to(target, map[string]any{
		"type":                  kind,
		core.PayloadField(kind): payload,
		"sender_sid":            sender,
		"sender_name":           senderName,
	})
	o.mu.Unlock()

	o.Metrics.Relay(kind)
	log.Debug().Str("module", "orch").Str("sid", string(sender)).Str("target", string(target)).Str("kind", kind).Msg("relayed")
	o.flush(box)
	return nil
}

// SendMessage delivers a chat message. With a target it goes to the target
// and is echoed back to the sender; without one it goes to every
// registered connection.
func (o *Orchestrator) SendMessage(sender, target domain.ConnID, text string) error {
	msg, ok := domain.NormalizeMessage(text)
	if !ok {
		o.Metrics.Drop(metrics.DropReasonInvalid)
		return app.ErrInvalidMessage
	}

	o.mu.Lock()
	senderName := o.nameOr(sender, domain.DefaultUsername)
	box := o.newOutbox()
	if target == "" {
		box.broadcast(chatEvent{
			Type:       core.EvReceiveMessage,
			SenderSID:  sender,
			SenderName: senderName,
			Message:    msg,
		})
		o.mu.Unlock()

		o.Metrics.Relay("chat_public")
		o.flush(box)
		return nil
	}

	targetName, ok := o.Registry.Lookup(target)
	if !ok {
		o.mu.Unlock()
		o.Metrics.Drop(metrics.DropReasonTargetOffline)
		log.Debug().Str("module", "orch").Str("sid", string(sender)).Str("target", string(target)).Msg("private message target gone")
		return app.ErrUserOffline
	}
	box.to(target, chatEvent{
		Type:       core.EvReceiveMessage,
		SenderSID:  sender,
		SenderName: senderName,
		Message:    msg,
		Private:    true,
	})
	box.to(sender, chatEvent{
		Type:       core.EvReceiveMessage,
		SenderSID:  sender,
		SenderName: fmt.Sprintf("%s (to %s)", senderName, targetName),
		Message:    msg,
		Private:    true,
	})
	o.mu.Unlock()

	o.Metrics.Relay("chat_private")
	o.flush(box)
	return nil
}
