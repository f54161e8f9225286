package orch

import (
	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

// InitiateCall rings target on behalf of caller. Guard failures are
// reported to the caller as call_error and returned.
func (o *Orchestrator) InitiateCall(caller, target domain.ConnID) error {
	o.mu.Lock()
	box := o.newOutbox()
	call, err := o.initiateLocked(caller, target)
	if err != nil {
		box.callError(caller, err)
		o.Metrics.CallEvent("failed")
	} else {
		callerName, _ := o.Registry.Lookup(caller)
		targetName, _ := o.Registry.Lookup(target)
		box.to(target, incomingCallEvent{
			Type:       core.EvIncomingCall,
			CallerSID:  caller,
			CallerName: callerName,
			RoomID:     call.ID,
		})
		box.to(caller, callInitiatedEvent{
			Type:       core.EvCallInitiated,
			TargetSID:  target,
			TargetName: targetName,
			RoomID:     call.ID,
		})
		o.Metrics.CallEvent("initiated")
		o.observe()
		log.Info().Str("module", "orch").Str("caller", callerName).Str("target", targetName).Str("room_id", string(call.ID)).Msg("call initiated")
	}
	o.mu.Unlock()

	o.flush(box)
	return err
}

func (o *Orchestrator) initiateLocked(caller, target domain.ConnID) (domain.Call, error) {
	if _, ok := o.Registry.Lookup(caller); !ok {
		return domain.Call{}, app.ErrNotRegistered
	}
	if _, ok := o.Registry.Lookup(target); !ok {
		return domain.Call{}, app.ErrUserOffline
	}
	return o.Calls.Create(caller, target, o.now())
}

// AcceptCall moves a ringing call to active and tells both sides.
func (o *Orchestrator) AcceptCall(accepter domain.ConnID, id domain.CallID) error {
	o.mu.Lock()
	box := o.newOutbox()
	call, err := o.Calls.Accept(id, accepter)
	if err != nil {
		box.callError(accepter, err)
	} else {
		box.toCall(call, callAcceptedEvent{
			Type:         core.EvCallAccepted,
			AccepterSID:  accepter,
			AccepterName: o.nameOr(accepter, "Someone"),
			RoomID:       call.ID,
		})
		o.Metrics.CallEvent("accepted")
		log.Info().Str("module", "orch").Str("sid", string(accepter)).Str("room_id", string(id)).Msg("call accepted")
	}
	o.mu.Unlock()

	o.flush(box)
	return err
}

// RejectCall declines a ringing call. Unknown calls, strangers and calls
// that are already active are ignored.
func (o *Orchestrator) RejectCall(rejecter domain.ConnID, id domain.CallID) error {
	o.mu.Lock()
	box := o.newOutbox()
	err := o.rejectLocked(box, rejecter, id)
	o.mu.Unlock()

	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(rejecter)).Str("room_id", string(id)).Msg("reject ignored")
	}
	o.flush(box)
	return err
}

func (o *Orchestrator) rejectLocked(box *outbox, rejecter domain.ConnID, id domain.CallID) error {
	call, ok := o.Calls.Get(id)
	if !ok {
		return app.ErrCallNotFound
	}
	other, ok := call.Other(rejecter)
	if !ok {
		return app.ErrNotParticipant
	}
	if call.State != domain.CallRinging {
		return app.ErrCallActive
	}
	o.Calls.Remove(id)
	box.to(other, callRejectedEvent{
		Type:         core.EvCallRejected,
		RejecterName: o.nameOr(rejecter, "Someone"),
		RoomID:       id,
	})
	o.Metrics.CallEvent("rejected")
	o.observe()
	log.Info().Str("module", "orch").Str("sid", string(rejecter)).Str("room_id", string(id)).Msg("call rejected")
	return nil
}

// EndCall hangs up a ringing or active call for both participants.
// Unknown calls and strangers are ignored.
func (o *Orchestrator) EndCall(ender domain.ConnID, id domain.CallID) error {
	o.mu.Lock()
	box := o.newOutbox()
	err := o.endLocked(box, ender, id)
	o.mu.Unlock()

	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(ender)).Str("room_id", string(id)).Msg("end ignored")
	}
	o.flush(box)
	return err
}

func (o *Orchestrator) endLocked(box *outbox, ender domain.ConnID, id domain.CallID) error {
	call, ok := o.Calls.Get(id)
	if !ok {
		return app.ErrCallNotFound
	}
	if !call.Has(ender) {
		return app.ErrNotParticipant
	}
	o.Calls.Remove(id)
	box.toCall(call, callEndedEvent{
		Type:      core.EvCallEnded,
		EnderName: o.nameOr(ender, "Someone"),
		RoomID:    id,
	})
	o.Metrics.CallEvent("ended")
	o.observe()
	log.Info().Str("module", "orch").Str("sid", string(ender)).Str("room_id", string(id)).Msg("call ended")
	return nil
}

// CallError reports err to sid as a call_error without touching any state.
func (o *Orchestrator) CallError(sid domain.ConnID, err error) {
	o.mu.Lock()
	box := o.newOutbox()
	box.callError(sid, err)
	o.mu.Unlock()

	o.flush(box)
}

func (b *outbox) callError(sid domain.ConnID, err error) {
	log.Info().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("call error")
	b.to(sid, callErrorEvent{
		Type:  core.EvCallError,
		Error: err.Error(),
		Code:  app.ErrorCode(err),
	})
}
