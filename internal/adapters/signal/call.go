package signal

import (
	"github.com/dkeye/yumee/internal/app"
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

type callTargetPayload struct {
	Type      string `json:"type"`
	TargetSID string `json:"target_sid"`
}

type callRoomPayload struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func (ctl *SignalWSController) handleCallUser(sid domain.ConnID, data []byte) {
	var p callTargetPayload
	if !decode(sid, core.EvCallUser, data, &p) {
		return
	}
	if p.TargetSID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("call_user without target_sid")
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("call_user rate limited")
		ctl.Orch.CallError(sid, app.ErrRateLimited)
		return
	}
	if err := ctl.Orch.InitiateCall(sid, domain.ConnID(p.TargetSID)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("target", p.TargetSID).Msg("call_user refused")
	}
}

// roomID extracts room_id, dropping frames that do not carry one.
func roomID(sid domain.ConnID, kind string, data []byte) (domain.CallID, bool) {
	var p callRoomPayload
	if !decode(sid, kind, data, &p) {
		return "", false
	}
	if p.RoomID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", kind).Msg("missing room_id")
		return "", false
	}
	return domain.CallID(p.RoomID), true
}

func (ctl *SignalWSController) handleAcceptCall(sid domain.ConnID, data []byte) {
	id, ok := roomID(sid, core.EvAcceptCall, data)
	if !ok {
		return
	}
	if err := ctl.Orch.AcceptCall(sid, id); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(id)).Msg("accept_call refused")
	}
}

func (ctl *SignalWSController) handleRejectCall(sid domain.ConnID, data []byte) {
	id, ok := roomID(sid, core.EvRejectCall, data)
	if !ok {
		return
	}
	if err := ctl.Orch.RejectCall(sid, id); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(id)).Msg("reject_call ignored")
	}
}

func (ctl *SignalWSController) handleEndCall(sid domain.ConnID, data []byte) {
	id, ok := roomID(sid, core.EvEndCall, data)
	if !ok {
		return
	}
	if err := ctl.Orch.EndCall(sid, id); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(id)).Msg("end_call ignored")
	}
}
