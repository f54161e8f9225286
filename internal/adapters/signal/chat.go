package signal

import (
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleSendMessage(sid domain.ConnID, data []byte) {
	type messagePayload struct {
		Type      string `json:"type"`
		TargetSID string `json:"target_sid,omitempty"`
		Message   string `json:"message"`
	}
	var p messagePayload
	if !decode(sid, core.EvSendMessage, data, &p) {
		return
	}
	if err := ctl.Orch.SendMessage(sid, domain.ConnID(p.TargetSID), p.Message); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("send_message dropped")
	}
}
