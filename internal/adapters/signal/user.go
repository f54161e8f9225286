package signal

import (
	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRegister(
	sid domain.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type registerPayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p registerPayload
	if !decode(sid, core.EvRegister, data, &p) {
		return
	}

	name, err := ctl.Orch.Register(sid, p.Name)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("register")
		ctl.sendJSON(conn, map[string]any{
			"type":    core.EvRegistered,
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", name).Msg("register")
}

func (ctl *SignalWSController) handleGetUsers(sid domain.ConnID) {
	ctl.Orch.Users(sid)
}
