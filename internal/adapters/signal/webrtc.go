package signal

import (
	"encoding/json"

	"github.com/dkeye/yumee/internal/core"
	"github.com/dkeye/yumee/internal/domain"
	"github.com/rs/zerolog/log"
)

// handleRelay forwards offer, answer and ice_candidate. The payload field is
// kept as raw JSON; the server never parses SDP or candidates.
func (ctl *SignalWSController) handleRelay(sid domain.ConnID, kind string, data []byte) {
	var fields map[string]json.RawMessage
	if !decode(sid, kind, data, &fields) {
		return
	}
	var target string
	if raw, ok := fields["target_sid"]; ok {
		if err := json.Unmarshal(raw, &target); err != nil {
			log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", kind).Msg("bad target_sid")
			return
		}
	}
	if target == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", kind).Msg("relay without target_sid")
		return
	}

	payload := fields[core.PayloadField(kind)]
	if err := ctl.Orch.Relay(sid, domain.ConnID(target), kind, payload); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", kind).Msg("relay dropped")
	}
}
