package core

// Inbound event types.
const (
	EvRegister     = "register"
	EvGetUsers     = "get_users"
	EvCallUser     = "call_user"
	EvAcceptCall   = "accept_call"
	EvRejectCall   = "reject_call"
	EvEndCall      = "end_call"
	EvSendMessage  = "send_message"
	EvPing         = "ping"
	EvOffer        = "offer"
	EvAnswer       = "answer"
	EvICECandidate = "ice_candidate"
)

// Outbound event types. Offer, answer and ice_candidate keep their inbound
// names when relayed.
const (
	EvConnected      = "connected"
	EvRegistered     = "registered"
	EvUserJoined     = "user_joined"
	EvUserLeft       = "user_left"
	EvUserList       = "user_list"
	EvIncomingCall   = "incoming_call"
	EvCallInitiated  = "call_initiated"
	EvCallAccepted   = "call_accepted"
	EvCallRejected   = "call_rejected"
	EvCallEnded      = "call_ended"
	EvCallError      = "call_error"
	EvReceiveMessage = "receive_message"
	EvPong           = "pong"
)

// RelayKind reports whether t is a payload-carrying signaling event that is
// forwarded verbatim to a single target.
func RelayKind(t string) bool {
	switch t {
	case EvOffer, EvAnswer, EvICECandidate:
		return true
	}
	return false
}

// PayloadField names the JSON field that carries the opaque payload of a
// relay event, both inbound and outbound.
func PayloadField(kind string) string {
	if kind == EvICECandidate {
		return "candidate"
	}
	return kind
}
