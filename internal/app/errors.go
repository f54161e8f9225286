package app

import "errors"

var (
	ErrNotConnected   = errors.New("connection is not bound")
	ErrNotRegistered  = errors.New("you must register first")
	ErrUserOffline    = errors.New("user is offline")
	ErrSelfCall       = errors.New("cannot call yourself")
	ErrBusy           = errors.New("user is busy")
	ErrCallNotFound   = errors.New("call no longer exists")
	ErrNotParticipant = errors.New("not a participant of this call")
	ErrCallActive     = errors.New("call already accepted")
	ErrRateLimited    = errors.New("too many call attempts")
	ErrInvalidMessage = errors.New("message is empty or too long")
)

// ErrorCode maps a call-control error to the machine-readable code sent in
// call_error events.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrUserOffline):
		return "user_offline"
	case errors.Is(err, ErrSelfCall):
		return "self_call"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrCallNotFound):
		return "session_not_found"
	case errors.Is(err, ErrNotParticipant):
		return "not_participant"
	case errors.Is(err, ErrCallActive):
		return "already_active"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}
