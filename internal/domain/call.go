package domain

import "time"

type CallID string

type CallState int

const (
	CallRinging CallState = iota
	CallActive
	CallEnded
)

func (s CallState) String() string {
	switch s {
	case CallRinging:
		return "ringing"
	case CallActive:
		return "active"
	case CallEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// NewCallID derives the call identifier from the two participants.
// The pair is sorted first, so NewCallID(a, b) == NewCallID(b, a).
func NewCallID(a, b ConnID) CallID {
	if b < a {
		a, b = b, a
	}
	return CallID("call_" + string(a) + "_" + string(b))
}

// Call binds exactly two connections for the duration of one call.
type Call struct {
	ID        CallID
	Caller    ConnID
	Callee    ConnID
	State     CallState
	CreatedAt time.Time
}

func NewCall(caller, callee ConnID, now time.Time) Call {
	return Call{
		ID:        NewCallID(caller, callee),
		Caller:    caller,
		Callee:    callee,
		State:     CallRinging,
		CreatedAt: now,
	}
}

func (c Call) Participants() [2]ConnID { return [2]ConnID{c.Caller, c.Callee} }

func (c Call) Has(id ConnID) bool { return c.Caller == id || c.Callee == id }

// Other returns the participant that is not id.
func (c Call) Other(id ConnID) (ConnID, bool) {
	switch id {
	case c.Caller:
		return c.Callee, true
	case c.Callee:
		return c.Caller, true
	}
	return "", false
}
