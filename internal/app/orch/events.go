package orch

import (
	"github.com/dkeye/yumee/internal/domain"
	"github.com/pion/webrtc/v4"
)

const connectedMessage = "Connected to Yumee server"

type connectedEvent struct {
	Type       string             `json:"type"`
	SID        domain.ConnID      `json:"sid"`
	Message    string             `json:"message"`
	ICEServers []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

type registeredEvent struct {
	Type    string        `json:"type"`
	Success bool          `json:"success"`
	Name    string        `json:"name"`
	SID     domain.ConnID `json:"sid"`
}

// userEvent is used for user_joined and user_left.
type userEvent struct {
	Type string        `json:"type"`
	Name string        `json:"name"`
	SID  domain.ConnID `json:"sid"`
}

type userListEvent struct {
	Type  string           `json:"type"`
	Users []domain.UserDTO `json:"users"`
}

type incomingCallEvent struct {
	Type       string        `json:"type"`
	CallerSID  domain.ConnID `json:"caller_sid"`
	CallerName string        `json:"caller_name"`
	RoomID     domain.CallID `json:"room_id"`
}

type callInitiatedEvent struct {
	Type       string        `json:"type"`
	TargetSID  domain.ConnID `json:"target_sid"`
	TargetName string        `json:"target_name"`
	RoomID     domain.CallID `json:"room_id"`
}

type callAcceptedEvent struct {
	Type         string        `json:"type"`
	AccepterSID  domain.ConnID `json:"accepter_sid"`
	AccepterName string        `json:"accepter_name"`
	RoomID       domain.CallID `json:"room_id"`
}

type callRejectedEvent struct {
	Type         string        `json:"type"`
	RejecterName string        `json:"rejecter_name"`
	RoomID       domain.CallID `json:"room_id"`
}

type callEndedEvent struct {
	Type      string        `json:"type"`
	EnderName string        `json:"ender_name"`
	RoomID    domain.CallID `json:"room_id"`
	Reason    string        `json:"reason,omitempty"`
}

type callErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

type chatEvent struct {
	Type       string        `json:"type"`
	SenderSID  domain.ConnID `json:"sender_sid"`
	SenderName string        `json:"sender_name"`
	Message    string        `json:"message"`
	Private    bool          `json:"private"`
}
