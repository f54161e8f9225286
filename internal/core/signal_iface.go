package core

import "errors"

//go:generate mockgen -destination=mock_signal_iface.go -package=core . SignalConnection

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Frame is a raw encoded event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues f without blocking. It returns ErrBackpressure when
	// the outbound buffer is full and ErrClosed after Close.
	TrySend(Frame) error
	Close()
}
