package transport

import "sync/atomic"

// ConnState is the lifecycle position of one websocket connection.
type ConnState int32

// Connection lifecycle states.
const (
	// StateDisconnected means no connection is established.
	StateDisconnected ConnState = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateConnected means the connection is live.
	StateConnected
	// StateReconnecting means an automatic reconnect is in progress.
	StateReconnecting
	// StateClosed means Close was called; the connection never comes back.
	StateClosed
)

// String returns the string representation of the connection state.
func (s ConnState) String() string {
	return [...]string{
		"disconnected",
		"connecting",
		"connected",
		"reconnecting",
		"closed",
	}[s]
}

// connState holds a ConnState with atomic access.
type connState struct {
	v atomic.Int32
}

func (s *connState) load() ConnState {
	return ConnState(s.v.Load())
}

func (s *connState) store(state ConnState) {
	s.v.Store(int32(state))
}

func (s *connState) compareAndSwap(old, new ConnState) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}
