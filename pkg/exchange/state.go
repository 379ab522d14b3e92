package exchange

import "sync/atomic"

// AdapterState tracks where an adapter instance is in its connection
// lifecycle. One adapter serves one live connection, so the state machine
// is per instance.
type AdapterState int32

// Adapter lifecycle states.
const (
	// StateDisconnected means no subscription has been issued.
	StateDisconnected AdapterState = iota
	// StateSubscribing means subscribe messages were built and the adapter
	// awaits an acknowledgment-class frame, or proceeds optimistically when
	// the exchange sends none.
	StateSubscribing
	// StateStreaming is the steady state in which frames are classified and
	// handled.
	StateStreaming
	// StateResubscribing means a caller-driven subscription change is in
	// flight; affected book replicas have been re-emptied.
	StateResubscribing
)

// String returns the string representation of the adapter state.
func (s AdapterState) String() string {
	return [...]string{
		"disconnected",
		"subscribing",
		"streaming",
		"resubscribing",
	}[s]
}

// State provides thread-safe atomic access to an AdapterState value.
type State struct {
	state atomic.Int32
}

// Load returns the current adapter state.
func (s *State) Load() AdapterState {
	return AdapterState(s.state.Load())
}

// Store sets the adapter state to the given value.
func (s *State) Store(state AdapterState) {
	s.state.Store(int32(state))
}

// CompareAndSwap atomically swaps old for new, reporting whether it did.
func (s *State) CompareAndSwap(old, new AdapterState) bool {
	return s.state.CompareAndSwap(int32(old), int32(new))
}
