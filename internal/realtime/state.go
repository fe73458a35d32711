package realtime

// State is the connection lifecycle state.
type State int32

const (
	// StateDisconnected means no transport is open and no retry is pending.
	StateDisconnected State = iota

	// StateConnecting means a handshake is in flight.
	StateConnecting

	// StateConnected means the transport is open and subscriptions are live.
	StateConnected

	// StateReconnecting means the connection dropped and a retry is scheduled.
	StateReconnecting
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
