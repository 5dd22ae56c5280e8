package socket

// State is the connection lifecycle state. Owned exclusively by the
// Manager; consumers read it through OnStateChange or IsConnected.
type State int32

const (
	// StateConnecting means a dial or redial is in progress.
	StateConnecting State = iota
	// StateOpen means the connection is established and Send will deliver.
	StateOpen
	// StateClosing means a deliberate shutdown is in progress.
	StateClosing
	// StateClosed means the connection is down and no retry is pending.
	// Only a fresh Connect leaves this state.
	StateClosed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
