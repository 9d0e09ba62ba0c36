package domain

// ConnState is the transport session state, process-wide for the lifetime
// of the active session and reset on endpoint or identity change.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateError        ConnState = "error"
)
