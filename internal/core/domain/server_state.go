package domain

// ServerState is the lifecycle state of the development server's watch loop.
type ServerState int32

const (
	// StateIdle means the server has not been started.
	StateIdle ServerState = iota
	// StateServing means the server is live and watches are armed.
	StateServing
	// StateRebuilding means a watch-triggered task sequence is in flight.
	StateRebuilding
)

// String returns the lower-case name of the state.
func (s ServerState) String() string {
	switch s {
	case StateServing:
		return "serving"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "idle"
	}
}
