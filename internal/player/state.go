// internal/player/state.go
package player

// State is the transport state reported by a Playback.
//
// The common transitions are:
//
//	┌──────┐  play  ┌───────────┐ ready ┌─────────┐
//	│ None │ ──────▶│ Buffering │──────▶│ Playing │
//	└──────┘        └───────────┘       └─────────┘
//	                     ▲                │    ▲
//	                     │ seek     pause │    │ play
//	                     │                ▼    │
//	                     │              ┌─────────┐
//	                     └──────────────│ Paused  │
//	                                    └─────────┘
//
// Stop from any state leads to Stopped. A backend error leads to Error,
// which is only left by a new play request. Connecting is used while a
// search or a remote session is being resolved.
type State int

const (
	StateNone State = iota
	StateStopped
	StatePaused
	StatePlaying
	StateBuffering
	StateError
	StateConnecting
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateStopped:
		return "Stopped"
	case StatePaused:
		return "Paused"
	case StatePlaying:
		return "Playing"
	case StateBuffering:
		return "Buffering"
	case StateError:
		return "Error"
	case StateConnecting:
		return "Connecting"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded (playing, paused or buffering).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused || s == StateBuffering
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == StatePlaying || s == StateBuffering
}
