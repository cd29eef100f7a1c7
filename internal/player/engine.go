package player

import "time"

// EngineState is the state of a rendering engine.
type EngineState int

const (
	EngineIdle EngineState = iota
	EngineBuffering
	EngineReady
	EngineEnded
)

// String returns the engine state name.
func (s EngineState) String() string {
	switch s {
	case EngineIdle:
		return "Idle"
	case EngineBuffering:
		return "Buffering"
	case EngineReady:
		return "Ready"
	case EngineEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// EngineListener receives engine events. Engines must not hold their own
// locks while calling it.
type EngineListener interface {
	OnEngineStateChanged(playWhenReady bool, state EngineState)
	OnEngineError(err error)
}

// Engine renders an audio source.
//
// Prepare starts loading source and returns once loading is under way;
// progress is reported through the listener. A change of play-when-ready
// is also reported as a state change.
type Engine interface {
	Prepare(source string) error
	SetPlayWhenReady(play bool)
	PlayWhenReady() bool
	State() EngineState
	Position() time.Duration
	SeekTo(pos time.Duration)
	SetVolume(level float64)
	SetListener(l EngineListener)
	Release()
}

// EngineFactory creates a fresh engine.
type EngineFactory func() Engine
