// internal/player/interface.go
package player

import (
	"time"

	"github.com/llehouerou/wavecast/internal/queue"
)

// Playback is the transport contract shared by the local and remote
// backends.
type Playback interface {
	// Start prepares the backend to receive commands.
	Start()
	// Stop halts playback and releases resources. When notify is set the
	// callback receives the resulting state.
	Stop(notify bool)
	SetState(s State)
	State() State
	IsConnected() bool
	IsPlaying() bool
	CurrentStreamPosition() time.Duration
	UpdateLastKnownStreamPosition()
	// SetCurrentStreamPosition sets the position the next load starts at.
	SetCurrentStreamPosition(pos time.Duration)
	Play(item queue.Item)
	Pause()
	SeekTo(pos time.Duration)
	SetCallback(cb Callback)
	SetCurrentMediaID(mediaID string)
	CurrentMediaID() string
}

// Callback receives backend events.
type Callback interface {
	// OnCompletion is called when the current track ends.
	OnCompletion()
	// OnPlaybackStatusChanged is called whenever the backend state changes.
	OnPlaybackStatusChanged(state State)
	// OnError reports a backend failure with a human-readable message.
	OnError(msg string)
	// SetCurrentMediaID is called when the backend changed track on its
	// own, for instance another device took over a cast session.
	SetCurrentMediaID(mediaID string)
}

type nopCallback struct{}

func (nopCallback) OnCompletion()                 {}
func (nopCallback) OnPlaybackStatusChanged(State) {}
func (nopCallback) OnError(string)                {}
func (nopCallback) SetCurrentMediaID(string)      {}

// Verify implementations at compile time.
var (
	_ Playback = (*Local)(nil)
	_ Playback = (*Remote)(nil)
	_ Playback = (*Mock)(nil)
)
