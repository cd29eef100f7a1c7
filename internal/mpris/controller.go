package mpris

import (
	"time"

	"github.com/llehouerou/wavecast/internal/player"
)

// Controller is the transport surface driven by MPRIS clients.
type Controller interface {
	Play()
	Pause()
	Stop()
	SkipToNext()
	SkipToPrevious()
	SeekTo(pos time.Duration)
	Playback() player.Playback
}

type status int

const (
	statusStopped status = iota
	statusPlaying
	statusPaused
)

// statusOf folds a backend state into an MPRIS playback status. A track
// being fetched counts as playing.
func statusOf(s player.State) status {
	switch s {
	case player.StatePlaying, player.StateBuffering, player.StateConnecting:
		return statusPlaying
	case player.StatePaused:
		return statusPaused
	default:
		return statusStopped
	}
}

func togglePlayback(c Controller) {
	if c.Playback().IsPlaying() {
		c.Pause()
		return
	}
	c.Play()
}

// seekBy moves the position by offset, never before the start.
func seekBy(c Controller, offset time.Duration) {
	pos := c.Playback().CurrentStreamPosition() + offset
	c.SeekTo(max(pos, 0))
}
