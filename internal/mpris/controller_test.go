package mpris

import (
	"testing"
	"time"

	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/queue"
)

type fakeController struct {
	backend *player.Mock
	calls   []string
	seeks   []time.Duration
}

func (c *fakeController) Play()                     { c.calls = append(c.calls, "play") }
func (c *fakeController) Pause()                    { c.calls = append(c.calls, "pause") }
func (c *fakeController) Stop()                     { c.calls = append(c.calls, "stop") }
func (c *fakeController) SkipToNext()               { c.calls = append(c.calls, "next") }
func (c *fakeController) SkipToPrevious()           { c.calls = append(c.calls, "previous") }
func (c *fakeController) SeekTo(pos time.Duration)  { c.seeks = append(c.seeks, pos) }
func (c *fakeController) Playback() player.Playback { return c.backend }

func TestStatusOf(t *testing.T) {
	tests := []struct {
		state player.State
		want  status
	}{
		{player.StatePlaying, statusPlaying},
		{player.StateBuffering, statusPlaying},
		{player.StateConnecting, statusPlaying},
		{player.StatePaused, statusPaused},
		{player.StateStopped, statusStopped},
		{player.StateNone, statusStopped},
		{player.StateError, statusStopped},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := statusOf(tt.state); got != tt.want {
				t.Errorf("statusOf(%v) = %d, want %d", tt.state, got, tt.want)
			}
		})
	}
}

func TestTogglePlayback(t *testing.T) {
	c := &fakeController{backend: player.NewMock()}

	togglePlayback(c)
	c.backend.Play(queue.Item{MediaID: "x"})
	togglePlayback(c)

	if len(c.calls) != 2 || c.calls[0] != "play" || c.calls[1] != "pause" {
		t.Errorf("calls = %v, want [play pause]", c.calls)
	}
}

func TestSeekBy(t *testing.T) {
	c := &fakeController{backend: player.NewMock()}
	c.backend.SetPosition(10 * time.Second)

	seekBy(c, 5*time.Second)
	seekBy(c, -time.Minute)

	if len(c.seeks) != 2 || c.seeks[0] != 15*time.Second || c.seeks[1] != 0 {
		t.Errorf("seeks = %v, want [15s 0s]", c.seeks)
	}
}
