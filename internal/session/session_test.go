package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/queue"
)

func TestNew_Defaults(t *testing.T) {
	s := New(nil)
	snap := s.Snapshot()

	assert.False(t, snap.Active)
	assert.False(t, snap.HasMetadata)
	assert.Equal(t, playback.PositionUnknown, snap.State.Position)
	assert.Empty(t, snap.Extras)
	_, ok := snap.CastDevice()
	assert.False(t, ok)
}

func TestSession_ObserversReceiveSnapshots(t *testing.T) {
	s := New(nil)
	var got []Snapshot
	cancel := s.Observe(func(snap Snapshot) { got = append(got, snap) })

	s.SetActive(true)
	s.SetMetadata(catalog.Track{ID: "r1", Title: "Road One"})
	s.SetPlaybackState(playback.PlaybackState{State: player.StatePlaying})
	cancel()
	s.SetActive(false)

	require.Len(t, got, 3)
	assert.True(t, got[0].Active)
	assert.False(t, got[0].HasMetadata)
	assert.Equal(t, "Road One", got[1].Metadata.Title)
	assert.Equal(t, player.StatePlaying, got[2].State.State)
	assert.False(t, s.IsActive())
}

func TestSession_ObserverCanReadSession(t *testing.T) {
	s := New(nil)
	var active bool
	s.Observe(func(Snapshot) { active = s.IsActive() })

	s.SetActive(true)

	assert.True(t, active)
}

func TestSession_CastExtra(t *testing.T) {
	s := New(nil)

	s.SetExtra(ExtraConnectedCast, "Living Room")
	name, ok := s.Snapshot().CastDevice()
	assert.True(t, ok)
	assert.Equal(t, "Living Room", name)

	s.SetExtra(ExtraConnectedCast, "")
	_, ok = s.Extra(ExtraConnectedCast)
	assert.False(t, ok)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	s := New(nil)
	items := []queue.Item{{QueueID: 0, MediaID: "a"}, {QueueID: 1, MediaID: "b"}}
	s.SetQueue("Rock songs", items)
	s.SetExtra("k", "v")

	snap := s.Snapshot()
	snap.Queue[0].MediaID = "changed"
	snap.Extras["k"] = "changed"
	items[1].MediaID = "changed"

	again := s.Snapshot()
	assert.Equal(t, "Rock songs", again.QueueTitle)
	assert.Equal(t, "a", again.Queue[0].MediaID)
	assert.Equal(t, "b", again.Queue[1].MediaID)
	assert.Equal(t, "v", again.Extras["k"])
}

func TestSession_ClearMetadata(t *testing.T) {
	s := New(nil)
	s.SetMetadata(catalog.Track{ID: "x"})
	s.ClearMetadata()

	snap := s.Snapshot()
	assert.False(t, snap.HasMetadata)
	assert.Empty(t, snap.Metadata.ID)
}
