package player

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemoteFixture(t *testing.T) (*Remote, *MockCastClient, *recordingCallback) {
	t.Helper()
	client := NewMockCastClient("Living Room")
	r := NewRemote(client, testCatalog(t), nil)
	cb := &recordingCallback{}
	r.SetCallback(cb)
	r.Start()
	return r, client, cb
}

func TestRemote_StartRegistersListener(t *testing.T) {
	r, client, _ := newRemoteFixture(t)
	assert.True(t, client.HasListener())
	assert.Equal(t, "Living Room", r.DeviceName())

	r.Stop(false)
	assert.False(t, client.HasListener())
	assert.Equal(t, StateStopped, r.State())
}

func TestRemote_PlayLoadsMedia(t *testing.T) {
	r, client, cb := newRemoteFixture(t)
	item := rockItem("r1")

	r.Play(item)

	loads := client.Loads()
	require.Len(t, loads, 1)
	assert.Equal(t, "http://media/rock/road one.mp3", loads[0].URL)
	assert.Equal(t, MimeTypeAudioMPEG, loads[0].ContentType)
	assert.Equal(t, "Road One", loads[0].Title)
	assert.Equal(t, item.MediaID, loads[0].CustomData[CustomDataItemID])
	assert.Equal(t, []bool{true}, client.AutoPlays())
	assert.Equal(t, StateBuffering, r.State())
	assert.Equal(t, []State{StateBuffering}, cb.states)
	assert.Equal(t, item.MediaID, r.CurrentMediaID())
}

func TestRemote_PlayLoadError(t *testing.T) {
	r, client, cb := newRemoteFixture(t)
	client.SetLoadError(errors.New("device busy"))

	r.Play(rockItem("r1"))

	require.Len(t, cb.errors, 1)
	assert.Contains(t, cb.errors[0], "device busy")
	assert.Empty(t, cb.states)
}

func TestRemote_PlayUnknownTrack(t *testing.T) {
	r, client, cb := newRemoteFixture(t)
	r.Play(rockItem("zz"))
	assert.Empty(t, client.Loads())
	assert.Len(t, cb.errors, 1)
}

func TestRemote_StatusUpdates(t *testing.T) {
	r, client, cb := newRemoteFixture(t)
	r.Play(rockItem("r1"))

	client.SimulateStatus(RemotePlaying, IdleReasonNone)
	assert.Equal(t, StatePlaying, r.State())
	assert.True(t, r.IsPlaying())

	client.SimulateStatus(RemotePaused, IdleReasonNone)
	assert.Equal(t, StatePaused, r.State())

	assert.Equal(t, []State{StateBuffering, StatePlaying, StatePaused}, cb.states)
	assert.Empty(t, cb.mediaIDs)
}

func TestRemote_IdleFinishedCompletes(t *testing.T) {
	_, client, cb := newRemoteFixture(t)

	client.SimulateStatus(RemoteIdle, IdleReasonCanceled)
	assert.Equal(t, 0, cb.completions)

	client.SimulateStatus(RemoteIdle, IdleReasonFinished)
	assert.Equal(t, 1, cb.completions)
}

func TestRemote_AdoptsRemoteItem(t *testing.T) {
	r, client, cb := newRemoteFixture(t)
	r.Play(rockItem("r1"))
	other := rockItem("r2").MediaID

	client.SimulateRemoteItem(other)

	assert.Equal(t, other, r.CurrentMediaID())
	assert.Equal(t, []string{other}, cb.mediaIDs)

	// Same id again is not reported twice.
	client.SimulateStatus(RemotePlaying, IdleReasonNone)
	assert.Equal(t, []string{other}, cb.mediaIDs)
}

func TestRemote_PauseWithSession(t *testing.T) {
	r, client, _ := newRemoteFixture(t)
	r.Play(rockItem("r1"))

	r.Pause()

	assert.Equal(t, 1, client.Pauses())
	assert.Len(t, client.Loads(), 1)
}

func TestRemote_PauseWithoutSessionLoadsPaused(t *testing.T) {
	r, client, _ := newRemoteFixture(t)
	r.SetCurrentMediaID(rockItem("r2").MediaID)

	r.Pause()

	assert.Equal(t, 0, client.Pauses())
	assert.Equal(t, []bool{false}, client.AutoPlays())
}

func TestRemote_SeekWithoutMediaID(t *testing.T) {
	r, client, cb := newRemoteFixture(t)

	r.SeekTo(10 * time.Second)

	assert.Empty(t, client.Seeks())
	assert.Equal(t, []string{"seek requires a current media id"}, cb.errors)
}

func TestRemote_Seek(t *testing.T) {
	r, client, _ := newRemoteFixture(t)
	r.Play(rockItem("r1"))

	r.SeekTo(42 * time.Second)

	assert.Equal(t, []time.Duration{42 * time.Second}, client.Seeks())
	assert.Equal(t, 42*time.Second, r.CurrentStreamPosition())
}

func TestRemote_PositionWhenDisconnected(t *testing.T) {
	r, client, _ := newRemoteFixture(t)
	r.Play(rockItem("r1"))
	r.SeekTo(7 * time.Second)
	r.UpdateLastKnownStreamPosition()

	client.SetConnected(false)
	client.SimulateStatus(RemotePlaying, IdleReasonNone)

	assert.False(t, r.IsConnected())
	assert.False(t, r.IsPlaying())
	assert.Equal(t, 7*time.Second, r.CurrentStreamPosition())
}

func TestRemote_ConnectionLost(t *testing.T) {
	r, client, cb := newRemoteFixture(t)
	lost := 0
	r.OnConnectionLost(func() { lost++ })
	r.Play(rockItem("r1"))
	client.SimulateStatus(RemotePlaying, IdleReasonNone)

	client.SetConnected(false)
	client.SimulateStatus(RemotePlaying, IdleReasonNone)

	assert.Equal(t, StateError, r.State())
	require.Len(t, cb.errors, 1)
	assert.Equal(t, "Failed to reach cast device 'Living Room': connection lost", cb.errors[0])
	assert.Equal(t, 1, lost)
	assert.Equal(t, []State{StateBuffering, StatePlaying}, cb.states)

	// later polls do not report the loss again
	client.SimulateStatus(RemoteIdle, IdleReasonNone)
	assert.Len(t, cb.errors, 1)
	assert.Equal(t, 1, lost)
}

func TestRemote_StopNotifies(t *testing.T) {
	r, _, cb := newRemoteFixture(t)
	r.Stop(true)
	assert.Equal(t, []State{StateStopped}, cb.states)
}

func TestRemote_LoadStartsAtHandedOverPosition(t *testing.T) {
	r, client, _ := newRemoteFixture(t)
	item := rockItem("r2")
	r.SetCurrentMediaID(item.MediaID)
	r.SetCurrentStreamPosition(95 * time.Second)

	r.Play(item)

	assert.Equal(t, 95*time.Second, client.ApproximatePosition())
}
