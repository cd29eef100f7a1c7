package service

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/mediaid"
	"github.com/llehouerou/wavecast/internal/notify"
	"github.com/llehouerou/wavecast/internal/player"
)

type fixture struct {
	svc      *MusicService
	local    *player.Mock
	notifier *notify.MockNotifier
	catalog  *catalog.Catalog
	cast     *player.MockCastClient
}

func newFixture(t *testing.T, load bool) *fixture {
	t.Helper()
	cat := catalog.New(catalog.NewMockSource(
		catalog.Track{ID: "r1", Title: "Road One", Artist: "Band A", Genre: "Rock", Source: "http://media/r1.mp3"},
		catalog.Track{ID: "r2", Title: "Road Two", Artist: "Band A", Genre: "Rock", Source: "http://media/r2.mp3"},
		catalog.Track{ID: "j1", Title: "Blue", Artist: "Trio", Genre: "Jazz", Source: "http://media/j1.mp3"},
	), nil, nil)
	if load {
		require.NoError(t, cat.Load(context.Background()))
	}

	f := &fixture{
		local:    player.NewMock(),
		notifier: notify.NewMockNotifier(),
		catalog:  cat,
		cast:     player.NewMockCastClient("Kitchen"),
	}
	f.svc = New(Deps{
		Catalog:  cat,
		Local:    f.local,
		Notifier: f.notifier,
		Connect: func(_ context.Context, device string) (player.CastClient, error) {
			if device != "" && device != "Kitchen" {
				return nil, errors.New("no such device")
			}
			return f.cast, nil
		},
	}, Config{StopDelay: 30 * time.Second, DefaultDevice: "Kitchen"}, nil)
	t.Cleanup(func() { _ = f.svc.Close() })
	return f
}

func rock(id string) string { return mediaid.MustCreate(id, mediaid.ByGenre, "Rock") }

func TestNew_PublishesInitialState(t *testing.T) {
	f := newFixture(t, true)

	snap := f.svc.Snapshot()
	assert.Equal(t, player.StateNone, snap.State.State)
	assert.False(t, snap.Active)
}

func TestPlayFromMediaID_PublishesSession(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.svc.PlayFromMediaID(rock("r2")))

	snap := f.svc.Snapshot()
	assert.True(t, snap.Active)
	assert.True(t, snap.HasMetadata)
	assert.Equal(t, "r2", snap.Metadata.ID)
	assert.Equal(t, player.StatePlaying, snap.State.State)
	assert.Equal(t, "Rock songs", snap.QueueTitle)
	assert.Len(t, snap.Queue, 2)
	assert.Equal(t, int64(1), snap.State.ActiveQueueID)

	sent := f.notifier.Sent()
	require.NotEmpty(t, sent)
	assert.Equal(t, "Road Two", sent[len(sent)-1].Title)
}

func TestPause_MarksSessionInactive(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))

	f.svc.Pause()

	snap := f.svc.Snapshot()
	assert.False(t, snap.Active)
	assert.Equal(t, player.StatePaused, snap.State.State)
}

func TestDelayedStop_ReleasesIdlePlayer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))
		f.svc.Pause()

		time.Sleep(29 * time.Second)
		synctest.Wait()
		assert.Empty(t, f.local.StopCalls(), "stopped before the delay")

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Equal(t, []bool{false}, f.local.StopCalls())
		assert.Equal(t, player.StateStopped, f.svc.Snapshot().State.State)
		assert.NotEmpty(t, f.notifier.Closed(), "notification removed")
	})
}

func TestDelayedStop_CanceledByPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))
		f.svc.Pause()

		time.Sleep(10 * time.Second)
		f.svc.Play()

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, f.local.StopCalls())
		assert.True(t, f.svc.Snapshot().Active)
	})
}

func TestDelayedStop_IgnoredWhilePlaying(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))
		// a stop signal without the player actually stopping
		f.svc.OnPlaybackStop()

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, f.local.StopCalls())
	})
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))

	require.NoError(t, f.svc.HandleCommand(CmdPause))
	assert.Equal(t, 1, f.local.PauseCalls())

	err := f.svc.HandleCommand(CmdStopCasting)
	assert.ErrorIs(t, err, ErrNotCasting)

	err = f.svc.HandleCommand("CMD_REWIND")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestConnectCast_SwitchesToRemote(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))

	require.NoError(t, f.svc.ConnectCast(context.Background(), ""))

	_, remote := f.svc.Playback().(*player.Remote)
	assert.True(t, remote)
	name, ok := f.svc.Snapshot().CastDevice()
	assert.True(t, ok)
	assert.Equal(t, "Kitchen", name)
	assert.Equal(t, []bool{false}, f.local.StopCalls())

	loads := f.cast.Loads()
	require.Len(t, loads, 1)
	assert.Equal(t, "http://media/r1.mp3", loads[0].URL)
	assert.Equal(t, rock("r1"), loads[0].CustomData[player.CustomDataItemID])

	device, ok := f.svc.CastDevice()
	assert.True(t, ok)
	assert.Equal(t, "Kitchen", device)
}

func TestDisconnectCast_SwitchesBackToLocal(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))
	require.NoError(t, f.svc.ConnectCast(context.Background(), "Kitchen"))

	require.NoError(t, f.svc.DisconnectCast())

	assert.Same(t, f.local, f.svc.Playback())
	_, ok := f.svc.Snapshot().CastDevice()
	assert.False(t, ok)
	assert.False(t, f.cast.HasListener())

	assert.ErrorIs(t, f.svc.DisconnectCast(), ErrNotCasting)
}

func TestCastConnectionLost_FallsBackToLocal(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))
		require.NoError(t, f.svc.ConnectCast(context.Background(), "Kitchen"))
		f.cast.SimulateStatus(player.RemotePlaying, player.IdleReasonNone)
		require.Equal(t, player.StatePlaying, f.svc.Snapshot().State.State)

		f.cast.SetConnected(false)
		f.cast.SimulateStatus(player.RemotePlaying, player.IdleReasonNone)
		synctest.Wait()

		assert.Same(t, f.local, f.svc.Playback())
		snap := f.svc.Snapshot()
		assert.Equal(t, player.StateError, snap.State.State)
		assert.Equal(t, "Failed to reach cast device 'Kitchen': connection lost", snap.State.ErrorMessage)
		_, ok := snap.CastDevice()
		assert.False(t, ok)
		assert.False(t, f.cast.HasListener())
		_, casting := f.svc.CastDevice()
		assert.False(t, casting)

		// the idle local player is released after the stop delay
		stops := len(f.local.StopCalls())
		time.Sleep(31 * time.Second)
		synctest.Wait()
		assert.Greater(t, len(f.local.StopCalls()), stops)
	})
}

func TestConnectCast_Errors(t *testing.T) {
	f := newFixture(t, true)

	err := f.svc.ConnectCast(context.Background(), "Garage")
	require.Error(t, err)
	assert.Same(t, f.local, f.svc.Playback())

	svc := New(Deps{Catalog: f.catalog, Local: player.NewMock()}, Config{}, nil)
	defer svc.Close()
	assert.ErrorIs(t, svc.ConnectCast(context.Background(), "Kitchen"), ErrCastDisabled)
}

func TestNotificationStopCastAction(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))
	require.NoError(t, f.svc.ConnectCast(context.Background(), "Kitchen"))

	f.notifier.Invoke(1, notify.ActionStopCast)

	_, casting := f.svc.CastDevice()
	assert.False(t, casting)
	assert.Same(t, f.local, f.svc.Playback())
}

func TestChildren_WaitsForCatalog(t *testing.T) {
	f := newFixture(t, false)

	items, err := f.svc.Children(context.Background(), mediaid.MustCreate("", mediaid.ByGenre))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Jazz", items[0].Title)
	assert.Equal(t, "Rock", items[1].Title)
}

func TestChildren_EmptyRootAndUnknown(t *testing.T) {
	f := newFixture(t, true)

	items, err := f.svc.Children(context.Background(), mediaid.EmptyRoot)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)

	items, err = f.svc.Children(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMetadataRetrieveError_PublishesError(t *testing.T) {
	f := newFixture(t, true)

	queueEvents{f.svc}.OnMetadataRetrieveError()

	st := f.svc.Snapshot().State
	assert.Equal(t, player.StateError, st.State)
	assert.Equal(t, MsgMetadataError, st.ErrorMessage)
}

func TestHandleAudioNoisy_IgnoresBackendsWithoutSupport(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))

	f.svc.HandleAudioNoisy()

	assert.Equal(t, 0, f.local.PauseCalls())
}

func TestClose_Idempotent(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.svc.PlayFromMediaID(rock("r1")))

	require.NoError(t, f.svc.Close())
	require.NoError(t, f.svc.Close())

	assert.False(t, f.svc.Snapshot().Active)
}

func TestLoadCatalog_PublishesLoadError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := catalog.NewMockSource()
		src.SetError(errors.New("offline"))
		svc := New(Deps{Catalog: catalog.New(src, nil, nil), Local: player.NewMock()}, Config{}, nil)
		defer svc.Close()

		svc.LoadCatalog(context.Background())
		synctest.Wait()

		st := svc.Snapshot().State
		assert.Equal(t, player.StateError, st.State)
		assert.Equal(t, "Failed to load music catalog: fetch catalog: offline", st.ErrorMessage)
	})
}

func TestLoadCatalog_CanceledLoadIsSilent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := catalog.NewMockSource()
		src.SetError(errors.New("offline"))
		svc := New(Deps{Catalog: catalog.New(src, nil, nil), Local: player.NewMock()}, Config{}, nil)
		defer svc.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc.LoadCatalog(ctx)
		synctest.Wait()

		assert.NotEqual(t, player.StateError, svc.Snapshot().State.State)
	})
}

func TestWatch_LogsBackendChanges(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		cast := player.NewMockCastClient("Kitchen")
		svc := New(Deps{
			Catalog: catalog.New(catalog.NewMockSource(), nil, nil),
			Local:   player.NewMock(),
			Connect: func(context.Context, string) (player.CastClient, error) { return cast, nil },
		}, Config{}, zap.New(core))
		defer svc.Close()

		require.NoError(t, svc.ConnectCast(context.Background(), ""))
		synctest.Wait()
		require.NoError(t, svc.DisconnectCast())
		synctest.Wait()

		remote := logs.FilterMessage("playing on cast device").All()
		require.Len(t, remote, 1)
		assert.Equal(t, "Kitchen", remote[0].ContextMap()["device"])
		assert.Equal(t, 1, logs.FilterMessage("playing locally").Len())
	})
}

type recordingFocus struct{ calls []string }

func (f *recordingFocus) Interrupt(canDuck bool) {
	if canDuck {
		f.calls = append(f.calls, "duck")
	} else {
		f.calls = append(f.calls, "interrupt")
	}
}
func (f *recordingFocus) Resume() { f.calls = append(f.calls, "resume") }
func (f *recordingFocus) Revoke() { f.calls = append(f.calls, "revoke") }

func TestHandleCommand_FocusChanges(t *testing.T) {
	focus := &recordingFocus{}
	svc := New(Deps{
		Catalog: catalog.New(catalog.NewMockSource(), nil, nil),
		Local:   player.NewMock(),
		Focus:   focus,
	}, Config{}, nil)
	defer svc.Close()

	for _, cmd := range []string{CmdDuck, CmdFocusGain, CmdInterrupt, CmdFocusLoss} {
		require.NoError(t, svc.HandleCommand(cmd), cmd)
	}
	assert.Equal(t, []string{"duck", "resume", "interrupt", "revoke"}, focus.calls)
}

func TestHandleCommand_FocusUnavailable(t *testing.T) {
	f := newFixture(t, true)
	assert.ErrorIs(t, f.svc.HandleCommand(CmdDuck), ErrFocusUnavailable)
}
