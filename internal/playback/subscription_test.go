package playback

import (
	"testing"
	"testing/synctest"

	"github.com/llehouerou/wavecast/internal/player"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendState(StateChange{Current: PlaybackState{State: player.StatePlaying}})
		sub.sendError(ErrorEvent{Message: "boom"})
		sub.sendBackend(BackendChange{Remote: true, DeviceName: "Kitchen"})

		e := <-sub.StateChanged
		if e.Current.State != player.StatePlaying {
			t.Errorf("StateChanged.Current.State = %v, want Playing", e.Current.State)
		}

		errEv := <-sub.Error
		if errEv.Message != "boom" {
			t.Errorf("Error.Message = %q, want boom", errEv.Message)
		}

		b := <-sub.BackendChanged
		if !b.Remote || b.DeviceName != "Kitchen" {
			t.Errorf("BackendChanged = %+v, want remote Kitchen", b)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.sendState(StateChange{})
	}

	// Should not block or panic - count what we got
	count := 0
	for {
		select {
		case <-sub.StateChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}
