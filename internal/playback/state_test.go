package playback

import (
	"testing"

	"github.com/llehouerou/wavecast/internal/player"
)

func TestAction_Has(t *testing.T) {
	a := ActionPlay | ActionSkipToNext
	if !a.Has(ActionPlay) {
		t.Error("Has(Play) = false")
	}
	if a.Has(ActionPause) {
		t.Error("Has(Pause) = true")
	}
	if a.Has(ActionPlay | ActionPause) {
		t.Error("Has(Play|Pause) = true")
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		a    Action
		want string
	}{
		{0, ""},
		{ActionPlay, "play"},
		{ActionSkipToNext | ActionPause, "pause|next"},
		{baseAvailable | ActionPlay, "play|previous|next|play_pause|play_from_media_id|play_from_search"},
	}

	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("Action(%d).String() = %q, want %q", uint32(tt.a), got, tt.want)
		}
	}
}

func TestPlaybackState_Favorite(t *testing.T) {
	st := PlaybackState{State: player.StatePlaying}
	if _, ok := st.Favorite(); ok {
		t.Error("Favorite() ok without custom action")
	}

	st.CustomActions = []CustomAction{{Action: CustomActionThumbsUp, Favorite: true}}
	if fav, ok := st.Favorite(); !ok || !fav {
		t.Errorf("Favorite() = %v, %v, want true, true", fav, ok)
	}
	if !st.IsPlaying() || st.HasError() {
		t.Errorf("IsPlaying() = %v, HasError() = %v", st.IsPlaying(), st.HasError())
	}
}
