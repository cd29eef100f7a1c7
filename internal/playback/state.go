// internal/playback/state.go
package playback

import (
	"strings"
	"time"

	"github.com/llehouerou/wavecast/internal/player"
)

// PositionUnknown is reported when the backend cannot tell its position.
const PositionUnknown time.Duration = -1

// NoActiveQueueID is reported when the queue has no current item.
const NoActiveQueueID int64 = -1

// Action is a bit set of transport commands a controller may send.
type Action uint32

const (
	ActionStop Action = 1 << iota
	ActionPause
	ActionPlay
	ActionSkipToPrevious
	ActionSkipToNext
	ActionSeekTo
	ActionPlayPause
	ActionPlayFromMediaID
	ActionPlayFromSearch
)

var actionNames = []struct {
	a    Action
	name string
}{
	{ActionStop, "stop"},
	{ActionPause, "pause"},
	{ActionPlay, "play"},
	{ActionSkipToPrevious, "previous"},
	{ActionSkipToNext, "next"},
	{ActionSeekTo, "seek"},
	{ActionPlayPause, "play_pause"},
	{ActionPlayFromMediaID, "play_from_media_id"},
	{ActionPlayFromSearch, "play_from_search"},
}

// Has reports whether every action of other is set.
func (a Action) Has(other Action) bool { return a&other == other }

// Names returns the names of the set actions in declaration order.
func (a Action) Names() []string {
	var names []string
	for _, n := range actionNames {
		if a.Has(n.a) {
			names = append(names, n.name)
		}
	}
	return names
}

func (a Action) String() string { return strings.Join(a.Names(), "|") }

// CustomActionThumbsUp toggles the favorite flag of the current track.
const CustomActionThumbsUp = "thumbs_up"

// CustomAction is an application specific command offered to controllers.
type CustomAction struct {
	Action string
	Name   string
	// Favorite is the current flag for CustomActionThumbsUp.
	Favorite bool
}

// PlaybackState is the consolidated state published to controllers.
type PlaybackState struct {
	State         player.State
	Position      time.Duration
	Actions       Action
	CustomActions []CustomAction
	ErrorMessage  string
	ActiveQueueID int64
	UpdatedAt     time.Time
}

// HasError reports whether the state carries an error message.
func (s PlaybackState) HasError() bool { return s.ErrorMessage != "" }

// IsPlaying reports whether the state is Playing.
func (s PlaybackState) IsPlaying() bool { return s.State == player.StatePlaying }

// Favorite returns the favorite flag published with the thumbs up action.
func (s PlaybackState) Favorite() (favorite, ok bool) {
	for _, c := range s.CustomActions {
		if c.Action == CustomActionThumbsUp {
			return c.Favorite, true
		}
	}
	return false, false
}
