package httpapi

import (
	"math"
	"time"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/session"
)

type mediaItemJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	IconURL   string `json:"iconUrl,omitempty"`
	Browsable bool   `json:"browsable"`
	Playable  bool   `json:"playable"`
}

type trackJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Genre       string `json:"genre"`
	DurationMs  int64  `json:"durationMs"`
	ArtURL      string `json:"artUrl,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	TotalTracks int    `json:"totalTracks,omitempty"`
}

type stateJSON struct {
	Active        bool       `json:"active"`
	State         string     `json:"state"`
	PositionMs    int64      `json:"positionMs"`
	Actions       []string   `json:"actions"`
	Favorite      bool       `json:"favorite"`
	Error         string     `json:"error,omitempty"`
	ActiveQueueID int64      `json:"activeQueueId"`
	Track         *trackJSON `json:"track,omitempty"`
	QueueTitle    string     `json:"queueTitle,omitempty"`
	CastDevice    string     `json:"castDevice,omitempty"`
}

type queueItemJSON struct {
	QueueID int64     `json:"queueId"`
	MediaID string    `json:"mediaId"`
	Track   trackJSON `json:"track"`
}

type queueJSON struct {
	Title         string          `json:"title"`
	ActiveQueueID int64           `json:"activeQueueId"`
	Items         []queueItemJSON `json:"items"`
}

type playRequest struct {
	MediaID string `json:"mediaId" binding:"required"`
}

type searchRequest struct {
	Query  string            `json:"query"`
	Extras map[string]string `json:"extras"`
}

// maxPositionMs keeps the position representable as a time.Duration.
const maxPositionMs = math.MaxInt64 / int64(time.Millisecond)

type seekRequest struct {
	PositionMs *int64 `json:"positionMs" binding:"required,min=0"`
}

type castRequest struct {
	Device string `json:"device"`
}

func toMediaItems(items []catalog.MediaItem) []mediaItemJSON {
	out := make([]mediaItemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, mediaItemJSON{
			ID:        it.ID,
			Title:     it.Title,
			Subtitle:  it.Subtitle,
			IconURL:   it.IconURL,
			Browsable: it.Browsable,
			Playable:  it.Playable,
		})
	}
	return out
}

func toTrack(t catalog.Track) trackJSON {
	return trackJSON{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		Genre:       t.Genre,
		DurationMs:  t.Duration.Milliseconds(),
		ArtURL:      t.ArtURL,
		TrackNumber: t.TrackNumber,
		TotalTracks: t.TotalTracks,
	}
}

func toState(snap session.Snapshot) stateJSON {
	st := snap.State
	out := stateJSON{
		Active:        snap.Active,
		State:         st.State.String(),
		PositionMs:    -1,
		Actions:       st.Actions.Names(),
		Error:         st.ErrorMessage,
		ActiveQueueID: st.ActiveQueueID,
		QueueTitle:    snap.QueueTitle,
	}
	out.Favorite, _ = st.Favorite()
	if out.Actions == nil {
		out.Actions = []string{}
	}
	if st.Position != playback.PositionUnknown {
		out.PositionMs = st.Position.Milliseconds()
	}
	if snap.HasMetadata {
		t := toTrack(snap.Metadata)
		out.Track = &t
	}
	if name, ok := snap.CastDevice(); ok {
		out.CastDevice = name
	}
	return out
}

func toQueue(snap session.Snapshot) queueJSON {
	out := queueJSON{
		Title:         snap.QueueTitle,
		ActiveQueueID: snap.State.ActiveQueueID,
		Items:         make([]queueItemJSON, 0, len(snap.Queue)),
	}
	for _, it := range snap.Queue {
		out.Items = append(out.Items, queueItemJSON{
			QueueID: it.QueueID,
			MediaID: it.MediaID,
			Track:   toTrack(it.Track),
		})
	}
	return out
}
