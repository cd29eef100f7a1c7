// internal/catalog/track.go
package catalog

import (
	"image"
	"time"
)

// Track is a playable catalog entry.
//
// Tracks are handed out by value. Only the art fields change after load,
// through Catalog.UpdateArt.
type Track struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	Genre       string
	Duration    time.Duration
	Source      string
	ArtURL      string
	TrackNumber int
	TotalTracks int

	FullArt  image.Image
	ThumbArt image.Image
}

// HasArt reports whether decoded art has been attached to the track.
func (t Track) HasArt() bool {
	return t.FullArt != nil
}

// MediaItem is a node returned when browsing the catalog.
type MediaItem struct {
	ID        string
	Title     string
	Subtitle  string
	IconURL   string
	Browsable bool
	Playable  bool
}
