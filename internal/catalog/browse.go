package catalog

import (
	"fmt"

	"github.com/llehouerou/wavecast/internal/mediaid"
)

// Children lists the nodes below a browsable media id:
//
//	__ROOT__             -> the "by genre" node
//	__BY_GENRE__/        -> one node per genre
//	__BY_GENRE__/<genre>/ -> the playable tracks of that genre
//
// Unknown ids and an uninitialized catalog yield no children.
func (c *Catalog) Children(mediaID string) []MediaItem {
	if !c.IsInitialized() {
		return nil
	}

	if mediaID == mediaid.Root {
		return []MediaItem{{
			ID:        mediaid.MustCreate("", mediaid.ByGenre),
			Title:     "Genres",
			Subtitle:  "Songs by genre",
			Browsable: true,
		}}
	}

	h := mediaid.Hierarchy(mediaID)
	if !mediaid.IsBrowsable(mediaID) || len(h) == 0 || h[0] != mediaid.ByGenre {
		return nil
	}

	switch len(h) {
	case 1:
		genres := c.Genres()
		items := make([]MediaItem, 0, len(genres))
		for _, g := range genres {
			id, err := mediaid.Create("", mediaid.ByGenre, g)
			if err != nil {
				c.logger.Debug("skip genre with separator")
				continue
			}
			items = append(items, MediaItem{
				ID:        id,
				Title:     g,
				Subtitle:  fmt.Sprintf("%s songs", g),
				Browsable: true,
			})
		}
		return items
	case 2:
		tracks := c.TracksByGenre(h[1])
		items := make([]MediaItem, 0, len(tracks))
		for _, t := range tracks {
			id, err := mediaid.Create(t.ID, mediaid.ByGenre, h[1])
			if err != nil {
				continue
			}
			items = append(items, MediaItem{
				ID:       id,
				Title:    t.Title,
				Subtitle: t.Artist,
				IconURL:  t.ArtURL,
				Playable: true,
			})
		}
		return items
	default:
		return nil
	}
}
