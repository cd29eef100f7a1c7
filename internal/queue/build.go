package queue

import (
	"fmt"
	"strings"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/mediaid"
)

// RandomQueueSize is the length of queues built by RandomQueue.
const RandomQueueSize = 10

const (
	titleSearchResults = "Search results"
	titleRandom        = "Random music"
	randomCategory     = "random"
)

// GenreTitle is the queue title used for a genre selection.
func GenreTitle(genre string) string {
	return fmt.Sprintf("%s songs", genre)
}

// PlayingQueue builds the queue a playable media id belongs to. It returns
// nil when the category path is not a known two-level path.
func PlayingQueue(cat *catalog.Catalog, mediaID string) ([]Item, string) {
	h := mediaid.Hierarchy(mediaID)
	if len(h) != 2 {
		return nil, ""
	}

	kind, value := h[0], h[1]
	var tracks []catalog.Track
	var title string
	switch kind {
	case mediaid.ByGenre:
		tracks = cat.TracksByGenre(value)
		title = GenreTitle(value)
	case mediaid.BySearch:
		tracks = cat.SearchByTitle(value)
		title = titleSearchResults
	default:
		return nil, ""
	}
	return fromTracks(tracks, kind, value), title
}

// PlayingQueueFromSearch builds a queue for a search request. Structured
// searches that find nothing fall back to a title search on the query.
func PlayingQueueFromSearch(cat *catalog.Catalog, params SearchParams) []Item {
	if params.Focus == FocusAny {
		return RandomQueue(cat)
	}

	var tracks []catalog.Track
	switch params.Focus {
	case FocusAlbum:
		tracks = cat.SearchByAlbum(params.Album)
	case FocusGenre:
		tracks = cat.TracksByGenre(params.Genre)
	case FocusArtist:
		tracks = cat.SearchByArtist(params.Artist)
	case FocusSong:
		tracks = cat.SearchByTitle(params.Song)
	case FocusAny, FocusUnstructured:
	}

	if len(tracks) == 0 {
		tracks = cat.SearchByTitle(params.Query)
	}
	return fromTracks(tracks, mediaid.BySearch, params.Query)
}

// RandomQueue picks up to RandomQueueSize random tracks.
func RandomQueue(cat *catalog.Catalog) []Item {
	tracks := cat.Shuffled()
	if len(tracks) > RandomQueueSize {
		tracks = tracks[:RandomQueueSize]
	}
	return fromTracks(tracks, mediaid.BySearch, randomCategory)
}

func fromTracks(tracks []catalog.Track, categories ...string) []Item {
	cats := make([]string, len(categories))
	for i, c := range categories {
		cats[i] = safeCategory(c)
	}
	items := make([]Item, 0, len(tracks))
	for i, t := range tracks {
		items = append(items, Item{
			QueueID: int64(i),
			MediaID: mediaid.MustCreate(t.ID, cats...),
			Track:   t,
		})
	}
	return items
}

// safeCategory turns free text into a valid category segment.
func safeCategory(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == mediaid.CategorySeparator || r == mediaid.LeafSeparator {
			return ' '
		}
		return r
	}, s)
	if strings.TrimSpace(s) == "" {
		return "_"
	}
	return s
}
