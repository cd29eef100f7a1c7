package queue

// Extras keys understood by ParseSearchParams.
const (
	ExtraFocus  = "focus"
	ExtraGenre  = "genre"
	ExtraArtist = "artist"
	ExtraAlbum  = "album"
	ExtraTitle  = "title"
)

// Focus values carried by ExtraFocus.
const (
	FocusValueGenre  = "genre"
	FocusValueArtist = "artist"
	FocusValueAlbum  = "album"
	FocusValueSong   = "song"
)

// Focus is what a search request is about.
type Focus int

const (
	FocusAny Focus = iota
	FocusUnstructured
	FocusGenre
	FocusArtist
	FocusAlbum
	FocusSong
)

// String returns the focus name.
func (f Focus) String() string {
	switch f {
	case FocusAny:
		return "Any"
	case FocusUnstructured:
		return "Unstructured"
	case FocusGenre:
		return "Genre"
	case FocusArtist:
		return "Artist"
	case FocusAlbum:
		return "Album"
	case FocusSong:
		return "Song"
	default:
		return "Unknown"
	}
}

// SearchParams is a parsed voice-style search request.
type SearchParams struct {
	Query  string
	Focus  Focus
	Genre  string
	Artist string
	Album  string
	Song   string
}

// ParseSearchParams interprets query and optional structured extras.
//
// An empty query means "play anything". Without extras the query is
// unstructured. A genre focus without a genre extra uses the query as
// the genre.
func ParseSearchParams(query string, extras map[string]string) SearchParams {
	p := SearchParams{Query: query}

	switch {
	case query == "":
		p.Focus = FocusAny
	case extras == nil:
		p.Focus = FocusUnstructured
	default:
		switch extras[ExtraFocus] {
		case FocusValueGenre:
			p.Focus = FocusGenre
			p.Genre = extras[ExtraGenre]
			if p.Genre == "" {
				p.Genre = query
			}
		case FocusValueArtist:
			p.Focus = FocusArtist
			p.Artist = extras[ExtraArtist]
		case FocusValueAlbum:
			p.Focus = FocusAlbum
			p.Album = extras[ExtraAlbum]
			p.Artist = extras[ExtraArtist]
		case FocusValueSong:
			p.Focus = FocusSong
			p.Song = extras[ExtraTitle]
			p.Album = extras[ExtraAlbum]
			p.Artist = extras[ExtraArtist]
		default:
			p.Focus = FocusUnstructured
		}
	}
	return p
}
