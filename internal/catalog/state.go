package catalog

// State is the catalog load state.
type State int

const (
	StateNotInitialized State = iota
	StateInitializing
	StateInitialized
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "NotInitialized"
	case StateInitializing:
		return "Initializing"
	case StateInitialized:
		return "Initialized"
	default:
		return "Unknown"
	}
}

// Field selects which track attribute Search matches against.
type Field int

const (
	FieldTitle Field = iota
	FieldAlbum
	FieldArtist
	FieldGenre
)

func (f Field) value(t *Track) string {
	switch f {
	case FieldTitle:
		return t.Title
	case FieldAlbum:
		return t.Album
	case FieldArtist:
		return t.Artist
	case FieldGenre:
		return t.Genre
	default:
		return ""
	}
}
