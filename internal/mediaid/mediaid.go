// Package mediaid builds and decodes hierarchy-aware media ids.
//
// A browsable node id is a sequence of category segments each followed by
// '/', for example "__BY_GENRE__/Rock/". A playable id appends the leaf
// separator and the track id: "__BY_GENRE__/Rock/|track42". The category
// path is kept in playable ids so that the same track reached from two
// browse paths yields two distinct ids, and therefore two distinct queues.
package mediaid

import (
	"errors"
	"strings"
)

// Well-known root and category segments.
const (
	EmptyRoot = "__EMPTY_ROOT__"
	Root      = "__ROOT__"
	ByGenre   = "__BY_GENRE__"
	BySearch  = "__BY_SEARCH__"
)

const (
	CategorySeparator = '/'
	LeafSeparator     = '|'
)

// ErrInvalidCategory is returned when a category segment contains a separator.
var ErrInvalidCategory = errors.New("invalid category: contains separator")

// Create builds a media id from a music id and its category path.
// An empty musicID builds a browsable id.
func Create(musicID string, categories ...string) (string, error) {
	var b strings.Builder
	for _, c := range categories {
		if !isValidCategory(c) {
			return "", ErrInvalidCategory
		}
		b.WriteString(c)
		b.WriteByte(CategorySeparator)
	}
	if musicID != "" {
		b.WriteByte(LeafSeparator)
		b.WriteString(musicID)
	}
	return b.String(), nil
}

// MustCreate is like Create but panics on an invalid category.
// Use it only with categories known to be valid.
func MustCreate(musicID string, categories ...string) string {
	id, err := Create(musicID, categories...)
	if err != nil {
		panic(err)
	}
	return id
}

func isValidCategory(c string) bool {
	return c != "" && !strings.ContainsRune(c, CategorySeparator) && !strings.ContainsRune(c, LeafSeparator)
}

// ExtractMusicID returns the leaf id of a playable media id, or "" for a
// browsable one.
func ExtractMusicID(mediaID string) string {
	i := strings.IndexByte(mediaID, LeafSeparator)
	if i < 0 {
		return ""
	}
	return mediaID[i+1:]
}

// Hierarchy returns the category path of a media id.
func Hierarchy(mediaID string) []string {
	if i := strings.IndexByte(mediaID, LeafSeparator); i >= 0 {
		mediaID = mediaID[:i]
	}
	parts := strings.Split(mediaID, string(CategorySeparator))
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BrowseCategoryValue returns the value of a two-level category path,
// e.g. the genre of "__BY_GENRE__/Rock/|x". Returns "" otherwise.
func BrowseCategoryValue(mediaID string) string {
	h := Hierarchy(mediaID)
	if len(h) == 2 {
		return h[1]
	}
	return ""
}

// IsBrowsable reports whether mediaID designates a browsable node.
func IsBrowsable(mediaID string) bool {
	return !strings.ContainsRune(mediaID, LeafSeparator)
}

// Parent returns the id of the parent node. A playable id's parent is its
// category node; the root has no parent and yields "".
func Parent(mediaID string) string {
	h := Hierarchy(mediaID)
	if !IsBrowsable(mediaID) {
		id, err := Create("", h...)
		if err != nil {
			return ""
		}
		return id
	}
	if len(h) <= 1 {
		return ""
	}
	id, err := Create("", h[:len(h)-1]...)
	if err != nil {
		return ""
	}
	return id
}

// SameCategory reports whether two media ids share the same category path.
func SameCategory(a, b string) bool {
	ha, hb := Hierarchy(a), Hierarchy(b)
	if len(ha) != len(hb) {
		return false
	}
	for i := range ha {
		if ha[i] != hb[i] {
			return false
		}
	}
	return true
}
