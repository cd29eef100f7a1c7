package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecast/internal/mediaid"
)

func TestChildren_Root(t *testing.T) {
	c := loaded(t)

	items := c.Children(mediaid.Root)
	require.Len(t, items, 1)
	assert.Equal(t, "__BY_GENRE__/", items[0].ID)
	assert.True(t, items[0].Browsable)
}

func TestChildren_Genres(t *testing.T) {
	c := loaded(t)

	items := c.Children("__BY_GENRE__/")
	require.Len(t, items, 2)
	assert.Equal(t, "__BY_GENRE__/Jazz/", items[0].ID)
	assert.Equal(t, "__BY_GENRE__/Rock/", items[1].ID)
}

func TestChildren_GenreTracks(t *testing.T) {
	c := loaded(t)

	items := c.Children("__BY_GENRE__/Rock/")
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.Playable)
		assert.False(t, it.Browsable)
		assert.Equal(t, "Rock", mediaid.BrowseCategoryValue(it.ID))
	}
	assert.Equal(t, "1", mediaid.ExtractMusicID(items[0].ID))
}

func TestChildren_Unknown(t *testing.T) {
	c := loaded(t)

	assert.Empty(t, c.Children("__BY_SEARCH__/"))
	assert.Empty(t, c.Children("__BY_GENRE__/Rock/|1"))
	assert.Empty(t, c.Children(""))
}

func TestChildren_NotLoaded(t *testing.T) {
	c := New(NewMockSource(sampleTracks()...), nil, nil)
	assert.Empty(t, c.Children(mediaid.Root))
}
