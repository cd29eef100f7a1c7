package mpris

import (
	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/catalog"
)

// ArtURL returns the art URL advertised for track: a file URL to the
// decoded art written to disk when available, the remote art URL
// otherwise.
func ArtURL(disk *albumart.DiskCache, t catalog.Track) string {
	if disk == nil || t.FullArt == nil || t.ArtURL == "" {
		return t.ArtURL
	}
	path, err := disk.Store(t.ArtURL, t.FullArt)
	if err != nil || path == "" {
		return t.ArtURL
	}
	return "file://" + path
}
