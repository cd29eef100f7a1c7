package notify

import (
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/catalog"
)

// fallbackIcon is a freedesktop icon name used without thumbnail art.
const fallbackIcon = "audio-x-generic"

// IconFunc returns the notification icon for a track: a file path or an
// icon name.
type IconFunc func(t catalog.Track) string

func defaultIcon(catalog.Track) string { return fallbackIcon }

// ThumbnailIcon writes track thumbnails to disk and uses their path as
// icon.
func ThumbnailIcon(disk *albumart.DiskCache, logger *zap.Logger) IconFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(t catalog.Track) string {
		if disk == nil || t.ThumbArt == nil || t.ArtURL == "" {
			return fallbackIcon
		}
		path, err := disk.Store(t.ArtURL, t.ThumbArt)
		if err != nil || path == "" {
			logger.Debug("store thumbnail", zap.String("url", t.ArtURL), zap.Error(err))
			return fallbackIcon
		}
		return path
	}
}
