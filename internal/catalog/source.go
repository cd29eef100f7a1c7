package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/llehouerou/wavecast/internal/httpclient"
)

// DefaultCatalogURL is the public sample catalog.
const DefaultCatalogURL = "http://storage.googleapis.com/automotive-media/music.json"

// RemoteSource reads a JSON catalog over HTTP.
//
// The document holds a top-level "music" array. Relative "source" and
// "image" paths are resolved against the directory of the catalog URL.
type RemoteSource struct {
	url    string
	client *retryablehttp.Client
}

// NewRemoteSource creates a source for the catalog at url.
func NewRemoteSource(url string, client *retryablehttp.Client) *RemoteSource {
	if url == "" {
		url = DefaultCatalogURL
	}
	return &RemoteSource{url: url, client: client}
}

type remoteCatalog struct {
	Music []remoteTrack `json:"music"`
}

type remoteTrack struct {
	Title           string `json:"title"`
	Album           string `json:"album"`
	Artist          string `json:"artist"`
	Genre           string `json:"genre"`
	Source          string `json:"source"`
	Image           string `json:"image"`
	TrackNumber     int    `json:"trackNumber"`
	TotalTrackCount int    `json:"totalTrackCount"`
	Duration        int    `json:"duration"` // seconds
}

// Fetch downloads and parses the catalog.
func (s *RemoteSource) Fetch(ctx context.Context) ([]Track, error) {
	data, err := httpclient.Get(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	return parseCatalog(data, basePath(s.url))
}

func parseCatalog(data []byte, base string) ([]Track, error) {
	var doc remoteCatalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	tracks := make([]Track, 0, len(doc.Music))
	for _, m := range doc.Music {
		source := resolve(base, m.Source)
		tracks = append(tracks, Track{
			ID:          sourceID(source),
			Title:       m.Title,
			Artist:      m.Artist,
			Album:       m.Album,
			Genre:       m.Genre,
			Duration:    time.Duration(m.Duration) * time.Second,
			Source:      source,
			ArtURL:      resolve(base, m.Image),
			TrackNumber: m.TrackNumber,
			TotalTracks: m.TotalTrackCount,
		})
	}
	return tracks, nil
}

// basePath returns url up to and including its last '/'.
func basePath(url string) string {
	i := strings.LastIndexByte(url, '/')
	if i < 0 {
		return ""
	}
	return url[:i+1]
}

func resolve(base, p string) string {
	if p == "" || strings.HasPrefix(p, "http") {
		return p
	}
	return base + p
}

// sourceID derives a stable track id from the source url using the
// classic 31-multiplier string hash.
func sourceID(source string) string {
	var h int32
	for _, r := range source {
		h = 31*h + int32(r)
	}
	return strconv.FormatInt(int64(h), 10)
}
