package dlna

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavecast/internal/player"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{-time.Second, "0:00:00"},
		{59*time.Second + 900*time.Millisecond, "0:00:59"},
		{3*time.Minute + 7*time.Second, "0:03:07"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatTime(tt.in); got != tt.want {
			t.Errorf("formatTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0:00:00", 0},
		{"00:03:07", 3*time.Minute + 7*time.Second},
		{"1:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"0:00:01.500", 1500 * time.Millisecond},
		{" 0:00:02 ", 2 * time.Second},
	}
	for _, tt := range tests {
		got, err := parseTime(tt.in)
		if err != nil {
			t.Errorf("parseTime(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "NOT_IMPLEMENTED", "1:02", "a:00:00", "0:60:00", "0:00:61", "-1:00:00"} {
		_, err := parseTime(in)
		if !errors.Is(err, ErrBadTime) {
			t.Errorf("parseTime(%q) error = %v, want ErrBadTime", in, err)
		}
	}
}

func TestBuildDIDL_RoundTrip(t *testing.T) {
	media := player.CastMedia{
		URL:         "http://example.com/a.mp3?x=1&y=2",
		ContentType: player.MimeTypeAudioMPEG,
		Title:       "Rock & Roll",
		Artist:      "The <Band>",
		Album:       "First",
		ArtURL:      "http://example.com/a.jpg",
		Duration:    90 * time.Second,
		CustomData:  map[string]string{player.CustomDataItemID: "__BY_GENRE__/Rock/|r1"},
	}

	meta := buildDIDL(media)
	assert.Contains(t, meta, `duration="0:01:30"`)
	assert.Contains(t, meta, "Rock &amp; Roll")

	got, ok := parseDIDL(meta)
	require.True(t, ok)
	assert.Equal(t, media.URL, got.URL)
	assert.Equal(t, media.Title, got.Title)
	assert.Equal(t, media.Artist, got.Artist)
	assert.Equal(t, media.Album, got.Album)
	assert.Equal(t, "__BY_GENRE__/Rock/|r1", got.CustomData[player.CustomDataItemID])
}

func TestBuildDIDL_EmptyURL(t *testing.T) {
	assert.Empty(t, buildDIDL(player.CastMedia{Title: "x"}))
}

func TestParseDIDL_Rejects(t *testing.T) {
	for _, in := range []string{"", "NOT_IMPLEMENTED", "<garbage", `<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"></DIDL-Lite>`} {
		if _, ok := parseDIDL(in); ok {
			t.Errorf("parseDIDL(%q) succeeded", in)
		}
	}
}

func TestFind(t *testing.T) {
	renderers := []Renderer{{FriendlyName: "Kitchen"}, {FriendlyName: "Living Room"}}

	r, err := Find(renderers, "living room")
	require.NoError(t, err)
	assert.Equal(t, "Living Room", r.FriendlyName)

	r, err = Find(renderers, "")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", r.FriendlyName)

	_, err = Find(renderers, "Garage")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = Find(nil, "")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestRenderer_NewTransportRequiresDiscovery(t *testing.T) {
	_, err := Renderer{FriendlyName: "Kitchen"}.newTransport()
	assert.Error(t, err)
}
