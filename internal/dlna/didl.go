package dlna

import (
	"encoding/xml"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/wavecast/internal/player"
)

const descNamespace = "urn:wavecast:metadata"

// ErrBadTime is returned by parseTime for values that are not H:MM:SS.
var ErrBadTime = errors.New("invalid time value")

type didlLite struct {
	XMLName xml.Name   `xml:"DIDL-Lite"`
	Items   []didlItem `xml:"item"`
}

type didlItem struct {
	Title  string     `xml:"title"`
	Artist string     `xml:"creator"`
	Album  string     `xml:"album"`
	Res    string     `xml:"res"`
	Descs  []didlDesc `xml:"desc"`
}

type didlDesc struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// buildDIDL renders DIDL-Lite metadata for media. Custom data entries are
// carried as desc elements so they survive a round trip through the
// renderer.
func buildDIDL(media player.CastMedia) string {
	if media.URL == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"`)
	b.WriteString(` xmlns:dc="http://purl.org/dc/elements/1.1/"`)
	b.WriteString(` xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/">`)
	b.WriteString(`<item id="0" parentID="-1" restricted="1">`)
	writeElem(&b, "dc:title", media.Title)
	writeElem(&b, "dc:creator", media.Artist)
	writeElem(&b, "upnp:album", media.Album)
	if media.ArtURL != "" {
		writeElem(&b, "upnp:albumArtURI", media.ArtURL)
	}
	b.WriteString(`<upnp:class>object.item.audioItem.musicTrack</upnp:class>`)

	duration := ""
	if media.Duration > 0 {
		duration = fmt.Sprintf(` duration="%s"`, formatTime(media.Duration))
	}
	fmt.Fprintf(&b, `<res protocolInfo="http-get:*:%s:*"%s>`, escape(media.ContentType), duration)
	b.WriteString(escape(media.URL))
	b.WriteString(`</res>`)

	for _, key := range slices.Sorted(maps.Keys(media.CustomData)) {
		fmt.Fprintf(&b, `<desc id="%s" nameSpace="%s">%s</desc>`,
			escape(key), descNamespace, escape(media.CustomData[key]))
	}
	b.WriteString(`</item></DIDL-Lite>`)
	return b.String()
}

// parseDIDL extracts the first item of a DIDL-Lite document.
func parseDIDL(meta string) (player.CastMedia, bool) {
	if strings.TrimSpace(meta) == "" || meta == "NOT_IMPLEMENTED" {
		return player.CastMedia{}, false
	}
	var doc didlLite
	if err := xml.Unmarshal([]byte(meta), &doc); err != nil || len(doc.Items) == 0 {
		return player.CastMedia{}, false
	}
	it := doc.Items[0]
	media := player.CastMedia{
		URL:    strings.TrimSpace(it.Res),
		Title:  it.Title,
		Artist: it.Artist,
		Album:  it.Album,
	}
	if len(it.Descs) > 0 {
		media.CustomData = make(map[string]string, len(it.Descs))
		for _, d := range it.Descs {
			media.CustomData[d.ID] = strings.TrimSpace(d.Value)
		}
	}
	return media, true
}

func writeElem(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<%s>%s</%s>", name, escape(value), name)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// formatTime renders d as H:MM:SS, the REL_TIME format of AVTransport.
func formatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// parseTime parses H:MM:SS with an optional fractional part.
func parseTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	sec, errS := strconv.ParseFloat(parts[2], 64)
	if errH != nil || errM != nil || errS != nil ||
		h < 0 || m < 0 || m > 59 || sec < 0 || sec >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*float64(time.Second)), nil
}
