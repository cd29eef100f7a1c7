package dlna

import (
	"context"

	"github.com/huin/goupnp/dcps/av1"
)

// AVTransport states as reported by GetTransportInfo.
const (
	transportStopped        = "STOPPED"
	transportPlaying        = "PLAYING"
	transportPaused         = "PAUSED_PLAYBACK"
	transportTransitioning  = "TRANSITIONING"
	transportNoMediaPresent = "NO_MEDIA_PRESENT"
)

const (
	instanceID    = 0
	masterChannel = "Master"
	normalSpeed   = "1"
	seekRelTime   = "REL_TIME"
)

// positionInfo is the subset of GetPositionInfo the client uses.
type positionInfo struct {
	TrackURI      string
	TrackMetaData string
	RelTime       string
	TrackDuration string
}

// transport is the renderer surface the client drives. upnpTransport
// implements it over goupnp service clients.
type transport interface {
	SetURI(ctx context.Context, uri, metadata string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, target string) error
	TransportState(ctx context.Context) (string, error)
	PositionInfo(ctx context.Context) (positionInfo, error)
	SetVolume(ctx context.Context, volume uint16) error
	Volume(ctx context.Context) (uint16, error)
}

type upnpTransport struct {
	av *av1.AVTransport1
	rc *av1.RenderingControl1 // nil when the renderer has no volume control
}

func (t *upnpTransport) SetURI(ctx context.Context, uri, metadata string) error {
	return t.av.SetAVTransportURICtx(ctx, instanceID, uri, metadata)
}

func (t *upnpTransport) Play(ctx context.Context) error {
	return t.av.PlayCtx(ctx, instanceID, normalSpeed)
}

func (t *upnpTransport) Pause(ctx context.Context) error {
	return t.av.PauseCtx(ctx, instanceID)
}

func (t *upnpTransport) Stop(ctx context.Context) error {
	return t.av.StopCtx(ctx, instanceID)
}

func (t *upnpTransport) Seek(ctx context.Context, target string) error {
	return t.av.SeekCtx(ctx, instanceID, seekRelTime, target)
}

func (t *upnpTransport) TransportState(ctx context.Context) (string, error) {
	state, _, _, err := t.av.GetTransportInfoCtx(ctx, instanceID)
	return state, err
}

func (t *upnpTransport) PositionInfo(ctx context.Context) (positionInfo, error) {
	_, duration, meta, uri, rel, _, _, _, err := t.av.GetPositionInfoCtx(ctx, instanceID)
	if err != nil {
		return positionInfo{}, err
	}
	return positionInfo{
		TrackURI:      uri,
		TrackMetaData: meta,
		RelTime:       rel,
		TrackDuration: duration,
	}, nil
}

func (t *upnpTransport) SetVolume(ctx context.Context, volume uint16) error {
	if t.rc == nil {
		return ErrNoVolumeControl
	}
	return t.rc.SetVolumeCtx(ctx, instanceID, masterChannel, volume)
}

func (t *upnpTransport) Volume(ctx context.Context) (uint16, error) {
	if t.rc == nil {
		return 0, ErrNoVolumeControl
	}
	return t.rc.GetVolumeCtx(ctx, instanceID, masterChannel)
}

var _ transport = (*upnpTransport)(nil)
