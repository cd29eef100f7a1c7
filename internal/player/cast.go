package player

import (
	"context"
	"time"
)

// CustomDataItemID is the custom data key carrying the media id of the
// item loaded on a remote device.
const CustomDataItemID = "itemId"

// MimeTypeAudioMPEG is the content type sent for catalog tracks.
const MimeTypeAudioMPEG = "audio/mpeg"

// RemoteState is the player state reported by a cast device.
type RemoteState int

const (
	RemoteUnknown RemoteState = iota
	RemoteIdle
	RemoteBuffering
	RemotePlaying
	RemotePaused
)

// String returns the state name.
func (s RemoteState) String() string {
	switch s {
	case RemoteIdle:
		return "Idle"
	case RemoteBuffering:
		return "Buffering"
	case RemotePlaying:
		return "Playing"
	case RemotePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IdleReason tells why a remote player went idle.
type IdleReason int

const (
	IdleReasonNone IdleReason = iota
	IdleReasonFinished
	IdleReasonCanceled
	IdleReasonInterrupted
	IdleReasonError
)

// CastMedia describes a media item loaded on a cast device.
type CastMedia struct {
	URL         string
	ContentType string
	Title       string
	Artist      string
	Album       string
	ArtURL      string
	Duration    time.Duration
	CustomData  map[string]string
}

// CastListener receives cast session events.
type CastListener interface {
	OnStatusUpdated()
	OnMetadataUpdated()
}

// CastClient controls media on a connected cast device.
type CastClient interface {
	Load(ctx context.Context, media CastMedia, autoPlay bool, position time.Duration) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error
	Stop(ctx context.Context) error

	IsConnected() bool
	// HasMediaSession reports whether media is loaded on the device.
	HasMediaSession() bool
	IsPlaying() bool
	ApproximatePosition() time.Duration
	MediaInfo() (CastMedia, bool)
	PlayerState() RemoteState
	IdleReason() IdleReason
	DeviceName() string

	// SetListener registers l, replacing any previous listener. nil
	// unregisters.
	SetListener(l CastListener)
}
