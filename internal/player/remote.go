package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/mediaid"
	"github.com/llehouerou/wavecast/internal/queue"
)

const remoteCommandTimeout = 10 * time.Second

// Remote plays tracks on a cast device.
type Remote struct {
	client  CastClient
	catalog *catalog.Catalog
	logger  *zap.Logger

	mu             sync.Mutex
	state          State
	callback       Callback
	currentMediaID string
	lastPosition   time.Duration
	lost           bool
	onLost         func()
}

// ErrCastConnectionLost is reported when the device stops answering.
var ErrCastConnectionLost = errors.New("connection lost")

// NewRemote creates a remote backend driving client.
func NewRemote(client CastClient, cat *catalog.Catalog, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{
		client:   client,
		catalog:  cat,
		logger:   logger.Named("remote"),
		callback: nopCallback{},
	}
}

// OnConnectionLost registers fn to run once when the device becomes
// unreachable. fn runs on the client's event goroutine.
func (r *Remote) OnConnectionLost(fn func()) {
	r.mu.Lock()
	r.onLost = fn
	r.mu.Unlock()
}

// DeviceName returns the name of the cast device.
func (r *Remote) DeviceName() string { return r.client.DeviceName() }

func (r *Remote) Start() {
	r.client.SetListener(castEvents{r})
}

func (r *Remote) Stop(notify bool) {
	r.client.SetListener(nil)
	r.mu.Lock()
	r.state = StateStopped
	cb := r.callback
	r.mu.Unlock()
	if notify {
		cb.OnPlaybackStatusChanged(StateStopped)
	}
}

func (r *Remote) SetState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Remote) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Remote) SetCallback(cb Callback) {
	if cb == nil {
		cb = nopCallback{}
	}
	r.mu.Lock()
	r.callback = cb
	r.mu.Unlock()
}

func (r *Remote) cb() Callback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callback
}

func (r *Remote) IsConnected() bool { return r.client.IsConnected() }

func (r *Remote) IsPlaying() bool {
	return r.client.IsConnected() && r.client.IsPlaying()
}

func (r *Remote) CurrentStreamPosition() time.Duration {
	if r.client.IsConnected() {
		return r.client.ApproximatePosition()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPosition
}

func (r *Remote) UpdateLastKnownStreamPosition() {
	pos := r.client.ApproximatePosition()
	r.mu.Lock()
	r.lastPosition = pos
	r.mu.Unlock()
}

func (r *Remote) SetCurrentStreamPosition(pos time.Duration) {
	r.mu.Lock()
	r.lastPosition = pos
	r.mu.Unlock()
}

func (r *Remote) SetCurrentMediaID(mediaID string) {
	r.mu.Lock()
	r.currentMediaID = mediaID
	r.mu.Unlock()
}

func (r *Remote) CurrentMediaID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentMediaID
}

func (r *Remote) Play(item queue.Item) {
	if err := r.loadMedia(item.MediaID, true); err != nil {
		r.logger.Warn("load media", zap.String("media_id", item.MediaID), zap.Error(err))
		r.cb().OnError(err.Error())
		return
	}
	r.SetState(StateBuffering)
	r.cb().OnPlaybackStatusChanged(StateBuffering)
}

func (r *Remote) Pause() {
	ctx, cancel := context.WithTimeout(context.Background(), remoteCommandTimeout)
	defer cancel()

	var err error
	if r.client.HasMediaSession() {
		err = r.client.Pause(ctx)
		r.UpdateLastKnownStreamPosition()
	} else {
		err = r.loadMedia(r.CurrentMediaID(), false)
	}
	if err != nil {
		r.logger.Warn("pause", zap.Error(err))
		r.cb().OnError(err.Error())
	}
}

func (r *Remote) SeekTo(pos time.Duration) {
	mediaID := r.CurrentMediaID()
	if mediaID == "" {
		r.cb().OnError("seek requires a current media id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteCommandTimeout)
	defer cancel()

	r.mu.Lock()
	r.lastPosition = pos
	r.mu.Unlock()

	var err error
	if r.client.HasMediaSession() {
		err = r.client.Seek(ctx, pos)
	} else {
		err = r.loadMedia(mediaID, false)
	}
	if err != nil {
		r.logger.Warn("seek", zap.Error(err))
		r.cb().OnError(err.Error())
	}
}

func (r *Remote) loadMedia(mediaID string, autoPlay bool) error {
	track, ok := r.catalog.Track(mediaid.ExtractMusicID(mediaID))
	if !ok {
		return fmt.Errorf("no track for media id %q", mediaID)
	}

	r.mu.Lock()
	if mediaID != r.currentMediaID {
		r.currentMediaID = mediaID
		r.lastPosition = 0
	}
	pos := r.lastPosition
	r.mu.Unlock()

	media := CastMedia{
		URL:         track.Source,
		ContentType: MimeTypeAudioMPEG,
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		ArtURL:      track.ArtURL,
		Duration:    track.Duration,
		CustomData:  map[string]string{CustomDataItemID: mediaID},
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteCommandTimeout)
	defer cancel()
	if err := r.client.Load(ctx, media, autoPlay, pos); err != nil {
		return fmt.Errorf("load on %s: %w", r.client.DeviceName(), err)
	}
	return nil
}

// syncMetadataFromRemote adopts the item loaded on the device when it
// differs from ours, which happens when another sender changed track.
func (r *Remote) syncMetadataFromRemote() {
	info, ok := r.client.MediaInfo()
	if !ok {
		return
	}
	remoteID := info.CustomData[CustomDataItemID]
	if remoteID == "" {
		return
	}

	r.mu.Lock()
	changed := remoteID != r.currentMediaID
	if changed {
		r.currentMediaID = remoteID
	}
	cb := r.callback
	r.mu.Unlock()

	if changed {
		r.logger.Info("remote item changed", zap.String("media_id", remoteID))
		cb.SetCurrentMediaID(remoteID)
		r.UpdateLastKnownStreamPosition()
	}
}

func (r *Remote) updatePlaybackState() {
	if !r.client.IsConnected() {
		r.connectionLost()
		return
	}
	status := r.client.PlayerState()
	r.logger.Debug("remote status", zap.Stringer("status", status))

	switch status {
	case RemoteIdle:
		if r.client.IdleReason() == IdleReasonFinished {
			r.cb().OnCompletion()
		}
	case RemoteBuffering:
		r.SetState(StateBuffering)
		r.cb().OnPlaybackStatusChanged(StateBuffering)
	case RemotePlaying:
		r.SetState(StatePlaying)
		r.syncMetadataFromRemote()
		r.cb().OnPlaybackStatusChanged(StatePlaying)
	case RemotePaused:
		r.SetState(StatePaused)
		r.syncMetadataFromRemote()
		r.cb().OnPlaybackStatusChanged(StatePaused)
	case RemoteUnknown:
		r.logger.Debug("unhandled remote status")
	}
}

func (r *Remote) connectionLost() {
	r.mu.Lock()
	if r.lost {
		r.mu.Unlock()
		return
	}
	r.lost = true
	r.state = StateError
	fn := r.onLost
	r.mu.Unlock()

	r.logger.Warn("cast device unreachable", zap.String("device", r.client.DeviceName()))
	r.cb().OnError(errmsg.FormatWith(errmsg.OpCastReach, r.client.DeviceName(), ErrCastConnectionLost))
	if fn != nil {
		fn()
	}
}

type castEvents struct{ r *Remote }

func (e castEvents) OnStatusUpdated()   { e.r.updatePlaybackState() }
func (e castEvents) OnMetadataUpdated() { e.r.syncMetadataFromRemote() }
