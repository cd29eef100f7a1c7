//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/session"
)

// Adapter connects the playback manager and the session to MPRIS over
// D-Bus.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	cancel func()
	logger *zap.Logger

	mu        sync.Mutex
	lastTrack string
	lastState player.State
}

// New creates and starts a new MPRIS adapter. disk may be nil.
func New(controller Controller, sess *session.Session, disk *albumart.DiskCache, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{logger: logger.Named("mpris")}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{controller: controller, session: sess, disk: disk}

	a.server = server.NewServer("wavecast", rootAdapter, playerAdapter)
	a.events = events.NewEventHandler(a.server)
	a.cancel = sess.Observe(a.onSessionChanged)

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn("mpris server stopped", zap.Error(err))
		}
	}()

	return a, nil
}

func (a *Adapter) onSessionChanged(snap session.Snapshot) {
	a.mu.Lock()
	titleChanged := snap.Metadata.ID != a.lastTrack
	stateChanged := snap.State.State != a.lastState
	a.lastTrack = snap.Metadata.ID
	a.lastState = snap.State.State
	a.mu.Unlock()

	if titleChanged {
		a.events.Player.OnTitle()
	}
	if stateChanged {
		a.events.Player.OnPlayPause()
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	a.cancel()
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil // Track list interface not implemented
}

func (r *rootAdapter) Identity() (string, error) {
	return "Wavecast", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{player.MimeTypeAudioMPEG}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	controller Controller
	session    *session.Session
	disk       *albumart.DiskCache
}

func (p *playerAdapter) Next() error {
	p.controller.SkipToNext()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.controller.SkipToPrevious()
	return nil
}

func (p *playerAdapter) Pause() error {
	p.controller.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	togglePlayback(p.controller)
	return nil
}

func (p *playerAdapter) Stop() error {
	p.controller.Stop()
	return nil
}

func (p *playerAdapter) Play() error {
	p.controller.Play()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	seekBy(p.controller, time.Duration(offset)*time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.controller.SeekTo(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch statusOf(p.session.Snapshot().State.State) {
	case statusPlaying:
		return types.PlaybackStatusPlaying, nil
	case statusPaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.session.Snapshot()
	if !snap.HasMetadata {
		return types.Metadata{}, nil
	}
	track := snap.Metadata

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(track.ID)),
		Length:      types.Microseconds(track.Duration.Microseconds()),
		Title:       track.Title,
		Artist:      []string{track.Artist},
		Album:       track.Album,
		TrackNumber: track.TrackNumber,
		ArtUrl:      ArtURL(p.disk, track),
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil // Volume control not exposed
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	pb := p.controller.Playback()
	if !pb.IsConnected() {
		return 0, nil
	}
	return pb.CurrentStreamPosition().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.session.Snapshot().State.Actions.Has(playback.ActionSkipToNext), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.session.Snapshot().State.Actions.Has(playback.ActionSkipToPrevious), nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
