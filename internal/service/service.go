// Package service ties the catalog, queue, playback and session together
// into the music service.
package service

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
	"github.com/llehouerou/wavecast/internal/notify"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/queue"
	"github.com/llehouerou/wavecast/internal/session"
)

// DefaultStopDelay is how long the service stays loaded after playback
// stopped before releasing the local player.
const DefaultStopDelay = 30 * time.Second

// MsgMetadataError is published when the current item has no metadata.
const MsgMetadataError = "Unable to retrieve metadata"

// Commands accepted by HandleCommand.
const (
	CmdPause       = "CMD_PAUSE"
	CmdStopCasting = "CMD_STOP_CASTING"
	CmdAudioNoisy  = "CMD_AUDIO_NOISY"

	// Audio focus changes forwarded to the local player.
	CmdDuck      = "CMD_DUCK"
	CmdInterrupt = "CMD_INTERRUPT"
	CmdFocusGain = "CMD_FOCUS_GAIN"
	CmdFocusLoss = "CMD_FOCUS_LOSS"
)

var (
	// ErrCastDisabled is returned by ConnectCast when no connector is set.
	ErrCastDisabled = errors.New("casting is disabled")
	// ErrNotCasting is returned by DisconnectCast without a cast session.
	ErrNotCasting = errors.New("not connected to a cast device")
	// ErrUnknownCommand is returned by HandleCommand.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrFocusUnavailable is returned for focus commands without a focus
	// controller.
	ErrFocusUnavailable = errors.New("audio focus is not managed")
)

// FocusController changes the audio focus of the local player.
type FocusController interface {
	Interrupt(canDuck bool)
	Resume()
	Revoke()
}

var _ FocusController = (*player.FocusManager)(nil)

// CastConnector opens a cast session with the named device.
type CastConnector func(ctx context.Context, device string) (player.CastClient, error)

// Deps are the collaborators of a MusicService. Art, Notifier, Icon, Focus
// and Connect may be nil.
type Deps struct {
	Catalog  *catalog.Catalog
	Art      queue.ArtRequester
	Local    player.Playback
	Session  *session.Session
	Notifier notify.Notifier
	Icon     notify.IconFunc
	Focus    FocusController
	Connect  CastConnector
}

// Config tunes a MusicService.
type Config struct {
	StopDelay     time.Duration
	DefaultDevice string
}

// MusicService is the composition root of a playback session. It receives
// queue and playback lifecycle events and publishes them to the session.
type MusicService struct {
	catalog  *catalog.Catalog
	queue    *queue.Manager
	playback *playback.Manager
	session  *session.Session
	notify   *notify.Manager
	local    player.Playback
	focus    FocusController
	connect  CastConnector
	cfg      Config
	logger   *zap.Logger

	mu        sync.Mutex
	stopTimer *time.Timer
	stopGen   uint64
	cast      player.CastClient
	closed    bool

	wg sync.WaitGroup
}

// New builds the service and publishes the initial playback state.
func New(deps Deps, cfg Config, logger *zap.Logger) *MusicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StopDelay <= 0 {
		cfg.StopDelay = DefaultStopDelay
	}
	sess := deps.Session
	if sess == nil {
		sess = session.New(logger)
	}

	s := &MusicService{
		catalog: deps.Catalog,
		session: sess,
		local:   deps.Local,
		focus:   deps.Focus,
		connect: deps.Connect,
		cfg:     cfg,
		logger:  logger.Named("service"),
	}
	s.queue = queue.NewManager(deps.Catalog, deps.Art, queueEvents{s}, logger)
	s.playback = playback.NewManager(deps.Catalog, s.queue, deps.Local, s, logger)
	if deps.Notifier != nil {
		s.notify = notify.NewManager(deps.Notifier, sess, s, deps.Icon, logger)
	}

	sub := s.playback.Subscribe()
	s.wg.Add(1)
	go s.watch(sub)

	s.playback.UpdatePlaybackState("")
	return s
}

// watch logs playback events until the playback manager closes.
func (s *MusicService) watch(sub *playback.Subscription) {
	defer s.wg.Done()
	for {
		select {
		case <-sub.Done:
			return
		case c := <-sub.StateChanged:
			if c.Previous.State != c.Current.State {
				s.logger.Debug("playback state",
					zap.Stringer("from", c.Previous.State),
					zap.Stringer("to", c.Current.State))
			}
		case e := <-sub.Error:
			s.logger.Warn("playback error", zap.String("message", e.Message))
		case b := <-sub.BackendChanged:
			if b.Remote {
				s.logger.Info("playing on cast device", zap.String("device", b.DeviceName))
			} else {
				s.logger.Info("playing locally")
			}
		}
	}
}

// Session returns the published media session.
func (s *MusicService) Session() *session.Session { return s.session }

// Playback returns the active backend.
func (s *MusicService) Playback() player.Playback { return s.playback.Playback() }

// PlaybackManager returns the playback manager.
func (s *MusicService) PlaybackManager() *playback.Manager { return s.playback }

// Snapshot returns a copy of the media session.
func (s *MusicService) Snapshot() session.Snapshot { return s.session.Snapshot() }

// LoadCatalog loads the catalog in the background. A failed load is
// published as an error state.
func (s *MusicService) LoadCatalog(ctx context.Context) {
	s.catalog.LoadAsync(ctx, func(err error) {
		if err == nil || ctx.Err() != nil {
			return
		}
		s.playback.UpdatePlaybackState(errmsg.Format(errmsg.OpCatalogLoad, err))
	})
}

// Children lists the browse children of mediaID, waiting for the catalog
// to load if needed.
func (s *MusicService) Children(ctx context.Context, mediaID string) ([]catalog.MediaItem, error) {
	if mediaID == mediaid.EmptyRoot {
		return []catalog.MediaItem{}, nil
	}
	if !s.catalog.IsInitialized() {
		if err := s.catalog.Load(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", errmsg.OpCatalogBrowse, err)
		}
	}
	items := s.catalog.Children(mediaID)
	if items == nil {
		items = []catalog.MediaItem{}
	}
	return items, nil
}

// Transport commands.

func (s *MusicService) Play()                    { s.playback.Play() }
func (s *MusicService) Pause()                   { s.playback.Pause() }
func (s *MusicService) Stop()                    { s.playback.Stop() }
func (s *MusicService) SkipToNext()              { s.playback.SkipToNext() }
func (s *MusicService) SkipToPrevious()          { s.playback.SkipToPrevious() }
func (s *MusicService) SeekTo(pos time.Duration) { s.playback.SeekTo(pos) }

func (s *MusicService) SkipToQueueItem(queueID int64) bool {
	return s.playback.SkipToQueueItem(queueID)
}

func (s *MusicService) PlayFromMediaID(mediaID string) error {
	return s.playback.PlayFromMediaID(mediaID)
}

func (s *MusicService) PlayFromSearch(ctx context.Context, query string, extras map[string]string) error {
	return s.playback.PlayFromSearch(ctx, query, extras)
}

func (s *MusicService) CustomAction(action string) error {
	return s.playback.CustomAction(action)
}

// StopCasting disconnects the cast device from a notification button.
func (s *MusicService) StopCasting() {
	if err := s.DisconnectCast(); err != nil && !errors.Is(err, ErrNotCasting) {
		s.logger.Warn("stop casting", zap.Error(err))
	}
}

// HandleCommand runs a named service command and restarts the idle
// timer.
func (s *MusicService) HandleCommand(cmd string) error {
	var err error
	switch cmd {
	case CmdPause:
		s.playback.HandlePauseRequest()
	case CmdStopCasting:
		err = s.DisconnectCast()
	case CmdAudioNoisy:
		s.HandleAudioNoisy()
	case CmdDuck, CmdInterrupt, CmdFocusGain, CmdFocusLoss:
		err = s.changeFocus(cmd)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	s.scheduleDelayedStop()
	return err
}

func (s *MusicService) changeFocus(cmd string) error {
	if s.focus == nil {
		return ErrFocusUnavailable
	}
	switch cmd {
	case CmdDuck:
		s.focus.Interrupt(true)
	case CmdInterrupt:
		s.focus.Interrupt(false)
	case CmdFocusGain:
		s.focus.Resume()
	case CmdFocusLoss:
		s.focus.Revoke()
	}
	s.playback.UpdatePlaybackState("")
	return nil
}

// HandleAudioNoisy pauses local playback when the output device went away.
func (s *MusicService) HandleAudioNoisy() {
	if l, ok := s.playback.Playback().(interface{ HandleAudioNoisy() }); ok {
		l.HandleAudioNoisy()
		s.playback.UpdatePlaybackState("")
	}
}

// ConnectCast opens a session with device and moves playback onto it. An
// empty device selects the configured default.
func (s *MusicService) ConnectCast(ctx context.Context, device string) error {
	if s.connect == nil {
		return ErrCastDisabled
	}
	if device == "" {
		device = s.cfg.DefaultDevice
	}

	client, err := s.connect(ctx, device)
	if err != nil {
		s.logger.Warn(errmsg.FormatWith(errmsg.OpCastConnect, device, err))
		return fmt.Errorf("%s: %w", errmsg.OpCastConnect, err)
	}
	s.logger.Info("cast connected", zap.String("device", client.DeviceName()))

	s.mu.Lock()
	prev := s.cast
	s.cast = client
	s.mu.Unlock()

	remote := player.NewRemote(client, s.catalog, s.logger)
	remote.OnConnectionLost(func() { s.castLost(client) })
	s.playback.SwitchToPlayback(remote, true)
	if prev != nil {
		closeClient(prev)
	}
	s.session.SetExtra(session.ExtraConnectedCast, client.DeviceName())
	return nil
}

// DisconnectCast moves playback back to the local player.
func (s *MusicService) DisconnectCast() error {
	s.mu.Lock()
	client := s.cast
	s.cast = nil
	s.mu.Unlock()
	if client == nil {
		return ErrNotCasting
	}

	s.release(client)
	return nil
}

// castLost falls back to the local player after client became
// unreachable. It keeps the connection error published.
func (s *MusicService) castLost(client player.CastClient) {
	s.mu.Lock()
	if s.closed || s.cast != client {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	// the client's event goroutine must return before it can be closed
	go func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.cast != client {
			s.mu.Unlock()
			return
		}
		s.cast = nil
		s.mu.Unlock()

		msg := s.playback.State().ErrorMessage
		s.release(client)
		s.playback.UpdatePlaybackState(msg)
		s.scheduleDelayedStop()
	}()
}

func (s *MusicService) release(client player.CastClient) {
	s.logger.Info("cast disconnected", zap.String("device", client.DeviceName()))
	s.session.SetExtra(session.ExtraConnectedCast, "")
	s.playback.SwitchToPlayback(s.local, false)
	closeClient(client)
}

// CastDevice returns the connected device name.
func (s *MusicService) CastDevice() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cast == nil {
		return "", false
	}
	return s.cast.DeviceName(), true
}

// Close stops playback and releases every resource. It is safe to call
// more than once.
func (s *MusicService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}
	client := s.cast
	s.cast = nil
	s.mu.Unlock()

	s.playback.HandleStopRequest("")
	if s.notify != nil {
		s.notify.StopNotification()
	}
	if client != nil {
		closeClient(client)
	}
	s.queue.Close()
	err := s.playback.Close()
	s.wg.Wait()
	return err
}

func closeClient(c player.CastClient) {
	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
}

// ServiceCallback.

func (s *MusicService) OnPlaybackStart() {
	s.session.SetActive(true)
	s.cancelDelayedStop()
}

func (s *MusicService) OnNotificationRequired() {
	if s.notify != nil {
		s.notify.StartNotification()
	}
}

func (s *MusicService) OnPlaybackStop() {
	s.session.SetActive(false)
	s.scheduleDelayedStop()
}

func (s *MusicService) OnPlaybackStateUpdated(state playback.PlaybackState) {
	s.session.SetPlaybackState(state)
}

func (s *MusicService) cancelDelayedStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}
}

func (s *MusicService) scheduleDelayedStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.stopTimer != nil {
		s.stopTimer.Stop()
	}
	s.stopGen++
	gen := s.stopGen
	s.stopTimer = time.AfterFunc(s.cfg.StopDelay, func() { s.delayedStop(gen) })
}

// delayedStop releases the local player once playback stayed idle for the
// stop delay. A cast session is left alone.
func (s *MusicService) delayedStop(gen uint64) {
	s.mu.Lock()
	if gen != s.stopGen || s.stopTimer == nil || s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimer = nil
	casting := s.cast != nil
	s.mu.Unlock()

	p := s.playback.Playback()
	if p.IsPlaying() {
		s.logger.Debug("ignoring delayed stop, player in use")
		return
	}
	if casting {
		return
	}
	s.logger.Debug("releasing idle player")
	p.Stop(false)
	s.playback.UpdatePlaybackState("")
}

// queueEvents forwards queue notifications to the session.
type queueEvents struct{ s *MusicService }

func (e queueEvents) OnMetadataChanged(track catalog.Track) {
	e.s.session.SetMetadata(track)
}

func (e queueEvents) OnMetadataRetrieveError() {
	if e.s.playback != nil {
		e.s.playback.UpdatePlaybackState(MsgMetadataError)
	}
}

// OnCurrentQueueIndexUpdated republishes the state so the active queue id
// follows the cursor. Playback itself is started by the commands.
func (e queueEvents) OnCurrentQueueIndexUpdated(int) {
	if e.s.playback != nil {
		e.s.playback.UpdatePlaybackState("")
	}
}

func (e queueEvents) OnQueueUpdated(title string, items []queue.Item) {
	e.s.session.SetQueue(title, items)
}

var (
	_ playback.ServiceCallback = (*MusicService)(nil)
	_ queue.Listener           = queueEvents{}
	_ notify.Controls          = (*MusicService)(nil)
)
