// internal/playback/manager.go
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/mediaid"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/queue"
)

// Messages published with an error state.
const (
	MsgCannotSkip   = "Cannot skip"
	MsgNoMusicFound = "Could not find music"
)

const favoriteLabel = "Favorite"

// baseAvailable is offered in every state; play or pause is added
// depending on the backend.
const baseAvailable = ActionPlayPause | ActionPlayFromMediaID | ActionPlayFromSearch |
	ActionSkipToPrevious | ActionSkipToNext

var (
	// ErrUnsupportedAction is returned by CustomAction for unknown actions.
	ErrUnsupportedAction = errors.New("unsupported custom action")
	// ErrNoCurrentItem is returned when a command needs a current queue item.
	ErrNoCurrentItem = errors.New("no current queue item")
	// ErrNoMatch is returned by PlayFromSearch when nothing matched.
	ErrNoMatch = errors.New("no music matched the search")
)

// ServiceCallback receives lifecycle signals from the Manager.
type ServiceCallback interface {
	// OnPlaybackStart is called before a backend is asked to play.
	OnPlaybackStart()
	// OnNotificationRequired is called when a playing or paused state is
	// published.
	OnNotificationRequired()
	// OnPlaybackStop is called after a pause or stop.
	OnPlaybackStop()
	// OnPlaybackStateUpdated receives every published state.
	OnPlaybackStateUpdated(state PlaybackState)
}

type nopServiceCallback struct{}

func (nopServiceCallback) OnPlaybackStart()                     {}
func (nopServiceCallback) OnNotificationRequired()              {}
func (nopServiceCallback) OnPlaybackStop()                      {}
func (nopServiceCallback) OnPlaybackStateUpdated(PlaybackState) {}

// Manager routes transport commands to the active backend and turns
// backend events into published playback states.
type Manager struct {
	catalog  *catalog.Catalog
	queue    *queue.Manager
	callback ServiceCallback
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	playback player.Playback
	last     PlaybackState
	subs     []*Subscription
	closed   bool
}

// Verify Manager implements player.Callback at compile time.
var _ player.Callback = (*Manager)(nil)

// NewManager creates a manager driving p. The manager registers itself as
// the callback of p.
func NewManager(cat *catalog.Catalog, q *queue.Manager, p player.Playback, callback ServiceCallback, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if callback == nil {
		callback = nopServiceCallback{}
	}
	m := &Manager{
		catalog:  cat,
		queue:    q,
		callback: callback,
		logger:   logger.Named("playback"),
		now:      time.Now,
		playback: p,
		last:     PlaybackState{Position: PositionUnknown, ActiveQueueID: NoActiveQueueID},
	}
	p.SetCallback(m)
	return m
}

// Playback returns the active backend.
func (m *Manager) Playback() player.Playback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playback
}

// Queue returns the queue the manager plays from.
func (m *Manager) Queue() *queue.Manager { return m.queue }

// State returns the last published state.
func (m *Manager) State() PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// HandlePlayRequest plays the current queue item. It does nothing when the
// queue has no current item.
func (m *Manager) HandlePlayRequest() {
	p := m.Playback()
	m.logger.Debug("play request", zap.Stringer("state", p.State()))

	item, ok := m.queue.CurrentItem()
	if !ok {
		return
	}
	m.callback.OnPlaybackStart()
	p.Play(item)
}

// HandlePauseRequest pauses the backend if it is playing.
func (m *Manager) HandlePauseRequest() {
	p := m.Playback()
	m.logger.Debug("pause request", zap.Stringer("state", p.State()))

	if p.IsPlaying() {
		p.Pause()
		m.callback.OnPlaybackStop()
	}
}

// HandleStopRequest stops the backend and publishes the resulting state,
// with errMsg as error message when not empty.
func (m *Manager) HandleStopRequest(errMsg string) {
	p := m.Playback()
	m.logger.Debug("stop request",
		zap.Stringer("state", p.State()),
		zap.String("error", errMsg))

	p.Stop(true)
	m.callback.OnPlaybackStop()
	m.UpdatePlaybackState(errMsg)
}

// UpdatePlaybackState builds and publishes the current playback state. A
// non-empty errMsg turns it into an error state.
func (m *Manager) UpdatePlaybackState(errMsg string) {
	p := m.Playback()

	position := PositionUnknown
	if p.IsConnected() {
		position = p.CurrentStreamPosition()
	}

	st := PlaybackState{
		State:         p.State(),
		Position:      position,
		Actions:       availableActions(p),
		ActiveQueueID: NoActiveQueueID,
		UpdatedAt:     m.now(),
	}
	if action, ok := m.favoriteAction(); ok {
		st.CustomActions = []CustomAction{action}
	}
	if errMsg != "" {
		st.ErrorMessage = errMsg
		st.State = player.StateError
	}
	if item, ok := m.queue.CurrentItem(); ok {
		st.ActiveQueueID = item.QueueID
	}

	m.mu.Lock()
	prev := m.last
	m.last = st
	subs := make([]*Subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	m.logger.Debug("playback state",
		zap.Stringer("state", st.State),
		zap.Duration("position", st.Position),
		zap.Stringer("actions", st.Actions))

	m.callback.OnPlaybackStateUpdated(st)
	for _, sub := range subs {
		sub.sendState(StateChange{Previous: prev, Current: st})
		if errMsg != "" {
			sub.sendError(ErrorEvent{Message: errMsg})
		}
	}

	if st.State == player.StatePlaying || st.State == player.StatePaused {
		m.callback.OnNotificationRequired()
	}
}

func availableActions(p player.Playback) Action {
	if p.IsPlaying() {
		return baseAvailable | ActionPause
	}
	return baseAvailable | ActionPlay
}

func (m *Manager) favoriteAction() (CustomAction, bool) {
	item, ok := m.queue.CurrentItem()
	if !ok {
		return CustomAction{}, false
	}
	musicID := mediaid.ExtractMusicID(item.MediaID)
	if musicID == "" {
		return CustomAction{}, false
	}
	return CustomAction{
		Action:   CustomActionThumbsUp,
		Name:     favoriteLabel,
		Favorite: m.catalog.IsFavorite(musicID),
	}, true
}

// OnCompletion advances to the next queue item, or stops at the end of
// the queue.
func (m *Manager) OnCompletion() {
	if m.queue.Skip(1) {
		m.HandlePlayRequest()
		m.queue.UpdateMetadata()
		return
	}
	m.HandleStopRequest("")
}

func (m *Manager) OnPlaybackStatusChanged(player.State) {
	m.UpdatePlaybackState("")
}

func (m *Manager) OnError(msg string) {
	m.UpdatePlaybackState(msg)
}

// SetCurrentMediaID follows a track change made by the backend.
func (m *Manager) SetCurrentMediaID(mediaID string) {
	m.logger.Debug("backend changed media", zap.String("media_id", mediaID))
	m.queue.SetQueueFromMusic(mediaID)
}

// Play plays the current item, building a random queue when there is
// none.
func (m *Manager) Play() {
	if _, ok := m.queue.CurrentItem(); !ok {
		m.queue.SetRandomQueue()
	}
	m.HandlePlayRequest()
}

// Pause pauses playback.
func (m *Manager) Pause() { m.HandlePauseRequest() }

// Stop stops playback.
func (m *Manager) Stop() { m.HandleStopRequest("") }

// SeekTo seeks the backend to pos.
func (m *Manager) SeekTo(pos time.Duration) {
	m.logger.Debug("seek", zap.Duration("position", pos))
	m.Playback().SeekTo(max(pos, 0))
}

// SkipToQueueItem moves to the queue item with queueID and plays it.
func (m *Manager) SkipToQueueItem(queueID int64) bool {
	if !m.queue.SetCurrentQueueItemByID(queueID) {
		m.logger.Debug("unknown queue item", zap.Int64("queue_id", queueID))
		return false
	}
	m.queue.UpdateMetadata()
	m.HandlePlayRequest()
	return true
}

// PlayFromMediaID builds the queue around mediaID and plays it.
func (m *Manager) PlayFromMediaID(mediaID string) error {
	m.logger.Debug("play from media id", zap.String("media_id", mediaID))
	m.queue.SetQueueFromMusic(mediaID)
	if _, ok := m.queue.CurrentItem(); !ok {
		return fmt.Errorf("play %q: %w", mediaID, ErrNoCurrentItem)
	}
	m.HandlePlayRequest()
	return nil
}

// SkipToNext moves one item forward, stopping with an error at the end.
func (m *Manager) SkipToNext() { m.skip(1) }

// SkipToPrevious moves one item back.
func (m *Manager) SkipToPrevious() { m.skip(-1) }

func (m *Manager) skip(delta int) {
	if m.queue.Skip(delta) {
		m.HandlePlayRequest()
	} else {
		m.HandleStopRequest(MsgCannotSkip)
	}
	m.queue.UpdateMetadata()
}

// CustomAction runs an application specific action.
func (m *Manager) CustomAction(action string) error {
	if action != CustomActionThumbsUp {
		m.logger.Warn("unsupported custom action", zap.String("action", action))
		return fmt.Errorf("%q: %w", action, ErrUnsupportedAction)
	}

	item, ok := m.queue.CurrentItem()
	if !ok {
		return ErrNoCurrentItem
	}
	musicID := mediaid.ExtractMusicID(item.MediaID)
	favorite := !m.catalog.IsFavorite(musicID)
	m.logger.Info("toggle favorite", zap.String("music_id", musicID), zap.Bool("favorite", favorite))

	err := m.catalog.SetFavorite(musicID, favorite)
	m.UpdatePlaybackState("")
	if err != nil {
		return fmt.Errorf("set favorite %s: %w", musicID, err)
	}
	return nil
}

// PlayFromSearch builds a queue from a search and plays it. The catalog is
// loaded first if needed.
func (m *Manager) PlayFromSearch(ctx context.Context, query string, extras map[string]string) error {
	m.logger.Debug("play from search", zap.String("query", query), zap.Any("extras", extras))

	m.Playback().SetState(player.StateConnecting)
	if !m.catalog.IsInitialized() {
		if err := m.catalog.Load(ctx); err != nil {
			m.UpdatePlaybackState(MsgNoMusicFound)
			return fmt.Errorf("load catalog: %w", err)
		}
	}

	if !m.queue.SetQueueFromSearch(query, extras) {
		m.UpdatePlaybackState(MsgNoMusicFound)
		return ErrNoMatch
	}
	m.HandlePlayRequest()
	m.queue.UpdateMetadata()
	return nil
}

// SwitchToPlayback replaces the active backend with p, handing over the
// current media id and position. With resume set, a playing session keeps
// playing on p; otherwise it is stopped.
func (m *Manager) SwitchToPlayback(p player.Playback, resume bool) {
	if p == nil {
		return
	}

	old := m.Playback()
	oldState := old.State()
	position := old.CurrentStreamPosition()
	mediaID := old.CurrentMediaID()
	old.Stop(false)

	p.SetCallback(m)
	p.SetCurrentStreamPosition(max(position, 0))
	p.SetCurrentMediaID(mediaID)
	p.Start()

	m.mu.Lock()
	m.playback = p
	subs := make([]*Subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	change := BackendChange{}
	if named, ok := p.(interface{ DeviceName() string }); ok {
		change = BackendChange{Remote: true, DeviceName: named.DeviceName()}
	}
	m.logger.Info("switched playback",
		zap.Bool("remote", change.Remote),
		zap.String("device", change.DeviceName),
		zap.Stringer("previous_state", oldState))
	for _, sub := range subs {
		sub.sendBackend(change)
	}

	switch oldState {
	case player.StateBuffering, player.StateConnecting, player.StatePaused:
		p.Pause()
	case player.StatePlaying:
		item, ok := m.queue.CurrentItem()
		switch {
		case resume && ok:
			p.Play(item)
		case !resume:
			p.Stop(true)
		}
	case player.StateNone, player.StateStopped, player.StateError:
	default:
		m.logger.Warn("unhandled state on switch", zap.Stringer("state", oldState))
	}
	m.UpdatePlaybackState("")
}

// Subscribe creates a new event subscription.
func (m *Manager) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := newSubscription()
	if m.closed {
		sub.close()
		return sub
	}
	m.subs = append(m.subs, sub)
	return sub
}

// Close ends every subscription. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, sub := range m.subs {
		sub.close()
	}
	m.subs = nil
	return nil
}
