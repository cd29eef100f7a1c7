// internal/player/local.go
package player

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/errmsg"
	"github.com/llehouerou/wavecast/internal/mediaid"
	"github.com/llehouerou/wavecast/internal/queue"
)

// Volume levels applied according to audio focus.
const (
	VolumeDuck   = 0.2
	VolumeNormal = 1.0
)

// Local plays tracks on this machine through an Engine.
type Local struct {
	catalog   *catalog.Catalog
	newEngine EngineFactory
	keepAlive KeepAlive
	focus     Focus
	logger    *zap.Logger

	mu              sync.Mutex
	engine          Engine
	callback        Callback
	focusState      FocusState
	playOnFocusGain bool
	// releasedIsStopped distinguishes a released engine (Stopped) from
	// one never created (None).
	releasedIsStopped bool
	currentMediaID    string
	lastPosition      time.Duration
}

// NewLocal creates a local backend. keepAlive and focus may be nil.
func NewLocal(cat *catalog.Catalog, newEngine EngineFactory, keepAlive KeepAlive, focus Focus, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keepAlive == nil {
		keepAlive = NewKeepAlive(nil, nil)
	}
	if focus == nil {
		focus = NewFocusManager()
	}
	return &Local{
		catalog:   cat,
		newEngine: newEngine,
		keepAlive: keepAlive,
		focus:     focus,
		logger:    logger.Named("local"),
		callback:  nopCallback{},
	}
}

func (l *Local) Start() {}

func (l *Local) SetCallback(cb Callback) {
	if cb == nil {
		cb = nopCallback{}
	}
	l.mu.Lock()
	l.callback = cb
	l.mu.Unlock()
}

func (l *Local) cb() Callback {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.callback
}

// SetState is a no-op: the local state is derived from the engine.
func (l *Local) SetState(State) {}

func (l *Local) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

func (l *Local) stateLocked() State {
	if l.engine == nil {
		if l.releasedIsStopped {
			return StateStopped
		}
		return StateNone
	}
	switch l.engine.State() {
	case EngineIdle:
		return StatePaused
	case EngineBuffering:
		return StateBuffering
	case EngineReady:
		if l.engine.PlayWhenReady() {
			return StatePlaying
		}
		return StatePaused
	case EngineEnded:
		return StatePaused
	default:
		return StateNone
	}
}

func (l *Local) IsConnected() bool { return true }

func (l *Local) IsPlaying() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.playOnFocusGain || (l.engine != nil && l.engine.PlayWhenReady())
}

func (l *Local) CurrentStreamPosition() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		return l.engine.Position()
	}
	return l.lastPosition
}

func (l *Local) UpdateLastKnownStreamPosition() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		l.lastPosition = l.engine.Position()
	}
}

func (l *Local) SetCurrentStreamPosition(pos time.Duration) {
	l.mu.Lock()
	l.lastPosition = pos
	l.mu.Unlock()
}

func (l *Local) SetCurrentMediaID(mediaID string) {
	l.mu.Lock()
	l.currentMediaID = mediaID
	l.mu.Unlock()
}

func (l *Local) CurrentMediaID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentMediaID
}

// FocusState returns the folded audio focus state.
func (l *Local) FocusState() FocusState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.focusState
}

// Play starts item, reusing the engine when item is already loaded.
func (l *Local) Play(item queue.Item) {
	l.mu.Lock()
	l.playOnFocusGain = true
	l.mu.Unlock()

	l.requestFocus()

	l.mu.Lock()
	changed := item.MediaID != l.currentMediaID
	if changed {
		l.currentMediaID = item.MediaID
		l.lastPosition = 0
	}
	reload := changed || l.engine == nil
	l.mu.Unlock()

	if reload {
		l.releaseResources(false)

		track, ok := l.catalog.Track(mediaid.ExtractMusicID(item.MediaID))
		if !ok {
			l.cb().OnError(fmt.Sprintf("unknown track %q", item.MediaID))
			return
		}
		source := strings.ReplaceAll(track.Source, " ", "%20")

		l.mu.Lock()
		if l.engine == nil {
			l.engine = l.newEngine()
			l.engine.SetListener(engineEvents{l: l, eng: l.engine})
		}
		l.releasedIsStopped = false
		eng := l.engine
		resumeAt := l.lastPosition
		l.mu.Unlock()

		l.logger.Debug("prepare", zap.String("media_id", item.MediaID), zap.String("source", source))
		if err := eng.Prepare(source); err != nil {
			l.cb().OnError(errmsg.Format(errmsg.OpPlaybackStart, err))
			return
		}
		if resumeAt > 0 {
			eng.SeekTo(resumeAt)
		}
	}

	l.keepAlive.Acquire()
	l.configurePlayerState()
}

func (l *Local) Pause() {
	l.mu.Lock()
	eng := l.engine
	if eng != nil {
		l.lastPosition = eng.Position()
	}
	l.mu.Unlock()

	if eng != nil {
		eng.SetPlayWhenReady(false)
	}
	l.releaseResources(false)
}

func (l *Local) Stop(notify bool) {
	l.focus.Abandon(focusHolder{l})
	l.mu.Lock()
	l.focusState = FocusNoFocusNoDuck
	l.mu.Unlock()

	l.releaseResources(true)
	if notify {
		l.cb().OnPlaybackStatusChanged(l.State())
	}
}

func (l *Local) SeekTo(pos time.Duration) {
	l.mu.Lock()
	eng := l.engine
	l.lastPosition = pos
	l.mu.Unlock()

	if eng != nil {
		eng.SeekTo(pos)
	}
}

// HandleAudioNoisy pauses playback when the output device goes away.
func (l *Local) HandleAudioNoisy() {
	if l.IsPlaying() {
		l.logger.Debug("audio output became noisy, pausing")
		l.Pause()
	}
}

func (l *Local) requestFocus() {
	if !l.focus.Request(focusHolder{l}) {
		return
	}
	l.mu.Lock()
	l.focusState = FocusFocused
	l.mu.Unlock()
}

// configurePlayerState applies the focus state to the engine: pause
// without focus, duck or full volume otherwise, and start playing if a
// play was pending.
func (l *Local) configurePlayerState() {
	l.mu.Lock()
	focus := l.focusState
	eng := l.engine
	if focus == FocusNoFocusNoDuck {
		l.mu.Unlock()
		l.Pause()
		return
	}
	if eng == nil {
		l.mu.Unlock()
		return
	}
	play := l.playOnFocusGain
	l.playOnFocusGain = false
	l.mu.Unlock()

	if focus == FocusNoFocusCanDuck {
		eng.SetVolume(VolumeDuck)
	} else {
		eng.SetVolume(VolumeNormal)
	}
	if play {
		eng.SetPlayWhenReady(true)
	}
}

func (l *Local) onFocusChange(change FocusChange) {
	l.logger.Debug("focus change", zap.Stringer("change", change))

	l.mu.Lock()
	switch change {
	case FocusGain:
		l.focusState = FocusFocused
	case FocusLossTransientCanDuck:
		l.focusState = FocusNoFocusCanDuck
	case FocusLossTransient:
		l.focusState = FocusNoFocusNoDuck
		l.playOnFocusGain = l.engine != nil && l.engine.PlayWhenReady()
	case FocusLoss:
		l.focusState = FocusNoFocusNoDuck
	}
	hasEngine := l.engine != nil
	l.mu.Unlock()

	if hasEngine {
		l.configurePlayerState()
	}
}

// releaseResources drops the keep-alive and, if releaseEngine is set,
// the engine itself.
func (l *Local) releaseResources(releaseEngine bool) {
	if releaseEngine {
		l.mu.Lock()
		eng := l.engine
		if eng != nil {
			l.lastPosition = eng.Position()
		}
		l.engine = nil
		l.releasedIsStopped = true
		l.playOnFocusGain = false
		l.mu.Unlock()
		if eng != nil {
			eng.Release()
		}
	}
	l.keepAlive.Release()
}

type focusHolder struct{ l *Local }

func (h focusHolder) OnFocusChange(c FocusChange) { h.l.onFocusChange(c) }

// engineEvents forwards events of one engine instance. Events from an
// engine that has since been released are ignored.
type engineEvents struct {
	l   *Local
	eng Engine
}

func (e engineEvents) current() bool {
	e.l.mu.Lock()
	defer e.l.mu.Unlock()
	return e.l.engine == e.eng
}

func (e engineEvents) OnEngineStateChanged(_ bool, state EngineState) {
	if !e.current() {
		return
	}
	switch state {
	case EngineIdle, EngineBuffering, EngineReady:
		e.l.cb().OnPlaybackStatusChanged(e.l.State())
	case EngineEnded:
		e.l.cb().OnCompletion()
	}
}

func (e engineEvents) OnEngineError(err error) {
	if !e.current() {
		return
	}
	e.l.logger.Warn("engine error", zap.Error(err))
	e.l.cb().OnError("engine error: " + err.Error())
}
