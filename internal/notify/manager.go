package notify

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/session"
)

// Action keys bound to notification buttons.
const (
	ActionPrev     = "wavecast.prev"
	ActionPause    = "wavecast.pause"
	ActionPlay     = "wavecast.play"
	ActionNext     = "wavecast.next"
	ActionStopCast = "wavecast.stop_cast"
)

// Controls receives the transport commands of notification buttons.
type Controls interface {
	Play()
	Pause()
	SkipToNext()
	SkipToPrevious()
	StopCasting()
}

// Manager keeps a single media notification in sync with the session
// while playback is active.
type Manager struct {
	notifier Notifier
	session  *session.Session
	controls Controls
	icon     IconFunc
	logger   *zap.Logger

	mu      sync.Mutex
	started bool
	id      uint32
	cancel  func()
}

// NewManager creates a manager. icon may be nil.
func NewManager(n Notifier, sess *session.Session, controls Controls, icon IconFunc, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if icon == nil {
		icon = defaultIcon
	}
	m := &Manager{
		notifier: n,
		session:  sess,
		controls: controls,
		icon:     icon,
		logger:   logger.Named("notify"),
	}
	n.OnAction(m.handleAction)
	return m
}

// Started reports whether the notification is shown.
func (m *Manager) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// StartNotification shows the notification if the session is playing or
// paused and follows session changes until StopNotification.
func (m *Manager) StartNotification() {
	snap := m.session.Snapshot()
	if !isShowable(snap.State.State) {
		return
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		m.show(snap)
		return
	}
	m.started = true
	m.mu.Unlock()

	cancel := m.session.Observe(m.onSessionChanged)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	m.logger.Debug("start notification")
	m.show(snap)
}

// StopNotification removes the notification.
func (m *Manager) StopNotification() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel, id := m.cancel, m.id
	m.cancel = nil
	m.id = 0
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.logger.Debug("stop notification")
	if id != 0 {
		if err := m.notifier.Close(id); err != nil {
			m.logger.Warn("close notification", zap.Error(err))
		}
	}
}

func (m *Manager) onSessionChanged(snap session.Snapshot) {
	switch snap.State.State {
	case player.StateNone, player.StateStopped:
		m.StopNotification()
	default:
		m.show(snap)
	}
}

func (m *Manager) show(snap session.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}

	n, ok := Build(snap, m.icon)
	if !ok {
		return
	}
	n.ReplacesID = m.id
	id, err := m.notifier.Notify(n)
	if err != nil {
		m.logger.Warn("notify", zap.Error(err))
		return
	}
	m.id = id
}

func (m *Manager) handleAction(id uint32, key string) {
	m.mu.Lock()
	mine := m.started && id == m.id
	m.mu.Unlock()
	if !mine {
		return
	}

	m.logger.Debug("notification action", zap.String("action", key))
	switch key {
	case ActionPrev:
		m.controls.SkipToPrevious()
	case ActionPause:
		m.controls.Pause()
	case ActionPlay:
		m.controls.Play()
	case ActionNext:
		m.controls.SkipToNext()
	case ActionStopCast:
		m.controls.StopCasting()
	default:
		m.logger.Warn("unknown notification action", zap.String("action", key))
	}
}

func isShowable(s player.State) bool {
	return s == player.StatePlaying || s == player.StatePaused
}

// Build renders the notification for snap. It reports false when there is
// no metadata to show.
func Build(snap session.Snapshot, icon IconFunc) (Notification, bool) {
	if !snap.HasMetadata {
		return Notification{}, false
	}
	if icon == nil {
		icon = defaultIcon
	}

	md := snap.Metadata
	body := md.Artist
	if device, ok := snap.CastDevice(); ok {
		if body != "" {
			body += "\n"
		}
		body += fmt.Sprintf("Casting to %s", device)
	}

	actions := snap.State.Actions
	var buttons []Action
	if actions.Has(playback.ActionSkipToPrevious) {
		buttons = append(buttons, Action{Key: ActionPrev, Label: "Previous"})
	}
	if snap.State.State == player.StatePlaying {
		buttons = append(buttons, Action{Key: ActionPause, Label: "Pause"})
	} else {
		buttons = append(buttons, Action{Key: ActionPlay, Label: "Play"})
	}
	if actions.Has(playback.ActionSkipToNext) {
		buttons = append(buttons, Action{Key: ActionNext, Label: "Next"})
	}
	if _, ok := snap.CastDevice(); ok {
		buttons = append(buttons, Action{Key: ActionStopCast, Label: "Stop casting"})
	}

	return Notification{
		Title:    md.Title,
		Body:     body,
		Icon:     icon(md),
		Timeout:  0,
		Urgency:  UrgencyLow,
		Actions:  buttons,
		Resident: true,
	}, true
}
