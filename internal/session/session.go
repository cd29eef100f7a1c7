// Package session holds the media session published to controllers:
// whether it is active, the current track, the playback state, the queue
// and free-form extras.
package session

import (
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/playback"
	"github.com/llehouerou/wavecast/internal/queue"
)

// ExtraConnectedCast carries the name of the connected cast device.
const ExtraConnectedCast = "wavecast.CAST_NAME"

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	Active      bool
	Metadata    catalog.Track
	HasMetadata bool
	State       playback.PlaybackState
	QueueTitle  string
	Queue       []queue.Item
	Extras      map[string]string
}

// CastDevice returns the connected cast device name, if any.
func (s Snapshot) CastDevice() (string, bool) {
	name, ok := s.Extras[ExtraConnectedCast]
	return name, ok && name != ""
}

// Observer is called with a snapshot after every change.
type Observer func(Snapshot)

// Session is safe for concurrent use. Observers run on the goroutine that
// made the change, without the session lock held.
type Session struct {
	logger *zap.Logger

	mu        sync.Mutex
	snap      Snapshot
	observers map[int]Observer
	nextID    int
}

// New creates an inactive session with no metadata.
func New(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		logger: logger.Named("session"),
		snap: Snapshot{
			State:  playback.PlaybackState{Position: playback.PositionUnknown, ActiveQueueID: playback.NoActiveQueueID},
			Extras: map[string]string{},
		},
		observers: map[int]Observer{},
	}
}

// Observe registers fn and returns a function removing it.
func (s *Session) Observe(fn Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Session) copyLocked() Snapshot {
	out := s.snap
	out.Queue = append([]queue.Item(nil), s.snap.Queue...)
	out.Extras = maps.Clone(s.snap.Extras)
	return out
}

func (s *Session) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.copyLocked()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

// SetActive marks the session active or inactive.
func (s *Session) SetActive(active bool) {
	s.logger.Debug("set active", zap.Bool("active", active))
	s.update(func(snap *Snapshot) { snap.Active = active })
}

// IsActive reports whether the session is active.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Active
}

// SetMetadata publishes the current track.
func (s *Session) SetMetadata(t catalog.Track) {
	s.update(func(snap *Snapshot) {
		snap.Metadata = t
		snap.HasMetadata = true
	})
}

// ClearMetadata removes the current track.
func (s *Session) ClearMetadata() {
	s.update(func(snap *Snapshot) {
		snap.Metadata = catalog.Track{}
		snap.HasMetadata = false
	})
}

// SetPlaybackState publishes a playback state.
func (s *Session) SetPlaybackState(st playback.PlaybackState) {
	s.update(func(snap *Snapshot) { snap.State = st })
}

// SetQueue publishes the queue and its title.
func (s *Session) SetQueue(title string, items []queue.Item) {
	items = append([]queue.Item(nil), items...)
	s.update(func(snap *Snapshot) {
		snap.QueueTitle = title
		snap.Queue = items
	})
}

// SetExtra sets an extra. An empty value removes it.
func (s *Session) SetExtra(key, value string) {
	s.update(func(snap *Snapshot) {
		if value == "" {
			delete(snap.Extras, key)
			return
		}
		snap.Extras[key] = value
	})
}

// Extra returns the value of an extra.
func (s *Session) Extra(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snap.Extras[key]
	return v, ok
}
