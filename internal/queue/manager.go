// Package queue manages the play queue and its cursor.
package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/mediaid"
)

const artSlot = "queue"

// Listener receives queue notifications. Calls are made without the
// manager lock held, so a listener may call back into the manager.
type Listener interface {
	OnMetadataChanged(track catalog.Track)
	OnMetadataRetrieveError()
	OnCurrentQueueIndexUpdated(index int)
	OnQueueUpdated(title string, items []Item)
}

type nopListener struct{}

func (nopListener) OnMetadataChanged(catalog.Track) {}
func (nopListener) OnMetadataRetrieveError()        {}
func (nopListener) OnCurrentQueueIndexUpdated(int)  {}
func (nopListener) OnQueueUpdated(string, []Item)   {}

// ArtRequester fetches album art on behalf of a named requester.
type ArtRequester interface {
	Request(ctx context.Context, slot, url string, onSuccess albumart.SuccessFunc, onError albumart.ErrorFunc)
}

// Manager holds the current play queue.
// It is safe for concurrent use.
type Manager struct {
	catalog  *catalog.Catalog
	art      ArtRequester
	listener Listener
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	items []Item
	index int // -1 if nothing queued
	title string
}

// NewManager creates an empty queue manager. art may be nil.
func NewManager(cat *catalog.Catalog, art ArtRequester, listener Listener, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if listener == nil {
		listener = nopListener{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		catalog:  cat,
		art:      art,
		listener: listener,
		logger:   logger.Named("queue"),
		ctx:      ctx,
		cancel:   cancel,
		index:    -1,
	}
}

// Close cancels pending art requests.
func (m *Manager) Close() {
	m.cancel()
}

// CurrentItem returns the item under the cursor.
func (m *Manager) CurrentItem() (Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !IsIndexPlayable(m.index, m.items) {
		return Item{}, false
	}
	return m.items[m.index], true
}

// CurrentIndex returns the cursor (-1 if none).
func (m *Manager) CurrentIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

// Len returns the number of queued items.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Title returns the queue title.
func (m *Manager) Title() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.title
}

// Items returns a copy of the queue.
func (m *Manager) Items() []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// IsSameBrowsingCategory reports whether mediaID shares the category path
// of the current item.
func (m *Manager) IsSameBrowsingCategory(mediaID string) bool {
	cur, ok := m.CurrentItem()
	if !ok {
		return false
	}
	return mediaid.SameCategory(cur.MediaID, mediaID)
}

// SetCurrentQueueItemByID moves the cursor to the item with queueID.
func (m *Manager) SetCurrentQueueItemByID(queueID int64) bool {
	m.mu.RLock()
	index := IndexOfQueueID(m.items, queueID)
	m.mu.RUnlock()
	return m.SetCurrentQueueIndex(index)
}

// SetCurrentQueueItem moves the cursor to the item with mediaID.
func (m *Manager) SetCurrentQueueItem(mediaID string) bool {
	m.mu.RLock()
	index := IndexOfMediaID(m.items, mediaID)
	m.mu.RUnlock()
	return m.SetCurrentQueueIndex(index)
}

// SetCurrentQueueIndex moves the cursor to index if it is in bounds.
func (m *Manager) SetCurrentQueueIndex(index int) bool {
	m.mu.Lock()
	if !IsIndexPlayable(index, m.items) {
		m.mu.Unlock()
		return false
	}
	m.index = index
	m.mu.Unlock()

	m.listener.OnCurrentQueueIndexUpdated(index)
	return true
}

// Skip moves the cursor by delta. Moving before the first item lands on
// it; moving past the last item fails and leaves the cursor unchanged.
func (m *Manager) Skip(delta int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.index + delta
	if target < 0 {
		target = 0
	}
	if !IsIndexPlayable(target, m.items) {
		m.logger.Debug("cannot skip",
			zap.Int("delta", delta),
			zap.Int("index", m.index),
			zap.Int("len", len(m.items)))
		return false
	}
	m.index = target
	return true
}

// SetQueue replaces the queue. The cursor goes to initialMediaID when it
// is part of items, otherwise to the first item.
func (m *Manager) SetQueue(title string, items []Item, initialMediaID string) {
	index := max(IndexOfMediaID(items, initialMediaID), 0)
	if len(items) == 0 {
		index = -1
	}

	m.mu.Lock()
	m.items = items
	m.index = index
	m.title = title
	snapshot := make([]Item, len(items))
	copy(snapshot, items)
	m.mu.Unlock()

	m.listener.OnQueueUpdated(title, snapshot)
	m.listener.OnCurrentQueueIndexUpdated(index)
}

// SetQueueFromMusic positions the queue on mediaID. When mediaID belongs
// to the current browse category the existing queue is kept, otherwise
// it is rebuilt from the catalog.
func (m *Manager) SetQueueFromMusic(mediaID string) {
	reused := false
	if m.IsSameBrowsingCategory(mediaID) {
		reused = m.SetCurrentQueueItem(mediaID)
	}
	if !reused {
		items, title := PlayingQueue(m.catalog, mediaID)
		m.SetQueue(title, items, mediaID)
	}
	m.UpdateMetadata()
}

// SetQueueFromSearch builds a queue from a search. It reports whether any
// track matched.
func (m *Manager) SetQueueFromSearch(query string, extras map[string]string) bool {
	params := ParseSearchParams(query, extras)
	m.logger.Debug("search",
		zap.String("query", query),
		zap.Stringer("focus", params.Focus))

	items := PlayingQueueFromSearch(m.catalog, params)
	m.SetQueue(titleSearchResults, items, "")
	m.UpdateMetadata()
	return len(items) > 0
}

// SetRandomQueue fills the queue with random tracks.
func (m *Manager) SetRandomQueue() {
	m.SetQueue(titleRandom, RandomQueue(m.catalog), "")
	m.UpdateMetadata()
}

// UpdateMetadata publishes the current track to the listener and fetches
// its art when missing. A newer request supersedes an older one: art
// arriving after the cursor moved stays in the art cache and is neither
// attached to the catalog track nor published.
func (m *Manager) UpdateMetadata() {
	cur, ok := m.CurrentItem()
	if !ok {
		m.listener.OnMetadataRetrieveError()
		return
	}

	musicID := mediaid.ExtractMusicID(cur.MediaID)
	track, ok := m.catalog.Track(musicID)
	if !ok {
		m.logger.Error("queue item not in catalog", zap.String("media_id", cur.MediaID))
		m.listener.OnMetadataRetrieveError()
		return
	}

	m.listener.OnMetadataChanged(track)

	if track.HasArt() || track.ArtURL == "" || m.art == nil {
		return
	}
	m.art.Request(m.ctx, artSlot, track.ArtURL, func(_ string, art albumart.Art) {
		if err := m.catalog.UpdateArt(musicID, art.Full, art.Thumb); err != nil {
			m.logger.Warn("attach art", zap.Error(err))
			return
		}
		cur, ok := m.CurrentItem()
		if !ok || mediaid.ExtractMusicID(cur.MediaID) != musicID {
			return
		}
		if updated, ok := m.catalog.Track(musicID); ok {
			m.listener.OnMetadataChanged(updated)
		}
	}, nil)
}
