// Package catalog holds the in-memory music catalog loaded from a Source.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrTrackNotFound is returned when an operation names an unknown track.
var ErrTrackNotFound = errors.New("track not found")

// Source produces the full track list of a catalog.
type Source interface {
	Fetch(ctx context.Context) ([]Track, error)
}

// FavoriteStore persists the favorite flags.
type FavoriteStore interface {
	Favorites() ([]string, error)
	SetFavorite(id string, favorite bool) error
}

// Catalog indexes tracks by id and by genre.
// It is safe for concurrent use.
type Catalog struct {
	source Source
	store  FavoriteStore
	logger *zap.Logger

	// loadMu serializes Load so only one fetch runs at a time.
	loadMu sync.Mutex

	mu        sync.RWMutex
	state     State
	byID      map[string]*Track
	order     []string
	byGenre   map[string][]string
	favorites map[string]struct{}
}

// New creates a catalog backed by source. store may be nil, in which case
// favorites only live in memory.
func New(source Source, store FavoriteStore, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		source:    source,
		store:     store,
		logger:    logger.Named("catalog"),
		byID:      make(map[string]*Track),
		byGenre:   make(map[string][]string),
		favorites: make(map[string]struct{}),
	}
	if store != nil {
		ids, err := store.Favorites()
		if err != nil {
			c.logger.Warn("restore favorites", zap.Error(err))
		}
		for _, id := range ids {
			c.favorites[id] = struct{}{}
		}
	}
	return c
}

// State returns the current load state.
func (c *Catalog) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsInitialized reports whether the catalog finished loading.
func (c *Catalog) IsInitialized() bool {
	return c.State() == StateInitialized
}

func (c *Catalog) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Load fetches the catalog from its source. It returns immediately once
// the catalog is initialized. Concurrent callers wait for the running load
// and observe its outcome. On failure the catalog goes back to
// StateNotInitialized so a later call retries.
func (c *Catalog) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.IsInitialized() {
		return nil
	}
	c.setState(StateInitializing)

	tracks, err := c.source.Fetch(ctx)
	if err != nil {
		c.setState(StateNotInitialized)
		return fmt.Errorf("fetch catalog: %w", err)
	}

	byID := make(map[string]*Track, len(tracks))
	order := make([]string, 0, len(tracks))
	for i := range tracks {
		t := tracks[i]
		if _, dup := byID[t.ID]; !dup {
			order = append(order, t.ID)
		}
		byID[t.ID] = &t
	}
	byGenre := make(map[string][]string)
	for _, id := range order {
		g := byID[id].Genre
		byGenre[g] = append(byGenre[g], id)
	}

	c.mu.Lock()
	c.byID = byID
	c.order = order
	c.byGenre = byGenre
	c.state = StateInitialized
	c.mu.Unlock()

	c.logger.Info("catalog loaded",
		zap.Int("tracks", len(order)),
		zap.Int("genres", len(byGenre)))
	return nil
}

// LoadAsync runs Load in the background and reports the result to done,
// which may be nil.
func (c *Catalog) LoadAsync(ctx context.Context, done func(error)) {
	go func() {
		err := c.Load(ctx)
		if err != nil {
			c.logger.Error("catalog load failed", zap.Error(err))
		}
		if done != nil {
			done(err)
		}
	}()
}

// Genres returns the sorted genre names. Empty until initialized.
func (c *Catalog) Genres() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateInitialized {
		return nil
	}
	genres := make([]string, 0, len(c.byGenre))
	for g := range c.byGenre {
		genres = append(genres, g)
	}
	slices.Sort(genres)
	return genres
}

// TracksByGenre returns the tracks of genre in load order.
func (c *Catalog) TracksByGenre(genre string) []Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateInitialized {
		return nil
	}
	ids := c.byGenre[genre]
	out := make([]Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, *c.byID[id])
	}
	return out
}

// Track returns the track with the given id.
func (c *Catalog) Track(id string) (Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return Track{}, false
	}
	return *t, true
}

// Len returns the number of loaded tracks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Search returns tracks whose field contains query, ignoring case.
func (c *Catalog) Search(field Field, query string) []Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateInitialized {
		return nil
	}
	q := strings.ToLower(query)
	var out []Track
	for _, id := range c.order {
		t := c.byID[id]
		if strings.Contains(strings.ToLower(field.value(t)), q) {
			out = append(out, *t)
		}
	}
	return out
}

func (c *Catalog) SearchByTitle(q string) []Track  { return c.Search(FieldTitle, q) }
func (c *Catalog) SearchByAlbum(q string) []Track  { return c.Search(FieldAlbum, q) }
func (c *Catalog) SearchByArtist(q string) []Track { return c.Search(FieldArtist, q) }
func (c *Catalog) SearchByGenre(q string) []Track  { return c.Search(FieldGenre, q) }

// Shuffled returns every track in random order.
func (c *Catalog) Shuffled() []Track {
	c.mu.RLock()
	if c.state != StateInitialized {
		c.mu.RUnlock()
		return nil
	}
	out := make([]Track, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	c.mu.RUnlock()

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// UpdateArt attaches decoded art to a track.
func (c *Catalog) UpdateArt(id string, full, thumb image.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("update art %q: %w", id, ErrTrackNotFound)
	}
	t.FullArt = full
	t.ThumbArt = thumb
	return nil
}

// SetFavorite sets or clears the favorite flag of a track. The in-memory
// flag is always updated; the returned error reports a persistence failure.
func (c *Catalog) SetFavorite(id string, favorite bool) error {
	c.mu.Lock()
	if favorite {
		c.favorites[id] = struct{}{}
	} else {
		delete(c.favorites, id)
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.SetFavorite(id, favorite); err != nil {
		return fmt.Errorf("persist favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether the track is marked as favorite.
func (c *Catalog) IsFavorite(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.favorites[id]
	return ok
}
