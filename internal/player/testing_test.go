package player

import (
	"sync"
	"testing"

	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/mediaid"
	"github.com/llehouerou/wavecast/internal/queue"
)

type recordingCallback struct {
	mu          sync.Mutex
	completions int
	states      []State
	errors      []string
	mediaIDs    []string
}

func (c *recordingCallback) OnCompletion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completions++
}

func (c *recordingCallback) OnPlaybackStatusChanged(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, s)
}

func (c *recordingCallback) OnError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

func (c *recordingCallback) SetCurrentMediaID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mediaIDs = append(c.mediaIDs, id)
}

func (c *recordingCallback) lastState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.states) == 0 {
		return StateNone
	}
	return c.states[len(c.states)-1]
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New(catalog.NewMockSource(
		catalog.Track{ID: "r1", Title: "Road One", Genre: "Rock", Artist: "Band A", Source: "http://media/rock/road one.mp3"},
		catalog.Track{ID: "r2", Title: "Road Two", Genre: "Rock", Artist: "Band A", Source: "http://media/rock/road-two.mp3"},
	), nil, nil)
	if err := c.Load(t.Context()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return c
}

func rockItem(id string) queue.Item {
	return queue.Item{MediaID: mediaid.MustCreate(id, mediaid.ByGenre, "Rock")}
}
