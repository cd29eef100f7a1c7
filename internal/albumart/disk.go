package albumart

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

const (
	diskDirName   = "wavecast/albumart"
	diskMaxAge    = 30 * 24 * time.Hour
	pruneInterval = 24 * time.Hour
)

// DiskCache stores PNG renditions on disk so external processes, such as
// the notification daemon, can load art by path.
type DiskCache struct {
	dir string

	mu         sync.Mutex
	lastPruned time.Time
}

// NewDiskCache creates the cache under baseDir, or under the XDG cache
// directory when baseDir is empty.
func NewDiskCache(baseDir string) (*DiskCache, error) {
	if baseDir == "" {
		baseDir = xdg.CacheHome
	}
	dir := filepath.Join(baseDir, diskDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create art cache dir: %w", err)
	}

	c := &DiskCache{dir: dir}
	go c.Prune()
	return c, nil
}

func diskKey(url string, w, h int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%d", url, w, h))
	return hex.EncodeToString(sum[:])
}

// Path returns where the rendition of url at w x h lives.
func (c *DiskCache) Path(url string, w, h int) string {
	return filepath.Join(c.dir, diskKey(url, w, h)+".png")
}

// Store encodes img as PNG and writes it, returning the file path. An
// existing rendition is reused and its age reset so Prune keeps it.
func (c *DiskCache) Store(url string, img image.Image) (string, error) {
	if c == nil || img == nil {
		return "", nil
	}
	b := img.Bounds()
	path := c.Path(url, b.Dx(), b.Dy())
	if _, err := os.Stat(path); err == nil {
		now := time.Now()
		_ = os.Chtimes(path, now, now) //nolint:errcheck // best-effort
		return path, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write art: %w", err)
	}
	return path, nil
}

// Prune removes entries older than the maximum age. It is a no-op when
// called again within the prune interval.
func (c *DiskCache) Prune() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if time.Since(c.lastPruned) < pruneInterval {
		c.mu.Unlock()
		return
	}
	c.lastPruned = time.Now()
	c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-diskMaxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(c.dir, entry.Name())) //nolint:errcheck // best-effort cleanup
		}
	}
}
