// internal/albumart/cache.go
package albumart

import (
	"bytes"
	"container/list"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/errmsg"
)

// MaxCacheBytes is the hard ceiling of the in-memory budget.
const MaxCacheBytes = 12 * 1024 * 1024

// Config tunes a Cache. Zero values select the defaults.
type Config struct {
	MaxBytes    int64
	FullWidth   uint
	FullHeight  uint
	ThumbWidth  uint
	ThumbHeight uint
}

// SuccessFunc receives fetched art.
type SuccessFunc func(url string, art Art)

// ErrorFunc receives fetch failures.
type ErrorFunc func(url string, err error)

// Cache is an in-memory LRU of decoded art bounded by byte size.
//
// FetchAsync does not coalesce concurrent fetches of the same url: each
// caller runs its own download and the last one to finish wins the slot.
// Request adds per-requester supersession on top of that.
type Cache struct {
	fetcher Fetcher
	logger  *zap.Logger
	cfg     Config

	mu    sync.Mutex
	ll    *list.List
	items map[string]*list.Element
	size  int64
	slots map[string]*slot
}

type entry struct {
	url  string
	art  Art
	size int64
}

type slot struct {
	gen    uint64
	cancel context.CancelFunc
}

// New creates a cache that downloads through fetcher.
func New(fetcher Fetcher, cfg Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBytes <= 0 || cfg.MaxBytes > MaxCacheBytes {
		cfg.MaxBytes = MaxCacheBytes
	}
	if cfg.FullWidth == 0 || cfg.FullHeight == 0 {
		cfg.FullWidth, cfg.FullHeight = FullWidth, FullHeight
	}
	if cfg.ThumbWidth == 0 || cfg.ThumbHeight == 0 {
		cfg.ThumbWidth, cfg.ThumbHeight = ThumbWidth, ThumbHeight
	}
	return &Cache{
		fetcher: fetcher,
		logger:  logger.Named("albumart"),
		cfg:     cfg,
		ll:      list.New(),
		items:   make(map[string]*list.Element),
		slots:   make(map[string]*slot),
	}
}

// MaxBytes returns the effective byte budget.
func (c *Cache) MaxBytes() int64 { return c.cfg.MaxBytes }

// Size returns the bytes currently held.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Get returns cached art for url without fetching.
func (c *Cache) Get(url string) (Art, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[url]
	if !ok {
		return Art{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).art, true
}

// Put stores art under url, evicting least recently used entries to stay
// within budget. Art larger than the whole budget is not stored.
func (c *Cache) Put(url string, art Art) {
	size := art.Size()
	if size > c.cfg.MaxBytes {
		c.logger.Debug("art exceeds cache budget",
			zap.String("url", url),
			zap.String("size", humanize.IBytes(uint64(size))))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[url]; ok {
		e := el.Value.(*entry)
		c.size += size - e.size
		e.art, e.size = art, size
		c.ll.MoveToFront(el)
	} else {
		c.items[url] = c.ll.PushFront(&entry{url: url, art: art, size: size})
		c.size += size
	}

	for c.size > c.cfg.MaxBytes {
		el := c.ll.Back()
		if el == nil {
			break
		}
		e := el.Value.(*entry)
		c.ll.Remove(el)
		delete(c.items, e.url)
		c.size -= e.size
	}
}

// FetchAsync calls onSuccess synchronously when url is cached, otherwise
// downloads, decodes and downscales it in the background, stores the
// result, then calls onSuccess. Failures are logged and passed to onError,
// which may be nil.
func (c *Cache) FetchAsync(ctx context.Context, url string, onSuccess SuccessFunc, onError ErrorFunc) {
	if art, ok := c.Get(url); ok {
		onSuccess(url, art)
		return
	}
	go func() {
		art, err := c.fetch(ctx, url)
		if err != nil {
			c.fail(url, err, onError)
			return
		}
		c.Put(url, art)
		onSuccess(url, art)
	}()
}

// Request behaves like FetchAsync, scoped to a requester slot. A new
// request on the same slot cancels the previous one, whose result is
// dropped even if its download already completed.
func (c *Cache) Request(ctx context.Context, slotName, url string, onSuccess SuccessFunc, onError ErrorFunc) {
	rctx, gen := c.claim(ctx, slotName)

	if art, ok := c.Get(url); ok {
		c.release(slotName, gen)
		onSuccess(url, art)
		return
	}

	go func() {
		defer c.release(slotName, gen)
		art, err := c.fetch(rctx, url)
		if err == nil {
			c.Put(url, art)
		}
		if !c.isCurrent(slotName, gen) {
			c.logger.Debug("drop stale art result", zap.String("slot", slotName), zap.String("url", url))
			return
		}
		if err != nil {
			c.fail(url, err, onError)
			return
		}
		onSuccess(url, art)
	}()
}

// Cancel aborts the pending request on slotName, if any.
func (c *Cache) Cancel(slotName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[slotName]
	if !ok {
		return
	}
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (c *Cache) claim(ctx context.Context, slotName string) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[slotName]
	if !ok {
		s = &slot{}
		c.slots[slotName] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return rctx, s.gen
}

func (c *Cache) release(slotName string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[slotName]
	if !ok || s.gen != gen || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

func (c *Cache) isCurrent(slotName string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[slotName]
	return ok && s.gen == gen
}

func (c *Cache) fail(url string, err error, onError ErrorFunc) {
	c.logger.Warn(errmsg.FormatWith(errmsg.OpArtFetch, url, err))
	if onError != nil {
		onError(url, err)
	}
}

func (c *Cache) fetch(ctx context.Context, url string) (Art, error) {
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return Art{}, err
	}
	if err := ctx.Err(); err != nil {
		return Art{}, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Art{}, fmt.Errorf("decode image: %w", err)
	}
	full := scale(img, c.cfg.FullWidth, c.cfg.FullHeight)
	thumb := scale(full, c.cfg.ThumbWidth, c.cfg.ThumbHeight)
	art := Art{Full: full, Thumb: thumb}
	c.logger.Debug("album art decoded",
		zap.String("url", url),
		zap.String("size", humanize.IBytes(uint64(art.Size()))))
	return art, nil
}
