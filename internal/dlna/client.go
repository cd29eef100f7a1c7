// Package dlna drives UPnP AV media renderers as cast devices.
package dlna

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/player"
)

const (
	pollInterval    = time.Second
	pollTimeout     = 3 * time.Second
	pingTimeout     = 5 * time.Second
	maxPollFailures = 3

	// finishTolerance is how close to the track end the last observed
	// position must be for a stop to count as a natural finish.
	finishTolerance = 3 * time.Second
)

// Client controls one renderer. It polls the renderer for its transport
// state and reports changes to the registered listener.
// It is safe for concurrent use.
type Client struct {
	name     string
	t        transport
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration

	mu            sync.Mutex
	connected     bool
	failures      int
	media         *player.CastMedia
	state         player.RemoteState
	idleReason    player.IdleReason
	position      time.Duration
	positionAt    time.Time
	sawPlaying    bool
	stopRequested bool
	listener      player.CastListener

	started   bool
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Connect discovers the renderer named name, checks it answers and starts
// polling it. An empty name picks the first renderer found.
func Connect(ctx context.Context, name string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	renderers, err := Discover(ctx, timeout, logger)
	if err != nil {
		return nil, err
	}
	r, err := Find(renderers, name)
	if err != nil {
		return nil, err
	}
	t, err := r.newTransport()
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := t.TransportState(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", r.FriendlyName, err)
	}

	c := newClient(r.FriendlyName, t, logger)
	c.Start()
	return c, nil
}

func newClient(name string, t transport, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		name:      name,
		t:         t,
		logger:    logger.Named("dlna").With(zap.String("device", name)),
		now:       time.Now,
		interval:  pollInterval,
		connected: true,
		done:      make(chan struct{}),
	}
}

// Start begins status polling. It is a no-op once started.
func (c *Client) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
}

// Close stops polling and marks the client disconnected.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	c.wg.Wait()
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *Client) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
			c.poll(ctx)
			cancel()
		}
	}
}

// Load sets media as the current transport URI, optionally starting it at
// position.
func (c *Client) Load(ctx context.Context, media player.CastMedia, autoPlay bool, position time.Duration) error {
	if err := c.t.SetURI(ctx, media.URL, buildDIDL(media)); err != nil {
		return fmt.Errorf("set transport uri: %w", err)
	}
	if autoPlay {
		if err := c.t.Play(ctx); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	}
	if position > 0 {
		if err := c.t.Seek(ctx, formatTime(position)); err != nil {
			c.logger.Warn("initial seek", zap.Duration("position", position), zap.Error(err))
		}
	}

	c.mu.Lock()
	m := media
	m.CustomData = maps.Clone(media.CustomData)
	c.media = &m
	if autoPlay {
		c.state = player.RemoteBuffering
	} else {
		c.state = player.RemotePaused
	}
	c.idleReason = player.IdleReasonNone
	c.position = position
	c.positionAt = c.now()
	c.sawPlaying = false
	c.stopRequested = false
	l := c.listener
	c.mu.Unlock()

	c.logger.Debug("loaded", zap.String("title", media.Title), zap.Bool("autoplay", autoPlay))
	if l != nil {
		l.OnMetadataUpdated()
	}
	return nil
}

func (c *Client) Play(ctx context.Context) error {
	if err := c.t.Play(ctx); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	c.mu.Lock()
	c.positionAt = c.now()
	c.stopRequested = false
	changed := c.setStateLocked(player.RemotePlaying)
	l := c.listener
	c.mu.Unlock()
	notifyStatus(l, changed)
	return nil
}

func (c *Client) Pause(ctx context.Context) error {
	if err := c.t.Pause(ctx); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	c.mu.Lock()
	c.position = c.approximatePositionLocked()
	c.positionAt = c.now()
	changed := c.setStateLocked(player.RemotePaused)
	l := c.listener
	c.mu.Unlock()
	notifyStatus(l, changed)
	return nil
}

func (c *Client) Seek(ctx context.Context, pos time.Duration) error {
	if err := c.t.Seek(ctx, formatTime(pos)); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	c.mu.Lock()
	c.position = pos
	c.positionAt = c.now()
	c.mu.Unlock()
	return nil
}

func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.stopRequested = true
	c.mu.Unlock()

	if err := c.t.Stop(ctx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	c.mu.Lock()
	c.media = nil
	c.position = 0
	c.idleReason = player.IdleReasonCanceled
	changed := c.setStateLocked(player.RemoteIdle)
	l := c.listener
	c.mu.Unlock()
	notifyStatus(l, changed)
	return nil
}

// SetVolume sets the renderer volume from a 0..1 level.
func (c *Client) SetVolume(ctx context.Context, level float64) error {
	level = min(max(level, 0), 1)
	if err := c.t.SetVolume(ctx, uint16(level*100+0.5)); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

// Volume returns the renderer volume as a 0..1 level.
func (c *Client) Volume(ctx context.Context) (float64, error) {
	v, err := c.t.Volume(ctx)
	if err != nil {
		return 0, fmt.Errorf("get volume: %w", err)
	}
	return min(float64(v)/100, 1), nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) HasMediaSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.media != nil
}

func (c *Client) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == player.RemotePlaying
}

// ApproximatePosition extrapolates the last observed position while
// playing.
func (c *Client) ApproximatePosition() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.approximatePositionLocked()
}

func (c *Client) approximatePositionLocked() time.Duration {
	pos := c.position
	if c.state == player.RemotePlaying {
		pos += c.now().Sub(c.positionAt)
	}
	if c.media != nil && c.media.Duration > 0 && pos > c.media.Duration {
		pos = c.media.Duration
	}
	return pos
}

func (c *Client) MediaInfo() (player.CastMedia, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.media == nil {
		return player.CastMedia{}, false
	}
	m := *c.media
	m.CustomData = maps.Clone(c.media.CustomData)
	return m, true
}

func (c *Client) PlayerState() player.RemoteState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IdleReason() player.IdleReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idleReason
}

func (c *Client) DeviceName() string { return c.name }

func (c *Client) SetListener(l player.CastListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// poll refreshes the transport state, position and metadata from the
// renderer.
func (c *Client) poll(ctx context.Context) {
	ts, err := c.t.TransportState(ctx)
	if err != nil {
		c.pollFailed(err)
		return
	}
	info, err := c.t.PositionInfo(ctx)
	if err != nil {
		c.logger.Debug("position info", zap.Error(err))
	}

	c.mu.Lock()
	c.failures = 0
	c.connected = true

	if rel, err := parseTime(info.RelTime); err == nil && ts != transportStopped && ts != transportNoMediaPresent {
		c.position = rel
		c.positionAt = c.now()
	}
	metaChanged := c.adoptRemoteMetadataLocked(info)

	changed := false
	switch ts {
	case transportPlaying:
		c.sawPlaying = true
		changed = c.setStateLocked(player.RemotePlaying)
	case transportPaused:
		changed = c.setStateLocked(player.RemotePaused)
	case transportTransitioning:
		changed = c.setStateLocked(player.RemoteBuffering)
	case transportStopped, transportNoMediaPresent:
		changed = c.stoppedLocked()
	default:
		c.logger.Debug("unknown transport state", zap.String("state", ts))
	}
	l := c.listener
	c.mu.Unlock()

	notifyStatus(l, changed)
	if metaChanged && l != nil {
		l.OnMetadataUpdated()
	}
}

// stoppedLocked handles a stopped renderer. A stop after playback that we
// did not request is reported once as a finish, or as an interruption
// when it happened away from the end of the track.
func (c *Client) stoppedLocked() bool {
	if c.media == nil || c.stopRequested {
		return c.setStateLocked(player.RemoteIdle)
	}
	if !c.sawPlaying {
		return false
	}
	c.sawPlaying = false

	reason := player.IdleReasonFinished
	if d := c.media.Duration; d > 0 && c.position < d-finishTolerance {
		reason = player.IdleReasonInterrupted
	}
	c.idleReason = reason
	c.state = player.RemoteIdle
	c.logger.Debug("renderer stopped", zap.Int("reason", int(reason)))
	return true
}

// adoptRemoteMetadataLocked takes over the item reported by the renderer
// when its item id differs from ours.
func (c *Client) adoptRemoteMetadataLocked(info positionInfo) bool {
	remote, ok := parseDIDL(info.TrackMetaData)
	if !ok {
		return false
	}
	id := remote.CustomData[player.CustomDataItemID]
	if id == "" {
		return false
	}
	if c.media != nil && c.media.CustomData[player.CustomDataItemID] == id {
		return false
	}
	if remote.URL == "" {
		remote.URL = info.TrackURI
	}
	if d, err := parseTime(info.TrackDuration); err == nil {
		remote.Duration = d
	}
	remote.ContentType = player.MimeTypeAudioMPEG
	c.media = &remote
	return true
}

func (c *Client) pollFailed(err error) {
	c.mu.Lock()
	c.failures++
	lost := c.connected && c.failures >= maxPollFailures
	if lost {
		c.connected = false
	}
	l := c.listener
	c.mu.Unlock()

	c.logger.Debug("poll", zap.Error(err))
	if lost {
		c.logger.Warn("renderer unreachable", zap.Error(err))
		notifyStatus(l, true)
	}
}

func (c *Client) setStateLocked(s player.RemoteState) bool {
	if c.state == s {
		return false
	}
	c.state = s
	if s != player.RemoteIdle {
		c.idleReason = player.IdleReasonNone
	}
	return true
}

func notifyStatus(l player.CastListener, changed bool) {
	if changed && l != nil {
		l.OnStatusUpdated()
	}
}

var _ player.CastClient = (*Client)(nil)
