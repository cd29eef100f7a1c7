// internal/player/stream.go
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/httpclient"
)

// outputRate is the speaker sample rate; streams at other rates are
// resampled.
const outputRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
	})
	return speakerErr
}

// ErrReleased is reported when a prepared stream finishes loading after
// the engine was released.
var ErrReleased = errors.New("engine released")

// StreamEngine plays mp3 streams fetched over HTTP on the system audio
// output.
type StreamEngine struct {
	client *retryablehttp.Client
	logger *zap.Logger

	mu            sync.Mutex
	listener      EngineListener
	state         EngineState
	playWhenReady bool
	level         float64
	generation    uint64
	cancel        context.CancelFunc

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	position time.Duration
}

// NewStreamEngine creates an engine fetching sources with client.
func NewStreamEngine(client *retryablehttp.Client, logger *zap.Logger) *StreamEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamEngine{
		client: client,
		logger: logger.Named("engine"),
		level:  VolumeNormal,
	}
}

// StreamEngineFactory returns an EngineFactory sharing client.
func StreamEngineFactory(client *retryablehttp.Client, logger *zap.Logger) EngineFactory {
	return func() Engine { return NewStreamEngine(client, logger) }
}

func (e *StreamEngine) Prepare(source string) error {
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	e.mu.Lock()
	e.stopLocked()
	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.state = EngineBuffering
	e.position = 0
	e.mu.Unlock()

	e.emit()
	go e.load(ctx, gen, source)
	return nil
}

func (e *StreamEngine) load(ctx context.Context, gen uint64, source string) {
	data, err := httpclient.GetLimited(ctx, e.client, source, httpclient.MaxMediaSize)
	if err != nil {
		e.fail(gen, fmt.Errorf("fetch %s: %w", source, err))
		return
	}
	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		e.fail(gen, fmt.Errorf("decode %s: %w", source, err))
		return
	}

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		_ = streamer.Close()
		return
	}
	if e.position > 0 {
		_ = streamer.Seek(clampSample(format.SampleRate.N(e.position), streamer.Len()))
	}
	var s beep.Streamer = streamer
	if format.SampleRate != outputRate {
		s = beep.Resample(4, format.SampleRate, outputRate, streamer)
	}
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: s, Paused: !e.playWhenReady}
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   levelToVolume(e.level),
		Silent:   e.level <= 0,
	}
	e.state = EngineReady
	vol := e.volume
	e.mu.Unlock()

	e.logger.Debug("stream ready",
		zap.String("source", source),
		zap.Int("sample_rate", int(format.SampleRate)),
		zap.Int("bytes", len(data)))

	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked.
		go e.ended(gen)
	})))
	e.emit()
}

func (e *StreamEngine) fail(gen uint64, err error) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.state = EngineIdle
	l := e.listener
	e.mu.Unlock()

	if errors.Is(err, context.Canceled) {
		return
	}
	if l != nil {
		l.OnEngineError(err)
	}
}

func (e *StreamEngine) ended(gen uint64) {
	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		return
	}
	e.state = EngineEnded
	e.mu.Unlock()
	e.emit()
}

func (e *StreamEngine) SetPlayWhenReady(play bool) {
	e.mu.Lock()
	changed := e.playWhenReady != play
	e.playWhenReady = play
	ctrl := e.ctrl
	e.mu.Unlock()

	if ctrl != nil {
		speaker.Lock()
		ctrl.Paused = !play
		speaker.Unlock()
	}
	if changed {
		e.emit()
	}
}

func (e *StreamEngine) PlayWhenReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playWhenReady
}

func (e *StreamEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *StreamEngine) Position() time.Duration {
	e.mu.Lock()
	streamer, format, pos := e.streamer, e.format, e.position
	e.mu.Unlock()
	if streamer == nil {
		return pos
	}
	speaker.Lock()
	defer speaker.Unlock()
	return format.SampleRate.D(streamer.Position())
}

func (e *StreamEngine) SeekTo(pos time.Duration) {
	e.mu.Lock()
	e.position = pos
	streamer, format := e.streamer, e.format
	e.mu.Unlock()
	if streamer == nil {
		return
	}
	speaker.Lock()
	err := streamer.Seek(clampSample(format.SampleRate.N(pos), streamer.Len()))
	speaker.Unlock()
	if err != nil {
		e.logger.Warn("seek", zap.Duration("position", pos), zap.Error(err))
	}
}

// SetVolume sets the level in [0, 1]. Values outside are clamped.
func (e *StreamEngine) SetVolume(level float64) {
	level = max(0, min(1, level))
	e.mu.Lock()
	e.level = level
	vol := e.volume
	e.mu.Unlock()
	if vol == nil {
		return
	}
	speaker.Lock()
	vol.Volume = levelToVolume(level)
	vol.Silent = level <= 0
	speaker.Unlock()
}

func (e *StreamEngine) SetListener(l EngineListener) {
	e.mu.Lock()
	e.listener = l
	e.mu.Unlock()
}

func (e *StreamEngine) Release() {
	e.mu.Lock()
	e.stopLocked()
	e.generation++
	e.state = EngineIdle
	e.playWhenReady = false
	e.mu.Unlock()
}

// stopLocked cancels a pending load and closes the current stream.
func (e *StreamEngine) stopLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.streamer == nil {
		return
	}
	speaker.Clear()
	_ = e.streamer.Close()
	e.streamer = nil
	e.ctrl = nil
	e.volume = nil
}

func (e *StreamEngine) emit() {
	e.mu.Lock()
	l, play, state := e.listener, e.playWhenReady, e.state
	e.mu.Unlock()
	if l != nil {
		l.OnEngineStateChanged(play, state)
	}
}

// levelToVolume converts a 0.0-1.0 level to beep's base 2 Volume.
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (essentially silent).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

func clampSample(n, length int) int {
	if n < 0 {
		return 0
	}
	if length > 0 && n >= length {
		return length - 1
	}
	return n
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

var _ Engine = (*StreamEngine)(nil)
