// internal/player/mock.go
package player

import (
	"context"
	"sync"
	"time"

	"github.com/llehouerou/wavecast/internal/queue"
)

// MockEngine is a test double for Engine. Events are delivered
// synchronously on the calling goroutine.
type MockEngine struct {
	mu            sync.Mutex
	listener      EngineListener
	state         EngineState
	playWhenReady bool
	position      time.Duration
	volume        float64
	prepared      []string
	prepareErr    error
	released      bool
}

// NewMockEngine creates an idle mock engine.
func NewMockEngine() *MockEngine {
	return &MockEngine{volume: VolumeNormal}
}

func (m *MockEngine) Prepare(source string) error {
	m.mu.Lock()
	m.prepared = append(m.prepared, source)
	if m.prepareErr != nil {
		m.mu.Unlock()
		return m.prepareErr
	}
	m.state = EngineBuffering
	m.position = 0
	m.mu.Unlock()
	m.emit()
	return nil
}

func (m *MockEngine) SetPlayWhenReady(play bool) {
	m.mu.Lock()
	changed := m.playWhenReady != play
	m.playWhenReady = play
	m.mu.Unlock()
	if changed {
		m.emit()
	}
}

func (m *MockEngine) PlayWhenReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playWhenReady
}

func (m *MockEngine) State() EngineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockEngine) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockEngine) SeekTo(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
}

func (m *MockEngine) SetVolume(level float64) {
	m.mu.Lock()
	m.volume = level
	m.mu.Unlock()
}

func (m *MockEngine) SetListener(l EngineListener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

func (m *MockEngine) Release() {
	m.mu.Lock()
	m.released = true
	m.state = EngineIdle
	m.mu.Unlock()
}

func (m *MockEngine) emit() {
	m.mu.Lock()
	l, play, state := m.listener, m.playWhenReady, m.state
	m.mu.Unlock()
	if l != nil {
		l.OnEngineStateChanged(play, state)
	}
}

// Test helpers

func (m *MockEngine) SetPrepareError(err error) {
	m.mu.Lock()
	m.prepareErr = err
	m.mu.Unlock()
}

// FinishBuffering moves the engine to Ready.
func (m *MockEngine) FinishBuffering() {
	m.mu.Lock()
	m.state = EngineReady
	m.mu.Unlock()
	m.emit()
}

// SimulateEnded moves the engine to Ended.
func (m *MockEngine) SimulateEnded() {
	m.mu.Lock()
	m.state = EngineEnded
	m.mu.Unlock()
	m.emit()
}

// SimulateError reports err to the listener.
func (m *MockEngine) SimulateError(err error) {
	m.mu.Lock()
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnEngineError(err)
	}
}

func (m *MockEngine) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

func (m *MockEngine) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MockEngine) Prepared() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prepared...)
}

func (m *MockEngine) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

var _ Engine = (*MockEngine)(nil)

// Mock is a test double for Playback.
type Mock struct {
	mu             sync.Mutex
	state          State
	connected      bool
	position       time.Duration
	callback       Callback
	currentMediaID string
	started        bool
	playCalls      []queue.Item
	pauseCalls     int
	stopCalls      []bool
	seekCalls      []time.Duration
}

// NewMock creates a connected mock backend in StateNone.
func NewMock() *Mock {
	return &Mock{connected: true, callback: nopCallback{}}
}

func (m *Mock) Start() {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
}

func (m *Mock) Stop(notify bool) {
	m.mu.Lock()
	m.stopCalls = append(m.stopCalls, notify)
	m.state = StateStopped
	cb := m.callback
	m.mu.Unlock()
	if notify {
		cb.OnPlaybackStatusChanged(StateStopped)
	}
}

func (m *Mock) SetState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StatePlaying
}

func (m *Mock) CurrentStreamPosition() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) UpdateLastKnownStreamPosition() {}

func (m *Mock) SetCurrentStreamPosition(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
}

func (m *Mock) Play(item queue.Item) {
	m.mu.Lock()
	m.playCalls = append(m.playCalls, item)
	m.currentMediaID = item.MediaID
	m.state = StatePlaying
	cb := m.callback
	m.mu.Unlock()
	cb.OnPlaybackStatusChanged(StatePlaying)
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.pauseCalls++
	m.state = StatePaused
	cb := m.callback
	m.mu.Unlock()
	cb.OnPlaybackStatusChanged(StatePaused)
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, pos)
	m.position = pos
	m.mu.Unlock()
}

func (m *Mock) SetCallback(cb Callback) {
	if cb == nil {
		cb = nopCallback{}
	}
	m.mu.Lock()
	m.callback = cb
	m.mu.Unlock()
}

func (m *Mock) SetCurrentMediaID(id string) {
	m.mu.Lock()
	m.currentMediaID = id
	m.mu.Unlock()
}

func (m *Mock) CurrentMediaID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentMediaID
}

// Test helpers

func (m *Mock) SetConnected(c bool) {
	m.mu.Lock()
	m.connected = c
	m.mu.Unlock()
}

func (m *Mock) SetPosition(d time.Duration) {
	m.mu.Lock()
	m.position = d
	m.mu.Unlock()
}

func (m *Mock) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func (m *Mock) PlayCalls() []queue.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queue.Item(nil), m.playCalls...)
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) StopCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.stopCalls...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) callbackLocked() Callback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callback
}

// SimulateCompletion reports the end of the current track.
func (m *Mock) SimulateCompletion() { m.callbackLocked().OnCompletion() }

// SimulateError reports a backend error.
func (m *Mock) SimulateError(msg string) {
	m.SetState(StateError)
	m.callbackLocked().OnError(msg)
}

// SimulateRemoteMediaID reports a track change made outside this process.
func (m *Mock) SimulateRemoteMediaID(id string) {
	m.SetCurrentMediaID(id)
	m.callbackLocked().SetCurrentMediaID(id)
}

// MockCastClient is a test double for CastClient.
type MockCastClient struct {
	mu         sync.Mutex
	name       string
	connected  bool
	loaded     bool
	playing    bool
	position   time.Duration
	media      CastMedia
	state      RemoteState
	idleReason IdleReason
	listener   CastListener
	loadErr    error
	loads      []CastMedia
	autoPlays  []bool
	pauses     int
	seeks      []time.Duration
}

// NewMockCastClient creates a connected device named name.
func NewMockCastClient(name string) *MockCastClient {
	return &MockCastClient{name: name, connected: true}
}

func (m *MockCastClient) Load(_ context.Context, media CastMedia, autoPlay bool, pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loads = append(m.loads, media)
	m.autoPlays = append(m.autoPlays, autoPlay)
	m.media = media
	m.loaded = true
	m.playing = autoPlay
	m.position = pos
	return nil
}

func (m *MockCastClient) Play(context.Context) error {
	m.mu.Lock()
	m.playing = true
	m.mu.Unlock()
	return nil
}

func (m *MockCastClient) Pause(context.Context) error {
	m.mu.Lock()
	m.pauses++
	m.playing = false
	m.mu.Unlock()
	return nil
}

func (m *MockCastClient) Seek(_ context.Context, pos time.Duration) error {
	m.mu.Lock()
	m.seeks = append(m.seeks, pos)
	m.position = pos
	m.mu.Unlock()
	return nil
}

func (m *MockCastClient) Stop(context.Context) error {
	m.mu.Lock()
	m.playing = false
	m.loaded = false
	m.mu.Unlock()
	return nil
}

func (m *MockCastClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockCastClient) HasMediaSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *MockCastClient) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *MockCastClient) ApproximatePosition() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *MockCastClient) MediaInfo() (CastMedia, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.media, m.loaded
}

func (m *MockCastClient) PlayerState() RemoteState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockCastClient) IdleReason() IdleReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idleReason
}

func (m *MockCastClient) DeviceName() string { return m.name }

func (m *MockCastClient) SetListener(l CastListener) {
	m.mu.Lock()
	m.listener = l
	m.mu.Unlock()
}

// Test helpers

func (m *MockCastClient) SetConnected(c bool) {
	m.mu.Lock()
	m.connected = c
	m.mu.Unlock()
}

func (m *MockCastClient) SetLoadError(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

func (m *MockCastClient) HasListener() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener != nil
}

func (m *MockCastClient) Loads() []CastMedia {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CastMedia(nil), m.loads...)
}

func (m *MockCastClient) AutoPlays() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.autoPlays...)
}

func (m *MockCastClient) Pauses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses
}

func (m *MockCastClient) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

// SimulateStatus sets the remote state and notifies the listener.
func (m *MockCastClient) SimulateStatus(s RemoteState, reason IdleReason) {
	m.mu.Lock()
	m.state = s
	m.idleReason = reason
	m.playing = s == RemotePlaying
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnStatusUpdated()
	}
}

// SimulateRemoteItem replaces the loaded item as another sender would.
func (m *MockCastClient) SimulateRemoteItem(mediaID string) {
	m.mu.Lock()
	m.media.CustomData = map[string]string{CustomDataItemID: mediaID}
	m.loaded = true
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.OnMetadataUpdated()
	}
}

var _ CastClient = (*MockCastClient)(nil)
