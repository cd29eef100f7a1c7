package playback

// StateChange is emitted each time a playback state is published.
type StateChange struct {
	Previous PlaybackState
	Current  PlaybackState
}

// ErrorEvent is emitted when a published state carries an error.
type ErrorEvent struct {
	Message string
}

// BackendChange is emitted after SwitchToPlayback.
type BackendChange struct {
	// Remote is set when the new backend renders on a cast device.
	Remote bool
	// DeviceName is the cast device name, empty for local playback.
	DeviceName string
}
