package player

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNone, "None"},
		{StateStopped, "Stopped"},
		{StatePaused, "Paused"},
		{StatePlaying, "Playing"},
		{StateBuffering, "Buffering"},
		{StateError, "Error"},
		{StateConnecting, "Connecting"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateNone, false},
		{StateStopped, false},
		{StatePlaying, true},
		{StatePaused, true},
		{StateBuffering, true},
		{StateError, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsActive(); got != tt.want {
				t.Errorf("State.IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_CanPause(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateStopped, false},
		{StatePlaying, true},
		{StateBuffering, true},
		{StatePaused, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.CanPause(); got != tt.want {
				t.Errorf("State.CanPause() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineState_String(t *testing.T) {
	for s, want := range map[EngineState]string{
		EngineIdle:      "Idle",
		EngineBuffering: "Buffering",
		EngineReady:     "Ready",
		EngineEnded:     "Ended",
		EngineState(42): "Unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("EngineState(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
