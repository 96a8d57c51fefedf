// Package playback provides the transport: the stateful controller
// that owns the current playback position and mode settings.
package playback

// State represents the transport state.
type State int

const (
	StateIdle    State = iota // No track selected
	StatePaused               // Track loaded, playback halted
	StatePlaying              // Track loaded and playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}
