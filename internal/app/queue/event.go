package queue

// Event represents a requested queue transition.
type Event int

const (
	EventNext     Event = iota // Advance to the next track
	EventPrevious              // Step back to the previous track
	EventSelect                // Jump to an explicit index
	EventEnded                 // The current track finished naturally
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case EventNext:
		return "next"
	case EventPrevious:
		return "previous"
	case EventSelect:
		return "select"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}
