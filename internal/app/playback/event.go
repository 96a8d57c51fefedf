package playback

// EventType represents a transport event type.
type EventType int

const (
	EventTrackChanged   EventType = iota // A different track was loaded
	EventStateChanged                    // Play/pause flag or mode settings changed
	EventProgress                        // Elapsed time or duration moved
	EventLibraryChanged                  // Tracks were added or removed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventProgress:
		return "progress"
	case EventLibraryChanged:
		return "library_changed"
	default:
		return "unknown"
	}
}

// Event is emitted on the transport's event channel after a state
// change, carrying a consistent snapshot taken under the same lock.
type Event struct {
	Type   EventType
	Status Status
}
