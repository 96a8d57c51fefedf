// Package engine defines the contract the transport drives playback
// through. The underlying media primitive (MPD, a test double) lives
// behind this boundary.
package engine

// NotificationType represents a notification from the engine.
type NotificationType int

const (
	NotificationProgress NotificationType = iota // Elapsed/duration update, coalesced
	NotificationEnded                            // The loaded track finished naturally
)

// String returns the string representation of the notification type.
func (t NotificationType) String() string {
	switch t {
	case NotificationProgress:
		return "progress"
	case NotificationEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Notification is delivered on an engine's notification channel.
// Elapsed and Duration are in seconds and only meaningful for Progress.
type Notification struct {
	Type     NotificationType
	Elapsed  float64
	Duration float64
}

// Engine is the playback primitive boundary.
//
// Load must never start playback on its own. Play is best-effort:
// callers treat a failure as "not confirmed playing", never as fatal.
// Ended is emitted exactly once per naturally completed track and never
// synthesized for commands the caller issued itself.
type Engine interface {
	Load(url string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	Notifications() <-chan Notification
	Close() error
}
