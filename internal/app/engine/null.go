package engine

import zlog "github.com/rs/zerolog/log"

// Null is an inert engine that accepts every command and never emits
// notifications. It lets the daemon run without an audio backend.
type Null struct {
	notif chan Notification
}

// NewNull creates a Null engine.
func NewNull() *Null {
	return &Null{notif: make(chan Notification)}
}

// Load accepts the URL and does nothing.
func (n *Null) Load(url string) error {
	zlog.Debug().Msgf("engine: null engine loaded %s", url)
	return nil
}

// Play does nothing.
func (n *Null) Play() error { return nil }

// Pause does nothing.
func (n *Null) Pause() error { return nil }

// Seek does nothing.
func (n *Null) Seek(seconds float64) error { return nil }

// SetVolume does nothing.
func (n *Null) SetVolume(v float64) error { return nil }

// Notifications returns a channel that never delivers.
func (n *Null) Notifications() <-chan Notification { return n.notif }

// Close releases the notification channel.
func (n *Null) Close() error {
	close(n.notif)
	return nil
}
