// Package library provides the ordered track collection.
package library

import (
	"sync"

	"github.com/okbx/trackbox/internal/domain/track"
)

// RemovalResult reports the outcome of a Remove call.
type RemovalResult struct {
	Index int  // Index the track occupied before removal
	Found bool // False when no track matched the ID
}

// Library is an ordered collection of tracks with stable IDs.
// Insertion order defines next/previous in linear playback.
// The library knows nothing about playback state.
type Library struct {
	mu     sync.RWMutex
	tracks []track.Track
}

// New creates an empty library.
func New() *Library {
	return &Library{
		tracks: make([]track.Track, 0),
	}
}

// Add appends tracks to the end of the library.
// Callers are responsible for generating unique IDs.
func (l *Library) Add(tracks ...track.Track) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tracks = append(l.tracks, tracks...)
}

// Remove removes the track with the given ID if present.
// A missing ID is reported via Found, not an error.
func (l *Library) Remove(id string) RemovalResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, t := range l.tracks {
		if t.ID == id {
			l.tracks = append(l.tracks[:i], l.tracks[i+1:]...)
			return RemovalResult{Index: i, Found: true}
		}
	}
	return RemovalResult{Found: false}
}

// Get returns the track at the given index.
func (l *Library) Get(index int) (track.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.tracks) {
		return track.Track{}, false
	}
	return l.tracks[index], true
}

// Len returns the number of tracks in the library.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// IndexOf returns the index of the track with the given ID, or -1.
func (l *Library) IndexOf(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, t := range l.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Tracks returns a copy of all tracks in order.
func (l *Library) Tracks() []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]track.Track, len(l.tracks))
	copy(result, l.tracks)
	return result
}
