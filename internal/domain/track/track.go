// Package track provides the Track domain entity.
package track

import "github.com/google/uuid"

// Track represents a single playable item in the library.
// A Track is immutable once created; the library holds the only copy
// and everything else refers to it by index or ID.
type Track struct {
	ID    string // Opaque unique identifier
	Title string // Display title
	URL   string // Source locator (local path or remote URL)
}

// New creates a Track with a freshly generated ID.
func New(title, url string) Track {
	return Track{
		ID:    uuid.New().String(),
		Title: title,
		URL:   url,
	}
}
