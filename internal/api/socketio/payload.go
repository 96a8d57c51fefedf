package socketio

import (
	"github.com/okbx/trackbox/internal/app/playback"
	"github.com/okbx/trackbox/internal/app/queue"
	"github.com/okbx/trackbox/internal/domain/track"
)

// statePayload converts a transport snapshot into the wire format
// pushed to clients. Volume is exposed on a 0-100 scale.
func statePayload(s playback.Status) map[string]any {
	status := "stop"
	if s.Index != queue.NoIndex {
		if s.Playing {
			status = "play"
		} else {
			status = "pause"
		}
	}

	p := map[string]any{
		"status":      status,
		"position":    s.Index,
		"shuffle":     s.Shuffle,
		"repeat":      s.Repeat.String(),
		"volume":      int(s.Volume*100 + 0.5),
		"elapsed":     s.Elapsed,
		"duration":    s.Duration,
		"queueLength": s.QueueLen,
	}

	if s.Track != nil {
		p["track"] = trackPayload(*s.Track)
	} else {
		p["track"] = nil
	}
	return p
}

// queuePayload converts the library listing into the wire format.
func queuePayload(tracks []track.Track) []map[string]any {
	result := make([]map[string]any, len(tracks))
	for i, tr := range tracks {
		result[i] = trackPayload(tr)
	}
	return result
}

func trackPayload(tr track.Track) map[string]any {
	return map[string]any{
		"id":    tr.ID,
		"title": tr.Title,
		"url":   tr.URL,
	}
}
