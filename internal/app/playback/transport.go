package playback

import (
	"math/rand"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/okbx/trackbox/internal/app/engine"
	"github.com/okbx/trackbox/internal/app/queue"
	"github.com/okbx/trackbox/internal/domain/library"
	"github.com/okbx/trackbox/internal/domain/track"
)

// Config holds transport configuration.
type Config struct {
	PreviousRestartSec float64          // Elapsed seconds beyond which Previous restarts the track
	Volume             float64          // Initial volume in [0,1]
	Shuffle            bool             // Initial shuffle flag
	Repeat             queue.RepeatMode // Initial repeat mode
}

// Status is a consistent snapshot of transport state.
type Status struct {
	Index    int          // Selected index, queue.NoIndex when none
	Track    *track.Track // Selected track, nil when none
	Playing  bool
	Shuffle  bool
	Repeat   queue.RepeatMode
	Volume   float64
	Elapsed  float64 // Seconds into the current track
	Duration float64 // Length of the current track, seconds
	QueueLen int     // Library size
}

// Transport owns the current playback position and mode settings, and
// turns queue decisions into engine commands. All external events (UI
// intent and engine notifications) are applied atomically under one
// mutex, in arrival order.
type Transport struct {
	mu sync.Mutex

	lib    *library.Library
	engine engine.Engine

	state    State
	current  int
	shuffle  bool
	repeat   queue.RepeatMode
	volume   float64
	elapsed  float64
	duration float64

	restartThreshold float64
	pick             func(n int) int

	eventCh chan Event
	done    chan struct{}
}

// New creates a transport bound to the given library and engine, and
// starts draining the engine's notification channel.
func New(lib *library.Library, eng engine.Engine, cfg Config) *Transport {
	t := &Transport{
		lib:              lib,
		engine:           eng,
		state:            StateIdle,
		current:          queue.NoIndex,
		shuffle:          cfg.Shuffle,
		repeat:           cfg.Repeat,
		volume:           clampVolume(cfg.Volume),
		restartThreshold: cfg.PreviousRestartSec,
		pick:             rand.Intn,
		eventCh:          make(chan Event, 16),
		done:             make(chan struct{}),
	}

	if err := eng.SetVolume(t.volume); err != nil {
		zlog.Warn().Msgf("playback: failed to set initial volume: %v", err)
	}

	go t.run()
	return t
}

// run applies engine notifications until the engine closes its channel.
func (t *Transport) run() {
	defer close(t.done)
	for n := range t.engine.Notifications() {
		switch n.Type {
		case engine.NotificationProgress:
			t.onProgress(n.Elapsed, n.Duration)
		case engine.NotificationEnded:
			t.onEnded()
		}
	}
}

// Events returns the transport's event channel. Events are dropped
// rather than ever blocking the transport, so subscribers must treat
// them as change hints and read the carried snapshot.
func (t *Transport) Events() <-chan Event {
	return t.eventCh
}

// SelectTrack loads and plays the track at the given index.
// An out-of-range index is ignored.
func (t *Transport) SelectTrack(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, err := queue.Decide(t.lib.Len(), t.current, t.shuffle, t.repeat, queue.EventSelect, index, t.pick)
	if err != nil {
		// Routine UI race (stale index after a removal); ignore.
		zlog.Debug().Msgf("playback: ignoring selection: index=%d err=%v", index, err)
		return
	}
	t.loadAndPlayLocked(d.NextIndex)
}

// TogglePlayPause flips the play/pause flag. From idle with a non-empty
// library it behaves as SelectTrack(0).
func (t *Transport) TogglePlayPause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateIdle {
		if t.lib.Len() == 0 {
			return
		}
		t.loadAndPlayLocked(0)
		return
	}

	if t.state == StatePlaying {
		t.state = StatePaused
		if err := t.engine.Pause(); err != nil {
			zlog.Warn().Msgf("playback: pause request failed: %v", err)
		}
	} else {
		t.state = StatePlaying
		t.playAsync()
	}
	t.emitLocked(EventStateChanged)
}

// Next advances to the next track per the current shuffle/repeat modes.
func (t *Transport) Next() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advanceLocked(queue.EventNext)
}

// Previous steps back to the previous track. Deep into a track it
// restarts the current one from zero instead of moving the selection.
func (t *Transport) Previous() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != queue.NoIndex && t.elapsed > t.restartThreshold {
		t.seekLocked(0)
		return
	}
	t.advanceLocked(queue.EventPrevious)
}

// Seek moves the playhead within the current track.
func (t *Transport) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == queue.NoIndex {
		return
	}
	t.seekLocked(seconds)
}

// SetVolume sets the volume, clamped to [0,1], and pushes it to the
// engine immediately.
func (t *Transport) SetVolume(v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.volume = clampVolume(v)
	if err := t.engine.SetVolume(t.volume); err != nil {
		zlog.Warn().Msgf("playback: set volume request failed: %v", err)
	}
	t.emitLocked(EventStateChanged)
}

// SetShuffle sets the shuffle flag.
func (t *Transport) SetShuffle(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.shuffle = on
	t.emitLocked(EventStateChanged)
}

// SetRepeat sets the repeat mode.
func (t *Transport) SetRepeat(mode queue.RepeatMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.repeat = mode
	t.emitLocked(EventStateChanged)
}

// CycleRepeat rotates the repeat mode off -> all -> one -> off and
// returns the new mode.
func (t *Transport) CycleRepeat() queue.RepeatMode {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.repeat = t.repeat.Cycle()
	t.emitLocked(EventStateChanged)
	return t.repeat
}

// AddTracks appends tracks to the library. When the library was empty,
// the first track is selected (loaded, paused) but not auto-played:
// first load leaves pressing play to the user.
func (t *Transport) AddTracks(tracks ...track.Track) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(tracks) == 0 {
		return
	}
	wasEmpty := t.lib.Len() == 0
	t.lib.Add(tracks...)

	if wasEmpty && t.current == queue.NoIndex {
		if tr, ok := t.lib.Get(0); ok {
			t.current = 0
			t.state = StatePaused
			t.elapsed, t.duration = 0, 0
			if err := t.engine.Load(tr.URL); err != nil {
				zlog.Warn().Msgf("playback: failed to preload first track: id=%s err=%v", tr.ID, err)
			}
		}
	}
	t.emitLocked(EventLibraryChanged)
}

// RemoveTrack removes a track by ID and rebases the current index.
// Removing the selected track stops playback and returns to idle.
// Returns false when the ID is unknown.
func (t *Transport) RemoveTrack(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := t.lib.Remove(id)
	if !res.Found {
		return false
	}

	switch {
	case t.current == queue.NoIndex:
		// Nothing selected, nothing to rebase.
	case res.Index < t.current:
		// Selection shifts down one slot; playback continues untouched.
		t.current--
	case res.Index == t.current:
		if t.state == StatePlaying {
			if err := t.engine.Pause(); err != nil {
				zlog.Warn().Msgf("playback: pause request failed: %v", err)
			}
		}
		t.current = queue.NoIndex
		t.state = StateIdle
		t.elapsed, t.duration = 0, 0
	}

	t.emitLocked(EventLibraryChanged)
	return true
}

// Tracks returns a copy of the library in order.
func (t *Transport) Tracks() []track.Track {
	return t.lib.Tracks()
}

// Snapshot returns a consistent copy of the transport state.
func (t *Transport) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

// Close shuts down the engine and releases the event channel.
func (t *Transport) Close() {
	if err := t.engine.Close(); err != nil {
		zlog.Warn().Msgf("playback: engine close failed: %v", err)
	}
	<-t.done
	close(t.eventCh)
}

// advanceLocked runs the queue decision for ev and applies it.
func (t *Transport) advanceLocked(ev queue.Event) {
	d, err := queue.Decide(t.lib.Len(), t.current, t.shuffle, t.repeat, ev, 0, t.pick)
	if err != nil {
		return
	}
	t.applyLocked(ev, d)
}

// applyLocked turns a queue decision into engine commands and state.
func (t *Transport) applyLocked(ev queue.Event, d queue.Decision) {
	if d.NextIndex == queue.NoIndex {
		// Empty library or no selection: nothing to do.
		return
	}

	if !d.ShouldPlay {
		// Hit the end of the library without wraparound: halt playback,
		// keep the selection.
		if t.state == StatePlaying {
			t.state = StatePaused
			if ev != queue.EventEnded {
				// On a natural end the engine is already stopped.
				if err := t.engine.Pause(); err != nil {
					zlog.Warn().Msgf("playback: pause request failed: %v", err)
				}
			}
			t.emitLocked(EventStateChanged)
		}
		return
	}

	if ev == queue.EventEnded && t.repeat == queue.RepeatOne && d.NextIndex == t.current {
		// Restart in place without reloading the source.
		t.elapsed = 0
		t.state = StatePlaying
		if err := t.engine.Seek(0); err != nil {
			zlog.Warn().Msgf("playback: seek request failed: %v", err)
		}
		t.playAsync()
		t.emitLocked(EventStateChanged)
		return
	}

	t.loadAndPlayLocked(d.NextIndex)
}

// loadAndPlayLocked loads the track at index into the engine and
// requests playback.
func (t *Transport) loadAndPlayLocked(index int) {
	tr, ok := t.lib.Get(index)
	if !ok {
		return
	}
	if err := t.engine.Load(tr.URL); err != nil {
		// Leave the previous selection untouched rather than ending up
		// pointing at a source the engine never accepted.
		zlog.Error().Msgf("playback: failed to load track: id=%s url=%s err=%v", tr.ID, tr.URL, err)
		return
	}
	t.current = index
	t.elapsed, t.duration = 0, 0
	t.state = StatePlaying
	t.playAsync()
	t.emitLocked(EventTrackChanged)
}

// playAsync requests playback without blocking the caller. Failure is
// logged; the playing flag reflects intent, not confirmed engine state.
func (t *Transport) playAsync() {
	go func() {
		if err := t.engine.Play(); err != nil {
			zlog.Warn().Msgf("playback: play request failed: %v", err)
		}
	}()
}

func (t *Transport) seekLocked(seconds float64) {
	if err := t.engine.Seek(seconds); err != nil {
		zlog.Warn().Msgf("playback: seek request failed: %v", err)
		return
	}
	t.elapsed = seconds
	t.emitLocked(EventProgress)
}

// onProgress records the latest playhead position. It never causes a
// state transition.
func (t *Transport) onProgress(elapsed, duration float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == queue.NoIndex {
		return
	}
	t.elapsed = elapsed
	t.duration = duration
	t.emitLocked(EventProgress)
}

// onEnded handles a natural track end reported by the engine.
func (t *Transport) onEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == queue.NoIndex {
		return
	}
	t.advanceLocked(queue.EventEnded)
}

func (t *Transport) statusLocked() Status {
	st := Status{
		Index:    t.current,
		Playing:  t.state == StatePlaying,
		Shuffle:  t.shuffle,
		Repeat:   t.repeat,
		Volume:   t.volume,
		Elapsed:  t.elapsed,
		Duration: t.duration,
		QueueLen: t.lib.Len(),
	}
	if t.current != queue.NoIndex {
		if tr, ok := t.lib.Get(t.current); ok {
			st.Track = &tr
		}
	}
	return st
}

// emitLocked publishes an event without blocking.
// Must be called with the lock held.
func (t *Transport) emitLocked(typ EventType) {
	select {
	case t.eventCh <- Event{Type: typ, Status: t.statusLocked()}:
	default:
		// Subscriber lagging; drop rather than block the transport.
	}
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
