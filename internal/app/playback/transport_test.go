package playback

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okbx/trackbox/internal/app/engine"
	"github.com/okbx/trackbox/internal/app/queue"
	"github.com/okbx/trackbox/internal/domain/library"
	"github.com/okbx/trackbox/internal/domain/track"
)

// fakeEngine records every command and lets tests inject notifications.
type fakeEngine struct {
	mu    sync.Mutex
	calls []string
	notif chan engine.Notification
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{notif: make(chan engine.Notification, 16)}
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) Load(url string) error {
	f.record("load:" + url)
	return nil
}

func (f *fakeEngine) Play() error {
	f.record("play")
	return nil
}

func (f *fakeEngine) Pause() error {
	f.record("pause")
	return nil
}

func (f *fakeEngine) Seek(seconds float64) error {
	f.record(fmt.Sprintf("seek:%g", seconds))
	return nil
}

func (f *fakeEngine) SetVolume(v float64) error {
	f.record(fmt.Sprintf("volume:%g", v))
	return nil
}

func (f *fakeEngine) Notifications() <-chan engine.Notification {
	return f.notif
}

func (f *fakeEngine) Close() error {
	close(f.notif)
	return nil
}

func (f *fakeEngine) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeEngine) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]string, len(f.calls))
	copy(result, f.calls)
	return result
}

func (f *fakeEngine) count(prefix string) int {
	n := 0
	for _, c := range f.callLog() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// progress injects a coalesced progress notification.
func (f *fakeEngine) progress(elapsed, duration float64) {
	f.notif <- engine.Notification{Type: engine.NotificationProgress, Elapsed: elapsed, Duration: duration}
}

// ended injects a natural end notification.
func (f *fakeEngine) ended() {
	f.notif <- engine.Notification{Type: engine.NotificationEnded}
}

func newTestTransport(t *testing.T, cfg Config, titles ...string) (*Transport, *fakeEngine) {
	t.Helper()

	fe := newFakeEngine()
	tr := New(library.New(), fe, cfg)
	t.Cleanup(tr.Close)

	if len(titles) > 0 {
		tracks := make([]track.Track, len(titles))
		for i, title := range titles {
			tracks[i] = track.New(title, "/music/"+title+".mp3")
		}
		tr.AddTracks(tracks...)
	}
	fe.reset()
	return tr, fe
}

// setPick installs a deterministic shuffle picker.
func setPick(tr *Transport, pick func(n int) int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.pick = pick
}

func waitCalls(t *testing.T, fe *fakeEngine, prefix string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return fe.count(prefix) >= n
	}, time.Second, 5*time.Millisecond, "expected %d %q calls, got %v", n, prefix, fe.callLog())
}

func TestTransport_SelectTrack(t *testing.T) {
	tr, fe := newTestTransport(t, Config{PreviousRestartSec: 5, Volume: 1}, "a", "b", "c")

	tr.SelectTrack(1)

	st := tr.Snapshot()
	assert.Equal(t, 1, st.Index)
	assert.True(t, st.Playing)
	require.NotNil(t, st.Track)
	assert.Equal(t, "b", st.Track.Title)
	assert.Equal(t, 1, fe.count("load:"))
	waitCalls(t, fe, "play", 1)
}

func TestTransport_SelectTrack_OutOfRange(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b")
	tr.SelectTrack(0)
	waitCalls(t, fe, "play", 1)
	fe.reset()

	tr.SelectTrack(5)
	tr.SelectTrack(-1)

	st := tr.Snapshot()
	assert.Equal(t, 0, st.Index, "selection unchanged")
	assert.True(t, st.Playing)
	assert.Empty(t, fe.callLog(), "no engine calls for invalid selections")
}

func TestTransport_EmptyLibraryNoOps(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1})

	tr.Next()
	tr.Previous()
	tr.TogglePlayPause()
	tr.SelectTrack(0)

	st := tr.Snapshot()
	assert.Equal(t, queue.NoIndex, st.Index)
	assert.False(t, st.Playing)
	assert.Empty(t, fe.callLog(), "no engine calls on an empty library")
}

func TestTransport_TogglePlayPause(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b")

	// AddTracks preselected track 0 paused, so toggle resumes it.
	tr.TogglePlayPause()
	st := tr.Snapshot()
	assert.Equal(t, 0, st.Index)
	assert.True(t, st.Playing)
	waitCalls(t, fe, "play", 1)

	tr.TogglePlayPause()
	st = tr.Snapshot()
	assert.False(t, st.Playing)
	assert.Equal(t, 0, st.Index, "pausing keeps the selection")
	assert.Equal(t, 1, fe.count("pause"))

	tr.TogglePlayPause()
	assert.True(t, tr.Snapshot().Playing)
	waitCalls(t, fe, "play", 2)
}

func TestTransport_TogglePlayPause_FromIdle(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b")

	// Force idle by removing the preselected track.
	st := tr.Snapshot()
	require.NotNil(t, st.Track)
	tr.RemoveTrack(st.Track.ID)
	require.Equal(t, queue.NoIndex, tr.Snapshot().Index)
	fe.reset()

	tr.TogglePlayPause()

	st = tr.Snapshot()
	assert.Equal(t, 0, st.Index, "idle toggle behaves as select of track 0")
	assert.True(t, st.Playing)
	assert.Equal(t, 1, fe.count("load:"))
	waitCalls(t, fe, "play", 1)
}

func TestTransport_Next_LinearAndStop(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b", "c")
	tr.SelectTrack(1)
	fe.reset()

	tr.Next()
	st := tr.Snapshot()
	assert.Equal(t, 2, st.Index)
	assert.True(t, st.Playing)
	waitCalls(t, fe, "play", 1)
	fe.reset()

	// At the last index with repeat off: halt, selection retained.
	tr.Next()
	st = tr.Snapshot()
	assert.Equal(t, 2, st.Index)
	assert.False(t, st.Playing)
	assert.Equal(t, 1, fe.count("pause"))
	assert.Zero(t, fe.count("load:"), "no new track loaded")
}

func TestTransport_Next_RepeatAllWraps(t *testing.T) {
	tr, _ := newTestTransport(t, Config{Volume: 1, Repeat: queue.RepeatAll}, "a", "b")
	tr.SelectTrack(1)

	tr.Next()
	st := tr.Snapshot()
	assert.Equal(t, 0, st.Index)
	assert.True(t, st.Playing)
}

func TestTransport_Previous_RepeatAllWraps(t *testing.T) {
	tr, _ := newTestTransport(t, Config{Volume: 1, Repeat: queue.RepeatAll}, "a", "b")
	tr.SelectTrack(0)

	tr.Previous()
	st := tr.Snapshot()
	assert.Equal(t, 1, st.Index)
	assert.True(t, st.Playing)
}

func TestTransport_Previous_RestartShortcut(t *testing.T) {
	tr, fe := newTestTransport(t, Config{PreviousRestartSec: 5, Volume: 1}, "a", "b")
	tr.SelectTrack(1)
	waitCalls(t, fe, "play", 1)

	// Report the playhead deep into the track.
	fe.progress(42, 180)
	require.Eventually(t, func() bool {
		return tr.Snapshot().Elapsed == 42
	}, time.Second, 5*time.Millisecond)
	fe.reset()

	tr.Previous()

	st := tr.Snapshot()
	assert.Equal(t, 1, st.Index, "selection unchanged")
	assert.Equal(t, float64(0), st.Elapsed)
	assert.Equal(t, []string{"seek:0"}, fe.callLog())
}

func TestTransport_Previous_WithinThresholdMovesBack(t *testing.T) {
	tr, fe := newTestTransport(t, Config{PreviousRestartSec: 5, Volume: 1}, "a", "b")
	tr.SelectTrack(1)

	fe.progress(3, 180)
	require.Eventually(t, func() bool {
		return tr.Snapshot().Elapsed == 3
	}, time.Second, 5*time.Millisecond)

	tr.Previous()
	assert.Equal(t, 0, tr.Snapshot().Index)
}

func TestTransport_OnEnded_AdvancesLikeNext(t *testing.T) {
	tr, _ := newTestTransport(t, Config{Volume: 1}, "a", "b")
	tr.SelectTrack(0)

	tr.onEnded()
	st := tr.Snapshot()
	assert.Equal(t, 1, st.Index)
	assert.True(t, st.Playing)
}

func TestTransport_OnEnded_LastTrackRepeatOff(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b")
	tr.SelectTrack(1)
	fe.reset()

	fe.ended()

	require.Eventually(t, func() bool {
		return !tr.Snapshot().Playing
	}, time.Second, 5*time.Millisecond)
	st := tr.Snapshot()
	assert.Equal(t, 1, st.Index, "selection retained at the end")
	// The engine stopped on its own; no pause command is issued.
	assert.Zero(t, fe.count("pause"))
	assert.Zero(t, fe.count("load:"))
}

func TestTransport_OnEnded_RepeatOneRestartsInPlace(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1, Repeat: queue.RepeatOne}, "a", "b")
	tr.SelectTrack(0)
	waitCalls(t, fe, "play", 1)
	fe.reset()

	fe.ended()

	waitCalls(t, fe, "play", 1)
	log := fe.callLog()
	require.Contains(t, log, "seek:0")
	assert.Less(t, indexOf(log, "seek:0"), indexOf(log, "play"), "seek precedes play")
	assert.Zero(t, fe.count("load:"), "restart does not reload the source")

	st := tr.Snapshot()
	assert.Equal(t, 0, st.Index, "index unchanged")
	assert.True(t, st.Playing)
}

func TestTransport_Shuffle_NeverImmediateRepeat(t *testing.T) {
	tr, _ := newTestTransport(t, Config{Volume: 1, Shuffle: true}, "a", "b", "c", "d")
	tr.SelectTrack(2)

	// A picker that always collides with the current index.
	setPick(tr, func(n int) int { return 2 })

	tr.Next()
	assert.Equal(t, 3, tr.Snapshot().Index, "collision adjusted forward")

	setPick(tr, func(n int) int { return 3 })
	tr.Previous()
	assert.Equal(t, 2, tr.Snapshot().Index, "collision adjusted backward")
}

func TestTransport_RemoveTrack(t *testing.T) {
	t.Run("removing the current track stops playback", func(t *testing.T) {
		tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b", "c")
		tr.SelectTrack(1)
		fe.reset()

		st := tr.Snapshot()
		require.NotNil(t, st.Track)
		require.True(t, tr.RemoveTrack(st.Track.ID))

		st = tr.Snapshot()
		assert.Equal(t, queue.NoIndex, st.Index)
		assert.False(t, st.Playing)
		assert.Equal(t, 2, st.QueueLen)
		assert.Equal(t, 1, fe.count("pause"))
	})

	t.Run("removing a track before the current one rebases the index", func(t *testing.T) {
		tr, fe := newTestTransport(t, Config{Volume: 1}, "a", "b", "c")
		tr.SelectTrack(2)
		waitCalls(t, fe, "play", 1)
		fe.reset()

		first := tr.Tracks()[0]
		require.True(t, tr.RemoveTrack(first.ID))

		st := tr.Snapshot()
		assert.Equal(t, 1, st.Index)
		assert.True(t, st.Playing, "playback uninterrupted")
		require.NotNil(t, st.Track)
		assert.Equal(t, "c", st.Track.Title)
		assert.Empty(t, fe.callLog(), "no engine calls for index rebasing")
	})

	t.Run("removing a track after the current one changes nothing", func(t *testing.T) {
		tr, _ := newTestTransport(t, Config{Volume: 1}, "a", "b", "c")
		tr.SelectTrack(0)

		last := tr.Tracks()[2]
		require.True(t, tr.RemoveTrack(last.ID))

		st := tr.Snapshot()
		assert.Equal(t, 0, st.Index)
		assert.True(t, st.Playing)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		tr, _ := newTestTransport(t, Config{Volume: 1}, "a")
		assert.False(t, tr.RemoveTrack("no-such-id"))
		assert.Equal(t, 1, tr.Snapshot().QueueLen)
	})
}

func TestTransport_AddTracks_FirstLoadSelectsWithoutPlaying(t *testing.T) {
	fe := newFakeEngine()
	tr := New(library.New(), fe, Config{Volume: 1})
	t.Cleanup(tr.Close)
	fe.reset()

	tr.AddTracks(track.New("a", "/music/a.mp3"), track.New("b", "/music/b.mp3"))

	st := tr.Snapshot()
	assert.Equal(t, 0, st.Index, "first track auto-selected")
	assert.False(t, st.Playing, "auto-select does not auto-play")
	assert.Equal(t, 1, fe.count("load:"))
	assert.Zero(t, fe.count("play"))

	// Later additions never move the selection.
	tr.AddTracks(track.New("c", "/music/c.mp3"))
	assert.Equal(t, 0, tr.Snapshot().Index)
	assert.Equal(t, 3, tr.Snapshot().QueueLen)
}

func TestTransport_SetVolume(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a")

	tr.SetVolume(0.5)
	assert.Equal(t, 0.5, tr.Snapshot().Volume)
	assert.Equal(t, 1, fe.count("volume:0.5"))

	tr.SetVolume(1.7)
	assert.Equal(t, float64(1), tr.Snapshot().Volume)

	tr.SetVolume(-0.2)
	assert.Equal(t, float64(0), tr.Snapshot().Volume)
}

func TestTransport_CycleRepeat(t *testing.T) {
	tr, _ := newTestTransport(t, Config{Volume: 1}, "a")

	assert.Equal(t, queue.RepeatAll, tr.CycleRepeat())
	assert.Equal(t, queue.RepeatOne, tr.CycleRepeat())
	assert.Equal(t, queue.RepeatOff, tr.CycleRepeat())
}

func TestTransport_ProgressUpdatesState(t *testing.T) {
	tr, fe := newTestTransport(t, Config{Volume: 1}, "a")
	tr.SelectTrack(0)

	fe.progress(12.5, 200)

	require.Eventually(t, func() bool {
		st := tr.Snapshot()
		return st.Elapsed == 12.5 && st.Duration == 200
	}, time.Second, 5*time.Millisecond)

	// Progress never transitions the state machine.
	assert.True(t, tr.Snapshot().Playing)
}

func TestTransport_Events(t *testing.T) {
	tr, _ := newTestTransport(t, Config{Volume: 1}, "a", "b")

	// Drain anything emitted during setup.
	drainEvents(tr)

	tr.SelectTrack(1)

	var got *Event
	require.Eventually(t, func() bool {
		select {
		case ev := <-tr.Events():
			got = &ev
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, EventTrackChanged, got.Type)
	assert.Equal(t, 1, got.Status.Index)
	assert.True(t, got.Status.Playing)
}

func drainEvents(tr *Transport) {
	for {
		select {
		case <-tr.Events():
		default:
			return
		}
	}
}

func indexOf(list []string, want string) int {
	for i, s := range list {
		if s == want {
			return i
		}
	}
	return -1
}
