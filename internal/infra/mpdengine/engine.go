// Package mpdengine implements the playback engine contract on top of
// an MPD server via gompd. MPD is used as a dumb single-track player:
// the transport owns all queue logic and only ever hands MPD one source
// at a time.
package mpdengine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fhs/gompd/v2/mpd"
	zlog "github.com/rs/zerolog/log"

	"github.com/okbx/trackbox/internal/app/engine"
)

// Settings configures the MPD connection, decoded from the engine
// settings map in the configuration file.
type Settings struct {
	Host           string `mapstructure:"host" default:"localhost"`
	Port           int    `mapstructure:"port" default:"6600" validate:"gte=1,lte=65535"`
	Password       string `mapstructure:"password"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms" default:"500" validate:"gte=50,lte=5000"`
}

// Engine drives MPD through the playback engine contract.
type Engine struct {
	mu     sync.Mutex
	client *mpd.Client

	addr     string
	password string

	// Playback bookkeeping for natural end detection. A play -> stop
	// transition we did not request ourselves is a natural end.
	loaded    bool
	started   bool
	lastState string

	notif chan engine.Notification

	pollInterval time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
}

// New creates an MPD engine from a raw settings map and connects.
func New(settings map[string]any) (*Engine, error) {
	cfg, err := decodeSettings(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		password:     cfg.Password,
		lastState:    "stop",
		notif:        make(chan engine.Notification, 16),
		pollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	e.mu.Lock()
	err = e.connectLocked()
	e.mu.Unlock()
	if err != nil {
		cancel()
		return nil, err
	}

	go e.poll()
	return e, nil
}

// connectLocked establishes the MPD connection. Must hold the lock.
func (e *Engine) connectLocked() error {
	zlog.Info().Msgf("mpdengine: connecting to MPD at %s", e.addr)

	client, err := mpd.Dial("tcp", e.addr)
	if err != nil {
		return errors.Wrap(err, "failed to connect to MPD")
	}

	if e.password != "" {
		if err := client.Command("password %s", e.password).OK(); err != nil {
			client.Close()
			return errors.Wrap(err, "MPD authentication failed")
		}
	}

	e.client = client
	return nil
}

// ensureConnectedLocked pings the server and reconnects if the
// connection went away. Must hold the lock.
func (e *Engine) ensureConnectedLocked() error {
	if e.client == nil {
		return e.connectLocked()
	}
	if err := e.client.Ping(); err != nil {
		zlog.Warn().Msgf("mpdengine: connection lost, reconnecting: %v", err)
		e.client.Close()
		e.client = nil
		return e.connectLocked()
	}
	return nil
}

// Load replaces MPD's queue with the single given source, stopped.
// It never starts playback.
func (e *Engine) Load(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureConnectedLocked(); err != nil {
		return err
	}
	if err := e.client.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear MPD queue")
	}
	if err := e.client.Add(url); err != nil {
		return errors.Wrapf(err, "failed to add source %s", url)
	}

	e.loaded = true
	e.started = false
	// Reset end detection so the stop caused by Clear is not reported.
	e.lastState = "stop"
	return nil
}

// Play starts or resumes playback of the loaded source.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return errors.New("no source loaded")
	}
	if err := e.ensureConnectedLocked(); err != nil {
		return err
	}

	if !e.started {
		if err := e.client.Play(0); err != nil {
			return errors.Wrap(err, "play failed")
		}
		e.started = true
		return nil
	}
	if err := e.client.Pause(false); err != nil {
		return errors.Wrap(err, "resume failed")
	}
	return nil
}

// Pause halts playback, keeping the playhead.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureConnectedLocked(); err != nil {
		return err
	}
	if err := e.client.Pause(true); err != nil {
		return errors.Wrap(err, "pause failed")
	}
	return nil
}

// Seek moves the playhead within the current song.
func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureConnectedLocked(); err != nil {
		return err
	}

	status, err := e.client.Status()
	if err != nil {
		return errors.Wrap(err, "failed to read MPD status")
	}
	songPos, err := strconv.Atoi(status["song"])
	if err != nil {
		return errors.New("no song loaded to seek in")
	}
	if err := e.client.Seek(songPos, int(seconds)); err != nil {
		return errors.Wrap(err, "seek failed")
	}
	return nil
}

// SetVolume maps the [0,1] contract volume onto MPD's 0-100 scale.
func (e *Engine) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureConnectedLocked(); err != nil {
		return err
	}
	if err := e.client.SetVolume(toMPDVolume(v)); err != nil {
		return errors.Wrap(err, "set volume failed")
	}
	return nil
}

// Notifications returns the engine's notification channel.
func (e *Engine) Notifications() <-chan engine.Notification {
	return e.notif
}

// Close stops the poll loop and closes the MPD connection and the
// notification channel.
func (e *Engine) Close() error {
	e.cancel()
	<-e.done

	e.mu.Lock()
	defer e.mu.Unlock()

	close(e.notif)
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// poll samples MPD status on a fixed interval, emitting progress and
// natural-end notifications.
func (e *Engine) poll() {
	defer close(e.done)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.sample()
		}
	}
}

func (e *Engine) sample() {
	e.mu.Lock()

	if !e.loaded {
		e.mu.Unlock()
		return
	}
	if err := e.ensureConnectedLocked(); err != nil {
		e.mu.Unlock()
		zlog.Warn().Msgf("mpdengine: status poll skipped: %v", err)
		return
	}

	status, err := e.client.Status()
	if err != nil {
		e.mu.Unlock()
		zlog.Warn().Msgf("mpdengine: failed to read status: %v", err)
		return
	}

	state, elapsed, duration := parseStatus(status)
	endedNaturally := e.started && e.lastState == "play" && state == "stop"
	if endedNaturally {
		e.started = false
	}
	e.lastState = state
	e.mu.Unlock()

	if state == "play" || state == "pause" {
		e.emitProgress(engine.Notification{
			Type:     engine.NotificationProgress,
			Elapsed:  elapsed,
			Duration: duration,
		})
	}
	if endedNaturally {
		e.emitEnded()
	}
}

// emitProgress sends without blocking; when the consumer lags the
// update is dropped in favor of the next sample (latest value wins).
func (e *Engine) emitProgress(n engine.Notification) {
	select {
	case e.notif <- n:
	default:
	}
}

// emitEnded must not be dropped; it blocks until delivered or the
// engine shuts down.
func (e *Engine) emitEnded() {
	select {
	case e.notif <- engine.Notification{Type: engine.NotificationEnded}:
	case <-e.ctx.Done():
	}
}

// parseStatus extracts state, elapsed and duration from an MPD status
// response.
func parseStatus(status mpd.Attrs) (state string, elapsed, duration float64) {
	state = status["state"]
	if v, err := strconv.ParseFloat(status["elapsed"], 64); err == nil {
		elapsed = v
	}
	if v, err := strconv.ParseFloat(status["duration"], 64); err == nil {
		duration = v
	}
	return state, elapsed, duration
}

// toMPDVolume converts a [0,1] volume to MPD's integer 0-100 scale.
func toMPDVolume(v float64) int {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return int(v*100 + 0.5)
}
