// Package socketio provides the Socket.IO surface for player clients.
// Clients emit intent events (play, pause, next, queue edits) and
// receive pushState/pushQueue broadcasts whenever the transport moves.
package socketio

import (
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/okbx/trackbox/internal/app/playback"
	"github.com/okbx/trackbox/internal/app/queue"
	"github.com/okbx/trackbox/internal/domain/track"
)

// Server bridges Socket.IO clients and the transport.
type Server struct {
	io     *socket.Server
	player *playback.Transport
}

// NewServer creates a Socket.IO server bound to the given transport.
func NewServer(player *playback.Transport) *Server {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s := &Server{
		io:     socket.NewServer(nil, opts),
		player: player,
	}
	s.setupHandlers()
	return s
}

// Run consumes transport events and broadcasts state until the
// transport's event channel closes.
func (s *Server) Run() {
	go func() {
		for ev := range s.player.Events() {
			switch ev.Type {
			case playback.EventLibraryChanged:
				s.io.Emit("pushQueue", queuePayload(s.player.Tracks()))
				s.io.Emit("pushState", statePayload(ev.Status))
			default:
				s.io.Emit("pushState", statePayload(ev.Status))
			}
		}
	}()
}

// setupHandlers registers all Socket.IO event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())

		zlog.Info().Msgf("socketio: client connected: id=%s", clientID)

		// Initial state push so the UI renders without asking.
		client.Emit("pushState", statePayload(s.player.Snapshot()))
		client.Emit("pushQueue", queuePayload(s.player.Tracks()))

		client.On("disconnect", func(args ...any) {
			zlog.Info().Msgf("socketio: client disconnected: id=%s", clientID)
		})

		client.On("getState", func(args ...any) {
			client.Emit("pushState", statePayload(s.player.Snapshot()))
		})

		client.On("getQueue", func(args ...any) {
			client.Emit("pushQueue", queuePayload(s.player.Tracks()))
		})

		client.On("play", func(args ...any) {
			// With an index: explicit selection. Without: resume.
			if index, ok := intArg(args, "value"); ok {
				s.player.SelectTrack(index)
				return
			}
			if !s.player.Snapshot().Playing {
				s.player.TogglePlayPause()
			}
		})

		client.On("pause", func(args ...any) {
			if s.player.Snapshot().Playing {
				s.player.TogglePlayPause()
			}
		})

		client.On("toggle", func(args ...any) {
			s.player.TogglePlayPause()
		})

		client.On("next", func(args ...any) {
			s.player.Next()
		})

		client.On("prev", func(args ...any) {
			s.player.Previous()
		})

		client.On("seek", func(args ...any) {
			if len(args) > 0 {
				if pos, ok := args[0].(float64); ok {
					s.player.Seek(pos)
				}
			}
		})

		client.On("volume", func(args ...any) {
			// Clients speak the 0-100 scale.
			if len(args) > 0 {
				if vol, ok := args[0].(float64); ok {
					s.player.SetVolume(vol / 100)
				}
			}
		})

		client.On("setRandom", func(args ...any) {
			if on, ok := boolArg(args, "value"); ok {
				s.player.SetShuffle(on)
			}
		})

		client.On("setRepeat", func(args ...any) {
			value, ok := stringArg(args, "value")
			if !ok {
				return
			}
			mode, err := queue.ParseRepeatMode(value)
			if err != nil {
				zlog.Debug().Msgf("socketio: ignoring setRepeat: %v", err)
				return
			}
			s.player.SetRepeat(mode)
		})

		client.On("cycleRepeat", func(args ...any) {
			s.player.CycleRepeat()
		})

		client.On("selectTrack", func(args ...any) {
			if index, ok := intArg(args, "index"); ok {
				s.player.SelectTrack(index)
			}
		})

		client.On("addToQueue", func(args ...any) {
			url, ok := stringArg(args, "url")
			if !ok || url == "" {
				zlog.Debug().Msg("socketio: ignoring addToQueue without url")
				return
			}
			title, _ := stringArg(args, "title")
			if title == "" {
				title = url
			}
			s.player.AddTracks(track.New(title, url))
		})

		client.On("removeFromQueue", func(args ...any) {
			id, ok := stringArg(args, "id")
			if !ok {
				return
			}
			if !s.player.RemoveTrack(id) {
				zlog.Debug().Msgf("socketio: removeFromQueue: unknown id %s", id)
			}
		})
	})
}

// ServeHTTP implements http.Handler for the Socket.IO endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close shuts down the Socket.IO server.
func (s *Server) Close() error {
	s.io.Close(nil)
	return nil
}

// intArg extracts an integer field from the first map argument.
// Socket.IO delivers JSON numbers as float64.
func intArg(args []any, key string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok {
		return 0, false
	}
	v, ok := m[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func boolArg(args []any, key string) (bool, bool) {
	if len(args) == 0 {
		return false, false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok {
		return false, false
	}
	v, ok := m[key].(bool)
	return v, ok
}

func stringArg(args []any, key string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := m[key].(string)
	return v, ok
}
