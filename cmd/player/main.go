// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/okbx/trackbox/internal/api/socketio"
	"github.com/okbx/trackbox/internal/app/engine"
	"github.com/okbx/trackbox/internal/app/playback"
	"github.com/okbx/trackbox/internal/app/queue"
	"github.com/okbx/trackbox/internal/domain/library"
	"github.com/okbx/trackbox/internal/domain/track"
	"github.com/okbx/trackbox/internal/infra/catalog"
	"github.com/okbx/trackbox/internal/infra/config"
	"github.com/okbx/trackbox/internal/infra/logger"
	"github.com/okbx/trackbox/internal/infra/mpdengine"
)

var (
	app        = kingpin.New("trackbox", "trackbox personal music player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-engines command
	listEnginesCmd = app.Command("list-engines", "List available playback engines and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the player daemon (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listEnginesCmd.FullCommand() {
		printEngines()
		return
	}

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Daemon error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	repeat, err := queue.ParseRepeatMode(cfg.Player.Repeat)
	if err != nil {
		return fmt.Errorf("invalid player config: %w", err)
	}

	eng, err := newEngine(cfg.Engine)
	if err != nil {
		return fmt.Errorf("failed to create playback engine: %w", err)
	}

	lib := library.New()
	player := playback.New(lib, eng, playback.Config{
		PreviousRestartSec: cfg.Player.PreviousRestartSec,
		Volume:             cfg.Player.Volume,
		Shuffle:            cfg.Player.Shuffle,
		Repeat:             repeat,
	})
	defer player.Close()

	tracks, err := loadCatalog(cfg.Library)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	player.AddTracks(tracks...)
	zlog.Info().Msgf("Library loaded: %d tracks", lib.Len())

	sock := socketio.NewServer(player)
	defer sock.Close()
	sock.Run()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", sock)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Daemon stopped")
	return nil
}

// newEngine builds the configured playback engine.
func newEngine(cfg config.EngineConfig) (engine.Engine, error) {
	switch cfg.Type {
	case "mpd":
		return mpdengine.New(cfg.Settings)
	case "null":
		return engine.NewNull(), nil
	default:
		return nil, fmt.Errorf("unsupported engine type: %s", cfg.Type)
	}
}

// loadCatalog builds the initial library from the configured sources.
func loadCatalog(cfg config.LibraryConfig) ([]track.Track, error) {
	var tracks []track.Track

	if len(cfg.ScanDirs) > 0 {
		scanned, err := catalog.ScanDirs(cfg.ScanDirs)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, scanned...)
	}

	if cfg.Manifest != "" {
		listed, err := catalog.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, listed...)
	}

	return tracks, nil
}

// printEngines prints available playback engines.
func printEngines() {
	fmt.Println("Available Engines:")
	fmt.Printf("  %-8s - %s\n", "mpd", "Plays through a Music Player Daemon server")
	fmt.Printf("  %-8s - %s\n", "null", "Accepts commands, produces no audio (development)")
}
