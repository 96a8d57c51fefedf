// Package catalog builds library tracks from local and remote sources.
package catalog

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/okbx/trackbox/internal/domain/track"
)

// audioExtensions lists file extensions recognized as playable audio.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".oga":  true,
	".opus": true,
	".wav":  true,
	".m4a":  true,
	".aac":  true,
}

// ScanDirs walks the given directories and returns a track per audio
// file found, in walk (lexical) order. Titles fall back to the file
// name without its extension.
func ScanDirs(dirs []string) ([]track.Track, error) {
	var tracks []track.Track

	for _, dir := range dirs {
		count := 0
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if !audioExtensions[ext] {
				return nil
			}
			title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			tracks = append(tracks, track.New(title, path))
			count++
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan directory %s", dir)
		}
		zlog.Info().Msgf("catalog: scanned %s: %d tracks", dir, count)
	}

	return tracks, nil
}
