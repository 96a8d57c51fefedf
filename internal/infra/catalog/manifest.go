package catalog

import (
	"os"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/okbx/trackbox/internal/domain/track"
)

// Manifest is a YAML list of server-hosted tracks.
type Manifest struct {
	Tracks []ManifestEntry `yaml:"tracks"`
}

// ManifestEntry describes one track in a manifest.
type ManifestEntry struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// LoadManifest reads a track manifest and returns tracks with fresh
// IDs. Entries without a URL are skipped; entries without a title fall
// back to the URL's base name.
func LoadManifest(manifestPath string) ([]track.Track, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}

	tracks := make([]track.Track, 0, len(m.Tracks))
	for i, entry := range m.Tracks {
		if entry.URL == "" {
			zlog.Warn().Msgf("catalog: skipping manifest entry %d: no url", i)
			continue
		}
		title := entry.Title
		if title == "" {
			base := path.Base(entry.URL)
			title = strings.TrimSuffix(base, path.Ext(base))
		}
		tracks = append(tracks, track.New(title, entry.URL))
	}

	return tracks, nil
}
