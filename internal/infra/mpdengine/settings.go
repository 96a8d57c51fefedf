package mpdengine

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// decodeSettings decodes the raw engine settings map into Settings,
// applying defaults and validation.
func decodeSettings(settings map[string]any) (*Settings, error) {
	var cfg Settings
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode MPD engine settings")
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set MPD engine defaults")
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid MPD engine settings")
	}
	return &cfg, nil
}
