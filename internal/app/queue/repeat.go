// Package queue provides pure decision logic for queue transitions.
package queue

import "github.com/cockroachdb/errors"

// RepeatMode controls wraparound and restart behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Stop at the ends of the library
	RepeatAll                   // Wrap around at the ends
	RepeatOne                   // Restart the current track when it ends
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "off"
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// Cycle returns the next mode in the off -> all -> one -> off rotation.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// ParseRepeatMode maps a configuration string to a RepeatMode.
// The empty string maps to RepeatOff.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "off", "":
		return RepeatOff, nil
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	default:
		return RepeatOff, errors.Newf("unknown repeat mode: %s", s)
	}
}
