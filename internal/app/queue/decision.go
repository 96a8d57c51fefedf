package queue

import "github.com/cockroachdb/errors"

// NoIndex marks the absence of a selected track.
const NoIndex = -1

// ErrInvalidSelection is returned for a Select with an out-of-range
// index. Callers treat it as a routine no-op (stale UI clicks), not a
// failure.
var ErrInvalidSelection = errors.New("selection index out of range")

// Decision is the computed outcome of a queue transition.
type Decision struct {
	NextIndex  int  // Index to move to, NoIndex when there is none
	ShouldPlay bool // Whether playback should (continue to) run
}

// Decide computes the next index and play intent for a transition.
//
// length is the library size and current the selected index (NoIndex
// for none). selectIndex is only read for EventSelect. pick supplies a
// uniform random index in [0, n) when shuffle is on; injecting it keeps
// the function deterministic under test.
//
// The only returned error is ErrInvalidSelection.
func Decide(length, current int, shuffle bool, repeat RepeatMode, ev Event, selectIndex int, pick func(n int) int) (Decision, error) {
	if length == 0 {
		return Decision{NextIndex: NoIndex}, nil
	}

	if ev == EventSelect {
		if selectIndex < 0 || selectIndex >= length {
			return Decision{NextIndex: NoIndex}, ErrInvalidSelection
		}
		return Decision{NextIndex: selectIndex, ShouldPlay: true}, nil
	}

	if current == NoIndex {
		// Nothing to advance from.
		return Decision{NextIndex: NoIndex}, nil
	}

	if ev == EventEnded && repeat == RepeatOne {
		// Restart in place rather than advancing.
		return Decision{NextIndex: current, ShouldPlay: true}, nil
	}

	if shuffle {
		return decideShuffle(length, current, ev, pick), nil
	}

	switch ev {
	case EventPrevious:
		next := current - 1
		if next < 0 {
			if repeat == RepeatAll {
				return Decision{NextIndex: length - 1, ShouldPlay: true}, nil
			}
			// Start of the library: halt, selection retained.
			return Decision{NextIndex: current}, nil
		}
		return Decision{NextIndex: next, ShouldPlay: true}, nil

	default: // EventNext, EventEnded
		next := current + 1
		if next >= length {
			if repeat == RepeatAll {
				return Decision{NextIndex: 0, ShouldPlay: true}, nil
			}
			// End of the library: halt, selection retained.
			return Decision{NextIndex: current}, nil
		}
		return Decision{NextIndex: next, ShouldPlay: true}, nil
	}
}

// decideShuffle picks a random index and, on a collision with the
// current track, steps off it deterministically instead of re-rolling.
// This guarantees no immediate repeat when more than one track exists.
func decideShuffle(length, current int, ev Event, pick func(n int) int) Decision {
	next := pick(length)
	if length > 1 && next == current {
		if ev == EventPrevious {
			next = (next - 1 + length) % length
		} else {
			next = (next + 1) % length
		}
	}
	return Decision{NextIndex: next, ShouldPlay: true}
}
