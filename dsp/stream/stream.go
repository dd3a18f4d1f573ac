package stream

import (
	"errors"
	"fmt"
)

// ErrEndOfStream signals that a source has no more frames. It is a normal
// termination condition; detect it with errors.Is.
var ErrEndOfStream = errors.New("stream: end of stream")

// Source is a pull-based producer of complex subband frames.
//
// Next returns the frame at the requested index. A negative frameNo requests
// the frame following the previous one. A non-negative frameNo must either
// repeat the current index, in which case the cached frame is returned
// without advancing, or exceed it by exactly one. The very first call
// accepts any non-negative starting index.
//
// The returned slice is owned by the source and remains valid only until the
// next call to Next or Reset; callers that need to keep a frame must copy it.
type Source interface {
	// Next returns the frame at frameNo, or the next frame if frameNo < 0.
	Next(frameNo int) ([]complex128, error)

	// Reset rewinds the source to its first frame.
	Reset()

	// Size returns the number of subbands per frame.
	Size() int
}

// Sequencer tracks the current frame index and enforces the strict
// unit-step succession contract shared by all sources. The zero value is
// ready to use; the first Advance accepts any starting index.
type Sequencer struct {
	current int
	started bool
}

// Current returns the most recently accepted frame index, or -1 before the
// first Advance.
func (s *Sequencer) Current() int {
	if !s.started {
		return -1
	}
	return s.current
}

// Repeat reports whether frameNo repeats the current index.
func (s *Sequencer) Repeat(frameNo int) bool {
	return s.started && frameNo >= 0 && frameNo == s.current
}

// Advance validates frameNo against the succession contract and moves the
// index forward. frameNo < 0 always advances by one.
func (s *Sequencer) Advance(frameNo int) error {
	switch {
	case frameNo < 0:
		if s.started {
			s.current++
		} else {
			s.current = 0
			s.started = true
		}
	case !s.started:
		s.current = frameNo
		s.started = true
	case frameNo != s.current+1:
		return fmt.Errorf("stream: frame %d requested, expected %d", frameNo, s.current+1)
	default:
		s.current = frameNo
	}
	return nil
}

// Reset returns the sequencer to its initial state.
func (s *Sequencer) Reset() {
	s.current = 0
	s.started = false
}
