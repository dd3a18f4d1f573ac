package stream

import "fmt"

// MemorySource serves frames from an in-memory slice. It is the reference
// [Source] implementation, used to bridge precomputed filterbank output into
// a processing chain and throughout the test suites.
type MemorySource struct {
	frames [][]complex128
	size   int
	seq    Sequencer
}

// NewMemorySource returns a source over the given frames. All frames must
// have the same length; the frames are not copied.
func NewMemorySource(frames [][]complex128) (*MemorySource, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("stream: memory source requires at least one frame")
	}
	size := len(frames[0])
	for i, f := range frames {
		if len(f) != size {
			return nil, fmt.Errorf("stream: frame %d has %d subbands, expected %d", i, len(f), size)
		}
	}
	return &MemorySource{frames: frames, size: size}, nil
}

// Next implements [Source].
func (m *MemorySource) Next(frameNo int) ([]complex128, error) {
	if m.seq.Repeat(frameNo) {
		return m.frames[m.seq.Current()], nil
	}
	if m.seq.Current()+1 >= len(m.frames) {
		return nil, ErrEndOfStream
	}
	if err := m.seq.Advance(frameNo); err != nil {
		return nil, err
	}
	if m.seq.Current() >= len(m.frames) {
		return nil, ErrEndOfStream
	}
	return m.frames[m.seq.Current()], nil
}

// Reset implements [Source].
func (m *MemorySource) Reset() {
	m.seq.Reset()
}

// Size implements [Source].
func (m *MemorySource) Size() int {
	return m.size
}

// Len returns the total number of frames held.
func (m *MemorySource) Len() int {
	return len(m.frames)
}

// Collect drains up to maxFrames frames from src into a new slice, copying
// each frame. A negative maxFrames drains to exhaustion.
func Collect(src Source, maxFrames int) ([][]complex128, error) {
	var out [][]complex128
	for maxFrames < 0 || len(out) < maxFrames {
		frame, err := src.Next(-1)
		if err != nil {
			if err == ErrEndOfStream {
				break
			}
			return out, err
		}
		cp := make([]complex128, len(frame))
		copy(cp, frame)
		out = append(out, cp)
	}
	return out, nil
}
