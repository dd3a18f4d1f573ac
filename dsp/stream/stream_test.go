package stream

import (
	"errors"
	"testing"
)

func TestSequencerFirstCallAcceptsAnyIndex(t *testing.T) {
	var seq Sequencer

	if got := seq.Current(); got != -1 {
		t.Fatalf("Current() before first advance = %d, want -1", got)
	}

	if err := seq.Advance(5); err != nil {
		t.Fatalf("first Advance(5) failed: %v", err)
	}
	if got := seq.Current(); got != 5 {
		t.Fatalf("Current() = %d, want 5", got)
	}
}

func TestSequencerUnitSteps(t *testing.T) {
	var seq Sequencer

	if err := seq.Advance(0); err != nil {
		t.Fatalf("Advance(0) failed: %v", err)
	}
	if err := seq.Advance(1); err != nil {
		t.Fatalf("Advance(1) failed: %v", err)
	}
	if err := seq.Advance(-1); err != nil {
		t.Fatalf("Advance(-1) failed: %v", err)
	}
	if got := seq.Current(); got != 2 {
		t.Fatalf("Current() = %d, want 2", got)
	}

	if err := seq.Advance(4); err == nil {
		t.Fatal("Advance(4) after frame 2 should fail")
	}
	if err := seq.Advance(2); err == nil {
		t.Fatal("Advance(2) repeating the current frame should fail")
	}
}

func TestSequencerRepeat(t *testing.T) {
	var seq Sequencer

	if seq.Repeat(0) {
		t.Fatal("Repeat(0) before first advance should be false")
	}
	if err := seq.Advance(0); err != nil {
		t.Fatalf("Advance(0) failed: %v", err)
	}
	if !seq.Repeat(0) {
		t.Fatal("Repeat(0) at frame 0 should be true")
	}
	if seq.Repeat(1) {
		t.Fatal("Repeat(1) at frame 0 should be false")
	}
	if seq.Repeat(-1) {
		t.Fatal("Repeat(-1) should be false")
	}
}

func testFrames(n, size int) [][]complex128 {
	frames := make([][]complex128, n)
	for i := range frames {
		frames[i] = make([]complex128, size)
		for s := range frames[i] {
			frames[i][s] = complex(float64(i), float64(s))
		}
	}
	return frames
}

func TestMemorySourceSequentialPull(t *testing.T) {
	src, err := NewMemorySource(testFrames(3, 4))
	if err != nil {
		t.Fatalf("NewMemorySource failed: %v", err)
	}
	if src.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", src.Size())
	}
	if src.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", src.Len())
	}

	for i := range 3 {
		frame, err := src.Next(-1)
		if err != nil {
			t.Fatalf("Next(-1) frame %d failed: %v", i, err)
		}
		if real(frame[0]) != float64(i) {
			t.Fatalf("frame %d starts with %v", i, frame[0])
		}
	}

	if _, err := src.Next(-1); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("Next past the end = %v, want ErrEndOfStream", err)
	}
}

func TestMemorySourceExplicitIndices(t *testing.T) {
	src, err := NewMemorySource(testFrames(4, 2))
	if err != nil {
		t.Fatalf("NewMemorySource failed: %v", err)
	}

	if _, err := src.Next(0); err != nil {
		t.Fatalf("Next(0) failed: %v", err)
	}

	// Repeating the current index returns the cached frame.
	frame, err := src.Next(0)
	if err != nil {
		t.Fatalf("repeated Next(0) failed: %v", err)
	}
	if real(frame[0]) != 0 {
		t.Fatalf("repeated Next(0) returned frame %v", frame[0])
	}

	if _, err := src.Next(1); err != nil {
		t.Fatalf("Next(1) failed: %v", err)
	}

	// A gap in the requested indices is a caller error.
	if _, err := src.Next(3); err == nil {
		t.Fatal("Next(3) after frame 1 should fail")
	}
}

func TestMemorySourceReset(t *testing.T) {
	src, err := NewMemorySource(testFrames(2, 2))
	if err != nil {
		t.Fatalf("NewMemorySource failed: %v", err)
	}

	if _, err := src.Next(-1); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, err := src.Next(-1); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	src.Reset()

	frame, err := src.Next(-1)
	if err != nil {
		t.Fatalf("Next after Reset failed: %v", err)
	}
	if real(frame[0]) != 0 {
		t.Fatalf("Next after Reset returned frame %v, want frame 0", frame[0])
	}
}

func TestMemorySourceValidation(t *testing.T) {
	if _, err := NewMemorySource(nil); err == nil {
		t.Fatal("NewMemorySource(nil) should fail")
	}

	ragged := [][]complex128{make([]complex128, 3), make([]complex128, 4)}
	if _, err := NewMemorySource(ragged); err == nil {
		t.Fatal("NewMemorySource with ragged frames should fail")
	}
}

func TestCollect(t *testing.T) {
	src, err := NewMemorySource(testFrames(5, 2))
	if err != nil {
		t.Fatalf("NewMemorySource failed: %v", err)
	}

	all, err := Collect(src, -1)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("Collect drained %d frames, want 5", len(all))
	}

	src.Reset()
	some, err := Collect(src, 2)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(some) != 2 {
		t.Fatalf("Collect with limit drained %d frames, want 2", len(some))
	}
}
