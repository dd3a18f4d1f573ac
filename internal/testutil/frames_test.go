package testutil

import (
	"math/cmplx"
	"testing"
)

func TestEchoFramesConjugateSymmetry(t *testing.T) {
	const (
		frames   = 10
		subbands = 16
	)
	out := EchoFrames(frames, subbands, 2, 0.6, 42)

	if len(out) != frames {
		t.Fatalf("generated %d frames, want %d", len(out), frames)
	}
	for ti, frame := range out {
		if len(frame) != subbands {
			t.Fatalf("frame %d has %d subbands, want %d", ti, len(frame), subbands)
		}
		if imag(frame[0]) != 0 || imag(frame[subbands/2]) != 0 {
			t.Errorf("frame %d: DC or Nyquist not real", ti)
		}
		for s := 1; s < subbands/2; s++ {
			if frame[subbands-s] != cmplx.Conj(frame[s]) {
				t.Errorf("frame %d subband %d: mirror is not the conjugate", ti, s)
			}
		}
	}
}

func TestEchoFramesRecursion(t *testing.T) {
	const (
		echoLag = 3
		decay   = 0.7
	)
	with := EchoFrames(12, 8, echoLag, decay, 7)
	without := EchoFrames(12, 8, echoLag, 0, 7)

	// Same seed, so the excitation matches and the echo relation
	// y[t] = x[t] + decay·y[t-echoLag] is exact.
	for t1 := echoLag; t1 < len(with); t1++ {
		for s := range with[t1] {
			want := without[t1][s] + complex(decay, 0)*with[t1-echoLag][s]
			if !ComplexClose(with[t1][s], want, 1e-12) {
				t.Fatalf("frame %d subband %d = %v, want %v", t1, s, with[t1][s], want)
			}
		}
	}
}

func TestEchoFramesDeterministic(t *testing.T) {
	a := EchoFrames(6, 8, 2, 0.5, 99)
	b := EchoFrames(6, 8, 2, 0.5, 99)
	for ti := range a {
		for s := range a[ti] {
			if a[ti][s] != b[ti][s] {
				t.Fatalf("frame %d subband %d differs across runs", ti, s)
			}
		}
	}
}

func TestEchoChannels(t *testing.T) {
	chans := EchoChannels(8, 8, 3, 2, 5)
	if len(chans) != 3 {
		t.Fatalf("generated %d channels, want 3", len(chans))
	}
	for ch := range chans {
		if len(chans[ch]) != 8 {
			t.Fatalf("channel %d has %d frames, want 8", ch, len(chans[ch]))
		}
	}
}

func TestReverberantFramesSymmetry(t *testing.T) {
	const fftSize = 16
	frames := ReverberantFrames(t, 6, fftSize, 2, 0.5)

	for ti, frame := range frames {
		for s := 1; s < fftSize/2; s++ {
			if !ComplexClose(frame[fftSize-s], cmplx.Conj(frame[s]), 1e-9) {
				t.Fatalf("frame %d subband %d: spectrum of a real signal must be conjugate symmetric", ti, s)
			}
		}
	}
}

func TestFrameEnergy(t *testing.T) {
	if got := FrameEnergy([]complex128{3, 4i}); got != 25 {
		t.Fatalf("FrameEnergy = %g, want 25", got)
	}
	if got := FrameEnergy(nil); got != 0 {
		t.Fatalf("FrameEnergy(nil) = %g, want 0", got)
	}
}
