// Package testutil provides deterministic subband frame generators and
// comparison helpers shared by the dereverberation test suites.
package testutil

import (
	"math/cmplx"
	"testing"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// rng is a small linear congruential generator; tests need reproducible
// signals, not statistical quality.
type rng struct {
	state uint64
}

func (r *rng) next() float64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return float64(r.state>>11)/float64(1<<53)*2 - 1
}

// EchoFrames generates conjugate-symmetric subband frames with a
// per-subband echo recursion y[t] = x[t] + decay·y[t-echoLag], the
// subband-domain shape of late reverberation. The excitation x is
// deterministic noise derived from seed.
func EchoFrames(frames, subbands, echoLag int, decay float64, seed uint64) [][]complex128 {
	r := rng{state: seed}
	half := subbands / 2

	out := make([][]complex128, frames)
	for t := range out {
		out[t] = make([]complex128, subbands)
		for s := 0; s <= half; s++ {
			var x complex128
			switch s {
			case 0, half:
				// DC and Nyquist of a real signal are real-valued.
				x = complex(r.next(), 0)
			default:
				x = complex(r.next(), r.next())
			}
			y := x
			if t >= echoLag {
				y += complex(decay, 0) * out[t-echoLag][s]
			}
			out[t][s] = y
			if s > 0 && s < half {
				out[t][subbands-s] = cmplx.Conj(y)
			}
		}
	}
	return out
}

// EchoChannels generates one echo frame stream per channel, sharing the
// excitation structure but with channel-dependent echo strength, the shape
// of one source recorded by spaced microphones.
func EchoChannels(frames, subbands, channels, echoLag int, seed uint64) [][][]complex128 {
	out := make([][][]complex128, channels)
	for ch := range out {
		decay := 0.5 + 0.1*float64(ch)
		out[ch] = EchoFrames(frames, subbands, echoLag, decay, seed+uint64(ch)*17)
	}
	return out
}

// ReverberantFrames builds subband frames the way a filterbank collaborator
// would: a synthetic time-domain signal is passed through a feedback echo
// whose delay is a whole number of frames, then framed and transformed with
// an FFT plan. The whole-frame delay makes the echo an exact per-subband
// recursion across frames.
func ReverberantFrames(tb testing.TB, frames, fftSize, echoFrames int, decay float64) [][]complex128 {
	tb.Helper()

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		tb.Fatalf("NewPlan64(%d) failed: %v", fftSize, err)
	}

	total := frames * fftSize
	dry := make([]float64, total)
	r := rng{state: 0x5eed}
	for n := range dry {
		dry[n] = 0.3 * r.next()
		if n%257 == 0 {
			dry[n] += 1
		}
	}

	wet := make([]float64, total)
	delay := echoFrames * fftSize
	for n := range wet {
		wet[n] = dry[n]
		if n >= delay {
			wet[n] += decay * wet[n-delay]
		}
	}

	out := make([][]complex128, frames)
	scratch := make([]complex128, fftSize)
	for f := range out {
		for i := range fftSize {
			scratch[i] = complex(wet[f*fftSize+i], 0)
		}
		frame := make([]complex128, fftSize)
		if err := plan.Forward(frame, scratch); err != nil {
			tb.Fatalf("Forward failed: %v", err)
		}
		out[f] = frame
	}
	return out
}
