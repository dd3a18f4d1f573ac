package dereverb

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-dereverb/internal/linalg"
)

// subbandFloor is the minimum residual magnitude admitted by the power
// model; thetaFloor is the corresponding power. Power estimates never fall
// below thetaFloor, keeping the weighted statistics and the log-likelihood
// finite.
const (
	subbandFloor = 1e-3
	thetaFloor   = subbandFloor * subbandFloor
)

// powerScratch holds the split re/im rows used to batch residual power
// computation through vecmath.
type powerScratch struct {
	re, im []float64
}

func newPowerScratch(subbands int) *powerScratch {
	return &powerScratch{
		re: make([]float64, subbands),
		im: make([]float64, subbands),
	}
}

// updateTheta recomputes one output channel's power matrix from the current
// predictors: theta[t][s] is the floored squared magnitude of the residual
// at frame t, subband s. Frames before lowerN have no usable lag window, so
// their residual is the raw observation.
func updateTheta(theta [][]float64, store frameStore, filters [][]complex128, lags []complex128, scratch *powerScratch, channels, order, outCh, lowerN int) {
	subbands := len(scratch.re)
	for t := range theta {
		obs := store.frame(t, outCh)
		for s := range subbands {
			cur := obs[s]
			if t >= lowerN {
				fillLags(lags, store, channels, order, s, t-lowerN)
				cur -= linalg.Dotc(filters[s], lags)
			}
			scratch.re[s] = real(cur)
			scratch.im[s] = imag(cur)
		}
		vecmath.Power(theta[t], scratch.re, scratch.im)
		for s := range theta[t] {
			if theta[t][s] < thetaFloor {
				theta[t][s] = thetaFloor
			}
		}
	}
}

// accumulateStats rebuilds the weighted correlation matrix R (lower
// triangle) and cross-correlation vector r for one subband and one output
// channel, and returns the accumulated likelihood criterion
// Σ |residual|²/θ + log θ. R and r are cleared first; theta must have been
// updated for the same predictors.
func accumulateStats(R *linalg.Hermitian, r []complex128, store frameStore, theta [][]float64, filt, lags []complex128, channels, order, outCh, subband, lowerN int) float64 {
	R.Zero()
	for i := range r {
		r[i] = 0
	}

	criterion := 0.0
	taps := len(lags)
	for t := lowerN; t < len(theta); t++ {
		th := theta[t][subband]
		inv := complex(1/th, 0)
		fillLags(lags, store, channels, order, subband, t-lowerN)

		for row := range taps {
			rowS := lags[row] * inv
			for col := 0; col <= row; col++ {
				R.Add(row, col, rowS*cmplx.Conj(lags[col]))
			}
		}

		cur := store.frame(t, outCh)[subband]
		diff := cur - linalg.Dotc(filt, lags)
		criterion += (real(diff)*real(diff)+imag(diff)*imag(diff))/th + math.Log(th)

		curConj := cmplx.Conj(cur) * inv
		for i := range r {
			r[i] += curConj * lags[i]
		}
	}
	return criterion
}

// biasDiagonal adds a fixed bias to every diagonal entry of R. The joint
// multi-channel system applies it before proportional loading to stay
// solvable when channels are strongly correlated.
func biasDiagonal(R *linalg.Hermitian, bias float64) {
	if bias == 0 {
		return
	}
	for i := range R.Order() {
		R.Add(i, i, complex(bias, 0))
	}
}

// loadDiagonal applies proportional diagonal loading: every diagonal entry
// becomes its magnitude plus the largest diagonal magnitude scaled by
// factor. Loading never shrinks a diagonal entry.
func loadDiagonal(R *linalg.Hermitian, factor float64) {
	maxDiag := 0.0
	for i := range R.Order() {
		if d := cmplx.Abs(R.At(i, i)); d > maxDiag {
			maxDiag = d
		}
	}
	for i := range R.Order() {
		R.Set(i, i, complex(cmplx.Abs(R.At(i, i))+maxDiag*factor, 0))
	}
}

// gainDb returns the white-noise gain of a predictor in dB.
func gainDb(filt []complex128) float64 {
	return 20 * math.Log10(linalg.Nrm2(filt))
}
