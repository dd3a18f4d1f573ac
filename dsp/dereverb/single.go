package dereverb

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-dereverb/dsp/stream"
	"github.com/cwbudde/algo-dereverb/internal/linalg"
)

// SingleChannelWPE dereverberates one subband stream by weighted prediction
// error: a per-subband linear predictor, estimated over a buffered batch of
// frames, predicts the late reverberant tail from lagged samples and the
// prediction is subtracted causally during streaming.
//
// The type implements [stream.Source], so it slots into a processing chain
// in place of the raw source. EstimateFilter must succeed before the first
// Next call.
type SingleChannelWPE struct {
	cfg        config
	src        stream.Source
	subbands   int
	order      int
	lowerBand  int
	upperBand  int
	loadFactor float64

	// filters[s] is the predictor for subband s; zero until estimated and
	// carried across Reset calls.
	filters [][]complex128

	estimated bool
	ring      *lagRing
	lags      []complex128
	out       []complex128
	seq       stream.Sequencer
}

// NewSingleChannel returns a single-channel WPE dereverberator reading from
// src. sampleRate is only consulted when a bandwidth limit is configured.
func NewSingleChannel(src stream.Source, sampleRate float64, opts ...Option) (*SingleChannelWPE, error) {
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	subbands := src.Size()
	if subbands < 2 {
		return nil, fmt.Errorf("dereverb: frame must have at least 2 subbands: %d", subbands)
	}
	lowerBand, err := cfg.bandLimit(subbands, sampleRate)
	if err != nil {
		return nil, err
	}

	order := cfg.predictionOrder()
	filters := make([][]complex128, subbands)
	for s := range filters {
		filters[s] = make([]complex128, order)
	}

	return &SingleChannelWPE{
		cfg:        cfg,
		src:        src,
		subbands:   subbands,
		order:      order,
		lowerBand:  lowerBand,
		upperBand:  subbands - lowerBand,
		loadFactor: cfg.loadFactor(),
		filters:    filters,
		ring:       newLagRing(order, 1, subbands),
		lags:       make([]complex128, order),
		out:        make([]complex128, subbands),
	}, nil
}

// Size implements [stream.Source].
func (w *SingleChannelWPE) Size() int {
	return w.subbands
}

// PredictionOrder returns the number of lag taps per predictor.
func (w *SingleChannelWPE) PredictionOrder() int {
	return w.order
}

// Filter returns the predictor for one subband. The slice is live; it is
// zero for subbands outside the active set.
func (w *SingleChannelWPE) Filter(subband int) []complex128 {
	return w.filters[subband]
}

// activeSubband reports whether subband s receives filtering. Subbands
// strictly between the two band limits are reconstructed by conjugate
// symmetry instead.
func (w *SingleChannelWPE) activeSubband(s int) bool {
	return s <= w.lowerBand || s >= w.upperBand
}

// EstimateFilter buffers frames [startFrame, endFrame) from the source (or
// to exhaustion if endFrame < 0), runs the configured number of alternating
// estimation passes, rewinds the source for streaming, and discards the
// batch buffer. It returns the number of frames buffered.
func (w *SingleChannelWPE) EstimateFilter(startFrame, endFrame int) (int, error) {
	batch, err := w.fillBuffer(startFrame, endFrame)
	if err != nil {
		return 0, err
	}
	if err := w.estimateFilters(batch); err != nil {
		return 0, err
	}

	w.src.Reset()
	w.seq.Reset()
	w.ring.reset()
	w.estimated = true
	return len(batch), nil
}

func (w *SingleChannelWPE) fillBuffer(startFrame, endFrame int) (batchStore, error) {
	var batch batchStore
	for frX := 0; endFrame < 0 || frX < endFrame; frX++ {
		if frX < startFrame {
			continue
		}
		block, err := w.src.Next(-1)
		if errors.Is(err, stream.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}
		frame := make([]complex128, w.subbands)
		copy(frame, block)
		batch = append(batch, [][]complex128{frame})
	}
	return batch, nil
}

// estimateFilters runs the alternating passes: recompute the power matrix
// from the current predictors over all subbands, then re-solve the
// regularized normal equations per active subband.
func (w *SingleChannelWPE) estimateFilters(batch batchStore) error {
	theta := make([][]float64, len(batch))
	for t := range theta {
		theta[t] = make([]float64, w.subbands)
	}
	scratch := newPowerScratch(w.subbands)

	R, err := linalg.NewHermitian(w.order)
	if err != nil {
		return err
	}
	r := make([]complex128, w.order)

	for iter := range w.cfg.iterations {
		updateTheta(theta, batch, w.filters, w.lags, scratch, 1, w.order, 0, w.cfg.lowerN)

		for s := range w.subbands {
			if !w.activeSubband(s) {
				continue
			}
			criterion := accumulateStats(R, r, batch, theta, w.filters[s], w.lags, 1, w.order, 0, s, w.cfg.lowerN)
			loadDiagonal(R, w.loadFactor)
			if err := R.Cholesky(); err != nil {
				return fmt.Errorf("dereverb: subband %d: %w", s, err)
			}
			if err := R.SolveCholesky(w.filters[s], r); err != nil {
				return fmt.Errorf("dereverb: subband %d: %w", s, err)
			}
			if w.cfg.diag != nil {
				w.cfg.diag(iter, 0, s, criterion, gainDb(w.filters[s]))
			}
		}
	}
	return nil
}

// Next implements [stream.Source]: it pulls the next raw frame, slides it
// into the lag window, subtracts the predicted late reverberation on every
// active subband, and reconstructs the conjugate-symmetric upper half of
// the spectrum. Repeating the current frame index returns the cached
// output.
func (w *SingleChannelWPE) Next(frameNo int) ([]complex128, error) {
	if !w.estimated {
		return nil, ErrNotEstimated
	}
	if w.seq.Repeat(frameNo) {
		return w.out, nil
	}
	if err := w.seq.Advance(frameNo); err != nil {
		return nil, err
	}

	block, err := w.src.Next(frameNo)
	if err != nil {
		return nil, err
	}
	w.ring.pushFrame(block)

	stepIndex := w.ring.last()
	for s := 0; s <= w.subbands/2; s++ {
		cur := block[s]
		if stepIndex >= w.cfg.lowerN && w.activeSubband(s) {
			fillLags(w.lags, w.ring, 1, w.order, s, stepIndex-w.cfg.lowerN)
			cur -= linalg.Dotc(w.filters[s], w.lags)
		}
		w.out[s] = cur
		if s > 0 && s < w.subbands/2 {
			w.out[w.subbands-s] = cmplx.Conj(cur)
		}
	}
	return w.out, nil
}

// Reset rewinds the source and clears the streaming lag window. The
// estimated predictors are kept.
func (w *SingleChannelWPE) Reset() {
	w.src.Reset()
	w.seq.Reset()
	w.ring.reset()
}

// ResetFilter drops the estimated state so EstimateFilter can run again on
// new data. The predictor coefficients themselves are untouched.
func (w *SingleChannelWPE) ResetFilter() {
	w.estimated = false
}

// NextSpeaker resets the stream and zeroes all predictors, preparing the
// dereverberator for a new talker.
func (w *SingleChannelWPE) NextSpeaker() {
	w.Reset()
	for s := range w.filters {
		for i := range w.filters[s] {
			w.filters[s][i] = 0
		}
	}
}
