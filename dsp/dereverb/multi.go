package dereverb

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-dereverb/dsp/stream"
	"github.com/cwbudde/algo-dereverb/internal/linalg"
)

// MultiChannelWPE dereverberates several synchronized subband streams by
// joint linear prediction: each channel's late reverberation is predicted
// from the lagged samples of every channel, giving one predictor of length
// predictionOrder × channels per (channel, subband) pair.
//
// Outputs are read through per-channel views created with [MultiChannelWPE.ChannelView].
// The per-frame joint computation is keyed by frame index: whichever view
// first requests a frame triggers the computation for all channels, and the
// remaining views read the cached result. Views may therefore be pulled in
// any order, as long as all of them advance in lockstep.
type MultiChannelWPE struct {
	cfg        config
	subbands   int
	channels   int
	order      int
	jointOrder int
	lowerBand  int
	upperBand  int
	loadFactor float64

	sources []stream.Source

	// filters[ch][s] is the joint predictor producing channel ch's output
	// at subband s.
	filters [][][]complex128

	estimated bool
	ring      *lagRing
	lags      []complex128
	output    [][]complex128
	brace     [][]complex128
	seq       stream.Sequencer
	views     []*ChannelView
}

// NewMultiChannel returns a joint multi-channel WPE dereverberator for the
// given frame size and channel count. Input sources are registered
// afterwards with [MultiChannelWPE.AddSource]; estimation requires all
// channels to be registered.
func NewMultiChannel(subbands, channels int, sampleRate float64, opts ...Option) (*MultiChannelWPE, error) {
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if subbands < 2 {
		return nil, fmt.Errorf("dereverb: frame must have at least 2 subbands: %d", subbands)
	}
	if channels < 1 {
		return nil, fmt.Errorf("dereverb: channel count must be >= 1: %d", channels)
	}
	lowerBand, err := cfg.bandLimit(subbands, sampleRate)
	if err != nil {
		return nil, err
	}

	order := cfg.predictionOrder()
	jointOrder := order * channels

	filters := make([][][]complex128, channels)
	output := make([][]complex128, channels)
	for ch := range channels {
		filters[ch] = make([][]complex128, subbands)
		for s := range filters[ch] {
			filters[ch][s] = make([]complex128, jointOrder)
		}
		output[ch] = make([]complex128, subbands)
	}

	return &MultiChannelWPE{
		cfg:        cfg,
		subbands:   subbands,
		channels:   channels,
		order:      order,
		jointOrder: jointOrder,
		lowerBand:  lowerBand,
		upperBand:  subbands - lowerBand,
		loadFactor: cfg.loadFactor(),
		filters:    filters,
		ring:       newLagRing(order, channels, subbands),
		lags:       make([]complex128, jointOrder),
		output:     output,
		brace:      make([][]complex128, channels),
	}, nil
}

// Size returns the number of subbands per frame.
func (w *MultiChannelWPE) Size() int {
	return w.subbands
}

// Channels returns the configured channel count.
func (w *MultiChannelWPE) Channels() int {
	return w.channels
}

// PredictionOrder returns the number of lag taps per channel; joint
// predictors have PredictionOrder × Channels coefficients.
func (w *MultiChannelWPE) PredictionOrder() int {
	return w.order
}

// Filter returns the joint predictor producing channel ch's output at one
// subband. The slice is live.
func (w *MultiChannelWPE) Filter(channel, subband int) ([]complex128, error) {
	if channel < 0 || channel >= w.channels {
		return nil, fmt.Errorf("dereverb: invalid channel index %d, have %d channels", channel, w.channels)
	}
	return w.filters[channel][subband], nil
}

// AddSource registers the next input channel. Registering more sources than
// the configured channel count fails with [ErrChannelCapacity].
func (w *MultiChannelWPE) AddSource(src stream.Source) error {
	if len(w.sources) == w.channels {
		return ErrChannelCapacity
	}
	if src.Size() != w.subbands {
		return fmt.Errorf("dereverb: source has %d subbands, expected %d", src.Size(), w.subbands)
	}
	w.sources = append(w.sources, src)
	return nil
}

func (w *MultiChannelWPE) activeSubband(s int) bool {
	return s <= w.lowerBand || s >= w.upperBand
}

// EstimateFilter buffers frame braces [startFrame, endFrame) from all
// sources (or to exhaustion if endFrame < 0), jointly estimates the
// predictors, rewinds the sources, and discards the batch buffer. It
// returns the number of frame braces buffered.
//
// A Cholesky failure during estimation means the regularized joint system
// is not positive definite; the returned error suggests the remedies.
func (w *MultiChannelWPE) EstimateFilter(startFrame, endFrame int) (int, error) {
	if len(w.sources) != w.channels {
		return 0, fmt.Errorf("dereverb: %d of %d channels registered", len(w.sources), w.channels)
	}

	batch, err := w.fillBuffer(startFrame, endFrame)
	if err != nil {
		return 0, err
	}
	if err := w.estimateFilters(batch); err != nil {
		return 0, err
	}

	for _, src := range w.sources {
		src.Reset()
	}
	w.seq.Reset()
	w.ring.reset()
	for _, v := range w.views {
		v.seq.Reset()
	}
	w.estimated = true
	return len(batch), nil
}

func (w *MultiChannelWPE) fillBuffer(startFrame, endFrame int) (batchStore, error) {
	var batch batchStore
	exhausted := false
	for frX := 0; !exhausted && (endFrame < 0 || frX < endFrame); frX++ {
		if frX < startFrame {
			continue
		}
		brace := make([][]complex128, w.channels)
		for ch, src := range w.sources {
			block, err := src.Next(-1)
			if errors.Is(err, stream.ErrEndOfStream) {
				exhausted = true
				break
			}
			if err != nil {
				return nil, err
			}
			frame := make([]complex128, w.subbands)
			copy(frame, block)
			brace[ch] = frame
		}
		if !exhausted {
			batch = append(batch, brace)
		}
	}
	return batch, nil
}

// estimateFilters runs the alternating passes over the batch: per-channel
// power matrices from the current joint predictors, then one regularized
// solve per (active subband, channel).
func (w *MultiChannelWPE) estimateFilters(batch batchStore) error {
	theta := make([][][]float64, w.channels)
	for ch := range theta {
		theta[ch] = make([][]float64, len(batch))
		for t := range theta[ch] {
			theta[ch][t] = make([]float64, w.subbands)
		}
	}
	scratch := newPowerScratch(w.subbands)

	R, err := linalg.NewHermitian(w.jointOrder)
	if err != nil {
		return err
	}
	r := make([]complex128, w.jointOrder)

	for iter := range w.cfg.iterations {
		for ch := range w.channels {
			updateTheta(theta[ch], batch, w.filters[ch], w.lags, scratch, w.channels, w.order, ch, w.cfg.lowerN)
		}

		for s := range w.subbands {
			if !w.activeSubband(s) {
				continue
			}
			for ch := range w.channels {
				criterion := accumulateStats(R, r, batch, theta[ch], w.filters[ch][s], w.lags, w.channels, w.order, ch, s, w.cfg.lowerN)
				biasDiagonal(R, w.cfg.bias)
				loadDiagonal(R, w.loadFactor)
				if err := R.Cholesky(); err != nil {
					return fmt.Errorf("dereverb: channel %d subband %d: %w; channels may be too similar, increase the diagonal bias or estimate each channel independently with SingleChannelWPE", ch, s, err)
				}
				if err := R.SolveCholesky(w.filters[ch][s], r); err != nil {
					return fmt.Errorf("dereverb: channel %d subband %d: %w", ch, s, err)
				}
				if w.cfg.diag != nil {
					w.cfg.diag(iter, ch, s, criterion, gainDb(w.filters[ch][s]))
				}
			}
		}
	}
	return nil
}

// step advances the coordinator to the requested frame index if it is not
// already there: pull one frame per channel, slide the brace into the lag
// window, and compute every channel's dereverberated output.
func (w *MultiChannelWPE) step(frameNo int) error {
	if !w.estimated {
		return ErrNotEstimated
	}
	if w.seq.Repeat(frameNo) {
		return nil
	}
	if err := w.seq.Advance(frameNo); err != nil {
		return err
	}

	for ch, src := range w.sources {
		block, err := src.Next(frameNo)
		if err != nil {
			return err
		}
		w.brace[ch] = block
	}
	w.ring.push(w.brace)

	stepIndex := w.ring.last()
	for ch := range w.channels {
		current := w.ring.frame(stepIndex, ch)
		out := w.output[ch]
		for s := 0; s <= w.subbands/2; s++ {
			cur := current[s]
			if stepIndex >= w.cfg.lowerN && w.activeSubband(s) {
				fillLags(w.lags, w.ring, w.channels, w.order, s, stepIndex-w.cfg.lowerN)
				cur -= linalg.Dotc(w.filters[ch][s], w.lags)
			}
			out[s] = cur
			if s > 0 && s < w.subbands/2 {
				out[w.subbands-s] = cmplx.Conj(cur)
			}
		}
	}
	return nil
}

// Output returns the cached dereverberated frame for one channel at the
// coordinator's current frame index. The slice is overwritten by the next
// step.
func (w *MultiChannelWPE) Output(channel int) ([]complex128, error) {
	if channel < 0 || channel >= w.channels {
		return nil, fmt.Errorf("dereverb: invalid channel index %d, have %d channels", channel, w.channels)
	}
	return w.output[channel], nil
}

// Reset rewinds all sources and clears the streaming state of the
// coordinator and every view. Estimated predictors are kept.
func (w *MultiChannelWPE) Reset() {
	for _, src := range w.sources {
		src.Reset()
	}
	w.seq.Reset()
	w.ring.reset()
	for _, v := range w.views {
		v.seq.Reset()
	}
}

// ResetFilter drops the estimated state so EstimateFilter can run again.
func (w *MultiChannelWPE) ResetFilter() {
	w.estimated = false
}

// NextSpeaker resets the stream and zeroes all joint predictors.
func (w *MultiChannelWPE) NextSpeaker() {
	w.Reset()
	for ch := range w.filters {
		for s := range w.filters[ch] {
			for i := range w.filters[ch][s] {
				w.filters[ch][s][i] = 0
			}
		}
	}
}

// ChannelView returns a [stream.Source] view of one output channel.
func (w *MultiChannelWPE) ChannelView(channel int) (*ChannelView, error) {
	if channel < 0 || channel >= w.channels {
		return nil, fmt.Errorf("dereverb: invalid channel index %d, have %d channels", channel, w.channels)
	}
	v := &ChannelView{source: w, channel: channel}
	w.views = append(w.views, v)
	return v, nil
}

// ChannelView exposes one channel of a [MultiChannelWPE] as a
// [stream.Source]. The first view to request a frame index drives the joint
// computation; views requesting an already-computed index read the cached
// output.
type ChannelView struct {
	source  *MultiChannelWPE
	channel int
	seq     stream.Sequencer
}

// Next implements [stream.Source].
func (v *ChannelView) Next(frameNo int) ([]complex128, error) {
	if v.seq.Repeat(frameNo) {
		return v.source.output[v.channel], nil
	}
	if err := v.seq.Advance(frameNo); err != nil {
		return nil, err
	}
	if err := v.source.step(v.seq.Current()); err != nil {
		return nil, err
	}
	return v.source.output[v.channel], nil
}

// Reset rewinds the underlying coordinator, all sources, and every sibling
// view.
func (v *ChannelView) Reset() {
	v.source.Reset()
}

// Size implements [stream.Source].
func (v *ChannelView) Size() int {
	return v.source.subbands
}
