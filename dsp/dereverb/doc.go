// Package dereverb removes acoustic reverberation from complex subband
// streams using weighted prediction error (WPE) linear prediction.
//
// For each subband, a short regressive filter predicts the late reverberant
// part of the current sample from a window of past samples, skipping the
// lowerN most recent frames so the direct path and early reflections
// survive, and the prediction is subtracted from the observation. The
// filters are estimated offline over a buffered batch of frames by an
// alternating scheme: a non-stationary per-frame, per-subband power model
// is recomputed from the current residuals, then the regularized weighted
// normal equations are re-solved per subband. Estimation and causal
// application are separate phases; after estimation the source is rewound
// and replayed frame by frame through the estimated filters.
//
// Two variants are provided. [SingleChannelWPE] processes one stream in
// isolation. [MultiChannelWPE] jointly predicts each channel's output from
// the lagged samples of every channel; its per-channel outputs are read
// through [ChannelView] sources, with one joint computation per frame
// shared by all views.
//
// # Usage
//
//	src, _ := stream.NewMemorySource(frames)
//	wpe, err := dereverb.NewSingleChannel(src, 16000,
//		dereverb.WithPredictionWindow(2, 30),
//		dereverb.WithIterations(2),
//	)
//	if err != nil {
//		// handle configuration error
//	}
//	if _, err := wpe.EstimateFilter(0, -1); err != nil {
//		// handle estimation error
//	}
//	for {
//		out, err := wpe.Next(-1)
//		if errors.Is(err, stream.ErrEndOfStream) {
//			break
//		}
//		// consume out
//	}
//
// Only the baseband subbands up to the configured bandwidth limit and their
// conjugate mirror subbands are filtered; the spectrum of a real-valued
// signal is conjugate symmetric, so the upper half of every output frame is
// reconstructed from the lower half. Subbands between the two limits pass
// through unchanged.
//
// The package expects subband analysis and synthesis to happen outside: it
// consumes and produces [stream.Source] frame streams and never touches
// time-domain audio.
package dereverb
