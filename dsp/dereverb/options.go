package dereverb

import (
	"fmt"
	"math"
)

const (
	defaultLowerN     = 2
	defaultUpperN     = 32
	defaultIterations = 2
	defaultLoadDb     = -20.0
	defaultBias       = 0.01
)

// Diagnostics receives per-subband estimation progress: the likelihood
// criterion value accumulated for the subband and the white-noise gain of
// the updated predictor in dB. channel is always 0 for the single-channel
// estimator.
type Diagnostics func(iteration, channel, subband int, criterion, gainDb float64)

type config struct {
	lowerN     int
	upperN     int
	iterations int
	loadDb     float64
	bandwidth  float64
	bias       float64
	diag       Diagnostics
}

func defaultConfig() config {
	return config{
		lowerN:     defaultLowerN,
		upperN:     defaultUpperN,
		iterations: defaultIterations,
		loadDb:     defaultLoadDb,
		bias:       defaultBias,
	}
}

// Option configures a dereverberation estimator.
type Option func(*config)

// WithPredictionWindow sets the inclusive lag window [lowerN, upperN] of the
// predictor. lowerN frames immediately preceding the current frame are
// excluded from prediction so the direct path and early reflections are
// preserved. Defaults to [2, 32].
func WithPredictionWindow(lowerN, upperN int) Option {
	return func(cfg *config) {
		cfg.lowerN = lowerN
		cfg.upperN = upperN
	}
}

// WithIterations sets the number of alternating estimation passes.
// Zero is allowed and leaves the predictor untouched. Defaults to 2.
func WithIterations(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.iterations = n
		}
	}
}

// WithLoadDb sets the proportional diagonal loading level in decibels.
// The loading added to each diagonal entry is the largest diagonal magnitude
// scaled by 10^(loadDb/10). Defaults to -20 dB.
func WithLoadDb(loadDb float64) Option {
	return func(cfg *config) {
		cfg.loadDb = loadDb
	}
}

// WithBandwidth limits filtering to subbands below bandwidthHz (and their
// conjugate mirror subbands). Zero filters every subband up to Nyquist and
// is the default. A bandwidth above Nyquist is a construction error.
func WithBandwidth(bandwidthHz float64) Option {
	return func(cfg *config) {
		if bandwidthHz >= 0 {
			cfg.bandwidth = bandwidthHz
		}
	}
}

// WithDiagonalBias sets the fixed bias added to the correlation matrix
// diagonal before proportional loading. Only the joint multi-channel
// estimator uses it. Defaults to 0.01.
func WithDiagonalBias(bias float64) Option {
	return func(cfg *config) {
		if bias >= 0 {
			cfg.bias = bias
		}
	}
}

// WithDiagnostics installs a callback invoked after each subband solve
// during estimation. Nil disables diagnostics, which is the default.
func WithDiagnostics(fn Diagnostics) Option {
	return func(cfg *config) {
		cfg.diag = fn
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg *config) validate() error {
	if cfg.lowerN < 1 {
		return fmt.Errorf("dereverb: lowerN must be >= 1: %d", cfg.lowerN)
	}
	if cfg.upperN < cfg.lowerN {
		return fmt.Errorf("dereverb: upperN must be >= lowerN: %d < %d", cfg.upperN, cfg.lowerN)
	}
	return nil
}

// predictionOrder returns the number of lag taps per channel.
func (cfg *config) predictionOrder() int {
	return cfg.upperN - cfg.lowerN + 1
}

// loadFactor converts loadDb to the linear loading factor.
func (cfg *config) loadFactor() float64 {
	return math.Pow(10, cfg.loadDb/10)
}

// bandLimit maps the configured bandwidth to the highest baseband subband
// that receives filtering. subbands is the full frame size.
func (cfg *config) bandLimit(subbands int, sampleRate float64) (int, error) {
	nyquist := subbands / 2
	if cfg.bandwidth == 0 {
		return nyquist, nil
	}
	if sampleRate <= 0 {
		return 0, fmt.Errorf("dereverb: sample rate must be > 0: %g", sampleRate)
	}
	if cfg.bandwidth > sampleRate/2 {
		return 0, fmt.Errorf("dereverb: bandwidth %g Hz exceeds Nyquist %g Hz", cfg.bandwidth, sampleRate/2)
	}
	return int(cfg.bandwidth / (sampleRate / 2) * float64(nyquist)), nil
}
