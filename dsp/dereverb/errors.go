package dereverb

import "errors"

// ErrNotEstimated is returned by a streaming step before a successful
// EstimateFilter call.
var ErrNotEstimated = errors.New("dereverb: prediction filter not estimated, call EstimateFilter first")

// ErrChannelCapacity is returned when more input sources are registered
// than the configured channel count.
var ErrChannelCapacity = errors.New("dereverb: channel capacity exceeded")
