package dereverb

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-dereverb/dsp/stream"
	"github.com/cwbudde/algo-dereverb/internal/testutil"
)

func BenchmarkSingleChannelEstimate(b *testing.B) {
	frames := testutil.EchoFrames(64, 32, 2, 0.7, 123)
	src, err := stream.NewMemorySource(frames)
	if err != nil {
		b.Fatalf("NewMemorySource failed: %v", err)
	}
	wpe, err := NewSingleChannel(src, 16000,
		WithPredictionWindow(1, 8),
		WithIterations(2),
	)
	if err != nil {
		b.Fatalf("NewSingleChannel failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		wpe.ResetFilter()
		src.Reset()
		if _, err := wpe.EstimateFilter(0, -1); err != nil {
			b.Fatalf("EstimateFilter failed: %v", err)
		}
	}
}

func BenchmarkSingleChannelNext(b *testing.B) {
	frames := testutil.EchoFrames(256, 32, 2, 0.7, 321)
	src, err := stream.NewMemorySource(frames)
	if err != nil {
		b.Fatalf("NewMemorySource failed: %v", err)
	}
	wpe, err := NewSingleChannel(src, 16000,
		WithPredictionWindow(1, 8),
		WithIterations(1),
	)
	if err != nil {
		b.Fatalf("NewSingleChannel failed: %v", err)
	}
	if _, err := wpe.EstimateFilter(0, -1); err != nil {
		b.Fatalf("EstimateFilter failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		if _, err := wpe.Next(-1); err != nil {
			if errors.Is(err, stream.ErrEndOfStream) {
				wpe.Reset()
				continue
			}
			b.Fatalf("Next failed: %v", err)
		}
	}
}

func BenchmarkMultiChannelEstimate(b *testing.B) {
	chans := testutil.EchoChannels(64, 32, 2, 2, 231)
	wpe, err := NewMultiChannel(32, 2, 16000,
		WithPredictionWindow(1, 4),
		WithIterations(1),
	)
	if err != nil {
		b.Fatalf("NewMultiChannel failed: %v", err)
	}
	sources := make([]*stream.MemorySource, 2)
	for ch := range chans {
		src, err := stream.NewMemorySource(chans[ch])
		if err != nil {
			b.Fatalf("NewMemorySource failed: %v", err)
		}
		sources[ch] = src
		if err := wpe.AddSource(src); err != nil {
			b.Fatalf("AddSource failed: %v", err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		wpe.ResetFilter()
		for _, src := range sources {
			src.Reset()
		}
		if _, err := wpe.EstimateFilter(0, -1); err != nil {
			b.Fatalf("EstimateFilter failed: %v", err)
		}
	}
}
