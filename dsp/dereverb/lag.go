package dereverb

// frameStore provides indexed access to buffered frames. frame returns nil
// for indices outside the retained range; lag extraction treats those taps
// as zero (cold-start zero padding).
type frameStore interface {
	frame(frameIndex, channel int) []complex128
}

// batchStore is the unbounded estimation buffer: one brace of per-channel
// frames per buffered time step.
type batchStore [][][]complex128

func (b batchStore) frame(frameIndex, channel int) []complex128 {
	if frameIndex < 0 || frameIndex >= len(b) {
		return nil
	}
	return b[frameIndex][channel]
}

// lagRing is the fixed-capacity streaming buffer. It retains the most
// recent capacity frames, addressed by absolute frame index modulo
// capacity, so eviction is a plain overwrite.
type lagRing struct {
	braces   [][][]complex128 // capacity × channels × subbands
	capacity int
	count    int // total frames pushed since the last reset
}

func newLagRing(capacity, channels, subbands int) *lagRing {
	braces := make([][][]complex128, capacity)
	for i := range braces {
		braces[i] = make([][]complex128, channels)
		for ch := range braces[i] {
			braces[i][ch] = make([]complex128, subbands)
		}
	}
	return &lagRing{braces: braces, capacity: capacity}
}

// push copies one frame per channel into the slot of the next absolute
// index, evicting the frame that held it capacity steps ago.
func (r *lagRing) push(brace [][]complex128) {
	slot := r.braces[r.count%r.capacity]
	for ch := range slot {
		copy(slot[ch], brace[ch])
	}
	r.count++
}

// pushFrame is the single-channel push.
func (r *lagRing) pushFrame(frame []complex128) {
	slot := r.braces[r.count%r.capacity]
	copy(slot[0], frame)
	r.count++
}

// last returns the absolute index of the most recent frame, or -1 when
// empty.
func (r *lagRing) last() int {
	return r.count - 1
}

func (r *lagRing) frame(frameIndex, channel int) []complex128 {
	if frameIndex < 0 || frameIndex >= r.count || frameIndex < r.count-r.capacity {
		return nil
	}
	return r.braces[frameIndex%r.capacity][channel]
}

func (r *lagRing) reset() {
	r.count = 0
}

// fillLags writes the prediction input vector for one subband into dst:
// for each channel, the order most recent samples ending at absolute frame
// index start, most recent first. Taps before the retained range are zero.
// dst must have length channels × order.
func fillLags(dst []complex128, store frameStore, channels, order, subband, start int) {
	i := 0
	for ch := range channels {
		for lag := range order {
			f := store.frame(start-lag, ch)
			if f == nil {
				dst[i] = 0
			} else {
				dst[i] = f[subband]
			}
			i++
		}
	}
}
