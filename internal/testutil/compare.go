package testutil

import "math/cmplx"

// ComplexClose reports whether a and b differ by at most eps in magnitude.
func ComplexClose(a, b complex128, eps float64) bool {
	return cmplx.Abs(a-b) <= eps
}

// FrameEnergy sums |v|² over a frame.
func FrameEnergy(frame []complex128) float64 {
	sum := 0.0
	for _, v := range frame {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum
}
