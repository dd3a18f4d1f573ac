// Package linalg provides the complex Hermitian linear algebra needed by the
// dereverberation estimators: dense Hermitian storage, in-place Cholesky
// factorisation with triangular solves, and conjugated dot products.
package linalg

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrNotPositiveDefinite is returned by [Hermitian.Cholesky] when the matrix
// is not positive definite. It is distinct from dimension errors so callers
// can react to the numeric condition specifically.
var ErrNotPositiveDefinite = errors.New("linalg: matrix is not positive definite")

// Hermitian is a dense n×n complex Hermitian matrix. Only the lower triangle
// (including the diagonal) is stored authoritatively; the upper triangle is
// implied by conjugate symmetry and never read.
type Hermitian struct {
	n    int
	data []complex128 // row-major, full n×n
}

// NewHermitian returns a zeroed n×n Hermitian matrix.
func NewHermitian(n int) (*Hermitian, error) {
	if n <= 0 {
		return nil, fmt.Errorf("linalg: matrix order must be > 0: %d", n)
	}
	return &Hermitian{n: n, data: make([]complex128, n*n)}, nil
}

// Order returns the matrix order n.
func (h *Hermitian) Order() int {
	return h.n
}

// At returns the element at row i, column j. Only the lower triangle
// (j <= i) is meaningful.
func (h *Hermitian) At(i, j int) complex128 {
	return h.data[i*h.n+j]
}

// Set writes the element at row i, column j.
func (h *Hermitian) Set(i, j int, v complex128) {
	h.data[i*h.n+j] = v
}

// Add accumulates v into the element at row i, column j.
func (h *Hermitian) Add(i, j int, v complex128) {
	h.data[i*h.n+j] += v
}

// Zero clears the matrix.
func (h *Hermitian) Zero() {
	for i := range h.data {
		h.data[i] = 0
	}
}

// Cholesky factors the matrix in place as L·Lᴴ, with L overwriting the
// lower triangle. Returns [ErrNotPositiveDefinite] if a pivot fails to be
// positive.
func (h *Hermitian) Cholesky() error {
	n := h.n
	for j := range n {
		d := real(h.At(j, j))
		for k := range j {
			l := h.At(j, k)
			d -= real(l)*real(l) + imag(l)*imag(l)
		}
		if d <= 0 || math.IsNaN(d) {
			return ErrNotPositiveDefinite
		}
		ljj := math.Sqrt(d)
		h.Set(j, j, complex(ljj, 0))
		for i := j + 1; i < n; i++ {
			s := h.At(i, j)
			for k := range j {
				s -= h.At(i, k) * cmplx.Conj(h.At(j, k))
			}
			h.Set(i, j, s/complex(ljj, 0))
		}
	}
	return nil
}

// SolveCholesky solves L·Lᴴ·x = b into dst, where the receiver holds the
// factor L produced by [Hermitian.Cholesky]. dst and b must have length
// Order; dst and b may alias.
func (h *Hermitian) SolveCholesky(dst, b []complex128) error {
	n := h.n
	if len(dst) != n || len(b) != n {
		return fmt.Errorf("linalg: solve dimension mismatch: dst %d, b %d, order %d", len(dst), len(b), n)
	}

	// Forward substitution: L·z = b.
	for i := range n {
		s := b[i]
		for k := range i {
			s -= h.At(i, k) * dst[k]
		}
		dst[i] = s / h.At(i, i)
	}

	// Back substitution: Lᴴ·x = z.
	for i := n - 1; i >= 0; i-- {
		s := dst[i]
		for k := i + 1; k < n; k++ {
			s -= cmplx.Conj(h.At(k, i)) * dst[k]
		}
		dst[i] = s / h.At(i, i)
	}
	return nil
}

// Dotc returns the conjugated dot product Σ conj(x[i])·y[i].
// x and y must have the same length.
func Dotc(x, y []complex128) complex128 {
	var s complex128
	for i := range x {
		s += cmplx.Conj(x[i]) * y[i]
	}
	return s
}

// Nrm2 returns the Euclidean norm of x.
func Nrm2(x []complex128) float64 {
	var s float64
	for _, v := range x {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(s)
}
