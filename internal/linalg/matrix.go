package linalg

import (
	"fmt"

	"github.com/banshee-data/kinestate/internal/kinerr"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense f64 matrix value type. The zero value is not usable;
// construct with New, Identity, or FromSlice.
type Matrix struct {
	d *mat.Dense
}

// New allocates a rows x cols matrix of zeros.
func New(rows, cols int) *Matrix {
	return &Matrix{d: mat.NewDense(rows, cols, nil)}
}

// FromSlice builds a matrix from row-major data, the same layout used by
// the persisted binary format (spec.md §6).
func FromSlice(rows, cols int, data []float64) (*Matrix, error) {
	if len(data) != rows*cols {
		return nil, kinerr.Field("FromSlice", fmt.Errorf("%w: got %d elements, want %d", kinerr.ErrShapeMismatch, len(data), rows*cols))
	}
	cp := make([]float64, len(data))
	copy(cp, data)
	return &Matrix{d: mat.NewDense(rows, cols, cp)}, nil
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.d.Set(i, i, 1)
	}
	return m
}

// Dims returns the row and column counts.
func (m *Matrix) Dims() (rows, cols int) { return m.d.Dims() }

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 { return m.d.At(i, j) }

// Set assigns the element at (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.d.Set(i, j, v) }

// Raw exposes the underlying gonum matrix for callers (within this module)
// that need to drive a gonum algorithm directly, e.g. mat.Cholesky.
func (m *Matrix) Raw() *mat.Dense { return m.d }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	var d mat.Dense
	d.CloneFrom(m.d)
	return &Matrix{d: &d}
}

// Equal reports whether m and other have identical dimensions and elements.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil {
		return false
	}
	return mat.Equal(m.d, other.d)
}

func (m *Matrix) checkSameShape(other *Matrix, op string) error {
	r1, c1 := m.Dims()
	r2, c2 := other.Dims()
	if r1 != r2 || c1 != c2 {
		return kinerr.Field(op, fmt.Errorf("%w: (%d,%d) vs (%d,%d)", kinerr.ErrShapeMismatch, r1, c1, r2, c2))
	}
	return nil
}

// Add returns m + other element-wise.
func (m *Matrix) Add(other *Matrix) (*Matrix, error) {
	if err := m.checkSameShape(other, "Add"); err != nil {
		return nil, err
	}
	r, c := m.Dims()
	out := New(r, c)
	out.d.Add(m.d, other.d)
	return out, nil
}

// Sub returns m - other element-wise.
func (m *Matrix) Sub(other *Matrix) (*Matrix, error) {
	if err := m.checkSameShape(other, "Sub"); err != nil {
		return nil, err
	}
	r, c := m.Dims()
	out := New(r, c)
	out.d.Sub(m.d, other.d)
	return out, nil
}

// Scale returns m scaled element-wise by s.
func (m *Matrix) Scale(s float64) *Matrix {
	r, c := m.Dims()
	out := New(r, c)
	out.d.Scale(s, m.d)
	return out
}

// Negate returns -m.
func (m *Matrix) Negate() *Matrix { return m.Scale(-1) }

// Mul returns the matrix product m * other.
func (m *Matrix) Mul(other *Matrix) (*Matrix, error) {
	_, c1 := m.Dims()
	r2, c2 := other.Dims()
	if c1 != r2 {
		return nil, kinerr.Field("Mul", fmt.Errorf("%w: (%d cols) vs (%d rows)", kinerr.ErrShapeMismatch, c1, r2))
	}
	r1, _ := m.Dims()
	out := New(r1, c2)
	out.d.Mul(m.d, other.d)
	return out, nil
}

// Transpose returns a new matrix that is the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	r, c := m.Dims()
	out := New(c, r)
	out.d.CloneFrom(m.d.T())
	return out
}

// MulTransposeRight computes m * other^T without materializing other^T,
// the "fused multiply by transpose of other on left/right" operation named
// in spec.md §4.A (matrix2d.h's postMultiplyTranspose).
func (m *Matrix) MulTransposeRight(other *Matrix) (*Matrix, error) {
	_, c1 := m.Dims()
	_, c2 := other.Dims()
	if c1 != c2 {
		return nil, kinerr.Field("MulTransposeRight", fmt.Errorf("%w: (%d cols) vs (%d cols)", kinerr.ErrShapeMismatch, c1, c2))
	}
	r1, _ := m.Dims()
	r2, _ := other.Dims()
	out := New(r1, r2)
	out.d.Mul(m.d, other.d.T())
	return out, nil
}

// MulTransposeLeft computes m^T * other (matrix2d.h's preMultiplyTranspose).
func (m *Matrix) MulTransposeLeft(other *Matrix) (*Matrix, error) {
	r1, _ := m.Dims()
	r2, _ := other.Dims()
	if r1 != r2 {
		return nil, kinerr.Field("MulTransposeLeft", fmt.Errorf("%w: (%d rows) vs (%d rows)", kinerr.ErrShapeMismatch, r1, r2))
	}
	_, c1 := m.Dims()
	_, c2 := other.Dims()
	out := New(c1, c2)
	out.d.Mul(m.d.T(), other.d)
	return out, nil
}

// Inverse returns the matrix inverse, or ErrSingular if m is singular.
func (m *Matrix) Inverse() (*Matrix, error) {
	r, c := m.Dims()
	if r != c {
		return nil, kinerr.Field("Inverse", fmt.Errorf("%w: matrix is %dx%d, must be square", kinerr.ErrShapeMismatch, r, c))
	}
	out := New(r, r)
	if err := out.d.Inverse(m.d); err != nil {
		return nil, kinerr.Field("Inverse", fmt.Errorf("%w: %v", kinerr.ErrSingular, err))
	}
	return out, nil
}

// Cholesky computes the lower-triangular Cholesky factor L such that
// L*L^T == m, for symmetric positive-definite m, failing with ErrSingular
// if m is not SPD.
func (m *Matrix) Cholesky() (*Matrix, error) {
	r, c := m.Dims()
	if r != c {
		return nil, kinerr.Field("Cholesky", fmt.Errorf("%w: matrix is %dx%d, must be square", kinerr.ErrShapeMismatch, r, c))
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, m.d.At(i, j))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, kinerr.Field("Cholesky", kinerr.ErrSingular)
	}
	var l mat.TriDense
	chol.LTo(&l)
	out := New(r, r)
	out.d.CloneFrom(&l)
	return out, nil
}

// SymmetrizeInPlace replaces m with (m + m^T) / 2, guarding against the
// asymmetry that accumulates in Kalman covariances from floating-point
// rounding across repeated P = A P A^T + Q updates.
func (m *Matrix) SymmetrizeInPlace() error {
	r, c := m.Dims()
	if r != c {
		return kinerr.Field("SymmetrizeInPlace", fmt.Errorf("%w: matrix is %dx%d, must be square", kinerr.ErrShapeMismatch, r, c))
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			avg := (m.At(i, j) + m.At(j, i)) / 2
			m.Set(i, j, avg)
			m.Set(j, i, avg)
		}
	}
	return nil
}

// OuterProduct returns the outer product of column vectors a (m x 1) and b
// (n x 1) as an m x n matrix: a * b^T.
func OuterProduct(a, b *Matrix) (*Matrix, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != 1 || bc != 1 {
		return nil, kinerr.Field("OuterProduct", fmt.Errorf("%w: operands must be column vectors, got (%d,%d) and (%d,%d)", kinerr.ErrShapeMismatch, ar, ac, br, bc))
	}
	out := New(ar, br)
	for i := 0; i < ar; i++ {
		av := a.At(i, 0)
		for j := 0; j < br; j++ {
			out.Set(i, j, av*b.At(j, 0))
		}
	}
	return out, nil
}

// PermuteRows destructively reorders rows of m according to permutation,
// where permutation[i] is the source row that should occupy row i.
func (m *Matrix) PermuteRows(permutation []int) error {
	r, _ := m.Dims()
	if len(permutation) != r {
		return kinerr.Field("PermuteRows", fmt.Errorf("%w: permutation length %d, want %d", kinerr.ErrShapeMismatch, len(permutation), r))
	}
	snapshot := m.Clone()
	for i, src := range permutation {
		m.d.SetRow(i, mat.Row(nil, src, snapshot.d))
	}
	return nil
}

// PermuteColumns destructively reorders columns of m according to
// permutation, where permutation[j] is the source column for output column j.
func (m *Matrix) PermuteColumns(permutation []int) error {
	_, c := m.Dims()
	if len(permutation) != c {
		return kinerr.Field("PermuteColumns", fmt.Errorf("%w: permutation length %d, want %d", kinerr.ErrShapeMismatch, len(permutation), c))
	}
	snapshot := m.Clone()
	for j, src := range permutation {
		m.d.SetCol(j, mat.Col(nil, src, snapshot.d))
	}
	return nil
}

// Band zeroes all elements outside the band [-nBelow, +nAbove] around the
// main diagonal, mirroring matrix2d.h's makeBand/getBand with a k-offset.
func (m *Matrix) Band(nAbove, nBelow int) *Matrix {
	r, c := m.Dims()
	out := m.Clone()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			k := j - i
			if k > nAbove || k < -nBelow {
				out.Set(i, j, 0)
			}
		}
	}
	return out
}

// UpperTriangle zeroes all elements more than nBelow below the main
// diagonal, keeping the diagonal and everything above it.
func (m *Matrix) UpperTriangle(nBelow int) *Matrix {
	_, c := m.Dims()
	return m.Band(c, nBelow)
}

// LowerTriangle zeroes all elements more than nAbove above the main
// diagonal, keeping the diagonal and everything below it.
func (m *Matrix) LowerTriangle(nAbove int) *Matrix {
	r, _ := m.Dims()
	return m.Band(nAbove, r)
}

// Serialize returns the fields of the persisted binary format from spec.md
// §6 in order: the row count, the column count, then rows*cols values in
// row-major order. It writes no bytes itself; encoding them is left to the
// caller.
func (m *Matrix) Serialize() (rows, cols int, data []float64) {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return r, c, out
}
