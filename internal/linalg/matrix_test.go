package linalg

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/kinestate/internal/kinerr"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestIdentityAndMul(t *testing.T) {
	id := Identity(3)
	m, err := FromSlice(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	prod, err := id.Mul(m)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if !prod.Equal(m) {
		t.Errorf("I*M != M")
	}
}

func TestMulShapeMismatch(t *testing.T) {
	a := New(2, 3)
	b := New(2, 3)
	if _, err := a.Mul(b); !errors.Is(err, kinerr.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestInverseSingular(t *testing.T) {
	m, _ := FromSlice(2, 2, []float64{1, 2, 2, 4})
	if _, err := m.Inverse(); !errors.Is(err, kinerr.ErrSingular) {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m, _ := FromSlice(2, 2, []float64{4, 7, 2, 6})
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	prod, err := m.Mul(inv)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if !approxEqual(prod.At(i, j), want, 1e-9) {
				t.Errorf("prod[%d][%d] = %v, want %v", i, j, prod.At(i, j), want)
			}
		}
	}
}

func TestCholeskySPD(t *testing.T) {
	// SPD matrix: [[4,12,-16],[12,37,-43],[-16,-43,98]]
	m, _ := FromSlice(3, 3, []float64{
		4, 12, -16,
		12, 37, -43,
		-16, -43, 98,
	})
	l, err := m.Cholesky()
	if err != nil {
		t.Fatalf("Cholesky: %v", err)
	}
	lt := l.Transpose()
	reconstructed, err := l.Mul(lt)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !approxEqual(reconstructed.At(i, j), m.At(i, j), 1e-9) {
				t.Errorf("L*L^T[%d][%d] = %v, want %v", i, j, reconstructed.At(i, j), m.At(i, j))
			}
		}
	}
}

func TestCholeskyNonSPD(t *testing.T) {
	m, _ := FromSlice(2, 2, []float64{1, 2, 2, 1})
	if _, err := m.Cholesky(); !errors.Is(err, kinerr.ErrSingular) {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

func TestMulTransposeRight(t *testing.T) {
	a, _ := FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b, _ := FromSlice(2, 3, []float64{1, 0, 0, 0, 1, 0})
	got, err := a.MulTransposeRight(b)
	if err != nil {
		t.Fatalf("MulTransposeRight: %v", err)
	}
	want, err := a.Mul(b.Transpose())
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("MulTransposeRight mismatch")
	}
}

func TestOuterProduct(t *testing.T) {
	a, _ := FromSlice(2, 1, []float64{1, 2})
	b, _ := FromSlice(3, 1, []float64{3, 4, 5})
	out, err := OuterProduct(a, b)
	if err != nil {
		t.Fatalf("OuterProduct: %v", err)
	}
	want := [][]float64{{3, 4, 5}, {6, 8, 10}}
	for i := range want {
		for j := range want[i] {
			if out.At(i, j) != want[i][j] {
				t.Errorf("out[%d][%d] = %v, want %v", i, j, out.At(i, j), want[i][j])
			}
		}
	}
}

func TestPermuteRows(t *testing.T) {
	m, _ := FromSlice(3, 1, []float64{1, 2, 3})
	if err := m.PermuteRows([]int{2, 0, 1}); err != nil {
		t.Fatalf("PermuteRows: %v", err)
	}
	want := []float64{3, 1, 2}
	for i, w := range want {
		if m.At(i, 0) != w {
			t.Errorf("row %d = %v, want %v", i, m.At(i, 0), w)
		}
	}
}

func TestBandMasksOffDiagonal(t *testing.T) {
	m, _ := FromSlice(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	banded := m.Band(0, 0)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				if banded.At(i, j) != m.At(i, j) {
					t.Errorf("diagonal element changed at (%d,%d)", i, j)
				}
			} else if banded.At(i, j) != 0 {
				t.Errorf("off-diagonal element not zeroed at (%d,%d)", i, j)
			}
		}
	}
}

func TestSerializeRowMajor(t *testing.T) {
	m, _ := FromSlice(2, 2, []float64{1, 2, 3, 4})
	rows, cols, data := m.Serialize()
	if rows != 2 || cols != 2 {
		t.Fatalf("dims = (%d,%d), want (2,2)", rows, cols)
	}
	want := []float64{1, 2, 3, 4}
	for i, w := range want {
		if data[i] != w {
			t.Errorf("data[%d] = %v, want %v", i, data[i], w)
		}
	}
}
