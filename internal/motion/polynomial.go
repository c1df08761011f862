package motion

import (
	"math"
	"math/cmplx"
)

// realRoots returns the real roots of the polynomial whose coefficients are
// coeffs[0] + coeffs[1]*t + ... + coeffs[n]*t^n, trimming leading
// (highest-degree) coefficients that are (numerically) zero.
//
// Root-finding uses the Durand-Kerner (Weierstrass) simultaneous-iteration
// method: a practical, numerically robust substitute for full Jenkins-Traub
// at the degree (<=3 in practice) this module's trajectories produce — see
// DESIGN.md for why the heavier three-stage Jenkins-Traub algorithm was not
// ported.
func realRoots(coeffs []float64) []float64 {
	n := len(coeffs) - 1
	for n > 0 && math.Abs(coeffs[n]) < 1e-15 {
		n--
	}
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{-coeffs[0] / coeffs[1]}
	}

	norm := make([]complex128, n+1)
	for i := 0; i <= n; i++ {
		norm[i] = complex(coeffs[i]/coeffs[n], 0)
	}

	eval := func(x complex128) complex128 {
		sum := complex(0, 0)
		p := complex(1, 0)
		for _, c := range norm {
			sum += c * p
			p *= x
		}
		return sum
	}

	roots := make([]complex128, n)
	seed := complex(0.4, 0.9)
	cur := complex(1.0, 0.0)
	for i := 0; i < n; i++ {
		roots[i] = cur
		cur *= seed
	}

	const iterations = 200
	for iter := 0; iter < iterations; iter++ {
		maxDelta := 0.0
		for i := range roots {
			denom := complex(1, 0)
			for j := range roots {
				if j != i {
					denom *= roots[i] - roots[j]
				}
			}
			if denom == 0 {
				continue
			}
			delta := eval(roots[i]) / denom
			roots[i] -= delta
			if d := cmplx.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < 1e-14 {
			break
		}
	}

	out := make([]float64, 0, n)
	for _, r := range roots {
		re, im := real(r), imag(r)
		tol := 1e-6 * math.Max(1, math.Abs(re))
		if math.Abs(im) < tol {
			out = append(out, re)
		}
	}
	return out
}

// pickApproachRoot selects the smallest non-negative root from roots, or
// the root smallest in magnitude if none are non-negative (spec.md §4.D:
// "pick the smallest non-negative real root, or the smallest real root in
// magnitude if none is positive"). Returns 0, false if roots is empty.
func pickApproachRoot(roots []float64) (float64, bool) {
	if len(roots) == 0 {
		return 0, false
	}
	best := roots[0]
	haveNonNeg := best >= 0
	for _, r := range roots[1:] {
		switch {
		case r >= 0 && (!haveNonNeg || r < best):
			best = r
			haveNonNeg = true
		case !haveNonNeg && math.Abs(r) < math.Abs(best):
			best = r
		}
	}
	return best, true
}
