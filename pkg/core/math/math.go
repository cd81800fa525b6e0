package math

import (
	stdmath "math"
	"math/cmplx"

	"github.com/chewxy/math32"
)

const magic32 = 0x5F375A86

func SQR(a float32) float32 {
	return a * a
}

func Clamp(a, min, max float32) float32 {
	switch {
	case a > max:
		return max
	case a < min:
		return min
	default:
		return a
	}
}

// (a^2+b^2)^(1/2) without Owerflow
func Pytag(a, b float32) float32 {
	absa := math32.Abs(a)
	absb := math32.Abs(b)
	if absa > absb {
		return absa * math32.Sqrt(1.0+SQR(absb/absa))
	} else {
		if absb > 0 {
			return absb * math32.Sqrt(1.0+SQR(absa/absb))
		}
		return 0
	}
}

// Quadratic equation solver
func Quad(a, b, c, eps float32) (float32, float32) {
	if a == 0 {
		if c == 0 {
			return 0, 0
		}
		return b / c, b / c
	}

	if b == 0 {
		t := -c / a
		if t <= 0 {
			return 0, 0
		}
		t = math32.Sqrt(t)
		return t, t
	}

	r := -b
	z := b*b - 4*a*c
	if z < eps {
		z = 0
	} else if z < 0 {
		return 0, 0
	}
	z = math32.Sqrt(z)
	return (r + z) / (2 * a), (r - z) / (2 * a)
}

// https://medium.com/@adrien.za/fast-inverse-square-root-in-go-and-javascript-for-fun-6b891e74e5a8
func FastISqrt(x float32) float32 {
	// If n is negative return NaN
	// if x < 0 {
	// 	return float32(math.NaN())
	// }

	// n2 and th are for one iteration of Newton's method later
	n2, th := x*0.5, float32(1.5)
	// Use math.Float32bits to represent the float32, n, as
	// an uint32 without modification.
	b := math32.Float32bits(x)
	// Use the new uint32 view of the float32 to shift the bits
	// of the float32 1 to the right, chopping off 1 bit from
	// the fraction part of the float32.
	b = magic32 - (b >> 1)
	// Use math.Float32frombits to convert the uint32 bits back
	// into their float32 representation, again no actual change
	// in the bits, just a change in how we treat them in memory.
	// f is now our answer of 1 / sqrt(n)
	f := math32.Float32frombits(b)
	// Perform one iteration of Newton's method on f to improve
	// accuracy
	f *= th - (n2 * f * f)

	// And return our fast inverse square root result
	return f
}

// realRootEps bounds the imaginary part below which a complex quartic/cubic
// root is treated as real.
const realRootEps = 1e-6

// Quartic solves A*t^4 + B*t^3 + C*t^2 + D*t + E = 0 for its smallest
// non-negative real root, via Ferrari's method over complex numbers. ok is
// false if no root satisfies t >= 0 within realRootEps of the real axis.
func Quartic(a, b, c, d, e float32) (t float32, ok bool) {
	if a == 0 {
		return cubic(float64(b), float64(c), float64(d), float64(e))
	}

	A, B, C, D, E := float64(a), float64(b), float64(c), float64(d), float64(e)
	// Normalize to t^4 + pt^3 + qt^2 + rt + s = 0
	p, q, r, s := B/A, C/A, D/A, E/A

	// Depressed quartic u^4 + pu^2 + qu + r = 0, t = u - p/4
	shift := p / 4
	p2 := q - 3*p*p/8
	q2 := r - p*q/2 + p*p*p/8
	r2 := s - p*r/4 + p*p*q/16 - 3*p*p*p*p/256

	// Resolvent cubic: y^3 - p2*y^2 - 4*r2*y + (4*p2*r2 - q2*q2) = 0
	yOK, y := resolventCubicRoot(-p2, -4*r2, 4*p2*r2-q2*q2)
	if !yOK {
		return 0, false
	}

	m := y - p2
	var sqrtM complex128
	if m >= 0 {
		sqrtM = complex(stdmath.Sqrt(m), 0)
	} else {
		sqrtM = complex(0, stdmath.Sqrt(-m))
	}

	roots := make([]complex128, 0, 4)
	if cmplx.Abs(sqrtM) < 1e-12 {
		// Degenerate branch: m == 0
		disc := complex(y*y-4*r2, 0)
		sq := cmplx.Sqrt(disc)
		roots = append(roots,
			(complex(-p2, 0)+sq)/2,
			(complex(-p2, 0)-sq)/2,
		)
		for _, u2 := range append([]complex128{}, roots...) {
			su := cmplx.Sqrt(u2)
			roots = append(roots, su, -su)
		}
		roots = roots[2:]
	} else {
		term := complex(p2+y, 0)
		qOver := complex(2*q2, 0) / sqrtM
		u1 := cmplx.Sqrt((-term - qOver)) / complex(2, 0)
		u2 := cmplx.Sqrt((-term + qOver)) / complex(2, 0)
		roots = append(roots,
			sqrtM/2+u1, sqrtM/2-u1,
			-sqrtM/2+u2, -sqrtM/2-u2,
		)
	}

	best := float64(0)
	found := false
	for _, u := range roots {
		root := real(u) - shift
		if stdmath.Abs(imag(u)) > realRootEps {
			continue
		}
		if root < -realRootEps {
			continue
		}
		if root < 0 {
			root = 0
		}
		if !found || root < best {
			best = root
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return float32(best), true
}

// cubic solves b*t^3 + c*t^2 + d*t + e = 0 for its smallest non-negative
// real root (used when the quartic's leading coefficient vanishes).
func cubic(b, c, d, e float64) (float32, bool) {
	if b == 0 {
		r1, r2 := Quad(float32(c), float32(d), float32(e), 1e-6)
		if r1 < 0 && r2 < 0 {
			return 0, false
		}
		if r1 < 0 {
			return r2, true
		}
		if r2 < 0 {
			return r1, true
		}
		if r1 < r2 {
			return r1, true
		}
		return r2, true
	}

	p, q, r := c/b, d/b, e/b
	shift := p / 3
	pp := q - p*p/3
	qq := 2*p*p*p/27 - p*q/3 + r

	disc := (qq * qq / 4) + (pp * pp * pp / 27)
	var roots [3]complex128
	if disc >= 0 {
		sqrtDisc := stdmath.Sqrt(disc)
		u := cbrt(-qq/2 + sqrtDisc)
		v := cbrt(-qq/2 - sqrtDisc)
		roots[0] = complex(u+v, 0)
		roots[1] = complex(-(u+v)/2, (u-v)*1.7320508075688772/2)
		roots[2] = complex(-(u+v)/2, -(u-v)*1.7320508075688772/2)
	} else {
		m := 2 * stdmath.Sqrt(-pp/3)
		theta := stdmath.Acos(3*qq/(pp*m)) / 3
		for k := 0; k < 3; k++ {
			roots[k] = complex(m*stdmath.Cos(theta-2*3.141592653589793*float64(k)/3), 0)
		}
	}

	found := false
	best := 0.0
	for _, root := range roots {
		if stdmath.Abs(imag(root)) > realRootEps {
			continue
		}
		t := real(root) - shift
		if t < -realRootEps {
			continue
		}
		if t < 0 {
			t = 0
		}
		if !found || t < best {
			best = t
			found = true
		}
	}
	return float32(best), found
}

// resolventCubicRoot returns one real root of y^3 + by^2 + cy + d = 0,
// preferring the largest real root (standard choice for Ferrari's method).
func resolventCubicRoot(b, c, d float64) (bool, float64) {
	p := c - b*b/3
	q := 2*b*b*b/27 - b*c/3 + d
	shift := b / 3

	disc := (q * q / 4) + (p * p * p / 27)
	if disc >= 0 {
		sqrtDisc := stdmath.Sqrt(disc)
		u := cbrt(-q/2 + sqrtDisc)
		v := cbrt(-q/2 - sqrtDisc)
		return true, u + v - shift
	}

	m := 2 * stdmath.Sqrt(-p/3)
	theta := stdmath.Acos(clamp64(3*q/(p*m), -1, 1)) / 3
	// Largest of the three real roots.
	best := m*stdmath.Cos(theta) - shift
	for k := 1; k < 3; k++ {
		v := m*stdmath.Cos(theta-2*3.141592653589793*float64(k)/3) - shift
		if v > best {
			best = v
		}
	}
	return true, best
}

func cbrt(x float64) float64 {
	if x < 0 {
		return -stdmath.Pow(-x, 1.0/3.0)
	}
	return stdmath.Pow(x, 1.0/3.0)
}

func clamp64(a, lo, hi float64) float64 {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}
