// Package geom is the shared geometry kernel: angle arithmetic,
// quadratic area predicates and square-cell/arc intersection. Segment
// rasterisation over a grid lives in pkg/gridtopo.
package geom

import "github.com/chewxy/math32"

// Angle is a unit 2-vector (X, Y) = (sin θ, cos θ). Addition is complex
// multiplication: adding two angles composes the rotations they
// represent. Exact integer coordinates back the four canonical
// instances below.
type Angle struct {
	X, Y float32
}

var (
	Deg0   = Angle{X: 0, Y: 1}
	Deg90  = Angle{X: 1, Y: 0}
	Deg180 = Angle{X: 0, Y: -1}
	Deg270 = Angle{X: -1, Y: 0}
)

// FromRad builds an Angle from a radian heading.
func FromRad(rad float32) Angle {
	s, c := math32.Sincos(rad)
	return Angle{X: s, Y: c}
}

// Rad returns the radian heading of a.
func (a Angle) Rad() float32 {
	return math32.Atan2(a.X, a.Y)
}

// Add composes two angles by complex multiplication: treating (Y, X)
// as (cos, sin) of a unit complex number, a.Add(b) is the rotation by
// a's heading followed by b's.
func (a Angle) Add(b Angle) Angle {
	return Angle{
		X: a.X*b.Y + a.Y*b.X,
		Y: a.Y*b.Y - a.X*b.X,
	}
}

// Neg returns the conjugate angle, i.e. the additive inverse:
// a.Add(a.Neg()) == Deg0.
func (a Angle) Neg() Angle {
	return Angle{X: -a.X, Y: a.Y}
}

// Sub returns a rotated backwards by b.
func (a Angle) Sub(b Angle) Angle {
	return a.Add(b.Neg())
}

// Less orders angles by the magnitude of their X (sin) component, the
// front/back axis: angles near the forward/backward heading (Y ≈ ±1,
// X ≈ 0) sort before angles near the lateral headings.
func (a Angle) Less(b Angle) bool {
	return math32.Abs(a.X) < math32.Abs(b.X)
}

// IsUnit reports whether a.X²+a.Y² is within eps of 1, the invariant
// every Angle must satisfy.
func (a Angle) IsUnit(eps float32) bool {
	d := a.X*a.X + a.Y*a.Y - 1
	return math32.Abs(d) <= eps
}

// Direction returns the unit heading vector (sin, cos) as a Point,
// i.e. the direction a ray with this Angle travels from the origin.
func (a Angle) Direction() Point {
	return Point{X: a.X, Y: a.Y}
}
