package geom

// Expr is a quadratic area predicate, represented as the coefficients
// of the feature vector (1, x, y, x², y²): a point (x,y) is inside the
// region when the dot product of Expr with that feature vector is
// non-negative. This lets every leaf predicate (circle, half-plane)
// reduce its membership test to a single dot product.
type Expr [5]float32

// dot evaluates the predicate at (x, y).
func (e Expr) dot(x, y float32) float32 {
	return e[0] + e[1]*x + e[2]*y + e[3]*x*x + e[4]*y*y
}

// Contains reports whether (x, y) is inside the leaf region.
func (e Expr) Contains(x, y float32) bool {
	return e.dot(x, y) >= 0
}

// Circle returns the predicate for the closed disc of radius r about
// centre c: (x-cx)² + (y-cy)² ≤ r².
func Circle(c Point, r float32) Expr {
	return Expr{
		r*r - c.X*c.X - c.Y*c.Y,
		2 * c.X,
		2 * c.Y,
		-1,
		-1,
	}
}

// RightHalfPlane returns the predicate for the points to the right of
// the oriented line through p in direction d:
// d.y*(x-p.x) - d.x*(y-p.y) ≥ 0.
func RightHalfPlane(p Point, d Angle) Expr {
	return Expr{
		d.X*p.Y - d.Y*p.X,
		d.Y,
		-d.X,
		0,
		0,
	}
}

// Predicate is a (possibly composite) area membership test.
type Predicate interface {
	Contains(x, y float32) bool
}

// leaf adapts a single Expr into a Predicate.
type leaf Expr

func (l leaf) Contains(x, y float32) bool { return Expr(l).Contains(x, y) }

// Leaf wraps an Expr as a Predicate.
func Leaf(e Expr) Predicate { return leaf(e) }

type andPredicate []Predicate

func (a andPredicate) Contains(x, y float32) bool {
	for _, p := range a {
		if !p.Contains(x, y) {
			return false
		}
	}
	return true
}

// And returns the conjunction of the given predicates.
func And(ps ...Predicate) Predicate { return andPredicate(ps) }

type orPredicate []Predicate

func (o orPredicate) Contains(x, y float32) bool {
	for _, p := range o {
		if p.Contains(x, y) {
			return true
		}
	}
	return false
}

// Or returns the disjunction of the given predicates.
func Or(ps ...Predicate) Predicate { return orPredicate(ps) }

// CirclePredicate is a convenience wrapper over Circle.
func CirclePredicate(c Point, r float32) Predicate { return Leaf(Circle(c, r)) }

// RightHalfPlanePredicate is a convenience wrapper over RightHalfPlane.
func RightHalfPlanePredicate(p Point, d Angle) Predicate {
	return Leaf(RightHalfPlane(p, d))
}

// Wedge returns the predicate for the angular sector of half-width w
// about direction d, apex at c: the intersection of the two
// half-planes bounding the wedge. d itself must satisfy the
// predicate; each bounding half-plane is oriented (and, if needed,
// negated) so that holds.
func Wedge(c Point, d Angle, w Angle) Predicate {
	dPlus := d.Add(w)
	dMinus := d.Add(w.Neg())

	forward := c.Along(d, 1)

	h1 := RightHalfPlane(c, dMinus)
	if !Expr(h1).Contains(forward.X, forward.Y) {
		h1 = negate(h1)
	}
	h2 := RightHalfPlane(c, dPlus)
	if !Expr(h2).Contains(forward.X, forward.Y) {
		h2 = negate(h2)
	}
	return And(Leaf(h1), Leaf(h2))
}

func negate(e Expr) Expr {
	return Expr{-e[0], -e[1], -e[2], -e[3], -e[4]}
}

// Rectangle returns the predicate for the oriented rectangle whose
// centreline runs from a to b with the given half-width: the
// intersection of the two long-side half-planes (|perpendicular
// distance| ≤ halfWidth) and the two end-cap half-planes (0 ≤
// projection onto ab ≤ |ab|).
func Rectangle(a, b Point, halfWidth float32) Predicate {
	ab := b.Sub(a)
	length := ab.Norm()
	if length == 0 {
		return CirclePredicate(a, halfWidth)
	}
	dir := Point{X: ab.X / length, Y: ab.Y / length}
	n := Point{X: -dir.Y, Y: dir.X} // unit normal to the centreline

	nDotA := n.Dot(a)
	side1 := Expr{halfWidth - nDotA, n.X, n.Y, 0, 0}
	side2 := Expr{halfWidth + nDotA, -n.X, -n.Y, 0, 0}

	dDotA := dir.Dot(a)
	cap1 := Expr{-dDotA, dir.X, dir.Y, 0, 0}
	cap2 := Expr{length + dDotA, -dir.X, -dir.Y, 0, 0}

	return And(Leaf(side1), Leaf(side2), Leaf(cap1), Leaf(cap2))
}
