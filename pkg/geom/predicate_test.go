package geom

import "testing"

func TestCircle_Contains(t *testing.T) {
	c := Circle(Point{X: 0, Y: 0}, 2)
	tests := []struct {
		name string
		x, y float32
		want bool
	}{
		{"centre", 0, 0, true},
		{"on boundary", 2, 0, true},
		{"inside", 1, 1, true},
		{"outside", 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRightHalfPlane_Contains(t *testing.T) {
	// line through origin heading north (Deg0); the right half-plane is x >= 0.
	h := RightHalfPlane(Point{X: 0, Y: 0}, Deg0)
	if !h.Contains(1, 0) {
		t.Error("(1,0) should be in the right half-plane of a north-heading line through origin")
	}
	if h.Contains(-1, 0) {
		t.Error("(-1,0) should not be in the right half-plane")
	}
}

func TestWedge_Contains(t *testing.T) {
	w := Wedge(Point{X: 0, Y: 0}, Deg0, FromRad(0.3))
	if !w.Contains(0, 1) {
		t.Error("forward point should be inside a forward-facing wedge")
	}
	if w.Contains(0, -1) {
		t.Error("backward point should not be inside a forward-facing wedge")
	}
	if w.Contains(10, 0) {
		t.Error("lateral point should not be inside a narrow forward wedge")
	}
}

func TestRectangle_Contains(t *testing.T) {
	r := Rectangle(Point{X: 0, Y: 0}, Point{X: 0, Y: 10}, 1)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"on centreline, midway", Point{X: 0, Y: 5}, true},
		{"within half-width", Point{X: 0.9, Y: 5}, true},
		{"outside half-width", Point{X: 1.5, Y: 5}, false},
		{"before start cap", Point{X: 0, Y: -1}, false},
		{"after end cap", Point{X: 0, Y: 11}, false},
		{"at start", Point{X: 0, Y: 0}, true},
		{"at end", Point{X: 0, Y: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p.X, tt.p.Y); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestAndOr(t *testing.T) {
	a := CirclePredicate(Point{X: 0, Y: 0}, 1)
	b := CirclePredicate(Point{X: 2, Y: 0}, 1)

	and := And(a, b)
	or := Or(a, b)

	if and.Contains(0.5, 0) {
		t.Error("(0.5,0) lies in only one circle, And should reject it")
	}
	if !or.Contains(0.5, 0) {
		t.Error("(0.5,0) lies in one circle, Or should accept it")
	}
	if !and.Contains(1, 0) {
		t.Error("(1,0) lies on both closed boundaries, And should accept it")
	}
	if !or.Contains(2.5, 0) {
		t.Error("(2.5,0) lies in the second circle, Or should accept it")
	}
}
