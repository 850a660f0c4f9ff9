package geom

import "testing"

func TestPoint_Along(t *testing.T) {
	p := Point{X: 0, Y: 0}
	got := p.Along(Deg0, 2)
	want := Point{X: 0, Y: 2}
	if !almostEqual(got.X, want.X) || !almostEqual(got.Y, want.Y) {
		t.Errorf("Along(Deg0, 2) = %+v, want %+v", got, want)
	}

	got = p.Along(Deg90, 2)
	want = Point{X: 2, Y: 0}
	if !almostEqual(got.X, want.X) || !almostEqual(got.Y, want.Y) {
		t.Errorf("Along(Deg90, 2) = %+v, want %+v", got, want)
	}
}

func TestPoint_DistanceTo(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	if got := a.DistanceTo(b); !almostEqual(got, 5) {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
}

func TestPoint_Dot(t *testing.T) {
	a := Point{X: 1, Y: 2}
	b := Point{X: 3, Y: 4}
	if got := a.Dot(b); got != 11 {
		t.Errorf("Dot = %v, want 11", got)
	}
}
