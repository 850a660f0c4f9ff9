package geom

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestAngle_Add(t *testing.T) {
	tests := []struct {
		name string
		a, b Angle
		want Angle
	}{
		{"0+90=90", Deg0, Deg90, Deg90},
		{"90+90=180", Deg90, Deg90, Deg180},
		{"180+180=0", Deg180, Deg180, Deg0},
		{"270+90=0", Deg270, Deg90, Deg0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Add(tt.b)
			if !almostEqual(got.X, tt.want.X) || !almostEqual(got.Y, tt.want.Y) {
				t.Errorf("Add = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAngle_Sub(t *testing.T) {
	got := Deg90.Sub(Deg90)
	if !almostEqual(got.X, Deg0.X) || !almostEqual(got.Y, Deg0.Y) {
		t.Errorf("Sub = %+v, want %+v", got, Deg0)
	}
}

func TestAngle_IsUnit(t *testing.T) {
	if !Deg90.IsUnit(1e-6) {
		t.Error("Deg90 should be unit")
	}
	bad := Angle{X: 1, Y: 1}
	if bad.IsUnit(1e-6) {
		t.Error("(1,1) should not be unit")
	}
}

func TestAngle_Less(t *testing.T) {
	if !Deg0.Less(Deg90) {
		t.Error("Deg0 (forward) should sort before Deg90 (lateral)")
	}
	if Deg90.Less(Deg0) {
		t.Error("Deg90 (lateral) should not sort before Deg0 (forward)")
	}
}

func TestFromRad_RoundTrip(t *testing.T) {
	for _, rad := range []float32{0, math32.Pi / 4, math32.Pi / 2, math32.Pi, -math32.Pi / 3} {
		a := FromRad(rad)
		if !a.IsUnit(1e-5) {
			t.Errorf("FromRad(%v) not unit: %+v", rad, a)
		}
	}
}

func almostEqual(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-5
}
