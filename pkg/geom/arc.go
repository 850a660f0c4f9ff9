package geom

// SquareArcInterval returns the (near, far) distances from apex at
// which the oriented wedge of half-angle halfAngle about direction
// enters and leaves the axis-aligned square cell centred at
// cellCentre with side cellSize. ok is false if the wedge and the
// cell's boundary never meet.
//
// This is the geometric kernel shared by the radar cell update and
// the polar sector derivation: near/far come from whichever of (a)
// the square's four corners fall inside the wedge, or (b) the wedge's
// two bounding rays crossing one of the square's four edges, is
// closer/farther from apex.
func SquareArcInterval(cellCentre Point, cellSize float32, apex Point, direction Angle, halfAngle Angle) (near, far float32, ok bool) {
	half := cellSize / 2
	corners := [4]Point{
		{X: cellCentre.X - half, Y: cellCentre.Y - half},
		{X: cellCentre.X + half, Y: cellCentre.Y - half},
		{X: cellCentre.X + half, Y: cellCentre.Y + half},
		{X: cellCentre.X - half, Y: cellCentre.Y + half},
	}

	cosHalf := halfAngle.Y
	fwd := direction.Direction()

	var candidates []float32

	for _, c := range corners {
		r := c.Sub(apex)
		d := r.Norm()
		if d == 0 {
			candidates = append(candidates, 0)
			continue
		}
		if r.Dot(fwd) >= d*cosHalf {
			candidates = append(candidates, d)
		}
	}

	rays := [2]Point{
		direction.Add(halfAngle).Direction(),
		direction.Add(halfAngle.Neg()).Direction(),
	}
	for _, rd := range rays {
		for i := 0; i < 4; i++ {
			p1 := corners[i]
			p2 := corners[(i+1)%4]
			if t, ok := rayIntersectSegment(apex, rd, p1, p2); ok {
				candidates = append(candidates, t)
			}
		}
	}

	if len(candidates) == 0 {
		return 0, 0, false
	}

	near, far = candidates[0], candidates[0]
	for _, d := range candidates[1:] {
		if d < near {
			near = d
		}
		if d > far {
			far = d
		}
	}
	return near, far, true
}

// rayIntersectSegment returns the ray parameter t (distance along rd,
// a unit vector) at which the ray apex+t*rd (t≥0) crosses the segment
// p1-p2, if any.
func rayIntersectSegment(apex, rd, p1, p2 Point) (float32, bool) {
	e := p2.Sub(p1)
	w := p1.Sub(apex)

	det := e.X*rd.Y - e.Y*rd.X
	if det == 0 {
		return 0, false
	}

	t := (e.X*w.Y - e.Y*w.X) / det
	s := (rd.X*w.Y - rd.Y*w.X) / det

	if t < 0 || s < 0 || s > 1 {
		return 0, false
	}
	return t, true
}
