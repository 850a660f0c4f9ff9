package gridtopo

import "github.com/chewxy/math32"

// Segment rasterises the segment (p0, p1) into the ordered sequence
// of cell indices it traverses, start to end inclusive, using a fast
// voxel traversal (Amanatides & Woo).
//
// Callers that need the open segment (every cell up to but excluding
// the cell the ray lands in) drop the last element themselves.
//
// p0 and p1 need not lie inside the grid: the segment is first
// clipped to the grid's bounding rectangle, and traversal runs only
// over the clipped portion. Cells outside the grid are never emitted;
// a segment that never touches the grid yields an empty result.
func (g GridTopology) Segment(p0, p1 Point) []int {
	d := p1.Sub(p0)

	t0, t1, ok := clipToBounds(p0, d, g.origin(), g.CellSize*float32(g.Width), g.CellSize*float32(g.Height))
	if !ok {
		return nil
	}

	start := p0.Add(d.Scale(t0))
	end := p0.Add(d.Scale(t1))

	if start == end {
		if idx := g.IndexOf(start); idx >= 0 {
			return []int{idx}
		}
		return nil
	}

	o := g.origin()
	col := clampInt(int(math32.Floor((start.X-o.X)/g.CellSize)), 0, g.Width-1)
	row := clampInt(int(math32.Floor((start.Y-o.Y)/g.CellSize)), 0, g.Height-1)
	endCol := clampInt(int(math32.Floor((end.X-o.X)/g.CellSize)), 0, g.Width-1)
	endRow := clampInt(int(math32.Floor((end.Y-o.Y)/g.CellSize)), 0, g.Height-1)

	stepCol, stepRow := 1, 1
	if d.X < 0 {
		stepCol = -1
	}
	if d.Y < 0 {
		stepRow = -1
	}

	tMaxX := nextBoundaryT(p0.X, o.X, d.X, col, stepCol, g.CellSize)
	tMaxY := nextBoundaryT(p0.Y, o.Y, d.Y, row, stepRow, g.CellSize)
	tDeltaX := boundaryStepT(d.X, g.CellSize)
	tDeltaY := boundaryStepT(d.Y, g.CellSize)

	var cells []int
	maxSteps := g.Width + g.Height + 2
	for steps := 0; steps <= maxSteps; steps++ {
		if idx := g.IndexOfColRow(col, row); idx >= 0 {
			cells = append(cells, idx)
		}
		if col == endCol && row == endRow {
			break
		}
		if tMaxX < tMaxY {
			tMaxX += tDeltaX
			col += stepCol
		} else {
			tMaxY += tDeltaY
			row += stepRow
		}
	}

	return cells
}

// clipToBounds intersects the ray p0+t*d, t in [0,1], against the
// axis-aligned rectangle [origin, origin+(w,h)), returning the
// sub-interval [t0,t1] that falls inside it (Cyrus-Beck / slab
// method). ok is false if the segment misses the rectangle entirely.
func clipToBounds(p0, d, origin Point, w, h float32) (t0, t1 float32, ok bool) {
	t0, t1 = 0, 1
	if !clipAxis(p0.X, d.X, origin.X, origin.X+w, &t0, &t1) {
		return 0, 0, false
	}
	if !clipAxis(p0.Y, d.Y, origin.Y, origin.Y+h, &t0, &t1) {
		return 0, 0, false
	}
	return t0, t1, t0 <= t1
}

func clipAxis(p0, d, lo, hi float32, t0, t1 *float32) bool {
	if d == 0 {
		return p0 >= lo && p0 <= hi
	}
	ta := (lo - p0) / d
	tb := (hi - p0) / d
	if ta > tb {
		ta, tb = tb, ta
	}
	if ta > *t0 {
		*t0 = ta
	}
	if tb < *t1 {
		*t1 = tb
	}
	return *t0 <= *t1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextBoundaryT returns the segment parameter t (0 at p0, 1 at the
// segment's end, since v is the un-normalised component of p1-p0) at
// which the ray first crosses a grid line perpendicular to this axis.
func nextBoundaryT(p0, origin, v float32, cell, step int, cellSize float32) float32 {
	if v == 0 {
		return math32.Inf(1)
	}
	boundary := float32(cell) * cellSize
	if step > 0 {
		boundary += cellSize
	}
	t := (origin + boundary - p0) / v
	if t < 0 {
		t = 0
	}
	return t
}

// boundaryStepT returns the t-increment corresponding to crossing one
// full cell along this axis.
func boundaryStepT(v, cellSize float32) float32 {
	if v == 0 {
		return math32.Inf(1)
	}
	return math32.Abs(cellSize / v)
}
