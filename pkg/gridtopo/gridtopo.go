// Package gridtopo implements the bijection between world coordinates
// and cell indices for a finite rectangular grid centred on a point.
// Cells are square, addressed by a single linear index in row-major
// order from the grid's bottom-left corner.
package gridtopo

import (
	"github.com/chewxy/math32"
	"github.com/itohio/wheelly/pkg/geom"
)

// Point is the world-coordinate type used throughout the core.
type Point = geom.Point

// GridTopology maps between world coordinates and the linear index of
// the cell that contains them, over a width x height grid of square
// cells of side CellSize, centred on Centre.
type GridTopology struct {
	Centre   Point
	Width    int
	Height   int
	CellSize float32
}

// New builds a GridTopology. cellSize must be > 0.
func New(centre Point, width, height int, cellSize float32) GridTopology {
	if cellSize <= 0 {
		panic("gridtopo: cellSize must be > 0")
	}
	return GridTopology{Centre: centre, Width: width, Height: height, CellSize: cellSize}
}

// N is the total number of cells.
func (g GridTopology) N() int { return g.Width * g.Height }

// origin is the world coordinate of the grid's bottom-left corner.
func (g GridTopology) origin() Point {
	return Point{
		X: g.Centre.X - float32(g.Width)*g.CellSize/2,
		Y: g.Centre.Y - float32(g.Height)*g.CellSize/2,
	}
}

// ColRow returns the integer column/row of the cell containing p, and
// whether p falls inside the grid rectangle at all.
func (g GridTopology) ColRow(p Point) (col, row int, ok bool) {
	o := g.origin()
	fc := (p.X - o.X) / g.CellSize
	fr := (p.Y - o.Y) / g.CellSize
	col = int(math32.Floor(fc))
	row = int(math32.Floor(fr))
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return col, row, false
	}
	return col, row, true
}

// IndexOf returns the linear cell index containing p, or -1 if p falls
// outside the grid.
func (g GridTopology) IndexOf(p Point) int {
	col, row, ok := g.ColRow(p)
	if !ok {
		return -1
	}
	return row*g.Width + col
}

// IndexOfColRow returns the linear index of a (col, row) pair, or -1 if
// out of range.
func (g GridTopology) IndexOfColRow(col, row int) int {
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return -1
	}
	return row*g.Width + col
}

// ColRowOf decomposes a linear index into (col, row).
func (g GridTopology) ColRowOf(index int) (col, row int) {
	return index % g.Width, index / g.Width
}

// CentreOf returns the continuous world coordinate of the centre of
// cell index.
func (g GridTopology) CentreOf(index int) Point {
	col, row := g.ColRowOf(index)
	o := g.origin()
	return Point{
		X: o.X + (float32(col)+0.5)*g.CellSize,
		Y: o.Y + (float32(row)+0.5)*g.CellSize,
	}
}

// Contains reports whether p falls within the grid rectangle.
func (g GridTopology) Contains(p Point) bool {
	_, _, ok := g.ColRow(p)
	return ok
}

// Valid reports whether index addresses an existing cell.
func (g GridTopology) Valid(index int) bool {
	return index >= 0 && index < g.N()
}
