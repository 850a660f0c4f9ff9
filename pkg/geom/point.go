package geom

import "github.com/chewxy/math32"

// Point is a plain 2D world coordinate (metres).
type Point struct {
	X, Y float32
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by c.
func (p Point) Scale(c float32) Point { return Point{p.X * c, p.Y * c} }

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float32 { return p.X*q.X + p.Y*q.Y }

// Norm returns the Euclidean length of p.
func (p Point) Norm() float32 { return math32.Sqrt(p.Dot(p)) }

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float32 { return p.Sub(q).Norm() }

// Along returns the point at distance d from p in the direction a.
func (p Point) Along(a Angle, d float32) Point {
	return p.Add(a.Direction().Scale(d))
}
