// Package polar derives a short-lived, egocentric sector view from
// the radar map: for each of K angular sectors about the robot, the
// nearest classified point and what it means for local obstacle
// avoidance.
package polar

import (
	"github.com/chewxy/math32"

	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/radar"
)

// Classification is the priority-ordered meaning of a sector's
// nearest point: Hindered beats Empty beats Unknown.
type Classification int

const (
	Unknown Classification = iota
	Empty
	Hindered
)

// Sector is one angular wedge of the polar view.
type Sector struct {
	Class    Classification
	Distance float32
}

// Map is the full egocentric sector view: one Sector per angular
// division of the full circle, in increasing-bearing order starting
// at bearing0.
type Map struct {
	Centre     geom.Point
	Bearing0   geom.Angle
	NumSectors int
	MaxRange   float32
	Sectors    []Sector
}

// widenFactor enlarges each sector's angular test width to absorb
// cell-corner aliasing at the sector boundary.
const widenFactor = 1.25

// Derive builds a polar Map from a radar map, centred at centre with
// robot heading bearing0 as the zero-bearing reference, num sectors
// covering the full circle, considering radar cells within maxRange,
// and rejecting cells nearer than max(minDistance, cellSize).
func Derive(r radar.Map, centre geom.Point, bearing0 geom.Angle, numSectors int, maxRange, minDistance float32) Map {
	threshold := minDistance
	if r.Topology.CellSize > threshold {
		threshold = r.Topology.CellSize
	}

	sectorWidth := geom.FromRad(math32.Pi / float32(numSectors))
	halfAngle := geom.FromRad(sectorWidth.Rad() * widenFactor)

	// accumulate the nearest hindered candidate and, separately, the
	// nearest candidate of any other class, per sector; the final
	// classification picks the hindered one if it exists at all,
	// otherwise whichever class the nearest remaining candidate is.
	nearestHindered := make([]float32, numSectors)
	haveHindered := make([]bool, numSectors)
	nearestOther := make([]Sector, numSectors)
	haveOther := make([]bool, numSectors)

	for _, cell := range r.Cells {
		d := cell.Location.DistanceTo(centre)
		if d > maxRange || d < threshold {
			continue
		}

		class := Unknown
		if cell.Hindered() {
			class = Hindered
		} else if cell.Empty() {
			class = Empty
		}

		for i := 0; i < numSectors; i++ {
			direction := bearing0.Add(geom.FromRad(2 * math32.Pi * float32(i) / float32(numSectors)))
			near, _, ok := geom.SquareArcInterval(cell.Location, r.Topology.CellSize, centre, direction, halfAngle)
			if !ok {
				continue
			}

			if class == Hindered {
				if !haveHindered[i] || near < nearestHindered[i] {
					haveHindered[i] = true
					nearestHindered[i] = near
				}
				continue
			}
			if !haveOther[i] || near < nearestOther[i].Distance {
				haveOther[i] = true
				nearestOther[i] = Sector{Class: class, Distance: near}
			}
		}
	}

	sectors := make([]Sector, numSectors)
	for i := range sectors {
		switch {
		case haveHindered[i]:
			sectors[i] = Sector{Class: Hindered, Distance: nearestHindered[i]}
		case haveOther[i]:
			sectors[i] = nearestOther[i]
		default:
			sectors[i] = Sector{Class: Unknown, Distance: maxRange}
		}
	}

	return Map{Centre: centre, Bearing0: bearing0, NumSectors: numSectors, MaxRange: maxRange, Sectors: sectors}
}
