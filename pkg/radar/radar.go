// Package radar maintains the Cartesian occupancy grid: a fixed
// topology of cells, each carrying an exponentially-decayed evidence
// weight for "echo seen here", a timestamp for "bumper contact here"
// and a second decayed weight for "labelled by a recognised marker
// here", updated from ray, contact and label events and periodically
// cleaned.
package radar

import (
	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/gridtopo"
)

// Cell carries one grid location's evidence state. A cell with
// EchoTime == 0 and ContactTime == 0 is unknown. LabelWeight/LabelTime
// is a second decayed-sign channel, independent of EchoWeight/EchoTime,
// carrying labelled/unlabelled marker evidence for this cell.
type Cell struct {
	Location    geom.Point
	EchoWeight  float32
	EchoTime    int64
	ContactTime int64
	LabelWeight float32
	LabelTime   int64
}

// Known reports whether the cell has ever been touched by an echo or
// contact update.
func (c Cell) Known() bool { return c.EchoTime != 0 || c.ContactTime != 0 }

// Echogenic reports whether the cell's most recent echo evidence is
// positive (an echo was observed there).
func (c Cell) Echogenic() bool { return c.EchoTime != 0 && c.EchoWeight > 0 }

// Anechoic reports whether the cell's most recent echo evidence is
// negative (no echo, the beam passed through).
func (c Cell) Anechoic() bool { return c.EchoTime != 0 && c.EchoWeight <= 0 }

// Contact reports whether the cell currently carries live contact
// evidence.
func (c Cell) Contact() bool { return c.ContactTime != 0 }

// Hindered reports whether the cell should be treated as an obstacle:
// echogenic or in contact.
func (c Cell) Hindered() bool { return c.Echogenic() || c.Contact() }

// Empty reports whether the cell is known and not hindered.
func (c Cell) Empty() bool { return c.Known() && !c.Hindered() }

// Labelled reports whether the cell's most recent label evidence is
// positive (a recognised marker's receptive cone swept this cell).
func (c Cell) Labelled() bool { return c.LabelTime != 0 && c.LabelWeight > 0 }

// Unlabelled reports whether the cell's most recent label evidence is
// negative (a marker-cleaning sweep crossed this cell without a hit).
func (c Cell) Unlabelled() bool { return c.LabelTime != 0 && c.LabelWeight <= 0 }

// Map is the radar occupancy grid: one Cell per gridtopo cell, plus
// the timestamp of the last cleaning pass.
type Map struct {
	Topology       gridtopo.GridTopology
	Cells          []Cell
	CleanTimestamp int64
}

// New builds an empty (all-unknown) radar map over topology, with
// each cell's Location pre-seeded to its topology cell centre.
func New(topology gridtopo.GridTopology) Map {
	cells := make([]Cell, topology.N())
	for i := range cells {
		cells[i].Location = topology.CentreOf(i)
	}
	return Map{Topology: topology, Cells: cells}
}

// mapCells returns a new Map with fn applied to every index in
// indices; indices not present are copied unchanged. Combined with
// filterByArea it expresses "touch every cell inside a region" in one
// call.
func (m Map) mapCells(indices []int, fn func(Cell) Cell) Map {
	cells := make([]Cell, len(m.Cells))
	copy(cells, m.Cells)
	for _, idx := range indices {
		if idx < 0 || idx >= len(cells) {
			continue
		}
		cells[idx] = fn(cells[idx])
	}
	return Map{Topology: m.Topology, Cells: cells, CleanTimestamp: m.CleanTimestamp}
}

// filterByArea returns the indices of every cell whose centre
// satisfies predicate.
func (m Map) filterByArea(predicate geom.Predicate) []int {
	var indices []int
	for i, c := range m.Cells {
		if predicate.Contains(c.Location.X, c.Location.Y) {
			indices = append(indices, i)
		}
	}
	return indices
}

// decay applies the exponentially-decayed running-sign update to w,
// previously touched at tPrev, given fresh evidence of polarity p at
// t, with decay constant tau (ms). A never-touched cell (tPrev == 0)
// is seeded directly with p.
func decay(w float32, tPrev, t int64, p float32, tau float32) float32 {
	if tPrev == 0 {
		return p
	}
	dt := float32(t - tPrev)
	if dt < 0 {
		dt = 0
	}
	alpha := dt / tau
	if alpha > 1 {
		alpha = 1
	}
	return (p-w)*alpha + w
}

func echoUpdate(c Cell, t int64, p float32, tau float32) Cell {
	c.EchoWeight = decay(c.EchoWeight, c.EchoTime, t, p, tau)
	c.EchoTime = t
	return c
}

func contactUpdate(c Cell, t int64) Cell {
	c.ContactTime = t
	return c
}

func labelUpdate(c Cell, t int64, p float32, tau float32) Cell {
	c.LabelWeight = decay(c.LabelWeight, c.LabelTime, t, p, tau)
	c.LabelTime = t
	return c
}

// ApplyRay applies one ray-sweep signal: apex is the sensor position,
// q is the ping point (or, for a non-echoing ray, the point at
// maxDistance along d), echo reports whether a ping was actually
// received. tau is the echo decay constant (ms).
//
// Every cell the segment from apex to q crosses, starting with the
// cell containing apex, is marked anechoic, except that when echo is
// true the cell containing q is marked echogenic instead. Cells beyond
// q are left untouched.
func (m Map) ApplyRay(apex, q geom.Point, echo bool, t int64, tau float32) Map {
	path := m.Topology.Segment(apex, q)
	if len(path) == 0 {
		return m
	}

	var through, landing []int
	if echo {
		through = path[:len(path)-1]
		landing = path[len(path)-1:]
	} else {
		through = path
	}

	m = m.mapCells(through, func(c Cell) Cell { return echoUpdate(c, t, -1, tau) })
	if len(landing) > 0 {
		m = m.mapCells(landing, func(c Cell) Cell { return echoUpdate(c, t, 1, tau) })
	}
	return m
}

// ApplySignalArc applies the alternate, beam-divergence-aware kernel:
// for every cell whose (near, far) intersection with the receptive
// wedge about direction from apex overlaps [0, far], classify it
// echogenic if the echo distance falls within (near, far), anechoic
// if there is no echo or the echo lies beyond far, and leave it
// untouched if the wedge never reaches the cell at all.
func (m Map) ApplySignalArc(apex geom.Point, direction geom.Angle, halfAngle geom.Angle, distance float32, echo bool, t int64, tau float32) Map {
	cells := make([]Cell, len(m.Cells))
	copy(cells, m.Cells)

	for i, c := range m.Cells {
		near, far, ok := geom.SquareArcInterval(c.Location, m.Topology.CellSize, apex, direction, halfAngle)
		if !ok {
			continue
		}
		switch {
		case echo && distance >= near && distance <= far:
			cells[i] = echoUpdate(c, t, 1, tau)
		case !echo || distance > far:
			cells[i] = echoUpdate(c, t, -1, tau)
		}
	}
	return Map{Topology: m.Topology, Cells: cells, CleanTimestamp: m.CleanTimestamp}
}

// ApplyLabelAt applies one labelled/unlabelled evidence update to the
// cell containing loc, the decayed-sign update rule mirrored from
// echoUpdate but against the independent LabelWeight/LabelTime
// channel: labelled=true seeds/reinforces positive evidence (a
// recognised marker's receptive cone swept this cell), labelled=false
// decays it towards negative (a cleaning sweep crossed it without a
// hit). tau is the label channel's own decay constant (ms).
func (m Map) ApplyLabelAt(loc geom.Point, labelled bool, t int64, tau float32) Map {
	idx := m.Topology.IndexOf(loc)
	if idx < 0 {
		return m
	}
	p := float32(-1)
	if labelled {
		p = 1
	}
	return m.mapCells([]int{idx}, func(c Cell) Cell { return labelUpdate(c, t, p, tau) })
}

// ApplyLabelArea applies the same labelled/unlabelled update to every
// cell whose centre satisfies region, the area-wide counterpart to
// ApplyLabelAt.
func (m Map) ApplyLabelArea(region geom.Predicate, labelled bool, t int64, tau float32) Map {
	p := float32(-1)
	if labelled {
		p = 1
	}
	indices := m.filterByArea(region)
	return m.mapCells(indices, func(c Cell) Cell { return labelUpdate(c, t, p, tau) })
}

// ApplyContact stamps every cell inside the oriented half-disk of
// radius contactRadius centred at centre, facing direction, with
// ContactTime = t. front selects whether the half-disk opens in
// direction (front bumper) or its reverse (rear bumper).
func (m Map) ApplyContact(centre geom.Point, direction geom.Angle, contactRadius float32, front bool, t int64) Map {
	facing := direction
	if !front {
		facing = direction.Add(geom.Deg180)
	}
	region := geom.And(
		geom.CirclePredicate(centre, contactRadius),
		geom.RightHalfPlanePredicate(centre, facing.Add(geom.Deg270)),
	)
	indices := m.filterByArea(region)
	return m.mapCells(indices, func(c Cell) Cell { return contactUpdate(c, t) })
}

// Clean resets the echo channel of every cell whose echo is older
// than t-echoPersistence, and the contact channel of every cell whose
// contact is older than t-contactPersistence, provided at least
// cleanInterval ms have passed since the map's last clean. A cell
// left with both channels reset reverts to unknown.
func (m Map) Clean(t int64, cleanInterval, echoPersistence, contactPersistence int64) Map {
	if m.CleanTimestamp != 0 && t-m.CleanTimestamp < cleanInterval {
		return m
	}

	cells := make([]Cell, len(m.Cells))
	for i, c := range m.Cells {
		if c.EchoTime != 0 && c.EchoTime < t-echoPersistence {
			c.EchoWeight = 0
			c.EchoTime = 0
		}
		if c.ContactTime != 0 && c.ContactTime < t-contactPersistence {
			c.ContactTime = 0
		}
		cells[i] = c
	}
	return Map{Topology: m.Topology, Cells: cells, CleanTimestamp: t}
}
