package polar

import (
	"testing"

	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/gridtopo"
	"github.com/itohio/wheelly/pkg/radar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A hindered cell farther away must still win over a nearer empty
// cell in the same sector.
func TestDerive_PolarPriority(t *testing.T) {
	topo := gridtopo.New(geom.Point{X: 0, Y: 0}, 21, 21, 0.1)
	r := radar.New(topo)

	hinderedLoc := geom.Point{X: 0, Y: 0}.Along(geom.Deg0, 0.8)
	emptyLoc := geom.Point{X: 0, Y: 0}.Along(geom.Deg0, 0.4)

	hinderedIdx := topo.IndexOf(hinderedLoc)
	emptyIdx := topo.IndexOf(emptyLoc)
	require.NotEqual(t, -1, hinderedIdx)
	require.NotEqual(t, -1, emptyIdx)

	r.Cells[hinderedIdx].EchoTime = 1000
	r.Cells[hinderedIdx].EchoWeight = 1
	r.Cells[emptyIdx].EchoTime = 1000
	r.Cells[emptyIdx].EchoWeight = -1

	polarMap := Derive(r, geom.Point{X: 0, Y: 0}, geom.Deg0, 8, 2.0, 0.05)

	sector := polarMap.Sectors[0]
	assert.Equal(t, Hindered, sector.Class)
	assert.InDelta(t, 0.8, sector.Distance, 0.05)
}

func TestDerive_EmptyWhenNoHindered(t *testing.T) {
	topo := gridtopo.New(geom.Point{X: 0, Y: 0}, 21, 21, 0.1)
	r := radar.New(topo)

	for i := range r.Cells {
		r.Cells[i].EchoTime = 1000
		r.Cells[i].EchoWeight = -1
	}

	polarMap := Derive(r, geom.Point{X: 0, Y: 0}, geom.Deg0, 8, 2.0, 0.05)

	for i, s := range polarMap.Sectors {
		assert.Equalf(t, Empty, s.Class, "sector %d should be empty with every candidate cell empty", i)
	}
}

// TestDerive_UnknownBeatsFartherEmpty checks the third priority rule:
// an unknown cell nearer than the nearest empty cell leaves the sector
// unknown.
func TestDerive_UnknownBeatsFartherEmpty(t *testing.T) {
	topo := gridtopo.New(geom.Point{X: 0, Y: 0}, 21, 21, 0.1)
	r := radar.New(topo)

	emptyLoc := geom.Point{X: 0, Y: 0}.Along(geom.Deg0, 0.4)
	emptyIdx := topo.IndexOf(emptyLoc)
	r.Cells[emptyIdx].EchoTime = 1000
	r.Cells[emptyIdx].EchoWeight = -1

	polarMap := Derive(r, geom.Point{X: 0, Y: 0}, geom.Deg0, 8, 2.0, 0.05)

	assert.Equal(t, Unknown, polarMap.Sectors[0].Class,
		"unknown cells between the centre and the lone empty cell should win")
}
