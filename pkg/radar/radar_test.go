package radar

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/gridtopo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap() Map {
	topo := gridtopo.New(geom.Point{X: 0, Y: 0}, 11, 11, 0.2)
	return New(topo)
}

// A single echoing ray straight ahead should mark the cells it
// crosses anechoic and only the ping cell echogenic.
func TestApplyRay_FirstEcho(t *testing.T) {
	m := newTestMap()
	apex := geom.Point{X: 0, Y: 0}
	q := apex.Along(geom.Deg0, 0.6)

	m = m.ApplyRay(apex, q, true, 1000, 500)

	pingIdx := m.Topology.IndexOf(q)
	var anechoic, echogenic, unknown int
	for i, c := range m.Cells {
		switch {
		case i == pingIdx:
			require.True(t, c.Echogenic())
			assert.Equal(t, float32(1), c.EchoWeight)
			echogenic++
		case c.Anechoic():
			assert.Equal(t, float32(-1), c.EchoWeight)
			anechoic++
		case !c.Known():
			unknown++
		}
	}
	assert.Equal(t, 3, anechoic)
	assert.Equal(t, 1, echogenic)
	assert.Equal(t, len(m.Cells)-4, unknown)
}

// A later non-echoing ray over a longer range flips the ping cell's
// weight by exactly one full decay once alpha saturates at 1.
func TestApplyRay_DecaySymmetry(t *testing.T) {
	const tau = 500
	m := newTestMap()
	apex := geom.Point{X: 0, Y: 0}
	q := apex.Along(geom.Deg0, 0.6)
	m = m.ApplyRay(apex, q, true, 1000, tau)

	pingIdx := m.Topology.IndexOf(q)
	require.Equal(t, float32(1), m.Cells[pingIdx].EchoWeight)

	far := apex.Along(geom.Deg0, 1.0)
	m = m.ApplyRay(apex, far, false, 1000+tau, tau)

	assert.Equal(t, float32(-1), m.Cells[pingIdx].EchoWeight)
}

func TestApplyContact_FrontHalfDisk(t *testing.T) {
	m := newTestMap()
	centre := geom.Point{X: 1.0, Y: 0.0}
	yaw := geom.Deg90 // facing east

	m = m.ApplyContact(centre, yaw, 0.3, true, 2000)

	for _, c := range m.Cells {
		inDisk := c.Location.DistanceTo(centre) <= 0.3 && c.Location.X >= centre.X
		if inDisk {
			assert.Equal(t, int64(2000), c.ContactTime, "cell %+v should carry the contact stamp", c.Location)
		}
	}

	// sanity: at least one cell actually got stamped.
	var stamped int
	for _, c := range m.Cells {
		if c.ContactTime != 0 {
			stamped++
		}
	}
	assert.Greater(t, stamped, 0)
}

// TestApplySignalArc_FirstEcho exercises the alternate square-arc
// kernel the way TestApplyRay_FirstEcho exercises the ray-sweep one:
// a single echoing signal straight ahead should mark the ping cell
// echogenic and the nearer cells along the same heading anechoic.
func TestApplySignalArc_FirstEcho(t *testing.T) {
	m := newTestMap()
	apex := geom.Point{X: 0, Y: 0}
	direction := geom.Deg0
	halfAngle := geom.FromRad(10 * math32.Pi / 180)
	q := apex.Along(direction, 0.6)

	m = m.ApplySignalArc(apex, direction, halfAngle, 0.6, true, 1000, 500)

	pingIdx := m.Topology.IndexOf(q)
	require.True(t, m.Cells[pingIdx].Echogenic())
	assert.Equal(t, float32(1), m.Cells[pingIdx].EchoWeight)

	nearer := apex.Along(direction, 0.2)
	nearerIdx := m.Topology.IndexOf(nearer)
	require.NotEqual(t, pingIdx, nearerIdx)
	assert.True(t, m.Cells[nearerIdx].Anechoic(), "a cell well short of the ping point should be anechoic")
}

// TestApplyLabelAt_UpdatesLabelChannel mirrors TestApplyRay_FirstEcho
// for the independent label channel: a single labelled update seeds
// LabelWeight to +1, and a later unlabelled update at the decay
// constant's remove flips it to exactly -1, the same decay symmetry
// TestApplyRay_DecaySymmetry checks for EchoWeight.
func TestApplyLabelAt_UpdatesLabelChannel(t *testing.T) {
	const tau = 500
	m := newTestMap()
	loc := geom.Point{X: 0, Y: 0.6}

	m = m.ApplyLabelAt(loc, true, 1000, tau)
	idx := m.Topology.IndexOf(loc)
	require.True(t, m.Cells[idx].Labelled())
	assert.Equal(t, float32(1), m.Cells[idx].LabelWeight)

	m = m.ApplyLabelAt(loc, false, 1000+tau, tau)
	assert.True(t, m.Cells[idx].Unlabelled())
	assert.Equal(t, float32(-1), m.Cells[idx].LabelWeight)
}

// For every radar cell and every sequence of updates, EchoWeight and
// LabelWeight stay in [-1, 1]. A fixed seed keeps the test
// deterministic.
func TestWeights_StayWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := newTestMap()

	var t64 int64
	for i := 0; i < 2000; i++ {
		t64 += int64(rng.Intn(200))
		idx := rng.Intn(len(m.Cells))
		loc := m.Cells[idx].Location
		tau := float32(50 + rng.Intn(1000))

		if rng.Intn(2) == 0 {
			echo := rng.Intn(2) == 0
			m = m.ApplyRay(geom.Point{X: 0, Y: 0}, loc, echo, t64, tau)
		} else {
			labelled := rng.Intn(2) == 0
			m = m.ApplyLabelAt(loc, labelled, t64, tau)
		}

		for _, c := range m.Cells {
			require.GreaterOrEqualf(t, c.EchoWeight, float32(-1), "EchoWeight below -1 at iteration %d", i)
			require.LessOrEqualf(t, c.EchoWeight, float32(1), "EchoWeight above 1 at iteration %d", i)
			require.GreaterOrEqualf(t, c.LabelWeight, float32(-1), "LabelWeight below -1 at iteration %d", i)
			require.LessOrEqualf(t, c.LabelWeight, float32(1), "LabelWeight above 1 at iteration %d", i)
		}
	}
}

func TestClean_RespectsInterval(t *testing.T) {
	m := newTestMap()
	m = m.ApplyRay(geom.Point{X: 0, Y: 0}, geom.Point{X: 0, Y: 0.6}, true, 1000, 500)

	unchanged := m.Clean(1050, 1000, 100, 100)
	assert.Equal(t, m.Cells, unchanged.Cells, "an echo younger than echoPersistence should survive a clean")

	cleaned := m.Clean(2200, 1000, 100, 100)
	pingIdx := m.Topology.IndexOf(geom.Point{X: 0, Y: 0.6})
	assert.False(t, cleaned.Cells[pingIdx].Known(), "echo older than echoPersistence should revert to unknown")

	again := cleaned.Clean(2500, 1000, 100, 100)
	assert.Equal(t, cleaned, again, "clean within cleanInterval of the last clean should return the map unchanged")
}
