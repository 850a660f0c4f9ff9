// Package world orchestrates the radar, polar and marker components
// against one aggregated robot Status, producing an immutable Model
// snapshot once per tick. Tick is a synchronous call driven by one
// external scheduler; the idle/scheduled/running state machine drops
// ticks that arrive while a previous one is still being processed or
// inside the minimum inter-inference interval.
package world

import (
	"time"

	"github.com/google/uuid"

	"github.com/itohio/wheelly/pkg/clock"
	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/gridtopo"
	"github.com/itohio/wheelly/pkg/marker"
	"github.com/itohio/wheelly/pkg/message"
	"github.com/itohio/wheelly/pkg/polar"
	"github.com/itohio/wheelly/pkg/radar"
	"github.com/itohio/wheelly/pkg/status"
)

// RadarKernel selects which of radar's two update kernels
// applyProxyRay feeds each proxy reading through.
type RadarKernel int

const (
	// RaySweepKernel marks every cell the ray segment crosses
	// anechoic and the ping cell echogenic (radar.Map.ApplyRay). The
	// default.
	RaySweepKernel RadarKernel = iota
	// SquareArcKernel classifies every cell by its (near, far)
	// intersection with the sensor's receptive wedge instead of a
	// single ray path (radar.Map.ApplySignalArc), trading the
	// ray-sweep's speed for the beam-divergence accuracy a wide
	// receptive angle needs.
	SquareArcKernel
)

// Config bundles every tunable the world modeller needs beyond the
// static robot Spec: radar topology and decay, polar derivation, and
// marker locator parameters.
type Config struct {
	RadarWidth, RadarHeight int
	RadarCellSize           float32
	RadarCleanInterval      int64
	EchoPersistence         int64
	ContactPersistence      int64
	Decay                   float32 // radar weighted-decay tau, ms
	Kernel                  RadarKernel

	NumSectors       int
	MinPolarDistance float32

	CorrelationInterval  int64
	MarkerLocationDecay  float32
	MarkerCleanDecay     float32
	MarkerSize           float32
	MinNumberEvents      int
	MinInferenceInterval int64
}

// Commands is the minimal motor/sensor command surface the
// inference callback produces; the RL controller that actually
// populates it lives outside the core.
type Commands struct {
	LeftPower, RightPower float32
	SensorDirDeg          float32
	Halt                  bool
}

// Model is one immutable snapshot of the world: the aggregated robot
// status plus the three derived maps, stamped with a unique ID and
// timestamp.
type Model struct {
	ID        uuid.UUID
	Timestamp int64
	Status    status.Status
	Radar     radar.Map
	Polar     polar.Map
	Markers   marker.Map
}

// InferenceState is the tick scheduling state: a new tick is dropped
// silently while Running; otherwise it moves Idle -> Scheduled ->
// Running -> Idle within the call that produces it.
type InferenceState int

const (
	Idle InferenceState = iota
	Scheduled
	Running
)

// Modeller owns all core state that mutates from the tick thread: the
// radar map, marker map, marker locator's status counter, and the
// aggregated robot status. Tick is the sole mutator of the maps and
// the locator; the Ingest* methods fold messages into the status and
// IngestClock installs the clock synchroniser.
type Modeller struct {
	cfg    Config
	spec   status.Spec
	clock  clock.Sync
	synced bool
	state  InferenceState
	lastT  int64

	status    status.Status
	radarMap  radar.Map
	markerMap marker.Map
	locator   *marker.Locator
}

// New builds a Modeller with an empty radar map over the given
// topology centre and an empty marker registry.
func New(cfg Config, spec status.Spec, centre geom.Point) *Modeller {
	topo := gridtopo.New(centre, cfg.RadarWidth, cfg.RadarHeight, cfg.RadarCellSize)
	return &Modeller{
		cfg:       cfg,
		spec:      spec,
		status:    status.New(spec),
		radarMap:  radar.New(topo),
		markerMap: marker.New(),
		locator:   marker.NewLocator(),
	}
}

// IngestMotion folds a decoded motion message into the aggregated
// status.
func (m *Modeller) IngestMotion(msg message.Motion) { m.status = m.status.WithMotion(msg) }

// IngestProxy folds a decoded proxy message into the aggregated
// status.
func (m *Modeller) IngestProxy(msg message.Proxy) { m.status = m.status.WithProxy(msg) }

// IngestContacts folds a decoded contacts message into the aggregated
// status.
func (m *Modeller) IngestContacts(msg message.Contacts) { m.status = m.status.WithContacts(msg) }

// IngestSupply folds a decoded supply message into the aggregated
// status.
func (m *Modeller) IngestSupply(msg message.Supply) { m.status = m.status.WithSupply(msg) }

// IngestCamera folds a decoded camera message into the aggregated
// status.
func (m *Modeller) IngestCamera(msg message.Camera) { m.status = m.status.WithCamera(msg) }

// IngestClock closes a clock exchange: destination is the host-clock
// arrival time of the "ck" reply. It rebuilds the synchroniser from
// the exchange's four timestamps and stamps the status ResetTime with
// the remote receive timestamp.
func (m *Modeller) IngestClock(msg message.ClockSync, destination int64) {
	m.clock = clock.NewSync(
		clock.Millis(msg.Originate),
		clock.Millis(msg.Receive),
		clock.Millis(msg.Transmit),
		clock.Millis(destination),
	)
	m.synced = true
	m.status = m.status.WithClock(msg.Receive)
}

// State reports the modeller's current inference scheduling state.
func (m *Modeller) State() InferenceState { return m.state }

// Synced reports whether a clock synchroniser has been installed.
// Callers driving Tick off LocalTime should hold ticks until the
// first exchange completes, so every timestamp entering the maps is
// on the same (host) clock.
func (m *Modeller) Synced() bool { return m.synced }

// LocalTime translates a remote (robot-clock) timestamp to local host
// time using the installed clock synchroniser.
func (m *Modeller) LocalTime(remote int64) int64 { return int64(m.clock.FromRemote(clock.Millis(remote))) }

// Tick runs one full perception cycle at local time t: correlate a
// camera event into the marker locator if admissible, apply the
// latest proxy reading to the radar map, stamp bumper contacts, clean
// if due, derive the polar view, and snapshot everything. infer is
// invoked with the resulting Model to produce Commands; it is skipped
// (and ok is false) when the tick is dropped by the inference state
// machine.
func (m *Modeller) Tick(t int64, infer func(Model) Commands) (model Model, cmd Commands, ok bool) {
	if m.state == Running {
		return Model{}, Commands{}, false
	}
	if m.lastT != 0 && t-m.lastT < m.cfg.MinInferenceInterval {
		return Model{}, Commands{}, false
	}

	m.state = Scheduled
	m.state = Running
	defer func() { m.state = Idle }()

	m.correlateCamera(t)
	m.applyProxyRay(t)
	m.applyContacts(t)
	m.radarMap = m.radarMap.Clean(t, m.cfg.RadarCleanInterval, m.cfg.EchoPersistence, m.cfg.ContactPersistence)

	polarMap := polar.Derive(m.radarMap, m.status.Location(), m.status.Yaw(), m.cfg.NumSectors, m.spec.MaxRadarDistance, m.cfg.MinPolarDistance)

	snapshot := Model{
		ID:        uuid.New(),
		Timestamp: t,
		Status:    m.status,
		Radar:     m.radarMap,
		Polar:     polarMap,
		Markers:   m.markerMap,
	}

	m.lastT = t
	return snapshot, infer(snapshot), true
}

// correlateCamera feeds a CorrelatedCameraEvent to the marker locator
// when the camera timestamp is no earlier than the proxy timestamp and
// at most CorrelationInterval after it.
func (m *Modeller) correlateCamera(t int64) {
	cameraTime := m.status.Camera.RemoteTime
	proxyTime := m.status.Proxy.RemoteTime
	if cameraTime == 0 {
		return
	}
	ev := marker.CorrelatedCameraEvent{
		CameraTime:      cameraTime,
		ProxyTime:       proxyTime,
		CameraLocation:  m.status.Location(),
		SensorDirection: m.status.HeadDirection(),
		RelativeBearing: m.status.Camera.Direction(m.spec.AnglePerPixel),
		Recognized:      m.status.Camera.QRCode != "",
		Label:           m.status.Camera.QRCode,
		Distance:        m.status.EchoDistance(),
	}
	if !ev.Admissible(m.cfg.CorrelationInterval) {
		return
	}

	cfg := marker.Config{
		MaxRadarDistance: m.spec.MaxRadarDistance,
		MarkerSize:       m.cfg.MarkerSize,
		ReceptiveAngle:   m.spec.ReceptiveAngle,
		CameraHalfView:   m.spec.CameraHalfView,
		LocationDecay:    m.cfg.MarkerLocationDecay,
		CleanDecay:       m.cfg.MarkerCleanDecay,
		MinNumberEvents:  m.cfg.MinNumberEvents,
	}
	m.markerMap = m.locator.Update(m.markerMap, ev, cfg, t)

	// A marker the locator just (re)confirmed at t also labels its
	// radar cell: MapCell's LabelWeight/LabelTime channel, the
	// per-cell counterpart of MarkerMap's own named-marker evidence.
	if lbl, ok := m.markerMap.Markers[ev.Label]; ok && lbl.MarkerTime == t {
		m.radarMap = m.radarMap.ApplyLabelAt(lbl.Location, true, t, m.cfg.MarkerCleanDecay)
	}
}

// applyProxyRay feeds the latest proxy reading to the radar map as one
// signal along the sensor's current absolute heading, through
// whichever of the two update kernels Config.Kernel selects.
func (m *Modeller) applyProxyRay(t int64) {
	if m.status.Proxy.RemoteTime == 0 {
		return
	}
	apex := m.status.Location()
	direction := m.status.HeadDirection()
	echo := m.status.EchoDistance() > 0
	dist := m.status.EchoDistance()
	if !echo {
		dist = m.spec.MaxRadarDistance
	}

	switch m.cfg.Kernel {
	case SquareArcKernel:
		m.radarMap = m.radarMap.ApplySignalArc(apex, direction, m.spec.ReceptiveAngle, dist, echo, t, m.cfg.Decay)
	default:
		q := apex.Along(direction, dist)
		m.radarMap = m.radarMap.ApplyRay(apex, q, echo, t, m.cfg.Decay)
	}
}

// applyContacts stamps the radar map's contact channel whenever a
// bumper has tripped.
func (m *Modeller) applyContacts(t int64) {
	c := m.status.Contacts
	if c.RemoteTime == 0 {
		return
	}
	centre := m.status.Location()
	yaw := m.status.Yaw()
	if !c.FrontOK {
		m.radarMap = m.radarMap.ApplyContact(centre, yaw, m.spec.ContactRadius, true, t)
	}
	if !c.RearOK {
		m.radarMap = m.radarMap.ApplyContact(centre, yaw, m.spec.ContactRadius, false, t)
	}
}

// Now returns the current wall-clock time in milliseconds, the
// resolution the sensor link and clock synchroniser both operate in.
func Now() int64 { return time.Now().UnixMilli() }
