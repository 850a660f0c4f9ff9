// Package marker maintains the sparse registry of recognised visual
// markers, located in the world frame by correlating camera
// recognition events with time-adjacent range readings. Marker
// weights use the same decayed-sign bookkeeping as the radar cells,
// applied to named markers instead of grid locations.
package marker

import (
	"github.com/chewxy/math32"

	"github.com/itohio/wheelly/pkg/geom"
)

// sinOneDegree is the bearing-change guard band the edge policy uses
// to suppress sticky-frame false positives.
var sinOneDegree = math32.Sin(math32.Pi / 180)

// Label is one recognised marker's located, weighted evidence.
type Label struct {
	Name       string
	Location   geom.Point
	Weight     float32
	MarkerTime int64
	CleanTime  int64
}

// Map is the label -> Label registry. Value-typed: every update
// returns a new Map.
type Map struct {
	Markers map[string]Label
}

// New returns an empty marker map.
func New() Map {
	return Map{Markers: map[string]Label{}}
}

func (m Map) clone() Map {
	markers := make(map[string]Label, len(m.Markers))
	for k, v := range m.Markers {
		markers[k] = v
	}
	return Map{Markers: markers}
}

// CorrelatedCameraEvent pairs one camera frame with the range reading
// taken in the same robot-clock window, plus enough context to apply
// the update rule.
type CorrelatedCameraEvent struct {
	CameraTime      int64
	ProxyTime       int64
	CameraLocation  geom.Point
	SensorDirection geom.Angle // absolute world-frame heading the sensor/camera pair was pointed at
	RelativeBearing geom.Angle // marker offset angle from the camera boresight (message.Camera.Direction)
	Recognized      bool
	Label           string
	Distance        float32 // proxy echo distance, 0 if no echo
}

// Azimuth is the camera-derived marker bearing in world frame.
func (e CorrelatedCameraEvent) Azimuth() geom.Angle {
	return e.SensorDirection.Add(e.RelativeBearing)
}

// Admissible reports whether the camera/proxy pairing falls inside
// the configured correlation window.
func (e CorrelatedCameraEvent) Admissible(correlationInterval int64) bool {
	dt := e.CameraTime - e.ProxyTime
	return dt >= 0 && dt <= correlationInterval
}

// Locator holds the registry plus the tiny cross-event status counter
// (unknownEventCount, prevCameraEvent) the update rule needs to debounce
// unrecognised/off-axis events and the sticky-frame edge policy. It is
// the one piece of state in the core that mutates outside the tick
// loop's pure-function boundary.
type Locator struct {
	unknownEventCount int
	prevCameraEvent   *CorrelatedCameraEvent
}

// NewLocator returns a fresh Locator with a zeroed status counter.
func NewLocator() *Locator {
	return &Locator{}
}

// Config bundles the locator parameters that don't change per call.
type Config struct {
	MaxRadarDistance float32
	MarkerSize       float32
	ReceptiveAngle   geom.Angle // half-angle of the receptive cone
	CameraHalfView   geom.Angle
	LocationDecay    float32 // ms, EMA time constant
	CleanDecay       float32 // ms
	MinNumberEvents  int
}

// Update applies one admissible camera event to m, returning the new
// map. Locator's status counter mutates as a side effect; callers own
// one Locator per robot.
func (l *Locator) Update(m Map, ev CorrelatedCameraEvent, cfg Config, t int64) Map {
	if l.isNoChange(ev) {
		return m
	}
	l.prevCameraEvent = &ev

	betaPrime := cfg.ReceptiveAngle
	if cfg.CameraHalfView.Rad() < betaPrime.Rad() {
		betaPrime = cfg.CameraHalfView
	}

	azimuth := ev.Azimuth()
	dStar := markerRange(ev.Distance, cfg.MaxRadarDistance) + cfg.MarkerSize/2

	switch {
	case ev.Distance <= 0:
		m = filterCleaningArea(m, ev.CameraLocation, azimuth, dStar, cfg.ReceptiveAngle, cfg.CleanDecay, t)
		l.unknownEventCount = 0
		return m

	case ev.Recognized && withinCone(ev.RelativeBearing, betaPrime):
		loc := ev.CameraLocation.Along(azimuth, ev.Distance+cfg.MarkerSize/2)
		m = m.clone()
		existing, ok := m.Markers[ev.Label]
		if ok {
			gamma := math32.Exp(-float32(t-existing.MarkerTime) / cfg.LocationDecay)
			loc = geom.Point{
				X: gamma*existing.Location.X + (1-gamma)*loc.X,
				Y: gamma*existing.Location.Y + (1-gamma)*loc.Y,
			}
		}
		// cleanTime is stamped to t here, not carried from the previous
		// entry: the blanket area clean a few lines down would otherwise
		// immediately decay the weight this line just reset to 1.
		m.Markers[ev.Label] = Label{Name: ev.Label, Location: loc, Weight: 1, MarkerTime: t, CleanTime: t}
		m = filterCleaningArea(m, ev.CameraLocation, azimuth, dStar, betaPrime, cfg.CleanDecay, t)
		l.unknownEventCount = 0
		return m

	default:
		l.unknownEventCount++
		if l.unknownEventCount >= cfg.MinNumberEvents {
			narrower := geom.FromRad(betaPrime.Rad() - threeDegrees)
			m = filterCleaningArea(m, ev.CameraLocation, azimuth, dStar, narrower, cfg.CleanDecay, t)
			l.unknownEventCount = 0
		}
		return m
	}
}

const threeDegrees = 3 * math32.Pi / 180

// isNoChange implements the edge policy: an event identical to the
// previous one, or whose bearing changed by less than sin(1°), is
// treated as no-change.
func (l *Locator) isNoChange(ev CorrelatedCameraEvent) bool {
	prev := l.prevCameraEvent
	if prev == nil {
		return false
	}
	if prev.Label != ev.Label || prev.Recognized != ev.Recognized {
		return false
	}
	diff := ev.RelativeBearing.Sub(prev.RelativeBearing)
	return math32.Abs(diff.X) < sinOneDegree
}

func withinCone(bearing geom.Angle, half geom.Angle) bool {
	return math32.Abs(bearing.Rad()) <= half.Rad()
}

// markerRange is the distance used to place a marker: the echo
// distance when there is one, otherwise the sensor's full range.
func markerRange(distance, maxRadarDistance float32) float32 {
	if distance > 0 {
		return distance
	}
	return maxRadarDistance
}

// filterCleaningArea cleans every marker within the wedge of half-angle
// halfAngle about azimuth, apex centre, out to radius dStar.
func filterCleaningArea(m Map, centre geom.Point, azimuth geom.Angle, dStar float32, halfAngle geom.Angle, cleanDecay float32, t int64) Map {
	region := geom.And(geom.Wedge(centre, azimuth, halfAngle), geom.CirclePredicate(centre, dStar))
	return Clean(m, region, cleanDecay, t)
}

// Clean applies the weighted-decay cleaning rule to every marker whose
// location falls inside region: w' = -(1+w)*alpha + w, alpha =
// min((t-cleanTime)/cleanDecay, 1). Markers whose weight drops to <=0
// are dropped.
func Clean(m Map, region geom.Predicate, cleanDecay float32, t int64) Map {
	out := m.clone()
	for name, label := range out.Markers {
		if !region.Contains(label.Location.X, label.Location.Y) {
			continue
		}
		alpha := float32(t-label.CleanTime) / cleanDecay
		if alpha > 1 {
			alpha = 1
		}
		if alpha < 0 {
			alpha = 0
		}
		w := -(1+label.Weight)*alpha + label.Weight
		if w <= 0 {
			delete(out.Markers, name)
			continue
		}
		label.Weight = w
		label.CleanTime = t
		out.Markers[name] = label
	}
	return out
}
