// Package status aggregates the most recently decoded sensor messages
// into one robot snapshot, and derives the accessors the rest of the
// core (radar, polar, marker) reads from: current location, head
// direction, echo ping location, and motion-clearance flags. Updates
// go through With* builders returning new instances.
package status

import (
	"github.com/chewxy/math32"

	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/message"
)

const degToRad = math32.Pi / 180

// Spec is the static robot specification the status derives motion
// and receptive-field accessors against.
type Spec struct {
	MaxRadarDistance float32
	ReceptiveAngle   geom.Angle
	ContactRadius    float32
	CameraHalfView   geom.Angle
	AnglePerPixel    float32 // radians per pixel of horizontal camera offset
}

// Status aggregates the latest motion, proxy, contacts, supply and
// camera messages with the static robot Spec. Zero-value fields mean
// "no message of that kind received yet".
type Status struct {
	Spec     Spec
	Motion   message.Motion
	Proxy    message.Proxy
	Contacts message.Contacts
	Supply   message.Supply
	Camera   message.Camera

	// ResetTime is stamped with the remote (robot-clock) receive
	// timestamp as-is, never translated through the clock
	// synchroniser; downstream timing is reported relative to it.
	ResetTime int64
}

// New returns a zero-value Status carrying spec.
func New(spec Spec) Status {
	return Status{Spec: spec}
}

// WithMotion returns a copy of s with the latest motion message.
func (s Status) WithMotion(m message.Motion) Status { s.Motion = m; return s }

// WithProxy returns a copy of s with the latest proxy message.
func (s Status) WithProxy(p message.Proxy) Status { s.Proxy = p; return s }

// WithContacts returns a copy of s with the latest contacts message.
func (s Status) WithContacts(c message.Contacts) Status { s.Contacts = c; return s }

// WithSupply returns a copy of s with the latest supply message.
func (s Status) WithSupply(v message.Supply) Status { s.Supply = v; return s }

// WithCamera returns a copy of s with the latest camera message.
func (s Status) WithCamera(c message.Camera) Status { s.Camera = c; return s }

// WithClock stamps ResetTime directly from a remote-clock timestamp,
// without translating it to local time first.
func (s Status) WithClock(remoteTime int64) Status { s.ResetTime = remoteTime; return s }

// Location returns the robot's position derived from the odometer
// pulse counts.
func (s Status) Location() geom.Point {
	return geom.Point{
		X: message.PulsesToMetres(s.Motion.XPulses),
		Y: message.PulsesToMetres(s.Motion.YPulses),
	}
}

// Yaw returns the robot's body heading as an Angle.
func (s Status) Yaw() geom.Angle {
	return geom.FromRad(s.Motion.YawDeg * degToRad)
}

// SensorDirection returns the rangefinder's current heading relative
// to the robot body, as an Angle.
func (s Status) SensorDirection() geom.Angle {
	return geom.FromRad(s.Proxy.SensorDirDeg * degToRad)
}

// HeadDirection returns the rangefinder's absolute world-frame
// heading: robot yaw composed with sensor direction.
func (s Status) HeadDirection() geom.Angle {
	return s.Yaw().Add(s.SensorDirection())
}

// EchoDistance is the one-way range of the most recent proxy reading,
// in metres; zero means no echo.
func (s Status) EchoDistance() float32 {
	return s.Proxy.Distance()
}

// EchoLocation returns the world-space point the most recent echo was
// received from. Meaningless (but well-defined, at the robot's own
// location) when EchoDistance is zero.
func (s Status) EchoLocation() geom.Point {
	return s.Location().Along(s.HeadDirection(), s.EchoDistance())
}

// CameraDirection returns the world-frame bearing the most recent
// camera frame's marker offset implies, using the robot's current
// head direction as the camera boresight.
func (s Status) CameraDirection() geom.Angle {
	return s.HeadDirection().Add(s.Camera.Direction(s.Spec.AnglePerPixel))
}

// CanMoveForward reports whether the front bumper is clear and either
// no echo is present or the echo lies beyond the contact radius.
func (s Status) CanMoveForward() bool {
	return s.Contacts.FrontOK && s.Contacts.CanForward && s.rangeClear()
}

// CanMoveBackward reports whether the rear bumper is clear.
func (s Status) CanMoveBackward() bool {
	return s.Contacts.RearOK && s.Contacts.CanBackward
}

func (s Status) rangeClear() bool {
	d := s.EchoDistance()
	return d == 0 || d > s.Spec.ContactRadius
}
