// Package message decodes the five line-oriented sensor message kinds
// carried by the robot's text link, plus the "ck" clock-exchange reply,
// and re-expresses their raw fields (odometer pulses, echo delay) in
// metric units.
package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/itohio/wheelly/pkg/geom"
)

// ErrMalformedMessage is wrapped with the offending tag and line by
// every decode failure: wrong tag, wrong field count, or a field that
// fails to parse as a number.
var ErrMalformedMessage = errors.New("malformed message")

const (
	// wheelDiameter and pulsesPerRevolution give the odometer's
	// pulses-to-metres conversion.
	wheelDiameter       = 0.067
	pulsesPerRevolution = 40

	// distanceScale converts an echo round-trip delay in microseconds
	// to a one-way distance in metres.
	distanceScale = 1.0 / 5882.0
)

// DistancePerPulse is the metric distance a single odometer pulse
// represents: π·wheelDiameter/pulsesPerRevolution.
var DistancePerPulse = float32(math32.Pi * wheelDiameter / pulsesPerRevolution)

// PulsesToMetres converts a pulse count to metres travelled.
func PulsesToMetres(pulses int) float32 {
	return float32(pulses) * DistancePerPulse
}

// EchoDelayToMetres converts a round-trip echo delay in microseconds
// to a one-way distance in metres.
func EchoDelayToMetres(delayMicros float32) float32 {
	return delayMicros * distanceScale
}

// Kind identifies which of the six tagged message shapes (the five
// sensor kinds and the clock reply) a line decodes to.
type Kind int

const (
	KindMotion Kind = iota
	KindProxy
	KindContacts
	KindSupply
	KindCamera
	KindClock
)

// Motion is the "mt" message: wheel odometry, IMU and motor state.
type Motion struct {
	RemoteTime     int64
	XPulses        int
	YPulses        int
	YawDeg         float32
	LeftPps        float32
	RightPps       float32
	ImuFailure     bool
	Halt           bool
	LeftTargetPps  float32
	RightTargetPps float32
	LeftPower      float32
	RightPower     float32
}

// Proxy is the "px" message: the rotating ultrasonic rangefinder's
// reading at the time it was taken.
type Proxy struct {
	RemoteTime   int64
	SensorDirDeg float32
	EchoDelayUs  float32
	XPulses      int
	YPulses      int
	YawDeg       float32
}

// Distance is the one-way range the echo delay represents, in metres.
// Zero means no echo was received within the sensor's window.
func (p Proxy) Distance() float32 {
	return EchoDelayToMetres(p.EchoDelayUs)
}

// Contacts is the "ct" message: bumper and motion-clearance state.
type Contacts struct {
	RemoteTime  int64
	FrontOK     bool
	RearOK      bool
	CanForward  bool
	CanBackward bool
}

// Supply is the "sv" message: raw battery ADC reading.
type Supply struct {
	RemoteTime int64
	VoltageRaw int
}

// Camera is the "qr" message: one recognised or blank QR frame, with
// its four-corner quad in image pixel coordinates.
type Camera struct {
	RemoteTime int64
	QRCode     string
	Width      int
	Height     int
	Quad       [4]geom.Point
}

// Direction returns the marker offset angle implied by the quad's mean
// x-coordinate relative to the image centre, scaled by the calibrated
// angular ratio anglePerPixel (radians per pixel of horizontal
// offset).
func (c Camera) Direction(anglePerPixel float32) geom.Angle {
	var sum float32
	for _, p := range c.Quad {
		sum += p.X
	}
	meanX := sum / float32(len(c.Quad))
	offset := meanX - float32(c.Width)/2
	return geom.FromRad(offset * anglePerPixel)
}

// ClockSync is the "ck" reply closing a clock exchange: the host's
// originate timestamp echoed back with the robot-clock receive and
// transmit timestamps appended. The host-side request (ClockRequest)
// carries only the originate field and is never seen by this decoder.
type ClockSync struct {
	Originate int64
	Receive   int64
	Transmit  int64
}

// ClockRequest renders the host side of the clock exchange: a "ck"
// line carrying the host originate timestamp.
func ClockRequest(originate int64) string {
	return "ck " + strconv.FormatInt(originate, 10)
}

// Decode parses one line from the sensor link into its tagged message.
// The returned value is one of Motion, Proxy, Contacts, Supply,
// Camera or ClockSync; kind identifies which. A malformed line
// (unknown tag, wrong field count, or an unparseable numeric field)
// returns ErrMalformedMessage wrapped with the tag and the raw line.
func Decode(line string) (kind Kind, msg any, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("%w: empty line", ErrMalformedMessage)
	}

	tag := fields[0]
	args := fields[1:]

	switch tag {
	case "mt":
		m, err := decodeMotion(args)
		if err != nil {
			return 0, nil, wrapf(tag, line, err)
		}
		return KindMotion, m, nil
	case "px":
		p, err := decodeProxy(args)
		if err != nil {
			return 0, nil, wrapf(tag, line, err)
		}
		return KindProxy, p, nil
	case "ct":
		c, err := decodeContacts(args)
		if err != nil {
			return 0, nil, wrapf(tag, line, err)
		}
		return KindContacts, c, nil
	case "sv":
		s, err := decodeSupply(args)
		if err != nil {
			return 0, nil, wrapf(tag, line, err)
		}
		return KindSupply, s, nil
	case "qr":
		c, err := decodeCamera(args)
		if err != nil {
			return 0, nil, wrapf(tag, line, err)
		}
		return KindCamera, c, nil
	case "ck":
		c, err := decodeClock(args)
		if err != nil {
			return 0, nil, wrapf(tag, line, err)
		}
		return KindClock, c, nil
	default:
		return 0, nil, fmt.Errorf("%w: unknown tag %q", ErrMalformedMessage, tag)
	}
}

func wrapf(tag, line string, cause error) error {
	return fmt.Errorf("%w: tag %q line %q: %v", ErrMalformedMessage, tag, line, cause)
}

func decodeMotion(f []string) (Motion, error) {
	if len(f) != 12 {
		return Motion{}, fmt.Errorf("want 12 fields, got %d", len(f))
	}
	var v values
	return Motion{
		RemoteTime:     v.int64(f[0]),
		XPulses:        v.int(f[1]),
		YPulses:        v.int(f[2]),
		YawDeg:         v.float32(f[3]),
		LeftPps:        v.float32(f[4]),
		RightPps:       v.float32(f[5]),
		ImuFailure:     v.bool(f[6]),
		Halt:           v.bool(f[7]),
		LeftTargetPps:  v.float32(f[8]),
		RightTargetPps: v.float32(f[9]),
		LeftPower:      v.float32(f[10]),
		RightPower:     v.float32(f[11]),
	}, v.err
}

func decodeProxy(f []string) (Proxy, error) {
	if len(f) != 6 {
		return Proxy{}, fmt.Errorf("want 6 fields, got %d", len(f))
	}
	var v values
	return Proxy{
		RemoteTime:   v.int64(f[0]),
		SensorDirDeg: v.float32(f[1]),
		EchoDelayUs:  v.float32(f[2]),
		XPulses:      v.int(f[3]),
		YPulses:      v.int(f[4]),
		YawDeg:       v.float32(f[5]),
	}, v.err
}

func decodeContacts(f []string) (Contacts, error) {
	if len(f) != 5 {
		return Contacts{}, fmt.Errorf("want 5 fields, got %d", len(f))
	}
	var v values
	return Contacts{
		RemoteTime:  v.int64(f[0]),
		FrontOK:     v.bool(f[1]),
		RearOK:      v.bool(f[2]),
		CanForward:  v.bool(f[3]),
		CanBackward: v.bool(f[4]),
	}, v.err
}

func decodeSupply(f []string) (Supply, error) {
	if len(f) != 2 {
		return Supply{}, fmt.Errorf("want 2 fields, got %d", len(f))
	}
	var v values
	return Supply{
		RemoteTime: v.int64(f[0]),
		VoltageRaw: v.int(f[1]),
	}, v.err
}

func decodeCamera(f []string) (Camera, error) {
	if len(f) != 12 {
		return Camera{}, fmt.Errorf("want 12 fields, got %d", len(f))
	}
	var v values
	c := Camera{
		RemoteTime: v.int64(f[0]),
		QRCode:     f[1],
		Width:      v.int(f[2]),
		Height:     v.int(f[3]),
	}
	for i := 0; i < 4; i++ {
		c.Quad[i] = geom.Point{
			X: v.float32(f[4+2*i]),
			Y: v.float32(f[4+2*i+1]),
		}
	}
	return c, v.err
}

func decodeClock(f []string) (ClockSync, error) {
	if len(f) != 3 {
		return ClockSync{}, fmt.Errorf("want 3 fields, got %d", len(f))
	}
	var v values
	return ClockSync{
		Originate: v.int64(f[0]),
		Receive:   v.int64(f[1]),
		Transmit:  v.int64(f[2]),
	}, v.err
}

// values accumulates the first parse failure encountered across a
// sequence of field conversions, so callers can parse every field
// unconditionally and check err once at the end.
type values struct {
	err error
}

func (v *values) int(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil && v.err == nil {
		v.err = fmt.Errorf("field %q: %w", s, err)
	}
	return n
}

func (v *values) int64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil && v.err == nil {
		v.err = fmt.Errorf("field %q: %w", s, err)
	}
	return n
}

func (v *values) float32(s string) float32 {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil && v.err == nil {
		v.err = fmt.Errorf("field %q: %w", s, err)
	}
	return float32(f)
}

func (v *values) bool(s string) bool {
	switch s {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	if v.err == nil {
		v.err = fmt.Errorf("field %q: not a boolean", s)
	}
	return false
}
