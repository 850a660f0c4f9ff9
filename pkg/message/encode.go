package message

import (
	"fmt"
	"strconv"
	"strings"
)

// Encode renders msg back into its canonical line form. msg must be
// one of the decoded message types (Motion, Proxy, Contacts, Supply,
// Camera, ClockSync); kind and msg are normally the pair returned by
// Decode. Decoding Encode's output reproduces msg field-for-field, and
// encoding a freshly decoded line that is already in canonical form
// reproduces it byte-for-byte. Other lines come back normalised: field
// separators collapse to a single space, trailing whitespace is
// trimmed, booleans are written as "1"/"0" and numbers in their
// shortest form (so "1.50" becomes "1.5").
func Encode(kind Kind, msg any) (string, error) {
	switch kind {
	case KindMotion:
		m, ok := msg.(Motion)
		if !ok {
			return "", fmt.Errorf("message: Encode: KindMotion requires a Motion, got %T", msg)
		}
		return encodeMotion(m), nil
	case KindProxy:
		p, ok := msg.(Proxy)
		if !ok {
			return "", fmt.Errorf("message: Encode: KindProxy requires a Proxy, got %T", msg)
		}
		return encodeProxy(p), nil
	case KindContacts:
		c, ok := msg.(Contacts)
		if !ok {
			return "", fmt.Errorf("message: Encode: KindContacts requires a Contacts, got %T", msg)
		}
		return encodeContacts(c), nil
	case KindSupply:
		s, ok := msg.(Supply)
		if !ok {
			return "", fmt.Errorf("message: Encode: KindSupply requires a Supply, got %T", msg)
		}
		return encodeSupply(s), nil
	case KindCamera:
		c, ok := msg.(Camera)
		if !ok {
			return "", fmt.Errorf("message: Encode: KindCamera requires a Camera, got %T", msg)
		}
		return encodeCamera(c), nil
	case KindClock:
		c, ok := msg.(ClockSync)
		if !ok {
			return "", fmt.Errorf("message: Encode: KindClock requires a ClockSync, got %T", msg)
		}
		return encodeClock(c), nil
	default:
		return "", fmt.Errorf("message: Encode: unknown kind %d", kind)
	}
}

func fmtFloat(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) }
func fmtBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func encodeMotion(m Motion) string {
	return join("mt",
		strconv.FormatInt(m.RemoteTime, 10),
		strconv.Itoa(m.XPulses),
		strconv.Itoa(m.YPulses),
		fmtFloat(m.YawDeg),
		fmtFloat(m.LeftPps),
		fmtFloat(m.RightPps),
		fmtBool(m.ImuFailure),
		fmtBool(m.Halt),
		fmtFloat(m.LeftTargetPps),
		fmtFloat(m.RightTargetPps),
		fmtFloat(m.LeftPower),
		fmtFloat(m.RightPower),
	)
}

func encodeProxy(p Proxy) string {
	return join("px",
		strconv.FormatInt(p.RemoteTime, 10),
		fmtFloat(p.SensorDirDeg),
		fmtFloat(p.EchoDelayUs),
		strconv.Itoa(p.XPulses),
		strconv.Itoa(p.YPulses),
		fmtFloat(p.YawDeg),
	)
}

func encodeContacts(c Contacts) string {
	return join("ct",
		strconv.FormatInt(c.RemoteTime, 10),
		fmtBool(c.FrontOK),
		fmtBool(c.RearOK),
		fmtBool(c.CanForward),
		fmtBool(c.CanBackward),
	)
}

func encodeSupply(s Supply) string {
	return join("sv",
		strconv.FormatInt(s.RemoteTime, 10),
		strconv.Itoa(s.VoltageRaw),
	)
}

func encodeCamera(c Camera) string {
	fields := []string{"qr",
		strconv.FormatInt(c.RemoteTime, 10),
		c.QRCode,
		strconv.Itoa(c.Width),
		strconv.Itoa(c.Height),
	}
	for _, p := range c.Quad {
		fields = append(fields, fmtFloat(p.X), fmtFloat(p.Y))
	}
	return join(fields[0], fields[1:]...)
}

func encodeClock(c ClockSync) string {
	return join("ck",
		strconv.FormatInt(c.Originate, 10),
		strconv.FormatInt(c.Receive, 10),
		strconv.FormatInt(c.Transmit, 10),
	)
}

func join(tag string, fields ...string) string {
	return tag + " " + strings.Join(fields, " ")
}
