package status

import (
	"testing"

	"github.com/itohio/wheelly/pkg/geom"
	"github.com/itohio/wheelly/pkg/message"
	"github.com/stretchr/testify/assert"
)

func TestStatus_Location(t *testing.T) {
	s := New(Spec{})
	s = s.WithMotion(message.Motion{XPulses: 40, YPulses: 0})

	loc := s.Location()
	assert.InDelta(t, 0.067*3.14159265, loc.X, 1e-3)
	assert.InDelta(t, 0, loc.Y, 1e-6)
}

func TestStatus_HeadDirection(t *testing.T) {
	s := New(Spec{})
	s = s.WithMotion(message.Motion{YawDeg: 90}).WithProxy(message.Proxy{SensorDirDeg: 0})

	head := s.HeadDirection()
	assert.InDelta(t, geom.Deg90.X, head.X, 1e-4)
	assert.InDelta(t, geom.Deg90.Y, head.Y, 1e-4)
}

func TestStatus_CanMoveForward(t *testing.T) {
	spec := Spec{ContactRadius: 0.3}
	s := New(spec).WithContacts(message.Contacts{FrontOK: true, CanForward: true})

	assert.True(t, s.CanMoveForward(), "no echo at all should not block forward motion")

	tooClose := s.WithProxy(message.Proxy{EchoDelayUs: 100})
	assert.False(t, tooClose.CanMoveForward(), "an echo within the contact radius should block forward motion")

	bumperTripped := s.WithContacts(message.Contacts{FrontOK: false, CanForward: true})
	assert.False(t, bumperTripped.CanMoveForward())
}

func TestStatus_WithClock_PreservesRemoteTimestamp(t *testing.T) {
	s := New(Spec{}).WithClock(424242)
	assert.Equal(t, int64(424242), s.ResetTime)
}
