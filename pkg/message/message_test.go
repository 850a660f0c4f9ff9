package message

import (
	"testing"

	"github.com/itohio/wheelly/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMotion(t *testing.T) {
	line := "mt 1000 10 20 90 50.5 51.5 0 0 50 50 0.8 0.8"
	kind, msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindMotion, kind)

	m := msg.(Motion)
	assert.Equal(t, int64(1000), m.RemoteTime)
	assert.Equal(t, 10, m.XPulses)
	assert.Equal(t, 20, m.YPulses)
	assert.False(t, m.ImuFailure)
	assert.False(t, m.Halt)
}

func TestDecodeProxy(t *testing.T) {
	line := "px 2000 90 3529.2 5 0 0"
	kind, msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindProxy, kind)

	p := msg.(Proxy)
	assert.InDelta(t, float32(0.6), p.Distance(), 1e-3)
}

func TestDecodeContacts(t *testing.T) {
	line := "ct 500 1 1 1 0"
	kind, msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindContacts, kind)

	c := msg.(Contacts)
	assert.True(t, c.FrontOK)
	assert.False(t, c.CanBackward)
}

func TestDecodeSupply(t *testing.T) {
	kind, msg, err := Decode("sv 300 4012")
	require.NoError(t, err)
	assert.Equal(t, KindSupply, kind)
	assert.Equal(t, 4012, msg.(Supply).VoltageRaw)
}

func TestDecodeCamera(t *testing.T) {
	line := "qr 700 A123 640 480 10 10 20 10 20 20 10 20"
	kind, msg, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, KindCamera, kind)

	c := msg.(Camera)
	assert.Equal(t, "A123", c.QRCode)
	assert.Equal(t, geom.Point{X: 10, Y: 10}, c.Quad[0])
}

func TestDecodeClock(t *testing.T) {
	kind, msg, err := Decode("ck 1000 1200 1205")
	require.NoError(t, err)
	assert.Equal(t, KindClock, kind)

	c := msg.(ClockSync)
	assert.Equal(t, int64(1000), c.Originate)
	assert.Equal(t, int64(1200), c.Receive)
	assert.Equal(t, int64(1205), c.Transmit)
}

func TestClockRequest(t *testing.T) {
	assert.Equal(t, "ck 1000", ClockRequest(1000))
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unknown tag", "zz 1 2 3"},
		{"wrong field count", "mt 1 2 3"},
		{"clock request form", "ck 1000"},
		{"bad number", "sv 100 notanumber"},
		{"empty line", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	lines := []string{
		"mt 1000 10 20 90 50.5 51.5 0 0 50 50 0.8 0.8",
		"px 2000 90 3529.2 5 0 0",
		"ct 500 1 1 1 0",
		"sv 300 4012",
		"qr 700 A123 640 480 10 10 20 10 20 20 10 20",
		"ck 1000 1200 1205",
	}

	for _, line := range lines {
		kind, msg, err := Decode(line)
		require.NoError(t, err)

		encoded, err := Encode(kind, msg)
		require.NoError(t, err)

		kind2, msg2, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, kind, kind2)
		assert.Equal(t, msg, msg2)

		reencoded, err := Encode(kind2, msg2)
		require.NoError(t, err)
		assert.Equal(t, encoded, reencoded)
	}
}

func TestPulsesToMetres(t *testing.T) {
	got := PulsesToMetres(40)
	assert.InDelta(t, 0.067*3.14159265, got, 1e-3)
}
