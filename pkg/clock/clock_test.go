package clock

import "testing"

func TestNewSync(t *testing.T) {
	tests := []struct {
		name                                       string
		originate, receive, transmit, destination Millis
		wantLatency, wantOffset                   Millis
	}{
		{
			name:        "round trip with processing delay",
			originate:   1000,
			receive:     1200,
			transmit:    1205,
			destination: 1100,
			wantLatency: 48,
			wantOffset:  -152,
		},
		{
			name:        "zero offset, symmetric delay",
			originate:   0,
			receive:     10,
			transmit:    10,
			destination: 20,
			wantLatency: 10,
			wantOffset:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSync(tt.originate, tt.receive, tt.transmit, tt.destination)
			if s.Latency != tt.wantLatency {
				t.Errorf("Latency = %d, want %d", s.Latency, tt.wantLatency)
			}
			if s.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", s.Offset, tt.wantOffset)
			}
		})
	}
}

func TestSync_RoundTrip(t *testing.T) {
	s := NewSync(1000, 1200, 1205, 1100)

	remote := Millis(1300)
	local := s.FromRemote(remote)
	if got := s.FromLocal(local); got != remote {
		t.Errorf("FromLocal(FromRemote(%d)) = %d, want %d", remote, got, remote)
	}

	if got := s.FromRemote(1300); got != 1148 {
		t.Errorf("FromRemote(1300) = %d, want 1148", got)
	}
	if got := s.FromLocal(1148); got != 1300 {
		t.Errorf("FromLocal(1148) = %d, want 1300", got)
	}
}
