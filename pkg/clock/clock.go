// Package clock implements the four-timestamp round-trip offset
// estimate between the robot's onboard clock and the host clock. A
// single exchange suffices; there is no retry protocol, the caller
// reissues exchanges periodically.
package clock

// Millis is a millisecond timestamp. Its epoch depends on which clock
// produced it (host or robot); Sync translates between the two.
type Millis int64

// Sync is a clock synchroniser built from one round-trip exchange:
// originate (host send time), receive (robot receive time), transmit
// (robot reply time), destination (host receive time).
type Sync struct {
	Latency Millis
	Offset  Millis
}

// NewSync computes latency and offset from the four round-trip
// timestamps:
//
//	latency = ((destination - originate) - (transmit - receive) + 1) / 2
//	offset  = originate + latency - receive
func NewSync(originate, receive, transmit, destination Millis) Sync {
	latency := ((destination - originate) - (transmit - receive) + 1) / 2
	offset := originate + latency - receive
	return Sync{Latency: latency, Offset: offset}
}

// FromRemote converts a timestamp on the robot's clock to the host
// clock.
func (s Sync) FromRemote(t Millis) Millis { return t + s.Offset }

// FromLocal converts a timestamp on the host clock to the robot's
// clock.
func (s Sync) FromLocal(t Millis) Millis { return t - s.Offset }
