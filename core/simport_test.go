package core

import "testing"

// simPort is a simulated PortDriver. It models the pieces of the port
// hardware the engine relies on: per-port word FIFOs, a frame-sync line that
// produces one rising edge per frameLen bit clocks, timestamped output
// scheduling, and a single armed trigger whose routine runs as soon as its
// scheduled time falls due, before the controller gets to run any further.
type simPort struct {
	t *testing.T

	frameLen uint32
	offset   uint32

	now   PortTimestamp
	edges int

	rxWords map[Port][]uint32
	outs    []outEvent

	trigPort    Port
	trigFn      func()
	trigTime    PortTimestamp
	trigTimeSet bool
	trigEnabled bool
	trigFires   int

	eventTime     map[Port]PortTimestamp
	portTrigTimes map[Port]PortTimestamp
	inverted      map[Port]bool
	cleared       map[Port]int
	started       map[Port]bool
	clocksStarted int
}

type outEvent struct {
	port  Port
	time  PortTimestamp
	word  uint32
	timed bool
}

func newSimPort(t *testing.T, frameLen, offset uint32) *simPort {
	return &simPort{
		t:             t,
		frameLen:      frameLen,
		offset:        offset,
		rxWords:       make(map[Port][]uint32),
		eventTime:     make(map[Port]PortTimestamp),
		portTrigTimes: make(map[Port]PortTimestamp),
		inverted:      make(map[Port]bool),
		cleared:       make(map[Port]int),
		started:       make(map[Port]bool),
	}
}

func (s *simPort) queueIn(p Port, words ...uint32) {
	s.rxWords[p] = append(s.rxWords[p], words...)
}

// timedOuts returns only the OutAtTime events, in order.
func (s *simPort) timedOuts() []outEvent {
	var evs []outEvent
	for _, e := range s.outs {
		if e.timed {
			evs = append(evs, e)
		}
	}
	return evs
}

// fireDueTriggers runs the armed trigger routine while its scheduled time is
// no later than limit. The routine re-arms itself one frame on, so this
// settles after at most one invocation per frame boundary.
func (s *simPort) fireDueTriggers(limit PortTimestamp) {
	for s.trigEnabled && s.trigTimeSet && s.trigFn != nil && s.trigTime <= limit {
		s.eventTime[s.trigPort] = s.trigTime
		s.trigFires++
		s.trigFn()
	}
}

func (s *simPort) EnableClockBlock(clk ClockBlock)  {}
func (s *simPort) DisableClockBlock(clk ClockBlock) {}

func (s *simPort) SetClockSourcePort(clk ClockBlock, p Port) {}

func (s *simPort) StartClock(clk ClockBlock) { s.clocksStarted++ }

func (s *simPort) Enable(p Port)  { s.started[p] = true }
func (s *simPort) Disable(p Port) { delete(s.started, p) }
func (s *simPort) Reset(p Port)   { s.started[p] = true }

func (s *simPort) StartBuffered(p Port, transferBits uint32) {
	if transferBits != PortBufferBits {
		s.t.Errorf("StartBuffered(%d): transferBits = %d, want %d",
			p, transferBits, PortBufferBits)
	}
	s.started[p] = true
}

func (s *simPort) SetClock(p Port, clk ClockBlock) {}

func (s *simPort) SetInvert(p Port, invert bool) { s.inverted[p] = invert }

func (s *simPort) ClearBuffer(p Port) { s.cleared[p]++ }

func (s *simPort) In(p Port) uint32 {
	q := s.rxWords[p]
	if len(q) == 0 {
		s.t.Fatalf("In(%d): port buffer empty", p)
	}
	s.rxWords[p] = q[1:]
	return q[0]
}

func (s *simPort) Out(p Port, word uint32) {
	s.outs = append(s.outs, outEvent{port: p, word: word})
}

func (s *simPort) OutAtTime(p Port, t PortTimestamp, word uint32) {
	s.outs = append(s.outs, outEvent{port: p, time: t, word: word, timed: true})
}

// WaitForPins models the frame-sync wait: each call completes at the next
// frame boundary. Any trigger falling due by the first slot of the new frame
// fires before the caller resumes, which is the ordering the hardware gives
// the exchange routine relative to the controller.
func (s *simPort) WaitForPins(p Port, value uint32) uint32 {
	if s.edges == 0 {
		s.now = 1000
	} else {
		s.now += PortTimestamp(s.frameLen)
	}
	s.edges++
	s.fireDueTriggers(s.now + PortTimestamp(s.offset+PortBufferBits))
	s.eventTime[p] = s.now
	return value
}

func (s *simPort) TriggerTime(p Port) PortTimestamp { return s.eventTime[p] }

func (s *simPort) SetTriggerTime(p Port, t PortTimestamp) {
	if p == s.trigPort && s.trigFn != nil {
		s.trigTime = t
		s.trigTimeSet = true
		return
	}
	s.portTrigTimes[p] = t
}

func (s *simPort) ClearTriggerTime(p Port) {
	if p == s.trigPort && s.trigFn != nil {
		s.trigTimeSet = false
		return
	}
	delete(s.portTrigTimes, p)
}

func (s *simPort) SetTriggerHandler(p Port, fn func()) {
	s.trigPort = p
	s.trigFn = fn
}

func (s *simPort) EnableTrigger(p Port)  { s.trigEnabled = true }
func (s *simPort) DisableTrigger(p Port) { s.trigEnabled = false }
