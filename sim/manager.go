package sim

import (
	"fmt"
	"io"

	"NS/configs"
	"NS/node"
	"NS/utils"

	set "github.com/deckarep/golang-set"
)

// Simulator owns all mutable simulation state: the node table, the in-transit
// queue, the waiting timeouts, the clock, and the failure controller. Node
// code borrows it only through the runtime handle bound at construction.
type Simulator struct {
	clock   int
	nodes   *nodeTable
	transit []Packet
	waiting []*Timeout
	chaos   *FailureController
	factory node.Factory
	stats   *utils.Stat
	out     io.Writer
	running bool

	// tick-scoped: timeouts cancelled mid-tick and timeouts already pulled
	// out of the waiting set for execution this tick.
	canceled set.Set
	firing   []*Timeout

	failing       map[int]bool
	nextTimeoutID int
}

// crashSignal unwinds a node's call stack after failNode has already done the
// bookkeeping. It is raised only by simulator code and recovered at the event
// dispatch boundary, around Stop inside failNode, and around Start inside
// startNode.
type crashSignal struct {
	addr int
}

func NewSimulator(factory node.Factory, chaos *FailureController, out io.Writer) *Simulator {
	return &Simulator{
		nodes:    newNodeTable(),
		transit:  make([]Packet, 0),
		waiting:  make([]*Timeout, 0),
		chaos:    chaos,
		factory:  factory,
		stats:    utils.NewStat(),
		out:      out,
		canceled: set.NewSet(),
		failing:  make(map[int]bool),
	}
}

// failNode crashes a live node: Stop is called with any crash signal
// captured, the node moves to the crashed set, and every timeout it owns is
// cancelled. The captured signal is returned so callers running inside the
// node's own stack can re-raise it.
func (s *Simulator) failNode(addr int) *crashSignal {
	prog, ok := s.nodes.get(addr)
	if !ok || s.failing[addr] {
		return nil
	}
	s.failing[addr] = true
	defer delete(s.failing, addr)

	var sig *crashSignal
	func() {
		defer func() {
			if r := recover(); r != nil {
				cs, isCrash := r.(crashSignal)
				if !isCrash {
					panic(r)
				}
				sig = &cs
			}
		}()
		prog.Stop()
	}()

	s.nodes.markCrashed(addr)
	remain := make([]*Timeout, 0, len(s.waiting))
	for _, t := range s.waiting {
		if t.Owner == addr {
			s.canceled.Add(t)
			s.stats.Add(&s.stats.Canceled, 1)
			continue
		}
		remain = append(remain, t)
	}
	s.waiting = remain
	for _, t := range s.firing {
		if t.Owner == addr {
			s.canceled.Add(t)
		}
	}
	s.stats.Add(&s.stats.Crashes, 1)
	configs.DPrintf("node %d failed at tick %d", addr, s.clock)
	return sig
}

// startNode boots addr with a freshly constructed program. A live incumbent
// is failed first; a factory error leaves the address crashed.
func (s *Simulator) startNode(addr int) {
	if !ValidAddress(addr) {
		configs.DPrintf("start rejected: %v %d", utils.ErrInvalidAddress, addr)
		return
	}
	if s.nodes.isLive(addr) {
		s.failNode(addr)
	}
	prog, err := s.factory(&runtimeHandle{s: s, addr: addr})
	if err != nil {
		s.nodes.ensureCrashed(addr)
		configs.DPrintf("node %d factory failed: %v", addr, err)
		return
	}
	if !s.nodes.clearCrashed(addr) {
		s.nodes.created++
	} else {
		s.stats.Add(&s.stats.Recovers, 1)
	}
	s.nodes.setLive(addr, prog)

	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, isCrash := r.(crashSignal); isCrash {
					// bookkeeping already done through failNode.
					return
				}
				panic(r)
			}
		}()
		prog.Start()
	}()
}

// send enqueues a packet, expanding the broadcast sentinel into one packet
// per other live address. Broadcasts are not published atomically: a crash of
// the sender observed between enqueues stops further enqueues while the
// packets already in transit stand.
func (s *Simulator) send(from, to, protocol int, payload []byte) error {
	if !s.nodes.isLive(from) {
		// nothing is enqueued; the sender alone learns why.
		return utils.ErrNotLive
	}
	pl := append([]byte(nil), payload...)
	if to == configs.Broadcast {
		for _, a := range s.nodes.liveAddrs() {
			if a == from {
				continue
			}
			if !s.nodes.isLive(from) {
				break
			}
			s.transit = append(s.transit, Packet{Src: from, Dest: a, Protocol: protocol, Payload: pl})
			s.stats.Add(&s.stats.Sent, 1)
		}
		return nil
	}
	s.transit = append(s.transit, Packet{Src: from, Dest: to, Protocol: protocol, Payload: pl})
	s.stats.Add(&s.stats.Sent, 1)
	return nil
}

// crashCheck is the write barrier: called by a node right before an
// observable persistent write, it may fail the node and unwind its stack.
func (s *Simulator) crashCheck(addr int) {
	if !s.nodes.isLive(addr) {
		return
	}
	if !s.chaos.writeBarrier(addr) {
		return
	}
	if sig := s.failNode(addr); sig != nil {
		panic(*sig)
	}
	panic(crashSignal{addr: addr})
}

func (s *Simulator) setTimeout(owner, delta int, fn func()) node.TimeoutID {
	configs.Warn(delta >= 1, "timeout delta below one tick clamped")
	delta = utils.Max(delta, 1)
	s.nextTimeoutID++
	t := &Timeout{ID: s.nextTimeoutID, Owner: owner, FireTick: s.clock + delta, Fn: fn}
	s.waiting = append(s.waiting, t)
	return node.TimeoutID(t.ID)
}

func (s *Simulator) output(format string, a ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", a...)
}

// Now reports the current tick.
func (s *Simulator) Now() int {
	return s.clock
}

// IsLive reports whether addr is in the live map.
func (s *Simulator) IsLive(addr int) bool {
	return s.nodes.isLive(addr)
}

// IsCrashed reports whether addr is in the crashed set.
func (s *Simulator) IsCrashed(addr int) bool {
	return s.nodes.isCrashed(addr)
}

// LiveAddrs returns the live addresses in ascending order.
func (s *Simulator) LiveAddrs() []int {
	return s.nodes.liveAddrs()
}

// TransitCount reports the number of packets awaiting a delivery decision.
func (s *Simulator) TransitCount() int {
	return len(s.transit)
}

// WaitingTimeouts reports the number of timeouts not yet resolved.
func (s *Simulator) WaitingTimeouts() int {
	return len(s.waiting)
}

// NodesCreated reports how many nodes have ever been constructed fresh.
func (s *Simulator) NodesCreated() int {
	return s.nodes.created
}

// Stats exposes the run counters.
func (s *Simulator) Stats() *utils.Stat {
	return s.stats
}
