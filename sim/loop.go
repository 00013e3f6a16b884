package sim

import (
	"fmt"

	"NS/configs"

	set "github.com/deckarep/golang-set"
)

// Source supplies the external events between tick boundaries: a pre-parsed
// command script or the interactive prompt.
type Source interface {
	// NextTick returns the candidate events for the current tick, up to the
	// next TimeAdvance, which it consumes. drained reports that the source
	// will never produce another event.
	NextTick(now int) (events []Event, drained bool)
	// Interactive distinguishes the prompt-driven source. It swaps the
	// in-transit resolution and the user prompt inside the tick pipeline so
	// an interactive user sees the pending packets they are about to affect.
	Interactive() bool
}

// Run drives the tick loop until the script, the in-transit queue, and the
// waiting timeouts are all drained, or an Exit event executes. An interactive
// source is never treated as drained, so it runs until Exit. It returns the
// process exit code.
func (s *Simulator) Run(src Source) int {
	s.running = true
	drained := false
	for s.running {
		if !src.Interactive() && drained && len(s.transit) == 0 && len(s.waiting) == 0 {
			break
		}
		s.tick(src, &drained)
	}
	s.running = false
	return 0
}

// tick performs one quantum. The resolve phases run in a fixed per-mode
// order; script mode resolves the in-transit queue before consuming the
// script while interactive mode prompts first. The clock advances by exactly
// one at the end.
func (s *Simulator) tick(src Source, drained *bool) {
	s.canceled = set.NewSet()
	s.firing = nil

	events := make([]Event, 0)
	if src.Interactive() {
		evs, _ := src.NextTick(s.clock)
		events = append(events, evs...)
		events = append(events, s.resolveCrashes()...)
		events = append(events, s.resolveTransit()...)
	} else {
		events = append(events, s.resolveTransit()...)
		evs, d := src.NextTick(s.clock)
		events = append(events, evs...)
		*drained = d
		events = append(events, s.resolveCrashes()...)
	}
	events = append(events, s.resolveTimeouts()...)
	configs.TPrintf("tick %d: %d events, %d in transit, %d timeouts waiting",
		s.clock, len(events), len(s.transit), len(s.waiting))

	for _, ev := range s.chaos.orderEvents(events) {
		if !s.running {
			break
		}
		s.dispatch(ev)
	}

	s.clock++
	s.stats.Add(&s.stats.Ticks, 1)
}

// resolveTransit swaps out the queue and asks the controller for a verdict
// per packet. Delayed packets seed the new queue ahead of anything sent
// during this tick's execution.
func (s *Simulator) resolveTransit() []Event {
	pkts := s.transit
	s.transit = make([]Packet, 0)
	deliver, delayed := s.chaos.resolveTransit(pkts)
	s.transit = append(s.transit, delayed...)
	s.stats.Add(&s.stats.Delayed, len(delayed))
	s.stats.Add(&s.stats.Dropped, len(pkts)-len(deliver)-len(delayed))

	evs := make([]Event, 0, len(deliver))
	for _, p := range deliver {
		evs = append(evs, DeliveryEvent{Pkt: p})
	}
	return evs
}

func (s *Simulator) resolveCrashes() []Event {
	toFail, toStart := s.chaos.resolveCrashes(s.nodes.liveAddrs(), s.nodes.crashedAddrs())
	evs := make([]Event, 0, len(toFail)+len(toStart))
	for _, a := range toFail {
		evs = append(evs, FailureEvent{Addr: a})
	}
	for _, a := range toStart {
		evs = append(evs, StartEvent{Addr: a})
	}
	return evs
}

// resolveTimeouts moves every due, non-cancelled timeout into this tick.
// Timeouts whose owner crashed in an earlier tick are discarded here.
func (s *Simulator) resolveTimeouts() []Event {
	remain := make([]*Timeout, 0, len(s.waiting))
	evs := make([]Event, 0)
	for _, t := range s.waiting {
		if s.canceled.Contains(t) || s.nodes.isCrashed(t.Owner) {
			s.stats.Add(&s.stats.Canceled, 1)
			continue
		}
		if t.FireTick <= s.clock {
			s.firing = append(s.firing, t)
			evs = append(evs, TimeoutEvent{T: t})
		} else {
			remain = append(remain, t)
		}
	}
	s.waiting = remain
	return evs
}

// dispatch executes one event. This is the only place a crash signal from a
// handler is recovered (failNode and startNode capture the ones raised by
// Stop and Start): a node crashing inside its handler aborts that handler and
// the loop proceeds with the next event.
func (s *Simulator) dispatch(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			cs, isCrash := r.(crashSignal)
			if !isCrash {
				panic(r)
			}
			configs.DPrintf("node %d crashed inside its handler", cs.addr)
		}
	}()

	switch ev := ev.(type) {
	case FailureEvent:
		s.failNode(ev.Addr)
	case StartEvent:
		s.startNode(ev.Addr)
	case CommandEvent:
		if prog, ok := s.nodes.get(ev.Addr); ok {
			s.stats.Add(&s.stats.Commands, 1)
			prog.OnCommand(ev.Cmd)
		} else if s.nodes.isCrashed(ev.Addr) {
			configs.DPrintf("command for crashed node %d ignored", ev.Addr)
		} else {
			configs.DPrintf("command for absent node %d: %q", ev.Addr, ev.Cmd)
		}
	case DeliveryEvent:
		if prog, ok := s.nodes.get(ev.Pkt.Dest); ok {
			s.stats.Add(&s.stats.Delivered, 1)
			prog.OnReceive(ev.Pkt.Src, ev.Pkt.Protocol, ev.Pkt.Payload)
		}
		// a packet for a crashed or absent node is dropped silently.
	case TimeoutEvent:
		if s.canceled.Contains(ev.T) {
			return
		}
		s.stats.Add(&s.stats.Timeouts, 1)
		ev.T.Fn()
	case EchoEvent:
		fmt.Fprintln(s.out, ev.Msg)
	case ExitEvent:
		s.running = false
	case TimeAdvanceEvent:
		// tick boundaries are consumed by the source, never executed.
	}
}
