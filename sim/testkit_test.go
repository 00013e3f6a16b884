package sim

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"NS/configs"
	"NS/node"
	"NS/utils"
)

// scriptedSource feeds a fixed event sequence, mirroring the behavior of the
// script package source without importing it.
type scriptedSource struct {
	events []Event
	pos    int
}

func (f *scriptedSource) NextTick(now int) ([]Event, bool) {
	evs := make([]Event, 0)
	for f.pos < len(f.events) {
		ev := f.events[f.pos]
		f.pos++
		if _, boundary := ev.(TimeAdvanceEvent); boundary {
			break
		}
		evs = append(evs, ev)
	}
	return evs, f.pos >= len(f.events)
}

func (f *scriptedSource) Interactive() bool {
	return false
}

type testRecv struct {
	Tick    int
	Src     int
	Proto   int
	Payload string
}

// testProg is the node program the loop tests drive. Commands:
//
//	send <dest> <msg>   unicast on protocol 7
//	bcast <msg>         broadcast on protocol 7
//	timer <delta> <tag> schedule a timeout recording tag when it fires
//	commit              pass the write barrier, then count the commit
type testProg struct {
	rt    node.Runtime
	fleet *testFleet

	starts    int
	stops     int
	committed int
}

func (p *testProg) Start() {
	p.starts++
}

func (p *testProg) Stop() {
	p.stops++
}

func (p *testProg) OnReceive(src int, protocol int, payload []byte) {
	p.fleet.recvd[p.rt.Addr()] = append(p.fleet.recvd[p.rt.Addr()], testRecv{
		Tick:    p.rt.Now(),
		Src:     src,
		Proto:   protocol,
		Payload: string(payload),
	})
	p.fleet.trace = append(p.fleet.trace,
		fmt.Sprintf("recv t=%d %d->%d %s", p.rt.Now(), src, p.rt.Addr(), string(payload)))
}

func (p *testProg) OnCommand(cmd string) {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case "send":
		dest, _ := strconv.Atoi(fields[1])
		p.rt.Send(dest, 7, []byte(fields[2]))
	case "bcast":
		p.rt.Send(configs.Broadcast, 7, []byte(fields[1]))
	case "timer":
		delta, _ := strconv.Atoi(fields[1])
		tag := fields[2]
		p.rt.SetTimeout(delta, func() {
			p.fleet.fired = append(p.fleet.fired, fmt.Sprintf("%s@%d", tag, p.rt.Now()))
		})
	case "commit":
		p.rt.CrashCheck()
		p.committed++
	}
}

// testFleet tracks every program instance the factory hands out.
type testFleet struct {
	progs    map[int][]*testProg
	recvd    map[int][]testRecv
	trace    []string
	fired    []string
	made     int
	failNext bool
}

func newTestFleet() *testFleet {
	return &testFleet{
		progs: make(map[int][]*testProg),
		recvd: make(map[int][]testRecv),
	}
}

func (f *testFleet) factory(rt node.Runtime) (node.Program, error) {
	if f.failNext {
		f.failNext = false
		return nil, utils.ErrKeyNotFound
	}
	f.made++
	p := &testProg{rt: rt, fleet: f}
	f.progs[rt.Addr()] = append(f.progs[rt.Addr()], p)
	return p, nil
}

// current returns the newest instance for addr.
func (f *testFleet) current(addr int) *testProg {
	insts := f.progs[addr]
	if len(insts) == 0 {
		return nil
	}
	return insts[len(insts)-1]
}

var (
	savedDrop, savedDelay, savedCf, savedRf float64
)

func setRates(drop, delay, cf, rf float64) {
	savedDrop, savedDelay = configs.DropRate, configs.DelayRate
	savedCf, savedRf = configs.FailureRate, configs.RecoveryRate
	configs.DropRate, configs.DelayRate = drop, delay
	configs.FailureRate, configs.RecoveryRate = cf, rf
}

func recRates() {
	configs.DropRate, configs.DelayRate = savedDrop, savedDelay
	configs.FailureRate, configs.RecoveryRate = savedCf, savedRf
}

// testSim wires a fleet, a controller over scripted user input, and a
// simulator writing into a buffer.
func testSim(lvl int, seed int64, input string) (*Simulator, *testFleet, *bytes.Buffer) {
	fleet := newTestFleet()
	out := &bytes.Buffer{}
	chaos := NewFailureController(lvl, seed, NewLineReader(strings.NewReader(input)), out)
	s := NewSimulator(fleet.factory, chaos, out)
	return s, fleet, out
}
