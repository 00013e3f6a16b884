package node

// Program is a user-written node. The simulator constructs one instance per
// live address through a Factory and drives it exclusively through these four
// callbacks. Any callback may be unwound by the crash signal raised from a
// Runtime method; the signal is recovered at the event dispatch boundary and
// must never be recovered inside a Program.
type Program interface {
	// Start runs once right after construction, on boot and on every restart.
	Start()
	// Stop runs when the node fails. The instance is discarded afterwards.
	Stop()
	// OnReceive handles a delivered packet.
	OnReceive(src int, protocol int, payload []byte)
	// OnCommand handles an external command string.
	OnCommand(cmd string)
}

// Runtime is the simulator handle a Program uses for all side effects.
// It is only valid while the owning node is live.
type Runtime interface {
	// Addr reports the node's own address.
	Addr() int
	// Now reports the current simulated tick.
	Now() int
	// Send enqueues a packet. dest may be the broadcast address, which
	// expands to one packet per other live node at send time.
	Send(dest int, protocol int, payload []byte) error
	// SetTimeout schedules fn to run delta ticks from now. The returned id
	// identifies the pending timeout; it fires at most once and never after
	// the node has failed.
	SetTimeout(delta int, fn func()) TimeoutID
	// CrashCheck is the about-to-commit hook. A program calls it immediately
	// before an observable persistent write; the simulator may inject a
	// crash here, unwinding the caller.
	CrashCheck()
	// Output emits a user-visible line on the simulator's output stream.
	Output(format string, a ...interface{})
}

// TimeoutID identifies a pending timeout of one node.
type TimeoutID int

// Factory constructs the program instance for a fresh node bound to rt.
type Factory func(rt Runtime) (Program, error)

// Protocol numbers used by the bundled programs.
const (
	ProtoPing = 1
	ProtoPong = 2
	ProtoKv   = 3
)
