package sim

import (
	"NS/configs"
	"NS/node"
	"NS/utils"
)

// runtimeHandle binds one node address to the simulator. It is the only path
// by which user code mutates simulator state, and it is valid for the whole
// life of the address. Send and CrashCheck do nothing while the address is not
// live; SetTimeout and Output carry no liveness check, and a timeout set for a
// crashed owner is discarded when timeouts are resolved.
type runtimeHandle struct {
	s    *Simulator
	addr int
}

func (r *runtimeHandle) Addr() int {
	return r.addr
}

func (r *runtimeHandle) Now() int {
	return r.s.clock
}

func (r *runtimeHandle) Send(dest int, protocol int, payload []byte) error {
	if dest != configs.Broadcast && !ValidAddress(dest) {
		configs.DPrintf("node %d send to invalid address %d dropped", r.addr, dest)
		return utils.ErrInvalidAddress
	}
	if len(payload) > configs.MaxPayload {
		configs.DPrintf("node %d oversized payload dropped", r.addr)
		return utils.ErrBadPacket
	}
	return r.s.send(r.addr, dest, protocol, payload)
}

func (r *runtimeHandle) SetTimeout(delta int, fn func()) node.TimeoutID {
	return r.s.setTimeout(r.addr, delta, fn)
}

func (r *runtimeHandle) CrashCheck() {
	r.s.crashCheck(r.addr)
}

func (r *runtimeHandle) Output(format string, a ...interface{}) {
	r.s.output(format, a...)
}
