package node

import (
	"fmt"
	"strconv"
	"strings"

	"NS/configs"
	"NS/storage"

	"github.com/goccy/go-json"
)

// KvProgram is a durable key-value node. Local and remote mutations pass the
// write barrier right before they hit the store, so a run under a crashing
// failure level can cut a node down between deciding a write and committing
// it. A restarted instance purges its store: a crash loses everything not
// yet committed and a restart begins from fresh state.
type KvProgram struct {
	rt    Runtime
	store storage.Store
}

type kvOp struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewKvFactory(storeType string) Factory {
	return func(rt Runtime) (Program, error) {
		return &KvProgram{
			rt:    rt,
			store: storage.NewKV(fmt.Sprintf("node%d", rt.Addr()), storeType),
		}, nil
	}
}

func (c *KvProgram) Start() {
	c.store.Purge()
	configs.NodePrintf(c.rt.Addr(), "kv node up at tick %d", c.rt.Now())
}

func (c *KvProgram) Stop() {
	c.store.Close()
}

// OnCommand handles "put <k> <v>", "get <k>", "del <k>" against the local
// store and "rput <dest> <k> <v>" to mutate a remote node.
func (c *KvProgram) OnCommand(cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "put":
		if len(fields) != 3 {
			c.rt.Output("node %d: usage: put <key> <value>", c.rt.Addr())
			return
		}
		c.apply(kvOp{Op: "put", Key: fields[1], Value: fields[2]})
	case "get":
		if len(fields) != 2 {
			c.rt.Output("node %d: usage: get <key>", c.rt.Addr())
			return
		}
		if v, ok := c.store.Read(fields[1]); ok {
			c.rt.Output("node %d: %s = %s", c.rt.Addr(), fields[1], v)
		} else {
			c.rt.Output("node %d: %s not found", c.rt.Addr(), fields[1])
		}
	case "del":
		if len(fields) != 2 {
			c.rt.Output("node %d: usage: del <key>", c.rt.Addr())
			return
		}
		c.apply(kvOp{Op: "del", Key: fields[1]})
	case "rput":
		if len(fields) != 4 {
			c.rt.Output("node %d: usage: rput <dest> <key> <value>", c.rt.Addr())
			return
		}
		dest, err := strconv.Atoi(fields[1])
		if err != nil {
			c.rt.Output("node %d: bad destination %q", c.rt.Addr(), fields[1])
			return
		}
		body, err := json.Marshal(kvOp{Op: "put", Key: fields[2], Value: fields[3]})
		configs.CheckError(err)
		c.rt.Send(dest, ProtoKv, body)
	default:
		c.rt.Output("node %d: unknown command %q", c.rt.Addr(), cmd)
	}
}

func (c *KvProgram) OnReceive(src int, protocol int, payload []byte) {
	if protocol != ProtoKv {
		configs.NodePrintf(c.rt.Addr(), "packet with unknown protocol %d from %d", protocol, src)
		return
	}
	var op kvOp
	if err := json.Unmarshal(payload, &op); err != nil {
		configs.NodePrintf(c.rt.Addr(), "unparseable kv payload from %d", src)
		return
	}
	c.apply(op)
}

// apply commits one mutation, passing the write barrier first.
func (c *KvProgram) apply(op kvOp) {
	switch op.Op {
	case "put":
		c.rt.CrashCheck()
		if c.store.Update(op.Key, op.Value) {
			c.rt.Output("node %d: put %s = %s", c.rt.Addr(), op.Key, op.Value)
		}
	case "del":
		c.rt.CrashCheck()
		if c.store.Delete(op.Key) {
			c.rt.Output("node %d: del %s", c.rt.Addr(), op.Key)
		}
	}
}
