package node

import (
	"strconv"
	"strings"

	"NS/configs"

	"github.com/goccy/go-json"
)

// PingProgram answers ping packets and reports unanswered pings through a
// one-shot timeout. An unanswered ping is reported, not resent.
type PingProgram struct {
	rt      Runtime
	seq     int
	pending map[int]int // seq -> destination
}

type pingBody struct {
	Seq int    `json:"seq"`
	Msg string `json:"msg"`
}

func NewPingFactory() Factory {
	return func(rt Runtime) (Program, error) {
		return &PingProgram{rt: rt, pending: make(map[int]int)}, nil
	}
}

func (c *PingProgram) Start() {
	configs.NodePrintf(c.rt.Addr(), "ping node up at tick %d", c.rt.Now())
}

func (c *PingProgram) Stop() {
	configs.NodePrintf(c.rt.Addr(), "ping node stopping")
}

// OnCommand handles "ping <dest> <msg...>".
func (c *PingProgram) OnCommand(cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) < 3 || fields[0] != "ping" {
		c.rt.Output("node %d: unknown command %q", c.rt.Addr(), cmd)
		return
	}
	dest, err := strconv.Atoi(fields[1])
	if err != nil {
		c.rt.Output("node %d: bad ping destination %q", c.rt.Addr(), fields[1])
		return
	}
	c.seq++
	seq := c.seq
	body, err := json.Marshal(pingBody{Seq: seq, Msg: strings.Join(fields[2:], " ")})
	configs.CheckError(err)
	if err := c.rt.Send(dest, ProtoPing, body); err != nil {
		return
	}
	c.pending[seq] = dest
	c.rt.SetTimeout(configs.PingRetryTicks, func() {
		if d, ok := c.pending[seq]; ok {
			delete(c.pending, seq)
			c.rt.Output("node %d: ping %d to node %d went unanswered", c.rt.Addr(), seq, d)
		}
	})
}

func (c *PingProgram) OnReceive(src int, protocol int, payload []byte) {
	var body pingBody
	if err := json.Unmarshal(payload, &body); err != nil {
		configs.NodePrintf(c.rt.Addr(), "unparseable ping payload from %d", src)
		return
	}
	switch protocol {
	case ProtoPing:
		c.rt.Output("node %d: ping from node %d: %s", c.rt.Addr(), src, body.Msg)
		c.rt.Send(src, ProtoPong, payload)
	case ProtoPong:
		delete(c.pending, body.Seq)
		c.rt.Output("node %d: pong from node %d: %s", c.rt.Addr(), src, body.Msg)
	default:
		configs.NodePrintf(c.rt.Addr(), "packet with unknown protocol %d from %d", protocol, src)
	}
}
