package node

import (
	"fmt"
	"strings"
	"testing"

	"NS/configs"

	"github.com/goccy/go-json"
	"github.com/magiconair/properties/assert"
)

type sentPkt struct {
	Dest     int
	Protocol int
	Payload  []byte
}

// fakeRT satisfies Runtime without a simulator behind it.
type fakeRT struct {
	addr     int
	tick     int
	sent     []sentPkt
	outs     []string
	timeouts []func()
}

func (f *fakeRT) Addr() int { return f.addr }
func (f *fakeRT) Now() int  { return f.tick }

func (f *fakeRT) Send(dest int, protocol int, payload []byte) error {
	f.sent = append(f.sent, sentPkt{Dest: dest, Protocol: protocol, Payload: payload})
	return nil
}

func (f *fakeRT) SetTimeout(delta int, fn func()) TimeoutID {
	f.timeouts = append(f.timeouts, fn)
	return TimeoutID(len(f.timeouts))
}

func (f *fakeRT) CrashCheck() {}

func (f *fakeRT) Output(format string, a ...interface{}) {
	f.outs = append(f.outs, fmt.Sprintf(format, a...))
}

func (f *fakeRT) sawOutput(sub string) bool {
	for _, o := range f.outs {
		if strings.Contains(o, sub) {
			return true
		}
	}
	return false
}

func mustMake(t *testing.T, factory Factory, rt Runtime) Program {
	p, err := factory(rt)
	assert.Equal(t, err, nil)
	return p
}

func TestPingCommandSendsAndTimesOut(t *testing.T) {
	rt := &fakeRT{addr: 1}
	p := mustMake(t, NewPingFactory(), rt)
	p.Start()

	p.OnCommand("ping 2 hello there")
	assert.Equal(t, len(rt.sent), 1)
	assert.Equal(t, rt.sent[0].Dest, 2)
	assert.Equal(t, rt.sent[0].Protocol, ProtoPing)
	var body pingBody
	assert.Equal(t, json.Unmarshal(rt.sent[0].Payload, &body), nil)
	assert.Equal(t, body.Msg, "hello there")

	assert.Equal(t, len(rt.timeouts), 1)
	rt.timeouts[0]()
	assert.Equal(t, rt.sawOutput("went unanswered"), true)
}

func TestPingPongRoundtrip(t *testing.T) {
	rt := &fakeRT{addr: 1}
	p := mustMake(t, NewPingFactory(), rt)
	p.OnCommand("ping 2 hi")
	ping := rt.sent[0]

	// the peer answers with the same payload.
	p.OnReceive(2, ProtoPong, ping.Payload)
	assert.Equal(t, rt.sawOutput("pong from node 2"), true)

	// the answered ping does not report a loss when the timer fires.
	rt.timeouts[0]()
	assert.Equal(t, rt.sawOutput("went unanswered"), false)
}

func TestPingAnswersWithPong(t *testing.T) {
	rt := &fakeRT{addr: 2}
	p := mustMake(t, NewPingFactory(), rt)
	payload, _ := json.Marshal(pingBody{Seq: 9, Msg: "probe"})
	p.OnReceive(1, ProtoPing, payload)
	assert.Equal(t, len(rt.sent), 1)
	assert.Equal(t, rt.sent[0].Dest, 1)
	assert.Equal(t, rt.sent[0].Protocol, ProtoPong)
	assert.Equal(t, rt.sent[0].Payload, payload)
}

func TestPingRejectsMalformedCommand(t *testing.T) {
	rt := &fakeRT{addr: 1}
	p := mustMake(t, NewPingFactory(), rt)
	p.OnCommand("ping")
	p.OnCommand("ping x msg")
	assert.Equal(t, len(rt.sent), 0)
}

func TestKvLocalOps(t *testing.T) {
	rt := &fakeRT{addr: 3}
	p := mustMake(t, NewKvFactory(configs.MemoryStorage), rt)
	p.Start()
	defer p.Stop()

	p.OnCommand("put a 1")
	assert.Equal(t, rt.sawOutput("put a = 1"), true)
	p.OnCommand("get a")
	assert.Equal(t, rt.sawOutput("a = 1"), true)
	p.OnCommand("del a")
	p.OnCommand("get a")
	assert.Equal(t, rt.sawOutput("a not found"), true)
}

func TestKvRemotePut(t *testing.T) {
	sender := &fakeRT{addr: 1}
	p := mustMake(t, NewKvFactory(configs.MemoryStorage), sender)
	p.OnCommand("rput 2 a 1")
	assert.Equal(t, len(sender.sent), 1)
	assert.Equal(t, sender.sent[0].Dest, 2)
	assert.Equal(t, sender.sent[0].Protocol, ProtoKv)

	receiver := &fakeRT{addr: 2}
	q := mustMake(t, NewKvFactory(configs.MemoryStorage), receiver)
	q.Start()
	defer q.Stop()
	q.OnReceive(1, ProtoKv, sender.sent[0].Payload)
	q.OnCommand("get a")
	assert.Equal(t, receiver.sawOutput("a = 1"), true)
}

func TestKvIgnoresGarbagePayload(t *testing.T) {
	rt := &fakeRT{addr: 2}
	p := mustMake(t, NewKvFactory(configs.MemoryStorage), rt)
	p.Start()
	defer p.Stop()
	p.OnReceive(1, ProtoKv, []byte("{not json"))
	p.OnCommand("get a")
	assert.Equal(t, rt.sawOutput("a not found"), true)
}
