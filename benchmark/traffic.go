package benchmark

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"NS/configs"
	"NS/sim"

	"github.com/pingcap/go-ycsb/pkg/generator"
)

// TrafficGen produces command scripts that drive a fleet of kv or ping nodes
// for soak runs under a failure level. KV keys are Zipfian-skewed; senders
// and destinations are drawn uniformly.
type TrafficGen struct {
	kind  string
	nodes int
	r     *rand.Rand
	zip   *generator.Zipfian
}

// NewTrafficGen builds a generator over nodes addresses and keys distinct
// keys with the given Zipfian skew.
func NewTrafficGen(kind string, nodes, keys int, skew float64, seed int64) *TrafficGen {
	configs.Assert(nodes >= 2, "traffic needs at least two nodes")
	return &TrafficGen{
		kind:  kind,
		nodes: nodes,
		r:     rand.New(rand.NewSource(seed)),
		zip:   generator.NewZipfianWithRange(0, int64(keys-1), skew),
	}
}

// Script assembles the full event sequence: boot all nodes, then ticks ticks
// of cmdsPerTick commands each, then exit.
func (g *TrafficGen) Script(ticks, cmdsPerTick int) []sim.Event {
	evs := make([]sim.Event, 0, g.nodes+ticks*(cmdsPerTick+1)+2)
	for a := 0; a < g.nodes; a++ {
		evs = append(evs, sim.StartEvent{Addr: a})
	}
	evs = append(evs, sim.TimeAdvanceEvent{})
	for t := 0; t < ticks; t++ {
		for i := 0; i < cmdsPerTick; i++ {
			from := g.r.Intn(g.nodes)
			evs = append(evs, sim.CommandEvent{Addr: from, Cmd: g.command(from)})
		}
		evs = append(evs, sim.TimeAdvanceEvent{})
	}
	evs = append(evs, sim.ExitEvent{})
	return evs
}

// WriteScript emits the same run in the textual script syntax.
func (g *TrafficGen) WriteScript(w io.Writer, ticks, cmdsPerTick int) error {
	for a := 0; a < g.nodes; a++ {
		if _, err := fmt.Fprintf(w, "%s %d\n", configs.StartToken, a); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, configs.TimeToken); err != nil {
		return err
	}
	for t := 0; t < ticks; t++ {
		for i := 0; i < cmdsPerTick; i++ {
			from := g.r.Intn(g.nodes)
			if _, err := fmt.Fprintf(w, "%s %d %s\n", configs.CommandToken, from, g.command(from)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, configs.TimeToken); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, configs.ExitToken)
	return err
}

func (g *TrafficGen) command(from int) string {
	if g.kind == "ping" {
		dest := g.other(from)
		return fmt.Sprintf("ping %d hello-%d", dest, g.r.Intn(1<<16))
	}
	key := "key" + strconv.FormatInt(g.zip.Next(g.r), 10)
	val := "v" + strconv.Itoa(g.r.Intn(1<<16))
	if g.r.Float64() < 0.5 {
		return fmt.Sprintf("put %s %s", key, val)
	}
	return fmt.Sprintf("rput %d %s %s", g.other(from), key, val)
}

func (g *TrafficGen) other(from int) int {
	dest := g.r.Intn(g.nodes - 1)
	if dest >= from {
		dest++
	}
	return dest
}
