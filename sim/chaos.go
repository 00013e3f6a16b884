package sim

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"NS/configs"
	"NS/utils"
)

// FailureController decides which packets are dropped or delayed, which nodes
// crash or recover, and in which order a tick's events execute. The level is
// fixed for the whole run. Levels up to Delay draw every decision from the
// seeded RNG; Crash hands the packet decisions to the user prompt and keeps
// crashes on the RNG; Everything is fully interactive and never touches the
// RNG.
type FailureController struct {
	lvl int
	rng *rand.Rand
	in  *LineReader
	out io.Writer

	dropRate     float64
	delayRate    float64
	failureRate  float64
	recoveryRate float64
}

func NewFailureController(lvl int, seed int64, in *LineReader, out io.Writer) *FailureController {
	res := &FailureController{
		lvl:          lvl,
		in:           in,
		out:          out,
		dropRate:     configs.DropRate,
		delayRate:    configs.DelayRate,
		failureRate:  configs.FailureRate,
		recoveryRate: configs.RecoveryRate,
	}
	if lvl != configs.LvlEverything {
		res.rng = rand.New(rand.NewSource(seed))
	}
	return res
}

// resolveTransit partitions the swapped-out queue into packets delivered this
// tick and packets returned to the new queue. Dropped packets disappear.
// Packets are visited in queue order so the RNG draw sequence is fixed.
func (c *FailureController) resolveTransit(pkts []Packet) (deliver, delayed []Packet) {
	deliver = make([]Packet, 0, len(pkts))
	delayed = make([]Packet, 0)
	if len(pkts) == 0 {
		return deliver, delayed
	}
	switch c.lvl {
	case configs.LvlNothing:
		deliver = append(deliver, pkts...)
	case configs.LvlDrop:
		for _, p := range pkts {
			if c.rng.Float64() < c.dropRate {
				configs.DPrintf("dropped packet %v", p)
				continue
			}
			deliver = append(deliver, p)
		}
	case configs.LvlDelay:
		// The delay test is conditional on surviving the drop test, so the
		// configured marginal probabilities compose: drop=0.5, delay=0.5
		// lets nothing through.
		for _, p := range pkts {
			if c.rng.Float64() < c.dropRate {
				configs.DPrintf("dropped packet %v", p)
				continue
			}
			if c.dropRate < 1 && c.rng.Float64() < c.delayRate/(1-c.dropRate) {
				configs.DPrintf("delayed packet %v", p)
				delayed = append(delayed, p)
				continue
			}
			deliver = append(deliver, p)
		}
	default:
		dropSet, delaySet := c.promptTransit(pkts)
		for i, p := range pkts {
			// delay wins when an index appears in both lists.
			if delaySet[i] {
				delayed = append(delayed, p)
			} else if dropSet[i] {
				configs.DPrintf("dropped packet %v", p)
			} else {
				deliver = append(deliver, p)
			}
		}
	}
	return deliver, delayed
}

func (c *FailureController) promptTransit(pkts []Packet) (dropSet, delaySet map[int]bool) {
	fmt.Fprintf(c.out, "Packets in transit:\n")
	for i, p := range pkts {
		fmt.Fprintf(c.out, "  %d: %v\n", i, p)
	}
	dropSet = c.promptIndexList("Indices to drop (empty for none): ", len(pkts))
	delaySet = c.promptIndexList("Indices to delay (empty for none): ", len(pkts))
	return dropSet, delaySet
}

// resolveCrashes picks the live nodes to fail and the crashed nodes to
// restart this tick. Nodes are visited in ascending address order so the RNG
// draw sequence is fixed.
func (c *FailureController) resolveCrashes(live, crashed []int) (toFail, toStart []int) {
	switch {
	case c.lvl < configs.LvlCrash:
		return nil, nil
	case c.lvl == configs.LvlCrash:
		for _, a := range live {
			if c.rng.Float64() < c.failureRate {
				toFail = append(toFail, a)
			}
		}
		for _, a := range crashed {
			if c.rng.Float64() < c.recoveryRate {
				toStart = append(toStart, a)
			}
		}
		return toFail, toStart
	default:
		fmt.Fprintf(c.out, "Live nodes: %v\nCrashed nodes: %v\n", live, crashed)
		toFail = c.promptAddrList("Addresses to crash (empty for none): ", live)
		toStart = c.promptAddrList("Addresses to restart (empty for none): ", crashed)
		return toFail, toStart
	}
}

// orderEvents fixes the execution order for one tick: a random permutation
// under RNG levels, a user permutation under Everything.
func (c *FailureController) orderEvents(events []Event) []Event {
	if len(events) <= 1 {
		return events
	}
	if c.lvl != configs.LvlEverything {
		out := make([]Event, len(events))
		for i, p := range c.rng.Perm(len(events)) {
			out[i] = events[p]
		}
		return out
	}
	fmt.Fprintf(c.out, "Events this tick:\n")
	for i, ev := range events {
		fmt.Fprintf(c.out, "  %d: %v\n", i, ev)
	}
	perm := c.promptPermutation(len(events))
	if perm == nil {
		return events
	}
	out := make([]Event, len(events))
	for i, p := range perm {
		out[i] = events[p]
	}
	return out
}

// writeBarrier decides whether a crash is injected right before a node's
// durable commit.
func (c *FailureController) writeBarrier(addr int) bool {
	switch {
	case c.lvl < configs.LvlCrash:
		return false
	case c.lvl == configs.LvlCrash:
		return c.rng.Float64() < c.failureRate
	default:
		return c.promptYN(fmt.Sprintf("Crash node %d before its write? (y/n): ", addr))
	}
}

func (c *FailureController) readLine() (string, bool) {
	return c.in.ReadLine()
}

// promptIndexList reads a whitespace-delimited list of indices in [0, n).
// An empty line means none; malformed input re-prompts.
func (c *FailureController) promptIndexList(label string, n int) map[int]bool {
	for retry := 0; retry < configs.MaxPromptRetry; retry++ {
		fmt.Fprint(c.out, label)
		line, ok := c.readLine()
		if !ok {
			return nil
		}
		res := make(map[int]bool)
		bad := false
		for _, f := range strings.Fields(line) {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 || v >= n {
				bad = true
				break
			}
			res[v] = true
		}
		if !bad {
			return res
		}
		fmt.Fprintf(c.out, "%v: expect indices in [0, %d)\n", utils.ErrMalformedInput, n)
	}
	return nil
}

// promptAddrList reads a list of addresses restricted to the allowed set.
func (c *FailureController) promptAddrList(label string, allowed []int) []int {
	members := make(map[int]bool, len(allowed))
	for _, a := range allowed {
		members[a] = true
	}
	for retry := 0; retry < configs.MaxPromptRetry; retry++ {
		fmt.Fprint(c.out, label)
		line, ok := c.readLine()
		if !ok {
			return nil
		}
		res := make([]int, 0)
		seen := make(map[int]bool)
		bad := false
		for _, f := range strings.Fields(line) {
			v, err := strconv.Atoi(f)
			if err != nil || !members[v] || seen[v] {
				bad = true
				break
			}
			seen[v] = true
			res = append(res, v)
		}
		if !bad {
			return res
		}
		fmt.Fprintf(c.out, "%v: expect a subset of %v\n", utils.ErrMalformedInput, allowed)
	}
	return nil
}

// promptPermutation reads a permutation of 0..n-1, re-prompting until the
// input is one. An empty line keeps the script order and returns nil.
func (c *FailureController) promptPermutation(n int) []int {
	for retry := 0; retry < configs.MaxPromptRetry; retry++ {
		fmt.Fprintf(c.out, "Execution order (permutation of 0..%d, empty for script order): ", n-1)
		line, ok := c.readLine()
		if !ok {
			return nil
		}
		if line == "" {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) != n {
			fmt.Fprintf(c.out, "need exactly %d indices\n", n)
			continue
		}
		perm := make([]int, 0, n)
		seen := make(map[int]bool)
		bad := false
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 || v >= n || seen[v] {
				bad = true
				break
			}
			seen[v] = true
			perm = append(perm, v)
		}
		if !bad {
			return perm
		}
		fmt.Fprintf(c.out, "%v: not a permutation of 0..%d\n", utils.ErrMalformedInput, n-1)
	}
	return nil
}

func (c *FailureController) promptYN(label string) bool {
	for retry := 0; retry < configs.MaxPromptRetry; retry++ {
		fmt.Fprint(c.out, label)
		line, ok := c.readLine()
		if !ok {
			return false
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		}
		fmt.Fprintf(c.out, "answer y or n\n")
	}
	return false
}
