package script

import (
	"fmt"
	"io"

	"NS/configs"
	"NS/sim"
)

// PromptSource reads events from a line-oriented prompt. A blank line and the
// time token both end the tick; malformed lines are reported and re-read.
type PromptSource struct {
	in  *sim.LineReader
	out io.Writer
}

func NewPromptSource(in *sim.LineReader, out io.Writer) *PromptSource {
	return &PromptSource{in: in, out: out}
}

func (p *PromptSource) NextTick(now int) ([]sim.Event, bool) {
	evs := make([]sim.Event, 0)
	fmt.Fprintf(p.out, "Tick %d. Enter events, blank line or %q to advance time:\n", now, configs.TimeToken)
	for {
		fmt.Fprint(p.out, "> ")
		line, ok := p.in.ReadLine()
		if !ok {
			// closed input behaves like an exit event.
			return append(evs, sim.ExitEvent{}), true
		}
		if line == "" {
			return evs, false
		}
		parsed, err := ParseLine(line)
		if err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
			continue
		}
		if _, boundary := parsed[0].(sim.TimeAdvanceEvent); boundary {
			return evs, false
		}
		evs = append(evs, parsed...)
		if _, isExit := parsed[len(parsed)-1].(sim.ExitEvent); isExit {
			return evs, true
		}
	}
}

func (p *PromptSource) Interactive() bool {
	return true
}
