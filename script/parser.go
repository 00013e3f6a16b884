package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"NS/configs"
	"NS/sim"
	"NS/utils"
)

// Parse reads a command script into the flat event sequence the tick loop
// consumes. One event per line; TimeAdvance lines are the tick boundaries:
//
//	time [n]               advance n ticks (default 1)
//	echo <text...>         emit text on the output stream
//	exit                   terminate the simulation
//	start <addr>           boot or restart a node
//	fail <addr>            crash a node (deprecated)
//	command <addr> <text>  deliver a command string to a node
//	# comment
func Parse(path string) ([]sim.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseReader(f)
}

func ParseReader(r io.Reader) ([]sim.Event, error) {
	events := make([]sim.Event, 0)
	scanner := bufio.NewScanner(r)
	ln := 0
	for scanner.Scan() {
		ln++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, configs.CommentToken) {
			continue
		}
		evs, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", ln, err)
		}
		events = append(events, evs...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ParseLine parses one script line into its events. A "time n" line expands
// into n TimeAdvance boundaries.
func ParseLine(line string) ([]sim.Event, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case configs.TimeToken:
		n := 1
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%w: bad tick count %q", utils.ErrMalformedInput, fields[1])
			}
			n = v
		}
		evs := make([]sim.Event, n)
		for i := range evs {
			evs[i] = sim.TimeAdvanceEvent{}
		}
		return evs, nil
	case configs.EchoToken:
		return []sim.Event{sim.EchoEvent{Msg: strings.Join(fields[1:], " ")}}, nil
	case configs.ExitToken:
		return []sim.Event{sim.ExitEvent{}}, nil
	case configs.StartToken:
		addr, err := parseAddr(fields)
		if err != nil {
			return nil, err
		}
		return []sim.Event{sim.StartEvent{Addr: addr}}, nil
	case configs.FailToken:
		configs.Warn(false, "the fail event is deprecated, prefer the crash failure level")
		addr, err := parseAddr(fields)
		if err != nil {
			return nil, err
		}
		return []sim.Event{sim.FailureEvent{Addr: addr}}, nil
	case configs.CommandToken:
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: command needs an address and a string", utils.ErrMalformedInput)
		}
		addr, err := parseAddr(fields)
		if err != nil {
			return nil, err
		}
		return []sim.Event{sim.CommandEvent{Addr: addr, Cmd: strings.Join(fields[2:], " ")}}, nil
	}
	return nil, fmt.Errorf("%w: unknown event %q", utils.ErrMalformedInput, fields[0])
}

func parseAddr(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: %s needs an address", utils.ErrMalformedInput, fields[0])
	}
	addr, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad address %q", utils.ErrMalformedInput, fields[1])
	}
	return addr, nil
}
