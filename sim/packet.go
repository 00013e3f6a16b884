package sim

import (
	"fmt"

	"NS/configs"
)

// Packet is an immutable in-flight message. Src and Dest are always concrete
// addresses; the broadcast sentinel is expanded before a packet is enqueued.
type Packet struct {
	Src      int
	Dest     int
	Protocol int
	Payload  []byte
}

func (p Packet) String() string {
	return fmt.Sprintf("%d->%d proto=%d payload=%q", p.Src, p.Dest, p.Protocol, string(p.Payload))
}

// ValidAddress reports whether addr can identify a node.
func ValidAddress(addr int) bool {
	return addr >= 0 && addr < configs.MaxAddress
}
