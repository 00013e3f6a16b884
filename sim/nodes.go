package sim

import (
	"sort"

	"NS/node"

	set "github.com/deckarep/golang-set"
)

// nodeTable tracks every address the run has touched. An address is in
// exactly one of: the live map, the crashed set, or neither (absent).
type nodeTable struct {
	live    map[int]node.Program
	crashed set.Set
	created int
}

func newNodeTable() *nodeTable {
	return &nodeTable{
		live:    make(map[int]node.Program),
		crashed: set.NewSet(),
	}
}

func (t *nodeTable) isLive(addr int) bool {
	_, ok := t.live[addr]
	return ok
}

func (t *nodeTable) isCrashed(addr int) bool {
	return t.crashed.Contains(addr)
}

func (t *nodeTable) get(addr int) (node.Program, bool) {
	p, ok := t.live[addr]
	return p, ok
}

func (t *nodeTable) setLive(addr int, p node.Program) {
	t.live[addr] = p
	t.crashed.Remove(addr)
}

// markCrashed moves a live address into the crashed set.
func (t *nodeTable) markCrashed(addr int) {
	delete(t.live, addr)
	t.crashed.Add(addr)
}

// ensureCrashed forces an address into the crashed set from any state.
func (t *nodeTable) ensureCrashed(addr int) {
	delete(t.live, addr)
	t.crashed.Add(addr)
}

// clearCrashed removes addr from the crashed set, reporting whether it was
// there. The caller re-inserts it as live or counts a fresh creation.
func (t *nodeTable) clearCrashed(addr int) bool {
	if t.crashed.Contains(addr) {
		t.crashed.Remove(addr)
		return true
	}
	return false
}

func (t *nodeTable) liveAddrs() []int {
	res := make([]int, 0, len(t.live))
	for a := range t.live {
		res = append(res, a)
	}
	sort.Ints(res)
	return res
}

func (t *nodeTable) crashedAddrs() []int {
	res := make([]int, 0, t.crashed.Cardinality())
	for a := range t.crashed.Iter() {
		res = append(res, a.(int))
	}
	sort.Ints(res)
	return res
}
