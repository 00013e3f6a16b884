package sim

import (
	"testing"

	"NS/configs"
	"NS/utils"

	"github.com/stretchr/testify/assert"
)

func TestFailNodeBookkeeping(t *testing.T) {
	setRates(0, 0, 0, 0)
	defer recRates()
	s, fleet, _ := testSim(configs.LvlNothing, 1, "")
	s.startNode(1)
	s.startNode(2)
	s.setTimeout(1, 5, func() {})
	s.setTimeout(2, 5, func() {})
	assert.Equal(t, 2, s.WaitingTimeouts())

	sig := s.failNode(1)
	assert.Nil(t, sig)
	assert.True(t, s.IsCrashed(1))
	assert.False(t, s.IsLive(1))
	assert.Equal(t, 1, fleet.current(1).stops)
	assert.Equal(t, 1, s.WaitingTimeouts())
	assert.Equal(t, 2, s.waiting[0].Owner)

	// failing a node that is not live is a no-op.
	assert.Nil(t, s.failNode(1))
	assert.Nil(t, s.failNode(9))
	assert.Equal(t, 1, s.Stats().Crashes)
}

func TestSendFromCrashedIsSilent(t *testing.T) {
	setRates(0, 0, 0, 0)
	defer recRates()
	s, _, _ := testSim(configs.LvlNothing, 1, "")
	s.startNode(1)
	s.startNode(2)
	s.failNode(1)
	assert.ErrorIs(t, s.send(1, 2, 7, []byte("x")), utils.ErrNotLive)
	assert.Equal(t, 0, s.TransitCount())
}

func TestBroadcastSkipsSenderAndCopiesPayload(t *testing.T) {
	setRates(0, 0, 0, 0)
	defer recRates()
	s, _, _ := testSim(configs.LvlNothing, 1, "")
	for a := 1; a <= 4; a++ {
		s.startNode(a)
	}
	payload := []byte("shared")
	assert.Nil(t, s.send(1, configs.Broadcast, 7, payload))
	assert.Equal(t, 3, s.TransitCount())
	dests := make([]int, 0)
	for _, p := range s.transit {
		assert.Equal(t, 1, p.Src)
		assert.NotEqual(t, configs.Broadcast, p.Dest)
		dests = append(dests, p.Dest)
	}
	assert.Equal(t, []int{2, 3, 4}, dests)

	// enqueued packets do not observe later buffer reuse.
	payload[0] = 'X'
	assert.Equal(t, "shared", string(s.transit[0].Payload))
}

func TestRuntimeValidation(t *testing.T) {
	setRates(0, 0, 0, 0)
	defer recRates()
	s, _, _ := testSim(configs.LvlNothing, 1, "")
	s.startNode(1)
	rt := &runtimeHandle{s: s, addr: 1}

	assert.Error(t, rt.Send(999, 7, []byte("x")))
	assert.Error(t, rt.Send(-2, 7, []byte("x")))
	assert.Error(t, rt.Send(2, 7, make([]byte, configs.MaxPayload+1)))
	assert.Equal(t, 0, s.TransitCount())

	assert.Nil(t, rt.Send(2, 7, []byte("x")))
	assert.Equal(t, 1, s.TransitCount())
	assert.Equal(t, 1, rt.Addr())
	assert.Equal(t, 0, rt.Now())
}

func TestTimeoutDeltaClamped(t *testing.T) {
	setRates(0, 0, 0, 0)
	defer recRates()
	s, _, _ := testSim(configs.LvlNothing, 1, "")
	s.startNode(1)
	s.setTimeout(1, 0, func() {})
	assert.Equal(t, s.clock+1, s.waiting[0].FireTick)
}

func TestStartNodeAfterFactoryErrorCanRecover(t *testing.T) {
	setRates(0, 0, 0, 0)
	defer recRates()
	s, fleet, _ := testSim(configs.LvlNothing, 1, "")
	fleet.failNext = true
	s.startNode(1)
	assert.True(t, s.IsCrashed(1))

	s.startNode(1)
	assert.True(t, s.IsLive(1))
	// the failed construction left the address in the crashed set, so the
	// successful one counts as a restart, not a fresh creation.
	assert.Equal(t, 0, s.NodesCreated())
}
