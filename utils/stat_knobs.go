package utils

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Stat collects per-run simulator counters.
type Stat struct {
	mu        *sync.Mutex
	beginTime time.Time
	endTime   time.Time

	Ticks     int
	Delivered int
	Dropped   int
	Delayed   int
	Crashes   int
	Recovers  int
	Timeouts  int
	Canceled  int
	Commands  int
	Sent      int
}

func NewStat() *Stat {
	res := &Stat{
		mu:        &sync.Mutex{},
		beginTime: time.Now(),
		endTime:   time.Now(),
	}
	return res
}

func (st *Stat) Add(field *int, n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	*field += n
	st.endTime = time.Now()
}

func (st *Stat) Log() {
	st.mu.Lock()
	defer st.mu.Unlock()
	msg := "ticks:" + strconv.Itoa(st.Ticks) + ";"
	msg += "sent:" + strconv.Itoa(st.Sent) + ";"
	msg += "delivered:" + strconv.Itoa(st.Delivered) + ";"
	msg += "dropped:" + strconv.Itoa(st.Dropped) + ";"
	msg += "delayed:" + strconv.Itoa(st.Delayed) + ";"
	msg += "crashes:" + strconv.Itoa(st.Crashes) + ";"
	msg += "recovers:" + strconv.Itoa(st.Recovers) + ";"
	msg += "timeouts:" + strconv.Itoa(st.Timeouts) + ";"
	msg += "canceled_timeouts:" + strconv.Itoa(st.Canceled) + ";"
	msg += "commands:" + strconv.Itoa(st.Commands) + ";"
	msg += "elapsed:" + st.endTime.Sub(st.beginTime).String() + ";"
	fmt.Println(msg)
}

func (st *Stat) Clear() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Ticks, st.Delivered, st.Dropped, st.Delayed = 0, 0, 0, 0
	st.Crashes, st.Recovers, st.Timeouts, st.Canceled = 0, 0, 0, 0
	st.Commands, st.Sent = 0, 0
	st.beginTime = time.Now()
	st.endTime = st.beginTime
}
