package storage

import (
	"os"
	"path/filepath"
	"sync"

	"NS/configs"

	"github.com/tidwall/wal"
)

// LogManager writes the redo log for one node store. Entries are batched and
// flushed every LogBatchSize writes; the simulator's write barrier runs
// before the store mutation, so a batch only ever holds committed writes.
type LogManager struct {
	latch   sync.Mutex
	lsn     uint64
	logs    *wal.Log
	buffer  *wal.Batch
	pending int
	dir     string
}

type RedoLogEntry struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewLogManager(owner string) *LogManager {
	res := &LogManager{}
	if !configs.UseWAL {
		return res
	}
	res.dir = filepath.Join(configs.StorageDir, owner)
	log, err := wal.Open(res.dir, nil)
	configs.CheckError(err)
	res.logs = log
	res.lsn, err = log.LastIndex()
	configs.CheckError(err)
	res.buffer = &wal.Batch{}
	return res
}

func (c *LogManager) AppendUpdate(key string, value string) {
	c.append(RedoLogEntry{Op: "u", Key: key, Value: value})
}

func (c *LogManager) AppendDelete(key string) {
	c.append(RedoLogEntry{Op: "d", Key: key})
}

func (c *LogManager) append(e RedoLogEntry) {
	if !configs.UseWAL {
		return
	}
	c.latch.Lock()
	defer c.latch.Unlock()
	c.lsn++
	c.buffer.Write(c.lsn, []byte(configs.JToString(e)))
	c.pending++
	if c.pending >= configs.LogBatchSize {
		c.flushLocked()
	}
}

func (c *LogManager) flushLocked() {
	if c.pending == 0 {
		return
	}
	configs.CheckError(c.logs.WriteBatch(c.buffer))
	c.buffer.Clear()
	c.pending = 0
}

func (c *LogManager) Sync() {
	if !configs.UseWAL {
		return
	}
	c.latch.Lock()
	defer c.latch.Unlock()
	c.flushLocked()
}

// Reset discards the log so a restarted node starts from a fresh store.
func (c *LogManager) Reset() {
	if !configs.UseWAL {
		return
	}
	c.latch.Lock()
	defer c.latch.Unlock()
	configs.CheckError(c.logs.Close())
	configs.CheckError(os.RemoveAll(c.dir))
	log, err := wal.Open(c.dir, nil)
	configs.CheckError(err)
	c.logs = log
	c.lsn = 0
	c.buffer = &wal.Batch{}
	c.pending = 0
}

func (c *LogManager) Close() {
	if !configs.UseWAL {
		return
	}
	c.latch.Lock()
	defer c.latch.Unlock()
	c.flushLocked()
	configs.CheckError(c.logs.Close())
}
