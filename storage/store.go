package storage

import (
	"NS/configs"

	lock "github.com/viney-shih/go-lock"
)

// Store is the durable key-value surface a node program writes through. The
// program calls the simulator's write barrier right before Update and Delete;
// the store itself knows nothing about the simulation.
type Store interface {
	Read(key string) (string, bool)
	Update(key string, value string) bool
	Delete(key string) bool
	// Purge destroys all durable state, giving a restarted node a fresh store.
	Purge()
	Close()
}

// NewKV builds the store backend selected by storeType for one node.
func NewKV(owner string, storeType string) Store {
	switch storeType {
	case configs.PostgreSQL:
		return newSQLStore(owner)
	case configs.MongoDB:
		return newMongoStore(owner)
	default:
		return newMemStore(owner)
	}
}

// MemStore keeps the table in memory and writes a WAL redo log when enabled.
type MemStore struct {
	owner string
	latch lock.Mutex
	data  map[string]string
	logs  *LogManager
}

func newMemStore(owner string) *MemStore {
	return &MemStore{
		owner: owner,
		latch: lock.NewCASMutex(),
		data:  make(map[string]string),
		logs:  NewLogManager(owner),
	}
}

func (c *MemStore) Read(key string) (string, bool) {
	if !c.latch.TryLockWithTimeout(configs.StoreLatchWait) {
		return "", false
	}
	defer c.latch.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *MemStore) Update(key string, value string) bool {
	if !c.latch.TryLockWithTimeout(configs.StoreLatchWait) {
		return false
	}
	defer c.latch.Unlock()
	c.logs.AppendUpdate(key, value)
	c.data[key] = value
	return true
}

func (c *MemStore) Delete(key string) bool {
	if !c.latch.TryLockWithTimeout(configs.StoreLatchWait) {
		return false
	}
	defer c.latch.Unlock()
	if _, ok := c.data[key]; !ok {
		return false
	}
	c.logs.AppendDelete(key)
	delete(c.data, key)
	return true
}

func (c *MemStore) Purge() {
	c.latch.Lock()
	defer c.latch.Unlock()
	c.data = make(map[string]string)
	c.logs.Reset()
}

func (c *MemStore) Close() {
	c.logs.Close()
}
