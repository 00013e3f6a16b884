package storage

import (
	"testing"

	"NS/configs"

	"github.com/magiconair/properties/assert"
	"github.com/tidwall/wal"
)

func TestMemStoreBasicOps(t *testing.T) {
	s := NewKV("node1", configs.MemoryStorage)
	defer s.Close()

	_, ok := s.Read("a")
	assert.Equal(t, ok, false)

	assert.Equal(t, s.Update("a", "1"), true)
	v, ok := s.Read("a")
	assert.Equal(t, ok, true)
	assert.Equal(t, v, "1")

	assert.Equal(t, s.Update("a", "2"), true)
	v, _ = s.Read("a")
	assert.Equal(t, v, "2")

	assert.Equal(t, s.Delete("a"), true)
	assert.Equal(t, s.Delete("a"), false)
	_, ok = s.Read("a")
	assert.Equal(t, ok, false)
}

func TestMemStorePurge(t *testing.T) {
	s := NewKV("node2", configs.MemoryStorage)
	defer s.Close()
	s.Update("a", "1")
	s.Update("b", "2")
	s.Purge()
	_, ok := s.Read("a")
	assert.Equal(t, ok, false)
	_, ok = s.Read("b")
	assert.Equal(t, ok, false)
}

func TestRedoLogPersistsEntries(t *testing.T) {
	oldWAL, oldDir := configs.UseWAL, configs.StorageDir
	configs.UseWAL, configs.StorageDir = true, t.TempDir()
	defer func() { configs.UseWAL, configs.StorageDir = oldWAL, oldDir }()

	s := NewKV("node3", configs.MemoryStorage)
	for i := 0; i < configs.LogBatchSize+10; i++ {
		s.Update("k", "v")
	}
	s.Delete("k")
	s.Close()

	log, err := wal.Open(configs.StorageDir+"/node3", nil)
	assert.Equal(t, err, nil)
	defer log.Close()
	last, err := log.LastIndex()
	assert.Equal(t, err, nil)
	assert.Equal(t, last, uint64(configs.LogBatchSize+11))
}

func TestRedoLogResetDropsHistory(t *testing.T) {
	oldWAL, oldDir := configs.UseWAL, configs.StorageDir
	configs.UseWAL, configs.StorageDir = true, t.TempDir()
	defer func() { configs.UseWAL, configs.StorageDir = oldWAL, oldDir }()

	s := NewKV("node4", configs.MemoryStorage).(*MemStore)
	s.Update("k", "v")
	s.Purge()
	assert.Equal(t, s.logs.lsn, uint64(0))
	s.Update("k", "v")
	assert.Equal(t, s.logs.lsn, uint64(1))
	s.Close()
}
