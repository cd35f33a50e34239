package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/CodMac/arch-depends/model"
)

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 64 << 20 // 64MB 编码后数据
	defaultBufferItems = 64
)

// MemoryConfig 内存缓存配置
type MemoryConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{NumCounters: defaultNumCounters, MaxCost: defaultMaxCost, BufferItems: defaultBufferItems}
}

type memoryEntry struct {
	hash    string
	version string
	data    []byte
}

// MemoryStore 进程内缓存，保存编码后的数据，解码路径与持久化缓存一致
type MemoryStore struct {
	cache *ristretto.Cache
	stat  counters
}

func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	if cfg.NumCounters == 0 {
		cfg.NumCounters = defaultNumCounters
	}
	if cfg.MaxCost == 0 {
		cfg.MaxCost = defaultMaxCost
	}
	if cfg.BufferItems == 0 {
		cfg.BufferItems = defaultBufferItems
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ristretto cache: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

func memoryKey(k Key) string { return k.Language + ":" + k.Path }

func (m *MemoryStore) Get(_ context.Context, key Key) (*model.FileSnapshot, error) {
	snap, err := m.get(key)
	m.stat.observe(err)
	return snap, err
}

func (m *MemoryStore) get(key Key) (*model.FileSnapshot, error) {
	v, ok := m.cache.Get(memoryKey(key))
	if !ok {
		return nil, ErrMiss
	}
	entry, ok := v.(*memoryEntry)
	if !ok {
		return nil, ErrCorrupt
	}
	if entry.hash != key.Hash {
		return nil, ErrMiss
	}
	if entry.version != key.Version {
		return nil, ErrVersionMismatch
	}
	return Decode(entry.data)
}

func (m *MemoryStore) Put(_ context.Context, key Key, snap *model.FileSnapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	m.putRaw(key, data)
	return nil
}

func (m *MemoryStore) putRaw(key Key, data []byte) {
	m.cache.Set(memoryKey(key), &memoryEntry{hash: key.Hash, version: key.Version, data: data}, int64(len(data)))
	// Set 是异步的，等待写入生效保证紧接着的 Get 可见
	m.cache.Wait()
	m.stat.writes.Add(1)
}

func (m *MemoryStore) Delete(_ context.Context, key Key) error {
	m.cache.Del(memoryKey(key))
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.cache.Clear()
	return nil
}

func (m *MemoryStore) Metrics() Metrics { return m.stat.snapshot() }

func (m *MemoryStore) Close() error {
	m.cache.Close()
	return nil
}
