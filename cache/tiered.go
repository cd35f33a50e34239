package cache

import (
	"context"
	"errors"

	"github.com/CodMac/arch-depends/model"
)

// TieredStore 两级缓存：L1 ristretto，L2 SQLite。L2 命中后回填 L1。
type TieredStore struct {
	hot  *MemoryStore
	cold Store
}

func NewTieredStore(hot *MemoryStore, cold Store) *TieredStore {
	return &TieredStore{hot: hot, cold: cold}
}

func (t *TieredStore) Get(ctx context.Context, key Key) (*model.FileSnapshot, error) {
	snap, err := t.hot.Get(ctx, key)
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, ErrCorrupt) {
		_ = t.hot.Delete(ctx, key)
	}
	snap, err = t.cold.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = t.hot.Put(ctx, key, snap)
	return snap, nil
}

func (t *TieredStore) Put(ctx context.Context, key Key, snap *model.FileSnapshot) error {
	if err := t.cold.Put(ctx, key, snap); err != nil {
		return err
	}
	return t.hot.Put(ctx, key, snap)
}

func (t *TieredStore) Delete(ctx context.Context, key Key) error {
	_ = t.hot.Delete(ctx, key)
	return t.cold.Delete(ctx, key)
}

func (t *TieredStore) Clear(ctx context.Context) error {
	_ = t.hot.Clear(ctx)
	return t.cold.Clear(ctx)
}

// Metrics 以 L1 的命中为准，L1 未命中时看 L2
func (t *TieredStore) Metrics() (hot, cold Metrics) {
	hot = t.hot.Metrics()
	if m, ok := t.cold.(interface{ Metrics() Metrics }); ok {
		cold = m.Metrics()
	}
	return hot, cold
}

func (t *TieredStore) Close() error {
	_ = t.hot.Close()
	return t.cold.Close()
}
