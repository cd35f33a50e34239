package cache

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/CodMac/arch-depends/model"
)

// Store 按内容缓存单文件收集结果
type Store interface {
	// Get 返回快照；未命中返回 ErrMiss，版本不符或损坏分别返回 ErrVersionMismatch / ErrCorrupt
	Get(ctx context.Context, key Key) (*model.FileSnapshot, error)
	Put(ctx context.Context, key Key, snap *model.FileSnapshot) error
	Delete(ctx context.Context, key Key) error
	Clear(ctx context.Context) error
	Close() error
}

// IsMiss 所有应当退回到重新解析的错误
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss) || errors.Is(err, ErrVersionMismatch) || errors.Is(err, ErrCorrupt)
}

// Metrics 命中统计
type Metrics struct {
	Hits    int64 `json:"hits" yaml:"hits"`
	Misses  int64 `json:"misses" yaml:"misses"`
	Corrupt int64 `json:"corrupt" yaml:"corrupt"`
	Writes  int64 `json:"writes" yaml:"writes"`
}

type counters struct {
	hits, misses, corrupt, writes atomic.Int64
}

func (c *counters) observe(err error) {
	switch {
	case err == nil:
		c.hits.Add(1)
	case errors.Is(err, ErrCorrupt):
		c.corrupt.Add(1)
		c.misses.Add(1)
	default:
		c.misses.Add(1)
	}
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Corrupt: c.corrupt.Load(),
		Writes:  c.writes.Load(),
	}
}

// Nop 不缓存任何内容
type Nop struct{}

func (Nop) Get(context.Context, Key) (*model.FileSnapshot, error) { return nil, ErrMiss }
func (Nop) Put(context.Context, Key, *model.FileSnapshot) error   { return nil }
func (Nop) Delete(context.Context, Key) error                     { return nil }
func (Nop) Clear(context.Context) error                           { return nil }
func (Nop) Close() error                                          { return nil }
