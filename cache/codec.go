package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/CodMac/arch-depends/model"
)

// 快照编码格式：4 字节魔数 + 1 字节格式版本 + zstd 压缩的 JSON
var magic = []byte("ADSN")

const formatVersion byte = 1

var (
	// ErrMiss 缓存中没有该键
	ErrMiss = errors.New("cache miss")
	// ErrVersionMismatch 条目由其他版本的前端生成，视为未命中
	ErrVersionMismatch = errors.New("cache entry version mismatch")
	// ErrCorrupt 条目无法解码，视为未命中并报告
	ErrCorrupt = errors.New("cache entry corrupt")
)

// Key 缓存键：每个 (语言, 相对路径) 一个条目，内容哈希或前端版本不符即失效。
// 内容相同的两个文件各自占一个条目，文件修改后旧条目被覆盖。
type Key struct {
	Path     string
	Hash     string
	Language string
	Version  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s#%s@%s", k.Language, k.Path, k.Hash, k.Version)
}

// ContentHash 源码内容的 xxhash 十六进制表示
func ContentHash(src []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(src))
}

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Encode 序列化快照
func Encode(snap *model.FileSnapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	out := make([]byte, 0, len(raw)/3+len(magic)+1)
	out = append(out, magic...)
	out = append(out, formatVersion)
	return encoder.EncodeAll(raw, out), nil
}

// Decode 反序列化快照；任何格式问题都包装为 ErrCorrupt
func Decode(data []byte) (*model.FileSnapshot, error) {
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := data[len(magic)]; v != formatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrVersionMismatch, v)
	}
	raw, err := decoder.DecodeAll(data[len(magic)+1:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var snap model.FileSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &snap, nil
}
