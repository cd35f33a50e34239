package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/CodMac/arch-depends/model"
)

// DefaultPath 默认缓存数据库位置，相对于分析根目录
const DefaultPath = ".arch-depends/cache.db"

// 旧版按内容哈希建键的表直接丢弃，条目会在下次分析时重建
const schema = `
DROP TABLE IF EXISTS snapshots;
CREATE TABLE IF NOT EXISTS file_snapshots (
	path       TEXT NOT NULL,
	language   TEXT NOT NULL,
	hash       TEXT NOT NULL,
	version    TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (path, language)
);
`

// SQLiteStore 持久化缓存，跨进程复用
type SQLiteStore struct {
	db   *sql.DB
	path string
	stat counters
}

// OpenSQLite 打开或创建缓存数据库
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// 单连接：:memory: 数据库每个连接是独立的
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (*model.FileSnapshot, error) {
	snap, err := s.get(ctx, key)
	s.stat.observe(err)
	return snap, err
}

func (s *SQLiteStore) get(ctx context.Context, key Key) (*model.FileSnapshot, error) {
	var hash, version string
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, version, data FROM file_snapshots WHERE path = ? AND language = ?`,
		key.Path, key.Language).Scan(&hash, &version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	// 文件内容已变
	if hash != key.Hash {
		return nil, ErrMiss
	}
	if version != key.Version {
		return nil, fmt.Errorf("%w: stored %s, want %s", ErrVersionMismatch, version, key.Version)
	}
	return Decode(data)
}

func (s *SQLiteStore) Put(ctx context.Context, key Key, snap *model.FileSnapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	return s.PutRaw(ctx, key, data)
}

// PutRaw 写入已编码的数据，也用于测试损坏条目
func (s *SQLiteStore) PutRaw(ctx context.Context, key Key, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO file_snapshots (path, language, hash, version, data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key.Path, key.Language, key.Hash, key.Version, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	s.stat.writes.Add(1)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM file_snapshots WHERE path = ? AND language = ?`, key.Path, key.Language)
	return err
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM file_snapshots`)
	return err
}

// Len 条目数
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_snapshots`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Metrics() Metrics { return s.stat.snapshot() }

// Path 数据库文件路径
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
