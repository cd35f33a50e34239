package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/model"
)

func sampleSnapshot(path string) *model.FileSnapshot {
	return &model.FileSnapshot{
		FilePath: path,
		Language: "java",
		Package:  "p",
		Imports:  []model.ImportEntry{{Path: "q.Repo", Alias: "Repo"}},
		Entities: []model.EntityRecord{
			{Kind: model.File, Name: "A.java", QualifiedName: path, Owner: -1, Location: &model.Location{FilePath: path}},
			{Kind: model.Type, Name: "A", QualifiedName: "p.A", Owner: 0, Location: &model.Location{FilePath: path, StartLine: 3}},
		},
		References: []model.ReferenceRecord{
			{Source: 1, Kind: model.UseType, Ordinal: 0, Location: &model.Location{FilePath: path, StartLine: 4}},
		},
	}
}

func assertSameSnapshot(t *testing.T, want, got *model.FileSnapshot) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.FilePath, got.FilePath)
	assert.Equal(t, want.Package, got.Package)
	assert.Equal(t, want.Imports, got.Imports)
	require.Len(t, got.Entities, len(want.Entities))
	for i := range want.Entities {
		assert.Equal(t, want.Entities[i].QualifiedName, got.Entities[i].QualifiedName)
		assert.Equal(t, want.Entities[i].Owner, got.Entities[i].Owner)
		assert.Equal(t, want.Entities[i].Location, got.Entities[i].Location)
	}
	require.Len(t, got.References, len(want.References))
	assert.Equal(t, want.References[0].Kind, got.References[0].Kind)
	assert.Equal(t, want.References[0].Source, got.References[0].Source)
}

func TestCodec_RoundTrip(t *testing.T) {
	snap := sampleSnapshot("p/A.java")
	data, err := Encode(snap)
	require.NoError(t, err)
	assert.Equal(t, "ADSN", string(data[:4]))

	got, err := Decode(data)
	require.NoError(t, err)
	assertSameSnapshot(t, snap, got)
}

func TestCodec_Rejects(t *testing.T) {
	_, err := Decode([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorrupt)

	data, err := Encode(sampleSnapshot("a"))
	require.NoError(t, err)

	future := append([]byte(nil), data...)
	future[4] = formatVersion + 1
	_, err = Decode(future)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	truncated := data[:len(data)-3]
	_, err = Decode(truncated)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.True(t, IsMiss(err))
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("class A {}"))
	assert.Len(t, a, 16)
	assert.Equal(t, a, ContentHash([]byte("class A {}")))
	assert.NotEqual(t, a, ContentHash([]byte("class B {}")))

	k := Key{Path: "p/A.java", Hash: a, Language: "java", Version: "v1"}
	assert.Equal(t, "java:p/A.java#"+a+"@v1", k.String())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	key := Key{Path: "p/A.java", Hash: ContentHash([]byte("x")), Language: "java", Version: "v1"}
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	snap := sampleSnapshot("p/A.java")
	require.NoError(t, s.Put(ctx, key, snap))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assertSameSnapshot(t, snap, got)

	// 前端版本变化后旧条目失效
	_, err = s.Get(ctx, Key{Path: key.Path, Hash: key.Hash, Language: "java", Version: "v2"})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	broken := Key{Path: "p/B.java", Hash: "deadbeef", Language: "java", Version: "v1"}
	require.NoError(t, s.PutRaw(ctx, broken, []byte("ADSN\x01garbage")))
	_, err = s.Get(ctx, broken)
	assert.ErrorIs(t, err, ErrCorrupt)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m := s.Metrics()
	assert.Equal(t, int64(1), m.Hits)
	assert.Equal(t, int64(3), m.Misses)
	assert.Equal(t, int64(1), m.Corrupt)
	assert.Equal(t, int64(2), m.Writes)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
	require.NoError(t, s.Clear(ctx))
	n, err = s.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// 每个路径一个条目：内容相同的文件互不覆盖，内容变化后旧条目失效并被替换
func TestStores_EntryPerPath(t *testing.T) {
	ctx := context.Background()
	sqliteStore, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	memStore, err := NewMemoryStore(DefaultMemoryConfig())
	require.NoError(t, err)

	stores := map[string]Store{"sqlite": sqliteStore, "memory": memStore}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			h := ContentHash([]byte("class Same {}"))
			a := Key{Path: "a/Same.java", Hash: h, Language: "java", Version: "v1"}
			b := Key{Path: "b/Same.java", Hash: h, Language: "java", Version: "v1"}
			require.NoError(t, s.Put(ctx, a, sampleSnapshot(a.Path)))
			require.NoError(t, s.Put(ctx, b, sampleSnapshot(b.Path)))

			got, err := s.Get(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, "a/Same.java", got.FilePath)
			got, err = s.Get(ctx, b)
			require.NoError(t, err)
			assert.Equal(t, "b/Same.java", got.FilePath)

			changed := a
			changed.Hash = ContentHash([]byte("class Same { int x; }"))
			_, err = s.Get(ctx, changed)
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, s.Put(ctx, changed, sampleSnapshot(a.Path)))
			_, err = s.Get(ctx, changed)
			assert.NoError(t, err)
			_, err = s.Get(ctx, a)
			assert.ErrorIs(t, err, ErrMiss)
		})
	}

	// 修改后的文件覆盖原条目而不是新增
	reopened, err := OpenSQLite(sqliteStore.Path())
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	key := Key{Path: "main.go", Hash: "h", Language: "go", Version: "v1"}

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, key, sampleSnapshot("main.go")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "main.go", got.FilePath)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemoryStore(DefaultMemoryConfig())
	require.NoError(t, err)
	defer m.Close()

	key := Key{Path: "A.java", Hash: "h", Language: "java", Version: "v1"}
	_, err = m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Put(ctx, key, sampleSnapshot("A.java")))
	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "A.java", got.FilePath)

	_, err = m.Get(ctx, Key{Path: "A.java", Hash: "h", Language: "java", Version: "v2"})
	assert.ErrorIs(t, err, ErrVersionMismatch)

	require.NoError(t, m.Clear(ctx))
	_, err = m.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	met := m.Metrics()
	assert.Equal(t, int64(1), met.Hits)
	assert.Equal(t, int64(3), met.Misses)
}

func TestTieredStore_BackfillsHotTier(t *testing.T) {
	ctx := context.Background()
	cold, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	key := Key{Path: "A.java", Hash: "h", Language: "java", Version: "v1"}
	require.NoError(t, cold.Put(ctx, key, sampleSnapshot("A.java")))

	hot, err := NewMemoryStore(DefaultMemoryConfig())
	require.NoError(t, err)
	ts := NewTieredStore(hot, cold)
	defer ts.Close()

	_, err = ts.Get(ctx, key)
	require.NoError(t, err)
	_, err = ts.Get(ctx, key)
	require.NoError(t, err)

	h, c := ts.Metrics()
	assert.Equal(t, int64(1), h.Hits)
	assert.Equal(t, int64(1), h.Misses)
	assert.Equal(t, int64(1), c.Hits)

	_, err = ts.Get(ctx, Key{Path: "A.java", Hash: "other", Language: "java", Version: "v1"})
	assert.True(t, IsMiss(err))

	require.NoError(t, ts.Clear(ctx))
	n, err := cold.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	require.NoError(t, s.Put(context.Background(), Key{}, sampleSnapshot("a")))
	_, err := s.Get(context.Background(), Key{})
	assert.ErrorIs(t, err, ErrMiss)
}
