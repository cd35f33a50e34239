package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/cache"
	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
	_ "github.com/CodMac/arch-depends/x/golang"
	_ "github.com/CodMac/arch-depends/x/java"
)

var sources = map[string]string{
	"src/p/A.java": `package p;

public class A {
    public void foo() {}
}
`,
	"src/p/B.java": `package p;

public class B extends A {}
`,
	"src/p/C.java": `package p;

public class C extends B {
    public void bar() {
        foo();
        new A().foo();
    }
}
`,
	"tools/gen/main.go": `package main

func main() {}
`,
	"target/classes/Gen.java": "package p;\n\nclass Gen {}\n",
	"README.md":               "# not source\n",
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	return root
}

// skipPrefix 排除某个目录下的文件
type skipPrefix string

func (s skipPrefix) Match(_ core.Language, path string) bool {
	return !strings.HasPrefix(path, string(s))
}

func TestDiscover(t *testing.T) {
	root := writeTree(t, sources)

	files, err := NewFileProcessor(core.DefaultOptions(), nil, nil, 2, nil).Discover(root)
	require.NoError(t, err)
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"src/p/A.java", "src/p/B.java", "src/p/C.java", "tools/gen/main.go"}, paths)
	assert.Equal(t, core.LangGo, files[3].Language)

	files, err = NewFileProcessor(core.DefaultOptions(), nil, []core.Language{core.LangJava}, 2, nil).Discover(root)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	opts := core.DefaultOptions()
	opts.Filter = skipPrefix("src/p/C")
	files, err = NewFileProcessor(opts, nil, nil, 2, nil).Discover(root)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestRun_ResolvesAcrossFiles(t *testing.T) {
	root := writeTree(t, sources)
	res, err := NewFileProcessor(core.DefaultOptions(), nil, nil, 4, nil).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Report.Files)
	assert.Equal(t, []core.Language{core.LangGo, core.LangJava}, res.Report.Languages)
	assert.Empty(t, res.Report.Defects)
	assert.GreaterOrEqual(t, res.Report.Resolve.Passes, 1)

	id := func(kind model.ElementKind, qn string) model.EntityID {
		ids := res.Repo.LookupByQualifiedName(qn, kind)
		require.Len(t, ids, 1, qn)
		return ids[0]
	}
	bar, foo := id(model.Method, "p.C.bar()"), id(model.Method, "p.A.foo()")
	// 继承调用和显式接收者调用各计一次
	assert.Equal(t, 2.0, res.Graph.Weight(bar, foo, model.Call))
	assert.Equal(t, 1.0, res.Graph.Weight(bar, id(model.Type, "p.A"), model.Create))

	types := Shape(res.Graph, ViewOptions{FilterLevel: core.LevelBalanced, Granularity: model.Type})
	c, b, a := id(model.Type, "p.C"), id(model.Type, "p.B"), id(model.Type, "p.A")
	assert.Equal(t, 1.0, types.Weight(c, b, model.Extend))
	assert.Equal(t, 2.0, types.Weight(c, a, model.Call))

	calls := Shape(res.Graph, ViewOptions{FilterLevel: core.LevelRaw, Kinds: []model.DependencyType{model.Call}, Granularity: model.File})
	for _, e := range calls.Edges() {
		assert.Equal(t, []model.DependencyType{model.Call}, kindsOf(e))
	}
}

func kindsOf(e core.Edge) []model.DependencyType {
	var out []model.DependencyType
	for _, kw := range e.Weights {
		out = append(out, kw.Kind)
	}
	return out
}

func TestRun_CacheReplayIsEquivalent(t *testing.T) {
	root := writeTree(t, sources)
	ctx := context.Background()
	store, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	first, err := NewFileProcessor(core.DefaultOptions(), store, nil, 4, nil).Run(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, first.Report.Cache.Hits)
	assert.Equal(t, 4, first.Report.Cache.Misses)
	assert.Equal(t, 4, first.Report.Cache.Writes)

	second, err := NewFileProcessor(core.DefaultOptions(), store, nil, 4, nil).Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Report.Cache.Hits)
	assert.Zero(t, second.Report.Cache.Writes)

	assert.Equal(t, first.Graph.Canonical(), second.Graph.Canonical())
	assert.Equal(t, first.Repo.Len(), second.Repo.Len())
	assert.Equal(t, first.Report.Resolve.Resolved, second.Report.Resolve.Resolved)
}

func TestRun_SameContentAtTwoPaths(t *testing.T) {
	same := "class Same {}\n"
	root := writeTree(t, map[string]string{"a/Same.java": same, "b/Same.java": same})
	store, err := cache.NewMemoryStore(cache.DefaultMemoryConfig())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	first, err := NewFileProcessor(core.DefaultOptions(), store, nil, 2, nil).Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Report.Cache.Misses)
	assert.Equal(t, 2, first.Report.Cache.Writes)

	// 两个文件各自命中自己的条目
	second, err := NewFileProcessor(core.DefaultOptions(), store, nil, 2, nil).Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Report.Cache.Hits)
	assert.Zero(t, second.Report.Cache.Misses)
	assert.Len(t, second.Repo.LookupByQualifiedName("Same", model.Type), 2)
	assert.Equal(t, first.Graph.Canonical(), second.Graph.Canonical())

	// 修改其中一个文件只让它自己失效
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "Same.java"), []byte("class Same { int x; }\n"), 0644))
	third, err := NewFileProcessor(core.DefaultOptions(), store, nil, 2, nil).Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Report.Cache.Hits)
	assert.Equal(t, 1, third.Report.Cache.Misses)
}

func TestRun_CorruptEntryFallsBackToParse(t *testing.T) {
	root := writeTree(t, map[string]string{"p/A.java": sources["src/p/A.java"]})
	ctx := context.Background()
	store, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()

	src, err := os.ReadFile(filepath.Join(root, "p", "A.java"))
	require.NoError(t, err)
	fe, err := core.GetFrontEnd(core.LangJava)
	require.NoError(t, err)
	key := cache.Key{Path: "p/A.java", Hash: cache.ContentHash(src), Language: string(core.LangJava), Version: fe.Version()}
	require.NoError(t, store.PutRaw(ctx, key, []byte("ADSN\x01not zstd")))

	res, err := NewFileProcessor(core.DefaultOptions(), store, nil, 1, nil).Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Cache.Corrupt)
	assert.Equal(t, 1, res.Diag.Count(core.CacheCorruption))
	assert.Len(t, res.Repo.LookupByQualifiedName("p.A", model.Type), 1)

	// 重新解析后写回了有效条目
	_, err = store.Get(ctx, key)
	assert.NoError(t, err)
}

// brokenStore 所有条目都无法解码，删除也失败
type brokenStore struct{ cache.Nop }

func (brokenStore) Get(context.Context, cache.Key) (*model.FileSnapshot, error) {
	return nil, fmt.Errorf("%w: bad header", cache.ErrCorrupt)
}

func (brokenStore) Delete(context.Context, cache.Key) error {
	return errors.New("database is locked")
}

func TestRun_CacheDeleteFailureIsLogged(t *testing.T) {
	root := writeTree(t, map[string]string{"p/A.java": sources["src/p/A.java"]})
	logger, hook := logtest.NewNullLogger()

	res, err := NewFileProcessor(core.DefaultOptions(), brokenStore{}, nil, 1, logger).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Cache.Corrupt)
	assert.Len(t, res.Repo.LookupByQualifiedName("p.A", model.Type), 1)

	var logged *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "cache delete failed" {
			logged = e
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, logrus.WarnLevel, logged.Level)
	assert.Equal(t, "p/A.java", logged.Data["file"])
	assert.EqualError(t, logged.Data[logrus.ErrorKey].(error), "database is locked")
}

func TestRun_Cancelled(t *testing.T) {
	root := writeTree(t, sources)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileProcessor(core.DefaultOptions(), nil, nil, 2, nil).Run(ctx, root)
	require.Error(t, err)
	assert.True(t, core.IsCode(err, core.Cancelled))
	assert.ErrorIs(t, err, context.Canceled)
}
