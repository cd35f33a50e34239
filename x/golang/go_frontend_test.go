package golang_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
	"github.com/CodMac/arch-depends/processor"
	"github.com/CodMac/arch-depends/x/golang"
)

var storeSources = map[string]string{
	"store/user.go": `package store

type Base struct {
	ID int
}

type User struct {
	Base
	Name string
}
`,
	"store/repo.go": `package store

import "fmt"

type Repo struct {
	users map[int]*User
}

func NewRepo() *Repo {
	return &Repo{users: map[int]*User{}}
}

func (r *Repo) Find(id int) *User {
	u := r.users[id]
	fmt.Println(u)
	return u
}

func (r *Repo) Add(name string) {
	u := &User{Name: name}
	r.users[u.ID] = u
}
`,
}

func analyze(t *testing.T, files map[string]string) *processor.Result {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	res, err := processor.NewFileProcessor(core.DefaultOptions(), nil, []core.Language{core.LangGo}, 2, nil).
		Run(context.Background(), root)
	require.NoError(t, err)
	return res
}

func TestGoFrontEnd_Declarations(t *testing.T) {
	res := analyze(t, storeSources)
	id := func(kind model.ElementKind, qn string) model.EntityID {
		ids := res.Repo.LookupByQualifiedName(qn, kind)
		require.Len(t, ids, 1, "%s %s", kind, qn)
		return ids[0]
	}

	id(model.Namespace, "store")
	file := id(model.File, "store/repo.go")
	repo := id(model.Type, "store.Repo")
	assert.Equal(t, model.Struct, res.Repo.Get(repo).TypeInfo.Flavor)
	id(model.Field, "store.User.Name")
	id(model.Method, "store.NewRepo")

	// 方法归属文件，按接收者挂到类型上
	find := id(model.Method, "store.Repo.Find")
	assert.Equal(t, file, res.Repo.Get(find).Owner)
	assert.Contains(t, res.Repo.Members(repo, model.Method), find)
	id(model.Parameter, "store.Repo.Find.r")
	id(model.Variable, "store.Repo.Add.u")
	assert.Contains(t, res.Repo.Get(find).Modifiers, "exported")
}

func TestGoFrontEnd_Relations(t *testing.T) {
	res := analyze(t, storeSources)
	g := res.Graph
	id := func(kind model.ElementKind, qn string) model.EntityID {
		ids := res.Repo.LookupByQualifiedName(qn, kind)
		require.Len(t, ids, 1, "%s %s", kind, qn)
		return ids[0]
	}
	repo, user, base := id(model.Type, "store.Repo"), id(model.Type, "store.User"), id(model.Type, "store.Base")

	assert.Equal(t, 1.0, g.Weight(user, base, model.Extend))

	find := id(model.Method, "store.Repo.Find")
	assert.Equal(t, 1.0, g.Weight(find, repo, model.Receiver))
	assert.Equal(t, 1.0, g.Weight(find, user, model.Return))
	assert.Equal(t, 1.0, g.Weight(find, id(model.Field, "store.Repo.users"), model.Use))

	add := id(model.Method, "store.Repo.Add")
	assert.Equal(t, 1.0, g.Weight(add, user, model.Create))
	assert.Equal(t, 1.0, g.Weight(add, id(model.Field, "store.User.Name"), model.Assign))
	// 嵌入字段的成员
	assert.Equal(t, 1.0, g.Weight(add, id(model.Field, "store.Base.ID"), model.Use))

	newRepo := id(model.Method, "store.NewRepo")
	assert.Equal(t, 1.0, g.Weight(newRepo, repo, model.Create))
	assert.Equal(t, 1.0, g.Weight(newRepo, id(model.Field, "store.Repo.users"), model.Assign))

	types := g.Lift(model.Type, false)
	assert.Equal(t, 1.0, types.Weight(repo, user, model.Create))
	assert.Equal(t, 1.0, types.Weight(repo, base, model.Use))
	assert.Zero(t, res.Report.ParseFailures)
}

func TestPackageName(t *testing.T) {
	for in, want := range map[string]string{
		"fmt":                         "fmt",
		"github.com/spf13/cobra":      "cobra",
		"github.com/go-chi/chi/v5":    "chi",
		"gopkg.in/yaml.v3":            "yaml",
		"golang.org/x/sync/errgroup/": "errgroup",
	} {
		assert.Equal(t, want, golang.PackageName(in), in)
	}
}

func TestGoFrontEnd_Version(t *testing.T) {
	fe, err := core.GetFrontEnd(core.LangGo)
	require.NoError(t, err)
	assert.Equal(t, golang.FrontEndVersion, fe.Version())

	lang, ok := core.DetectLanguage("cmd/main.go")
	assert.True(t, ok)
	assert.Equal(t, core.LangGo, lang)
}
