package java_test

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
	"github.com/CodMac/arch-depends/x/java"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	return root
}

func analyze(t *testing.T, files map[string]string) *processor.Result {
	t.Helper()
	root := writeSources(t, files)
	res, err := processor.NewFileProcessor(core.DefaultOptions(), nil, []core.Language{core.LangJava}, 2, nil).
		Run(context.Background(), root)
	require.NoError(t, err)
	return res
}

func lookup(t *testing.T, res *processor.Result, kind model.ElementKind, qn string) model.EntityID {
	t.Helper()
	ids := res.Repo.LookupByQualifiedName(qn, kind)
	require.Len(t, ids, 1, "%s %s", kind, qn)
	return ids[0]
}

var userService = map[string]string{
	"p/Base.java": `package p;

public abstract class Base {
    protected long id;
}
`,
	"p/User.java": `package p;

public class User extends Base {
    public String name;
}
`,
	"p/Repo.java": `package p;

public class Repo {
    public User load(long id) {
        return new User();
    }

    public User load(String name, int limit) {
        return null;
    }
}
`,
	"p/Greeter.java": `package p;

public interface Greeter {
    String greet(User u);
}
`,
	"p/Service.java": `package p;

import java.util.List;

public class Service implements Greeter {
    private Repo repo;

    public String find(long id) {
        User u = repo.load(id);
        return u.name;
    }

    @Override
    public String greet(User u) {
        u.id = 0;
        return "hi " + u.name;
    }
}
`,
}

func TestJavaFrontEnd_Declarations(t *testing.T) {
	res := analyze(t, userService)

	lookup(t, res, model.Namespace, "p")
	lookup(t, res, model.File, "p/Service.java")
	svc := lookup(t, res, model.Type, "p.Service")
	find := lookup(t, res, model.Method, "p.Service.find(long)")
	assert.Equal(t, svc, res.Repo.Get(find).Owner)
	lookup(t, res, model.Method, "p.Repo.load(String,int)")
	lookup(t, res, model.Field, "p.Service.repo")
	lookup(t, res, model.Parameter, "p.Service.find(long).id")
	lookup(t, res, model.Variable, "p.Service.find(long).u")

	greeter := res.Repo.Get(lookup(t, res, model.Type, "p.Greeter"))
	assert.Equal(t, model.Interface, greeter.TypeInfo.Flavor)
	assert.Contains(t, res.Repo.Get(find).Modifiers, "public")
}

func TestJavaFrontEnd_Relations(t *testing.T) {
	res := analyze(t, userService)
	g := res.Graph
	id := func(kind model.ElementKind, qn string) model.EntityID { return lookup(t, res, kind, qn) }

	user, base := id(model.Type, "p.User"), id(model.Type, "p.Base")
	assert.Equal(t, 1.0, g.Weight(user, base, model.Extend))
	assert.Equal(t, 1.0, g.Weight(id(model.Type, "p.Service"), id(model.Type, "p.Greeter"), model.Implement))

	find := id(model.Method, "p.Service.find(long)")
	// 重载按参数个数区分
	assert.Equal(t, 1.0, g.Weight(find, id(model.Method, "p.Repo.load(long)"), model.Call))
	assert.Zero(t, g.Weight(find, id(model.Method, "p.Repo.load(String,int)"), model.Call))
	assert.Equal(t, 1.0, g.Weight(find, id(model.Field, "p.User.name"), model.Use))

	load := id(model.Method, "p.Repo.load(long)")
	assert.Equal(t, 1.0, g.Weight(load, user, model.Create))
	assert.Equal(t, 1.0, g.Weight(load, user, model.Return))

	greet := id(model.Method, "p.Service.greet(User)")
	assert.Equal(t, 1.0, g.Weight(greet, id(model.Method, "p.Greeter.greet(User)"), model.Override))
	// 继承来的字段
	assert.Equal(t, 1.0, g.Weight(greet, id(model.Field, "p.Base.id"), model.Assign))

	// JDK 类型在语料之外，不计入未解析
	assert.Empty(t, res.Diag.Unresolved())
	assert.Zero(t, res.Report.ParseFailures)
}

func TestJavaFrontEnd_TypeLevelView(t *testing.T) {
	res := analyze(t, userService)
	types := core.FilterNoise(res.Graph, core.NewNoiseFilter(core.LevelBalanced)).Lift(model.Type, false)

	svc := lookup(t, res, model.Type, "p.Service")
	repo := lookup(t, res, model.Type, "p.Repo")
	user := lookup(t, res, model.Type, "p.User")
	assert.Equal(t, 1.0, types.Weight(svc, repo, model.Call))
	assert.Equal(t, 1.0, types.Weight(svc, repo, model.UseType))
	_, ok := types.Edge(repo, svc)
	assert.False(t, ok)
	assert.Positive(t, types.Weight(svc, user, model.Use))
}

func TestJavaNoiseFilter_OwnFieldAccess(t *testing.T) {
	res := analyze(t, map[string]string{
		"q/Counter.java": `package q;

public class Counter {
    int count;

    public int next() {
        count = count + 1;
        return count;
    }
}
`,
		"q/Reader.java": `package q;

public class Reader {
    public int read(Counter c) {
        return c.count;
    }
}
`,
	})
	next := lookup(t, res, model.Method, "q.Counter.next()")
	read := lookup(t, res, model.Method, "q.Reader.read(Counter)")
	count := lookup(t, res, model.Field, "q.Counter.count")
	require.Equal(t, 1.0, res.Graph.Weight(next, count, model.Assign))

	generic := core.FilterNoise(res.Graph, core.NewNoiseFilter(core.LevelBalanced))
	_, ok := generic.Edge(next, count)
	assert.True(t, ok)

	// 类内字段读写对 Java 是噪音，跨类字段访问保留
	javaOnly := core.FilterNoise(res.Graph, core.NewLanguageNoiseFilter(core.LevelBalanced))
	_, ok = javaOnly.Edge(next, count)
	assert.False(t, ok)
	assert.Equal(t, 1.0, javaOnly.Weight(read, count, model.Use))

	_, ok = core.FilterNoise(res.Graph, core.NewLanguageNoiseFilter(core.LevelRaw)).Edge(next, count)
	assert.True(t, ok)
}

func TestJavaFrontEnd_SyntaxErrorKeepsPartialResult(t *testing.T) {
	res := analyze(t, map[string]string{
		"p/Broken.java": "package p;\n\npublic class Broken {\n    void f( {\n}\n",
	})
	assert.Equal(t, 1, res.Report.ParseFailures)
	assert.Equal(t, 1, res.Diag.Count(core.ParseFailure))
	lookup(t, res, model.Type, "p.Broken")
}

func TestJavaFrontEnd_Version(t *testing.T) {
	fe, err := core.GetFrontEnd(core.LangJava)
	require.NoError(t, err)
	assert.Equal(t, java.FrontEndVersion, fe.Version())
	assert.Equal(t, []string{".java"}, fe.Extensions())

	lang, ok := core.DetectLanguage("src/A.java")
	assert.True(t, ok)
	assert.Equal(t, core.LangJava, lang)
}
