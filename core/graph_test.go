package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/model"
)

// twoTypes p.A{m} 与 p.B{n}，分属两个文件
func twoTypes(t *testing.T) (*Repository, map[string]model.EntityID) {
	repo := NewRepository(4)
	ids := make(map[string]model.EntityID)
	ns, _ := repo.RegisterEntity(model.Namespace, "p", 0, EntitySpec{Name: "p"})
	for _, name := range []string{"A", "B"} {
		file, _ := repo.RegisterEntity(model.File, "p/"+name+".java", ns, EntitySpec{
			Name: name + ".java", Location: &model.Location{FilePath: "p/" + name + ".java"},
		})
		typ, _ := repo.RegisterEntity(model.Type, "p."+name, file, EntitySpec{Name: name, TypeInfo: &model.TypePayload{}})
		ids[name] = typ
		ids["file"+name] = file
	}
	ids["m"], _ = repo.RegisterEntity(model.Method, "p.A.m", ids["A"], EntitySpec{Name: "m", MethodInfo: &model.MethodPayload{}})
	ids["n"], _ = repo.RegisterEntity(model.Method, "p.B.n", ids["B"], EntitySpec{Name: "n", MethodInfo: &model.MethodPayload{}})
	ids["x"], _ = repo.RegisterEntity(model.Variable, "p.A.m.x", ids["m"], EntitySpec{Name: "x", VarInfo: &model.VarPayload{}})
	require.Equal(t, 8, repo.Len())
	return repo, ids
}

func bind(src, dst model.EntityID, kind model.DependencyType, w float64, occ string) model.Binding {
	return model.Binding{Source: src, Target: dst, Kind: kind, Weight: w, Confidence: model.Exact, Occurrence: occ}
}

func TestGraphBuilder_Accumulates(t *testing.T) {
	repo, ids := twoTypes(t)
	b := NewGraphBuilder(repo)

	assert.True(t, b.Add(bind(ids["m"], ids["n"], model.Call, 1, "A.java:3")))
	assert.True(t, b.Add(bind(ids["m"], ids["n"], model.Call, 0.5, "A.java:4")))
	// 同一次出现只计一次
	assert.False(t, b.Add(bind(ids["m"], ids["n"], model.Call, 1, "A.java:3")))
	// 同一次出现的不同关系分别计入
	assert.True(t, b.Add(bind(ids["m"], ids["n"], model.Use, 1, "A.java:3")))
	assert.False(t, b.Add(bind(ids["m"], 999, model.Call, 1, "A.java:5")))
	assert.False(t, b.Add(bind(ids["m"], ids["n"], model.Call, 0, "A.java:6")))

	g := b.Snapshot()
	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 1.5, g.Weight(ids["m"], ids["n"], model.Call))
	assert.Equal(t, 1.0, g.Weight(ids["m"], ids["n"], model.Use))
	e, ok := g.Edge(ids["m"], ids["n"])
	require.True(t, ok)
	assert.Equal(t, 2.5, e.Total())
	assert.Len(t, g.Nodes(), repo.Len())
}

func TestGraph_LiftConservesWeight(t *testing.T) {
	repo, ids := twoTypes(t)
	b := NewGraphBuilder(repo)
	b.Add(bind(ids["m"], ids["n"], model.Call, 1, "1"))
	b.Add(bind(ids["m"], ids["B"], model.Create, 1, "2"))
	b.Add(bind(ids["n"], ids["m"], model.Call, 0.5, "3"))
	b.Add(bind(ids["m"], ids["x"], model.Assign, 1, "4"))
	g := b.Snapshot()

	types := g.Lift(model.Type, true)
	assert.Equal(t, 1.0, types.Weight(ids["A"], ids["B"], model.Call))
	assert.Equal(t, 1.0, types.Weight(ids["A"], ids["B"], model.Create))
	assert.Equal(t, 0.5, types.Weight(ids["B"], ids["A"], model.Call))
	assert.Equal(t, 1.0, types.Weight(ids["A"], ids["A"], model.Assign))
	assert.Len(t, types.Nodes(), 2)

	var before, after float64
	for _, e := range g.Edges() {
		before += e.Total()
	}
	for _, e := range types.Edges() {
		after += e.Total()
	}
	assert.Equal(t, before, after)

	// 不保留自依赖时局部赋值消失
	noSelf := g.Lift(model.Type, false)
	_, ok := noSelf.Edge(ids["A"], ids["A"])
	assert.False(t, ok)

	files := g.Lift(model.File, false)
	assert.Equal(t, 1.0, files.Weight(ids["fileA"], ids["fileB"], model.Call))
}

func TestGraph_FilterKinds(t *testing.T) {
	repo, ids := twoTypes(t)
	b := NewGraphBuilder(repo)
	b.Add(bind(ids["m"], ids["n"], model.Call, 1, "1"))
	b.Add(bind(ids["m"], ids["n"], model.Use, 1, "2"))
	b.Add(bind(ids["m"], ids["B"], model.Create, 1, "3"))
	g := b.Snapshot()

	assert.Same(t, g, g.FilterKinds())
	calls := g.FilterKinds(model.Call)
	require.Equal(t, 1, calls.EdgeCount())
	e, _ := calls.Edge(ids["m"], ids["n"])
	assert.Equal(t, []KindWeight{{Kind: model.Call, Weight: 1}}, e.Weights)
	// 原图不变
	assert.Equal(t, 2, g.EdgeCount())
}

func TestGraph_CyclesAndStats(t *testing.T) {
	repo, ids := twoTypes(t)
	b := NewGraphBuilder(repo)
	b.Add(bind(ids["m"], ids["n"], model.Call, 1, "1"))
	b.Add(bind(ids["n"], ids["m"], model.Call, 1, "2"))
	g := b.Snapshot()

	types := g.Lift(model.Type, false)
	cycles := types.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []model.EntityID{ids["A"], ids["B"]}, cycles[0])

	stats := g.Stats()
	assert.Equal(t, 2, stats.Relations[model.Call])
	assert.Equal(t, 2.0, stats.Weights[model.Call])
	assert.Equal(t, 2, stats.Entities[model.Type])
	assert.Equal(t, 2, stats.Entities[model.Method])
}

func TestGraph_Canonical(t *testing.T) {
	repo, ids := twoTypes(t)
	b := NewGraphBuilder(repo)
	b.Add(bind(ids["n"], ids["m"], model.Call, 1, "2"))
	b.Add(bind(ids["m"], ids["n"], model.Call, 1, "1"))

	got := b.Snapshot().Canonical()
	assert.Equal(t, []CanonicalEdge{
		{Source: "METHOD:p.A.m", Target: "METHOD:p.B.n", Kind: model.Call, Weight: 1},
		{Source: "METHOD:p.B.n", Target: "METHOD:p.A.m", Kind: model.Call, Weight: 1},
	}, got)
}

func TestNoiseFilter_Levels(t *testing.T) {
	repo, ids := twoTypes(t)
	orphan, _ := repo.RegisterEntity(model.Type, "p.<orphan>", ids["fileA"], EntitySpec{Name: "<orphan>", Synthetic: true})
	b := NewGraphBuilder(repo)
	b.Add(bind(ids["m"], ids["n"], model.Call, 1, "1"))
	b.Add(bind(ids["m"], ids["x"], model.Use, 1, "2"))
	b.Add(bind(ids["m"], orphan, model.UseType, 1, "3"))
	b.Add(bind(ids["fileA"], ids["B"], model.Import, 1, "4"))
	b.Add(bind(ids["m"], ids["m"], model.Call, 1, "5"))
	g := b.Snapshot()

	raw := FilterNoise(g, NewNoiseFilter(LevelRaw))
	assert.Equal(t, 5, raw.EdgeCount())

	balanced := FilterNoise(g, NewNoiseFilter(LevelBalanced))
	assert.Equal(t, 3, balanced.EdgeCount())
	_, ok := balanced.Edge(ids["m"], ids["x"])
	assert.False(t, ok)

	pure := FilterNoise(g, NewNoiseFilter(LevelPure))
	require.Equal(t, 1, pure.EdgeCount())
	assert.Equal(t, 1.0, pure.Weight(ids["m"], ids["n"], model.Call))

	lvl, err := ParseFilterLevel("Balanced")
	require.NoError(t, err)
	assert.Equal(t, LevelBalanced, lvl)
	_, err = ParseFilterLevel("strict")
	assert.Error(t, err)
}
