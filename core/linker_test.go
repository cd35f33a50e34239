package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/model"
)

func TestLinker_Forest(t *testing.T) {
	f := newFixture(t)
	chain(f, "p/A.java", "p/B.java", "p/C.java")

	res := NewLinker(f.repo, f.diag).Link()
	assert.Equal(t, f.repo.Len(), res.Entities)
	assert.Equal(t, 1, res.Roots)
	// p → C.java → C → bar
	assert.Equal(t, 3, res.MaxDepth)
	assert.Empty(t, f.diag.Defects())
}

func TestLinker_UnknownOwner(t *testing.T) {
	repo := NewRepository(4)
	diag := NewDiagnostics()
	repo.RegisterEntity(model.Type, "p.Lost", 4242, EntitySpec{Name: "Lost"})

	NewLinker(repo, diag).Link()
	defects := diag.Defects()
	require.Len(t, defects, 1)
	assert.Equal(t, InvariantViolation, defects[0].Code)
	assert.Contains(t, defects[0].Message, "p.Lost")
	assert.Empty(t, diag.Errors())
}

func TestReport_Finish(t *testing.T) {
	repo, ids := twoTypes(t)
	b := NewGraphBuilder(repo)
	b.Add(bind(ids["m"], ids["n"], model.Call, 1, "1"))
	b.Add(bind(ids["n"], ids["m"], model.Call, 1, "2"))

	diag := NewDiagnostics()
	diag.Add(NewAnalysisError(ParseFailure, "bad file", &model.Location{FilePath: "x.java"}, nil))
	diag.AddUnresolved(UnresolvedEntry{Name: "zz", Source: "p.A.m", Kind: model.Call})
	diag.AddUnresolved(UnresolvedEntry{Name: "zz", Source: "p.A.m", Kind: model.Call})
	diag.AddUnresolved(UnresolvedEntry{Name: "aa", Source: "p.A.m", Kind: model.Call})

	r := NewReport("src")
	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)

	r.Finish(b.Snapshot().Lift(model.Type, false), diag)
	assert.Equal(t, [][]string{{"p.A", "p.B"}}, r.Cycles)
	assert.Equal(t, 2, r.Stats.Relations[model.Call])
	require.Len(t, r.Errors, 1)
	assert.Equal(t, ParseFailure, r.Errors[0].Code)
	require.Len(t, r.Unresolved, 2)
	assert.Equal(t, "aa", r.Unresolved[0].Name)
	assert.False(t, r.FinishedAt.Before(r.StartedAt))
}
