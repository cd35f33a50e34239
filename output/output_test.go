package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// sampleGraph p.A.m 调用 p.B.n 并创建 p.B
func sampleGraph(t *testing.T) (*core.Graph, *core.Report) {
	t.Helper()
	repo := core.NewRepository(4)
	ns, _ := repo.RegisterEntity(model.Namespace, "p", 0, core.EntitySpec{Name: "p"})
	ids := map[string]model.EntityID{}
	for _, name := range []string{"A", "B"} {
		path := "src/p/" + name + ".java"
		file, _ := repo.RegisterEntity(model.File, path, ns, core.EntitySpec{Name: name + ".java", Location: &model.Location{FilePath: path}})
		ids[name], _ = repo.RegisterEntity(model.Type, "p."+name, file, core.EntitySpec{Name: name, Location: &model.Location{FilePath: path, StartLine: 1}})
	}
	m, _ := repo.RegisterEntity(model.Method, "p.A.m()", ids["A"], core.EntitySpec{Name: "m", Location: &model.Location{FilePath: "src/p/A.java", StartLine: 2}})
	n, _ := repo.RegisterEntity(model.Method, "p.B.n()", ids["B"], core.EntitySpec{Name: "n", Location: &model.Location{FilePath: "src/p/B.java", StartLine: 2}})

	b := core.NewGraphBuilder(repo)
	b.Add(model.Binding{Source: m, Target: n, Kind: model.Call, Weight: 1, Confidence: model.Exact, Occurrence: "1"})
	b.Add(model.Binding{Source: m, Target: ids["B"], Kind: model.Create, Weight: 1, Confidence: model.Exact, Occurrence: "2"})
	g := b.Snapshot()

	diag := core.NewDiagnostics()
	diag.AddUnresolved(core.UnresolvedEntry{
		Name: "Missing", Kind: model.UseType, Source: "p.A.m()",
		Location: &model.Location{FilePath: "src/p/A.java", StartLine: 3},
		Reason:   core.UnresolvableReference,
	})
	diag.Add(core.NewAnalysisError(core.ParseFailure, "syntax errors", &model.Location{FilePath: "src/p/C.java", StartLine: 1}, nil))
	r := core.NewReport("src")
	r.Finish(g, diag)
	return g, r
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestParseOutType(t *testing.T) {
	for _, s := range []string{"jsonl", "mermaid", "matrix", "yaml"} {
		got, err := ParseOutType(s)
		require.NoError(t, err)
		assert.Equal(t, OutType(s), got)
	}
	_, err := ParseOutType("csv")
	assert.Error(t, err)
}

func TestExporter_JSONL(t *testing.T) {
	g, r := sampleGraph(t)
	dir := filepath.Join(t.TempDir(), "out")

	sum, err := NewExporter(dir, JsonL, "src", nil).Export(g, r)
	require.NoError(t, err)
	assert.Equal(t, JsonL, sum.Format)
	assert.Equal(t, 7, sum.Elements)
	assert.Equal(t, 2, sum.Relations)
	assert.Len(t, sum.Files, 4)

	rels := readLines(t, filepath.Join(dir, "relation.jsonl"))
	require.Len(t, rels, 2)
	assert.Equal(t, "p.A.m()", rels[0]["source"])
	assert.Equal(t, "p.B", rels[0]["target"])
	assert.Equal(t, "CREATE", rels[0]["kind"])
	assert.Equal(t, "CALL", rels[1]["kind"])

	elems := readLines(t, filepath.Join(dir, "element.jsonl"))
	assert.Len(t, elems, 7)

	unresolved := readLines(t, filepath.Join(dir, "unresolved.jsonl"))
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Missing", unresolved[0]["name"])
	loc := unresolved[0]["location"].(map[string]any)
	assert.Equal(t, "p/A.java", loc["FilePath"])
}

func TestExporter_ReportAlwaysWritten(t *testing.T) {
	g, r := sampleGraph(t)
	dir := t.TempDir()

	sum, err := NewExporter(dir, YAML, "", nil).Export(g, r)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "report.yaml")}, sum.Files)

	data, err := os.ReadFile(sum.Files[0])
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, r.RunID, doc["runId"])
	assert.Equal(t, 1, doc["relations"].(map[string]any)["CALL"])
	errs := doc["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "PARSE_FAILURE", errs[0].(map[string]any)["code"])
	assert.Len(t, doc["unresolved"], 1)
}

func TestExporter_Matrix(t *testing.T) {
	g, r := sampleGraph(t)
	dir := t.TempDir()

	sum, err := NewExporter(dir, MatrixOut, "", nil).Export(g, r)
	require.NoError(t, err)
	assert.Equal(t, MatrixOut, sum.Format)
	assert.Equal(t, []string{filepath.Join(dir, "matrix.json"), filepath.Join(dir, "report.yaml")}, sum.Files)
	assert.Equal(t, 7, sum.Elements)
	assert.Equal(t, 2, sum.Relations)

	data, err := os.ReadFile(filepath.Join(dir, "matrix.json"))
	require.NoError(t, err)
	var m Matrix
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, r.RunID, m.RunID)
	assert.Len(t, m.Names, 7)
	require.Len(t, m.Cells, 2)
	assert.Equal(t, map[model.DependencyType]float64{model.Create: 1}, m.Cells[0].Weights)
	assert.Equal(t, map[model.DependencyType]float64{model.Call: 1}, m.Cells[1].Weights)
}

func TestMermaid(t *testing.T) {
	g, _ := sampleGraph(t)
	var buf bytes.Buffer
	elems, rels, err := WriteMermaid(&buf, g)
	require.NoError(t, err)
	assert.Equal(t, 7, elems)
	assert.Equal(t, 2, rels)

	out := buf.String()
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, "subgraph n_file_src_p_A_java")
	assert.Contains(t, out, "n_METHOD_p_A_m__ -- CALL --> n_METHOD_p_B_n__")
	assert.True(t, MermaidFits(g))
}

func TestExporter_MermaidFallsBackWhenTooLarge(t *testing.T) {
	repo := core.NewRepository(4)
	for i := 0; i <= MaxMermaidNodes; i++ {
		repo.RegisterEntity(model.Type, fmt.Sprintf("p.T%d", i), 0, core.EntitySpec{})
	}
	g := core.NewGraphBuilder(repo).Snapshot()
	require.False(t, MermaidFits(g))

	dir := t.TempDir()
	sum, err := NewExporter(dir, Mermaid, "", nil).Export(g, core.NewReport("."))
	require.NoError(t, err)
	assert.Equal(t, JsonL, sum.Format)
	assert.NoFileExists(t, filepath.Join(dir, "visualization.html"))
	assert.FileExists(t, filepath.Join(dir, "element.jsonl"))
}

func TestMatrix(t *testing.T) {
	g, _ := sampleGraph(t)
	types := g.Lift(model.Type, false)
	m := BuildMatrix(types, "run")

	assert.Equal(t, []string{"p.A", "p.B"}, m.Names)
	require.Len(t, m.Cells, 1)
	assert.Equal(t, 0, m.Cells[0].Row)
	assert.Equal(t, 1, m.Cells[0].Col)
	assert.Equal(t, map[model.DependencyType]float64{model.Call: 1, model.Create: 1}, m.Cells[0].Weights)
	assert.Equal(t, 2, m.Meta["nodes"])

	// 同一输入输出完全一致
	var a, b bytes.Buffer
	require.NoError(t, WriteMatrix(&a, m))
	require.NoError(t, WriteMatrix(&b, BuildMatrix(types, "run")))
	assert.Equal(t, a.String(), b.String())
}

func TestStripUnresolved(t *testing.T) {
	in := []core.UnresolvedEntry{{Name: "X", Location: &model.Location{FilePath: "/abs/src/A.java"}}, {Name: "Y"}}
	out := StripUnresolved(in, "/abs/src")
	assert.Equal(t, "A.java", out[0].Location.FilePath)
	assert.Nil(t, out[1].Location)
	// 原切片不变
	assert.Equal(t, "/abs/src/A.java", in[0].Location.FilePath)
	assert.Equal(t, in, StripUnresolved(in, ""))
}
