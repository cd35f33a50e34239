package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

type JSONLWriter struct {
	encoder *json.Encoder
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{encoder: json.NewEncoder(w)}
}

func (w *JSONLWriter) Write(v interface{}) error { return w.encoder.Encode(v) }

// RelationRecord relation.jsonl 的一行：一条边上的一种关系
type RelationRecord struct {
	Source     string               `json:"source"`
	SourceKind model.ElementKind    `json:"sourceKind"`
	Target     string               `json:"target"`
	TargetKind model.ElementKind    `json:"targetKind"`
	Kind       model.DependencyType `json:"kind"`
	Weight     float64              `json:"weight"`
}

// Relations 按图的边顺序展开关系记录
func Relations(g *core.Graph) []RelationRecord {
	var out []RelationRecord
	for _, e := range g.Edges() {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		for _, kw := range e.Weights {
			out = append(out, RelationRecord{
				Source:     src.QualifiedName,
				SourceKind: src.Kind,
				Target:     dst.QualifiedName,
				TargetKind: dst.Kind,
				Kind:       kw.Kind,
				Weight:     kw.Weight,
			})
		}
	}
	return out
}

func ExportElements(path string, g *core.Graph) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	writer := NewJSONLWriter(f)
	count := 0
	for _, n := range g.Nodes() {
		if err := writer.Write(n); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func ExportRelations(path string, g *core.Graph) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	writer := NewJSONLWriter(f)
	count := 0
	for _, rel := range Relations(g) {
		if err := writer.Write(rel); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// ExportUnresolved 每行一个 (名字, 来源) 对，stripPrefix 从位置路径中去掉
func ExportUnresolved(path string, entries []core.UnresolvedEntry, stripPrefix string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	writer := NewJSONLWriter(f)
	for _, u := range StripUnresolved(entries, stripPrefix) {
		if err := writer.Write(u); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
