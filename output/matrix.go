package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// Matrix 有序依赖矩阵：行列都是按名字排序的节点，单元格按关系类型记录权重
type Matrix struct {
	RunID string         `json:"runId"`
	Names []string       `json:"names"`
	Kinds []string       `json:"kinds"`
	Cells []MatrixCell   `json:"cells"`
	Meta  map[string]int `json:"meta"`
}

type MatrixCell struct {
	Row     int                              `json:"row"`
	Col     int                              `json:"col"`
	Weights map[model.DependencyType]float64 `json:"weights"`
}

// BuildMatrix 节点顺序与图一致，因此同一输入的矩阵完全一致
func BuildMatrix(g *core.Graph, runID string) *Matrix {
	nodes := g.Nodes()
	index := make(map[model.EntityID]int, len(nodes))
	m := &Matrix{RunID: runID, Names: make([]string, 0, len(nodes))}
	for i, n := range nodes {
		index[n.ID] = i
		m.Names = append(m.Names, n.QualifiedName)
		m.Kinds = append(m.Kinds, string(n.Kind))
	}
	for _, e := range g.Edges() {
		cell := MatrixCell{Row: index[e.Source], Col: index[e.Target], Weights: make(map[model.DependencyType]float64, len(e.Weights))}
		for _, kw := range e.Weights {
			cell.Weights[kw.Kind] = kw.Weight
		}
		m.Cells = append(m.Cells, cell)
	}
	m.Meta = map[string]int{"nodes": len(nodes), "edges": g.EdgeCount()}
	return m
}

func WriteMatrix(w io.Writer, m *Matrix) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func ExportMatrix(path string, g *core.Graph, runID string) (int, int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	m := BuildMatrix(g, runID)
	return len(m.Names), len(m.Cells), WriteMatrix(f, m)
}
