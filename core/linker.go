package core

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/CodMac/arch-depends/model"
)

// LinkResult 所有权树校验结果
type LinkResult struct {
	Entities int `json:"entities" yaml:"entities"`
	Roots    int `json:"roots" yaml:"roots"`
	MaxDepth int `json:"maxDepth" yaml:"maxDepth"`
}

// Linker 在收集结束、解析开始之前校验所有权 (包含) 关系：
// 所有者必须存在，包含关系必须构成森林。违反时记录为缺陷，不中断分析。
type Linker struct {
	repo *Repository
	diag *Diagnostics
}

func NewLinker(repo *Repository, diag *Diagnostics) *Linker {
	return &Linker{repo: repo, diag: diag}
}

// Link 按拓扑序计算每个实体的嵌套深度
func (l *Linker) Link() LinkResult {
	entities := l.repo.Entities()
	g := simple.NewDirectedGraph()
	for _, e := range entities {
		addNode(g, e.ID)
	}

	res := LinkResult{Entities: len(entities)}
	for _, e := range entities {
		if e.Owner == 0 {
			res.Roots++
			continue
		}
		if !l.repo.Has(e.Owner) {
			l.defect(fmt.Sprintf("%s %s has unknown owner %d", e.Kind, e.QualifiedName, e.Owner), e.Location)
			continue
		}
		if e.Owner == e.ID {
			l.defect(fmt.Sprintf("%s %s owns itself", e.Kind, e.QualifiedName), e.Location)
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(e.Owner), simple.Node(e.ID)))
	}

	order, err := topo.Sort(g)
	if err != nil {
		if cycles, ok := err.(topo.Unorderable); ok {
			for _, c := range cycles {
				l.defect(fmt.Sprintf("containment cycle through %d entities", len(c)), nil)
			}
		}
		return res
	}

	depth := make(map[int64]int, len(order))
	for _, n := range order {
		e := l.repo.Get(model.EntityID(n.ID()))
		d := 0
		if e.Owner != 0 {
			d = depth[int64(e.Owner)] + 1
		}
		depth[n.ID()] = d
		if d > res.MaxDepth {
			res.MaxDepth = d
		}
	}
	return res
}

func (l *Linker) defect(msg string, loc *model.Location) {
	l.diag.Add(NewAnalysisError(InvariantViolation, msg, loc, nil))
}

func addNode(g *simple.DirectedGraph, id model.EntityID) graph.Node {
	if n := g.Node(int64(id)); n != nil {
		return n
	}
	n := simple.Node(id)
	g.AddNode(n)
	return n
}

// Cycles 依赖图中的强连通分量 (至少两个节点)，每个分量按限定名排序。
// 通常在提升到类型或文件粒度之后调用。
func (g *Graph) Cycles() [][]model.EntityID {
	dg := simple.NewDirectedGraph()
	for _, n := range g.nodes {
		addNode(dg, n.ID)
	}
	for _, e := range g.edges {
		if e.Source == e.Target {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.Source), simple.Node(e.Target)))
	}

	var out [][]model.EntityID
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]model.EntityID, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, model.EntityID(n.ID()))
		}
		sort.Slice(ids, func(i, j int) bool {
			a, _ := g.Node(ids[i])
			b, _ := g.Node(ids[j])
			return nodeLess(a, b)
		})
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := g.Node(out[i][0])
		b, _ := g.Node(out[j][0])
		return nodeLess(a, b)
	})
	return out
}
