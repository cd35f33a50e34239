package core

import (
	"sort"
	"sync"

	"github.com/CodMac/arch-depends/model"
)

// ==================== 依赖图构建 ====================

type edgeKey struct {
	source model.EntityID
	target model.EntityID
}

type occurrenceKey struct {
	occurrence string
	target     model.EntityID
	kind       model.DependencyType
}

// GraphBuilder 累积解析结果。同一 (源, 目标, 关系) 的多次出现合并为一条边并累加权重，
// 同一次源码出现对同一条边同一种关系只计一次。
type GraphBuilder struct {
	repo *Repository

	mu      sync.Mutex
	weights map[edgeKey]map[model.DependencyType]float64
	seen    map[occurrenceKey]struct{}
}

func NewGraphBuilder(repo *Repository) *GraphBuilder {
	return &GraphBuilder{
		repo:    repo,
		weights: make(map[edgeKey]map[model.DependencyType]float64),
		seen:    make(map[occurrenceKey]struct{}),
	}
}

// Add 累加一条绑定。端点不在实体模型中或该次出现已经计入时返回 false。
func (b *GraphBuilder) Add(bind model.Binding) bool {
	if !b.repo.Has(bind.Source) || !b.repo.Has(bind.Target) || bind.Weight <= 0 {
		return false
	}
	ok := occurrenceKey{occurrence: bind.Occurrence, target: bind.Target, kind: bind.Kind}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[ok]; dup {
		return false
	}
	b.seen[ok] = struct{}{}
	k := edgeKey{source: bind.Source, target: bind.Target}
	m := b.weights[k]
	if m == nil {
		m = make(map[model.DependencyType]float64)
		b.weights[k] = m
	}
	m[bind.Kind] += bind.Weight
	return true
}

// Snapshot 返回当前累积结果的不可变副本
func (b *GraphBuilder) Snapshot() *Graph {
	entities := b.repo.Entities()
	nodes := make([]Node, 0, len(entities))
	for _, e := range entities {
		nodes = append(nodes, nodeOf(e))
	}

	b.mu.Lock()
	edges := make([]Edge, 0, len(b.weights))
	for k, m := range b.weights {
		e := Edge{Source: k.source, Target: k.target}
		for kind, w := range m {
			e.Weights = append(e.Weights, KindWeight{Kind: kind, Weight: w})
		}
		edges = append(edges, e)
	}
	b.mu.Unlock()

	return newGraph(nodes, edges)
}

// ==================== 不可变图 ====================

// Node 图节点，是实体的只读投影
type Node struct {
	ID            model.EntityID    `json:"id"`
	Kind          model.ElementKind `json:"kind"`
	Name          string            `json:"name"`
	QualifiedName string            `json:"qualifiedName"`
	Owner         model.EntityID    `json:"owner,omitempty"`
	Receiver      model.EntityID    `json:"receiver,omitempty"` // 方法挂载的接收者类型
	Path          string            `json:"path,omitempty"`
	Language      string            `json:"language,omitempty"`
	Synthetic     bool              `json:"synthetic,omitempty"`
	Location      *model.Location   `json:"location,omitempty"`
}

func nodeOf(e *model.Entity) Node {
	var loc *model.Location
	if e.Location != nil {
		l := *e.Location
		loc = &l
	}
	var recv model.EntityID
	if e.MethodInfo != nil && e.MethodInfo.Receiver != nil && len(e.MethodInfo.Receiver.Resolved) > 0 {
		recv = e.MethodInfo.Receiver.Resolved[0]
	}
	return Node{
		ID:            e.ID,
		Receiver:      recv,
		Kind:          e.Kind,
		Name:          e.Name,
		QualifiedName: e.QualifiedName,
		Owner:         e.Owner,
		Path:          e.Path(),
		Language:      e.Language,
		Synthetic:     e.Synthetic,
		Location:      loc,
	}
}

type KindWeight struct {
	Kind   model.DependencyType `json:"kind"`
	Weight float64              `json:"weight"`
}

// Edge 一对有序实体之间的依赖，按关系类型分别累计权重
type Edge struct {
	Source  model.EntityID `json:"source"`
	Target  model.EntityID `json:"target"`
	Weights []KindWeight   `json:"weights"`
}

// Weight 指定关系类型的权重
func (e Edge) Weight(kind model.DependencyType) float64 {
	for _, kw := range e.Weights {
		if kw.Kind == kind {
			return kw.Weight
		}
	}
	return 0
}

// Total 所有关系类型的权重之和
func (e Edge) Total() float64 {
	var sum float64
	for _, kw := range e.Weights {
		sum += kw.Weight
	}
	return sum
}

func (e Edge) clone() Edge {
	e.Weights = append([]KindWeight(nil), e.Weights...)
	return e
}

// Graph 依赖图快照，导出方只能读取，所有变换都返回新图
type Graph struct {
	nodes   []Node
	nodeIdx map[model.EntityID]int
	edges   []Edge
	edgeIdx map[edgeKey]int
}

func newGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:   nodes,
		nodeIdx: make(map[model.EntityID]int, len(nodes)),
		edges:   edges,
		edgeIdx: make(map[edgeKey]int, len(edges)),
	}
	// 节点按名字排序 (有序矩阵)
	sort.SliceStable(g.nodes, func(i, j int) bool { return nodeLess(g.nodes[i], g.nodes[j]) })
	for i, n := range g.nodes {
		g.nodeIdx[n.ID] = i
	}
	for i := range g.edges {
		sort.Slice(g.edges[i].Weights, func(a, b int) bool { return g.edges[i].Weights[a].Kind < g.edges[i].Weights[b].Kind })
	}
	sort.Slice(g.edges, func(i, j int) bool {
		a, b := g.edges[i], g.edges[j]
		if a.Source != b.Source {
			return g.nodeIdx[a.Source] < g.nodeIdx[b.Source]
		}
		return g.nodeIdx[a.Target] < g.nodeIdx[b.Target]
	})
	for i, e := range g.edges {
		g.edgeIdx[edgeKey{source: e.Source, target: e.Target}] = i
	}
	return g
}

func nodeLess(a, b Node) bool {
	if a.QualifiedName != b.QualifiedName {
		return a.QualifiedName < b.QualifiedName
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.Location != nil && b.Location != nil && a.Location.StartLine != b.Location.StartLine {
		return a.Location.StartLine < b.Location.StartLine
	}
	return a.ID < b.ID
}

// Nodes 返回按限定名排序的节点副本
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Node 按 ID 查找节点
func (g *Graph) Node(id model.EntityID) (Node, bool) {
	i, ok := g.nodeIdx[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Edges 返回按 (源, 目标) 节点顺序排序的边副本
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = e.clone()
	}
	return out
}

// Edge 查找一条边
func (g *Graph) Edge(source, target model.EntityID) (Edge, bool) {
	i, ok := g.edgeIdx[edgeKey{source: source, target: target}]
	if !ok {
		return Edge{}, false
	}
	return g.edges[i].clone(), true
}

// Weight 返回 (源, 目标, 关系) 的累计权重，不存在为 0
func (g *Graph) Weight(source, target model.EntityID, kind model.DependencyType) float64 {
	e, ok := g.Edge(source, target)
	if !ok {
		return 0
	}
	return e.Weight(kind)
}

// Outgoing 某个节点的所有出边
func (g *Graph) Outgoing(source model.EntityID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == source {
			out = append(out, e.clone())
		}
	}
	return out
}

// EdgeCount 边数
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Filter 返回只保留 keep 为 true 的边的新图，节点不变
func (g *Graph) Filter(keep func(e Edge, src, dst Node) bool) *Graph {
	var edges []Edge
	for _, e := range g.edges {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		if keep(e, src, dst) {
			edges = append(edges, e.clone())
		}
	}
	return newGraph(g.Nodes(), edges)
}

// FilterKinds 只保留指定关系类型，kinds 为空时返回原图
func (g *Graph) FilterKinds(kinds ...model.DependencyType) *Graph {
	if len(kinds) == 0 {
		return g
	}
	allowed := make(map[model.DependencyType]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	var edges []Edge
	for _, e := range g.edges {
		ne := Edge{Source: e.Source, Target: e.Target}
		for _, kw := range e.Weights {
			if allowed[kw.Kind] {
				ne.Weights = append(ne.Weights, kw)
			}
		}
		if len(ne.Weights) > 0 {
			edges = append(edges, ne)
		}
	}
	return newGraph(g.Nodes(), edges)
}

// Lift 把边提升到指定粒度 (FILE / TYPE / METHOD)：端点替换为自身或最近的该类型祖先，权重相加。
// 端点没有该类型祖先的边被丢弃；keepSelf 为 false 时丢弃提升后的自环。
func (g *Graph) Lift(level model.ElementKind, keepSelf bool) *Graph {
	lifted := make(map[edgeKey]map[model.DependencyType]float64)
	for _, e := range g.edges {
		src, ok1 := g.ancestorOfKind(e.Source, level)
		dst, ok2 := g.ancestorOfKind(e.Target, level)
		if !ok1 || !ok2 || (src == dst && !keepSelf) {
			continue
		}
		k := edgeKey{source: src, target: dst}
		if lifted[k] == nil {
			lifted[k] = make(map[model.DependencyType]float64)
		}
		for _, kw := range e.Weights {
			lifted[k][kw.Kind] += kw.Weight
		}
	}
	var nodes []Node
	for _, n := range g.nodes {
		if n.Kind == level {
			nodes = append(nodes, n)
		}
	}
	edges := make([]Edge, 0, len(lifted))
	for k, m := range lifted {
		e := Edge{Source: k.source, Target: k.target}
		for kind, w := range m {
			e.Weights = append(e.Weights, KindWeight{Kind: kind, Weight: w})
		}
		edges = append(edges, e)
	}
	return newGraph(nodes, edges)
}

func (g *Graph) ancestorOfKind(id model.EntityID, level model.ElementKind) (model.EntityID, bool) {
	for depth := 0; depth < maxScopeDepth; depth++ {
		n, ok := g.Node(id)
		if !ok {
			return 0, false
		}
		if n.Kind == level {
			return n.ID, true
		}
		switch {
		case n.Receiver != 0:
			id = n.Receiver
		case n.Owner != 0:
			id = n.Owner
		default:
			return 0, false
		}
	}
	return 0, false
}

// CanonicalEdge 与实体 ID 无关的边表示，用于比较两次分析的结果
type CanonicalEdge struct {
	Source string               `json:"source" yaml:"source"`
	Target string               `json:"target" yaml:"target"`
	Kind   model.DependencyType `json:"kind" yaml:"kind"`
	Weight float64              `json:"weight" yaml:"weight"`
}

// Canonical 以 "KIND:限定名" 标识端点，按顺序展开所有 (边, 关系)
func (g *Graph) Canonical() []CanonicalEdge {
	var out []CanonicalEdge
	for _, e := range g.edges {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		for _, kw := range e.Weights {
			out = append(out, CanonicalEdge{
				Source: string(src.Kind) + ":" + src.QualifiedName,
				Target: string(dst.Kind) + ":" + dst.QualifiedName,
				Kind:   kw.Kind,
				Weight: kw.Weight,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Stats 按实体类型和关系类型计数
type Stats struct {
	Entities  map[model.ElementKind]int        `json:"entities" yaml:"entities"`
	Relations map[model.DependencyType]int     `json:"relations" yaml:"relations"`
	Weights   map[model.DependencyType]float64 `json:"weights" yaml:"weights"`
}

func (g *Graph) Stats() Stats {
	s := Stats{
		Entities:  make(map[model.ElementKind]int),
		Relations: make(map[model.DependencyType]int),
		Weights:   make(map[model.DependencyType]float64),
	}
	for _, n := range g.nodes {
		s.Entities[n.Kind]++
	}
	for _, e := range g.edges {
		for _, kw := range e.Weights {
			s.Relations[kw.Kind]++
			s.Weights[kw.Kind] += kw.Weight
		}
	}
	return s
}
