package core

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/CodMac/arch-depends/model"
)

// CacheStats 本次运行的缓存命中情况
type CacheStats struct {
	Hits    int `json:"hits" yaml:"hits"`
	Misses  int `json:"misses" yaml:"misses"`
	Corrupt int `json:"corrupt" yaml:"corrupt"`
	Writes  int `json:"writes" yaml:"writes"`
}

// Report 一次分析的汇总，和依赖图一起交给导出器
type Report struct {
	RunID      string    `json:"runId" yaml:"runId"`
	Root       string    `json:"root" yaml:"root"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`

	Languages     []Language `json:"languages" yaml:"languages"`
	Files         int        `json:"files" yaml:"files"`
	ParseFailures int        `json:"parseFailures" yaml:"parseFailures"`
	Cache         CacheStats `json:"cache" yaml:"cache"`

	Link    LinkResult    `json:"link" yaml:"link"`
	Resolve ResolveResult `json:"resolve" yaml:"resolve"`
	Stats   Stats         `json:"stats" yaml:"stats"`

	// Cycles 导出粒度上的依赖环，按限定名列出
	Cycles     [][]string        `json:"cycles,omitempty" yaml:"cycles,omitempty"`
	Errors     []*AnalysisError  `json:"errors,omitempty" yaml:"errors,omitempty"`
	Defects    []*AnalysisError  `json:"defects,omitempty" yaml:"defects,omitempty"`
	Unresolved []UnresolvedEntry `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
}

// NewReport 分配运行 ID 并记录开始时间
func NewReport(root string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Root:      root,
		StartedAt: time.Now(),
	}
}

// Finish 从最终导出的图和诊断中填充统计
func (r *Report) Finish(g *Graph, diag *Diagnostics) {
	r.FinishedAt = time.Now()
	r.Stats = g.Stats()
	r.Cycles = nil
	for _, scc := range g.Cycles() {
		names := make([]string, 0, len(scc))
		for _, id := range scc {
			if n, ok := g.Node(id); ok {
				names = append(names, n.QualifiedName)
			}
		}
		r.Cycles = append(r.Cycles, names)
	}
	if diag != nil {
		r.Errors = diag.Errors()
		r.Defects = diag.Defects()
		r.Unresolved = diag.Unresolved()
	}
}

// Duration 分析耗时
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Log 打印统计日志：按实体类型和关系类型计数
func (r *Report) Log(log logrus.FieldLogger) {
	log.WithFields(logrus.Fields{
		"run":        r.RunID,
		"files":      r.Files,
		"cacheHits":  r.Cache.Hits,
		"passes":     r.Resolve.Passes,
		"resolved":   r.Resolve.Resolved,
		"external":   r.Resolve.External,
		"unresolved": len(r.Unresolved),
		"cycles":     len(r.Cycles),
		"elapsed":    r.Duration().Round(time.Millisecond).String(),
	}).Info("analysis finished")

	kinds := make([]string, 0, len(r.Stats.Entities))
	for k := range r.Stats.Entities {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		log.WithField("kind", k).WithField("count", r.Stats.Entities[model.ElementKind(k)]).Info("entities")
	}
	for _, t := range model.AllDependencyTypes {
		if n := r.Stats.Relations[t]; n > 0 {
			log.WithFields(logrus.Fields{"kind": t, "count": n, "weight": r.Stats.Weights[t]}).Info("relations")
		}
	}
	if len(r.Defects) > 0 {
		log.WithField("defects", len(r.Defects)).Warn("internal invariant violations detected")
	}
}
