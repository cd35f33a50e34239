package processor

import (
	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// ViewOptions 导出前对实体级依赖图的变换
type ViewOptions struct {
	FilterLevel core.FilterLevel
	Kinds       []model.DependencyType // 为空表示全部关系类型
	Granularity model.ElementKind      // 为空表示实体级
	SelfDeps    bool                   // 提升后是否保留自依赖
}

// Shape 依次做按语言的噪音过滤、关系类型过滤和粒度提升，原图不变
func Shape(g *core.Graph, v ViewOptions) *core.Graph {
	out := core.FilterNoise(g, core.NewLanguageNoiseFilter(v.FilterLevel))
	out = out.FilterKinds(v.Kinds...)
	if v.Granularity != "" {
		out = out.Lift(v.Granularity, v.SelfDeps)
	}
	return out
}
