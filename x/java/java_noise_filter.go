package java

import (
	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// NoiseFilter 在通用规则之上增加 Java 特有的规则
type NoiseFilter struct {
	core.DefaultNoiseFilter
}

func NewJavaNoiseFilter(level core.FilterLevel) core.NoiseFilter {
	return &NoiseFilter{
		DefaultNoiseFilter: core.DefaultNoiseFilter{Level: level},
	}
}

func (f *NoiseFilter) IsNoise(e core.Edge, src, dst core.Node) bool {
	if f.Level == core.LevelRaw {
		return false
	}
	if f.DefaultNoiseFilter.IsNoise(e, src, dst) {
		return true
	}

	// 规则 1: 方法读写所在类自身的字段 (getter / setter / 构造器赋值)
	if src.Kind == model.Method && dst.Kind == model.Field && dst.Owner == src.Owner {
		if e.Weight(model.Use)+e.Weight(model.Assign) == e.Total() {
			return true
		}
	}

	if f.Level == core.LevelPure {
		// 规则 2: 注解只是元数据
		if e.Weight(model.Annotation) == e.Total() {
			return true
		}
	}
	return false
}
