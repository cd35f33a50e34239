package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/CodMac/arch-depends/model"
)

// FilterLevel 定义过滤的严苛程度
type FilterLevel int

const (
	LevelRaw      FilterLevel = iota // 不进行任何过滤，保留所有原始关系
	LevelBalanced                    // 过滤占位实体和方法内部的局部数据流
	LevelPure                        // 在 Balanced 基础上去掉自环和导入，只保留声明之间的依赖
)

func (l FilterLevel) String() string {
	switch l {
	case LevelBalanced:
		return "balanced"
	case LevelPure:
		return "pure"
	}
	return "raw"
}

// ParseFilterLevel 将字符串转换为 FilterLevel
func ParseFilterLevel(s string) (FilterLevel, error) {
	switch strings.ToLower(s) {
	case "", "raw":
		return LevelRaw, nil
	case "balanced":
		return LevelBalanced, nil
	case "pure":
		return LevelPure, nil
	}
	return LevelRaw, fmt.Errorf("unknown filter level: %s", s)
}

// NoiseFilter 判断一条边是否为噪音
type NoiseFilter interface {
	IsNoise(e Edge, src, dst Node) bool
	SetLevel(level FilterLevel)
}

// DefaultNoiseFilter 与语言无关的过滤规则
type DefaultNoiseFilter struct {
	Level FilterLevel
}

func NewNoiseFilter(level FilterLevel) *DefaultNoiseFilter {
	return &DefaultNoiseFilter{Level: level}
}

func (d *DefaultNoiseFilter) SetLevel(level FilterLevel) {
	d.Level = level
}

func (d *DefaultNoiseFilter) IsNoise(e Edge, src, dst Node) bool {
	if d.Level == LevelRaw {
		return false
	}

	// 规则 1: 占位实体 (孤立成员的宿主、外部占位) 不是真实声明
	if src.Synthetic || dst.Synthetic {
		return true
	}

	// 规则 2: 方法体内对自己的局部变量和参数的使用
	if (dst.Kind == model.Variable || dst.Kind == model.Parameter) && dst.Owner == src.ID {
		return true
	}

	if d.Level == LevelPure {
		// 规则 3: 自环
		if e.Source == e.Target {
			return true
		}
		// 规则 4: 导入关系已经由实际使用体现
		if e.Weight(model.Import) == e.Total() {
			return true
		}
	}
	return false
}

// NoiseFilterFactory 创建特定语言的 NoiseFilter
type NoiseFilterFactory func(level FilterLevel) NoiseFilter

var (
	noiseFilterMu        sync.RWMutex
	noiseFilterFactories = make(map[Language]NoiseFilterFactory)
)

// RegisterNoiseFilter 注册语言特有的过滤规则，通常在前端的 init 中调用
func RegisterNoiseFilter(lang Language, factory NoiseFilterFactory) {
	noiseFilterMu.Lock()
	defer noiseFilterMu.Unlock()
	noiseFilterFactories[lang] = factory
}

// GetNoiseFilter 未注册的语言退回 DefaultNoiseFilter
func GetNoiseFilter(lang Language, level FilterLevel) NoiseFilter {
	noiseFilterMu.RLock()
	factory, ok := noiseFilterFactories[lang]
	noiseFilterMu.RUnlock()
	if !ok {
		return NewNoiseFilter(level)
	}
	return factory(level)
}

// LanguageNoiseFilter 按边的源节点语言分派到对应过滤器
type LanguageNoiseFilter struct {
	level   FilterLevel
	filters map[Language]NoiseFilter
}

func NewLanguageNoiseFilter(level FilterLevel) *LanguageNoiseFilter {
	return &LanguageNoiseFilter{level: level, filters: make(map[Language]NoiseFilter)}
}

func (l *LanguageNoiseFilter) SetLevel(level FilterLevel) {
	l.level = level
	for _, f := range l.filters {
		f.SetLevel(level)
	}
}

func (l *LanguageNoiseFilter) IsNoise(e Edge, src, dst Node) bool {
	lang := Language(src.Language)
	f, ok := l.filters[lang]
	if !ok {
		f = GetNoiseFilter(lang, l.level)
		l.filters[lang] = f
	}
	return f.IsNoise(e, src, dst)
}

// FilterNoise 按过滤器裁剪依赖图
func FilterNoise(g *Graph, f NoiseFilter) *Graph {
	if f == nil {
		return g
	}
	return g.Filter(func(e Edge, src, dst Node) bool { return !f.IsNoise(e, src, dst) })
}
