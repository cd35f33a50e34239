package core

// WeightPolicy 不同可信度的绑定对边权重的贡献
type WeightPolicy struct {
	Exact     float64 `mapstructure:"exact" yaml:"exact"`
	Local     float64 `mapstructure:"local" yaml:"local"`
	Imported  float64 `mapstructure:"imported" yaml:"imported"`
	Heuristic float64 `mapstructure:"heuristic" yaml:"heuristic"`
	// Ambiguous 歧义引用的总权重，在所有候选之间均分
	Ambiguous float64 `mapstructure:"ambiguous" yaml:"ambiguous"`
	// MaxCandidates 歧义候选上限，超出时按声明顺序保留前 N 个，0 表示不限
	MaxCandidates int `mapstructure:"maxCandidates" yaml:"maxCandidates"`
}

// DefaultWeightPolicy 所有确定绑定计 1，歧义绑定总和也为 1
func DefaultWeightPolicy() WeightPolicy {
	return WeightPolicy{Exact: 1, Local: 1, Imported: 1, Heuristic: 1, Ambiguous: 1}
}

// PathFilter 按语言过滤参与分析的文件
type PathFilter interface {
	Match(lang Language, path string) bool
}

// Options 分析开始时传入的不可变配置
type Options struct {
	// PassBudget 不动点轮数上限，0 表示只依赖"收缩或停止"规则
	PassBudget int
	Policy     WeightPolicy
	Filter     PathFilter
	Stripes    int
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{PassBudget: 64, Policy: DefaultWeightPolicy(), Stripes: DefaultStripes}
}
