package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/viper"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// Config 一次分析的完整配置
type Config struct {
	Languages []string `mapstructure:"languages" yaml:"languages"` // 为空表示所有已注册语言
	Jobs      int      `mapstructure:"jobs" yaml:"jobs"`

	Filters map[string]FilterConfig `mapstructure:"filters" yaml:"filters"` // 按语言的包含/排除模式

	Resolve ResolveConfig `mapstructure:"resolve" yaml:"resolve"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// FilterConfig 路径模式，使用 glob 语法，以 / 作为分隔符
type FilterConfig struct {
	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

type ResolveConfig struct {
	PassBudget int               `mapstructure:"passBudget" yaml:"passBudget"`
	Weights    core.WeightPolicy `mapstructure:"weights" yaml:"weights"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	// MaxCost 内存缓存上限 (字节)
	MaxCost int64 `mapstructure:"maxCost" yaml:"maxCost"`
}

type OutputConfig struct {
	Dir         string   `mapstructure:"dir" yaml:"dir"`
	Format      string   `mapstructure:"format" yaml:"format"`           // jsonl / mermaid / matrix / yaml
	FilterLevel string   `mapstructure:"filterLevel" yaml:"filterLevel"` // raw / balanced / pure
	Granularity string   `mapstructure:"granularity" yaml:"granularity"` // 空表示实体级
	SelfDeps    bool     `mapstructure:"selfDeps" yaml:"selfDeps"`
	Kinds       []string `mapstructure:"kinds" yaml:"kinds"` // 只导出这些关系类型
	StripPrefix string   `mapstructure:"stripPrefix" yaml:"stripPrefix"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text / json
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Jobs:    4,
		Filters: map[string]FilterConfig{},
		Resolve: ResolveConfig{
			PassBudget: 64,
			Weights:    core.DefaultWeightPolicy(),
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".arch-depends/cache.db",
			MaxCost: 64 << 20,
		},
		Output: OutputConfig{
			Dir:         "./output",
			Format:      "jsonl",
			FilterLevel: "balanced",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// setDefaults 让环境变量覆盖在没有配置文件时也生效
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("resolve.passBudget", d.Resolve.PassBudget)
	v.SetDefault("resolve.weights.exact", d.Resolve.Weights.Exact)
	v.SetDefault("resolve.weights.local", d.Resolve.Weights.Local)
	v.SetDefault("resolve.weights.imported", d.Resolve.Weights.Imported)
	v.SetDefault("resolve.weights.heuristic", d.Resolve.Weights.Heuristic)
	v.SetDefault("resolve.weights.ambiguous", d.Resolve.Weights.Ambiguous)
	v.SetDefault("resolve.weights.maxCandidates", d.Resolve.Weights.MaxCandidates)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.maxCost", d.Cache.MaxCost)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.filterLevel", d.Output.FilterLevel)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load 读取配置文件。path 为空时在 dir 下查找 arch-depends.(yaml|json|toml)，找不到使用默认配置。
// ARCHDEP_ 前缀的环境变量覆盖文件中的值，例如 ARCHDEP_RESOLVE_PASSBUDGET。
func Load(path, dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("ARCHDEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("arch-depends")
		if dir == "" {
			dir = "."
		}
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Filters == nil {
		cfg.Filters = map[string]FilterConfig{}
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, l := range c.Languages {
		if _, err := core.ParseLanguage(l); err != nil {
			return &ConfigError{Field: "languages", Message: err.Error()}
		}
	}
	if c.Jobs < 0 {
		return &ConfigError{Field: "jobs", Message: "must not be negative"}
	}
	if c.Resolve.PassBudget < 0 {
		return &ConfigError{Field: "resolve.passBudget", Message: "must not be negative"}
	}
	w := c.Resolve.Weights
	for name, val := range map[string]float64{
		"exact": w.Exact, "local": w.Local, "imported": w.Imported, "heuristic": w.Heuristic, "ambiguous": w.Ambiguous,
	} {
		if val <= 0 {
			return &ConfigError{Field: "resolve.weights." + name, Message: "must be positive"}
		}
	}
	if w.MaxCandidates < 0 {
		return &ConfigError{Field: "resolve.weights.maxCandidates", Message: "must not be negative"}
	}
	if _, err := core.ParseFilterLevel(c.Output.FilterLevel); err != nil {
		return &ConfigError{Field: "output.filterLevel", Message: err.Error()}
	}
	if g := c.Output.Granularity; g != "" {
		if _, err := ParseGranularity(g); err != nil {
			return &ConfigError{Field: "output.granularity", Message: err.Error()}
		}
	}
	for _, k := range c.Output.Kinds {
		if _, err := model.ParseDependencyType(strings.ToUpper(k)); err != nil {
			return &ConfigError{Field: "output.kinds", Message: err.Error()}
		}
	}
	for lang, f := range c.Filters {
		if _, err := core.ParseLanguage(lang); err != nil {
			return &ConfigError{Field: "filters", Message: err.Error()}
		}
		for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
			if _, err := glob.Compile(p, '/'); err != nil {
				return &ConfigError{Field: "filters." + lang, Message: fmt.Sprintf("bad pattern %q: %v", p, err)}
			}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// ParseGranularity 导出粒度：file / type / method
func ParseGranularity(s string) (model.ElementKind, error) {
	switch strings.ToLower(s) {
	case "file":
		return model.File, nil
	case "type", "class":
		return model.Type, nil
	case "method":
		return model.Method, nil
	}
	return "", fmt.Errorf("unknown granularity: %s", s)
}

// Options 转换为解析核心使用的不可变配置
func (c *Config) Options() (core.Options, error) {
	filter, err := CompileFilters(c.Filters)
	if err != nil {
		return core.Options{}, err
	}
	opts := core.DefaultOptions()
	opts.PassBudget = c.Resolve.PassBudget
	opts.Policy = c.Resolve.Weights
	opts.Filter = filter
	return opts, nil
}

// Kinds 导出关系类型过滤
func (c *Config) Kinds() []model.DependencyType {
	var out []model.DependencyType
	for _, k := range c.Output.Kinds {
		if t, err := model.ParseDependencyType(strings.ToUpper(k)); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// ==================== 路径过滤 ====================

type compiledFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// Filters 按语言编译后的路径过滤器，实现 core.PathFilter
type Filters struct {
	byLang map[core.Language]*compiledFilter
}

// CompileFilters 编译所有模式
func CompileFilters(raw map[string]FilterConfig) (*Filters, error) {
	f := &Filters{byLang: make(map[core.Language]*compiledFilter)}
	for name, fc := range raw {
		lang, err := core.ParseLanguage(name)
		if err != nil {
			return nil, err
		}
		cf := &compiledFilter{}
		for _, p := range fc.Include {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, fmt.Errorf("bad include pattern %q: %w", p, err)
			}
			cf.include = append(cf.include, g)
		}
		for _, p := range fc.Exclude {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, fmt.Errorf("bad exclude pattern %q: %w", p, err)
			}
			cf.exclude = append(cf.exclude, g)
		}
		f.byLang[lang] = cf
	}
	return f, nil
}

// Match 排除优先；没有包含模式时默认包含
func (f *Filters) Match(lang core.Language, path string) bool {
	cf, ok := f.byLang[lang]
	if !ok {
		return true
	}
	p := filepath.ToSlash(path)
	for _, g := range cf.exclude {
		if g.Match(p) {
			return false
		}
	}
	if len(cf.include) == 0 {
		return true
	}
	for _, g := range cf.include {
		if g.Match(p) {
			return true
		}
	}
	return false
}
