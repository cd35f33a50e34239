package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, 64, cfg.Resolve.PassBudget)
	assert.Equal(t, core.DefaultWeightPolicy(), cfg.Resolve.Weights)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "jsonl", cfg.Output.Format)
	assert.Equal(t, "balanced", cfg.Output.FilterLevel)
	assert.NotNil(t, cfg.Filters)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
languages: [java]
jobs: 2
filters:
  java:
    include: ["src/**"]
    exclude: ["**/generated/**"]
resolve:
  passBudget: 10
  weights:
    ambiguous: 0.5
    maxCandidates: 3
output:
  format: mermaid
  granularity: type
  kinds: [call, extend]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arch-depends.yaml"), []byte(content), 0644))
	t.Setenv("ARCHDEP_JOBS", "8")

	cfg, err := Load("", dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"java"}, cfg.Languages)
	assert.Equal(t, 8, cfg.Jobs)
	assert.Equal(t, 10, cfg.Resolve.PassBudget)
	assert.Equal(t, 0.5, cfg.Resolve.Weights.Ambiguous)
	assert.Equal(t, 3, cfg.Resolve.Weights.MaxCandidates)
	// 未出现在文件中的权重保留默认值
	assert.Equal(t, 1.0, cfg.Resolve.Weights.Exact)
	assert.Equal(t, "mermaid", cfg.Output.Format)
	assert.Equal(t, []model.DependencyType{model.Call, model.Extend}, cfg.Kinds())

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, 10, opts.PassBudget)
	require.NotNil(t, opts.Filter)
	assert.True(t, opts.Filter.Match(core.LangJava, "src/p/A.java"))
	assert.False(t, opts.Filter.Match(core.LangJava, "src/generated/B.java"))
	assert.False(t, opts.Filter.Match(core.LangJava, "test/C.java"))
	assert.True(t, opts.Filter.Match(core.LangGo, "test/c.go"))
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"language", func(c *Config) { c.Languages = []string{"cobol"} }, "languages"},
		{"jobs", func(c *Config) { c.Jobs = -1 }, "jobs"},
		{"budget", func(c *Config) { c.Resolve.PassBudget = -2 }, "resolve.passBudget"},
		{"weight", func(c *Config) { c.Resolve.Weights.Local = 0 }, "resolve.weights.local"},
		{"candidates", func(c *Config) { c.Resolve.Weights.MaxCandidates = -1 }, "resolve.weights.maxCandidates"},
		{"filter level", func(c *Config) { c.Output.FilterLevel = "loud" }, "output.filterLevel"},
		{"granularity", func(c *Config) { c.Output.Granularity = "module" }, "output.granularity"},
		{"kinds", func(c *Config) { c.Output.Kinds = []string{"inherit"} }, "output.kinds"},
		{"pattern", func(c *Config) { c.Filters["java"] = FilterConfig{Include: []string{"[a-"}} }, "filters.java"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]model.ElementKind{
		"file": model.File, "Type": model.Type, "class": model.Type, "METHOD": model.Method,
	} {
		got, err := ParseGranularity(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseGranularity("package")
	assert.Error(t, err)
}
