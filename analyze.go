package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CodMac/arch-depends/cache"
	"github.com/CodMac/arch-depends/config"
	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/logging"
	"github.com/CodMac/arch-depends/output"
	"github.com/CodMac/arch-depends/processor"
)

type analyzeFlags struct {
	langs       []string
	outDir      string
	format      string
	filterLevel string
	granularity string
	jobs        int
	noCache     bool
	cachePath   string
	passBudget  int
	selfDeps    bool
}

var af analyzeFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "分析源码目录并导出依赖图",
	Long: `扫描目录下的源文件，收集实体和引用，做不动点解析后导出。

导出格式:
  jsonl    element.jsonl / relation.jsonl / unresolved.jsonl
  mermaid  visualization.html (规模过大时降级为 jsonl)
  matrix   matrix.json
  yaml     只写 report.yaml

任何格式都会额外写出 report.yaml。`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return runAnalyze(cmd, root)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringSliceVar(&af.langs, "lang", nil, "分析语言: java, go (默认全部)")
	f.StringVar(&af.outDir, "out", "", "输出目录")
	f.StringVar(&af.format, "format", "", "导出格式: jsonl, mermaid, matrix, yaml")
	f.StringVar(&af.filterLevel, "filter-level", "", "噪音过滤等级: raw, balanced, pure")
	f.StringVar(&af.granularity, "granularity", "", "导出粒度: file, type, method (默认实体级)")
	f.IntVar(&af.jobs, "jobs", 0, "并发数")
	f.BoolVar(&af.noCache, "no-cache", false, "禁用解析缓存")
	f.StringVar(&af.cachePath, "cache-path", "", "缓存数据库路径")
	f.IntVar(&af.passBudget, "pass-budget", 0, "不动点解析轮数上限")
	f.BoolVar(&af.selfDeps, "self-deps", false, "提升粒度后保留自依赖")
	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig 读取配置文件，命令行上显式给出的参数覆盖配置
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	cfg, err := config.Load(configPath, root)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Languages = af.langs
	}
	if flags.Changed("out") {
		cfg.Output.Dir = af.outDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = af.format
	}
	if flags.Changed("filter-level") {
		cfg.Output.FilterLevel = af.filterLevel
	}
	if flags.Changed("granularity") {
		cfg.Output.Granularity = af.granularity
	}
	if flags.Changed("jobs") {
		cfg.Jobs = af.jobs
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !af.noCache
	}
	if flags.Changed("cache-path") {
		cfg.Cache.Path = af.cachePath
	}
	if flags.Changed("pass-budget") {
		cfg.Resolve.PassBudget = af.passBudget
	}
	if flags.Changed("self-deps") {
		cfg.Output.SelfDeps = af.selfDeps
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// cacheFile 相对路径以源码根目录为基准
func cacheFile(cfg *config.Config, root string) string {
	if filepath.IsAbs(cfg.Cache.Path) {
		return cfg.Cache.Path
	}
	return filepath.Join(root, cfg.Cache.Path)
}

// openStore 内存缓存在前，SQLite 持久化在后
func openStore(cfg *config.Config, root string, log logrus.FieldLogger) (cache.Store, error) {
	if !cfg.Cache.Enabled {
		return cache.Nop{}, nil
	}
	path := cacheFile(cfg, root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	cold, err := cache.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	memCfg := cache.DefaultMemoryConfig()
	if cfg.Cache.MaxCost > 0 {
		memCfg.MaxCost = cfg.Cache.MaxCost
	}
	hot, err := cache.NewMemoryStore(memCfg)
	if err != nil {
		_ = cold.Close()
		return nil, err
	}
	log.WithField("path", path).Debug("cache opened")
	return cache.NewTieredStore(hot, cold), nil
}

func runAnalyze(cmd *cobra.Command, root string) error {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	var langs []core.Language
	for _, l := range cfg.Languages {
		lang, _ := core.ParseLanguage(l)
		langs = append(langs, lang)
	}
	outType, err := output.ParseOutType(strings.ToLower(cfg.Output.Format))
	if err != nil {
		return err
	}
	level, _ := core.ParseFilterLevel(cfg.Output.FilterLevel)
	view := processor.ViewOptions{
		FilterLevel: level,
		Kinds:       cfg.Kinds(),
		SelfDeps:    cfg.Output.SelfDeps,
	}
	if cfg.Output.Granularity != "" {
		view.Granularity, _ = config.ParseGranularity(cfg.Output.Granularity)
	}

	store, err := openStore(cfg, root, log)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := processor.NewFileProcessor(opts, store, langs, cfg.Jobs, log).Run(ctx, root)
	if err != nil {
		return err
	}

	shaped := processor.Shape(res.Graph, view)
	res.Report.Finish(shaped, res.Diag)
	res.Report.Log(log)

	sum, err := output.NewExporter(cfg.Output.Dir, outType, cfg.Output.StripPrefix, log).Export(shaped, res.Report)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.WithFields(logrus.Fields{
		"format":    sum.Format,
		"elements":  sum.Elements,
		"relations": sum.Relations,
	}).Info("export finished")
	for _, f := range sum.Files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
