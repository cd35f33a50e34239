package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/CodMac/arch-depends/cache"
	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// SourceFile 参与分析的源文件，Path 是相对根目录的 / 分隔路径
type SourceFile struct {
	Path     string
	AbsPath  string
	Language core.Language
}

// Result 一次分析的产物：实体级依赖图、仓库和汇总报告
type Result struct {
	Graph  *core.Graph
	Repo   *core.Repository
	Diag   *core.Diagnostics
	Report *core.Report
}

type FileProcessor struct {
	opts      core.Options
	store     cache.Store
	languages []core.Language
	jobs      int
	log       logrus.FieldLogger

	hits, misses, corrupt, writes atomic.Int64
}

// NewFileProcessor store 为 nil 时不使用缓存；languages 为空表示所有已注册前端
func NewFileProcessor(opts core.Options, store cache.Store, languages []core.Language, jobs int, log logrus.FieldLogger) *FileProcessor {
	if jobs <= 0 {
		jobs = 4
	}
	if store == nil {
		store = cache.Nop{}
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &FileProcessor{opts: opts, store: store, languages: languages, jobs: jobs, log: log}
}

// skipDirs 不进入的目录
var skipDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true, ".idea": true, ".arch-depends": true,
	"node_modules": true, "target": true, "build": true, "vendor": true,
}

// Discover 遍历根目录，按扩展名识别语言并应用路径过滤
func (fp *FileProcessor) Discover(root string) ([]SourceFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	allowed := make(map[core.Language]bool)
	for _, l := range fp.languages {
		allowed[l] = true
	}

	var files []SourceFile
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		lang, ok := core.DetectLanguage(path)
		if !ok || (len(allowed) > 0 && !allowed[lang]) {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if fp.opts.Filter != nil && !fp.opts.Filter.Match(lang, rel) {
			return nil
		}
		files = append(files, SourceFile{Path: rel, AbsPath: path, Language: lang})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Run 发现文件并完成整个分析流程
func (fp *FileProcessor) Run(ctx context.Context, root string) (*Result, error) {
	files, err := fp.Discover(root)
	if err != nil {
		return nil, err
	}
	fp.log.WithFields(logrus.Fields{"root": root, "files": len(files)}).Info("files discovered")
	return fp.ProcessFiles(ctx, root, files)
}

// ProcessFiles 收集 → 链接 → 解析。单个文件失败只记录诊断，取消会中断整个分析。
func (fp *FileProcessor) ProcessFiles(ctx context.Context, root string, files []SourceFile) (*Result, error) {
	report := core.NewReport(root)
	repo := core.NewRepository(fp.opts.Stripes)
	diag := core.NewDiagnostics()

	// --- 阶段 1: 并行收集 (Collector / 缓存回放) ---
	contexts := make([]*core.FileContext, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fp.jobs)
	for i, f := range files {
		g.Go(func() error {
			fc, err := fp.collect(gctx, repo, diag, f)
			if err != nil {
				return err
			}
			contexts[i] = fc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, core.NewAnalysisError(core.Cancelled, "collection cancelled", nil, err)
	}

	var collected []*core.FileContext
	langs := make(map[core.Language]bool)
	for _, fc := range contexts {
		if fc != nil {
			collected = append(collected, fc)
			langs[fc.Language] = true
		}
	}
	for l := range langs {
		report.Languages = append(report.Languages, l)
	}
	sort.Slice(report.Languages, func(i, j int) bool { return report.Languages[i] < report.Languages[j] })
	report.Files = len(collected)
	report.ParseFailures = diag.Count(core.ParseFailure)
	report.Cache = core.CacheStats{
		Hits:    int(fp.hits.Load()),
		Misses:  int(fp.misses.Load()),
		Corrupt: int(fp.corrupt.Load()),
		Writes:  int(fp.writes.Load()),
	}
	fp.log.WithFields(logrus.Fields{
		"files":    len(collected),
		"entities": repo.Len(),
		"hits":     report.Cache.Hits,
		"misses":   report.Cache.Misses,
	}).Info("collection finished")

	// --- 阶段 2: 所有权校验 (Linker) ---
	report.Link = core.NewLinker(repo, diag).Link()

	// --- 阶段 3: 不动点解析 (Resolver) ---
	builder := core.NewGraphBuilder(repo)
	resolver := core.NewResolver(repo, builder, diag, fp.opts, fp.log)
	rr, err := resolver.Run(ctx, collected)
	report.Resolve = rr
	if err != nil {
		return nil, err
	}
	fp.log.WithFields(logrus.Fields{
		"passes":   rr.Passes,
		"resolved": rr.Resolved,
		"residual": rr.Residual,
	}).Info("resolution finished")

	graph := builder.Snapshot()
	report.Finish(graph, diag)
	return &Result{Graph: graph, Repo: repo, Diag: diag, Report: report}, nil
}

// collect 缓存命中时回放快照，否则解析并写回缓存。只有取消才返回错误。
func (fp *FileProcessor) collect(ctx context.Context, repo *core.Repository, diag *core.Diagnostics, f SourceFile) (*core.FileContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := fp.log.WithField("file", f.Path)

	fe, err := core.GetFrontEnd(f.Language)
	if err != nil {
		diag.Add(core.NewAnalysisError(core.ParseFailure, "no front-end for "+f.Path, nil, err))
		return nil, nil
	}
	rules, err := core.GetSymbolResolver(f.Language)
	if err != nil {
		rules = &core.DottedResolver{Lang: f.Language}
	}
	src, err := os.ReadFile(f.AbsPath)
	if err != nil {
		diag.Add(core.NewAnalysisError(core.ParseFailure, "read "+f.Path, &model.Location{FilePath: f.Path}, err))
		return nil, nil
	}

	key := cache.Key{Path: f.Path, Hash: cache.ContentHash(src), Language: string(f.Language), Version: fe.Version()}
	collector := core.NewCollector(repo, rules, f.Language, diag)

	if fc := fp.replay(ctx, collector, diag, key, f, log); fc != nil {
		fc.ContentHash = key.Hash
		return fc, nil
	}

	perr := fe.Parse(ctx, f.Path, src, collector)
	fc := collector.Context()
	switch {
	case perr == nil:
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case core.IsCode(perr, core.ParseFailure):
		// 语法错误：保留已经收集到的部分结果，但不写缓存
		var ae *core.AnalysisError
		errors.As(perr, &ae)
		diag.Add(ae)
		log.WithError(perr).Warn("partial parse")
		if fc != nil {
			fc.ContentHash = key.Hash
		}
		return fc, nil
	default:
		diag.Add(core.NewAnalysisError(core.ParseFailure, "parse "+f.Path, &model.Location{FilePath: f.Path}, perr))
		log.WithError(perr).Warn("file skipped")
		return fc, nil
	}
	if fc == nil {
		return nil, nil
	}
	fc.ContentHash = key.Hash

	if snap := fc.Snapshot(); snap != nil {
		if err := fp.store.Put(ctx, key, snap); err != nil {
			log.WithError(err).Warn("cache write failed")
		} else {
			fp.writes.Add(1)
		}
	}
	return fc, nil
}

// replay 尝试从缓存回放；损坏的条目记录诊断后按未命中处理
func (fp *FileProcessor) replay(ctx context.Context, c *core.Collector, diag *core.Diagnostics, key cache.Key, f SourceFile, log logrus.FieldLogger) *core.FileContext {
	snap, err := fp.store.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrCorrupt):
		fp.corrupt.Add(1)
		fp.misses.Add(1)
		diag.Add(core.NewAnalysisError(core.CacheCorruption, "undecodable cache entry for "+f.Path, nil, err))
		fp.evict(ctx, key, log)
		return nil
	default:
		if !cache.IsMiss(err) {
			log.WithError(err).Warn("cache read failed")
		}
		fp.misses.Add(1)
		return nil
	}

	// 键里已经带了路径，路径不符说明条目被错误写入
	if snap.FilePath != f.Path {
		log.WithField("snapshotPath", snap.FilePath).Warn("cache entry recorded for another path")
		fp.misses.Add(1)
		fp.evict(ctx, key, log)
		return nil
	}
	fc, err := c.Replay(snap)
	if err != nil {
		fp.corrupt.Add(1)
		fp.misses.Add(1)
		var ae *core.AnalysisError
		if errors.As(err, &ae) {
			diag.Add(ae)
		}
		log.WithError(err).Warn("cache entry rejected")
		fp.evict(ctx, key, log)
		return nil
	}
	fp.hits.Add(1)
	log.Debug("replayed from cache")
	return fc
}

// evict 删除无法使用的条目，失败只记录日志，下次写入会覆盖它
func (fp *FileProcessor) evict(ctx context.Context, key cache.Key, log logrus.FieldLogger) {
	if err := fp.store.Delete(ctx, key); err != nil {
		log.WithError(err).Warn("cache delete failed")
	}
}
