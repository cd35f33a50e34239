package output

import (
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// StripUnresolved 去掉位置路径的公共前缀，返回副本
func StripUnresolved(entries []core.UnresolvedEntry, prefix string) []core.UnresolvedEntry {
	if prefix == "" {
		return entries
	}
	out := make([]core.UnresolvedEntry, len(entries))
	for i, u := range entries {
		if u.Location != nil {
			loc := *u.Location
			loc.FilePath = strings.TrimPrefix(strings.TrimPrefix(loc.FilePath, prefix), "/")
			u.Location = &loc
		}
		out[i] = u
	}
	return out
}

// reportDoc report.yaml 的结构：汇总在前，明细在后
type reportDoc struct {
	RunID      string                       `yaml:"runId"`
	Root       string                       `yaml:"root"`
	Elapsed    string                       `yaml:"elapsed"`
	Languages  []core.Language              `yaml:"languages"`
	Files      int                          `yaml:"files"`
	Failures   int                          `yaml:"parseFailures"`
	Cache      core.CacheStats              `yaml:"cache"`
	Link       core.LinkResult              `yaml:"link"`
	Resolve    core.ResolveResult           `yaml:"resolve"`
	Entities   map[model.ElementKind]int    `yaml:"entities"`
	Relations  map[model.DependencyType]int `yaml:"relations"`
	Cycles     [][]string                   `yaml:"cycles,omitempty"`
	Errors     []diagnosticDoc              `yaml:"errors,omitempty"`
	Defects    []diagnosticDoc              `yaml:"defects,omitempty"`
	Unresolved []core.UnresolvedEntry       `yaml:"unresolved,omitempty"`
}

type diagnosticDoc struct {
	Code     core.ErrorCode `yaml:"code"`
	Message  string         `yaml:"message"`
	Location string         `yaml:"location,omitempty"`
}

func diagnostics(errs []*core.AnalysisError) []diagnosticDoc {
	out := make([]diagnosticDoc, 0, len(errs))
	for _, e := range errs {
		d := diagnosticDoc{Code: e.Code, Message: e.Message}
		if e.Location != nil {
			d.Location = e.Location.String()
		}
		if cause := e.Unwrap(); cause != nil {
			d.Message += ": " + cause.Error()
		}
		out = append(out, d)
	}
	return out
}

func WriteReport(w io.Writer, r *core.Report, stripPrefix string) error {
	doc := reportDoc{
		RunID:      r.RunID,
		Root:       r.Root,
		Elapsed:    r.Duration().String(),
		Languages:  r.Languages,
		Files:      r.Files,
		Failures:   r.ParseFailures,
		Cache:      r.Cache,
		Link:       r.Link,
		Resolve:    r.Resolve,
		Entities:   r.Stats.Entities,
		Relations:  r.Stats.Relations,
		Cycles:     r.Cycles,
		Errors:     diagnostics(r.Errors),
		Defects:    diagnostics(r.Defects),
		Unresolved: StripUnresolved(r.Unresolved, stripPrefix),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func ExportReport(path string, r *core.Report, stripPrefix string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteReport(f, r, stripPrefix)
}
