package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/CodMac/arch-depends/core"
)

type OutType string

const (
	JsonL     OutType = "jsonl"
	Mermaid   OutType = "mermaid"
	MatrixOut OutType = "matrix"
	YAML      OutType = "yaml"
)

// ParseOutType 校验导出格式
func ParseOutType(s string) (OutType, error) {
	switch t := OutType(s); t {
	case JsonL, Mermaid, MatrixOut, YAML:
		return t, nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// Summary 导出结果
type Summary struct {
	Format    OutType
	Elements  int
	Relations int
	Files     []string
}

type Exporter struct {
	outputDir   string
	outputType  OutType
	stripPrefix string
	log         logrus.FieldLogger
}

func NewExporter(outputDir string, outputType OutType, stripPrefix string, log logrus.FieldLogger) *Exporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Exporter{outputDir: outputDir, outputType: outputType, stripPrefix: stripPrefix, log: log}
}

// Export 写出依赖图和报告。report.yaml 总是生成；Mermaid 规模过大时降级为 jsonl。
func (p *Exporter) Export(g *core.Graph, report *core.Report) (Summary, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return Summary{}, err
	}

	format := p.outputType
	if format == Mermaid && !MermaidFits(g) {
		p.log.WithFields(logrus.Fields{"nodes": len(g.Nodes()), "edges": g.EdgeCount()}).
			Warn("graph too large for mermaid, falling back to jsonl")
		format = JsonL
	}

	sum := Summary{Format: format}
	var err error
	switch format {
	case Mermaid:
		path := filepath.Join(p.outputDir, "visualization.html")
		sum.Elements, sum.Relations, err = ExportMermaidHTML(path, g)
		sum.Files = append(sum.Files, path)
	case MatrixOut:
		path := filepath.Join(p.outputDir, "matrix.json")
		sum.Elements, sum.Relations, err = ExportMatrix(path, g, report.RunID)
		sum.Files = append(sum.Files, path)
	case YAML:
		sum.Elements, sum.Relations = len(g.Nodes()), len(Relations(g))
	default:
		sum, err = p.exportJSONL(g, report)
	}
	if err != nil {
		return sum, err
	}

	reportPath := filepath.Join(p.outputDir, "report.yaml")
	if err := ExportReport(reportPath, report, p.stripPrefix); err != nil {
		return sum, err
	}
	sum.Files = append(sum.Files, reportPath)
	return sum, nil
}

func (p *Exporter) exportJSONL(g *core.Graph, report *core.Report) (Summary, error) {
	sum := Summary{Format: JsonL}
	elemPath := filepath.Join(p.outputDir, "element.jsonl")
	relPath := filepath.Join(p.outputDir, "relation.jsonl")
	unresolvedPath := filepath.Join(p.outputDir, "unresolved.jsonl")

	var err error
	if sum.Elements, err = ExportElements(elemPath, g); err != nil {
		return sum, err
	}
	if sum.Relations, err = ExportRelations(relPath, g); err != nil {
		return sum, err
	}
	if _, err = ExportUnresolved(unresolvedPath, report.Unresolved, p.stripPrefix); err != nil {
		return sum, err
	}
	sum.Files = append(sum.Files, elemPath, relPath, unresolvedPath)
	return sum, nil
}
