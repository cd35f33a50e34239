package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

const (
	MaxMermaidNodes = 200
	MaxMermaidEdges = 400
)

// MermaidFits 规模过大时 Mermaid 渲染会失败
func MermaidFits(g *core.Graph) bool {
	return len(g.Nodes()) <= MaxMermaidNodes && g.EdgeCount() <= MaxMermaidEdges
}

func ExportMermaidHTML(outputPath string, g *core.Graph) (int, int, error) {
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	return WriteMermaid(f, g)
}

// WriteMermaid 按文件分组输出节点，边上标注权重最大的关系类型
func WriteMermaid(w io.Writer, g *core.Graph) (int, int, error) {
	fmt.Fprintln(w, `<!DOCTYPE html><html><head><meta charset="UTF-8"><script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script></head>
<body><div class="mermaid">graph LR`)

	byFile := make(map[string][]core.Node)
	var paths []string
	for _, n := range g.Nodes() {
		if _, ok := byFile[n.Path]; !ok {
			paths = append(paths, n.Path)
		}
		byFile[n.Path] = append(byFile[n.Path], n)
	}
	sort.Strings(paths)

	elemCount := 0
	for _, path := range paths {
		if path != "" {
			fmt.Fprintf(w, "  subgraph %s [📄 %s]\n", safeID("file:"+path), path)
		}
		for _, n := range byFile[path] {
			fmt.Fprintf(w, "    %s%s\n", safeID(nodeKey(n)), getNodeShape(n.Kind, n.Name))
			elemCount++
		}
		if path != "" {
			fmt.Fprintln(w, "  end")
		}
	}

	relCount := 0
	for _, e := range g.Edges() {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		srcID, tgtID := safeID(nodeKey(src)), safeID(nodeKey(dst))
		if srcID == tgtID {
			continue
		}
		fmt.Fprintf(w, "  %s -- %s --> %s\n", srcID, dominant(e), tgtID)
		relCount++
	}

	_, err := fmt.Fprintln(w, `</div><script>mermaid.initialize({startOnLoad:true, maxTextSize:1000000});</script></body></html>`)
	return elemCount, relCount, err
}

func nodeKey(n core.Node) string { return string(n.Kind) + ":" + n.QualifiedName }

func dominant(e core.Edge) model.DependencyType {
	var best core.KindWeight
	for _, kw := range e.Weights {
		if kw.Weight > best.Weight {
			best = kw
		}
	}
	return best.Kind
}

// 辅助函数

func safeID(id string) string {
	r := strings.NewReplacer(".", "_", "(", "_", ")", "_", "[", "_", "]", "_", " ", "_", "@", "at",
		":", "_", "/", "_", ",", "_", "$", "_", "#", "_", "<", "_", ">", "_", "-", "_")
	return "n_" + r.Replace(id)
}

func getNodeShape(kind model.ElementKind, name string) string {
	switch kind {
	case model.Type:
		return fmt.Sprintf("[\"%s <small>(%s)</small>\"]", name, kind)
	case model.Method:
		return fmt.Sprintf("[/\"%s <small>(%s)</small>\"/]", name, kind)
	case model.File, model.Namespace:
		return fmt.Sprintf("([\"%s <small>(%s)</small>\"])", name, kind)
	default:
		return fmt.Sprintf("(\"%s <small>(%s)</small>\")", name, kind)
	}
}
