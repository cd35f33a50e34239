package parser

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/CodMac/arch-depends/core"
)

var (
	languagesOnce sync.Once
	languages     map[core.Language]*sitter.Language
)

func loadLanguages() {
	languages = map[core.Language]*sitter.Language{
		core.LangJava: sitter.NewLanguage(tree_sitter_java.Language()),
		core.LangGo:   sitter.NewLanguage(tree_sitter_go.Language()),
	}
}

// GetLanguage 返回语言对应的 tree-sitter 语法
func GetLanguage(lang core.Language) (*sitter.Language, error) {
	languagesOnce.Do(loadLanguages)
	l, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("no tree-sitter grammar for language: %s", lang)
	}
	return l, nil
}

// Parser 单个 goroutine 使用的解析器，tree-sitter 的 Parser 不是并发安全的
type Parser interface {
	Parse(ctx context.Context, src []byte) (*sitter.Tree, error)
	Close()
}

type TreeSitterParser struct {
	lang   core.Language
	parser *sitter.Parser
}

// NewParser 创建指定语言的解析器，使用完毕需要 Close
func NewParser(lang core.Language) (*TreeSitterParser, error) {
	tsLang, err := GetLanguage(lang)
	if err != nil {
		return nil, err
	}
	p := sitter.NewParser()
	if err := p.SetLanguage(tsLang); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", lang, err)
	}
	return &TreeSitterParser{lang: lang, parser: p}, nil
}

// Parse 解析源码。返回的语法树需要调用方 Close。
func (p *TreeSitterParser) Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %s source", p.lang)
	}
	return tree, nil
}

func (p *TreeSitterParser) Close() {
	p.parser.Close()
}
