package core

import (
	"github.com/CodMac/arch-depends/model"
)

// FileContext 单个文件的收集结果：文件实体、导入表以及按源码顺序排列的未解析引用队列。
// 收集阶段只被一个 worker 持有，解析阶段只读。
type FileContext struct {
	FilePath    string
	Language    Language
	PackageName string
	ContentHash string
	FromCache   bool

	FileID      model.EntityID
	NamespaceID model.EntityID

	Imports    []model.ImportEntry
	References []*model.UnresolvedReference

	importsByAlias map[string][]int
	snapshot       *model.FileSnapshot
}

func NewFileContext(filePath string, lang Language) *FileContext {
	return &FileContext{
		FilePath:       filePath,
		Language:       lang,
		importsByAlias: make(map[string][]int),
	}
}

// AddImport 追加一条导入，通配符导入不进入别名表
func (fc *FileContext) AddImport(imp model.ImportEntry) {
	fc.Imports = append(fc.Imports, imp)
	if !imp.IsWildcard && imp.Alias != "" {
		fc.importsByAlias[imp.Alias] = append(fc.importsByAlias[imp.Alias], len(fc.Imports)-1)
	}
}

// FindImport 按文件内可见的别名查找单类型导入
func (fc *FileContext) FindImport(alias string) []model.ImportEntry {
	idx := fc.importsByAlias[alias]
	out := make([]model.ImportEntry, 0, len(idx))
	for _, i := range idx {
		out = append(out, fc.Imports[i])
	}
	return out
}

// WildcardImports 返回所有通配符导入 (import a.b.*)
func (fc *FileContext) WildcardImports() []model.ImportEntry {
	var out []model.ImportEntry
	for _, imp := range fc.Imports {
		if imp.IsWildcard {
			out = append(out, imp)
		}
	}
	return out
}

// AddReference 按源码顺序追加一条未解析引用
func (fc *FileContext) AddReference(ref *model.UnresolvedReference) {
	ref.Ordinal = len(fc.References)
	ref.FilePath = fc.FilePath
	fc.References = append(fc.References, ref)
}

// Snapshot 返回收集阶段生成的快照，缓存回放得到的上下文没有快照
func (fc *FileContext) Snapshot() *model.FileSnapshot { return fc.snapshot }
