package core

import (
	"fmt"
	"sync"

	"github.com/CodMac/arch-depends/model"
)

// --- 语言特有的命名与查找规则 ---

type SymbolResolver interface {
	// BuildQualifiedName 根据父节点和当前名构建 QN
	// (Java/Go 用 ".", C++ 用 "::")
	BuildQualifiedName(parentQN, name string) string

	// MethodQualifiedName 方法的唯一 QN，Java 用参数类型区分重载
	MethodQualifiedName(ownerQN string, decl MethodDecl) string

	// RegisterPackage 注册包/命名空间，返回最内层命名空间实体
	// (Java 需要拆分点号，Go 只需要单层)
	RegisterPackage(repo *Repository, packageName string) model.EntityID

	// ImportTarget 返回导入语句指向的限定名 (Java: 全名; Go: 包名)
	ImportTarget(imp model.ImportEntry) string

	// ImplicitImports 每个文件默认可见的导入 (java.lang.*)
	ImplicitImports() []model.ImportEntry

	// IsBuiltinType 内置类型、原始类型或外部标准库类型，不产生边也不报告为未解析
	IsBuiltinType(name string) bool
}

var (
	symbolResolverMu  sync.RWMutex
	symbolResolverMap = make(map[Language]SymbolResolver)
)

// RegisterSymbolResolver 注册一个语言与其对应的 SymbolResolver
func RegisterSymbolResolver(lang Language, resolver SymbolResolver) {
	symbolResolverMu.Lock()
	defer symbolResolverMu.Unlock()
	symbolResolverMap[lang] = resolver
}

// GetSymbolResolver 根据语言类型获取对应的 SymbolResolver 实例。
func GetSymbolResolver(lang Language) (SymbolResolver, error) {
	symbolResolverMu.RLock()
	defer symbolResolverMu.RUnlock()
	resolver, ok := symbolResolverMap[lang]
	if !ok {
		return nil, fmt.Errorf("%w for language: %s", ErrNoSymbolResolver, lang)
	}

	return resolver, nil
}

// DottedResolver 点分命名语言的通用规则，具体语言嵌入后覆盖差异部分
type DottedResolver struct {
	Lang Language
}

func (d *DottedResolver) BuildQualifiedName(parentQN, name string) string {
	if parentQN == "" {
		return name
	}
	return parentQN + "." + name
}

func (d *DottedResolver) MethodQualifiedName(ownerQN string, decl MethodDecl) string {
	return d.BuildQualifiedName(ownerQN, decl.Name)
}

// RegisterPackage 不拆分，整个包名作为一个命名空间
func (d *DottedResolver) RegisterPackage(repo *Repository, packageName string) model.EntityID {
	if packageName == "" {
		return 0
	}
	id, _ := repo.RegisterEntity(model.Namespace, packageName, 0, EntitySpec{Name: packageName, Language: d.Lang})
	return id
}

func (d *DottedResolver) ImportTarget(imp model.ImportEntry) string { return imp.Path }

func (d *DottedResolver) ImplicitImports() []model.ImportEntry { return nil }

func (d *DottedResolver) IsBuiltinType(string) bool { return false }
