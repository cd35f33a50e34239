package java

import (
	"strings"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// SymbolResolver Java 的命名与查找规则
type SymbolResolver struct{}

func NewJavaSymbolResolver() *SymbolResolver {
	return &SymbolResolver{}
}

// =============================================================================
// 1. 命名 (Naming)
// =============================================================================

func (j *SymbolResolver) BuildQualifiedName(parentQN, name string) string {
	if parentQN == "" || parentQN == "." {
		return name
	}
	return parentQN + "." + name
}

// MethodQualifiedName 方法名后追加参数类型以区分重载: save(User,int[])
func (j *SymbolResolver) MethodQualifiedName(ownerQN string, decl core.MethodDecl) string {
	types := make([]string, 0, len(decl.Params))
	for i, p := range decl.Params {
		t := p.Type.Name
		if i := strings.LastIndex(t, "."); i >= 0 {
			t = t[i+1:]
		}
		t += strings.Repeat("[]", p.Type.Dims)
		if decl.VarArgs && i == len(decl.Params)-1 {
			t += "..."
		}
		types = append(types, t)
	}
	return j.BuildQualifiedName(ownerQN, decl.Name+"("+strings.Join(types, ",")+")")
}

// RegisterPackage 按点号拆分，逐级注册命名空间，返回最内层
func (j *SymbolResolver) RegisterPackage(repo *core.Repository, packageName string) model.EntityID {
	if packageName == "" {
		return 0
	}
	var owner model.EntityID
	var current []string
	for _, part := range strings.Split(packageName, ".") {
		current = append(current, part)
		owner, _ = repo.RegisterEntity(model.Namespace, strings.Join(current, "."), owner, core.EntitySpec{
			Name:     part,
			Language: core.LangJava,
		})
	}
	return owner
}

// =============================================================================
// 2. 导入 (Imports)
// =============================================================================

// ImportTarget 通配符导入指向包本身
func (j *SymbolResolver) ImportTarget(imp model.ImportEntry) string {
	return strings.TrimSuffix(imp.Path, ".*")
}

var implicitImports = []model.ImportEntry{{Path: "java.lang.*", IsWildcard: true}}

func (j *SymbolResolver) ImplicitImports() []model.ImportEntry {
	return implicitImports
}

// =============================================================================
// 3. 内置符号 (Builtins)
// =============================================================================

var primitives = map[string]bool{
	"int": true, "long": true, "short": true, "byte": true, "char": true,
	"float": true, "double": true, "boolean": true, "void": true, "var": true,
}

// builtinPrefixes 标准库包，任何以此开头的限定名都不进入未解析报告
var builtinPrefixes = []string{"java.", "javax.", "jdk.", "sun.", "com.sun."}

// IsBuiltinType 原始类型、常用 JDK 类型和 JDK 包下的限定名
func (j *SymbolResolver) IsBuiltinType(name string) bool {
	if primitives[name] {
		return true
	}
	if _, ok := BuiltinTable[name]; ok {
		return true
	}
	if name == "java" || name == "javax" {
		return true
	}
	for _, p := range builtinPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
