package golang

import (
	"regexp"
	"strings"

	"github.com/CodMac/arch-depends/core"
	"github.com/CodMac/arch-depends/model"
)

// SymbolResolver Go 的命名与查找规则。包是单层命名空间，
// 限定名以 package 子句的包名为根，而不是导入路径。
type SymbolResolver struct {
	core.DottedResolver
}

func NewGoSymbolResolver() *SymbolResolver {
	return &SymbolResolver{DottedResolver: core.DottedResolver{Lang: core.LangGo}}
}

// MethodQualifiedName 方法挂在接收者类型名下: pkg.Repo.Save
func (g *SymbolResolver) MethodQualifiedName(ownerQN string, decl core.MethodDecl) string {
	if decl.Receiver != nil && decl.Receiver.Name != "" {
		return g.BuildQualifiedName(g.BuildQualifiedName(ownerQN, decl.Receiver.Name), decl.Name)
	}
	return g.BuildQualifiedName(ownerQN, decl.Name)
}

var versionSuffix = regexp.MustCompile(`^v[0-9]+$`)

// PackageName 从导入路径推断包名：去掉 /vN 主版本后缀和 gopkg.in 的 .vN 后缀
func PackageName(importPath string) string {
	parts := strings.Split(strings.Trim(importPath, "/"), "/")
	name := parts[len(parts)-1]
	if versionSuffix.MatchString(name) && len(parts) > 1 {
		name = parts[len(parts)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 && versionSuffix.MatchString(name[i+1:]) {
		name = name[:i]
	}
	return name
}

// ImportTarget 导入指向包名对应的命名空间
func (g *SymbolResolver) ImportTarget(imp model.ImportEntry) string {
	return PackageName(imp.Path)
}

// predeclared Go 预声明的类型、函数和常量
var predeclared = map[string]bool{
	"bool": true, "byte": true, "complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true, "int": true, "int8": true, "int16": true,
	"int32": true, "int64": true, "rune": true, "string": true, "uint": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"any": true, "comparable": true,

	"append": true, "cap": true, "clear": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true, "make": true,
	"max": true, "min": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,

	"true": true, "false": true, "iota": true, "nil": true, "_": true,

	// 前端用来表示复合类型的基名
	"map": true, "chan": true, "func": true,
}

func (g *SymbolResolver) IsBuiltinType(name string) bool {
	return predeclared[name]
}
