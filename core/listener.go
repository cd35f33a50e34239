package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/CodMac/arch-depends/model"
)

// ==================== 前端事件契约 ====================

// TypeRef 前端给出的结构化类型文本：List<Map<K, User>> 拆成基名和实参
type TypeRef struct {
	Name     string          // 基名，可以是点分限定名；数组、指针等修饰已去掉
	Args     []TypeRef       // 泛型实参 / Go 的 map、chan 元素类型
	Dims     int             // 数组维数，只参与方法签名
	Location *model.Location // 类型文本所在位置
}

// Text 还原类型文本，用于方法签名
func (t TypeRef) Text() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	s := t.Name + "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ","
		}
		s += a.Text()
	}
	return s + ">"
}

// SuperRef 父类型声明 (extends / implements / 嵌入)
type SuperRef struct {
	Type TypeRef
	Kind model.DependencyType // model.Extend 或 model.Implement
}

type TypeDecl struct {
	Name       string // 为空表示匿名类型，由收集器生成 $n 名字
	Flavor     model.TypeFlavor
	Modifiers  []string
	Supers     []SuperRef
	TypeParams []model.TypeParam
	Location   *model.Location
}

type ParamDecl struct {
	Name     string
	Type     TypeRef
	Location *model.Location
}

type MethodDecl struct {
	Name          string
	Modifiers     []string
	IsConstructor bool
	Params        []ParamDecl
	Return        *TypeRef
	Throws        []TypeRef
	Receiver      *TypeRef // Go 方法接收者
	VarArgs       bool
	TypeParams    []model.TypeParam
	Location      *model.Location
}

type VarDecl struct {
	Name      string
	Type      *TypeRef // 为空表示类型由推断得到 (var x = ..., x := ...)
	Modifiers []string
	Location  *model.Location
}

// CallExpr 方法调用：recv.a().name(args)
type CallExpr struct {
	Name     string
	Receiver []model.Segment
	Arity    int
	Location *model.Location
}

// AccessExpr 字段/变量访问，Write 为 true 表示赋值左侧
type AccessExpr struct {
	Name     string
	Receiver []model.Segment
	Write    bool
	Location *model.Location
}

// Listener 是语言前端遍历语法树时回调的固定事件集合。
// 事件必须按源码顺序发出，Enter/Exit 成对出现。
type Listener interface {
	StartFile(path string)
	OnPackage(name string, loc *model.Location)
	OnImport(imp model.ImportEntry)

	EnterType(decl TypeDecl)
	ExitType()
	EnterMethod(decl MethodDecl)
	ExitMethod()
	OnField(decl VarDecl)
	OnVariable(decl VarDecl)
	OnParameter(decl ParamDecl)

	OnTypeReference(kind model.DependencyType, ref TypeRef)
	OnCall(call CallExpr)
	OnCreate(ref TypeRef, arity int)
	OnFieldAccess(access AccessExpr)
	OnCast(ref TypeRef)
	OnThrow(ref TypeRef)
	OnAnnotation(name string, loc *model.Location)

	EndFile()
}

// FrontEnd 语言前端：把源码解析成语法树并按 Listener 契约发出事件
type FrontEnd interface {
	Language() Language
	// Version 前端版本，参与缓存键，语法或事件发生变化时必须更新
	Version() string
	Extensions() []string
	Parse(ctx context.Context, path string, src []byte, l Listener) error
}

var (
	frontEndMu  sync.RWMutex
	frontEndMap = make(map[Language]FrontEnd)
)

// RegisterFrontEnd 注册一个语言前端
func RegisterFrontEnd(fe FrontEnd) {
	frontEndMu.Lock()
	defer frontEndMu.Unlock()
	frontEndMap[fe.Language()] = fe
}

// GetFrontEnd 根据语言类型获取对应的前端
func GetFrontEnd(lang Language) (FrontEnd, error) {
	frontEndMu.RLock()
	defer frontEndMu.RUnlock()
	fe, ok := frontEndMap[lang]
	if !ok {
		return nil, fmt.Errorf("%w for language: %s", ErrNoFrontEnd, lang)
	}
	return fe, nil
}

// RegisteredLanguages 返回已注册前端的语言，按名字排序
func RegisteredLanguages() []Language {
	frontEndMu.RLock()
	defer frontEndMu.RUnlock()
	out := make([]Language, 0, len(frontEndMap))
	for l := range frontEndMap {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
