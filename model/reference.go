package model

import (
	"fmt"
	"strings"
)

// RefContext 描述引用出现的语法上下文，决定候选实体的类型约束
type RefContext string

const (
	TypeContext       RefContext = "TYPE"       // 目标必须是类型 (参数、返回值、字段类型等)
	SupertypeContext  RefContext = "SUPERTYPE"  // 目标必须是用作父类型的类型
	CallableContext   RefContext = "CALLABLE"   // 目标可以是任何名为 X 的可调用实体
	ValueContext      RefContext = "VALUE"      // 目标是字段、变量或参数
	AnnotationContext RefContext = "ANNOTATION" // 目标是注解类型
	NamespaceContext  RefContext = "NAMESPACE"  // import 语句，可以是包、类型或静态成员
)

// Kinds 返回该上下文允许的目标实体类型
func (c RefContext) Kinds() []ElementKind {
	switch c {
	case TypeContext, SupertypeContext, AnnotationContext:
		return []ElementKind{Type}
	case CallableContext:
		return []ElementKind{Method}
	case ValueContext:
		return []ElementKind{Field, Variable, Parameter}
	case NamespaceContext:
		return []ElementKind{Namespace, Type, Method, Field}
	}
	return nil
}

// SegmentKind 接收者链上每一段的形态
type SegmentKind uint8

const (
	SegName  SegmentKind = iota // 标识符: a
	SegCall                     // 方法调用结果: a()
	SegNew                      // 实例创建结果: new A()
	SegThis                     // this
	SegSuper                    // super
)

// Segment 是接收者链 a.b().c 中的一段
type Segment struct {
	Name  string      `json:"Name,omitempty"`
	Kind  SegmentKind `json:"Kind"`
	Arity int         `json:"Arity,omitempty"`
}

func (s Segment) String() string {
	switch s.Kind {
	case SegCall:
		return s.Name + "()"
	case SegNew:
		return "new " + s.Name + "()"
	case SegThis:
		return "this"
	case SegSuper:
		return "super"
	}
	return s.Name
}

// TargetDescriptor 是引用目标的原始语法描述
type TargetDescriptor struct {
	Name     string    `json:"Name"`               // 简单名或点分限定名
	Receiver []Segment `json:"Receiver,omitempty"` // 成员访问的接收者链，空表示无限定
	Arity    int       `json:"Arity"`              // 调用实参个数，-1 表示未知
	TypeArgs []string  `json:"TypeArgs,omitempty"` // 泛型实参提示
}

// SimpleName 返回点分名的最后一段
func (d TargetDescriptor) SimpleName() string {
	if i := strings.LastIndexAny(d.Name, ".$"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// IsQualified 名字本身带有点分限定
func (d TargetDescriptor) IsQualified() bool { return strings.Contains(d.Name, ".") }

func (d TargetDescriptor) String() string {
	if len(d.Receiver) == 0 {
		return d.Name
	}
	parts := make([]string, 0, len(d.Receiver)+1)
	for _, s := range d.Receiver {
		parts = append(parts, s.String())
	}
	return strings.Join(append(parts, d.Name), ".")
}

// SlotField 标识解析结果需要回写的载荷字段
type SlotField uint8

const (
	SlotNone SlotField = iota
	SlotSuper
	SlotParam
	SlotReturn
	SlotThrows
	SlotReceiver
	SlotDeclType
)

// SlotRef 指向某个实体上的某个类型槽
type SlotRef struct {
	Field SlotField `json:"Field"`
	Index int       `json:"Index"`
}

// UnresolvedReference 是收集阶段产生的临时记录，解析后即被丢弃
type UnresolvedReference struct {
	Source   EntityID         `json:"Source"`
	Target   TargetDescriptor `json:"Target"`
	Kind     DependencyType   `json:"Kind"`
	Context  RefContext       `json:"Context"`
	Location *Location        `json:"Location,omitempty"`
	Ordinal  int              `json:"Ordinal"` // 文件内的源码顺序
	Slot     SlotRef          `json:"Slot"`    // Source 实体上需要回写的槽，Field 为 SlotNone 时不回写
	FilePath string           `json:"FilePath"`
}

// OccurrenceKey 唯一标识一次源码出现，用于图构建时去重
func (r *UnresolvedReference) OccurrenceKey() string {
	if r.Location == nil {
		return fmt.Sprintf("%s#%d", r.FilePath, r.Ordinal)
	}
	return fmt.Sprintf("%s:%d:%d#%d", r.FilePath, r.Location.StartLine, r.Location.StartColumn, r.Ordinal)
}

func (r *UnresolvedReference) String() string {
	return fmt.Sprintf("%s %s @%s", r.Kind, r.Target.String(), r.Location.String())
}

// --- 解析结果 (Resolved Bindings) ---

// Confidence 绑定的可信程度
type Confidence string

const (
	Exact     Confidence = "EXACT"     // 限定名精确匹配
	Local     Confidence = "LOCAL"     // 词法作用域内绑定
	Imported  Confidence = "IMPORTED"  // 通过导入唯一确定
	Heuristic Confidence = "HEURISTIC" // 全语料简单名唯一匹配
	Ambiguous Confidence = "AMBIGUOUS" // 多个候选，权重均分
)

// Binding 是一次引用到目标实体的解析结果
type Binding struct {
	Source     EntityID       `json:"Source"`
	Target     EntityID       `json:"Target"`
	Kind       DependencyType `json:"Kind"`
	Weight     float64        `json:"Weight"`
	Confidence Confidence     `json:"Confidence"`
	Occurrence string         `json:"Occurrence"`
}
