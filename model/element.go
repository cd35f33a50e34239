package model

import "fmt"

// --- 实体类型 (Entity Kinds) ---

// ElementKind 是封闭枚举，所有语言的实体都归一到这七种类型
type ElementKind string

const (
	File      ElementKind = "FILE"      // 源文件
	Namespace ElementKind = "NAMESPACE" // 包/命名空间 (Java package, Go package)
	Type      ElementKind = "TYPE"      // 类、接口、枚举、结构体、注解、类型别名
	Method    ElementKind = "METHOD"    // 方法、构造函数、独立函数
	Field     ElementKind = "FIELD"     // 类/结构体成员、枚举常量
	Variable  ElementKind = "VARIABLE"  // 局部/包级变量与常量
	Parameter ElementKind = "PARAMETER" // 方法参数
)

// AllKinds 按包含层级从外到内排列
var AllKinds = []ElementKind{Namespace, File, Type, Method, Field, Variable, Parameter}

// ParseElementKind 将字符串转换为 ElementKind，未知值返回错误
func ParseElementKind(s string) (ElementKind, error) {
	switch k := ElementKind(s); k {
	case File, Namespace, Type, Method, Field, Variable, Parameter:
		return k, nil
	}
	return "", fmt.Errorf("unknown element kind: %s", s)
}

// IsTypeLike 返回该类型的实体是否能作为其他实体的"类型"
func (k ElementKind) IsTypeLike() bool { return k == Type }

// IsValueLike 返回该类型的实体在表达式中是否代表一个值
func (k ElementKind) IsValueLike() bool {
	return k == Field || k == Variable || k == Parameter
}

// TypeFlavor 细分 Type 实体的语言形态，只作为载荷，不参与 Kind 匹配
type TypeFlavor string

const (
	Class          TypeFlavor = "CLASS"
	Interface      TypeFlavor = "INTERFACE"
	Enum           TypeFlavor = "ENUM"
	Record         TypeFlavor = "RECORD"
	Struct         TypeFlavor = "STRUCT"
	AnnotationType TypeFlavor = "ANNOTATION"
	Alias          TypeFlavor = "ALIAS"
)

// EntityID 是实体在一次分析中的唯一标识，0 表示"无"
type EntityID uint64

// Location 描述了代码元素或依赖关系在源码中的位置
type Location struct {
	FilePath    string `json:"FilePath"`
	StartLine   int    `json:"StartLine"`
	EndLine     int    `json:"EndLine"`
	StartColumn int    `json:"StartColumn"`
	EndColumn   int    `json:"EndColumn"`
}

// Before 判断 l 是否在 other 之前开始 (同一文件内)
func (l *Location) Before(other *Location) bool {
	if l == nil || other == nil {
		return false
	}
	if l.StartLine != other.StartLine {
		return l.StartLine < other.StartLine
	}
	return l.StartColumn < other.StartColumn
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartColumn)
}

// --- 类型槽 (Type Slots) ---

// SlotState 描述一个类型引用槽的解析进度
type SlotState uint8

const (
	SlotPending  SlotState = iota // 尚未解析
	SlotBound                     // 已绑定到语料中的实体
	SlotExternal                  // 内置类型、外部库或确定无法解析，不再阻塞继承查找
)

// TypeSlot 保存一个声明处的类型引用 (父类、参数类型、返回值类型、字段类型等)。
// Raw 在收集阶段写入，Resolved/State 只由解析阶段的 Binder 写入。
type TypeSlot struct {
	Raw      string     `json:"Raw"`
	State    SlotState  `json:"State"`
	Resolved []EntityID `json:"Resolved,omitempty"`
}

// Done 表示该槽已经不会再变化
func (s *TypeSlot) Done() bool { return s == nil || s.State != SlotPending }

// TypeParam 泛型形参及其上界
type TypeParam struct {
	Name  string `json:"Name"`
	Bound string `json:"Bound,omitempty"`
}

// TypePayload 是 Type 实体的载荷
type TypePayload struct {
	Flavor     TypeFlavor  `json:"Flavor"`
	Supers     []*TypeSlot `json:"Supers,omitempty"` // extends / implements / 嵌入结构体，按声明顺序
	TypeParams []TypeParam `json:"TypeParams,omitempty"`
}

// MethodPayload 是 Method 实体的载荷
type MethodPayload struct {
	IsConstructor bool        `json:"IsConstructor,omitempty"`
	Params        []*TypeSlot `json:"Params,omitempty"`
	Return        *TypeSlot   `json:"Return,omitempty"`
	Throws        []*TypeSlot `json:"Throws,omitempty"`
	Receiver      *TypeSlot   `json:"Receiver,omitempty"` // Go 方法接收者
	VarArgs       bool        `json:"VarArgs,omitempty"`
	TypeParams    []TypeParam `json:"TypeParams,omitempty"`
}

// Arity 返回形参个数
func (m *MethodPayload) Arity() int {
	if m == nil {
		return 0
	}
	return len(m.Params)
}

// Accepts 判断该方法能否接收 n 个实参，n < 0 表示未知
func (m *MethodPayload) Accepts(n int) bool {
	if n < 0 || m == nil {
		return true
	}
	if m.VarArgs {
		return n >= len(m.Params)-1
	}
	return n == len(m.Params)
}

// VarPayload 是 Field/Variable/Parameter 实体的载荷
type VarPayload struct {
	DeclType *TypeSlot `json:"DeclType,omitempty"`
	Index    int       `json:"Index"` // 参数序号，其他为 0
}

// --- 实体 (Entity) ---

// Entity 是依赖图的节点。除载荷中的 TypeSlot 外，注册完成后不再修改。
type Entity struct {
	ID            EntityID    `json:"ID"`
	Kind          ElementKind `json:"Kind"`
	Name          string      `json:"Name"`
	QualifiedName string      `json:"QualifiedName"`
	Owner         EntityID    `json:"Owner,omitempty"`
	Language      string      `json:"Language,omitempty"`
	Location      *Location   `json:"Location,omitempty"`
	Modifiers     []string    `json:"Modifiers,omitempty"`
	Synthetic     bool        `json:"Synthetic,omitempty"` // 错误恢复时创建的占位实体

	TypeInfo   *TypePayload   `json:"TypeInfo,omitempty"`
	MethodInfo *MethodPayload `json:"MethodInfo,omitempty"`
	VarInfo    *VarPayload    `json:"VarInfo,omitempty"`
}

// Path 返回实体所在的文件路径
func (e *Entity) Path() string {
	if e == nil || e.Location == nil {
		return ""
	}
	return e.Location.FilePath
}

// HasModifier 判断是否带有指定修饰符
func (e *Entity) HasModifier(m string) bool {
	for _, x := range e.Modifiers {
		if x == m {
			return true
		}
	}
	return false
}

// DeclaredType 返回值类实体的声明类型槽
func (e *Entity) DeclaredType() *TypeSlot {
	if e.VarInfo == nil {
		return nil
	}
	return e.VarInfo.DeclType
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.QualifiedName)
}
