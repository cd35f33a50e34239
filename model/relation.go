package model

import "fmt"

// --- 依赖关系类型 (Dependency Relation Types) ---

// DependencyType 是表示依赖关系的字符串常量 (封闭枚举)
type DependencyType string

const (
	// --- 1. 组织关系 ---

	// Import 导入: 源码文件引用了外部包/类
	// e.g., [Java: Source(File) -> Target(Type/Namespace)]
	Import DependencyType = "IMPORT"

	// --- 2. 继承与实现 ---

	// Extend 继承: 类与类、接口与接口之间的继承，Go 结构体/接口嵌入
	// e.g., [Java: Source(Type) -> Target(Type)]
	Extend DependencyType = "EXTEND"

	// Implement 实现: 类实现接口
	// e.g., [Java: Source(Type) -> Target(Type)]
	Implement DependencyType = "IMPLEMENT"

	// Override 重写: 子类方法覆盖父类/接口中同名同参数个数的方法
	// e.g., [Java: Source(Method) -> Target(Method)]
	Override DependencyType = "OVERRIDE"

	// Receiver 接收者: Go 方法挂载到的类型
	// e.g., [Go: Source(Method) -> Target(Type)]
	Receiver DependencyType = "RECEIVER"

	// --- 3. 类型绑定与元数据 ---

	// Annotation 注解: 符号被特定注解修饰
	Annotation DependencyType = "ANNOTATION"

	// ParamType 参数类型: 方法参数对类型的依赖
	ParamType DependencyType = "PARAMETER"

	// Return 返回类型: 方法返回值对类型的依赖
	Return DependencyType = "RETURN"

	// Throw 抛出异常: 方法声明抛出或方法体中 throw 的异常类型
	Throw DependencyType = "THROW"

	// TypeArg 泛型实参: List<User> 中的 User
	TypeArg DependencyType = "TYPE_ARG"

	// UseType 声明类型: 字段/变量声明对类型的依赖
	// e.g., [Java: Source(Field/Variable) -> Target(Type)]
	UseType DependencyType = "USE_TYPE"

	// --- 4. 行为 ---

	// Call 调用: 方法/函数调用
	Call DependencyType = "CALL"

	// Create 实例创建: new 表达式 / Go 复合字面量
	Create DependencyType = "CREATE"

	// Cast 强转: 显式类型转换 / Go 类型断言
	Cast DependencyType = "CAST"

	// --- 5. 数据流 ---

	// Use 使用: 读取字段、变量或常量
	Use DependencyType = "USE"

	// Assign 赋值: 写入字段或变量
	Assign DependencyType = "ASSIGN"
)

// AllDependencyTypes 固定顺序，统计和导出时使用
var AllDependencyTypes = []DependencyType{
	Import, Extend, Implement, Override, Receiver,
	Annotation, ParamType, Return, Throw, TypeArg, UseType,
	Call, Create, Cast, Use, Assign,
}

// ParseDependencyType 将字符串转换为 DependencyType
func ParseDependencyType(s string) (DependencyType, error) {
	for _, t := range AllDependencyTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown dependency type: %s", s)
}

// TargetKinds 返回某种关系的目标实体允许的类型，用于候选过滤
func (t DependencyType) TargetKinds() []ElementKind {
	switch t {
	case Import:
		return []ElementKind{Type, Namespace, Method, Field}
	case Extend, Implement, Receiver, Annotation, ParamType, Return, Throw, TypeArg, UseType, Create, Cast:
		return []ElementKind{Type}
	case Override, Call:
		return []ElementKind{Method}
	case Use, Assign:
		return []ElementKind{Field, Variable, Parameter}
	}
	return nil
}

// IsStructural 继承类关系，解析结果会回写到类型槽
func (t DependencyType) IsStructural() bool {
	return t == Extend || t == Implement
}
