package model

// ImportEntry 一条导入声明
type ImportEntry struct {
	Path       string    `json:"Path"`            // 原始导入路径 (java.util.List / fmt)
	Alias      string    `json:"Alias,omitempty"` // 文件内可见的名字，通配符导入为空
	IsWildcard bool      `json:"IsWildcard,omitempty"`
	IsStatic   bool      `json:"IsStatic,omitempty"`
	Location   *Location `json:"Location,omitempty"`
}

// EntityRecord 是实体在快照中的记录，Owner 为快照内的下标 (-1 表示没有所有者)
type EntityRecord struct {
	Kind          ElementKind    `json:"Kind"`
	Name          string         `json:"Name"`
	QualifiedName string         `json:"QualifiedName"`
	Owner         int            `json:"Owner"`
	Location      *Location      `json:"Location,omitempty"`
	Modifiers     []string       `json:"Modifiers,omitempty"`
	Synthetic     bool           `json:"Synthetic,omitempty"`
	TypeInfo      *TypePayload   `json:"TypeInfo,omitempty"`
	MethodInfo    *MethodPayload `json:"MethodInfo,omitempty"`
	VarInfo       *VarPayload    `json:"VarInfo,omitempty"`
}

// ReferenceRecord 是未解析引用在快照中的记录，Source 为快照内的实体下标
type ReferenceRecord struct {
	Source   int              `json:"Source"`
	Target   TargetDescriptor `json:"Target"`
	Kind     DependencyType   `json:"Kind"`
	Context  RefContext       `json:"Context"`
	Location *Location        `json:"Location,omitempty"`
	Ordinal  int              `json:"Ordinal"`
	Slot     SlotRef          `json:"Slot"`
}

// FileSnapshot 是单个文件收集结果的可序列化形式，缓存命中时原样回放
type FileSnapshot struct {
	FilePath   string            `json:"FilePath"`
	Language   string            `json:"Language"`
	Package    string            `json:"Package,omitempty"`
	Imports    []ImportEntry     `json:"Imports,omitempty"`
	Entities   []EntityRecord    `json:"Entities"`
	References []ReferenceRecord `json:"References"`
}

// CloneSlots 返回只保留 Raw 的新槽列表，回放时不能共享解析状态
func CloneSlots(in []*TypeSlot) []*TypeSlot {
	if in == nil {
		return nil
	}
	out := make([]*TypeSlot, len(in))
	for i, s := range in {
		out[i] = CloneSlot(s)
	}
	return out
}

// CloneSlot 复制单个槽的原始文本；没有原始文本的槽不会被任何引用解析，保持外部状态
func CloneSlot(s *TypeSlot) *TypeSlot {
	if s == nil {
		return nil
	}
	if s.Raw == "" {
		return &TypeSlot{State: SlotExternal}
	}
	return &TypeSlot{Raw: s.Raw}
}

// ClonePayloads 深拷贝实体载荷并清空解析状态
func ClonePayloads(tp *TypePayload, mp *MethodPayload, vp *VarPayload) (*TypePayload, *MethodPayload, *VarPayload) {
	var t *TypePayload
	if tp != nil {
		t = &TypePayload{Flavor: tp.Flavor, Supers: CloneSlots(tp.Supers), TypeParams: append([]TypeParam(nil), tp.TypeParams...)}
	}
	var m *MethodPayload
	if mp != nil {
		m = &MethodPayload{
			IsConstructor: mp.IsConstructor,
			Params:        CloneSlots(mp.Params),
			Return:        CloneSlot(mp.Return),
			Throws:        CloneSlots(mp.Throws),
			Receiver:      CloneSlot(mp.Receiver),
			VarArgs:       mp.VarArgs,
			TypeParams:    append([]TypeParam(nil), mp.TypeParams...),
		}
	}
	var v *VarPayload
	if vp != nil {
		v = &VarPayload{DeclType: CloneSlot(vp.DeclType), Index: vp.Index}
	}
	return t, m, v
}
