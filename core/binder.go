package core

import "github.com/CodMac/arch-depends/model"

// Binder 将解析出的类型回写到实体载荷的类型槽 (父类、参数、返回值、字段类型等)。
// 它是载荷的唯一写入者，每个槽只写一次。
type Binder struct {
	repo *Repository
}

func NewBinder(repo *Repository) *Binder {
	return &Binder{repo: repo}
}

// Bind 把引用的解析结果写入对应槽，只保留类型实体
func (b *Binder) Bind(ref *model.UnresolvedReference, targets []model.EntityID) {
	var types []model.EntityID
	for _, id := range targets {
		if e := b.repo.Get(id); e != nil && e.Kind == model.Type {
			types = append(types, id)
		}
	}
	if len(types) == 0 {
		b.MarkExternal(ref)
		return
	}
	b.write(ref, model.SlotBound, types)

	if ref.Slot.Field == model.SlotReceiver {
		for _, t := range types {
			b.repo.AttachMember(t, ref.Source)
		}
	}
}

// MarkExternal 内置类型、泛型擦除为空或确定无法解析时调用，解除对继承查找的阻塞
func (b *Binder) MarkExternal(ref *model.UnresolvedReference) {
	b.write(ref, model.SlotExternal, nil)
}

func (b *Binder) write(ref *model.UnresolvedReference, state model.SlotState, resolved []model.EntityID) {
	for _, slot := range b.slots(ref) {
		if slot == nil || slot.State != model.SlotPending {
			continue
		}
		slot.State = state
		slot.Resolved = resolved
	}
}

// slots 返回引用对应的槽；方法参数同时回写参数实体的声明类型
func (b *Binder) slots(ref *model.UnresolvedReference) []*model.TypeSlot {
	e := b.repo.Get(ref.Source)
	if e == nil {
		return nil
	}
	idx := ref.Slot.Index
	switch ref.Slot.Field {
	case model.SlotSuper:
		if e.TypeInfo != nil && idx < len(e.TypeInfo.Supers) {
			return []*model.TypeSlot{e.TypeInfo.Supers[idx]}
		}
	case model.SlotParam:
		if e.MethodInfo == nil || idx >= len(e.MethodInfo.Params) {
			return nil
		}
		out := []*model.TypeSlot{e.MethodInfo.Params[idx]}
		for _, pid := range b.repo.Children(e.ID, model.Parameter) {
			p := b.repo.Get(pid)
			if p.VarInfo != nil && p.VarInfo.Index == idx {
				out = append(out, p.VarInfo.DeclType)
				break
			}
		}
		return out
	case model.SlotReturn:
		if e.MethodInfo != nil {
			return []*model.TypeSlot{e.MethodInfo.Return}
		}
	case model.SlotThrows:
		if e.MethodInfo != nil && idx < len(e.MethodInfo.Throws) {
			return []*model.TypeSlot{e.MethodInfo.Throws[idx]}
		}
	case model.SlotReceiver:
		if e.MethodInfo != nil {
			return []*model.TypeSlot{e.MethodInfo.Receiver}
		}
	case model.SlotDeclType:
		if e.VarInfo != nil {
			return []*model.TypeSlot{e.VarInfo.DeclType}
		}
	}
	return nil
}
