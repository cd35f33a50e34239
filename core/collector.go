package core

import (
	"fmt"

	"github.com/CodMac/arch-depends/model"
)

// frame 收集器的声明上下文栈帧
type frame struct {
	id    model.EntityID
	kind  model.ElementKind
	qn    string
	names map[string]int // 同一作用域内重名局部变量计数
	anon  int            // 匿名类型计数
}

// Collector 实现 Listener：把前端事件转换成实体注册和未解析引用。
// 每个文件一个实例，只记录语法事实，不做任何名字解析。
type Collector struct {
	repo  *Repository
	rules SymbolResolver
	lang  Language
	diag  *Diagnostics

	fc    *FileContext
	stack []*frame
	nsQN  string

	snap  *model.FileSnapshot
	local map[model.EntityID]int
}

func NewCollector(repo *Repository, rules SymbolResolver, lang Language, diag *Diagnostics) *Collector {
	return &Collector{repo: repo, rules: rules, lang: lang, diag: diag}
}

// Context 返回当前文件的收集结果
func (c *Collector) Context() *FileContext { return c.fc }

// ==================== 文件与包 ====================

func (c *Collector) StartFile(path string) {
	c.fc = NewFileContext(path, c.lang)
	c.stack = c.stack[:0]
	c.nsQN = ""
	c.snap = &model.FileSnapshot{FilePath: path, Language: string(c.lang)}
	c.local = make(map[model.EntityID]int)
}

func (c *Collector) OnPackage(name string, loc *model.Location) {
	c.ensureStarted()
	if len(c.stack) > 0 {
		c.malformed(fmt.Sprintf("package %s declared after file content", name), loc)
		return
	}
	c.fc.PackageName = name
	c.snap.Package = name
	c.nsQN = name
	c.fc.NamespaceID = c.rules.RegisterPackage(c.repo, name)
	c.ensureFile()
}

func (c *Collector) OnImport(imp model.ImportEntry) {
	file := c.ensureFile()
	c.fc.AddImport(imp)
	c.snap.Imports = append(c.snap.Imports, imp)
	c.addRef(file.id, model.Import, model.NamespaceContext, model.TargetDescriptor{Name: c.rules.ImportTarget(imp), Arity: -1}, imp.Location, model.SlotRef{})
}

// ==================== 声明 ====================

func (c *Collector) EnterType(decl TypeDecl) {
	owner := c.top()
	name := decl.Name
	if name == "" {
		owner.anon++
		name = fmt.Sprintf("$%d", owner.anon)
	}
	qn := c.rules.BuildQualifiedName(c.parentQN(owner), name)

	payload := &model.TypePayload{Flavor: decl.Flavor, TypeParams: decl.TypeParams}
	for _, s := range decl.Supers {
		payload.Supers = append(payload.Supers, rawSlot(s.Type.Name))
	}
	id := c.register(model.Type, qn, owner.id, EntitySpec{
		Name: name, Location: decl.Location, Modifiers: decl.Modifiers, TypeInfo: payload,
	})
	c.push(id, model.Type, qn)

	for i, s := range decl.Supers {
		kind := s.Kind
		if kind != model.Implement {
			kind = model.Extend
		}
		c.addTypeRef(id, kind, model.SupertypeContext, s.Type, model.SlotRef{Field: model.SlotSuper, Index: i})
	}
}

func (c *Collector) ExitType() { c.pop(model.Type) }

func (c *Collector) EnterMethod(decl MethodDecl) {
	owner := c.top()
	qn := c.rules.MethodQualifiedName(c.parentQN(owner), decl)

	payload := &model.MethodPayload{
		IsConstructor: decl.IsConstructor,
		VarArgs:       decl.VarArgs,
		TypeParams:    decl.TypeParams,
	}
	for _, p := range decl.Params {
		payload.Params = append(payload.Params, rawSlot(p.Type.Name))
	}
	if decl.Return != nil {
		payload.Return = rawSlot(decl.Return.Name)
	}
	for _, t := range decl.Throws {
		payload.Throws = append(payload.Throws, rawSlot(t.Name))
	}
	if decl.Receiver != nil {
		payload.Receiver = rawSlot(decl.Receiver.Name)
	}
	id := c.register(model.Method, qn, owner.id, EntitySpec{
		Name: decl.Name, Location: decl.Location, Modifiers: decl.Modifiers, MethodInfo: payload,
	})
	c.push(id, model.Method, qn)

	for i, p := range decl.Params {
		pqn := c.rules.BuildQualifiedName(qn, p.Name)
		c.register(model.Parameter, pqn, id, EntitySpec{
			Name: p.Name, Location: p.Location,
			VarInfo: &model.VarPayload{DeclType: rawSlot(p.Type.Name), Index: i},
		})
		c.addTypeRef(id, model.ParamType, model.TypeContext, p.Type, model.SlotRef{Field: model.SlotParam, Index: i})
	}
	if decl.Receiver != nil {
		c.addTypeRef(id, model.Receiver, model.TypeContext, *decl.Receiver, model.SlotRef{Field: model.SlotReceiver})
	}
	if decl.Return != nil {
		c.addTypeRef(id, model.Return, model.TypeContext, *decl.Return, model.SlotRef{Field: model.SlotReturn})
	}
	for i, t := range decl.Throws {
		c.addTypeRef(id, model.Throw, model.TypeContext, t, model.SlotRef{Field: model.SlotThrows, Index: i})
	}
}

func (c *Collector) ExitMethod() { c.pop(model.Method) }

// OnField 字段必须声明在类型内，否则创建占位类型承载它
func (c *Collector) OnField(decl VarDecl) {
	owner := c.top()
	if owner.kind != model.Type {
		owner = c.placeholderType(owner, decl.Location)
	}
	c.declareVar(owner, model.Field, decl)
}

func (c *Collector) OnVariable(decl VarDecl) {
	c.declareVar(c.top(), model.Variable, decl)
}

func (c *Collector) OnParameter(decl ParamDecl) {
	t := decl.Type
	c.declareVar(c.top(), model.Parameter, VarDecl{Name: decl.Name, Type: &t, Location: decl.Location})
}

func (c *Collector) declareVar(owner *frame, kind model.ElementKind, decl VarDecl) {
	name := decl.Name
	if owner.names == nil {
		owner.names = make(map[string]int)
	}
	owner.names[name]++
	if n := owner.names[name]; n > 1 && kind != model.Field {
		name = fmt.Sprintf("%s#%d", decl.Name, n)
	}
	qn := c.rules.BuildQualifiedName(c.parentQN(owner), name)

	vp := &model.VarPayload{}
	if kind == model.Parameter {
		// lambda / catch 参数不对应方法签名中的位置
		vp.Index = -1
	}
	if decl.Type != nil && decl.Type.Name != "" {
		vp.DeclType = &model.TypeSlot{Raw: decl.Type.Name}
	}
	id := c.register(kind, qn, owner.id, EntitySpec{
		Name: decl.Name, Location: decl.Location, Modifiers: decl.Modifiers, VarInfo: vp,
	})
	if decl.Type != nil {
		c.addTypeRef(id, model.UseType, model.TypeContext, *decl.Type, model.SlotRef{Field: model.SlotDeclType})
	}
}

// ==================== 引用 ====================

func (c *Collector) OnTypeReference(kind model.DependencyType, ref TypeRef) {
	ctx := model.TypeContext
	if kind == model.Annotation {
		ctx = model.AnnotationContext
	}
	c.addTypeRef(c.top().id, kind, ctx, ref, model.SlotRef{})
}

func (c *Collector) OnCall(call CallExpr) {
	c.addRef(c.top().id, model.Call, model.CallableContext,
		model.TargetDescriptor{Name: call.Name, Receiver: call.Receiver, Arity: call.Arity}, call.Location, model.SlotRef{})
}

func (c *Collector) OnCreate(ref TypeRef, arity int) {
	src := c.top().id
	c.addRef(src, model.Create, model.TypeContext,
		model.TargetDescriptor{Name: ref.Name, Arity: arity, TypeArgs: argNames(ref)}, ref.Location, model.SlotRef{})
	for _, a := range ref.Args {
		c.addTypeRef(src, model.TypeArg, model.TypeContext, a, model.SlotRef{})
	}
}

func (c *Collector) OnFieldAccess(access AccessExpr) {
	kind := model.Use
	if access.Write {
		kind = model.Assign
	}
	c.addRef(c.top().id, kind, model.ValueContext,
		model.TargetDescriptor{Name: access.Name, Receiver: access.Receiver, Arity: -1}, access.Location, model.SlotRef{})
}

func (c *Collector) OnCast(ref TypeRef) { c.OnTypeReference(model.Cast, ref) }

func (c *Collector) OnThrow(ref TypeRef) { c.OnTypeReference(model.Throw, ref) }

func (c *Collector) OnAnnotation(name string, loc *model.Location) {
	c.OnTypeReference(model.Annotation, TypeRef{Name: name, Location: loc})
}

// EndFile 关闭所有未闭合的作用域并生成缓存快照
func (c *Collector) EndFile() {
	c.ensureFile()
	if len(c.stack) > 1 {
		c.malformed(fmt.Sprintf("%d unclosed declarations at end of file", len(c.stack)-1), nil)
	}
	c.stack = c.stack[:1]

	c.snap.References = make([]model.ReferenceRecord, 0, len(c.fc.References))
	for _, r := range c.fc.References {
		c.snap.References = append(c.snap.References, model.ReferenceRecord{
			Source:   c.record(r.Source),
			Target:   r.Target,
			Kind:     r.Kind,
			Context:  r.Context,
			Location: r.Location,
			Ordinal:  r.Ordinal,
			Slot:     r.Slot,
		})
	}
	c.fc.snapshot = c.snap
}

// ==================== 内部辅助 ====================

func (c *Collector) addTypeRef(src model.EntityID, kind model.DependencyType, ctx model.RefContext, t TypeRef, slot model.SlotRef) {
	if t.Name == "" {
		return
	}
	c.addRef(src, kind, ctx, model.TargetDescriptor{Name: t.Name, Arity: -1, TypeArgs: argNames(t)}, t.Location, slot)
	for _, a := range t.Args {
		c.addTypeRef(src, model.TypeArg, model.TypeContext, a, model.SlotRef{})
	}
}

func (c *Collector) addRef(src model.EntityID, kind model.DependencyType, ctx model.RefContext, target model.TargetDescriptor, loc *model.Location, slot model.SlotRef) {
	if target.Name == "" {
		return
	}
	c.fc.AddReference(&model.UnresolvedReference{
		Source:   src,
		Target:   target,
		Kind:     kind,
		Context:  ctx,
		Location: loc,
		Slot:     slot,
	})
}

// rawSlot 没有类型文本的槽不会产生引用，直接视为外部，避免永远阻塞继承查找
func rawSlot(name string) *model.TypeSlot {
	if name == "" {
		return &model.TypeSlot{State: model.SlotExternal}
	}
	return &model.TypeSlot{Raw: name}
}

func argNames(t TypeRef) []string {
	if len(t.Args) == 0 {
		return nil
	}
	out := make([]string, 0, len(t.Args))
	for _, a := range t.Args {
		out = append(out, a.Name)
	}
	return out
}

func (c *Collector) register(kind model.ElementKind, qn string, owner model.EntityID, spec EntitySpec) model.EntityID {
	spec.Language = c.lang
	if spec.Location != nil && spec.Location.FilePath == "" {
		spec.Location.FilePath = c.fc.FilePath
	}
	id, _ := c.repo.RegisterEntity(kind, qn, owner, spec)
	c.record(id)
	return id
}

// record 把实体 (连同尚未记录的所有者链) 写入快照，返回快照内下标
func (c *Collector) record(id model.EntityID) int {
	if idx, ok := c.local[id]; ok {
		return idx
	}
	e := c.repo.Get(id)
	if e == nil {
		return -1
	}
	owner := -1
	if e.Owner != 0 {
		owner = c.record(e.Owner)
	}
	tp, mp, vp := model.ClonePayloads(e.TypeInfo, e.MethodInfo, e.VarInfo)
	c.snap.Entities = append(c.snap.Entities, model.EntityRecord{
		Kind:          e.Kind,
		Name:          e.Name,
		QualifiedName: e.QualifiedName,
		Owner:         owner,
		Location:      e.Location,
		Modifiers:     e.Modifiers,
		Synthetic:     e.Synthetic,
		TypeInfo:      tp,
		MethodInfo:    mp,
		VarInfo:       vp,
	})
	idx := len(c.snap.Entities) - 1
	c.local[id] = idx
	return idx
}

func (c *Collector) ensureStarted() {
	if c.fc == nil {
		c.StartFile("<unknown>")
		c.malformed("event received before StartFile", nil)
	}
}

// ensureFile 文件实体在第一个非 package 事件时注册，所有者是文件所属的命名空间
func (c *Collector) ensureFile() *frame {
	c.ensureStarted()
	if len(c.stack) > 0 {
		return c.stack[0]
	}
	id := c.register(model.File, c.fc.FilePath, c.fc.NamespaceID, EntitySpec{
		Name:     baseName(c.fc.FilePath),
		Location: &model.Location{FilePath: c.fc.FilePath},
	})
	c.fc.FileID = id
	c.stack = append(c.stack, &frame{id: id, kind: model.File, qn: c.fc.FilePath})
	return c.stack[0]
}

func (c *Collector) top() *frame {
	c.ensureFile()
	return c.stack[len(c.stack)-1]
}

func (c *Collector) push(id model.EntityID, kind model.ElementKind, qn string) {
	c.stack = append(c.stack, &frame{id: id, kind: kind, qn: qn})
}

// pop 弹出最近的指定类型帧；不匹配时记录诊断并尽量恢复
func (c *Collector) pop(kind model.ElementKind) {
	for i := len(c.stack) - 1; i > 0; i-- {
		if c.stack[i].kind == kind {
			if i != len(c.stack)-1 {
				c.malformed(fmt.Sprintf("exit %s closes %d inner declarations", kind, len(c.stack)-1-i), nil)
			}
			c.stack = c.stack[:i]
			return
		}
	}
	c.malformed(fmt.Sprintf("exit %s without matching enter", kind), nil)
}

// parentQN 类型和函数的限定名挂在命名空间下，而不是文件路径下
func (c *Collector) parentQN(f *frame) string {
	if f.kind == model.File {
		return c.nsQN
	}
	return f.qn
}

func (c *Collector) placeholderType(owner *frame, loc *model.Location) *frame {
	qn := c.rules.BuildQualifiedName(c.parentQN(owner), "<orphan>")
	id := c.register(model.Type, qn, owner.id, EntitySpec{Name: "<orphan>", Synthetic: true, TypeInfo: &model.TypePayload{}})
	c.malformed("member declared outside of any type", loc)
	return &frame{id: id, kind: model.Type, qn: qn}
}

func (c *Collector) malformed(msg string, loc *model.Location) {
	c.diag.Add(NewAnalysisError(MalformedEntity, msg, loc, nil))
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// ==================== 缓存回放 ====================

// Replay 把缓存快照直接回放进仓库，跳过解析和收集，返回与收集结果等价的 FileContext
func (c *Collector) Replay(snap *model.FileSnapshot) (*FileContext, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, NewAnalysisError(CacheCorruption, "invalid cache snapshot", nil, err)
	}
	fc := NewFileContext(snap.FilePath, c.lang)
	fc.PackageName = snap.Package
	fc.FromCache = true
	fc.snapshot = snap

	ids := make([]model.EntityID, len(snap.Entities))
	for i, rec := range snap.Entities {
		var owner model.EntityID
		if rec.Owner >= 0 {
			owner = ids[rec.Owner]
		}
		tp, mp, vp := model.ClonePayloads(rec.TypeInfo, rec.MethodInfo, rec.VarInfo)
		id, _ := c.repo.RegisterEntity(rec.Kind, rec.QualifiedName, owner, EntitySpec{
			Name:       rec.Name,
			Language:   c.lang,
			Location:   rec.Location,
			Modifiers:  rec.Modifiers,
			Synthetic:  rec.Synthetic,
			TypeInfo:   tp,
			MethodInfo: mp,
			VarInfo:    vp,
		})
		ids[i] = id
		if rec.Kind == model.File && rec.QualifiedName == snap.FilePath {
			fc.FileID = id
			fc.NamespaceID = owner
		}
	}
	for _, imp := range snap.Imports {
		fc.AddImport(imp)
	}
	for _, rr := range snap.References {
		fc.References = append(fc.References, &model.UnresolvedReference{
			Source:   ids[rr.Source],
			Target:   rr.Target,
			Kind:     rr.Kind,
			Context:  rr.Context,
			Location: rr.Location,
			Ordinal:  rr.Ordinal,
			Slot:     rr.Slot,
			FilePath: snap.FilePath,
		})
	}
	c.fc = fc
	return fc, nil
}

func validateSnapshot(snap *model.FileSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	hasFile := false
	for i, rec := range snap.Entities {
		if rec.Owner >= i {
			return fmt.Errorf("entity %d owner %d is not recorded before it", i, rec.Owner)
		}
		if _, err := model.ParseElementKind(string(rec.Kind)); err != nil {
			return err
		}
		if rec.Kind == model.File && rec.QualifiedName == snap.FilePath {
			hasFile = true
		}
	}
	if !hasFile {
		return fmt.Errorf("file entity missing")
	}
	for i, rr := range snap.References {
		if rr.Source < 0 || rr.Source >= len(snap.Entities) {
			return fmt.Errorf("reference %d source %d out of range", i, rr.Source)
		}
	}
	return nil
}
