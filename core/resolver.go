package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CodMac/arch-depends/model"
)

// outcomeStatus 单次解析尝试的结果
type outcomeStatus int

const (
	outResolved     outcomeStatus = iota // 得到一个或多个目标
	outExternal                          // 内置/外部类型，不产生边也不报告
	outUnresolvable                      // 语料中没有任何候选
	outDeferred                          // 依赖尚未解析的实体，留到下一轮
)

type outcome struct {
	status     outcomeStatus
	targets    []model.EntityID
	confidence model.Confidence
	candidates []model.EntityID // 报告未解析时附带的已知候选
}

func resolved(conf model.Confidence, targets ...model.EntityID) outcome {
	if len(targets) > 1 {
		conf = model.Ambiguous
	}
	return outcome{status: outResolved, targets: targets, confidence: conf}
}

var (
	external   = outcome{status: outExternal}
	deferred   = outcome{status: outDeferred}
	unresolved = outcome{status: outUnresolvable}
)

// workItem 工作表中的一条引用
type workItem struct {
	ref        *model.UnresolvedReference
	file       *FileContext
	candidates []model.EntityID
}

// ResolveResult 一次不动点解析的统计
type ResolveResult struct {
	Passes         int   `json:"passes" yaml:"passes"`
	PassSizes      []int `json:"passSizes" yaml:"passSizes"` // 每一轮开始时的工作表大小
	Resolved       int   `json:"resolved" yaml:"resolved"`
	External       int   `json:"external" yaml:"external"`
	Unresolved     int   `json:"unresolved" yaml:"unresolved"`
	Residual       int   `json:"residual" yaml:"residual"`
	BudgetExceeded bool  `json:"budgetExceeded" yaml:"budgetExceeded"`
	Overrides      int   `json:"overrides" yaml:"overrides"`
}

// Resolver 跨引用解析器：对工作表做不动点迭代。
// 每一轮尝试所有条目，能解析的移出；整轮结束后工作表为空或没有变化时停止。
type Resolver struct {
	repo   *Repository
	graph  *GraphBuilder
	binder *Binder
	scopes *ScopeResolver
	diag   *Diagnostics
	opts   Options
	log    logrus.FieldLogger

	rules map[Language]SymbolResolver
	file  *FileContext
	lang  SymbolResolver
}

func NewResolver(repo *Repository, graph *GraphBuilder, diag *Diagnostics, opts Options, log logrus.FieldLogger) *Resolver {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Resolver{
		repo:   repo,
		graph:  graph,
		binder: NewBinder(repo),
		scopes: NewScopeResolver(repo, nil),
		diag:   diag,
		opts:   opts,
		log:    log,
		rules:  make(map[Language]SymbolResolver),
	}
}

// Run 解析所有文件的引用。文件按路径排序，文件内按源码顺序。
// 取消只在两轮之间检查；被取消时返回错误，已经累积的结果可以直接丢弃。
func (r *Resolver) Run(ctx context.Context, files []*FileContext) (ResolveResult, error) {
	var res ResolveResult
	sorted := append([]*FileContext(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	var worklist []*workItem
	for _, fc := range sorted {
		for _, ref := range fc.References {
			worklist = append(worklist, &workItem{ref: ref, file: fc})
		}
	}

	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return res, NewAnalysisError(Cancelled, fmt.Sprintf("resolution cancelled after %d passes", res.Passes), nil, err)
		}
		if r.opts.PassBudget > 0 && res.Passes >= r.opts.PassBudget {
			res.BudgetExceeded = true
			r.diag.Add(NewAnalysisError(PassBudgetExceeded,
				fmt.Sprintf("pass budget %d exhausted with %d references pending", r.opts.PassBudget, len(worklist)), nil, nil))
			break
		}
		res.Passes++
		res.PassSizes = append(res.PassSizes, len(worklist))

		next := r.pass(worklist, &res)
		r.log.WithFields(logrus.Fields{
			"pass":    res.Passes,
			"before":  len(worklist),
			"pending": len(next),
		}).Debug("resolution pass finished")

		// 条目只会被移出，不会加入，大小不变即组成不变
		if len(next) == len(worklist) {
			worklist = next
			break
		}
		worklist = next
	}

	res.Residual = len(worklist)
	for _, it := range worklist {
		r.report(it.ref, it.candidates, UnresolvableReference)
		res.Unresolved++
	}
	res.Overrides = r.deriveOverrides()
	return res, nil
}

func (r *Resolver) pass(worklist []*workItem, res *ResolveResult) []*workItem {
	var next []*workItem
	current := ""
	for _, it := range worklist {
		if it.file.FilePath != current {
			current = it.file.FilePath
			r.enterFile(it.file)
		}
		out := r.resolveRef(it.ref)
		switch out.status {
		case outResolved:
			r.emit(it.ref, out)
			res.Resolved++
		case outExternal:
			r.binder.MarkExternal(it.ref)
			res.External++
		case outUnresolvable:
			r.binder.MarkExternal(it.ref)
			r.report(it.ref, out.candidates, UnresolvableReference)
			res.Unresolved++
		case outDeferred:
			it.candidates = out.candidates
			next = append(next, it)
		}
	}
	return next
}

// enterFile 切换文件时丢弃上一个文件的作用域
func (r *Resolver) enterFile(fc *FileContext) {
	r.file = fc
	rules, ok := r.rules[fc.Language]
	if !ok {
		var err error
		rules, err = GetSymbolResolver(fc.Language)
		if err != nil {
			rules = &DottedResolver{Lang: fc.Language}
		}
		r.rules[fc.Language] = rules
	}
	r.lang = rules
	r.scopes.Reset(rules)
}

// UseRules 为某种语言指定规则，覆盖全局注册表
func (r *Resolver) UseRules(lang Language, rules SymbolResolver) {
	r.rules[lang] = rules
}

// emit 生成绑定并送入图构建器，类型引用同时回写到槽
func (r *Resolver) emit(ref *model.UnresolvedReference, out outcome) {
	targets := out.targets
	policy := r.opts.Policy
	if out.confidence == model.Ambiguous && policy.MaxCandidates > 0 && len(targets) > policy.MaxCandidates {
		targets = targets[:policy.MaxCandidates]
	}
	weight := r.weightFor(out.confidence)
	if out.confidence == model.Ambiguous {
		weight = policy.Ambiguous / float64(len(targets))
	}
	for _, t := range targets {
		r.graph.Add(model.Binding{
			Source:     ref.Source,
			Target:     t,
			Kind:       ref.Kind,
			Weight:     weight,
			Confidence: out.confidence,
			Occurrence: ref.OccurrenceKey(),
		})
	}
	if ref.Slot.Field != model.SlotNone {
		r.binder.Bind(ref, targets)
	}
}

func (r *Resolver) weightFor(c model.Confidence) float64 {
	p := r.opts.Policy
	switch c {
	case model.Exact:
		return p.Exact
	case model.Local:
		return p.Local
	case model.Imported:
		return p.Imported
	case model.Heuristic:
		return p.Heuristic
	}
	return p.Ambiguous
}

func (r *Resolver) report(ref *model.UnresolvedReference, candidates []model.EntityID, code ErrorCode) {
	src := ""
	if e := r.repo.Get(ref.Source); e != nil {
		src = e.QualifiedName
	}
	entry := UnresolvedEntry{
		Name:     ref.Target.String(),
		Kind:     ref.Kind,
		Source:   src,
		Location: ref.Location,
		Reason:   code,
	}
	for _, c := range candidates {
		if e := r.repo.Get(c); e != nil {
			entry.Candidates = append(entry.Candidates, e.QualifiedName)
		}
	}
	r.diag.AddUnresolved(entry)
}

// ==================== 单条引用解析 ====================

// resolveRef 解析顺序：泛型形参 → 接收者成员 → 局部作用域 → 限定名精确匹配 → 导入 → 内置 → 全语料简单名
func (r *Resolver) resolveRef(ref *model.UnresolvedReference) outcome {
	scope := r.scopes.ScopeOf(ref.Source)
	if scope == nil {
		return unresolved
	}
	if ref.Context == model.SupertypeContext && scope.Kind() == model.Type && scope.Parent != nil {
		// 父类型名在声明所在的作用域中查找，不能经过自身尚未确定的继承成员
		scope = scope.Parent
	}
	return r.resolveName(ref, ref.Target, ref.Context, scope)
}

func (r *Resolver) resolveName(ref *model.UnresolvedReference, target model.TargetDescriptor, ctx model.RefContext, scope *Scope) outcome {
	name := target.Name
	kinds := ctx.Kinds()

	if len(target.Receiver) > 0 {
		return r.resolveMember(ref, target, ctx, scope)
	}

	if isTypeContext(ctx) && !target.IsQualified() {
		if bound, ok := r.scopes.TypeParam(scope, name); ok {
			// 泛型擦除：有上界解析上界，没有上界不产生任何具体类型
			if bound == "" || bound == name {
				return external
			}
			return r.resolveName(ref, model.TargetDescriptor{Name: bound, Arity: -1}, ctx, scope)
		}
	}

	if !target.IsQualified() {
		probe := *ref
		probe.Target = target
		probe.Context = ctx
		local := r.scopes.ResolveLocal(&probe, scope)
		switch local.Status {
		case LocalBound:
			return resolved(model.Local, local.Candidates...)
		case LocalAmbiguous:
			return resolved(model.Ambiguous, local.Candidates...)
		case LocalDeferred:
			return deferred
		}
	}

	if ids := r.repo.LookupByQualifiedName(name, kinds...); len(ids) > 0 {
		return r.pick(model.Exact, ids, ref, ctx)
	}

	if ctx == model.NamespaceContext && target.IsQualified() {
		// 静态导入：方法限定名带参数列表，按所有者成员查找
		if ids := r.ownerMember(name, kinds); len(ids) > 0 {
			return r.pick(model.Exact, ids, ref, ctx)
		}
	}

	if target.IsQualified() && ctx != model.NamespaceContext {
		// Outer.Inner / pkg.Type：拆成接收者链再解析
		return r.resolveMember(ref, splitQualified(name, target), ctx, scope)
	}

	if ids, ok := r.viaImports(name, kinds); ok {
		if len(ids) == 0 {
			return external
		}
		return r.pick(model.Imported, ids, ref, ctx)
	}

	if r.lang.IsBuiltinType(name) || (ctx == model.NamespaceContext && r.lang.IsBuiltinType(headSegment(name))) {
		return external
	}

	return r.global(ref, target, ctx, scope)
}

// viaImports 通过文件导入查找；ok 为 true 且结果为空表示名字被导入自语料之外
func (r *Resolver) viaImports(name string, kinds []model.ElementKind) ([]model.EntityID, bool) {
	fc := r.file
	if fc == nil {
		return nil, false
	}
	explicit := fc.FindImport(name)
	if len(explicit) > 0 {
		var ids []model.EntityID
		for _, imp := range explicit {
			ids = append(ids, r.importedMember(imp, kinds)...)
		}
		return ids, true
	}
	var ids []model.EntityID
	wildcards := append(fc.WildcardImports(), r.lang.ImplicitImports()...)
	for _, imp := range wildcards {
		ids = append(ids, r.repo.LookupByQualifiedName(r.lang.BuildQualifiedName(r.lang.ImportTarget(imp), name), kinds...)...)
	}
	if len(ids) > 0 {
		return dedupIDs(ids), true
	}
	return nil, false
}

// importedMember 单类型导入直接按限定名查，查不到再当作静态成员
func (r *Resolver) importedMember(imp model.ImportEntry, kinds []model.ElementKind) []model.EntityID {
	qn := r.lang.ImportTarget(imp)
	if ids := r.repo.LookupByQualifiedName(qn, kinds...); len(ids) > 0 {
		return ids
	}
	return r.ownerMember(qn, kinds)
}

// ownerMember 把 a.B.m 拆成所有者 a.B 和成员名 m
func (r *Resolver) ownerMember(qn string, kinds []model.ElementKind) []model.EntityID {
	i := strings.LastIndex(qn, ".")
	if i <= 0 {
		return nil
	}
	var ids []model.EntityID
	for _, owner := range r.repo.LookupByQualifiedName(qn[:i], model.Type) {
		ids = append(ids, r.repo.Member(owner, qn[i+1:], kinds...)...)
	}
	return ids
}

// global 全语料按简单名匹配，优先声明类型与引用处兼容的候选
func (r *Resolver) global(ref *model.UnresolvedReference, target model.TargetDescriptor, ctx model.RefContext, scope *Scope) outcome {
	cands := r.globallyVisible(r.repo.LookupBySimpleName(target.SimpleName(), ctx.Kinds()...))
	if len(cands) == 0 {
		if r.inheritsExternal(r.scopes.EnclosingType(scope)) {
			return external
		}
		return unresolved
	}
	if preferred := r.compatible(cands, scope); len(preferred) > 0 {
		cands = preferred
	}
	if ctx == model.CallableContext {
		cands = narrowByArity(r.repo, cands, target.Arity)
	}
	if len(cands) == 1 {
		return resolved(model.Heuristic, cands...)
	}
	return resolved(model.Ambiguous, cands...)
}

// globallyVisible 局部变量和参数只能通过词法作用域访问，不参与全语料匹配
func (r *Resolver) globallyVisible(ids []model.EntityID) []model.EntityID {
	var out []model.EntityID
	for _, id := range ids {
		e := r.repo.Get(id)
		if e.Kind == model.Parameter {
			continue
		}
		if e.Kind == model.Variable {
			if owner := r.repo.Get(e.Owner); owner != nil && owner.Kind == model.Method {
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

// compatible 声明在引用处所属类型的继承体系内的候选
func (r *Resolver) compatible(cands []model.EntityID, scope *Scope) []model.EntityID {
	enclosing := r.scopes.EnclosingType(scope)
	if enclosing == nil {
		return nil
	}
	hierarchy := r.hierarchy(enclosing.ID)
	var out []model.EntityID
	for _, id := range cands {
		if owner := r.repo.EnclosingOfKind(r.repo.Get(id).Owner, model.Type); owner != nil && hierarchy[owner.ID] {
			out = append(out, id)
		}
	}
	return out
}

// hierarchy 类型自身、外部类型以及所有已解析的父类型
func (r *Resolver) hierarchy(typeID model.EntityID) map[model.EntityID]bool {
	seen := make(map[model.EntityID]bool)
	stack := []model.EntityID{typeID}
	for _, a := range r.repo.Ancestors(typeID) {
		if a.Kind == model.Type {
			stack = append(stack, a.ID)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		if t := r.repo.Get(id); t != nil && t.TypeInfo != nil {
			for _, s := range t.TypeInfo.Supers {
				stack = append(stack, s.Resolved...)
			}
		}
	}
	return seen
}

// inheritsExternal 继承链上存在外部父类型时，找不到的成员大概率来自外部
func (r *Resolver) inheritsExternal(t *model.Entity) bool {
	if t == nil {
		return false
	}
	for id := range r.hierarchy(t.ID) {
		e := r.repo.Get(id)
		if e == nil || e.TypeInfo == nil {
			continue
		}
		for _, s := range e.TypeInfo.Supers {
			if s.State == model.SlotExternal {
				return true
			}
		}
	}
	return false
}

func (r *Resolver) pick(conf model.Confidence, ids []model.EntityID, ref *model.UnresolvedReference, ctx model.RefContext) outcome {
	probe := *ref
	probe.Context = ctx
	res := pickCandidates(r.repo, ids, &probe)
	if res.Status == LocalAmbiguous {
		return resolved(model.Ambiguous, res.Candidates...)
	}
	return resolved(conf, res.Candidates...)
}

// ==================== 接收者链 ====================

// resolveMember 解析 a.b().name：先求出接收者的类型集合，再在这些类型中查找成员
func (r *Resolver) resolveMember(ref *model.UnresolvedReference, target model.TargetDescriptor, ctx model.RefContext, scope *Scope) outcome {
	recv, st := r.receiverTypes(ref, target.Receiver, scope)
	switch st {
	case outDeferred:
		return deferred
	case outUnresolvable:
		return r.untyped(ref, target, ctx, scope, true)
	case outExternal:
		return external
	}
	if len(recv) == 0 {
		// 接收者类型未知 (类型推断的局部变量等)，按名字推测
		return r.untyped(ref, target, ctx, scope, false)
	}

	kinds := ctx.Kinds()
	var cands []model.EntityID
	externalSuper := false
	for _, t := range recv {
		owner := r.repo.Get(t)
		if owner.Kind == model.Namespace {
			cands = append(cands, r.repo.LookupByQualifiedName(r.lang.BuildQualifiedName(owner.QualifiedName, target.SimpleName()), kinds...)...)
			continue
		}
		probe := *ref
		probe.Context = ctx
		probe.Target = target
		res := r.scopes.FindMember(t, target.SimpleName(), kinds, &probe)
		if res.Status == LocalDeferred {
			return deferred
		}
		cands = append(cands, res.Candidates...)
		if r.inheritsExternal(owner) {
			externalSuper = true
		}
	}
	cands = dedupIDs(cands)
	if len(cands) == 0 {
		if r.pendingReceiverMethod(target.SimpleName()) {
			return deferred
		}
		if externalSuper {
			return external
		}
		return r.untyped(ref, target, ctx, scope, true)
	}
	if ctx == model.CallableContext {
		cands = narrowByArity(r.repo, cands, target.Arity)
	}
	return resolved(model.Exact, cands...)
}

// untyped 接收者无法确定类型时退回全语料匹配；report 为 true 时匹配失败报告为未解析
func (r *Resolver) untyped(ref *model.UnresolvedReference, target model.TargetDescriptor, ctx model.RefContext, scope *Scope, report bool) outcome {
	cands := r.globallyVisible(r.repo.LookupBySimpleName(target.SimpleName(), ctx.Kinds()...))
	if ctx == model.CallableContext {
		cands = narrowByArity(r.repo, cands, target.Arity)
	}
	switch {
	case len(cands) == 1:
		return resolved(model.Heuristic, cands...)
	case len(cands) > 1:
		return resolved(model.Ambiguous, cands...)
	case report:
		return unresolved
	}
	return external
}

// pendingReceiverMethod Go 方法在接收者解析之后才挂到类型上，挂载前不能断定成员不存在
func (r *Resolver) pendingReceiverMethod(name string) bool {
	for _, id := range r.repo.LookupBySimpleName(name, model.Method) {
		if m := r.repo.Get(id); m.MethodInfo != nil && m.MethodInfo.Receiver != nil && !m.MethodInfo.Receiver.Done() {
			return true
		}
	}
	return false
}

// receiverTypes 逐段求接收者链的类型集合 (类型或命名空间实体)
func (r *Resolver) receiverTypes(ref *model.UnresolvedReference, segs []model.Segment, scope *Scope) ([]model.EntityID, outcomeStatus) {
	cur, st := r.firstSegment(ref, segs[0], scope)
	if st != outResolved {
		return nil, st
	}
	for _, seg := range segs[1:] {
		if len(cur) == 0 {
			return nil, outResolved
		}
		var next []model.EntityID
		for _, t := range cur {
			ids, st := r.memberType(ref, t, seg)
			if st == outDeferred {
				return nil, outDeferred
			}
			next = append(next, ids...)
		}
		cur = dedupIDs(next)
		if len(cur) == 0 {
			return nil, outExternal
		}
	}
	return cur, outResolved
}

func (r *Resolver) firstSegment(ref *model.UnresolvedReference, seg model.Segment, scope *Scope) ([]model.EntityID, outcomeStatus) {
	switch seg.Kind {
	case model.SegThis:
		if t := r.scopes.EnclosingType(scope); t != nil {
			return []model.EntityID{t.ID}, outResolved
		}
		return nil, outExternal
	case model.SegSuper:
		t := r.scopes.EnclosingType(scope)
		if t == nil || t.TypeInfo == nil || len(t.TypeInfo.Supers) == 0 {
			return nil, outExternal
		}
		var ids []model.EntityID
		for _, s := range t.TypeInfo.Supers {
			if !s.Done() {
				return nil, outDeferred
			}
			ids = append(ids, s.Resolved...)
		}
		if len(ids) == 0 {
			return nil, outExternal
		}
		return ids, outResolved
	case model.SegNew:
		out := r.resolveName(ref, model.TargetDescriptor{Name: seg.Name, Arity: -1}, model.TypeContext, scope)
		return r.typesOf(out)
	case model.SegCall:
		out := r.resolveName(ref, model.TargetDescriptor{Name: seg.Name, Arity: seg.Arity}, model.CallableContext, scope)
		if out.status != outResolved {
			return nil, out.status
		}
		return r.returnTypes(out.targets)
	}

	// 空名字段：前端无法静态描述的表达式 (数组下标、三元表达式等)
	if seg.Name == "" {
		return nil, outResolved
	}

	// 标识符：值 → 导入的包别名 → 类型 → 命名空间
	name := seg.Name
	probe := *ref
	probe.Target = model.TargetDescriptor{Name: name, Arity: -1}
	probe.Context = model.ValueContext
	local := r.scopes.ResolveLocal(&probe, scope)
	switch local.Status {
	case LocalDeferred:
		return nil, outDeferred
	case LocalBound, LocalAmbiguous:
		return r.valueTypes(local.Candidates)
	}

	if imps := r.file.FindImport(name); len(imps) > 0 {
		var ids []model.EntityID
		for _, imp := range imps {
			ids = append(ids, r.repo.LookupByQualifiedName(r.lang.ImportTarget(imp), model.Namespace, model.Type)...)
		}
		if len(ids) > 0 {
			return dedupIDs(ids), outResolved
		}
		return nil, outExternal
	}

	typeOut := r.resolveName(ref, model.TargetDescriptor{Name: name, Arity: -1}, model.TypeContext, scope)
	switch typeOut.status {
	case outResolved:
		return typeOut.targets, outResolved
	case outDeferred:
		return nil, outDeferred
	case outExternal:
		return nil, outExternal
	}

	if ids := r.repo.LookupByQualifiedName(name, model.Namespace); len(ids) > 0 {
		return ids, outResolved
	}
	if r.lang.IsBuiltinType(name) {
		return nil, outExternal
	}
	// 全语料的字段/包级变量
	value := r.global(ref, model.TargetDescriptor{Name: name, Arity: -1}, model.ValueContext, scope)
	if value.status == outResolved {
		return r.valueTypes(value.targets)
	}
	return nil, value.status
}

// memberType 已知类型 t 上一段访问的结果类型
func (r *Resolver) memberType(ref *model.UnresolvedReference, t model.EntityID, seg model.Segment) ([]model.EntityID, outcomeStatus) {
	owner := r.repo.Get(t)
	if owner.Kind == model.Namespace {
		ids := r.repo.LookupByQualifiedName(r.lang.BuildQualifiedName(owner.QualifiedName, seg.Name))
		var out []model.EntityID
		for _, id := range ids {
			switch r.repo.Get(id).Kind {
			case model.Type, model.Namespace:
				out = append(out, id)
			case model.Method:
				if seg.Kind == model.SegCall {
					ts, st := r.returnTypes([]model.EntityID{id})
					if st == outDeferred {
						return nil, st
					}
					out = append(out, ts...)
				}
			case model.Variable, model.Field:
				ts, st := r.valueTypes([]model.EntityID{id})
				if st == outDeferred {
					return nil, st
				}
				out = append(out, ts...)
			}
		}
		return out, outResolved
	}

	probe := *ref
	probe.Target = model.TargetDescriptor{Name: seg.Name, Arity: seg.Arity}
	if seg.Kind == model.SegCall {
		probe.Context = model.CallableContext
		res := r.scopes.FindMember(t, seg.Name, []model.ElementKind{model.Method}, &probe)
		if res.Status == LocalDeferred {
			return nil, outDeferred
		}
		return r.returnTypes(res.Candidates)
	}
	probe.Context = model.ValueContext
	res := r.scopes.FindMember(t, seg.Name, model.ValueContext.Kinds(), &probe)
	if res.Status == LocalDeferred {
		return nil, outDeferred
	}
	if len(res.Candidates) > 0 {
		return r.valueTypes(res.Candidates)
	}
	// 嵌套类型 Outer.Inner
	return r.repo.Member(t, seg.Name, model.Type), outResolved
}

// valueTypes 字段/变量/参数的声明类型；类型槽未解析时延后
func (r *Resolver) valueTypes(ids []model.EntityID) ([]model.EntityID, outcomeStatus) {
	var out []model.EntityID
	for _, id := range ids {
		e := r.repo.Get(id)
		if e.Kind == model.Type || e.Kind == model.Namespace {
			out = append(out, id)
			continue
		}
		slot := e.DeclaredType()
		if slot == nil {
			continue
		}
		if !slot.Done() {
			return nil, outDeferred
		}
		out = append(out, slot.Resolved...)
	}
	if len(out) == 0 {
		return nil, outResolved
	}
	return dedupIDs(out), outResolved
}

// returnTypes 方法的返回类型；构造函数返回其所属类型
func (r *Resolver) returnTypes(ids []model.EntityID) ([]model.EntityID, outcomeStatus) {
	var out []model.EntityID
	for _, id := range ids {
		m := r.repo.Get(id)
		if m.MethodInfo == nil {
			continue
		}
		if m.MethodInfo.IsConstructor {
			if t := r.repo.EnclosingOfKind(m.Owner, model.Type); t != nil {
				out = append(out, t.ID)
			}
			continue
		}
		slot := m.MethodInfo.Return
		if slot == nil {
			continue
		}
		if !slot.Done() {
			return nil, outDeferred
		}
		out = append(out, slot.Resolved...)
	}
	if len(out) == 0 {
		return nil, outExternal
	}
	return dedupIDs(out), outResolved
}

func (r *Resolver) typesOf(out outcome) ([]model.EntityID, outcomeStatus) {
	if out.status != outResolved {
		return nil, out.status
	}
	return out.targets, outResolved
}

// ==================== 重写关系 ====================

// deriveOverrides 不动点结束后，为每个方法查找父类型中同名且参数个数相同的方法
func (r *Resolver) deriveOverrides() int {
	n := 0
	for _, t := range r.repo.Entities() {
		if t.Kind != model.Type || t.TypeInfo == nil || len(t.TypeInfo.Supers) == 0 {
			continue
		}
		for _, mid := range r.repo.Members(t.ID, model.Method) {
			m := r.repo.Get(mid)
			if m.MethodInfo == nil || m.MethodInfo.IsConstructor {
				continue
			}
			visited := map[model.EntityID]bool{t.ID: true}
			for _, target := range r.overridden(t, m, visited) {
				if r.graph.Add(model.Binding{
					Source:     mid,
					Target:     target,
					Kind:       model.Override,
					Weight:     r.opts.Policy.Exact,
					Confidence: model.Exact,
					Occurrence: "override:" + m.QualifiedName,
				}) {
					n++
				}
			}
		}
	}
	return n
}

func (r *Resolver) overridden(t *model.Entity, m *model.Entity, visited map[model.EntityID]bool) []model.EntityID {
	var out []model.EntityID
	for _, s := range t.TypeInfo.Supers {
		for _, sid := range s.Resolved {
			if visited[sid] {
				continue
			}
			visited[sid] = true
			found := false
			for _, cand := range r.repo.Member(sid, m.Name, model.Method) {
				c := r.repo.Get(cand)
				if c.MethodInfo != nil && c.MethodInfo.Arity() == m.MethodInfo.Arity() {
					out = append(out, cand)
					found = true
				}
			}
			if !found {
				if st := r.repo.Get(sid); st != nil && st.TypeInfo != nil {
					out = append(out, r.overridden(st, m, visited)...)
				}
			}
		}
	}
	return out
}

// ==================== 工具函数 ====================

func isTypeContext(ctx model.RefContext) bool {
	return ctx == model.TypeContext || ctx == model.SupertypeContext || ctx == model.AnnotationContext
}

func headSegment(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// splitQualified 把 a.b.C 拆成接收者链 [a, b] 和名字 C
func splitQualified(name string, target model.TargetDescriptor) model.TargetDescriptor {
	parts := strings.Split(name, ".")
	segs := make([]model.Segment, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		segs = append(segs, model.Segment{Name: p, Kind: model.SegName})
	}
	return model.TargetDescriptor{Name: parts[len(parts)-1], Receiver: segs, Arity: target.Arity, TypeArgs: target.TypeArgs}
}

func dedupIDs(ids []model.EntityID) []model.EntityID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[model.EntityID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
