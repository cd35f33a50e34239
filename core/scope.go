package core

import (
	"github.com/CodMac/arch-depends/model"
)

// LocalStatus 局部解析的结果状态
type LocalStatus int

const (
	LocalMiss      LocalStatus = iota // 作用域链上没有可见的声明
	LocalBound                        // 唯一绑定
	LocalAmbiguous                    // 多个重载候选，交给跨引用解析收窄
	LocalDeferred                     // 依赖尚未解析的父类型，下一轮再试
)

func (s LocalStatus) String() string {
	switch s {
	case LocalBound:
		return "bound"
	case LocalAmbiguous:
		return "ambiguous"
	case LocalDeferred:
		return "deferred"
	}
	return "miss"
}

type LocalResult struct {
	Status     LocalStatus
	Candidates []model.EntityID
}

// Scope 词法作用域，链接到外层作用域。局部名字表按需从仓库填充。
type Scope struct {
	Parent *Scope
	Owner  *model.Entity

	names map[string][]model.EntityID
}

// Kind 作用域所属实体的类型
func (s *Scope) Kind() model.ElementKind { return s.Owner.Kind }

// ScopeResolver 为一个文件构建作用域链并做局部解析。
// 作用域在文件处理完后通过 Reset 丢弃，只有回写到类型槽的结果会保留下来。
type ScopeResolver struct {
	repo   *Repository
	rules  SymbolResolver
	scopes map[model.EntityID]*Scope
}

func NewScopeResolver(repo *Repository, rules SymbolResolver) *ScopeResolver {
	return &ScopeResolver{repo: repo, rules: rules, scopes: make(map[model.EntityID]*Scope)}
}

// Reset 丢弃已构建的作用域
func (sr *ScopeResolver) Reset(rules SymbolResolver) {
	sr.rules = rules
	sr.scopes = make(map[model.EntityID]*Scope)
}

// ScopeOf 返回引用源实体所在的最内层作用域。
// 字段、变量、参数没有自己的作用域，使用其所有者的作用域。
func (sr *ScopeResolver) ScopeOf(id model.EntityID) *Scope {
	e := sr.repo.Get(id)
	if e == nil {
		return nil
	}
	if e.Kind.IsValueLike() {
		return sr.ScopeOf(e.Owner)
	}
	return sr.scopeFor(e, 0)
}

func (sr *ScopeResolver) scopeFor(e *model.Entity, depth int) *Scope {
	if s, ok := sr.scopes[e.ID]; ok {
		return s
	}
	s := &Scope{Owner: e, names: make(map[string][]model.EntityID)}
	sr.scopes[e.ID] = s
	// 命名空间是最外层：Java 的父包对子包不可见
	if e.Kind != model.Namespace && e.Owner != 0 && depth < maxScopeDepth {
		if parent := sr.repo.Get(e.Owner); parent != nil {
			s.Parent = sr.scopeFor(parent, depth+1)
		}
	}
	return s
}

const maxScopeDepth = 256

// local 当前作用域内直接声明的名字，按声明顺序
func (sr *ScopeResolver) local(s *Scope, name string) []model.EntityID {
	if ids, ok := s.names[name]; ok {
		return ids
	}
	var ids []model.EntityID
	switch s.Kind() {
	case model.Namespace:
		ids = sr.repo.LookupByQualifiedName(sr.rules.BuildQualifiedName(s.Owner.QualifiedName, name))
	case model.Type:
		// 类型成员会因接收者挂载而增加，不缓存
		return sr.repo.Member(s.Owner.ID, name)
	default:
		ids = sr.repo.Member(s.Owner.ID, name)
	}
	s.names[name] = ids
	return ids
}

// ResolveLocal 从内到外遍历作用域链：先看本层声明，类型作用域再看已解析父类型的继承成员。
// 父类型尚未解析时返回 LocalDeferred，而不是猜测。
func (sr *ScopeResolver) ResolveLocal(ref *model.UnresolvedReference, scope *Scope) LocalResult {
	if ref.Target.IsQualified() || len(ref.Target.Receiver) > 0 {
		return LocalResult{Status: LocalMiss}
	}
	name := ref.Target.Name
	kinds := ref.Context.Kinds()
	for s := scope; s != nil; s = s.Parent {
		cands := sr.visible(sr.filterKinds(sr.local(s, name), kinds), s, ref)
		if len(cands) > 0 {
			return pickCandidates(sr.repo, cands, ref)
		}
		if s.Kind() == model.Type {
			res := sr.inherited(s.Owner.ID, name, kinds, ref, map[model.EntityID]bool{s.Owner.ID: true})
			if res.Status != LocalMiss {
				return res
			}
		}
	}
	return LocalResult{Status: LocalMiss}
}

// FindMember 在类型及其已解析的父类型中查找成员，用于 a.b 形式的接收者访问
func (sr *ScopeResolver) FindMember(typeID model.EntityID, name string, kinds []model.ElementKind, ref *model.UnresolvedReference) LocalResult {
	if cands := sr.repo.Member(typeID, name, kinds...); len(cands) > 0 {
		return pickCandidates(sr.repo, cands, ref)
	}
	return sr.inherited(typeID, name, kinds, ref, map[model.EntityID]bool{typeID: true})
}

// inherited 按声明顺序深度优先查找父类型成员
func (sr *ScopeResolver) inherited(typeID model.EntityID, name string, kinds []model.ElementKind, ref *model.UnresolvedReference, visited map[model.EntityID]bool) LocalResult {
	t := sr.repo.Get(typeID)
	if t == nil || t.TypeInfo == nil {
		return LocalResult{Status: LocalMiss}
	}
	for _, slot := range t.TypeInfo.Supers {
		if !slot.Done() {
			return LocalResult{Status: LocalDeferred}
		}
	}
	for _, slot := range t.TypeInfo.Supers {
		for _, superID := range slot.Resolved {
			if visited[superID] {
				continue
			}
			visited[superID] = true
			if cands := sr.repo.Member(superID, name, kinds...); len(cands) > 0 {
				return pickCandidates(sr.repo, cands, ref)
			}
			if res := sr.inherited(superID, name, kinds, ref, visited); res.Status != LocalMiss {
				return res
			}
		}
	}
	return LocalResult{Status: LocalMiss}
}

// TypeParam 在作用域链上查找泛型形参，返回其上界
func (sr *ScopeResolver) TypeParam(scope *Scope, name string) (bound string, ok bool) {
	for s := scope; s != nil; s = s.Parent {
		var params []model.TypeParam
		switch {
		case s.Owner.TypeInfo != nil:
			params = s.Owner.TypeInfo.TypeParams
		case s.Owner.MethodInfo != nil:
			params = s.Owner.MethodInfo.TypeParams
		}
		for _, p := range params {
			if p.Name == name {
				return p.Bound, true
			}
		}
	}
	return "", false
}

// EnclosingType 返回作用域链上最近的类型
func (sr *ScopeResolver) EnclosingType(scope *Scope) *model.Entity {
	for s := scope; s != nil; s = s.Parent {
		if s.Kind() == model.Type {
			return s.Owner
		}
	}
	return nil
}

// EnclosingFile 返回作用域链上的文件实体
func (sr *ScopeResolver) EnclosingFile(scope *Scope) *model.Entity {
	for s := scope; s != nil; s = s.Parent {
		if s.Kind() == model.File {
			return s.Owner
		}
	}
	return nil
}

func (sr *ScopeResolver) filterKinds(ids []model.EntityID, kinds []model.ElementKind) []model.EntityID {
	if len(kinds) == 0 {
		return ids
	}
	var out []model.EntityID
	for _, id := range ids {
		e := sr.repo.Get(id)
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// visible 方法体内的局部变量只在声明之后可见
func (sr *ScopeResolver) visible(ids []model.EntityID, s *Scope, ref *model.UnresolvedReference) []model.EntityID {
	if s.Kind() != model.Method || ref.Location == nil {
		return ids
	}
	out := ids[:0:0]
	for _, id := range ids {
		e := sr.repo.Get(id)
		if e.Kind == model.Variable && e.Location != nil && e.Location.FilePath == ref.Location.FilePath && ref.Location.Before(e.Location) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// pickCandidates 平局规则：非调用目标取最早声明者；调用目标按实参个数过滤，仍有多个则保留为歧义
func pickCandidates(repo *Repository, cands []model.EntityID, ref *model.UnresolvedReference) LocalResult {
	if len(cands) == 1 {
		return LocalResult{Status: LocalBound, Candidates: cands}
	}
	if ref.Context != model.CallableContext {
		return LocalResult{Status: LocalBound, Candidates: cands[:1]}
	}
	narrowed := narrowByArity(repo, cands, ref.Target.Arity)
	if len(narrowed) == 1 {
		return LocalResult{Status: LocalBound, Candidates: narrowed}
	}
	return LocalResult{Status: LocalAmbiguous, Candidates: narrowed}
}

// narrowByArity 按实参个数过滤重载，全部不匹配时保留原集合
func narrowByArity(repo *Repository, cands []model.EntityID, arity int) []model.EntityID {
	if arity < 0 {
		return cands
	}
	var out []model.EntityID
	for _, id := range cands {
		e := repo.Get(id)
		if e.MethodInfo == nil || e.MethodInfo.Accepts(arity) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return cands
	}
	return out
}
