package core

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/CodMac/arch-depends/model"
)

// DefaultStripes 限定名分桶数
const DefaultStripes = 64

// EntitySpec 注册实体时携带的声明信息，重复注册时以第一次为准
type EntitySpec struct {
	Name       string
	Language   Language
	Location   *model.Location
	Modifiers  []string
	Synthetic  bool
	TypeInfo   *model.TypePayload
	MethodInfo *model.MethodPayload
	VarInfo    *model.VarPayload
}

type entityKey struct {
	kind  model.ElementKind
	qn    string
	owner model.EntityID
}

type memberKey struct {
	owner model.EntityID
	name  string
}

// qnStripe 按限定名分桶的注册区，同一个桶内的注册串行，不同桶之间互不阻塞
type qnStripe struct {
	mu    sync.RWMutex
	byKey map[entityKey]model.EntityID
	byQN  map[string][]model.EntityID
}

type indexShard[K comparable] struct {
	mu sync.RWMutex
	m  map[K][]model.EntityID
}

// shardedIndex 分片的多值索引
type shardedIndex[K comparable] struct {
	shards []*indexShard[K]
}

func newShardedIndex[K comparable](n int) *shardedIndex[K] {
	x := &shardedIndex[K]{shards: make([]*indexShard[K], n)}
	for i := range x.shards {
		x.shards[i] = &indexShard[K]{m: make(map[K][]model.EntityID)}
	}
	return x
}

func (x *shardedIndex[K]) add(h uint64, k K, id model.EntityID) {
	s := x.shards[h%uint64(len(x.shards))]
	s.mu.Lock()
	s.m[k] = append(s.m[k], id)
	s.mu.Unlock()
}

func (x *shardedIndex[K]) get(h uint64, k K) []model.EntityID {
	s := x.shards[h%uint64(len(x.shards))]
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.EntityID(nil), s.m[k]...)
}

type entityShard struct {
	mu sync.RWMutex
	m  map[model.EntityID]*model.Entity
}

// Repository 是实体模型的共享仓库。
// 注册路径按限定名分桶加锁，允许多个文件并发收集。
type Repository struct {
	stripes []*qnStripe
	store   []*entityShard
	nextID  atomic.Uint64

	byName   *shardedIndex[string]
	members  *shardedIndex[memberKey]
	children *shardedIndex[model.EntityID]
	attached *shardedIndex[model.EntityID] // Go 方法按接收者挂到类型上，不属于包含关系
}

// NewRepository 创建仓库，stripes <= 0 时使用 DefaultStripes
func NewRepository(stripes int) *Repository {
	if stripes <= 0 {
		stripes = DefaultStripes
	}
	r := &Repository{
		stripes:  make([]*qnStripe, stripes),
		store:    make([]*entityShard, stripes),
		byName:   newShardedIndex[string](stripes),
		members:  newShardedIndex[memberKey](stripes),
		children: newShardedIndex[model.EntityID](stripes),
		attached: newShardedIndex[model.EntityID](stripes),
	}
	for i := 0; i < stripes; i++ {
		r.stripes[i] = &qnStripe{byKey: make(map[entityKey]model.EntityID), byQN: make(map[string][]model.EntityID)}
		r.store[i] = &entityShard{m: make(map[model.EntityID]*model.Entity)}
	}
	return r
}

func hashString(s string) uint64 { return xxhash.Sum64String(s) }

func hashID(id model.EntityID) uint64 { return uint64(id) * 0x9E3779B97F4A7C15 >> 7 }

func hashMember(k memberKey) uint64 { return hashString(k.name) ^ hashID(k.owner) }

func (r *Repository) stripeFor(qn string) *qnStripe {
	return r.stripes[hashString(qn)%uint64(len(r.stripes))]
}

func (r *Repository) shardFor(id model.EntityID) *entityShard {
	return r.store[hashID(id)%uint64(len(r.store))]
}

// RegisterEntity 注册实体。对同一个 (kind, qualifiedName, owner) 幂等：
// 重复注册返回已有的 ID，created 为 false。
func (r *Repository) RegisterEntity(kind model.ElementKind, qualifiedName string, owner model.EntityID, spec EntitySpec) (id model.EntityID, created bool) {
	key := entityKey{kind: kind, qn: qualifiedName, owner: owner}
	s := r.stripeFor(qualifiedName)

	s.mu.RLock()
	existing, ok := s.byKey[key]
	s.mu.RUnlock()
	if ok {
		return existing, false
	}

	s.mu.Lock()
	if existing, ok = s.byKey[key]; ok {
		s.mu.Unlock()
		return existing, false
	}
	id = model.EntityID(r.nextID.Add(1))
	name := spec.Name
	if name == "" {
		name = qualifiedName
	}
	e := &model.Entity{
		ID:            id,
		Kind:          kind,
		Name:          name,
		QualifiedName: qualifiedName,
		Owner:         owner,
		Language:      string(spec.Language),
		Location:      spec.Location,
		Modifiers:     spec.Modifiers,
		Synthetic:     spec.Synthetic,
		TypeInfo:      spec.TypeInfo,
		MethodInfo:    spec.MethodInfo,
		VarInfo:       spec.VarInfo,
	}
	shard := r.shardFor(id)
	shard.mu.Lock()
	shard.m[id] = e
	shard.mu.Unlock()
	s.byKey[key] = id
	s.byQN[qualifiedName] = append(s.byQN[qualifiedName], id)
	s.mu.Unlock()

	r.byName.add(hashString(name), name, id)
	if owner != 0 {
		mk := memberKey{owner: owner, name: name}
		r.members.add(hashMember(mk), mk, id)
		r.children.add(hashID(owner), owner, id)
	}
	return id, true
}

// Placeholder 注册一个合成的占位实体，用于恢复引用了不存在所有者的前端事件
func (r *Repository) Placeholder(kind model.ElementKind, qualifiedName string, lang Language) model.EntityID {
	id, _ := r.RegisterEntity(kind, qualifiedName, 0, EntitySpec{Language: lang, Synthetic: true})
	return id
}

// Get 根据 ID 获取实体，不存在返回 nil
func (r *Repository) Get(id model.EntityID) *model.Entity {
	if id == 0 {
		return nil
	}
	shard := r.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return shard.m[id]
}

// Has 判断实体是否存在
func (r *Repository) Has(id model.EntityID) bool { return r.Get(id) != nil }

// LookupByQualifiedName 按限定名查找，可能返回多个实体 (重载、同名类型等)
func (r *Repository) LookupByQualifiedName(qn string, kinds ...model.ElementKind) []model.EntityID {
	s := r.stripeFor(qn)
	s.mu.RLock()
	ids := append([]model.EntityID(nil), s.byQN[qn]...)
	s.mu.RUnlock()
	return r.filterSorted(ids, kinds)
}

// LookupBySimpleName 在整个语料中按简单名查找
func (r *Repository) LookupBySimpleName(name string, kinds ...model.ElementKind) []model.EntityID {
	return r.filterSorted(r.byName.get(hashString(name), name), kinds)
}

// Member 查找 owner 下名为 name 的直接成员 (包括挂载的 Go 方法)
func (r *Repository) Member(owner model.EntityID, name string, kinds ...model.ElementKind) []model.EntityID {
	mk := memberKey{owner: owner, name: name}
	return r.filterSorted(r.members.get(hashMember(mk), mk), kinds)
}

// Children 返回包含在 owner 下的实体，按声明顺序
func (r *Repository) Children(owner model.EntityID, kinds ...model.ElementKind) []model.EntityID {
	return r.filterSorted(r.children.get(hashID(owner), owner), kinds)
}

// Members 返回类型的成员：包含的实体加上按接收者挂载的方法
func (r *Repository) Members(typeID model.EntityID, kinds ...model.ElementKind) []model.EntityID {
	ids := r.children.get(hashID(typeID), typeID)
	ids = append(ids, r.attached.get(hashID(typeID), typeID)...)
	return r.filterSorted(ids, kinds)
}

// AttachMember 将方法挂到接收者类型上，只由 Binder 调用
func (r *Repository) AttachMember(typeID, methodID model.EntityID) {
	m := r.Get(methodID)
	if m == nil || !r.Has(typeID) {
		return
	}
	for _, id := range r.attached.get(hashID(typeID), typeID) {
		if id == methodID {
			return
		}
	}
	r.attached.add(hashID(typeID), typeID, methodID)
	mk := memberKey{owner: typeID, name: m.Name}
	r.members.add(hashMember(mk), mk, methodID)
}

// Ancestors 沿所有者链向上，返回从直接所有者到根的实体
func (r *Repository) Ancestors(id model.EntityID) []*model.Entity {
	var out []*model.Entity
	seen := map[model.EntityID]bool{id: true}
	for e := r.Get(id); e != nil && e.Owner != 0; {
		if seen[e.Owner] {
			break
		}
		seen[e.Owner] = true
		e = r.Get(e.Owner)
		if e == nil {
			break
		}
		out = append(out, e)
	}
	return out
}

// EnclosingOfKind 返回 id 自身或最近的指定类型的祖先
func (r *Repository) EnclosingOfKind(id model.EntityID, kind model.ElementKind) *model.Entity {
	e := r.Get(id)
	if e != nil && e.Kind == kind {
		return e
	}
	for _, a := range r.Ancestors(id) {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

// FileEntity 根据文件路径查找文件实体
func (r *Repository) FileEntity(path string) *model.Entity {
	ids := r.LookupByQualifiedName(path, model.File)
	if len(ids) == 0 {
		return nil
	}
	return r.Get(ids[0])
}

// Len 返回实体数量
func (r *Repository) Len() int {
	return int(r.nextID.Load())
}

// Entities 返回全部实体，按限定名、类型、位置排序
func (r *Repository) Entities() []*model.Entity {
	out := make([]*model.Entity, 0, r.Len())
	for _, shard := range r.store {
		shard.mu.RLock()
		for _, e := range shard.m {
			out = append(out, e)
		}
		shard.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return entityLess(out[i], out[j]) })
	return out
}

func (r *Repository) filterSorted(ids []model.EntityID, kinds []model.ElementKind) []model.EntityID {
	out := ids[:0]
	for _, id := range ids {
		if len(kinds) == 0 {
			out = append(out, id)
			continue
		}
		e := r.Get(id)
		for _, k := range kinds {
			if e != nil && e.Kind == k {
				out = append(out, id)
				break
			}
		}
	}
	if len(out) > 1 {
		sort.Slice(out, func(i, j int) bool { return declLess(r.Get(out[i]), r.Get(out[j])) })
	}
	return out
}

// declLess 声明顺序：文件路径、行、列、限定名。ID 的分配顺序受并发影响，只作最后的兜底。
func declLess(a, b *model.Entity) bool {
	if a.Path() != b.Path() {
		return a.Path() < b.Path()
	}
	if a.Location != nil && b.Location != nil {
		if a.Location.StartLine != b.Location.StartLine {
			return a.Location.StartLine < b.Location.StartLine
		}
		if a.Location.StartColumn != b.Location.StartColumn {
			return a.Location.StartColumn < b.Location.StartColumn
		}
	}
	if a.QualifiedName != b.QualifiedName {
		return a.QualifiedName < b.QualifiedName
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

func entityLess(a, b *model.Entity) bool {
	if a.QualifiedName != b.QualifiedName {
		return a.QualifiedName < b.QualifiedName
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return declLess(a, b)
}
