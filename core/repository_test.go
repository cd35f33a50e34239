package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodMac/arch-depends/model"
)

func TestRepository_RegisterIsIdempotent(t *testing.T) {
	repo := NewRepository(0)
	ns, created := repo.RegisterEntity(model.Namespace, "p", 0, EntitySpec{Name: "p"})
	require.True(t, created)

	a1, created := repo.RegisterEntity(model.Type, "p.A", ns, EntitySpec{Name: "A"})
	require.True(t, created)
	a2, created := repo.RegisterEntity(model.Type, "p.A", ns, EntitySpec{Name: "other"})
	assert.False(t, created)
	assert.Equal(t, a1, a2)
	assert.Equal(t, "A", repo.Get(a1).Name)

	// 同名但所有者或类型不同是不同实体
	file, _ := repo.RegisterEntity(model.File, "p/A.java", ns, EntitySpec{})
	a3, created := repo.RegisterEntity(model.Type, "p.A", file, EntitySpec{Name: "A"})
	assert.True(t, created)
	assert.NotEqual(t, a1, a3)
	assert.Len(t, repo.LookupByQualifiedName("p.A"), 2)
	assert.Len(t, repo.LookupByQualifiedName("p.A", model.Method), 0)
	assert.Equal(t, "p/A.java", repo.Get(file).Name)
}

func TestRepository_Lookups(t *testing.T) {
	repo := NewRepository(4)
	ns, _ := repo.RegisterEntity(model.Namespace, "p", 0, EntitySpec{Name: "p"})
	typ, _ := repo.RegisterEntity(model.Type, "p.A", ns, EntitySpec{Name: "A"})
	m1, _ := repo.RegisterEntity(model.Method, "p.A.run(int)", typ, EntitySpec{Name: "run", Location: &model.Location{FilePath: "A.java", StartLine: 9}})
	m2, _ := repo.RegisterEntity(model.Method, "p.A.run()", typ, EntitySpec{Name: "run", Location: &model.Location{FilePath: "A.java", StartLine: 4}})
	f, _ := repo.RegisterEntity(model.Field, "p.A.run", typ, EntitySpec{Name: "run"})

	// 声明顺序：按行号而不是注册顺序
	assert.Equal(t, []model.EntityID{m2, m1}, repo.Member(typ, "run", model.Method))
	assert.ElementsMatch(t, []model.EntityID{m1, m2, f}, repo.Member(typ, "run"))
	assert.Equal(t, []model.EntityID{f}, repo.LookupBySimpleName("run", model.Field))
	assert.Len(t, repo.Children(typ), 3)

	assert.Equal(t, typ, repo.EnclosingOfKind(m1, model.Type).ID)
	assert.Equal(t, ns, repo.EnclosingOfKind(m1, model.Namespace).ID)
	assert.Nil(t, repo.EnclosingOfKind(m1, model.File))
	assert.Len(t, repo.Ancestors(m1), 2)
}

func TestRepository_AttachMember(t *testing.T) {
	repo := NewRepository(4)
	file, _ := repo.RegisterEntity(model.File, "main.go", 0, EntitySpec{})
	typ, _ := repo.RegisterEntity(model.Type, "main.Server", file, EntitySpec{Name: "Server"})
	m, _ := repo.RegisterEntity(model.Method, "main.Server.Start", file, EntitySpec{Name: "Start"})

	assert.Empty(t, repo.Member(typ, "Start"))
	repo.AttachMember(typ, m)
	repo.AttachMember(typ, m)
	assert.Equal(t, []model.EntityID{m}, repo.Member(typ, "Start"))
	assert.Equal(t, []model.EntityID{m}, repo.Members(typ, model.Method))
	// 挂载不改变所有权
	assert.Equal(t, file, repo.Get(m).Owner)
	assert.Empty(t, repo.Children(typ))
}

func TestRepository_ConcurrentRegistration(t *testing.T) {
	repo := NewRepository(8)
	const workers, perWorker = 8, 200

	var wg sync.WaitGroup
	ids := make([][]model.EntityID, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, _ := repo.RegisterEntity(model.Type, fmt.Sprintf("p.T%d", i), 0, EntitySpec{})
				ids[w] = append(ids[w], id)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, perWorker, repo.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, ids[0], ids[w])
	}
	assert.Len(t, repo.Entities(), perWorker)
}
