package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"construktor/internal/store"
)

func TestModulesCreateAndOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(store.NewMemory(), testUser())

	id1, err := idx.CreateModule(ctx, "Vendas")
	require.NoError(t, err)
	id2, err := idx.CreateModule(ctx, "Estoque")
	require.NoError(t, err)

	list, err := idx.LoadModules(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{id1, id2}, idx.Order())

	// перестановка сохраняется и переживает перезагрузку
	require.NoError(t, idx.SaveOrder(ctx, []string{id2, id1}))
	list, err = idx.LoadModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, id2, list[0].ID)
	assert.Equal(t, id1, list[1].ID)
}

func TestModulesOrderRecovery(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	idx := NewIndex(st, testUser())

	id1, err := idx.CreateModule(ctx, "Vendas")
	require.NoError(t, err)
	id2, err := idx.CreateModule(ctx, "Estoque")
	require.NoError(t, err)
	id3, err := idx.CreateModule(ctx, "RH")
	require.NoError(t, err)

	// испорченный сохранённый порядок: дубли, мёртвый id, пропуски
	require.NoError(t, st.Set(ctx, "users/u1/modules_order",
		[]string{id2, id2, "dead", id1}))

	list, err := idx.LoadModules(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	// выжившие в сохранённом порядке, потерянные — в конец
	assert.Equal(t, []string{id2, id1, id3}, idx.Order())
}

func TestModulesDeleteCascadesSchemas(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	idx := NewIndex(st, testUser())

	id1, err := idx.CreateModule(ctx, "Vendas")
	require.NoError(t, err)
	id2, err := idx.CreateModule(ctx, "Estoque")
	require.NoError(t, err)

	repo := NewRepository(st, testUser())
	require.NoError(t, repo.SaveEntitySchema(ctx, id1, "e1", "Cliente", nil))
	require.NoError(t, repo.SaveEntitySchema(ctx, id2, "e1", "Cliente", nil))

	require.NoError(t, idx.DeleteModule(ctx, id1))

	assert.Equal(t, []string{id2}, idx.Order())
	ok, err := st.Get(ctx, "users/u1/schemas/"+id1, nil)
	require.NoError(t, err)
	assert.False(t, ok, "схемное поддерево модуля должно уйти вместе с ним")
	ok, err = st.Get(ctx, "users/u1/schemas/"+id2+"/e1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlaceEntityIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	idx := NewIndex(st, testUser())

	created, err := idx.SaveEntityToModule(ctx, "m1", "e1", "Cliente")
	require.NoError(t, err)
	assert.True(t, created)

	// наполняем схему и размещаем повторно — атрибуты не затираются
	repo := NewRepository(st, testUser())
	require.NoError(t, repo.SaveEntitySchema(ctx, "m1", "e1", "Cliente",
		[]Attribute{NewPrimitive("f1", "Nome", "text")}))

	created, err = idx.SaveEntityToModule(ctx, "m1", "e1", "Cliente")
	require.NoError(t, err)
	assert.False(t, created)

	sch, err := repo.LoadEntitySchema(ctx, "m1", "e1")
	require.NoError(t, err)
	require.Len(t, sch.Attributes, 1)
	assert.Equal(t, "Nome", sch.Attributes[0].Label)
}

func TestRemoveEntityFromModuleKeepsOtherPlacements(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	idx := NewIndex(st, testUser())

	_, err := idx.SaveEntityToModule(ctx, "m1", "e1", "Cliente")
	require.NoError(t, err)
	_, err = idx.SaveEntityToModule(ctx, "m2", "e1", "Cliente")
	require.NoError(t, err)

	require.NoError(t, idx.DeleteEntityFromModule(ctx, "m1", "e1"))

	ok, err := st.Get(ctx, "users/u1/schemas/m1/e1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = st.Get(ctx, "users/u1/schemas/m2/e1", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
