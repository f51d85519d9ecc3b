package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

func newService() (*Service, *store.Memory) {
	st := store.NewMemory()
	user := auth.Identity{ID: "u1", Email: "u1@example.com", Name: "Usuário"}
	return NewService(st, user), st
}

func TestRecordsCreateStampsMetadata(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	id, err := svc.Create(ctx, "m1", "e1", map[string]any{"nome": "Ana"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	list, err := svc.List(ctx, "m1", "e1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	rec := list[0]
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Ana", rec.Fields["nome"])
	assert.Equal(t, "u1", rec.Fields["created_by"])

	created, ok := rec.Fields["created_at"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, created)
	assert.NoError(t, err)
	assert.Equal(t, rec.Fields["created_at"], rec.Fields["updated_at"])
}

func TestRecordsListSortedByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	id1, err := svc.Create(ctx, "m1", "e1", map[string]any{"n": 1})
	require.NoError(t, err)
	id2, err := svc.Create(ctx, "m1", "e1", map[string]any{"n": 2})
	require.NoError(t, err)

	list, err := svc.List(ctx, "m1", "e1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{id1, id2}, []string{list[0].ID, list[1].ID})

	// пустая сущность — пустой список
	empty, err := svc.List(ctx, "m1", "e2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecordsUpdateMerges(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	id, err := svc.Create(ctx, "m1", "e1", map[string]any{"nome": "Ana", "cidade": "Lisboa"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, "m1", "e1", id, map[string]any{"cidade": "Porto"}))

	list, err := svc.List(ctx, "m1", "e1")
	require.NoError(t, err)
	rec := list[0]
	assert.Equal(t, "Ana", rec.Fields["nome"], "непереданные поля выживают")
	assert.Equal(t, "Porto", rec.Fields["cidade"])

	err = svc.Update(ctx, "m1", "e1", "missing", map[string]any{"x": 1})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestRecordsDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	id, err := svc.Create(ctx, "m1", "e1", map[string]any{"nome": "Ana"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "m1", "e1", id))

	list, err := svc.List(ctx, "m1", "e1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordsRequireIdentityAndIDs(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	anon := NewService(st, auth.Identity{})

	_, err := anon.Create(ctx, "m1", "e1", nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))

	svc, _ := newService()
	_, err = svc.Create(ctx, "", "e1", nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	err = svc.Delete(ctx, "m1", "e1", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
