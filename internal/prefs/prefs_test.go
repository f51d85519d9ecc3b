package prefs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/buntdb"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

func openMirror(t *testing.T) *buntdb.DB {
	t.Helper()
	db, err := buntdb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func user() auth.Identity {
	return auth.Identity{ID: "u1", Email: "u1@example.com", Name: "Usuário"}
}

// brokenStore имитирует недоступный удалённый стор.
type brokenStore struct{}

var errDown = errors.New("store is down")

func (brokenStore) Get(context.Context, string, any) (bool, error)        { return false, errDown }
func (brokenStore) Set(context.Context, string, any) error                { return errDown }
func (brokenStore) Update(context.Context, string, map[string]any) error  { return errDown }
func (brokenStore) Remove(context.Context, string) error                  { return errDown }
func (brokenStore) Push(context.Context, string, any) (string, error)     { return "", errDown }
func (brokenStore) MultiUpdate(context.Context, map[string]any) error     { return errDown }
func (brokenStore) QueryEqual(context.Context, string, string, string, any) error {
	return errDown
}

func TestPrefsSaveAndGet(t *testing.T) {
	ctx := context.Background()
	p := New(store.NewMemory(), openMirror(t), user())

	require.NoError(t, p.Save(ctx, "hiddenColumns", []string{"email", "phone"}))

	var got []string
	require.NoError(t, p.Get("hiddenColumns", &got, []string{}))
	assert.Equal(t, []string{"email", "phone"}, got)
}

func TestPrefsDefaultWhenUnset(t *testing.T) {
	p := New(store.NewMemory(), openMirror(t), user())

	var got string
	require.NoError(t, p.Get("theme", &got, "light"))
	assert.Equal(t, "light", got)
}

func TestPrefsLoadFromRemote(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.Set(ctx, "users/u1/preferences/theme", "dark"))

	p := New(st, openMirror(t), user())
	p.Load(ctx)

	var got string
	require.NoError(t, p.Get("theme", &got, "light"))
	assert.Equal(t, "dark", got)
}

func TestPrefsMirrorSurvivesRemoteFailure(t *testing.T) {
	ctx := context.Background()
	mirror := openMirror(t)

	p := New(brokenStore{}, mirror, user())
	err := p.Save(ctx, "theme", "dark")
	require.Error(t, err, "отказ стора всплывает")
	assert.True(t, apperr.IsCode(err, apperr.CodeRemote))

	// но зеркало записано: новая сессия без памяти и без стора читает его
	p2 := New(brokenStore{}, mirror, user())
	p2.Load(ctx) // ошибка проглатывается

	var got string
	require.NoError(t, p2.Get("theme", &got, "light"))
	assert.Equal(t, "dark", got)
}

func TestPrefsUnauthenticatedSave(t *testing.T) {
	p := New(store.NewMemory(), openMirror(t), auth.Identity{})
	err := p.Save(context.Background(), "theme", "dark")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))
}
