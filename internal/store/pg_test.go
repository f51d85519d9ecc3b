package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционный тест: реальный Postgres в контейнере. Требует Docker,
// в -short пропускается.
func startPostgres(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode (requires Docker)")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("construktor_test"),
		postgres.WithUsername("construktor"),
		postgres.WithPassword("construktor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := OpenPostgres(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })
	return pg
}

func TestPostgresRoundTrip(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, pg.Set(ctx, "users/u1/entities/e1", map[string]any{"name": "Cliente", "icon": "user"}))

	var got map[string]string
	ok, err := pg.Get(ctx, "users/u1/entities/e1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Cliente", got["name"])

	// чтение префикса собирает поддерево из строк-документов
	var tree map[string]map[string]string
	ok, err = pg.Get(ctx, "users/u1/entities", &tree)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, tree, "e1")
	assert.Equal(t, "user", tree["e1"]["icon"])
}

func TestPostgresUpdateAndRemove(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, pg.Set(ctx, "invitations/i1", map[string]any{"status": "pending", "toEmail": "a@b.c"}))
	require.NoError(t, pg.Update(ctx, "invitations/i1", map[string]any{
		"status":  "canceled",
		"toEmail": nil,
	}))

	var got map[string]any
	ok, err := pg.Get(ctx, "invitations/i1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "canceled", got["status"])
	assert.NotContains(t, got, "toEmail")

	require.NoError(t, pg.Remove(ctx, "invitations/i1"))
	ok, err = pg.Get(ctx, "invitations/i1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresMultiUpdate(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, pg.Set(ctx, "users/u1/schemas/m1/e1", map[string]any{"entityName": "X"}))
	require.NoError(t, pg.Set(ctx, "users/u1/schemas/m2/e1", map[string]any{"entityName": "X"}))

	require.NoError(t, pg.MultiUpdate(ctx, map[string]any{
		"users/u1/schemas/m1/e1": nil,
		"users/u1/schemas/m2/e1": nil,
		"users/u1/entities/e2":   map[string]any{"name": "Pedido"},
	}))

	ok, err := pg.Get(ctx, "users/u1/schemas", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = pg.Get(ctx, "users/u1/entities/e2", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresQueryEqual(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, pg.Set(ctx, "invitations/i1", map[string]any{"fromUserId": "u1", "status": "pending"}))
	require.NoError(t, pg.Set(ctx, "invitations/i2", map[string]any{"fromUserId": "u2", "status": "pending"}))

	var got map[string]map[string]any
	require.NoError(t, pg.QueryEqual(ctx, "invitations", "fromUserId", "u1", &got))
	require.Len(t, got, 1)
	assert.Contains(t, got, "i1")
}

func TestPostgresPush(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	id1, err := pg.Push(ctx, "users/u1/data/m1/e1", map[string]any{"nome": "Ana"})
	require.NoError(t, err)
	id2, err := pg.Push(ctx, "users/u1/data/m1/e1", map[string]any{"nome": "Bruno"})
	require.NoError(t, err)
	assert.Less(t, id1, id2)

	var rows map[string]map[string]any
	ok, err := pg.Get(ctx, "users/u1/data/m1/e1", &rows)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, rows, 2)
}
