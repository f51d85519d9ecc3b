package invite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

var (
	owner = auth.Identity{ID: "u1", Email: "owner@example.com", Name: "Dono"}
	guest = auth.Identity{ID: "u2", Email: "guest@example.com", Name: "Convidado"}
)

func newSvc() (*Service, *store.Memory) {
	st := store.NewMemory()
	return NewService(st), st
}

func send(t *testing.T, svc *Service) Invitation {
	t.Helper()
	inv, err := svc.Send(context.Background(), owner,
		"Guest@Example.com", "workspace-u1", "Conta do Dono", RoleEditor)
	require.NoError(t, err)
	return inv
}

func TestSendNormalizesAndDefaults(t *testing.T) {
	svc, _ := newSvc()
	inv := send(t, svc)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "guest@example.com", inv.ToEmail, "email приводится к нижнему регистру")
	assert.Equal(t, StatusPending, inv.Status)
	assert.Equal(t, ResourceModuleConstructor, inv.ResourceType)
	assert.NotEmpty(t, inv.CreatedAt)
	assert.Empty(t, inv.ToUserID, "получатель неизвестен до принятия")
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc()

	_, err := svc.Send(ctx, auth.Identity{}, "a@b.c", "r", "", RoleViewer)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthenticated))
	_, err = svc.Send(ctx, owner, "not-an-email", "r", "", RoleViewer)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	_, err = svc.Send(ctx, owner, owner.Email, "r", "", RoleViewer)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation), "приглашать себя нельзя")
	_, err = svc.Send(ctx, owner, "a@b.c", "", "", RoleViewer)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	_, err = svc.Send(ctx, owner, "a@b.c", "r", "", "owner")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation), "неизвестная роль")
}

func TestSentAndReceived(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc()
	inv := send(t, svc)

	sent, err := svc.Sent(ctx, owner)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, inv.ID, sent[0].ID)

	recv, err := svc.Received(ctx, guest)
	require.NoError(t, err)
	require.Len(t, recv, 1)

	n, err := svc.PendingCount(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// чужие списки пусты
	recv, err = svc.Received(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, recv)
}

func TestAcceptGrantsAccess(t *testing.T) {
	ctx := context.Background()
	svc, st := newSvc()
	inv := send(t, svc)

	require.NoError(t, svc.Accept(ctx, guest, inv.ID))

	got, err := svc.load(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)
	assert.Equal(t, guest.ID, got.ToUserID)
	assert.NotEmpty(t, got.AcceptedAt)

	var ac Access
	ok, err := st.Get(ctx, "accessControl/u2/workspace-u1", &ac)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, RoleEditor, ac.Role)
	assert.Equal(t, owner.ID, ac.OwnerUserID)

	a, found, err := svc.AccessFor(ctx, guest, "workspace-u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, RoleEditor, a.Role)

	// принятое вычищается из входящих
	recv, err := svc.Received(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, recv)

	// повторное принятие — уже не pending
	err = svc.Accept(ctx, guest, inv.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc()
	inv := send(t, svc)

	stranger := auth.Identity{ID: "u3", Email: "other@example.com"}
	err := svc.Accept(ctx, stranger, inv.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	err = svc.Accept(ctx, guest, "missing")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	svc, st := newSvc()
	inv := send(t, svc)

	require.NoError(t, svc.Decline(ctx, guest, inv.ID))

	got, err := svc.load(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, got.Status)

	// доступ не выдан
	ok, err := st.Get(ctx, "accessControl/u2/workspace-u1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelOnlyBySenderWhilePending(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSvc()
	inv := send(t, svc)

	err := svc.Cancel(ctx, guest, inv.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation), "получатель не может отозвать")

	require.NoError(t, svc.Cancel(ctx, owner, inv.ID))
	got, err := svc.load(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, got.Status)

	// отозванное не принимается
	err = svc.Accept(ctx, guest, inv.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
