// Package invite — приглашения к совместному доступу. Приглашения
// лежат в общей ветке invitations/ (а не под пользователем): получатель
// находит свои по email ещё до первого входа. Принятие пишет роль в
// accessControl получателя.
package invite

import (
	"context"
	"sort"
	"strings"
	"time"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusCanceled = "canceled"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ResourceModuleConstructor — единственный пока разделяемый ресурс:
// конструктор модулей целиком.
const ResourceModuleConstructor = "module_constructor"

type Invitation struct {
	ID           string `json:"id,omitempty"`
	FromUserID   string `json:"fromUserId"`
	FromUserName string `json:"fromUserName,omitempty"`
	ToEmail      string `json:"toEmail"`
	ToUserID     string `json:"toUserId,omitempty"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	ResourceName string `json:"resourceName,omitempty"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	AcceptedAt   string `json:"acceptedAt,omitempty"`
}

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor || role == RoleViewer
}

type Service struct {
	st store.Store
}

func NewService(st store.Store) *Service {
	return &Service{st: st}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Send создаёт pending-приглашение от текущего пользователя.
func (s *Service) Send(ctx context.Context, from auth.Identity, toEmail, resourceID, resourceName, role string) (Invitation, error) {
	if !from.Resolved() {
		return Invitation{}, apperr.Unauthenticated()
	}
	toEmail = strings.ToLower(strings.TrimSpace(toEmail))
	if toEmail == "" || !strings.Contains(toEmail, "@") {
		return Invitation{}, apperr.Validation("toEmail", "a valid recipient email is required")
	}
	if toEmail == strings.ToLower(from.Email) {
		return Invitation{}, apperr.Validation("toEmail", "cannot invite yourself")
	}
	if resourceID == "" {
		return Invitation{}, apperr.Validation("resourceId", "resource id is required")
	}
	if !validRole(role) {
		return Invitation{}, apperr.Validation("role", "role must be admin, editor or viewer")
	}

	inv := Invitation{
		FromUserID:   from.ID,
		FromUserName: from.Name,
		ToEmail:      toEmail,
		ResourceType: ResourceModuleConstructor,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Role:         role,
		Status:       StatusPending,
		CreatedAt:    now(),
	}
	id, err := s.st.Push(ctx, "invitations", inv)
	if err != nil {
		return Invitation{}, err
	}
	inv.ID = id
	return inv, nil
}

func sortByCreated(list []Invitation) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt > list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})
}

// Sent — приглашения, отправленные пользователем, все статусы,
// новые первыми.
func (s *Service) Sent(ctx context.Context, user auth.Identity) ([]Invitation, error) {
	if !user.Resolved() {
		return nil, apperr.Unauthenticated()
	}
	var raw map[string]Invitation
	if err := s.st.QueryEqual(ctx, "invitations", "fromUserId", user.ID, &raw); err != nil {
		return nil, err
	}
	out := make([]Invitation, 0, len(raw))
	for id, inv := range raw {
		inv.ID = id
		out = append(out, inv)
	}
	sortByCreated(out)
	return out, nil
}

// Received — входящие pending-приглашения по email пользователя.
func (s *Service) Received(ctx context.Context, user auth.Identity) ([]Invitation, error) {
	if !user.Resolved() {
		return nil, apperr.Unauthenticated()
	}
	var raw map[string]Invitation
	if err := s.st.QueryEqual(ctx, "invitations", "toEmail", strings.ToLower(user.Email), &raw); err != nil {
		return nil, err
	}
	out := make([]Invitation, 0, len(raw))
	for id, inv := range raw {
		if inv.Status != StatusPending {
			continue
		}
		inv.ID = id
		out = append(out, inv)
	}
	sortByCreated(out)
	return out, nil
}

// PendingCount — число входящих pending; для бейджа в шапке.
func (s *Service) PendingCount(ctx context.Context, user auth.Identity) (int, error) {
	list, err := s.Received(ctx, user)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (s *Service) load(ctx context.Context, id string) (Invitation, error) {
	var inv Invitation
	ok, err := s.st.Get(ctx, "invitations/"+id, &inv)
	if err != nil {
		return Invitation{}, err
	}
	if !ok {
		return Invitation{}, apperr.NotFound("invitation not found")
	}
	inv.ID = id
	return inv, nil
}

// Cancel отзывает отправленное приглашение; только отправитель и только
// из pending.
func (s *Service) Cancel(ctx context.Context, user auth.Identity, id string) error {
	if !user.Resolved() {
		return apperr.Unauthenticated()
	}
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if inv.FromUserID != user.ID {
		return apperr.Validation("id", "only the sender can cancel an invitation")
	}
	if inv.Status != StatusPending {
		return apperr.Validation("status", "only pending invitations can be canceled")
	}
	return s.st.Update(ctx, "invitations/"+id, map[string]any{"status": StatusCanceled})
}

// Accept принимает приглашение: статус + toUserId + acceptedAt, затем
// роль в accessControl получателя. Две записи без общей транзакции:
// если вторая упала, приглашение уже accepted и доступ выдаётся руками.
func (s *Service) Accept(ctx context.Context, user auth.Identity, id string) error {
	if !user.Resolved() {
		return apperr.Unauthenticated()
	}
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(inv.ToEmail, user.Email) {
		return apperr.Validation("id", "invitation is addressed to a different user")
	}
	if inv.Status != StatusPending {
		return apperr.Validation("status", "invitation is no longer pending")
	}

	if err := s.st.Update(ctx, "invitations/"+id, map[string]any{
		"status":     StatusAccepted,
		"toUserId":   user.ID,
		"acceptedAt": now(),
	}); err != nil {
		return err
	}
	return s.st.Set(ctx, "accessControl/"+user.ID+"/"+inv.ResourceID, map[string]any{
		"role":        inv.Role,
		"ownerUserId": inv.FromUserID,
		"grantedAt":   now(),
	})
}

// Decline отклоняет входящее приглашение.
func (s *Service) Decline(ctx context.Context, user auth.Identity, id string) error {
	if !user.Resolved() {
		return apperr.Unauthenticated()
	}
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(inv.ToEmail, user.Email) {
		return apperr.Validation("id", "invitation is addressed to a different user")
	}
	if inv.Status != StatusPending {
		return apperr.Validation("status", "invitation is no longer pending")
	}
	return s.st.Update(ctx, "invitations/"+id, map[string]any{
		"status":   StatusDeclined,
		"toUserId": user.ID,
	})
}

// Access — роль пользователя на ресурсе, если выдана.
type Access struct {
	Role        string `json:"role"`
	OwnerUserID string `json:"ownerUserId,omitempty"`
	GrantedAt   string `json:"grantedAt,omitempty"`
}

func (s *Service) AccessFor(ctx context.Context, user auth.Identity, resourceID string) (Access, bool, error) {
	if !user.Resolved() {
		return Access{}, false, apperr.Unauthenticated()
	}
	var a Access
	ok, err := s.st.Get(ctx, "accessControl/"+user.ID+"/"+resourceID, &a)
	if err != nil {
		return Access{}, false, err
	}
	return a, ok && a.Role != "", nil
}
