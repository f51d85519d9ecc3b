// Package records хранит записи данных под динамическими схемами.
// Записи — произвольные json-объекты; сервис добавляет служебные поля
// и не валидирует данные против схемы (схема описывает форму ввода,
// а не контракт хранения).
package records

import (
	"context"
	"sort"
	"time"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

// Record — запись с приклеенным при чтении id.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type Service struct {
	st   store.Store
	user auth.Identity
}

func NewService(st store.Store, user auth.Identity) *Service {
	return &Service{st: st, user: user}
}

func (s *Service) path(moduleID, entityID string, rest ...string) string {
	p := "users/" + s.user.ID + "/data/" + moduleID + "/" + entityID
	for _, seg := range rest {
		p += "/" + seg
	}
	return p
}

func (s *Service) check(moduleID, entityID string) error {
	if !s.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if moduleID == "" || entityID == "" {
		return apperr.Validation("", "module and entity ids are required")
	}
	return nil
}

// Create сохраняет запись, добавляя created_at/updated_at (UTC, RFC 3339)
// и created_by. Пользовательские поля с такими именами перетираются.
func (s *Service) Create(ctx context.Context, moduleID, entityID string, fields map[string]any) (string, error) {
	if err := s.check(moduleID, entityID); err != nil {
		return "", err
	}
	doc := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		doc[k] = v
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc["created_at"] = now
	doc["updated_at"] = now
	doc["created_by"] = s.user.ID

	return s.st.Push(ctx, s.path(moduleID, entityID), doc)
}

// List возвращает записи сущности, отсортированные по id (ulid —
// значит по времени создания).
func (s *Service) List(ctx context.Context, moduleID, entityID string) ([]Record, error) {
	if err := s.check(moduleID, entityID); err != nil {
		return nil, err
	}
	var raw map[string]map[string]any
	if _, err := s.st.Get(ctx, s.path(moduleID, entityID), &raw); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(raw))
	for id, fields := range raw {
		out = append(out, Record{ID: id, Fields: fields})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update домердживает поля в существующую запись и обновляет updated_at.
func (s *Service) Update(ctx context.Context, moduleID, entityID, recordID string, fields map[string]any) error {
	if err := s.check(moduleID, entityID); err != nil {
		return err
	}
	if recordID == "" {
		return apperr.Validation("id", "record id is required")
	}
	var cur map[string]any
	ok, err := s.st.Get(ctx, s.path(moduleID, entityID, recordID), &cur)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("record not found")
	}

	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return s.st.Update(ctx, s.path(moduleID, entityID, recordID), patch)
}

func (s *Service) Delete(ctx context.Context, moduleID, entityID, recordID string) error {
	if err := s.check(moduleID, entityID); err != nil {
		return err
	}
	if recordID == "" {
		return apperr.Validation("id", "record id is required")
	}
	return s.st.Remove(ctx, s.path(moduleID, entityID, recordID))
}
