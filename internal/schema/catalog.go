package schema

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

// Catalog — плоский, дедуплицированный набор определений сущностей
// пользователя. После LoadAll чтения идут из кеша синхронно; свежесть
// кеша — забота вызывающего (перечитать можно только явным LoadAll).
type Catalog struct {
	st   store.Store
	user auth.Identity

	mu       sync.RWMutex
	entities []Entity
}

func NewCatalog(st store.Store, user auth.Identity) *Catalog {
	return &Catalog{st: st, user: user}
}

// LoadAll перечитывает каталог из стора и наполняет кеш. Порядок —
// по id (push-id хронологические).
func (c *Catalog) LoadAll(ctx context.Context) ([]Entity, error) {
	if !c.user.Resolved() {
		return nil, apperr.Unauthenticated()
	}

	var raw map[string]Entity
	_, err := c.st.Get(ctx, userPath(c.user, "entities"), &raw)
	if err != nil {
		return nil, apperr.Remote("could not load entities", err)
	}

	list := make([]Entity, 0, len(raw))
	for id, e := range raw {
		e.ID = id
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	c.mu.Lock()
	c.entities = list
	c.mu.Unlock()
	return append([]Entity(nil), list...), nil
}

// Entities отдаёт копию кеша без похода в стор.
func (c *Catalog) Entities() []Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entity(nil), c.entities...)
}

func (c *Catalog) Find(id string) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entities {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

// Create заводит сущность с хранилищем-сгенерированным id и дописывает её
// в кеш.
func (c *Catalog) Create(ctx context.Context, name, icon string) (string, error) {
	if !c.user.Resolved() {
		return "", apperr.Unauthenticated()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name", "entity name is required")
	}
	if strings.TrimSpace(icon) == "" {
		return "", apperr.Validation("icon", "an icon must be chosen")
	}

	id, err := c.st.Push(ctx, userPath(c.user, "entities"), Entity{Name: name, Icon: icon})
	if err != nil {
		return "", apperr.Remote("could not create the entity", err)
	}

	c.mu.Lock()
	c.entities = append(c.entities, Entity{ID: id, Name: name, Icon: icon})
	c.mu.Unlock()
	return id, nil
}

// Delete удаляет сущность из каталога и выметает её размещения из ВСЕХ
// модулей одним батчевым мульти-обновлением. Кеш фильтруется только после
// успеха удалённой части.
func (c *Catalog) Delete(ctx context.Context, entityID string) error {
	if !c.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if entityID == "" {
		return apperr.Validation("id", "entity id is required")
	}

	if err := c.st.Remove(ctx, userPath(c.user, "entities", entityID)); err != nil {
		return apperr.Remote("could not delete the entity", err)
	}

	// план транзакции: путь → nil для каждого модуля, где сущность размещена
	var schemas map[string]map[string]json.RawMessage
	_, err := c.st.Get(ctx, userPath(c.user, "schemas"), &schemas)
	if err != nil {
		return apperr.Remote("could not sweep the entity placements", err)
	}
	updates := make(map[string]any)
	for moduleID := range schemas {
		updates[userPath(c.user, "schemas", moduleID, entityID)] = nil
	}
	if len(updates) > 0 {
		if err := c.st.MultiUpdate(ctx, updates); err != nil {
			return apperr.Remote("could not sweep the entity placements", err)
		}
	}

	c.mu.Lock()
	kept := c.entities[:0]
	for _, e := range c.entities {
		if e.ID != entityID {
			kept = append(kept, e)
		}
	}
	c.entities = kept
	c.mu.Unlock()
	return nil
}
