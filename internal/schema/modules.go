package schema

import (
	"context"
	"sort"
	"strings"
	"sync"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

// Index ведёт модули, их пользовательский порядок и размещения сущностей
// в модулях (many-to-many через схемные слоты).
type Index struct {
	st   store.Store
	user auth.Identity

	mu    sync.RWMutex
	order []string
}

func NewIndex(st store.Store, user auth.Identity) *Index {
	return &Index{st: st, user: user}
}

// LoadModules читает модули и восстанавливает их порядок: сохранённый
// список чистится от id несуществующих модулей, модули без места в списке
// дописываются в конец (стабильно, по id). Результат — модули в итоговом
// порядке; восстановленный список живёт в памяти до следующего save.
func (i *Index) LoadModules(ctx context.Context) ([]Module, error) {
	if !i.user.Resolved() {
		return nil, apperr.Unauthenticated()
	}

	var raw map[string]Module
	_, err := i.st.Get(ctx, userPath(i.user, "modules"), &raw)
	if err != nil {
		return nil, apperr.Remote("could not load modules", err)
	}

	var stored []string
	_, err = i.st.Get(ctx, userPath(i.user, "modules_order"), &stored)
	if err != nil {
		return nil, apperr.Remote("could not load the module order", err)
	}

	order := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, id := range stored {
		if _, exists := raw[id]; !exists {
			continue // модуль удалён — выбрасываем из порядка
		}
		if _, dup := seen[id]; dup {
			continue
		}
		order = append(order, id)
		seen[id] = struct{}{}
	}
	missing := make([]string, 0)
	for id := range raw {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	order = append(order, missing...)

	i.mu.Lock()
	i.order = order
	i.mu.Unlock()

	out := make([]Module, 0, len(order))
	for _, id := range order {
		m := raw[id]
		m.ID = id
		out = append(out, m)
	}
	return out, nil
}

// Order — копия текущего (возможно восстановленного) порядка модулей.
func (i *Index) Order() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), i.order...)
}

func (i *Index) CreateModule(ctx context.Context, name string) (string, error) {
	if !i.user.Resolved() {
		return "", apperr.Unauthenticated()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name", "module name is required")
	}

	id, err := i.st.Push(ctx, userPath(i.user, "modules"), Module{Name: name})
	if err != nil {
		return "", apperr.Remote("could not create the module", err)
	}

	i.mu.Lock()
	i.order = append(i.order, id)
	order := append([]string(nil), i.order...)
	i.mu.Unlock()

	if err := i.st.Set(ctx, userPath(i.user, "modules_order"), order); err != nil {
		return "", apperr.Remote("could not save the module order", err)
	}
	return id, nil
}

// DeleteModule удаляет модуль, всё его схемное поддерево и запись в списке
// порядка. Сущности в каталоге не трогаются.
func (i *Index) DeleteModule(ctx context.Context, moduleID string) error {
	if !i.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if moduleID == "" {
		return apperr.Validation("id", "module id is required")
	}

	if err := i.st.Remove(ctx, userPath(i.user, "modules", moduleID)); err != nil {
		return apperr.Remote("could not delete the module", err)
	}
	if err := i.st.Remove(ctx, userPath(i.user, "schemas", moduleID)); err != nil {
		return apperr.Remote("could not delete the module schemas", err)
	}

	i.mu.Lock()
	kept := i.order[:0]
	for _, id := range i.order {
		if id != moduleID {
			kept = append(kept, id)
		}
	}
	i.order = kept
	order := append([]string(nil), i.order...)
	i.mu.Unlock()

	if err := i.st.Set(ctx, userPath(i.user, "modules_order"), order); err != nil {
		return apperr.Remote("could not save the module order", err)
	}
	return nil
}

// SaveOrder перезаписывает порядок целиком; полноту перестановки
// обеспечивает вызывающий.
func (i *Index) SaveOrder(ctx context.Context, ids []string) error {
	if !i.user.Resolved() {
		return apperr.Unauthenticated()
	}

	i.mu.Lock()
	i.order = append([]string(nil), ids...)
	i.mu.Unlock()

	if err := i.st.Set(ctx, userPath(i.user, "modules_order"), ids); err != nil {
		return apperr.Remote("could not save the module order", err)
	}
	return nil
}

// SaveEntityToModule размещает сущность в модуле, засеивая пустую схему.
// Идемпотентно: повторное добавление возвращает false и НЕ затирает уже
// сохранённые атрибуты.
func (i *Index) SaveEntityToModule(ctx context.Context, moduleID, entityID, entityName string) (bool, error) {
	if !i.user.Resolved() {
		return false, apperr.Unauthenticated()
	}
	if moduleID == "" || entityID == "" {
		return false, apperr.Validation("", "module and entity ids are required")
	}

	path := userPath(i.user, "schemas", moduleID, entityID)
	exists, err := i.st.Get(ctx, path, nil)
	if err != nil {
		return false, apperr.Remote("could not add the entity to the module", err)
	}
	if exists {
		return false, nil
	}
	seed := EntitySchema{EntityName: entityName, Attributes: []Attribute{}}
	if err := i.st.Set(ctx, path, seed); err != nil {
		return false, apperr.Remote("could not add the entity to the module", err)
	}
	return true, nil
}

// DeleteEntityFromModule убирает одно размещение; сущность остаётся в
// каталоге и в других модулях.
func (i *Index) DeleteEntityFromModule(ctx context.Context, moduleID, entityID string) error {
	if !i.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if moduleID == "" || entityID == "" {
		return apperr.Validation("", "module and entity ids are required")
	}
	if err := i.st.Remove(ctx, userPath(i.user, "schemas", moduleID, entityID)); err != nil {
		return apperr.Remote("could not remove the entity from the module", err)
	}
	return nil
}
