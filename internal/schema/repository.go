package schema

import (
	"context"

	"construktor/internal/apperr"
	"construktor/internal/auth"
	"construktor/internal/store"
)

func userPath(user auth.Identity, parts ...string) string {
	p := "users/" + user.ID
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

// Repository отвечает за схемы размещений: (модуль, сущность) → дерево
// атрибутов. Запись всегда перезаписывает документ целиком, никакой
// оптимистической блокировки — поздний save побеждает.
type Repository struct {
	st   store.Store
	user auth.Identity
}

func NewRepository(st store.Store, user auth.Identity) *Repository {
	return &Repository{st: st, user: user}
}

func (r *Repository) schemaPath(moduleID, entityID string) string {
	return userPath(r.user, "schemas", moduleID, entityID)
}

// LoadEntitySchema читает схему размещения. Отсутствие схемы — не ошибка:
// возвращается пустой список атрибутов.
func (r *Repository) LoadEntitySchema(ctx context.Context, moduleID, entityID string) (EntitySchema, error) {
	empty := EntitySchema{Attributes: []Attribute{}}
	if !r.user.Resolved() {
		return empty, apperr.Unauthenticated()
	}
	if moduleID == "" || entityID == "" {
		return empty, apperr.Validation("", "module and entity ids are required")
	}

	var sch EntitySchema
	ok, err := r.st.Get(ctx, r.schemaPath(moduleID, entityID), &sch)
	if err != nil {
		return empty, apperr.Remote("could not load the entity structure", err)
	}
	if !ok {
		return empty, nil
	}
	if sch.Attributes == nil {
		sch.Attributes = []Attribute{}
	}
	return sch, nil
}

// SaveEntitySchema — полная перезапись схемы размещения. entityName
// сохраняется как передан, без сверки с каталогом.
func (r *Repository) SaveEntitySchema(ctx context.Context, moduleID, entityID, entityName string, attrs []Attribute) error {
	if !r.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if moduleID == "" || entityID == "" {
		return apperr.Validation("", "module and entity ids are required")
	}
	if issues := LintAttributes(attrs); len(issues) > 0 {
		return apperr.Validation(issues[0].Field, issues[0].Message)
	}
	if attrs == nil {
		attrs = []Attribute{}
	}
	sch := EntitySchema{EntityName: entityName, Attributes: attrs}
	if err := r.st.Set(ctx, r.schemaPath(moduleID, entityID), sch); err != nil {
		return apperr.Remote("could not save the entity structure", err)
	}
	return nil
}

// SaveSubEntitySchema подменяет subSchema.attributes у атрибута
// parentFieldID РОДИТЕЛЬСКОЙ схемы и перезаписывает её документ целиком.
// Поиск атрибута — только по верхнему уровню родителя: суб-сущность,
// вложенную глубже, сохраняют вызовом, адресованным её непосредственному
// родителю. Отсутствие родительской схемы или атрибута — тихий no-op.
func (r *Repository) SaveSubEntitySchema(ctx context.Context, moduleID, entityID, parentFieldID string, attrs []Attribute) error {
	if !r.user.Resolved() {
		return apperr.Unauthenticated()
	}
	if moduleID == "" || entityID == "" {
		return apperr.Validation("", "sub-entity can only be saved through its immediate parent placement")
	}
	if parentFieldID == "" {
		return apperr.Validation("parentFieldId", "parent field id is required")
	}
	if issues := LintAttributes(attrs); len(issues) > 0 {
		return apperr.Validation(issues[0].Field, issues[0].Message)
	}
	if attrs == nil {
		attrs = []Attribute{}
	}

	path := r.schemaPath(moduleID, entityID)
	var parent EntitySchema
	ok, err := r.st.Get(ctx, path, &parent)
	if err != nil {
		return apperr.Remote("could not load the parent structure", err)
	}
	if !ok {
		return nil
	}

	for i := range parent.Attributes {
		a := &parent.Attributes[i]
		if a.ID != parentFieldID || a.Kind() != KindIndependent {
			continue
		}
		a.SubSchema.Attributes = attrs
		if err := r.st.Set(ctx, path, parent); err != nil {
			return apperr.Remote("could not save the sub-entity structure", err)
		}
		return nil
	}
	return nil
}
