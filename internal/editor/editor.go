// Package editor реализует навигацию вложенного редактора структур:
// стек контекстов, проваливание в суб-сущности и связи, сохранение в
// родительский контекст. Повторяет поведение модального конструктора,
// включая потерю несохранённых правок при возврате назад.
package editor

import (
	"context"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"construktor/internal/apperr"
	"construktor/internal/schema"
)

// SystemModuleID — сентинел модуля для контекста, открытого через
// relationship-поле: целевая сущность глобальна и редактируется вне
// конкретного модуля.
const SystemModuleID = "system"

// Context — один кадр навигации. Либо корневой (размещение в модуле,
// в т.ч. relationship-drill с модулем-сентинелом), либо суб-сущность
// (владеет снапшотом subSchema на момент проваливания).
type Context struct {
	ModuleID   string `json:"moduleId,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
	EntityName string `json:"entityName,omitempty"`

	IsSubEntity   bool              `json:"isSubEntity,omitempty"`
	Label         string            `json:"label,omitempty"`
	ParentFieldID string            `json:"parentFieldId,omitempty"`
	SubSchema     *schema.SubSchema `json:"subSchema,omitempty"`
}

func (c Context) Title() string {
	if c.IsSubEntity {
		return c.Label
	}
	return c.EntityName
}

// Session — состояние одного открытого редактора. Не потокобезопасна:
// владелец (workspace) сериализует доступ.
type Session struct {
	repo    *schema.Repository
	catalog *schema.Catalog
	types   *schema.FieldTypeCatalog

	open    bool
	current Context
	stack   []Context
	working []schema.Attribute

	entropy io.Reader
}

func NewSession(repo *schema.Repository, catalog *schema.Catalog, types *schema.FieldTypeCatalog) *Session {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Session{
		repo:    repo,
		catalog: catalog,
		types:   types,
		entropy: ulid.Monotonic(src, 0),
	}
}

func (s *Session) newFieldID() string {
	return "field_" + ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Open открывает контекст, НЕ трогая стек. Рабочий список строится заново:
// для суб-сущности — из снапшота в контексте, для корневого — из стора.
func (s *Session) Open(ctx context.Context, c Context) error {
	if c.IsSubEntity {
		if c.ParentFieldID == "" || c.SubSchema == nil {
			return apperr.Validation("", "sub-entity context is incomplete")
		}
		s.working = schema.CloneAttributes(c.SubSchema.Attributes)
	} else {
		if c.ModuleID == "" || c.EntityID == "" {
			return apperr.Validation("", "module and entity ids are required")
		}
		sch, err := s.repo.LoadEntitySchema(ctx, c.ModuleID, c.EntityID)
		if err != nil {
			return err
		}
		s.working = schema.CloneAttributes(sch.Attributes)
	}
	s.current = c
	s.open = true
	return nil
}

func (s *Session) IsOpen() bool     { return s.open }
func (s *Session) Current() Context { return s.current }
func (s *Session) Depth() int       { return len(s.stack) }

// Attributes — копия редактируемого списка.
func (s *Session) Attributes() []schema.Attribute {
	return schema.CloneAttributes(s.working)
}

// Breadcrumb — заголовки от корня стека до текущего контекста.
func (s *Session) Breadcrumb() []string {
	out := make([]string, 0, len(s.stack)+1)
	for _, c := range s.stack {
		out = append(out, c.Title())
	}
	return append(out, s.current.Title())
}

func (s *Session) requireOpen() error {
	if !s.open {
		return apperr.Validation("", "no structure is being edited")
	}
	return nil
}

// AddPrimitive добавляет обычное поле выбранного типа.
func (s *Session) AddPrimitive(label, typ string) (schema.Attribute, error) {
	if err := s.requireOpen(); err != nil {
		return schema.Attribute{}, err
	}
	if label == "" {
		return schema.Attribute{}, apperr.Validation("label", "field name is required")
	}
	if typ == schema.TypeSubEntity || !s.types.Has(typ) {
		return schema.Attribute{}, apperr.Validation("type", "unknown field type")
	}
	a := schema.NewPrimitive(s.newFieldID(), label, typ)
	s.working = append(s.working, a)
	return a, nil
}

// AddIndependent добавляет вложенную суб-сущность с пустой схемой.
func (s *Session) AddIndependent(label string) (schema.Attribute, error) {
	if err := s.requireOpen(); err != nil {
		return schema.Attribute{}, err
	}
	if label == "" {
		return schema.Attribute{}, apperr.Validation("label", "sub-entity name is required")
	}
	a := schema.NewIndependent(s.newFieldID(), label)
	s.working = append(s.working, a)
	return a, nil
}

// AddRelationship добавляет связь на другую сущность каталога. Нужна хотя
// бы одна сущность, отличная от редактируемой; связь на себя запрещена.
func (s *Session) AddRelationship(label, targetEntityID string) (schema.Attribute, error) {
	if err := s.requireOpen(); err != nil {
		return schema.Attribute{}, err
	}
	if label == "" {
		return schema.Attribute{}, apperr.Validation("label", "field name is required")
	}

	others := 0
	for _, e := range s.catalog.Entities() {
		if e.ID != s.current.EntityID {
			others++
		}
	}
	if others == 0 {
		return schema.Attribute{}, apperr.Validation("targetEntityId",
			"no other entities exist to link to; create at least one other entity first")
	}
	if targetEntityID == s.current.EntityID {
		return schema.Attribute{}, apperr.Validation("targetEntityId",
			"an entity cannot be linked to itself")
	}
	target, ok := s.catalog.Find(targetEntityID)
	if !ok {
		return schema.Attribute{}, apperr.Validation("targetEntityId", "target entity not found")
	}

	a := schema.NewRelationship(s.newFieldID(), label, target.ID, target.Name)
	s.working = append(s.working, a)
	return a, nil
}

// RemoveField убирает поле только из рабочего списка; в сторе изменение
// появится после явного Save.
func (s *Session) RemoveField(fieldID string) bool {
	for i, a := range s.working {
		if a.ID == fieldID {
			s.working = append(s.working[:i], s.working[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) findWorking(fieldID string) (schema.Attribute, bool) {
	for _, a := range s.working {
		if a.ID == fieldID {
			return a, true
		}
	}
	return schema.Attribute{}, false
}

// DrillIn проваливается в суб-сущностное поле: текущий контекст уходит в
// стек, открывается дочерний. Несохранённые правки текущего списка НЕ
// попадают в запушенный контекст — возврат назад их теряет.
func (s *Session) DrillIn(ctx context.Context, fieldID string) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	f, ok := s.findWorking(fieldID)
	if !ok {
		return apperr.Validation("fieldId", "field not found in the current structure")
	}

	switch f.Kind() {
	case schema.KindIndependent:
		child := Context{
			IsSubEntity:   true,
			Label:         f.Label,
			ParentFieldID: f.ID,
			SubSchema:     &schema.SubSchema{Attributes: schema.CloneAttributes(f.SubSchema.Attributes)},
		}
		s.stack = append(s.stack, s.current)
		return s.Open(ctx, child)

	case schema.KindRelationship:
		target, ok := s.catalog.Find(f.TargetEntityID)
		if !ok {
			return apperr.Validation("targetEntityId", "the related entity no longer exists")
		}
		child := Context{
			ModuleID:   SystemModuleID,
			EntityID:   target.ID,
			EntityName: target.Name,
		}
		s.stack = append(s.stack, s.current)
		return s.Open(ctx, child)

	default:
		return apperr.Validation("fieldId", "field is not a sub-entity")
	}
}

// Back снимает верхний контекст со стека и заново открывает его. Правки
// покидаемого контекста, не сохранённые явно, теряются.
func (s *Session) Back(ctx context.Context) (bool, error) {
	if err := s.requireOpen(); err != nil {
		return false, err
	}
	if len(s.stack) == 0 {
		return false, nil
	}
	parent := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if err := s.Open(ctx, parent); err != nil {
		// кадр уже снят со стека; редактор остаётся на нём с пустым списком
		s.current = parent
		s.working = nil
		return false, err
	}
	return true, nil
}

// Save сохраняет рабочий список. Суб-сущность пишется через родительский
// контекст (верх стека) — поэтому суб-сущность глубже одного уровня
// сохранить отсюда нельзя, только из её непосредственного родителя.
func (s *Session) Save(ctx context.Context) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	attrs := schema.CloneAttributes(s.working)

	if s.current.IsSubEntity {
		if len(s.stack) == 0 {
			return apperr.Validation("", "sub-entity has no parent context to save into")
		}
		parent := s.stack[len(s.stack)-1]
		return s.repo.SaveSubEntitySchema(ctx, parent.ModuleID, parent.EntityID,
			s.current.ParentFieldID, attrs)
	}
	return s.repo.SaveEntitySchema(ctx, s.current.ModuleID, s.current.EntityID,
		s.current.EntityName, attrs)
}

// Close сбрасывает навигацию целиком.
func (s *Session) Close() {
	s.open = false
	s.current = Context{}
	s.stack = nil
	s.working = nil
}
