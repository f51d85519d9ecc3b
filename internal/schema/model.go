package schema

import "fmt"

// Entity описывает сущность каталога: имя + иконка. Используется в одном
// или нескольких модулях; сама по себе схемы не несёт.
type Entity struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Module — именованная группа размещённых сущностей.
type Module struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// EntitySchema — корень схемы размещения: денормализованная копия имени
// сущности плюс список атрибутов. Имя НЕ подтягивается из каталога при
// переименовании (snapshot-семантика).
type EntitySchema struct {
	EntityName string      `json:"entityName"`
	Attributes []Attribute `json:"attributes"`
}

// SubSchema — вложенная схема независимой суб-сущности. Живёт только внутри
// родительского атрибута и умирает вместе с ним.
type SubSchema struct {
	Attributes []Attribute `json:"attributes"`
}

// Тип-дискриминаторы атрибута.
const (
	TypeSubEntity = "sub-entity"

	SubIndependent  = "independent"
	SubRelationship = "relationship"
)

// Attribute — узел дерева схемы. Вариант определяется парой Type/SubType:
// примитив (Type из каталога типов), независимая суб-сущность (владеет
// SubSchema) или связь на существующую сущность (Target*, без своей схемы).
type Attribute struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`

	SubType          string     `json:"subType,omitempty"`
	SubSchema        *SubSchema `json:"subSchema,omitempty"`
	TargetEntityID   string     `json:"targetEntityId,omitempty"`
	TargetEntityName string     `json:"targetEntityName,omitempty"`
}

type AttrKind int

const (
	KindPrimitive AttrKind = iota
	KindIndependent
	KindRelationship
	KindInvalid
)

func (a Attribute) Kind() AttrKind {
	if a.Type != TypeSubEntity {
		return KindPrimitive
	}
	switch a.SubType {
	case SubIndependent:
		return KindIndependent
	case SubRelationship:
		return KindRelationship
	default:
		return KindInvalid
	}
}

func NewPrimitive(id, label, typ string) Attribute {
	return Attribute{ID: id, Label: label, Type: typ}
}

func NewIndependent(id, label string) Attribute {
	return Attribute{
		ID:        id,
		Label:     label,
		Type:      TypeSubEntity,
		SubType:   SubIndependent,
		SubSchema: &SubSchema{Attributes: []Attribute{}},
	}
}

func NewRelationship(id, label, targetID, targetName string) Attribute {
	return Attribute{
		ID:               id,
		Label:            label,
		Type:             TypeSubEntity,
		SubType:          SubRelationship,
		TargetEntityID:   targetID,
		TargetEntityName: targetName,
	}
}

// Validate проверяет форму варианта: у примитива нет суб-полей, независимая
// суб-сущность владеет SubSchema, связь несёт цель и НЕ владеет схемой.
func (a Attribute) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("attribute without id")
	}
	if a.Label == "" {
		return fmt.Errorf("attribute %q without label", a.ID)
	}
	switch a.Kind() {
	case KindPrimitive:
		if a.SubSchema != nil || a.TargetEntityID != "" {
			return fmt.Errorf("attribute %q: primitive field carries sub-entity data", a.ID)
		}
	case KindIndependent:
		if a.SubSchema == nil {
			return fmt.Errorf("attribute %q: independent sub-entity without subSchema", a.ID)
		}
		if a.TargetEntityID != "" {
			return fmt.Errorf("attribute %q: independent sub-entity carries a target", a.ID)
		}
	case KindRelationship:
		if a.TargetEntityID == "" {
			return fmt.Errorf("attribute %q: relationship without target entity", a.ID)
		}
		if a.SubSchema != nil {
			return fmt.Errorf("attribute %q: relationship must not own a subSchema", a.ID)
		}
	default:
		return fmt.Errorf("attribute %q: unknown subType %q", a.ID, a.SubType)
	}
	return nil
}

// CloneAttributes — глубокая копия списка атрибутов (SubSchema копируются).
func CloneAttributes(attrs []Attribute) []Attribute {
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		out[i] = a
		if a.SubSchema != nil {
			out[i].SubSchema = &SubSchema{Attributes: CloneAttributes(a.SubSchema.Attributes)}
		}
	}
	return out
}
