package schema

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType — элемент каталога типов полей: тег + отображаемые имя и иконка.
// Ядру важны только Has(type) и особый случай sub-entity; имя/иконка — для
// фронта.
type FieldType struct {
	Type string `yaml:"type" json:"type"`
	Name string `yaml:"name" json:"name"`
	Icon string `yaml:"icon" json:"icon"`
}

type fieldTypeFile struct {
	Types []FieldType `yaml:"types"`
}

type FieldTypeCatalog struct {
	types  []FieldType
	byType map[string]FieldType
}

func newCatalog(types []FieldType) *FieldTypeCatalog {
	c := &FieldTypeCatalog{byType: make(map[string]FieldType, len(types))}
	for _, ft := range types {
		if ft.Type == "" {
			continue
		}
		if _, dup := c.byType[ft.Type]; dup {
			continue
		}
		c.byType[ft.Type] = ft
		c.types = append(c.types, ft)
	}
	return c
}

// DefaultFieldTypes — встроенный набор, совпадающий с тем, что показывает
// тулбокс конструктора.
func DefaultFieldTypes() *FieldTypeCatalog {
	return newCatalog([]FieldType{
		{Type: "text", Name: "Texto", Icon: "type"},
		{Type: "number", Name: "Número", Icon: "hash"},
		{Type: "date", Name: "Data", Icon: "calendar"},
		{Type: "email", Name: "Email", Icon: "at-sign"},
		{Type: "phone", Name: "Telefone", Icon: "phone"},
		{Type: "currency", Name: "Moeda", Icon: "dollar-sign"},
		{Type: "checkbox", Name: "Checkbox", Icon: "check-square"},
		{Type: TypeSubEntity, Name: "Tabela (Sub-Entidade)", Icon: "table"},
	})
}

// LoadFieldTypes читает все *.yaml из каталога и объединяет их списки типов.
// Первый тег побеждает при дублях.
func LoadFieldTypes(dir string) (*FieldTypeCatalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var all []FieldType
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var f fieldTypeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		all = append(all, f.Types...)
	}
	return newCatalog(all), nil
}

func (c *FieldTypeCatalog) Has(t string) bool {
	_, ok := c.byType[t]
	return ok
}

func (c *FieldTypeCatalog) Get(t string) (FieldType, bool) {
	ft, ok := c.byType[t]
	return ft, ok
}

func (c *FieldTypeCatalog) Types() []FieldType {
	return append([]FieldType(nil), c.types...)
}
