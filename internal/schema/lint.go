package schema

import "fmt"

type SchemaIssue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LintAttributes проверяет дерево атрибутов перед сохранением:
// уникальность id внутри каждого массива (глобальная уникальность не
// требуется) и корректная форма каждого варианта. Рекурсивно спускается
// в независимые суб-схемы.
func LintAttributes(attrs []Attribute) []SchemaIssue {
	var issues []SchemaIssue
	seen := make(map[string]struct{}, len(attrs))

	for _, a := range attrs {
		if _, dup := seen[a.ID]; dup {
			issues = append(issues, SchemaIssue{
				Field:   a.ID,
				Code:    "duplicate_id",
				Message: fmt.Sprintf("attribute id %q duplicated within the same schema level", a.ID),
			})
		}
		seen[a.ID] = struct{}{}

		if err := a.Validate(); err != nil {
			issues = append(issues, SchemaIssue{
				Field:   a.ID,
				Code:    "bad_variant",
				Message: err.Error(),
			})
			continue
		}

		if a.Kind() == KindIndependent {
			issues = append(issues, LintAttributes(a.SubSchema.Attributes)...)
		}
	}
	return issues
}
