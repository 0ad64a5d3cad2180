package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"marketpulse/pkg/contracts/domain"
)

//go:embed aliases.yml
var aliasesYAML []byte

// Field types carried by the alias table.
const (
	TypeNumber = "number"
	TypeText   = "text"
)

// FieldSpec describes one canonical field of a file category: its name, its
// type, whether a file without it is loadable at all, and the ordered list
// of source header variants that map onto it.
type FieldSpec struct {
	Name     string   `yaml:"field"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Aliases  []string `yaml:"aliases"`
}

// loadSchemas parses the embedded alias table into per-category field specs.
func loadSchemas() (map[domain.Category][]FieldSpec, error) {
	var raw map[string][]FieldSpec
	if err := yaml.Unmarshal(aliasesYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}

	schemas := make(map[domain.Category][]FieldSpec, len(raw))
	for name, specs := range raw {
		category, err := domain.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("alias table: %w", err)
		}
		for _, spec := range specs {
			if spec.Name == "" {
				return nil, fmt.Errorf("alias table: unnamed field in category %s", category)
			}
			if spec.Type != TypeNumber && spec.Type != TypeText {
				return nil, fmt.Errorf("alias table: field %s has unknown type %q", spec.Name, spec.Type)
			}
			if len(spec.Aliases) == 0 {
				return nil, fmt.Errorf("alias table: field %s has no aliases", spec.Name)
			}
		}
		schemas[category] = specs
	}

	for _, category := range domain.AllCategories() {
		if _, ok := schemas[category]; !ok {
			return nil, fmt.Errorf("alias table: missing category %s", category)
		}
	}

	return schemas, nil
}

// NormalizeHeader folds a source column header into the form used for alias
// matching: lower case, with every run of non-alphanumeric characters
// collapsed to a single underscore. "Avg_Prm_Aftr_APTC", "Avg Prm Aftr
// APTC", and "avg-prm-aftr-aptc" all fold to the same key.
func NormalizeHeader(header string) string {
	var b strings.Builder
	b.Grow(len(header))
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// resolveColumns maps canonical field names to source column indexes.
// For each field the aliases are tried in order; the first alias matching a
// header column wins. Fields with no match are simply absent from the map.
func resolveColumns(specs []FieldSpec, header []string) map[string]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeHeader(h)
	}

	columns := make(map[string]int, len(specs))
	for _, spec := range specs {
	aliasLoop:
		for _, alias := range spec.Aliases {
			want := NormalizeHeader(alias)
			for i, have := range normalized {
				if have == want {
					columns[spec.Name] = i
					break aliasLoop
				}
			}
		}
	}
	return columns
}
