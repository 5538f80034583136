package internal

import (
	"sort"

	"github.com/maisondudroit/entretien"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// BuildFormSchema groups fields by Rubrique. Fields keep their column order
// inside a group; groups are ordered by French collation so "Écoute" sorts
// next to "Enfants" rather than after "Z".
func BuildFormSchema(table string, fields []entretien.FieldDescriptor) entretien.FormSchema {
	byGroup := make(map[string][]entretien.FieldDescriptor)
	for _, f := range fields {
		group := f.Group
		if group == "" {
			group = entretien.DefaultGroup
		}
		byGroup[group] = append(byGroup[group], f)
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sortGroupNames(names)

	schema := entretien.FormSchema{Table: table, Groups: make([]entretien.FieldGroup, 0, len(names))}
	for _, name := range names {
		schema.Groups = append(schema.Groups, entretien.FieldGroup{Name: name, Fields: byGroup[name]})
	}
	return schema
}

func sortGroupNames(names []string) {
	col := collate.New(language.French)
	sort.SliceStable(names, func(i, j int) bool {
		if c := col.CompareString(names[i], names[j]); c != 0 {
			return c < 0
		}
		return names[i] < names[j]
	})
}
