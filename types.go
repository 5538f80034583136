package entretien

import (
	"strings"
)

// DefaultGroup is the Rubrique assigned to fields whose comment carries no tag.
const DefaultGroup = "General"

// FieldDescriptor describes one user-facing column of a table.
type FieldDescriptor struct {
	Name         string         `json:"name"`
	DeclaredType string         `json:"declaredType"`
	Required     bool           `json:"required"`
	Choices      *ChoiceMapping `json:"choices"`
	Group        string         `json:"group"`
}

// WidgetKind is the input widget a renderer should present for a field.
type WidgetKind string

const (
	WidgetSelect WidgetKind = "select"
	WidgetDate   WidgetKind = "date"
	WidgetNumber WidgetKind = "number"
	WidgetText   WidgetKind = "text"
)

// Widget picks the input kind: an enumerated selector wins over the declared type.
func (f FieldDescriptor) Widget() WidgetKind {
	if !f.Choices.IsEmpty() {
		return WidgetSelect
	}
	declared := strings.ToLower(f.DeclaredType)
	switch {
	case strings.Contains(declared, "date"):
		return WidgetDate
	case strings.Contains(declared, "int"),
		strings.Contains(declared, "numeric"),
		strings.Contains(declared, "double"),
		strings.Contains(declared, "real"):
		return WidgetNumber
	default:
		return WidgetText
	}
}

// FieldGroup is one Rubrique of a form with its fields in column order.
type FieldGroup struct {
	Name   string            `json:"name"`
	Fields []FieldDescriptor `json:"fields"`
}

// FormSchema is a table's fields grouped by Rubrique, groups in sorted order.
type FormSchema struct {
	Table  string       `json:"table"`
	Groups []FieldGroup `json:"groups"`
}

// GroupNames returns the group keys in rendering order.
func (s FormSchema) GroupNames() []string {
	names := make([]string, len(s.Groups))
	for i, g := range s.Groups {
		names[i] = g.Name
	}
	return names
}

// Group returns the fields of the named group.
func (s FormSchema) Group(name string) ([]FieldDescriptor, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g.Fields, true
		}
	}
	return nil, false
}

// Fields flattens the schema back into rendering order.
func (s FormSchema) Fields() []FieldDescriptor {
	var out []FieldDescriptor
	for _, g := range s.Groups {
		out = append(out, g.Fields...)
	}
	return out
}

// ParentRecord maps parent column names to scalar values (string, number, date).
type ParentRecord map[string]any

// ChildKind names one of the two child sub-lists.
type ChildKind string

const (
	ChildDemande  ChildKind = "demande"
	ChildSolution ChildKind = "solution"
)

// ChildItem is one stored row of a sub-list.
type ChildItem struct {
	ParentKey   int64  `json:"parentKey"`
	Position    int    `json:"position"`
	NatureCode  string `json:"natureCode"`
	NatureLabel string `json:"natureLabel,omitempty"`
}

// FormDefinition is everything a renderer needs to present the entretien form.
type FormDefinition struct {
	Parent   FormSchema     `json:"parent"`
	Demande  *ChoiceMapping `json:"demande"`
	Solution *ChoiceMapping `json:"solution"`
}

// Submission is what a renderer hands back: parent values plus the labels the
// user selected in each sub-list, in selection order.
type Submission struct {
	Fields    ParentRecord `json:"fields"`
	Demandes  []string     `json:"demandes"`
	Solutions []string     `json:"solutions"`
}

// RecordList is a plain read of every parent row.
type RecordList struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// StoredRecord is one parent row with its sub-lists in position order.
type StoredRecord struct {
	Num       int64          `json:"num"`
	Fields    map[string]any `json:"fields"`
	Demandes  []ChildItem    `json:"demandes"`
	Solutions []ChildItem    `json:"solutions"`
}
