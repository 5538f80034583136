package internal

import (
	"context"
	"fmt"

	"github.com/maisondudroit/entretien"
	"go.uber.org/zap"
)

// recordManager implements entretien.RecordManager over the introspector,
// writer and reader.
type recordManager struct {
	tables       entretien.TableNames
	introspector *Introspector
	writer       *RecordWriter
	reader       *RecordReader
}

// NewRecordManager creates a RecordManager instance
func NewRecordManager(tables entretien.TableNames, introspector *Introspector, writer *RecordWriter, reader *RecordReader) entretien.RecordManager {
	return &recordManager{
		tables:       tables,
		introspector: introspector,
		writer:       writer,
		reader:       reader,
	}
}

// FormDefinition introspects the parent and both child tables. The parent
// must expose at least one field; an empty parent is reported as an
// unavailable schema rather than an empty form.
func (m *recordManager) FormDefinition(ctx context.Context) (*entretien.FormDefinition, error) {
	parentFields, err := m.introspector.Introspect(ctx, m.tables.Parent)
	if err != nil {
		return nil, err
	}
	if len(parentFields) == 0 {
		return nil, entretien.NewCatalogQueryError(m.tables.Parent, fmt.Errorf("no user-facing columns found"))
	}

	demande, err := m.vocabulary(ctx, entretien.ChildDemande)
	if err != nil {
		return nil, err
	}
	solution, err := m.vocabulary(ctx, entretien.ChildSolution)
	if err != nil {
		return nil, err
	}

	return &entretien.FormDefinition{
		Parent:   BuildFormSchema(m.tables.Parent, parentFields),
		Demande:  demande,
		Solution: solution,
	}, nil
}

// vocabulary returns the nature choices of a child table: those of the nature
// column, else of the first user-facing column.
func (m *recordManager) vocabulary(ctx context.Context, kind entretien.ChildKind) (*entretien.ChoiceMapping, error) {
	table := m.tables.Child(kind)
	fields, err := m.introspector.Introspect(ctx, table)
	if err != nil {
		return nil, err
	}
	return natureChoices(fields, m.tables.NatureColumn), nil
}

func natureChoices(fields []entretien.FieldDescriptor, natureColumn string) *entretien.ChoiceMapping {
	for _, f := range fields {
		if f.Name == natureColumn && f.Choices != nil {
			return f.Choices
		}
	}
	if len(fields) > 0 && fields[0].Choices != nil {
		return fields[0].Choices
	}
	return &entretien.ChoiceMapping{}
}

// Submit checks field names against the current parent schema and saves the
// submission atomically.
func (m *recordManager) Submit(ctx context.Context, sub *entretien.Submission) (int64, error) {
	if sub == nil {
		return 0, entretien.NewValidationError("", "submission cannot be nil")
	}
	def, err := m.FormDefinition(ctx)
	if err != nil {
		return 0, err
	}

	known := make(map[string]struct{})
	for _, f := range def.Parent.Fields() {
		known[f.Name] = struct{}{}
	}
	for name := range sub.Fields {
		if _, ok := known[name]; !ok {
			err := entretien.NewValidationError(name, "not a column of "+m.tables.Parent)
			err.Code = entretien.ErrCodeUnknownField
			return 0, err
		}
	}

	num, err := m.writer.Save(ctx, sub.Fields, sub.Demandes, sub.Solutions, def.Demande, def.Solution)
	if err != nil {
		zap.S().Errorw("submission rolled back", "table", m.tables.Parent, "error", err)
		return 0, err
	}
	return num, nil
}

func (m *recordManager) List(ctx context.Context) (*entretien.RecordList, error) {
	return m.reader.ListParents(ctx)
}

func (m *recordManager) Get(ctx context.Context, num int64) (*entretien.StoredRecord, error) {
	demande, err := m.vocabulary(ctx, entretien.ChildDemande)
	if err != nil {
		return nil, err
	}
	solution, err := m.vocabulary(ctx, entretien.ChildSolution)
	if err != nil {
		return nil, err
	}
	return m.reader.GetRecord(ctx, num, demande, solution)
}
