package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maisondudroit/entretien"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedDriver struct {
	inputs  map[string]string
	selects map[string]int
	multi   map[string][]int
	asked   []string
}

func (d *scriptedDriver) Input(ctx context.Context, p inputPrompt) (string, error) {
	d.asked = append(d.asked, p.Message)
	raw := d.inputs[p.Message]
	if p.Validator != nil {
		if err := p.Validator(raw); err != nil {
			return "", err
		}
	}
	return raw, nil
}

func (d *scriptedDriver) Select(ctx context.Context, p selectPrompt) (int, error) {
	d.asked = append(d.asked, p.Message)
	return d.selects[p.Message], nil
}

func (d *scriptedDriver) MultiSelect(ctx context.Context, p selectPrompt) ([]int, error) {
	d.asked = append(d.asked, p.Message)
	return d.multi[p.Message], nil
}

type stubManager struct {
	def       *entretien.FormDefinition
	submitted *entretien.Submission
}

func (m *stubManager) FormDefinition(ctx context.Context) (*entretien.FormDefinition, error) {
	return m.def, nil
}

func (m *stubManager) Submit(ctx context.Context, sub *entretien.Submission) (int64, error) {
	m.submitted = sub
	return 12, nil
}

func (m *stubManager) List(ctx context.Context) (*entretien.RecordList, error) {
	return &entretien.RecordList{}, nil
}

func (m *stubManager) Get(ctx context.Context, num int64) (*entretien.StoredRecord, error) {
	return nil, entretien.NewNotFoundError("entretien", num)
}

func fillDefinition() *entretien.FormDefinition {
	sexe := entretien.MustChoiceMapping(
		entretien.Choice{Code: "1", Label: "Homme"},
		entretien.Choice{Code: "2", Label: "Femme"},
	)
	mode := entretien.MustChoiceMapping(
		entretien.Choice{Code: "1", Label: "Sur RDV"},
		entretien.Choice{Code: "2", Label: "Sans RDV"},
	)
	return &entretien.FormDefinition{
		Parent: entretien.FormSchema{
			Table: "entretien",
			Groups: []entretien.FieldGroup{
				{Name: "Entretien", Fields: []entretien.FieldDescriptor{
					{Name: "date", DeclaredType: "date", Required: true, Choices: &entretien.ChoiceMapping{}, Group: "Entretien"},
					{Name: "mode", DeclaredType: "character varying(2)", Choices: mode, Group: "Entretien"},
				}},
				{Name: "Usager", Fields: []entretien.FieldDescriptor{
					{Name: "sexe", DeclaredType: "character varying(2)", Required: true, Choices: sexe, Group: "Usager"},
					{Name: "nb_enfants", DeclaredType: "smallint", Choices: &entretien.ChoiceMapping{}, Group: "Usager"},
				}},
			},
		},
		Demande: entretien.MustChoiceMapping(
			entretien.Choice{Code: "DIV", Label: "Divorce"},
			entretien.Choice{Code: "LOG", Label: "Logement"},
		),
		Solution: &entretien.ChoiceMapping{},
	}
}

func TestRunFillSubmitsCodes(t *testing.T) {
	manager := &stubManager{def: fillDefinition()}
	driver := &scriptedDriver{
		inputs:  map[string]string{"Date *": "2024-01-10", "Nb Enfants": "2"},
		selects: map[string]int{"Mode": 0, "Sexe *": 1},
		multi:   map[string][]int{"Demandes": {1, 0}},
	}

	num, err := runFill(context.Background(), manager, driver)
	require.NoError(t, err)
	assert.Equal(t, int64(12), num)

	require.NotNil(t, manager.submitted)
	fields := manager.submitted.Fields
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), fields["date"])
	assert.Nil(t, fields["mode"], "the leading option of an optional select means no value")
	assert.Equal(t, "2", fields["sexe"])
	assert.Equal(t, int64(2), fields["nb_enfants"])
	assert.Equal(t, []string{"Logement", "Divorce"}, manager.submitted.Demandes)
	assert.Empty(t, manager.submitted.Solutions)

	assert.Equal(t, []string{"Date *", "Mode", "Sexe *", "Nb Enfants", "Demandes"}, driver.asked)
}

func TestRunFillStopsOnInvalidInput(t *testing.T) {
	manager := &stubManager{def: fillDefinition()}
	driver := &scriptedDriver{inputs: map[string]string{"Date *": "10/01/2024"}}

	_, err := runFill(context.Background(), manager, driver)
	require.Error(t, err)
	assert.True(t, entretien.IsValidation(err))
	assert.Nil(t, manager.submitted)
}

func TestTranslateSurveyErrPassesThroughOtherErrors(t *testing.T) {
	other := errors.New("eof")
	assert.Equal(t, other, translateSurveyErr(other))
}
