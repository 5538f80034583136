package entretien

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoiceMappingOrderAndLookup(t *testing.T) {
	m, err := NewChoiceMapping(
		Choice{Code: "2", Label: "Inactif"},
		Choice{Code: "1", Label: "Actif"},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"2", "1"}, m.Codes())
	assert.Equal(t, []string{"Inactif", "Actif"}, m.Labels())

	label, ok := m.Label("1")
	assert.True(t, ok)
	assert.Equal(t, "Actif", label)

	_, ok = m.Label("3")
	assert.False(t, ok)

	code, ok := m.Code("Inactif")
	assert.True(t, ok)
	assert.Equal(t, "2", code)
}

func TestChoiceMappingRejectsDuplicateCodes(t *testing.T) {
	_, err := NewChoiceMapping(Choice{Code: "1", Label: "A"}, Choice{Code: "1", Label: "B"})
	require.Error(t, err)
	assert.Panics(t, func() {
		MustChoiceMapping(Choice{Code: "1", Label: "A"}, Choice{Code: "1", Label: "B"})
	})
}

func TestChoiceMappingReverseLookupFirstWriterWins(t *testing.T) {
	m := MustChoiceMapping(Choice{Code: "1", Label: "X"}, Choice{Code: "2", Label: "X"})
	assert.Equal(t, "1", m.ResolveCode("X"))
	assert.Equal(t, "libre", m.ResolveCode("libre"))
}

func TestChoiceMappingNilIsEmpty(t *testing.T) {
	var m *ChoiceMapping
	assert.True(t, m.IsEmpty())
	assert.Nil(t, m.Codes())
	assert.Equal(t, "Divorce", m.ResolveCode("Divorce"))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(&ChoiceMapping{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	data, err = json.Marshal(FieldDescriptor{Name: "notes", Choices: &ChoiceMapping{}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"choices":[]`)
}

func TestChoiceMappingSetOverwritesInPlace(t *testing.T) {
	m := MustChoiceMapping(Choice{Code: "1", Label: "Actif"}, Choice{Code: "2", Label: "Inactif"})
	m.Set("1", "Ancien")
	m.Set("3", "Suspendu")

	assert.Equal(t, []string{"1", "2", "3"}, m.Codes())
	assert.Equal(t, []string{"Ancien", "Inactif", "Suspendu"}, m.Labels())
	assert.Equal(t, "1", m.ResolveCode("Ancien"))
	_, ok := m.Code("Actif")
	assert.False(t, ok)

	var zero ChoiceMapping
	zero.Set("A", "Un")
	assert.Equal(t, []string{"A"}, zero.Codes())
}

func TestChoiceMappingJSON(t *testing.T) {
	m := MustChoiceMapping(Choice{Code: "D", Label: "Divorce"}, Choice{Code: "L", Label: "Logement"})

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"code":"D","label":"Divorce"},{"code":"L","label":"Logement"}]`, string(data))

	var decoded ChoiceMapping
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(m.Choices(), decoded.Choices()); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "L", decoded.ResolveCode("Logement"))

	err = json.Unmarshal([]byte(`[{"code":"D","label":"A"},{"code":"D","label":"B"}]`), &decoded)
	assert.Error(t, err)
}

func TestChoicesReturnsCopy(t *testing.T) {
	m := MustChoiceMapping(Choice{Code: "D", Label: "Divorce"})
	choices := m.Choices()
	choices[0].Label = "changed"
	label, _ := m.Label("D")
	assert.Equal(t, "Divorce", label)
}
