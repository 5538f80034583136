package internal

import (
	"testing"

	"github.com/maisondudroit/entretien"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFormSchemaGroupsAndOrders(t *testing.T) {
	fields := []entretien.FieldDescriptor{
		{Name: "sexe", Group: "Usager"},
		{Name: "date", Group: "Entretien"},
		{Name: "observations", Group: entretien.DefaultGroup},
		{Name: "age", Group: "Usager"},
		{Name: "ecoute", Group: "Écoute"},
		{Name: "libre"},
	}

	schema := BuildFormSchema("entretien", fields)
	assert.Equal(t, "entretien", schema.Table)
	assert.Equal(t, []string{"Écoute", "Entretien", entretien.DefaultGroup, "Usager"}, schema.GroupNames())

	usager, ok := schema.Group("Usager")
	require.True(t, ok)
	assert.Equal(t, "sexe", usager[0].Name)
	assert.Equal(t, "age", usager[1].Name)

	general, ok := schema.Group(entretien.DefaultGroup)
	require.True(t, ok)
	require.Len(t, general, 2)
	assert.Equal(t, "observations", general[0].Name)
	assert.Equal(t, "libre", general[1].Name)

	assert.Len(t, schema.Fields(), len(fields))
}

func TestBuildFormSchemaEmpty(t *testing.T) {
	schema := BuildFormSchema("entretien", nil)
	assert.Empty(t, schema.Groups)
	assert.Empty(t, schema.GroupNames())
}
