package internal

import (
	"testing"

	"github.com/maisondudroit/entretien"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoices(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		codes   []string
		labels  []string
	}{
		{
			name:    "code label pairs before rubrique",
			comment: "Statut (1:Actif; 2:Inactif), Rubrique Usager",
			codes:   []string{"1", "2"},
			labels:  []string{"Actif", "Inactif"},
		},
		{
			name:    "empty comment",
			comment: "",
		},
		{
			name:    "no parentheses",
			comment: "Commune de résidence, Rubrique Usager",
		},
		{
			name:    "prose with nested parentheses",
			comment: "Nombre d'enfants (Enfant(s) à charge)",
		},
		{
			name:    "prose aside before the choice block",
			comment: "Mode (voir dossier) (T:Téléphone; P:Physique)",
			codes:   []string{"T", "P"},
			labels:  []string{"Téléphone", "Physique"},
		},
		{
			name:    "first qualifying block wins",
			comment: "Type (A:Un; B:Deux) (C:Trois)",
			codes:   []string{"A", "B"},
			labels:  []string{"Un", "Deux"},
		},
		{
			name:    "label keeps colons after the first",
			comment: "Horaire (M:Matin: 9h-12h; A:Après-midi: 14h-17h)",
			codes:   []string{"M", "A"},
			labels:  []string{"Matin: 9h-12h", "Après-midi: 14h-17h"},
		},
		{
			name:    "bare items are their own label",
			comment: "Couleur (rouge; vert;; bleu )",
			codes:   []string{"rouge", "vert", "bleu"},
			labels:  []string{"rouge", "vert", "bleu"},
		},
		{
			name:    "single pair",
			comment: "Oui ou non (O:Oui)",
			codes:   []string{"O"},
			labels:  []string{"Oui"},
		},
		{
			name:    "block after rubrique delimiter is ignored",
			comment: "Sexe, Rubrique Usager (1:Homme; 2:Femme)",
		},
		{
			name:    "repeated code keeps its slot and takes the later label",
			comment: "Statut (1:Actif; 2:Inactif; 1:Ancien), Rubrique Usager",
			codes:   []string{"1", "2"},
			labels:  []string{"Ancien", "Inactif"},
		},
		{
			name:    "empty code fails the whole block",
			comment: "Statut (1:Actif; :Inactif)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := ParseChoices(tt.comment)
			require.NotNil(t, mapping)
			if tt.codes == nil {
				assert.True(t, mapping.IsEmpty())
				return
			}
			assert.Equal(t, tt.codes, mapping.Codes())
			assert.Equal(t, tt.labels, mapping.Labels())
		})
	}
}

func TestParseChoicesDuplicateLabelsResolveToFirstCode(t *testing.T) {
	mapping := ParseChoices("Doublon (1:X; 2:X)")
	require.Equal(t, 2, mapping.Len())

	for i := 0; i < 10; i++ {
		assert.Equal(t, "1", mapping.ResolveCode("X"))
	}
}

func TestParseChoicesRoundTrip(t *testing.T) {
	comments := []string{
		"Statut (1:Actif; 2:Inactif), Rubrique Usager",
		"Durée (1:Moins de 15 min; 2:15 à 30 min; 3:Plus de 30 min), Rubrique Entretien",
		"Couleur (rouge; vert; bleu)",
		"Nature (FAM:Droit de la famille; DIV:Divorce; AUT:Autre)",
	}
	for _, comment := range comments {
		mapping := ParseChoices(comment)
		require.False(t, mapping.IsEmpty(), comment)
		for _, c := range mapping.Choices() {
			assert.Equal(t, c.Code, mapping.ResolveCode(c.Label), comment)
		}
	}
}

func TestExtractGroup(t *testing.T) {
	tests := []struct {
		comment string
		want    string
	}{
		{"Statut (1:Actif; 2:Inactif), Rubrique Usager", "Usager"},
		{"Commune, Rubrique  Vie quotidienne  ", "Vie quotidienne"},
		{"Rubrique Ancienne, Rubrique Nouvelle", "Nouvelle"},
		{"Observations libres", entretien.DefaultGroup},
		{"", entretien.DefaultGroup},
		{"Sans nom, Rubrique ", ""},
		{"Statut, Rubrique   ", ""},
		{"Rubriques", entretien.DefaultGroup},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractGroup(tt.comment), tt.comment)
	}
}

func TestParseChoicesRepeatedCodeReverseLookup(t *testing.T) {
	mapping := ParseChoices("Statut (1:Actif; 2:Inactif; 1:Ancien)")
	require.Equal(t, 2, mapping.Len())

	assert.Equal(t, "1", mapping.ResolveCode("Ancien"))
	assert.Equal(t, "Actif", mapping.ResolveCode("Actif"))
	label, ok := mapping.Label("1")
	require.True(t, ok)
	assert.Equal(t, "Ancien", label)
}
