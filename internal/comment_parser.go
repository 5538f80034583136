package internal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maisondudroit/entretien"
	"go.uber.org/zap"
)

const (
	rubriqueDelimiter = ", Rubrique"
	rubriqueMarker    = "Rubrique "
)

// parenGroup matches innermost parenthesized text: "(s)" in "Enfant(s)", never
// the enclosing group around it.
var parenGroup = regexp.MustCompile(`\(([^()]+)\)`)

// ParseChoices recovers the enumerated vocabulary from a column comment such as
// "Statut (1:Actif; 2:Inactif), Rubrique Usager". Comments without a choice
// block, or with an empty code in it, yield an empty mapping. A repeated code
// keeps its first position and takes the later label.
func ParseChoices(comment string) *entretien.ChoiceMapping {
	empty := &entretien.ChoiceMapping{}
	if comment == "" {
		return empty
	}

	text, _, _ := strings.Cut(comment, rubriqueDelimiter)

	candidate, ok := choiceBlock(text)
	if !ok {
		return empty
	}

	mapping, err := parseChoiceBlock(candidate)
	if err != nil {
		zap.S().Debugw("ignoring malformed choice block", "comment", comment, "error", err)
		return empty
	}
	return mapping
}

// choiceBlock returns the first parenthesized group that contains a ';' or ':'.
// Prose asides like "(voir dossier)" contain neither and are skipped.
func choiceBlock(text string) (string, bool) {
	for _, m := range parenGroup.FindAllStringSubmatch(text, -1) {
		if strings.ContainsAny(m[1], ";:") {
			return m[1], true
		}
	}
	return "", false
}

func parseChoiceBlock(block string) (*entretien.ChoiceMapping, error) {
	mapping := &entretien.ChoiceMapping{}
	for _, item := range strings.Split(block, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, label := item, item
		if left, right, found := strings.Cut(item, ":"); found {
			code = strings.TrimSpace(left)
			label = strings.TrimSpace(right)
		}
		if code == "" {
			return nil, fmt.Errorf("empty code in item %q", item)
		}
		mapping.Set(code, label)
	}
	return mapping, nil
}

// ExtractGroup returns the trimmed text after the last "Rubrique " marker, or
// entretien.DefaultGroup when there is no marker. A marker with nothing after
// it yields ""; BuildFormSchema files such fields under DefaultGroup.
func ExtractGroup(comment string) string {
	idx := strings.LastIndex(comment, rubriqueMarker)
	if idx < 0 {
		return entretien.DefaultGroup
	}
	return strings.TrimSpace(comment[idx+len(rubriqueMarker):])
}
