package entretien

import (
	"encoding/json"
	"fmt"
)

// Choice is one code/label pair of an enumerated vocabulary.
type Choice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ChoiceMapping is an ordered code -> label vocabulary. Insertion order is the
// display order. An empty mapping marks a free-text field.
//
// Both directions are indexed: codes are unique, and when two codes share a
// label the first one added owns the reverse lookup.
type ChoiceMapping struct {
	choices []Choice
	byCode  map[string]int
	byLabel map[string]string
}

// NewChoiceMapping builds a mapping from ordered pairs, rejecting duplicate codes.
func NewChoiceMapping(choices ...Choice) (*ChoiceMapping, error) {
	m := &ChoiceMapping{}
	for _, c := range choices {
		if err := m.Add(c.Code, c.Label); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustChoiceMapping is NewChoiceMapping for literals known to be valid.
func MustChoiceMapping(choices ...Choice) *ChoiceMapping {
	m, err := NewChoiceMapping(choices...)
	if err != nil {
		panic(err)
	}
	return m
}

// Add appends a pair to the end of the mapping.
func (m *ChoiceMapping) Add(code, label string) error {
	if m.byCode == nil {
		m.byCode = make(map[string]int)
		m.byLabel = make(map[string]string)
	}
	if _, exists := m.byCode[code]; exists {
		return fmt.Errorf("duplicate choice code %q", code)
	}
	m.byCode[code] = len(m.choices)
	m.choices = append(m.choices, Choice{Code: code, Label: label})
	if _, taken := m.byLabel[label]; !taken {
		m.byLabel[label] = code
	}
	return nil
}

// Set stores label under code. An existing code keeps its position and takes
// the new label; a new code is appended.
func (m *ChoiceMapping) Set(code, label string) {
	idx, exists := m.byCode[code]
	if !exists {
		_ = m.Add(code, label)
		return
	}
	m.choices[idx].Label = label
	m.byLabel = make(map[string]string, len(m.choices))
	for _, c := range m.choices {
		if _, taken := m.byLabel[c.Label]; !taken {
			m.byLabel[c.Label] = c.Code
		}
	}
}

func (m *ChoiceMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.choices)
}

func (m *ChoiceMapping) IsEmpty() bool {
	return m.Len() == 0
}

// Choices returns a copy of the ordered pairs.
func (m *ChoiceMapping) Choices() []Choice {
	if m == nil {
		return nil
	}
	out := make([]Choice, len(m.choices))
	copy(out, m.choices)
	return out
}

func (m *ChoiceMapping) Codes() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.choices))
	for i, c := range m.choices {
		out[i] = c.Code
	}
	return out
}

// Labels returns the labels in display order; these are the selector values
// offered to the user.
func (m *ChoiceMapping) Labels() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.choices))
	for i, c := range m.choices {
		out[i] = c.Label
	}
	return out
}

// Label returns the label stored for code.
func (m *ChoiceMapping) Label(code string) (string, bool) {
	if m == nil {
		return "", false
	}
	idx, ok := m.byCode[code]
	if !ok {
		return "", false
	}
	return m.choices[idx].Label, true
}

// Code returns the first code whose label equals label.
func (m *ChoiceMapping) Code(label string) (string, bool) {
	if m == nil {
		return "", false
	}
	code, ok := m.byLabel[label]
	return code, ok
}

// ResolveCode maps a user-facing label back to its storage code. Unknown labels
// are stored verbatim so free-text entries survive.
func (m *ChoiceMapping) ResolveCode(label string) string {
	if code, ok := m.Code(label); ok {
		return code
	}
	return label
}

// MarshalJSON writes the pairs as an ordered array. A nil *ChoiceMapping is
// encoded as null by encoding/json before this is reached; descriptors built by
// the engine always carry a non-nil mapping.
func (m *ChoiceMapping) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.choices) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(m.choices)
}

func (m *ChoiceMapping) UnmarshalJSON(data []byte) error {
	var choices []Choice
	if err := json.Unmarshal(data, &choices); err != nil {
		return err
	}
	fresh, err := NewChoiceMapping(choices...)
	if err != nil {
		return err
	}
	*m = *fresh
	return nil
}
