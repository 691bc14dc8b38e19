package fields

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Fieldset is one hand-authored UI section: a label plus the ordered
// field names it shows.
type Fieldset struct {
	Label  string
	Fields []string
	Span   int
}

type fieldsetBody struct {
	Fields []string `json:"fields"`
	Span   int      `json:"span,omitempty"`
}

// MarshalJSON emits the pair form the UI expects: [label, {fields, span?}].
func (f Fieldset) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Label, fieldsetBody{Fields: f.Fields, Span: f.Span}})
}

// UnmarshalJSON accepts the pair form again.
func (f *Fieldset) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("fieldset: expected [label, body] pair")
	}
	if err := json.Unmarshal(raw[0], &f.Label); err != nil {
		return err
	}
	var body fieldsetBody
	if err := json.Unmarshal(raw[1], &body); err != nil {
		return err
	}
	f.Fields = body.Fields
	f.Span = body.Span
	return nil
}

// ValidateFieldsets checks at boot that every field a fieldset names
// exists in the field list.
func ValidateFieldsets(fieldsets []Fieldset, known []Field) error {
	names := make(map[string]bool, len(known))
	for _, f := range known {
		names[f.Name] = true
	}
	for _, set := range fieldsets {
		for _, name := range set.Fields {
			if !names[name] {
				return fmt.Errorf("fieldset %q references unknown field %q", set.Label, name)
			}
		}
	}
	return nil
}
