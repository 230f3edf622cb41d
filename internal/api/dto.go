package api

import (
	"fmt"

	"github.com/goccy/go-json"
)

// InputValue accepts either a single string or an array of strings.
type InputValue struct {
	String *string
	Items  []string
}

func (v *InputValue) UnmarshalJSON(b []byte) error {
	if v == nil {
		return fmt.Errorf("input value: nil receiver")
	}
	if len(b) == 0 || string(b) == "null" {
		*v = InputValue{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("input value: %w", err)
		}
		v.String = &s
		v.Items = nil
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("input value: %w", err)
		}
		v.Items = items
		v.String = nil
		return nil
	default:
		return fmt.Errorf("input value: expected string or array of strings")
	}
}

func (v InputValue) MarshalJSON() ([]byte, error) {
	if v.String != nil {
		return json.Marshal(*v.String)
	}
	if v.Items != nil {
		return json.Marshal(v.Items)
	}
	return []byte("null"), nil
}

// Texts flattens the value. ok is false when the input was absent.
func (v InputValue) Texts() (texts []string, ok bool) {
	if v.String != nil {
		return []string{*v.String}, true
	}
	return v.Items, v.Items != nil
}
