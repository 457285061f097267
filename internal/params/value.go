package params

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the concrete type of a parameter value.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindShortText
	KindLongText
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindShortText:
		return "text"
	case KindLongText:
		return "textarea"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "integer", "int":
		return KindInteger, nil
	case "float", "number":
		return KindFloat, nil
	case "text", "string":
		return KindShortText, nil
	case "textarea", "longtext":
		return KindLongText, nil
	default:
		return 0, fmt.Errorf("unknown parameter kind %q", s)
	}
}

// IsNumeric reports whether values of this kind carry a number.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindFloat
}

// IsText reports whether values of this kind carry a string.
func (k Kind) IsText() bool {
	return k == KindShortText || k == KindLongText
}

// Value is a tagged union holding exactly one of an integer, a float, or a
// string, selected by Kind. The zero Value is an integer zero.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
}

// IntValue constructs an integer Value.
func IntValue(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// FloatValue constructs a float Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// TextValue constructs a short-text Value.
func TextValue(s string) Value { return Value{Kind: KindShortText, Text: s} }

// LongTextValue constructs a long-text Value.
func LongTextValue(s string) Value { return Value{Kind: KindLongText, Text: s} }

// Display renders the value for form fields and summaries.
func (v Value) Display() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Text
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInteger:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	default:
		return v.Text == o.Text
	}
}

// valueJSON is the persisted form of a Value.
type valueJSON struct {
	Kind  string  `json:"kind"`
	Int   *int64  `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// MarshalJSON encodes the tagged union with an explicit kind tag.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Kind: v.Kind.String()}
	switch v.Kind {
	case KindInteger:
		out.Int = &v.Int
	case KindFloat:
		out.Float = &v.Float
	default:
		out.Text = &v.Text
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged union form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	*v = Value{Kind: kind}
	switch {
	case kind == KindInteger && in.Int != nil:
		v.Int = *in.Int
	case kind == KindFloat && in.Float != nil:
		v.Float = *in.Float
	case kind.IsText() && in.Text != nil:
		v.Text = *in.Text
	}
	return nil
}
