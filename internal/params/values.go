package params

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Values is an ordered key -> Value mapping. Insertion order is preserved
// across updates: replacing a key keeps its original position.
type Values struct {
	keys []string
	vals map[string]Value
}

// Defaults produces the value mapping for a schema: every key mapped to its
// spec's default, in schema order, and nothing else. Pure function.
func Defaults(schema Schema) Values {
	v := Values{vals: make(map[string]Value, schema.Len())}
	for _, spec := range schema.Specs() {
		v.keys = append(v.keys, spec.Key)
		v.vals[spec.Key] = spec.Default
	}
	return v
}

// Initialized reports whether the mapping has been generated at all. An
// empty schema still yields an initialized (empty) mapping; the zero Values
// has not been derived from any schema.
func (v Values) Initialized() bool {
	return v.vals != nil
}

// Keys returns the keys in insertion order.
func (v Values) Keys() []string {
	return v.keys
}

// Get returns the value for key.
func (v Values) Get(key string) (Value, bool) {
	val, ok := v.vals[key]
	return val, ok
}

// Len returns the number of entries.
func (v Values) Len() int {
	return len(v.keys)
}

// Set replaces the value for key, preserving all other entries and their
// order. The update is silently dropped when key is not present in schema:
// between an agent switch and the defaulting re-run a stale edit can target
// a key the new schema does not have, and that race must not crash or grow
// the mapping.
func (v *Values) Set(schema Schema, key string, val Value) {
	if _, ok := schema.Get(key); !ok {
		return
	}
	if v.vals == nil {
		v.vals = make(map[string]Value)
	}
	if _, exists := v.vals[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.vals[key] = val
}

// Clamp saturates a numeric value into [spec.Min, spec.Max] when both
// bounds are defined; values without both bounds pass through. Non-numeric
// kinds are never clamped: MaxLength is enforced at the input layer, not
// here. Idempotent.
func Clamp(spec Spec, v Value) Value {
	if v.Kind.IsText() {
		return v
	}
	if !spec.Bounded() {
		return v
	}
	switch v.Kind {
	case KindInteger:
		if float64(v.Int) < *spec.Min {
			v.Int = int64(*spec.Min)
		}
		if float64(v.Int) > *spec.Max {
			v.Int = int64(*spec.Max)
		}
	case KindFloat:
		if v.Float < *spec.Min {
			v.Float = *spec.Min
		}
		if v.Float > *spec.Max {
			v.Float = *spec.Max
		}
	}
	return v
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range v.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val, err := json.Marshal(v.vals[key])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving its key order.
func (v *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("parameter values: expected object, got %v", tok)
	}
	*v = Values{vals: make(map[string]Value)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var val Value
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		if _, exists := v.vals[key]; !exists {
			v.keys = append(v.keys, key)
		}
		v.vals[key] = val
	}
	_, err = dec.Token() // closing brace
	return err
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := Values{vals: make(map[string]Value, len(v.keys))}
	out.keys = append(out.keys, v.keys...)
	for k, val := range v.vals {
		out.vals[k] = val
	}
	return out
}

// Equal reports whether two mappings have the same keys in the same order
// with equal values.
func (v Values) Equal(o Values) bool {
	if len(v.keys) != len(o.keys) {
		return false
	}
	for i, k := range v.keys {
		if o.keys[i] != k {
			return false
		}
		if !v.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}
