package params

import (
	"encoding/json"
	"testing"
)

func f(v float64) *float64 { return &v }

func testSchema() Schema {
	return NewSchema(
		Spec{Key: "temperature", Kind: KindFloat, Default: FloatValue(0.7), Min: f(0), Max: f(1), Step: f(0.05)},
		Spec{Key: "max_tokens", Kind: KindInteger, Default: IntValue(1000), Min: f(1), Max: f(4096)},
		Spec{Key: "style", Kind: KindShortText, Default: TextValue("terse"), MaxLength: 16},
		Spec{Key: "system_prompt", Kind: KindLongText, Default: LongTextValue("")},
	)
}

func TestDefaults(t *testing.T) {
	schema := testSchema()
	vals := Defaults(schema)

	if vals.Len() != schema.Len() {
		t.Fatalf("expected %d values, got %d", schema.Len(), vals.Len())
	}

	// Key set equals schema key set, in schema order.
	wantKeys := []string{"temperature", "max_tokens", "style", "system_prompt"}
	gotKeys := vals.Keys()
	for i, want := range wantKeys {
		if gotKeys[i] != want {
			t.Errorf("key %d: expected %q, got %q", i, want, gotKeys[i])
		}
	}

	// Every value is the spec default.
	for _, spec := range schema.Specs() {
		got, ok := vals.Get(spec.Key)
		if !ok {
			t.Fatalf("missing key %q", spec.Key)
		}
		if !got.Equal(spec.Default) {
			t.Errorf("key %q: expected default %v, got %v", spec.Key, spec.Default, got)
		}
	}
}

func TestDefaultsEmptySchema(t *testing.T) {
	vals := Defaults(NewSchema())
	if vals.Len() != 0 {
		t.Errorf("expected empty mapping, got %d entries", vals.Len())
	}
}

func TestClamp(t *testing.T) {
	bounded := Spec{Key: "temperature", Kind: KindFloat, Min: f(0), Max: f(1)}
	unbounded := Spec{Key: "seed", Kind: KindInteger}
	text := Spec{Key: "style", Kind: KindShortText, MaxLength: 4}

	tests := []struct {
		name string
		spec Spec
		in   Value
		want Value
	}{
		{"float below min", bounded, FloatValue(-0.5), FloatValue(0)},
		{"float above max", bounded, FloatValue(1.5), FloatValue(1)},
		{"float in range", bounded, FloatValue(0.3), FloatValue(0.3)},
		{"int against float bounds", Spec{Kind: KindInteger, Min: f(1), Max: f(10)}, IntValue(99), IntValue(10)},
		{"int below", Spec{Kind: KindInteger, Min: f(1), Max: f(10)}, IntValue(0), IntValue(1)},
		{"unbounded passes through", unbounded, IntValue(-999), IntValue(-999)},
		{"text over max length untouched", text, TextValue("verbose"), TextValue("verbose")},
		{"text within limit untouched", text, TextValue("dry"), TextValue("dry")},
		{"multibyte text untouched", Spec{Kind: KindShortText, MaxLength: 1}, TextValue("é"), TextValue("é")},
		{"long text untouched", Spec{Kind: KindLongText, MaxLength: 2}, LongTextValue("prompt"), LongTextValue("prompt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.spec, tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
			// Idempotence: clamping a clamped value is a no-op.
			again := Clamp(tt.spec, got)
			if !again.Equal(got) {
				t.Errorf("Clamp not idempotent: %v -> %v", got, again)
			}
		})
	}
}

func TestClampStaysInBounds(t *testing.T) {
	spec := Spec{Kind: KindFloat, Min: f(-2), Max: f(2)}
	for _, in := range []float64{-100, -2.0001, -2, 0, 1.9999, 2, 3, 1e9} {
		out := Clamp(spec, FloatValue(in))
		if out.Float < -2 || out.Float > 2 {
			t.Errorf("Clamp(%v) = %v escapes bounds", in, out.Float)
		}
	}
}

func TestSetUnknownKeyDropped(t *testing.T) {
	schema := testSchema()
	vals := Defaults(schema)

	// A key from some other agent's schema must be silently dropped.
	vals.Set(schema, "top_k", IntValue(40))

	if vals.Len() != schema.Len() {
		t.Errorf("unknown key grew the mapping to %d entries", vals.Len())
	}
	if _, ok := vals.Get("top_k"); ok {
		t.Error("unknown key was applied")
	}
}

func TestSetPreservesOrderAndOtherEntries(t *testing.T) {
	schema := testSchema()
	vals := Defaults(schema)

	vals.Set(schema, "max_tokens", IntValue(2048))

	wantKeys := []string{"temperature", "max_tokens", "style", "system_prompt"}
	for i, want := range wantKeys {
		if vals.Keys()[i] != want {
			t.Fatalf("key order changed at %d: got %q", i, vals.Keys()[i])
		}
	}
	if got, _ := vals.Get("max_tokens"); got.Int != 2048 {
		t.Errorf("max_tokens = %v, want 2048", got.Int)
	}
	if got, _ := vals.Get("temperature"); got.Float != 0.7 {
		t.Errorf("sibling entry disturbed: temperature = %v", got.Float)
	}
}

func TestValuesJSONRoundTripPreservesOrder(t *testing.T) {
	vals := Defaults(testSchema())

	data, err := json.Marshal(vals)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Values
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !back.Equal(vals) {
		t.Errorf("round trip changed mapping:\n  in:  %s\n  out: %#v", data, back)
	}
}

func TestSchemaDuplicateKeyKeepsFirst(t *testing.T) {
	schema := NewSchema(
		Spec{Key: "k", Kind: KindInteger, Default: IntValue(1)},
		Spec{Key: "k", Kind: KindInteger, Default: IntValue(2)},
	)
	if schema.Len() != 1 {
		t.Fatalf("expected 1 spec, got %d", schema.Len())
	}
	spec, _ := schema.Get("k")
	if spec.Default.Int != 1 {
		t.Errorf("expected first occurrence to win, got default %d", spec.Default.Int)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"integer": KindInteger, "int": KindInteger,
		"float": KindFloat, "number": KindFloat,
		"text": KindShortText, "string": KindShortText,
		"textarea": KindLongText, "longtext": KindLongText,
	} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("boolean"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
