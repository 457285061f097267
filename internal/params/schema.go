package params

// Spec describes one tunable parameter: its kind, default, and optional
// bounds. Numeric bounds apply only to numeric kinds; MaxLength only to
// text kinds.
type Spec struct {
	Key         string
	Kind        Kind
	Default     Value
	Min         *float64
	Max         *float64
	Step        *float64
	MaxLength   int
	Description string
}

// Bounded reports whether both numeric bounds are present.
func (s Spec) Bounded() bool {
	return s.Min != nil && s.Max != nil
}

// Schema is an ordered set of parameter specs. Order is significant: it is
// preserved from the catalog source and drives form layout and defaulting
// order.
type Schema struct {
	specs []Spec
	index map[string]int
}

// NewSchema builds a schema from specs in the given order. A duplicate key
// keeps the first occurrence.
func NewSchema(specs ...Spec) Schema {
	s := Schema{index: make(map[string]int, len(specs))}
	for _, spec := range specs {
		if _, dup := s.index[spec.Key]; dup {
			continue
		}
		s.index[spec.Key] = len(s.specs)
		s.specs = append(s.specs, spec)
	}
	return s
}

// Specs returns the specs in schema order.
func (s Schema) Specs() []Spec {
	return s.specs
}

// Get returns the spec for key.
func (s Schema) Get(key string) (Spec, bool) {
	i, ok := s.index[key]
	if !ok {
		return Spec{}, false
	}
	return s.specs[i], true
}

// Len returns the number of specs.
func (s Schema) Len() int {
	return len(s.specs)
}
