package view

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// errSkipField stops a validation chain and drops the field from the
// effective configuration.
var errSkipField = errors.New("skip field")

// Validator is one step in a field's validation chain. It receives the raw
// value (present is false when the key is missing) and returns the value
// passed to the next step.
type Validator struct {
	Name string
	fn   func(value any, present bool) (any, error)
}

// Apply runs the validator on a single value.
func (v Validator) Apply(value any, present bool) (any, error) {
	return v.fn(value, present)
}

// Field is a configuration key and its ordered validators.
type Field struct {
	Name       string
	Validators []Validator
}

// Schema maps configuration fields to validator chains. A Schema value is
// never modified after construction; With returns a new one.
type Schema struct {
	fields []Field
}

// NewSchema builds a schema from fields, in order.
func NewSchema(fields ...Field) Schema {
	return Schema{}.With(fields...)
}

// With returns a copy of s extended by fields. A field whose name already
// exists replaces the earlier definition in place.
func (s Schema) With(fields ...Field) Schema {
	merged := make([]Field, len(s.fields), len(s.fields)+len(fields))
	copy(merged, s.fields)

	for _, f := range fields {
		f.Validators = append([]Validator(nil), f.Validators...)
		replaced := false
		for i := range merged {
			if merged[i].Name == f.Name {
				merged[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, f)
		}
	}
	return Schema{fields: merged}
}

// Len returns the number of fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the schema's fields.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		f.Validators = append([]Validator(nil), f.Validators...)
		out[i] = f
	}
	return out
}

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			f.Validators = append([]Validator(nil), f.Validators...)
			return f, true
		}
	}
	return Field{}, false
}

// Validate runs every field's chain over raw and returns the effective
// configuration. Keys outside the schema are not carried over. Fields
// dropped by IgnoreEmpty are absent from the result.
func (s Schema) Validate(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.fields))
	errs := ValidationErrors{}

	for _, f := range s.fields {
		value, present := raw[f.Name]
		keep := true
		for _, v := range f.Validators {
			next, err := v.Apply(value, present)
			if errors.Is(err, errSkipField) {
				keep = false
				break
			}
			if err != nil {
				errs[f.Name] = append(errs[f.Name], err.Error())
				keep = false
				break
			}
			value = next
		}
		if keep && present {
			out[f.Name] = value
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// MarshalJSON encodes the schema as {"field": ["validator", ...]} in
// declaration order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(f.Validators))
		for j, v := range f.Validators {
			names[j] = v.Name
		}
		val, err := json.Marshal(names)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidationErrors maps field names to their error messages.
type ValidationErrors map[string][]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "invalid view config: " + strings.Join(parts, ", ")
}
