package view

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes the configuration accepted by variant v as a JSON
// Schema document. Graph-only properties are removed for the other
// variants.
func JSONSchema(v Variant) ([]byte, error) {
	view, err := New(v)
	if err != nil {
		return nil, err
	}

	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(&Config{})
	s.Title = v.Title() + " view configuration"
	s.Required = nil

	if s.Properties != nil {
		allowed := make(map[string]struct{}, view.schema.Len())
		for _, name := range view.schema.Names() {
			allowed[name] = struct{}{}
		}
		var drop []string
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := allowed[pair.Key]; !ok {
				drop = append(drop, pair.Key)
			}
		}
		for _, key := range drop {
			s.Properties.Delete(key)
		}
	}

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json schema: %w", err)
	}
	return b, nil
}
