package view

import (
	"fmt"
	"strings"
)

// Variant identifies one of the preview view types.
type Variant int

// Supported variants.
const (
	Grid Variant = iota + 1
	Graph
	Map
)

// Variants lists every variant in registration order.
var Variants = []Variant{Grid, Graph, Map}

// Name returns the machine name the variant registers under.
func (v Variant) Name() string {
	switch v {
	case Grid:
		return "recline_grid"
	case Graph:
		return "recline_graph"
	case Map:
		return "recline_map"
	default:
		return ""
	}
}

// Title returns the display title.
func (v Variant) Title() string {
	switch v {
	case Grid:
		return "Grid"
	case Graph:
		return "Graph"
	case Map:
		return "Map"
	default:
		return ""
	}
}

// FormTemplate returns the template used for the configuration form.
func (v Variant) FormTemplate() string {
	switch v {
	case Grid:
		return "recline_grid_form.html"
	case Graph:
		return "recline_graph_form.html"
	case Map:
		return "recline_map_form.html"
	default:
		return ""
	}
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v.Name() != ""
}

func (v Variant) String() string {
	if name := v.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant resolves a machine name ("recline_graph") or a short name
// ("graph") to a variant.
func ParseVariant(name string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, v := range Variants {
		if n == v.Name() || n == strings.TrimPrefix(v.Name(), "recline_") {
			return v, nil
		}
	}
	return 0, &UnknownViewError{Type: name, Available: variantNames()}
}

func variantNames() []string {
	names := make([]string, 0, len(Variants))
	for _, v := range Variants {
		names = append(names, v.Name())
	}
	return names
}
