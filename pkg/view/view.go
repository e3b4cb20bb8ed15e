package view

import (
	"encoding/json"
	"fmt"
)

// ViewTemplate renders every variant; the widget picks its mode from the
// view type in resource_view_json.
const ViewTemplate = "recline_view.html"

// Template variable keys.
const (
	VarResourceJSON     = "resource_json"
	VarResourceViewJSON = "resource_view_json"
	VarGraphTypes       = "graph_types"
)

// Info is the registration metadata of a view type.
type Info struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Schema Schema `json:"schema"`
}

// TemplateVars is the variable mapping handed to the view template.
type TemplateVars map[string]any

// Capability is the contract a host uses to drive a view type.
type Capability interface {
	Variant() Variant
	Info() Info
	RegisterAssets(p AssetPipeline) error
	CanView(res Resource) bool
	TemplateVariables(res Resource, data ViewData) (TemplateVars, error)
	TemplateName() string
	FormTemplateName() string
}

// View implements Capability for one variant. The zero value is not usable;
// build views with New, NewGrid, NewGraph or NewMap.
type View struct {
	variant Variant
	schema  Schema
}

var _ Capability = (*View)(nil)

// New returns the view for variant v.
func New(v Variant) (*View, error) {
	switch v {
	case Grid, Map:
		return &View{variant: v, schema: baseSchema}, nil
	case Graph:
		return &View{variant: v, schema: baseSchema.With(graphFields...)}, nil
	default:
		return nil, fmt.Errorf("invalid view variant: %s", v)
	}
}

// NewGrid returns the grid view.
func NewGrid() *View { return mustNew(Grid) }

// NewGraph returns the graph view.
func NewGraph() *View { return mustNew(Graph) }

// NewMap returns the map view.
func NewMap() *View { return mustNew(Map) }

func mustNew(v Variant) *View {
	view, err := New(v)
	if err != nil {
		panic(err)
	}
	return view
}

// Variant returns the view's variant.
func (v *View) Variant() Variant {
	return v.variant
}

// Info returns the name, title and schema of the view type.
func (v *View) Info() Info {
	return Info{
		Name:   v.variant.Name(),
		Title:  v.variant.Title(),
		Schema: v.schema,
	}
}

// RegisterAssets registers the shared theme assets with the host.
func (v *View) RegisterAssets(p AssetPipeline) error {
	return RegisterAssets(p)
}

// CanView reports whether res can be previewed.
func (v *View) CanView(res Resource) bool {
	return res.DatastoreActive()
}

// TemplateVariables serializes res and data for the view template. Graph
// views also receive the chart type options.
func (v *View) TemplateVariables(res Resource, data ViewData) (TemplateVars, error) {
	resourceJSON, err := encode("resource", res)
	if err != nil {
		return nil, err
	}
	viewJSON, err := encode("data", data)
	if err != nil {
		return nil, err
	}

	vars := TemplateVars{
		VarResourceJSON:     resourceJSON,
		VarResourceViewJSON: viewJSON,
	}
	if v.variant == Graph {
		vars[VarGraphTypes] = GraphTypes()
	}
	return vars, nil
}

// TemplateName returns the template used to render the view.
func (v *View) TemplateName() string {
	return ViewTemplate
}

// FormTemplateName returns the template used for the configuration form.
func (v *View) FormTemplateName() string {
	return v.variant.FormTemplate()
}

// encode marshals value to JSON text. Nil maps encode as "{}".
func encode(input string, value any) (string, error) {
	switch m := value.(type) {
	case Resource:
		if m == nil {
			return "{}", nil
		}
	case ViewData:
		if m == nil {
			return "{}", nil
		}
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", &SerializationError{Input: input, Err: err}
	}
	return string(b), nil
}
