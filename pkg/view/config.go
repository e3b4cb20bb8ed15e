package view

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Config is the persisted configuration of one view instance. Nil pointers
// and empty strings mean "use the widget default".
type Config struct {
	Offset *int `mapstructure:"offset" json:"offset,omitempty" jsonschema:"minimum=0,description=Row offset of the first record shown"`
	Limit  *int `mapstructure:"limit" json:"limit,omitempty" jsonschema:"minimum=0,description=Maximum number of records shown"`

	GraphType   string `mapstructure:"graph_type" json:"graph_type,omitempty" jsonschema:"description=Chart kind (graph views only)"`
	GroupColumn string `mapstructure:"group_column" json:"group_column,omitempty" jsonschema:"description=Column used for the x axis (graph views only)"`
	SeriesA     string `mapstructure:"series_a" json:"series_a,omitempty" jsonschema:"description=Column plotted as the first series (graph views only)"`
}

// Map returns the configuration as a flat map holding only the set fields.
func (c Config) Map() map[string]any {
	m := make(map[string]any, 5)
	if c.Offset != nil {
		m["offset"] = *c.Offset
	}
	if c.Limit != nil {
		m["limit"] = *c.Limit
	}
	if c.GraphType != "" {
		m["graph_type"] = c.GraphType
	}
	if c.GroupColumn != "" {
		m["group_column"] = c.GroupColumn
	}
	if c.SeriesA != "" {
		m["series_a"] = c.SeriesA
	}
	return m
}

// DecodeConfig decodes an effective configuration (the output of
// Schema.Validate) into a Config.
func DecodeConfig(effective map[string]any) (Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := dec.Decode(effective); err != nil {
		return Config{}, fmt.Errorf("failed to decode view config: %w", err)
	}
	return cfg, nil
}

// GraphTypeOption is one selectable chart kind.
type GraphTypeOption struct {
	Value string `json:"value"`
	Label string `json:"text"`
}

var graphTypes = [...]GraphTypeOption{
	{Value: "lines-and-points", Label: "Lines and points"},
	{Value: "lines", Label: "Lines"},
	{Value: "points", Label: "Points"},
	{Value: "bars", Label: "Bars"},
	{Value: "columns", Label: "Columns"},
}

// GraphTypes returns the chart kinds a graph view offers, in display order.
// The returned slice is a copy.
func GraphTypes() []GraphTypeOption {
	out := make([]GraphTypeOption, len(graphTypes))
	copy(out, graphTypes[:])
	return out
}

// baseSchema applies to every variant.
var baseSchema = NewSchema(
	Field{Name: "offset", Validators: []Validator{IgnoreEmpty, NaturalNumber}},
	Field{Name: "limit", Validators: []Validator{IgnoreEmpty, NaturalNumber}},
)

// BaseSchema returns the schema shared by all variants.
func BaseSchema() Schema {
	return baseSchema
}

// graphFields only check presence. graph_type is not matched against
// GraphTypes and the column names are not checked against the resource.
// TODO: validate graph_type against GraphTypes once stored views are migrated.
var graphFields = []Field{
	{Name: "graph_type", Validators: []Validator{IgnoreEmpty}},
	{Name: "group_column", Validators: []Validator{IgnoreEmpty}},
	{Name: "series_a", Validators: []Validator{IgnoreEmpty}},
}
