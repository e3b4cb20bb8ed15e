package view

import (
	"encoding/json"
	"reflect"
	"strconv"
)

// Resource is the host-supplied record describing a data resource.
// It is read, never modified.
type Resource map[string]any

// ViewData is the flattened view record passed to the front-end widget:
// view metadata plus its configuration fields.
type ViewData map[string]any

// DatastoreActive reports whether the resource's tabular data is queryable.
// Absent keys and falsy values report false.
func (r Resource) DatastoreActive() bool {
	return Truthy(r["datastore_active"])
}

// Descriptor pairs a view configuration with its metadata.
type Descriptor struct {
	ID          string
	ResourceID  string
	ViewType    string
	Title       string
	Description string
	Config      map[string]any
}

// Data flattens the descriptor into the shape the widget reads. Config
// entries sit next to the metadata keys and never override them.
func (d Descriptor) Data() ViewData {
	data := make(ViewData, len(d.Config)+5)
	for k, v := range d.Config {
		data[k] = v
	}
	data["id"] = d.ID
	data["resource_id"] = d.ResourceID
	data["view_type"] = d.ViewType
	data["title"] = d.Title
	data["description"] = d.Description
	return data
}

// Truthy applies the usual loose truth rules to a decoded value:
// nil, false, zero numbers, empty strings and empty collections are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		return err != nil || f != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	default:
		return true
	}
}
