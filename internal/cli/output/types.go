package output

// ResourceInfo describes a resource in JSON output.
type ResourceInfo struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	URL             string         `json:"url,omitempty"`
	Format          string         `json:"format,omitempty"`
	DatastoreActive bool           `json:"datastore_active"`
	Extras          map[string]any `json:"extras,omitempty"`
	Views           int            `json:"views"`
}

// ResourceListOutput is the JSON output of "resource list".
type ResourceListOutput struct {
	Resources []ResourceInfo `json:"resources"`
}

// ViewTypeInfo describes a registered view capability in JSON output.
type ViewTypeInfo struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Template     string   `json:"template"`
	FormTemplate string   `json:"form_template"`
	Fields       []string `json:"fields"`
	CanView      *bool    `json:"can_view,omitempty"`
}

// ViewTypeListOutput is the JSON output of "views list".
type ViewTypeListOutput struct {
	ViewTypes []ViewTypeInfo `json:"view_types"`
}

// ViewInfo describes a stored resource view in JSON output.
type ViewInfo struct {
	ID          string         `json:"id"`
	ResourceID  string         `json:"resource_id"`
	ViewType    string         `json:"view_type"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Config      map[string]any `json:"config"`
	Position    int            `json:"position"`
}

// RenderOutput is the JSON output of "views render".
type RenderOutput struct {
	ViewType string `json:"view_type"`
	Template string `json:"template"`
	HTML     string `json:"html"`
}
