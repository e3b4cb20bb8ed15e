package views

import (
	"github.com/a-h/templ"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// ViewPageData is the content of a view page.
type ViewPageData struct {
	View     *state.ResourceView
	Resource *state.Resource
	Flashes  []string
	Rendered templ.Component
}

// EditPageData is the content of a view's edit page.
type EditPageData struct {
	View     *state.ResourceView
	Resource *state.Resource
	Info     view.Info
	Invalid  bool
	Form     templ.Component
}
