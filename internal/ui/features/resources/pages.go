package resources

import (
	"strings"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// ResourceItem is a row of the home page.
type ResourceItem struct {
	Resource  *state.Resource
	ViewTypes []view.Info
}

// ResourcePageData is the content of a resource page.
type ResourcePageData struct {
	Resource  *state.Resource
	Views     []*state.ResourceView
	ViewTypes []view.Info
	Flashes   []string
}

func viewTypeTitles(infos []view.Info) string {
	titles := make([]string, 0, len(infos))
	for _, info := range infos {
		titles = append(titles, info.Title)
	}
	return strings.Join(titles, ", ")
}

func datastoreLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
