package render

import "github.com/a-h/templ"

// DatastarScript is the client runtime used for SSE patches.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// AppName is appended to every page title.
const AppName = "Recline Preview"

// PageData describes a full HTML page.
type PageData struct {
	Title string
	// Updates is an SSE endpoint the page subscribes to on load. Optional.
	Updates string
	Body    templ.Component
}

func pageTitle(title string) string {
	if title == "" {
		return AppName
	}
	return title + " - " + AppName
}

// ViewElementID returns the DOM id of a rendered view.
func ViewElementID(viewID string) string {
	return "view-" + viewID
}

// ViewFragment wraps rendered view HTML for patching.
func ViewFragment(viewID, html string) templ.Component {
	return Fragment(ViewElementID(viewID), html)
}
