package resources

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/features/common"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// Handlers provides HTTP handlers for the resources feature.
type Handlers struct {
	store        state.Store
	registry     *view.Registry
	sessionStore sessions.Store
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store state.Store, registry *view.Registry, sessionStore sessions.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:        store,
		registry:     registry,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

// HomePage lists the resources with the view types that can preview them.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListResources(r.Context())
	if err != nil {
		common.ServerError(w, h.logger, "failed to list resources", err)
		return
	}

	items := make([]ResourceItem, 0, len(list))
	for _, res := range list {
		items = append(items, ResourceItem{
			Resource:  res,
			ViewTypes: h.viewTypes(res),
		})
	}

	page := render.Page(render.PageData{
		Title: "Resources",
		Body:  HomeContent(items, common.TakeFlashes(h.sessionStore, w, r, h.logger)),
	})
	if err := page.Render(r.Context(), w); err != nil {
		common.ServerError(w, h.logger, "failed to render home page", err)
	}
}

// ResourcePage shows a resource with its views and the view creation form.
func (h *Handlers) ResourcePage(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadResource(w, r)
	if !ok {
		return
	}

	views, err := h.store.ListViews(r.Context(), res.ID)
	if err != nil {
		common.ServerError(w, h.logger, "failed to list views", err)
		return
	}

	data := ResourcePageData{
		Resource:  res,
		Views:     views,
		ViewTypes: h.viewTypes(res),
		Flashes:   common.TakeFlashes(h.sessionStore, w, r, h.logger),
	}
	page := render.Page(render.PageData{
		Title: res.Name,
		Body:  ResourceContent(data),
	})
	if err := page.Render(r.Context(), w); err != nil {
		common.ServerError(w, h.logger, "failed to render resource page", err)
	}
}

// CreateView adds a view of the posted type to a resource and redirects to it.
func (h *Handlers) CreateView(w http.ResponseWriter, r *http.Request) {
	res, ok := h.loadResource(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	c, err := h.registry.Lookup(r.PostForm.Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !c.CanView(res.Record()) {
		http.Error(w, fmt.Sprintf("%s cannot preview resource %s: no datastore data", c.Info().Name, res.Name), http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.PostForm.Get("title"))
	if title == "" {
		title = c.Info().Title
	}

	rv := &state.ResourceView{
		ResourceID:  res.ID,
		ViewType:    c.Info().Name,
		Title:       title,
		Description: strings.TrimSpace(r.PostForm.Get("description")),
		Config:      map[string]any{},
	}
	if err := h.store.CreateView(r.Context(), rv); err != nil {
		common.ServerError(w, h.logger, "failed to create view", err)
		return
	}
	h.logger.Info("created view",
		slog.String("id", rv.ID),
		slog.String("resource", res.ID),
		slog.String("type", rv.ViewType))

	if err := common.AddFlash(h.sessionStore, w, r, fmt.Sprintf("Created view %q", rv.Title)); err != nil {
		h.logger.Debug("failed to store flash", "error", err)
	}
	http.Redirect(w, r, "/views/"+rv.ID, http.StatusSeeOther)
}

// loadResource fetches the resource named in the URL, writing 404 or 500
// on failure.
func (h *Handlers) loadResource(w http.ResponseWriter, r *http.Request) (*state.Resource, bool) {
	id := chi.URLParam(r, "id")
	res, err := h.store.GetResource(r.Context(), id)
	if errors.Is(err, state.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		common.ServerError(w, h.logger, "failed to load resource", err)
		return nil, false
	}
	return res, true
}

func (h *Handlers) viewTypes(res *state.Resource) []view.Info {
	capabilities := h.registry.Viewable(res.Record())
	infos := make([]view.Info, 0, len(capabilities))
	for _, c := range capabilities {
		infos = append(infos, c.Info())
	}
	return infos
}
