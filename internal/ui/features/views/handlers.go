package views

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/reclinepreview/internal/state"
	"github.com/leapstack-labs/reclinepreview/internal/ui/features/common"
	"github.com/leapstack-labs/reclinepreview/internal/ui/notifier"
	"github.com/leapstack-labs/reclinepreview/internal/ui/render"
	"github.com/leapstack-labs/reclinepreview/pkg/view"
)

// Handlers provides HTTP handlers for the views feature.
type Handlers struct {
	store        state.Store
	registry     *view.Registry
	renderer     *render.Renderer
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	store state.Store,
	registry *view.Registry,
	renderer *render.Renderer,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:        store,
		registry:     registry,
		renderer:     renderer,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
	}
}

// target is a stored view with its resource and view type resolved.
type target struct {
	view       *state.ResourceView
	resource   *state.Resource
	capability view.Capability
}

// ViewPage renders a view with its resource and subscribes the page to
// live updates. A view whose type cannot display the resource is a 404.
func (h *Handlers) ViewPage(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if !t.capability.CanView(t.resource.Record()) {
		http.Error(w, notViewableMessage(t), http.StatusNotFound)
		return
	}

	html, err := h.renderView(t)
	if err != nil {
		common.ServerError(w, h.logger, "failed to render view", err)
		return
	}

	page := render.Page(render.PageData{
		Title:   t.view.Title,
		Updates: "/views/" + t.view.ID + "/updates",
		Body: ViewContent(ViewPageData{
			View:     t.view,
			Resource: t.resource,
			Flashes:  common.TakeFlashes(h.sessionStore, w, r, h.logger),
			Rendered: render.ViewFragment(t.view.ID, html),
		}),
	})
	if err := page.Render(r.Context(), w); err != nil {
		common.ServerError(w, h.logger, "failed to render view page", err)
	}
}

// EditForm renders the configuration form of a view.
func (h *Handlers) EditForm(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeForm(w, r, t, http.StatusOK, t.view.Config, nil)
}

// EditSubmit validates the posted configuration with the view type's
// schema. Invalid input re-renders the form with 422; valid input is saved
// and pushed to open view pages.
func (h *Handlers) EditSubmit(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	raw := make(map[string]any)
	for _, name := range t.capability.Info().Schema.Names() {
		if values, present := r.PostForm[name]; present && len(values) > 0 {
			raw[name] = values[0]
		}
	}

	effective, err := t.capability.Info().Schema.Validate(raw)
	var verrs view.ValidationErrors
	if errors.As(err, &verrs) {
		h.writeForm(w, r, t, http.StatusUnprocessableEntity, raw, verrs)
		return
	}
	if err != nil {
		common.ServerError(w, h.logger, "failed to validate view config", err)
		return
	}

	t.view.Config = effective
	if err := h.store.UpdateView(r.Context(), t.view); err != nil {
		common.ServerError(w, h.logger, "failed to update view", err)
		return
	}
	h.logger.Info("updated view config",
		slog.String("id", t.view.ID),
		slog.Any("config", effective))

	if err := common.AddFlash(h.sessionStore, w, r, "View updated"); err != nil {
		h.logger.Debug("failed to store flash", "error", err)
	}
	h.notifier.Publish(t.view.ID)
	http.Redirect(w, r, "/views/"+t.view.ID, http.StatusSeeOther)
}

// DeleteView removes a view and returns to its resource.
func (h *Handlers) DeleteView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rv, err := h.store.GetView(r.Context(), id)
	if errors.Is(err, state.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		common.ServerError(w, h.logger, "failed to load view", err)
		return
	}
	if err := h.store.DeleteView(r.Context(), id); err != nil {
		common.ServerError(w, h.logger, "failed to delete view", err)
		return
	}

	if err := common.AddFlash(h.sessionStore, w, r, fmt.Sprintf("Deleted view %q", rv.Title)); err != nil {
		h.logger.Debug("failed to store flash", "error", err)
	}
	http.Redirect(w, r, "/resources/"+rv.ResourceID, http.StatusSeeOther)
}

// ViewUpdates is the long-lived SSE endpoint of a view page. Config changes
// re-patch the view fragment; theme changes reload the page so new scripts
// and styles apply.
func (h *Handlers) ViewUpdates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe(id)
	defer h.notifier.Unsubscribe(updates)
	theme := h.notifier.Subscribe(notifier.ThemeTopic)
	defer h.notifier.Unsubscribe(theme)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-theme:
			_ = sse.ExecuteScript("window.location.reload()")
		case <-updates:
			if err := h.patchView(sse, r, id); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}

func (h *Handlers) patchView(sse *datastar.ServerSentEventGenerator, r *http.Request, id string) error {
	t, err := h.resolve(r, id)
	if err != nil {
		return err
	}
	if !t.capability.CanView(t.resource.Record()) {
		return errors.New(notViewableMessage(t))
	}
	html, err := h.renderView(t)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(render.ViewFragment(id, html))
}

func notViewableMessage(t *target) string {
	return fmt.Sprintf("%s cannot display resource %q: it has no datastore data", t.capability.Info().Title, t.resource.Name)
}

func (h *Handlers) renderView(t *target) (string, error) {
	return h.renderer.RenderView(t.capability, t.resource.Record(), t.view.Descriptor().Data())
}

func (h *Handlers) writeForm(w http.ResponseWriter, r *http.Request, t *target, status int, values map[string]any, errs view.ValidationErrors) {
	form, err := h.renderer.RenderForm(t.capability, render.FormData{
		Action: "/views/" + t.view.ID + "/edit",
		Values: values,
		Errors: errs,
	})
	if err != nil {
		common.ServerError(w, h.logger, "failed to render form", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := render.Page(render.PageData{
		Title: "Edit " + t.view.Title,
		Body: EditContent(EditPageData{
			View:     t.view,
			Resource: t.resource,
			Info:     t.capability.Info(),
			Invalid:  len(errs) > 0,
			Form:     render.Fragment("view-form", form),
		}),
	})
	if err := page.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render edit page", "error", err)
	}
}

// load resolves the view named in the URL, writing 404 or 500 on failure.
func (h *Handlers) load(w http.ResponseWriter, r *http.Request) (*target, bool) {
	t, err := h.resolve(r, chi.URLParam(r, "id"))
	if errors.Is(err, state.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		common.ServerError(w, h.logger, "failed to load view", err)
		return nil, false
	}
	return t, true
}

func (h *Handlers) resolve(r *http.Request, id string) (*target, error) {
	rv, err := h.store.GetView(r.Context(), id)
	if err != nil {
		return nil, err
	}
	res, err := h.store.GetResource(r.Context(), rv.ResourceID)
	if err != nil {
		return nil, err
	}
	c, err := h.registry.Lookup(rv.ViewType)
	if err != nil {
		return nil, err
	}
	return &target{view: rv, resource: res, capability: c}, nil
}
