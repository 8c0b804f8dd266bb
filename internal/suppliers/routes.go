package suppliers

import "github.com/go-chi/chi/v5"

// MountRoutes registers the HTML pages.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.index)
	r.Post("/", h.save)
	r.Post("/cancel", h.cancel)
	r.Post("/reseed", h.reseed)
	r.Get("/export.csv", h.exportCSV)
	r.Get("/export.pdf", h.exportPDF)
	r.Get("/{id}/edit", h.edit)
	r.Get("/{id}/delete", h.confirmDelete)
	r.Post("/{id}/delete", h.delete)
}

// MountRoutes registers the JSON API.
func (a *API) MountRoutes(r chi.Router) {
	r.Get("/", a.list)
	r.Post("/", a.create)
	r.Post("/reseed", a.reseed)
	r.Get("/events", a.events)
	r.Get("/{id}", a.get)
	r.Patch("/{id}", a.update)
	r.Delete("/{id}", a.delete)
}
