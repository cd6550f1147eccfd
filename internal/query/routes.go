package query

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the proximity query endpoints onto the /locations
// router shared with the entity endpoints.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/reverse-geocode", h.ReverseGeocode)
	r.Get("/suggestions", h.Suggestions)
}
