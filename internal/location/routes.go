package location

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the administrative entity endpoints.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/states", h.CreateState)
	r.Get("/states", h.ListStates)
	r.Put("/states/{id}", h.UpdateState)
	r.Delete("/states/{id}", h.delete(&State{}, "State"))

	r.Post("/districts", h.CreateDistrict)
	r.Get("/districts", h.ListDistricts)
	r.Put("/districts/{id}", h.UpdateDistrict)
	r.Delete("/districts/{id}", h.delete(&District{}, "District"))

	r.Post("/cities", h.CreateCity)
	r.Get("/cities", h.ListCities)
	r.Put("/cities/{id}", h.UpdateCity)
	r.Delete("/cities/{id}", h.delete(&City{}, "City"))

	r.Post("/localities", h.CreateLocality)
	r.Get("/localities", h.ListLocalities)
	r.Put("/localities/{id}", h.UpdateLocality)
	r.Delete("/localities/{id}", h.delete(&Locality{}, "Locality"))
}
