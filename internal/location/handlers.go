package location

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"geohier/internal/utils"
)

// Handler exposes the administrative entity endpoints: explicit creates,
// filtered listing and soft deletion. Everything else about the hierarchy
// happens through reconciliation.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// listParams parses the shared list query parameters. parentKey names the
// level's own parent filter (country_id for states, state_id for districts
// and cities, city_id for localities); other levels' ids are ignored.
func listParams(r *http.Request, parentKey string) ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	p := ListParams{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("query"),
		OrderBy: q.Get("order_by"),
	}
	if raw := q.Get(parentKey); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			p.ParentID = id
		}
	}
	return p
}

func created(w http.ResponseWriter, kind string, id uuid.UUID, name string) {
	utils.Respond(w, http.StatusCreated, kind+" created", map[string]interface{}{
		"id":   id,
		"name": name,
	})
}

func (h *Handler) createErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrDuplicate) {
		utils.Fail(w, http.StatusBadRequest, "already exists")
		return
	}
	utils.Fail(w, http.StatusInternalServerError, "create failed")
}

func (h *Handler) CreateState(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CountryID uuid.UUID `json:"country_id"`
		Name      string    `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		utils.Fail(w, http.StatusBadRequest, "country_id and name are required")
		return
	}
	state, err := h.store.CreateState(r.Context(), in.CountryID, in.Name)
	if err != nil {
		h.createErr(w, err)
		return
	}
	created(w, "State", state.ID, state.Name)
}

func (h *Handler) CreateDistrict(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StateID uuid.UUID `json:"state_id"`
		Name    string    `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		utils.Fail(w, http.StatusBadRequest, "state_id and name are required")
		return
	}
	district, err := h.store.CreateDistrict(r.Context(), in.StateID, in.Name)
	if err != nil {
		h.createErr(w, err)
		return
	}
	created(w, "District", district.ID, district.Name)
}

func (h *Handler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StateID    uuid.UUID  `json:"state_id"`
		DistrictID *uuid.UUID `json:"district_id"`
		Name       string     `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		utils.Fail(w, http.StatusBadRequest, "state_id and name are required")
		return
	}
	city, err := h.store.CreateCity(r.Context(), in.StateID, in.DistrictID, in.Name)
	if err != nil {
		h.createErr(w, err)
		return
	}
	created(w, "City", city.ID, city.Name)
}

func (h *Handler) CreateLocality(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CityID  uuid.UUID `json:"city_id"`
		Name    string    `json:"name"`
		Pincode string    `json:"pincode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		utils.Fail(w, http.StatusBadRequest, "city_id and name are required")
		return
	}
	locality, err := h.store.CreateLocality(r.Context(), in.CityID, in.Name, in.Pincode)
	if err != nil {
		h.createErr(w, err)
		return
	}
	created(w, "Locality", locality.ID, locality.Name)
}

type updateBody struct {
	Name    *string `json:"name"`
	Active  *bool   `json:"active"`
	Pincode *string `json:"pincode"`
}

func parseUpdate(w http.ResponseWriter, r *http.Request) (uuid.UUID, UpdateParams, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, UpdateParams{}, false
	}
	var in updateBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.Fail(w, http.StatusBadRequest, "invalid body")
		return uuid.Nil, UpdateParams{}, false
	}
	return id, UpdateParams{Name: in.Name, Active: in.Active, Pincode: in.Pincode}, true
}

func (h *Handler) updateErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.Fail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrDuplicate):
		utils.Fail(w, http.StatusBadRequest, "already exists")
	default:
		utils.Fail(w, http.StatusInternalServerError, "update failed")
	}
}

func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, p, ok := parseUpdate(w, r)
	if !ok {
		return
	}
	state, err := h.store.UpdateState(r.Context(), id, p)
	if err != nil {
		h.updateErr(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "State updated", state)
}

func (h *Handler) UpdateDistrict(w http.ResponseWriter, r *http.Request) {
	id, p, ok := parseUpdate(w, r)
	if !ok {
		return
	}
	district, err := h.store.UpdateDistrict(r.Context(), id, p)
	if err != nil {
		h.updateErr(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "District updated", district)
}

func (h *Handler) UpdateCity(w http.ResponseWriter, r *http.Request) {
	id, p, ok := parseUpdate(w, r)
	if !ok {
		return
	}
	city, err := h.store.UpdateCity(r.Context(), id, p)
	if err != nil {
		h.updateErr(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "City updated", city)
}

func (h *Handler) UpdateLocality(w http.ResponseWriter, r *http.Request) {
	id, p, ok := parseUpdate(w, r)
	if !ok {
		return
	}
	locality, err := h.store.UpdateLocality(r.Context(), id, p)
	if err != nil {
		h.updateErr(w, err)
		return
	}
	utils.Respond(w, http.StatusOK, "Locality updated", locality)
}

func (h *Handler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.store.ListStates(r.Context(), listParams(r, "country_id"))
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.Respond(w, http.StatusOK, "", states)
}

func (h *Handler) ListDistricts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.store.ListDistricts(r.Context(), listParams(r, "state_id"))
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.Respond(w, http.StatusOK, "", districts)
}

func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.store.ListCities(r.Context(), listParams(r, "state_id"))
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.Respond(w, http.StatusOK, "", cities)
}

func (h *Handler) ListLocalities(w http.ResponseWriter, r *http.Request) {
	localities, err := h.store.ListLocalities(r.Context(), listParams(r, "city_id"))
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.Respond(w, http.StatusOK, "", localities)
}

func (h *Handler) delete(model interface{}, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			utils.Fail(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := h.store.SoftDelete(r.Context(), model, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				utils.Fail(w, http.StatusNotFound, "Not found")
				return
			}
			utils.Fail(w, http.StatusInternalServerError, "delete failed")
			return
		}
		utils.Respond(w, http.StatusOK, kind+" deactivated", nil)
	}
}
