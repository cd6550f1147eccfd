package query

import (
	"errors"
	"net/http"
	"strconv"

	"geohier/internal/utils"
)

// Handler exposes the proximity queries over HTTP. It is a thin layer:
// parameter parsing and status codes only, all logic lives in Engine.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("long"), 64)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "long must be a number")
		return
	}

	result, err := h.engine.ReverseGeocode(r.Context(), lat, lng)
	if errors.Is(err, ErrNoCity) {
		utils.Fail(w, http.StatusNotFound, "No city found")
		return
	}
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "reverse geocode failed")
		return
	}

	utils.Respond(w, http.StatusOK, "Nearest city found for given coordinates", result)
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			utils.Fail(w, http.StatusBadRequest, "page must be an integer >= 1")
			return
		}
		page = v
	}

	limit := 10
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 50 {
			utils.Fail(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = v
	}

	var lat, lng *float64
	rawLat, rawLng := q.Get("lat"), q.Get("long")
	if (rawLat == "") != (rawLng == "") {
		utils.Fail(w, http.StatusBadRequest, "lat and long must be supplied together")
		return
	}
	if rawLat != "" {
		vLat, err := strconv.ParseFloat(rawLat, 64)
		if err != nil {
			utils.Fail(w, http.StatusBadRequest, "lat must be a number")
			return
		}
		vLng, err := strconv.ParseFloat(rawLng, 64)
		if err != nil {
			utils.Fail(w, http.StatusBadRequest, "long must be a number")
			return
		}
		lat, lng = &vLat, &vLng
	}

	result, err := h.engine.Suggestions(r.Context(), SuggestionsParams{
		Term:  q.Get("query"),
		Page:  page,
		Limit: limit,
		Lat:   lat,
		Lng:   lng,
	})
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "suggestions failed")
		return
	}

	utils.Respond(w, http.StatusOK, "Location suggestions fetched", result)
}
