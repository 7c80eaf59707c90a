package handlers

import (
	"net/http"

	"github.com/drinkscout/drinkscout/internal/logger"
	"github.com/drinkscout/drinkscout/pkg/catalog"
	"github.com/drinkscout/drinkscout/pkg/query"
)

// SearchHandler serves the store and drink search endpoints.
type SearchHandler struct {
	catalog      *catalog.Service
	defaultLimit int64
}

// NewSearchHandler creates a search handler. defaultLimit caps drink
// results when a request carries no limit of its own.
func NewSearchHandler(svc *catalog.Service, defaultLimit int64) *SearchHandler {
	return &SearchHandler{catalog: svc, defaultLimit: defaultLimit}
}

// Stores handles POST /v1/stores/search.
//
// Body is a search filter; the response lists nearby stores carrying at
// least one matching menu item, with their matching menus attached.
func (h *SearchHandler) Stores(w http.ResponseWriter, r *http.Request) {
	var f query.Filter
	if !decodeJSONBody(w, r, &f) {
		return
	}
	if !validLocation(w, f) {
		return
	}

	stores, err := h.catalog.ListStores(r.Context(), f)
	if err != nil {
		logger.ErrorCtx(r.Context(), "store search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("store search failed"))
		return
	}

	writeJSON(w, http.StatusOK, okResponse(stores))
}

// Drinks handles POST /v1/drinks/search.
//
// Body is a search filter; the response lists drinks ranked by text score,
// each joined with its store context.
func (h *SearchHandler) Drinks(w http.ResponseWriter, r *http.Request) {
	var f query.Filter
	if !decodeJSONBody(w, r, &f) {
		return
	}
	if !validLocation(w, f) {
		return
	}
	if f.Limit == 0 {
		f.Limit = h.defaultLimit
	}

	drinks, err := h.catalog.ListDrinks(r.Context(), f)
	if err != nil {
		logger.ErrorCtx(r.Context(), "drink search failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("drink search failed"))
		return
	}

	writeJSON(w, http.StatusOK, okResponse(drinks))
}

// validLocation rejects filters without a usable search origin. Returns
// false after writing a 400 response.
func validLocation(w http.ResponseWriter, f query.Filter) bool {
	if f.Longitude == 0 && f.Latitude == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("longitude and latitude are required"))
		return false
	}
	if f.Longitude < -180 || f.Longitude > 180 || f.Latitude < -90 || f.Latitude > 90 {
		writeJSON(w, http.StatusBadRequest, errorResponse("longitude or latitude out of range"))
		return false
	}
	return true
}
