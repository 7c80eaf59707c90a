package handlers

import (
	"net/http"

	"github.com/drinkscout/drinkscout/internal/logger"
	"github.com/drinkscout/drinkscout/pkg/catalog"
)

// ListingsHandler serves the catalog listing endpoints.
type ListingsHandler struct {
	catalog *catalog.Service
}

// NewListingsHandler creates a listings handler.
func NewListingsHandler(svc *catalog.Service) *ListingsHandler {
	return &ListingsHandler{catalog: svc}
}

// DrinkTags handles GET /v1/drink-tags.
func (h *ListingsHandler) DrinkTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListDrinkTags(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "drink tag listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("drink tag listing failed"))
		return
	}

	writeJSON(w, http.StatusOK, okResponse(tags))
}

// Brands handles GET /v1/brands.
func (h *ListingsHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.ListBrands(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "brand listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("brand listing failed"))
		return
	}

	writeJSON(w, http.StatusOK, okResponse(brands))
}
