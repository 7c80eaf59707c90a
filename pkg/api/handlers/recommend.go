package handlers

import (
	"net/http"

	"github.com/drinkscout/drinkscout/internal/logger"
	"github.com/drinkscout/drinkscout/pkg/agent"
	"github.com/drinkscout/drinkscout/pkg/catalog"
	"github.com/drinkscout/drinkscout/pkg/query"
)

// RecommendHandler serves the drink recommendation endpoint.
//
// It runs a drink search for the caller's filter, then hands the results to
// the external agent service for a natural-language recommendation.
type RecommendHandler struct {
	agent        *agent.Client
	catalog      *catalog.Service
	defaultLimit int64
}

// NewRecommendHandler creates a recommendation handler. The agent client
// may be nil when no agent service is configured; the endpoint then
// returns 503.
func NewRecommendHandler(client *agent.Client, svc *catalog.Service, defaultLimit int64) *RecommendHandler {
	return &RecommendHandler{agent: client, catalog: svc, defaultLimit: defaultLimit}
}

// RecommendRequest is the POST /v1/recommend body.
//
// UserID and SessionID are optional; missing values get fresh identifiers
// so one-shot callers still work.
type RecommendRequest struct {
	UserID      string              `json:"user_id,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
	Preferences []agent.ChatMessage `json:"preferences,omitempty"`
	Filter      query.Filter        `json:"filter"`
}

// Recommend handles POST /v1/recommend.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	if h.agent == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse("recommendation agent not configured"))
		return
	}

	var req RecommendRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !validLocation(w, req.Filter) {
		return
	}
	if req.Filter.Limit == 0 {
		req.Filter.Limit = h.defaultLimit
	}

	drinks, err := h.catalog.ListDrinks(r.Context(), req.Filter)
	if err != nil {
		logger.ErrorCtx(r.Context(), "drink search for recommendation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("drink search failed"))
		return
	}

	rec, err := h.agent.Recommend(r.Context(), agent.RecommendRequest{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Preferences: req.Preferences,
		Drinks:      drinks,
	})
	if err != nil {
		logger.ErrorCtx(r.Context(), "recommendation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("recommendation failed"))
		return
	}

	writeJSON(w, http.StatusOK, okResponse(rec))
}
