package api

import (
	"net/http"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/imbalance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

const defaultHistoryLimit = 20

// FamilyHandler serves rating and imbalance reads.
type FamilyHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewFamilyHandler creates a new family handler.
func NewFamilyHandler(deps Dependencies, l logger.Logger) *FamilyHandler {
	return &FamilyHandler{deps: deps, logger: l}
}

// HandleRatings handles GET /families/{id}/ratings.
func (h *FamilyHandler) HandleRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ratings"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	doc, err := h.deps.Ratings(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleHistory handles GET /families/{id}/history?limit=.
func (h *FamilyHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultHistoryLimit)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	history, err := h.deps.MatchHistory(r.Context(), id, limit)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": id, "history": history})
}

// HandleCategoryImbalances handles GET /families/{id}/imbalances/categories.
func (h *FamilyHandler) HandleCategoryImbalances(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_category_imbalances"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	out, err := h.deps.CategoryImbalances(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": id, "categories": out})
}

// HandleTaskImbalances handles GET /families/{id}/imbalances/tasks?category=.
func (h *FamilyHandler) HandleTaskImbalances(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_task_imbalances"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	out, err := h.deps.TaskImbalances(r.Context(), id, r.URL.Query().Get("category"))
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": id, "tasks": out})
}

// HandleUncovered handles GET /families/{id}/uncovered?limit=.
func (h *FamilyHandler) HandleUncovered(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_uncovered"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	limit, err := intQuery(r, "limit", imbalance.DefaultTopUncovered)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	out, err := h.deps.Uncovered(r.Context(), id, limit)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRecommendations handles GET /families/{id}/recommendations.
func (h *FamilyHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recommendations"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	out, err := h.deps.Recommendations(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	if out == nil {
		out = []imbalance.Recommendation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": id, "recommendations": out})
}

// HandleWeightStats handles GET /families/{id}/weight-stats.
func (h *FamilyHandler) HandleWeightStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weight_stats"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	out, err := h.deps.WeightStatistics(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
