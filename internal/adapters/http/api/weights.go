package api

import (
	"net/http"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/imbalance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

type weightRequest struct {
	Task       model.TaskDescriptor   `json:"task"`
	Priorities model.FamilyPriorities `json:"priorities"`
}

type surveyBalanceRequest struct {
	Questions  []imbalance.Question   `json:"questions"`
	Responses  map[string]string      `json:"responses"`
	Priorities model.FamilyPriorities `json:"priorities"`
}

// WeightsHandler exposes the task weight calculator.
type WeightsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps Dependencies, l logger.Logger) *WeightsHandler {
	return &WeightsHandler{deps: deps, logger: l}
}

// HandleComputeWeight handles POST /weights.
func (h *WeightsHandler) HandleComputeWeight(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_weights"
	var req weightRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	res, err := h.deps.ComputeWeight(req.Task, req.Priorities)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSurveyBalance handles POST /survey-balance.
func (h *WeightsHandler) HandleSurveyBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_survey_balance"
	var req surveyBalanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	res, err := h.deps.SurveyBalance(req.Questions, req.Responses, req.Priorities)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
