package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

// ScoreHandler serves the balance score and its baseline and history.
type ScoreHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies, l logger.Logger) *ScoreHandler {
	return &ScoreHandler{deps: deps, logger: l}
}

// HandleBalanceScore handles GET /families/{id}/balance-score?refresh=true.
func (h *ScoreHandler) HandleBalanceScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_balance_score"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		if refresh, err = strconv.ParseBool(raw); err != nil {
			fail(r.Context(), w, h.logger, op, fmt.Errorf("%w: refresh: %w", ErrBadRequest, err))
			return
		}
	}
	score, err := h.deps.BalanceScore(r.Context(), id, refresh)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// HandleSaveBaseline handles POST /families/{id}/baseline. A family keeps its
// first baseline; later calls get 409.
func (h *ScoreHandler) HandleSaveBaseline(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_baseline"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	b, err := h.deps.SaveBaseline(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// HandleImprovement handles GET /families/{id}/improvement.
func (h *ScoreHandler) HandleImprovement(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_improvement"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	imp, err := h.deps.Improvement(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, imp)
}

// HandleWeeklyScore handles POST /families/{id}/weekly-score.
func (h *ScoreHandler) HandleWeeklyScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_weekly_score"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	ws, err := h.deps.RecordWeeklyScore(r.Context(), id)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// HandleScoreHistory handles GET /families/{id}/score-history?limit=.
func (h *ScoreHandler) HandleScoreHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score_history"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	// Zero lets the service apply its configured default.
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	history, err := h.deps.ScoreHistory(r.Context(), id, limit)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	if history == nil {
		history = []model.WeeklyScore{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"familyId": id, "history": history})
}
