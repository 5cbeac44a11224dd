// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/adapters/repository"
	service "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/app"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/balance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/imbalance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/weight"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Labels() model.Labels

	// Write operations.
	RecordComparison(ctx context.Context, ev model.ComparisonEvent) (service.Result, error)
	SubmitBatch(ctx context.Context, events []model.ComparisonEvent) (service.BatchResult, error)

	// Rating reads.
	Ratings(ctx context.Context, familyID string) (model.FamilyRatings, error)
	CategoryImbalances(ctx context.Context, familyID string) (map[string]imbalance.CategoryImbalance, error)
	TaskImbalances(ctx context.Context, familyID, category string) (map[string]imbalance.TaskImbalance, error)
	Uncovered(ctx context.Context, familyID string, limit int) (imbalance.UncoveredSummary, error)
	Recommendations(ctx context.Context, familyID string) ([]imbalance.Recommendation, error)
	WeightStatistics(ctx context.Context, familyID string) (imbalance.WeightStats, error)
	MatchHistory(ctx context.Context, familyID string, limit int) ([]model.MatchRecord, error)

	// Balance score.
	BalanceScore(ctx context.Context, familyID string, refresh bool) (model.BalanceScore, error)
	SaveBaseline(ctx context.Context, familyID string) (model.Baseline, error)
	Improvement(ctx context.Context, familyID string) (model.Improvement, error)
	RecordWeeklyScore(ctx context.Context, familyID string) (model.WeeklyScore, error)
	ScoreHistory(ctx context.Context, familyID string, limit int) ([]model.WeeklyScore, error)

	// Weights.
	ComputeWeight(task model.TaskDescriptor, p model.FamilyPriorities) (weight.Result, error)
	SurveyBalance(questions []imbalance.Question, responses map[string]string, p model.FamilyPriorities) (imbalance.SurveyResult, error)
}

var _ Dependencies = (*service.Service)(nil)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	comparisonsHandler *ComparisonsHandler
	familyHandler      *FamilyHandler
	scoreHandler       *ScoreHandler
	weightsHandler     *WeightsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		comparisonsHandler: NewComparisonsHandler(deps, o.logger, o.now),
		familyHandler:      NewFamilyHandler(deps, o.logger),
		scoreHandler:       NewScoreHandler(deps, o.logger),
		weightsHandler:     NewWeightsHandler(deps, o.logger),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /families/{id}/comparisons", MetricsMiddleware(s.comparisonsHandler.HandlePostComparison, "comparisons"))
	mux.HandleFunc("POST /families/{id}/comparisons/batch", MetricsMiddleware(s.comparisonsHandler.HandlePostBatch, "comparisons_batch"))

	mux.HandleFunc("GET /families/{id}/ratings", MetricsMiddleware(s.familyHandler.HandleRatings, "ratings"))
	mux.HandleFunc("GET /families/{id}/history", MetricsMiddleware(s.familyHandler.HandleHistory, "history"))
	mux.HandleFunc("GET /families/{id}/imbalances/categories", MetricsMiddleware(s.familyHandler.HandleCategoryImbalances, "imbalances_categories"))
	mux.HandleFunc("GET /families/{id}/imbalances/tasks", MetricsMiddleware(s.familyHandler.HandleTaskImbalances, "imbalances_tasks"))
	mux.HandleFunc("GET /families/{id}/uncovered", MetricsMiddleware(s.familyHandler.HandleUncovered, "uncovered"))
	mux.HandleFunc("GET /families/{id}/recommendations", MetricsMiddleware(s.familyHandler.HandleRecommendations, "recommendations"))
	mux.HandleFunc("GET /families/{id}/weight-stats", MetricsMiddleware(s.familyHandler.HandleWeightStats, "weight_stats"))

	mux.HandleFunc("GET /families/{id}/balance-score", MetricsMiddleware(s.scoreHandler.HandleBalanceScore, "balance_score"))
	mux.HandleFunc("POST /families/{id}/baseline", MetricsMiddleware(s.scoreHandler.HandleSaveBaseline, "baseline"))
	mux.HandleFunc("GET /families/{id}/improvement", MetricsMiddleware(s.scoreHandler.HandleImprovement, "improvement"))
	mux.HandleFunc("POST /families/{id}/weekly-score", MetricsMiddleware(s.scoreHandler.HandleWeeklyScore, "weekly_score"))
	mux.HandleFunc("GET /families/{id}/score-history", MetricsMiddleware(s.scoreHandler.HandleScoreHistory, "score_history"))

	mux.HandleFunc("POST /weights", MetricsMiddleware(s.weightsHandler.HandleComputeWeight, "weights"))
	mux.HandleFunc("POST /survey-balance", MetricsMiddleware(s.weightsHandler.HandleSurveyBalance, "survey_balance"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps domain errors to an HTTP status, response code and API kind.
func classify(err error) (status int, code string, kind error) {
	switch {
	case errors.Is(err, model.ErrInvalidEvent),
		errors.Is(err, model.ErrUnsupportedOutcome),
		errors.Is(err, weight.ErrMissingField),
		errors.Is(err, balance.ErrMissingFamilyID),
		errors.Is(err, repository.ErrMissingFamilyID),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request", ErrBadRequest
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure", ErrBackpressure
	case errors.Is(err, model.ErrBaselineExists):
		return http.StatusConflict, "baseline_exists", ErrConflict
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable", ErrUnavailable
	}
	return http.StatusInternalServerError, "internal", ErrInternal
}

// fail writes err with the status its kind maps to. Server-side failures are
// logged since the client only sees a generic message.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	status, code, kind := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, status, code, NewKind(op, kind))
		return
	}
	writeError(w, status, code, WrapKind(op, kind, err))
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// familyID returns the path family id, or an error when it is blank.
func familyID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", fmt.Errorf("%w: missing family id", ErrBadRequest)
	}
	return id, nil
}

// intQuery parses a positive integer query parameter, returning def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrBadRequest, name)
	}
	return n, nil
}
