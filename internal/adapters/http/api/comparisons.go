package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	service "github.com/stefanpalsson415/allietosavetheworld-sub011/internal/app"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

// comparisonRequest mirrors the OpenAPI schema for one comparison. The
// answer is given either as a canonical outcome or as a survey response,
// which older clients send as a bare string and newer ones as an object.
type comparisonRequest struct {
	EventID    string          `json:"eventId"`
	QuestionID string          `json:"questionId"`
	Category   string          `json:"category"`
	TaskType   string          `json:"taskType"`
	Weight     float64         `json:"weight"`
	Timestamp  string          `json:"timestamp"`
	Outcome    string          `json:"outcome"`
	Response   json.RawMessage `json:"response"`
}

// surveyResponse is the structured response format.
type surveyResponse struct {
	Answer      string  `json:"answer"`
	TaskType    string  `json:"taskType"`
	Text        string  `json:"text"`
	TotalWeight float64 `json:"totalWeight"`
}

// parseResponse normalizes either response shape into a surveyResponse.
func parseResponse(raw json.RawMessage) (surveyResponse, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return surveyResponse{}, fmt.Errorf("%w: outcome or response is required", ErrBadRequest)
	}
	if raw[0] == '"' {
		var answer string
		if err := json.Unmarshal(raw, &answer); err != nil {
			return surveyResponse{}, fmt.Errorf("%w: response: %w", ErrBadRequest, err)
		}
		return surveyResponse{Answer: answer}, nil
	}
	var resp surveyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return surveyResponse{}, fmt.Errorf("%w: response must be a string or an object: %w", ErrBadRequest, err)
	}
	return resp, nil
}

// toEvent builds the comparison event for familyID. Missing event ids are
// generated, so such requests are never deduplicated.
func (req *comparisonRequest) toEvent(familyID string, labels model.Labels, now time.Time) (model.ComparisonEvent, error) {
	ev := model.ComparisonEvent{
		EventID:    strings.TrimSpace(req.EventID),
		FamilyID:   familyID,
		QuestionID: req.QuestionID,
		Category:   req.Category,
		TaskType:   req.TaskType,
		Weight:     req.Weight,
		Timestamp:  now.UTC(),
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}

	answer := req.Outcome
	if strings.TrimSpace(answer) == "" {
		resp, err := parseResponse(req.Response)
		if err != nil {
			return model.ComparisonEvent{}, err
		}
		answer = resp.Answer
		if ev.TaskType == "" {
			ev.TaskType = firstNonEmpty(resp.TaskType, resp.Text)
		}
		if ev.Weight == 0 {
			ev.Weight = resp.TotalWeight
		}
	}
	if ev.TaskType == "" {
		ev.TaskType = req.QuestionID
	}

	outcome, err := model.ParseOutcome(answer, labels)
	if err != nil {
		return model.ComparisonEvent{}, err
	}
	ev.Outcome = outcome

	if ts := strings.TrimSpace(req.Timestamp); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return model.ComparisonEvent{}, fmt.Errorf("%w: invalid timestamp; must be RFC3339", ErrBadRequest)
		}
		ev.Timestamp = t.UTC()
	}
	return ev, ev.Validate()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type comparisonResponse struct {
	Status    string             `json:"status"`
	Duplicate bool               `json:"duplicate"`
	EventID   string             `json:"eventId"`
	Record    *model.MatchRecord `json:"record,omitempty"`
}

type batchResponse struct {
	Status string `json:"status"`
	service.BatchResult
}

// ComparisonsHandler ingests comparison events.
type ComparisonsHandler struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

// NewComparisonsHandler creates a new comparisons handler.
func NewComparisonsHandler(deps Dependencies, l logger.Logger, now func() time.Time) *ComparisonsHandler {
	if now == nil {
		now = time.Now
	}
	return &ComparisonsHandler{deps: deps, logger: l, now: now}
}

// HandlePostComparison handles POST /families/{id}/comparisons. The event is
// applied before the response is written.
func (h *ComparisonsHandler) HandlePostComparison(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_comparison"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	var req comparisonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	ev, err := req.toEvent(id, h.deps.Labels(), h.now())
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}

	res, err := h.deps.RecordComparison(r.Context(), ev)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, comparisonResponse{Status: "duplicate", Duplicate: true, EventID: ev.EventID})
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse{Status: "applied", EventID: ev.EventID, Record: res.Record})
}

// HandlePostBatch handles POST /families/{id}/comparisons/batch. Events are
// queued for the worker pool; entries that cannot be parsed are reported as
// rejected without failing the batch.
func (h *ComparisonsHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_comparison_batch"
	id, err := familyID(r)
	if err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	var reqs []comparisonRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		fail(r.Context(), w, h.logger, op, err)
		return
	}
	if len(reqs) == 0 {
		fail(r.Context(), w, h.logger, op, service.ErrEmptyBatch)
		return
	}

	labels := h.deps.Labels()
	now := h.now()
	events := make([]model.ComparisonEvent, 0, len(reqs))
	indexes := make([]int, 0, len(reqs))
	var rejected []service.Rejection
	for i := range reqs {
		ev, err := reqs[i].toEvent(id, labels, now)
		if err != nil {
			rejected = append(rejected, service.Rejection{Index: i, EventID: reqs[i].EventID, Reason: err.Error()})
			continue
		}
		events = append(events, ev)
		indexes = append(indexes, i)
	}

	var res service.BatchResult
	if len(events) > 0 {
		res, err = h.deps.SubmitBatch(r.Context(), events)
		// Rejections index into events; report them against the request.
		for j := range res.Rejected {
			res.Rejected[j].Index = indexes[res.Rejected[j].Index]
		}
	}
	res.Rejected = append(rejected, res.Rejected...)

	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, batchResponse{Status: "accepted", BatchResult: res})
	default:
		status, code, _ := classify(err)
		if status != http.StatusTooManyRequests {
			fail(r.Context(), w, h.logger, op, err)
			return
		}
		h.logger.Warn(r.Context(), "batch hit backpressure",
			logger.Family(id),
			logger.Int("accepted", res.Accepted),
			logger.Int("rejected", len(res.Rejected)),
		)
		writeJSON(w, status, batchResponse{Status: code, BatchResult: res})
	}
}
