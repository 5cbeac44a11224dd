package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/model"
)

// ErrUnexpectedStatus is returned for responses the client does not handle.
var ErrUnexpectedStatus = errors.New("unexpected status")

// BatchResult mirrors the batch endpoint's response body.
type BatchResult struct {
	Status     string `json:"status"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
	Rejected   []struct {
		Index   int    `json:"index"`
		EventID string `json:"eventId"`
		Reason  string `json:"reason"`
	} `json:"rejected"`
}

// Backpressure reports whether the service refused part of the batch
// because its queue was full.
func (r BatchResult) Backpressure() bool {
	return r.Status == "backpressure"
}

// Client is a small typed client for the balance API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil)
}

// PostBatch submits comparisons for familyID. A 429 is not an error; the
// caller inspects Backpressure and resends the rejected entries.
func (c *Client) PostBatch(ctx context.Context, familyID string, batch []Comparison) (BatchResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return BatchResult{}, fmt.Errorf("marshal batch: %w", err)
	}
	path := "/families/" + url.PathEscape(familyID) + "/comparisons/batch"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return BatchResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return BatchResult{}, fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusTooManyRequests {
		return BatchResult{}, statusError(resp)
	}
	var out BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return BatchResult{}, fmt.Errorf("decode batch response: %w", err)
	}
	return out, nil
}

// Ratings fetches the family's rating document.
func (c *Client) Ratings(ctx context.Context, familyID string) (model.FamilyRatings, error) {
	var doc model.FamilyRatings
	err := c.get(ctx, "/families/"+url.PathEscape(familyID)+"/ratings", &doc)
	return doc, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(msg))
}
