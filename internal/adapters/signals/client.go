// Package signals fetches the non-rating inputs of the balance score
// (cognitive load, relationship harmony, habit cycles) from their services.
package signals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stefanpalsson415/allietosavetheworld-sub011/internal/domain/balance"
	"github.com/stefanpalsson415/allietosavetheworld-sub011/pkg/logger"
)

const (
	defaultTimeout = 2 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client talks to one signal service. A single Client implements all three
// balance sources; the application creates one per configured base URL.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
}

var (
	_ balance.CognitiveLoadSource = (*Client)(nil)
	_ balance.HarmonySource       = (*Client)(nil)
	_ balance.HabitSource         = (*Client)(nil)
)

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse signal base url: %w", err)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: defaultTimeout,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type cognitiveLoadResponse struct {
	People []balance.PersonLoad `json:"people"`
}

// CognitiveLoad fetches per-person load. An unknown family has no people.
func (c *Client) CognitiveLoad(ctx context.Context, familyID string) ([]balance.PersonLoad, error) {
	var resp cognitiveLoadResponse
	found, err := c.getJSON(ctx, familyID, "cognitive-load", &resp)
	if err != nil || !found {
		return nil, err
	}
	return resp.People, nil
}

type harmonyResponse struct {
	HarmonyLevel     *float64 `json:"harmonyLevel"`
	StressIndicators int      `json:"stressIndicators"`
	CascadeRisk      string   `json:"cascadeRisk"`
	Trend            string   `json:"trend"`
}

// Harmony fetches the harmony reading. A missing level means monitoring has
// not started, which is reported as unavailable rather than as an error.
func (c *Client) Harmony(ctx context.Context, familyID string) (balance.HarmonyReading, error) {
	var resp harmonyResponse
	found, err := c.getJSON(ctx, familyID, "harmony", &resp)
	if err != nil || !found || resp.HarmonyLevel == nil {
		return balance.HarmonyReading{}, err
	}
	return balance.HarmonyReading{
		Available:        true,
		Level:            *resp.HarmonyLevel,
		StressIndicators: resp.StressIndicators,
		CascadeRisk:      resp.CascadeRisk,
		Trend:            resp.Trend,
	}, nil
}

type habitCycleResponse struct {
	Habits []balance.Habit `json:"habits"`
}

// ActiveHabits fetches the habits of the active cycle.
func (c *Client) ActiveHabits(ctx context.Context, familyID string) ([]balance.Habit, error) {
	var resp habitCycleResponse
	found, err := c.getJSON(ctx, familyID, "habit-cycle", &resp)
	if err != nil || !found {
		return nil, err
	}
	return resp.Habits, nil
}

// getJSON issues GET {base}/families/{id}/{resource} and decodes the body
// into out. A 404 reports found=false without error.
func (c *Client) getJSON(ctx context.Context, familyID, resource string, out any) (found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL.JoinPath("families", familyID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	c.logger.Debug(ctx, "signal fetched",
		logger.Family(familyID),
		logger.String("resource", resource),
		logger.Int("status", resp.StatusCode),
		logger.Duration("latency", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return false, fmt.Errorf("%w: %s status %d", ErrUpstream, resource, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s: %w", ErrDecode, resource, err)
	}
	return true, nil
}
