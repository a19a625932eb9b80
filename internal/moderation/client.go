package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/metrics"
)

// Verdict is the moderation outcome for a piece of content
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictFlagged  Verdict = "flagged"
)

// Client talks to the hosted content moderation service.
//
// The service is advisory: when it is unreachable, times out, or returns
// an error, content is allowed through (fail open). Only an explicit
// flagged verdict blocks content.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a moderation client. An empty baseURL disables
// moderation entirely and every check passes.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enabled reports whether a moderation endpoint is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type checkRequest struct {
	Text string `json:"text"`
}

type checkResponse struct {
	Verdict string  `json:"verdict"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
}

// CheckResult carries the verdict and optional reason for the caller
type CheckResult struct {
	Verdict Verdict
	Reason  string
}

// CheckText submits text for moderation. Any transport or service
// failure yields an accepted result so the product keeps working when
// the moderation service is down.
func (c *Client) CheckText(ctx context.Context, text string) CheckResult {
	m := metrics.Get()

	if !c.Enabled() || text == "" {
		m.ModerationChecksTotal.WithLabelValues("accepted").Inc()
		return CheckResult{Verdict: VerdictAccepted}
	}

	body, err := json.Marshal(checkRequest{Text: text})
	if err != nil {
		m.ModerationChecksTotal.WithLabelValues("failed_open").Inc()
		return CheckResult{Verdict: VerdictAccepted}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/moderate/text", bytes.NewReader(body))
	if err != nil {
		m.ModerationChecksTotal.WithLabelValues("failed_open").Inc()
		return CheckResult{Verdict: VerdictAccepted}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Log.Warn("Moderation service unreachable, allowing content",
			zap.Error(err),
		)
		m.ModerationChecksTotal.WithLabelValues("failed_open").Inc()
		return CheckResult{Verdict: VerdictAccepted}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("Moderation service error, allowing content",
			zap.Int("status", resp.StatusCode),
		)
		m.ModerationChecksTotal.WithLabelValues("failed_open").Inc()
		return CheckResult{Verdict: VerdictAccepted}
	}

	var result checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		m.ModerationChecksTotal.WithLabelValues("failed_open").Inc()
		return CheckResult{Verdict: VerdictAccepted}
	}

	if result.Verdict == string(VerdictFlagged) {
		logger.Log.Info("Content flagged by moderation",
			zap.Float64("score", result.Score),
			zap.String("reason", result.Reason),
		)
		m.ModerationChecksTotal.WithLabelValues("flagged").Inc()
		return CheckResult{Verdict: VerdictFlagged, Reason: result.Reason}
	}

	m.ModerationChecksTotal.WithLabelValues("accepted").Inc()
	return CheckResult{Verdict: VerdictAccepted}
}

// Health pings the moderation service. Used by the health endpoint to
// report adapter status without affecting request handling.
func (c *Client) Health(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("moderation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("moderation service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
