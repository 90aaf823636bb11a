package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mentalmath/internal/config"
	"mentalmath/internal/domain"
	"mentalmath/internal/logger"

	"go.uber.org/zap"
)

const nextQuestionPath = "/next-question"

// HTTPClient implements domain.AgentClient over the agent's REST endpoint.
// Each call is a single POST with a bounded timeout; any transport,
// status, or decode failure surfaces as an agent-unavailable error.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an agent client from configuration.
func NewHTTPClient(cfg *config.AgentConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SuggestNext posts the answered-question event and returns the agent's
// suggestion. RawTrace carries the request and response bodies for the
// decision audit row.
func (c *HTTPClient) SuggestNext(ctx context.Context, event *domain.AgentAnswerEvent) (*domain.AgentSuggestion, error) {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, domain.NewInternalError("failed to marshal agent event", err)
	}

	url := c.baseURL + nextQuestionPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.NewInternalError("failed to build agent request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Get().Warn("agent request failed",
			zap.String("url", url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, domain.NewAgentUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewAgentUnavailableError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Get().Warn("agent returned non-2xx status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return nil, domain.NewAgentUnavailableError(
			fmt.Errorf("agent returned status %d: %s", resp.StatusCode, truncate(body, 256)))
	}

	var suggestion domain.AgentSuggestion
	if err := json.Unmarshal(body, &suggestion); err != nil {
		return nil, domain.NewAgentUnavailableError(fmt.Errorf("failed to decode agent response: %w", err))
	}
	if suggestion.NextQuestionID == "" {
		return nil, domain.NewAgentUnavailableError(fmt.Errorf("agent response missing nextQuestionId"))
	}

	trace, err := json.Marshal(map[string]json.RawMessage{
		"request":  payload,
		"response": body,
	})
	if err == nil {
		suggestion.RawTrace = trace
	}

	logger.Get().Debug("agent suggestion received",
		zap.String("next_question_id", suggestion.NextQuestionID),
		zap.Duration("elapsed", time.Since(start)))
	return &suggestion, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
