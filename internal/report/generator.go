package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/backtest-pipeline/internal/config"
)

// Generator produces narrative text from a structured analysis
// document. The content and shape of the returned text are not under
// this pipeline's control.
type Generator interface {
	Generate(ctx context.Context, document json.RawMessage) (string, error)
}

// HTTPGenerator calls the external narrative generator over HTTP with
// retries, a rate limit, and a hard per-request timeout.
type HTTPGenerator struct {
	client  *retryablehttp.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logrus.Logger
}

// NewHTTPGenerator creates a generator client from configuration.
func NewHTTPGenerator(cfg *config.GeneratorConfig, logger *logrus.Logger) *HTTPGenerator {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.RequestTimeout()

	return &HTTPGenerator{
		client:  client,
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		timeout: cfg.RequestTimeout(),
		logger:  logger,
	}
}

// generateRequest is the generator's request payload.
type generateRequest struct {
	Document json.RawMessage `json:"document"`
}

// Generate submits the analysis document and returns the generator's
// raw text. The call is bounded by the configured timeout; a timeout
// surfaces as an error the caller treats as an isolated
// report-generation failure.
func (g *HTTPGenerator) Generate(ctx context.Context, document json.RawMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}

	body, err := json.Marshal(generateRequest{Document: document})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generator request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/reports", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	g.logger.WithFields(logrus.Fields{
		"bytes":    len(raw),
		"duration": time.Since(start),
	}).Debug("Narrative generator responded")

	return string(raw), nil
}
