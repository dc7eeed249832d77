// Package ai proxies requests to the generative language API so the API
// key never reaches the browser.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/family-health-keeper/backend/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const insightsPrompt = "Generate health insights for patient: "

type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

func ConfigFromSettings(s *config.Settings) Config {
	return Config{
		BaseURL: s.AIBaseURL,
		Model:   s.AIModel,
		APIKey:  s.GoogleAPIKey,
		Timeout: s.AIRequestTimeout,
	}
}

// Response is an upstream reply. Body is left undecoded.
type Response struct {
	StatusCode int
	Body       []byte
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

// Client calls generateContent once per request. It never retries.
type Client struct {
	http   *resty.Client
	model  string
	logger zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "ai").Logger()
	if cfg.APIKey == "" {
		logger.Warn().Msg("GOOGLE_API_KEY is not set; AI requests will be rejected upstream")
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}

	return &Client{http: c, model: cfg.Model, logger: logger}
}

// GenerateInsights embeds data in the insights prompt and posts it
// upstream. Non-200 replies are returned as a Response, not an error.
func (c *Client) GenerateInsights(ctx context.Context, data map[string]any) (*Response, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patient data: %w", err)
	}

	body := generateRequest{Contents: []content{{Parts: []part{{Text: insightsPrompt + string(encoded)}}}}}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", c.model).
		SetBody(body).
		Post("/models/{model}:generateContent")
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("status", resp.StatusCode()).
		Dur("latency", resp.Time()).
		Msg("generateContent call finished")
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}
