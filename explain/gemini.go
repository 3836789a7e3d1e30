package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// GeminiConfig configures the generateContent client.
type GeminiConfig struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// Gemini asks a generateContent endpoint for the rationale.
type Gemini struct {
	client *resty.Client
	model  string
	apiKey string
}

// NewGemini builds a client. An empty APIKey is allowed here so tests can
// run against a local server; callers that hit the real service check it.
func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGeminiEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.Endpoint, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")

	return &Gemini{client: client, model: cfg.Model, apiKey: cfg.APIKey}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

func (g *Gemini) Explain(ctx context.Context, c Context) (string, error) {
	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: Prompt(c)}}}}}

	req := g.client.R().
		SetContext(ctx).
		SetPathParam("model", g.model).
		SetBody(body)
	if g.apiKey != "" {
		req.SetQueryParam("key", g.apiKey)
	}

	resp, err := req.Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	text := gjson.GetBytes(resp.Body(), "candidates.0.content.parts.0.text")
	if !text.Exists() || strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyReply
	}
	return strings.TrimSpace(text.String()), nil
}
