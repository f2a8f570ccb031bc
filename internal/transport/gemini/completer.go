package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/keywordlab/internal/domain"
	"github.com/kailas-cloud/keywordlab/internal/metrics"
)

const defaultModel = "gemini-2.5-flash"

// Completer is a completion provider backed by the Gemini API.
type Completer struct {
	client    *genai.Client
	model     string
	maxTokens int
	provider  string
	logger    *zap.Logger
}

// Config holds the Gemini provider settings.
type Config struct {
	APIKey    string
	BaseURL   string // optional endpoint override
	Model     string
	MaxTokens int
	Provider  string
	Logger    *zap.Logger
}

// NewCompleter creates a Gemini completion provider.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}
	return &Completer{
		client:    client,
		model:     model,
		maxTokens: cfg.MaxTokens,
		provider:  provider,
		logger:    cfg.Logger,
	}, nil
}

// Complete implements domain.Completer with transport-level metrics.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		genCfg.ResponseMIMEType = "application/json"
	}
	if n := req.MaxTokens; n > 0 {
		genCfg.MaxOutputTokens = int32(n)
	} else if c.maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.maxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	start := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, genCfg)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, model, "api_error").Inc()
		return domain.CompletionResult{}, parseAPIError(err)
	}

	text := resp.Text()
	if text == "" {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())

	var prompt, completion, total int
	if u := resp.UsageMetadata; u != nil {
		prompt = int(u.PromptTokenCount)
		completion = int(u.CandidatesTokenCount)
		total = int(u.TotalTokenCount)
		metrics.LLMTokensTotal.WithLabelValues(c.provider, model, "prompt").Add(float64(prompt))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, model, "completion").Add(float64(completion))
	}

	return domain.CompletionResult{
		Text:             text,
		Model:            model,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
	}, nil
}

// HealthCheck verifies API availability by listing one model page.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		wrap := domain.ErrLLMProviderError
		if apiErr.Code == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, wrap)
	}
	return fmt.Errorf("gemini request failed: %v: %w", err, domain.ErrLLMProviderError)
}
