package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vitastate/internal/config"
)

// --- Provider Configuration ---
const (
	DefaultTemperature = 0.7
	defaultTimeout     = 15 * time.Second
	defaultMaxTokens   = 2500
)

// Sender is the contract the agent orchestrators depend on.
type Sender interface {
	Send(ctx context.Context, systemPrompt, userPrompt string, temperature float64) Result
}

// Gateway sends one chat completion per call to an OpenAI-compatible
// provider and enforces a JSON-object response.
type Gateway struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int64
}

// NewGateway builds a Gateway from configuration. Without an API key the
// gateway is still usable: every Send fails fast with ReasonNoAPIKey.
func NewGateway(cfg config.LLMConfig, httpClient *http.Client) *Gateway {
	g := &Gateway{
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.maxTokens <= 0 {
		g.maxTokens = defaultMaxTokens
	}

	if cfg.APIKey == "" {
		return g
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(g.timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	client := openai.NewClient(opts...)
	g.client = &client
	return g
}

// Configured reports whether a provider credential is present.
func (g *Gateway) Configured() bool {
	return g.client != nil
}

// Send performs exactly one provider call. It never retries: any transport
// failure, timeout or non-2xx status is returned as ReasonHTTPError.
func (g *Gateway) Send(ctx context.Context, systemPrompt, userPrompt string, temperature float64) Result {
	logger := loggerFrom(ctx)

	if g.client == nil {
		logger.Error().Msg("OPENROUTER_API_KEY is not set, skipping LLM call")
		return Failure(ReasonNoAPIKey, ErrNoAPIKey)
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(g.maxTokens),
	}

	logger.Debug().Str("model", g.model).Int("system_len", len(systemPrompt)).Int("user_len", len(userPrompt)).Msg("Calling LLM API")

	start := time.Now()
	completion, err := g.client.Chat.Completions.New(reqCtx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			logger.Warn().Int("status", apiErr.StatusCode).Dur("latency", time.Since(start)).Msg("LLM API returned non-2xx status")
		} else {
			logger.Warn().Err(err).Dur("latency", time.Since(start)).Msg("LLM request failed")
		}
		return Failure(ReasonHTTPError, fmt.Errorf("%w: %v", ErrUpstream, err))
	}

	if len(completion.Choices) == 0 {
		logger.Warn().Msg("LLM response carried no choices")
		return Failure(ReasonMalformedJSON, fmt.Errorf("%w: no choices in response", ErrMalformedJSON))
	}

	content := completion.Choices[0].Message.Content
	logger.Debug().Dur("latency", time.Since(start)).Int("content_len", len(content)).Msg("LLM response received")

	return ParseContent(content)
}

// ParseContent decodes the provider's message content. Only a JSON object or
// a JSON array is accepted; anything else discards the whole response.
func ParseContent(content string) Result {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return Failure(ReasonMalformedJSON, fmt.Errorf("%w: empty content", ErrMalformedJSON))
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return Failure(ReasonMalformedJSON, fmt.Errorf("%w: %v", ErrMalformedJSON, err))
	}

	switch parsed.(type) {
	case map[string]any, []any:
		return Success(parsed)
	default:
		return Failure(ReasonMalformedJSON, fmt.Errorf("%w: content is not an object or array", ErrMalformedJSON))
	}
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
