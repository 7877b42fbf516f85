package ai

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/stayprice/stayprice/internal/config"
	ierr "github.com/stayprice/stayprice/internal/errors"
	"github.com/stayprice/stayprice/internal/logger"
)

// Client is the completion surface used by AI pricing. Tests substitute a
// canned implementation.
type Client interface {
	// Complete sends one prompt pair and returns the raw model output,
	// which is expected to be a single JSON document
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIClient implements Client against an OpenAI-compatible endpoint
type OpenAIClient struct {
	api         *openai.Client
	model       string
	timeout     time.Duration
	maxAttempts int
	logger      *logger.Logger
}

// NewClient builds a completion client from the process configuration
func NewClient(cfg *config.Configuration, log *logger.Logger) Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.AI.APIKey)}
	if cfg.AI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AI.BaseURL))
	}
	api := openai.NewClient(opts...)

	return &OpenAIClient{
		api:         &api,
		model:       cfg.AI.Model,
		timeout:     cfg.AI.Timeout,
		maxAttempts: cfg.AI.MaxAttempts,
		logger:      log,
	}
}

// Complete issues the completion with bounded exponential backoff on 429
// and 5xx. A 401 stops immediately; retrying with the same key cannot help.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	}

	var content string
	operation := func() error {
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			var apiErr *openai.Error
			if ierr.As(err, &apiErr) {
				if apiErr.StatusCode == 401 {
					return backoff.Permanent(err)
				}
				if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
					c.logger.Warnw("ai completion retryable failure",
						"status", apiErr.StatusCode, "error", err)
					return err
				}
				return backoff.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(ierr.NewError("ai returned no choices").
				Mark(ierr.ErrRemoteProvider))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", ierr.WithError(err).
			WithHint("The pricing model could not be reached").
			Mark(ierr.ErrRemoteProvider)
	}
	return content, nil
}
