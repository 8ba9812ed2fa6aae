package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/network"
)

const maxResponseSize = 4 << 20

// Summarizer produces a summary for a transcript with the named model.
type Summarizer interface {
	CheckModel(model string) error
	Summarize(ctx context.Context, model string, req SummaryRequest) (string, error)
}

type Client struct {
	registry     *ModelRegistry
	http         *baseHTTPClient
	timeout      time.Duration
	maxAttempts  int
	baseDelay    time.Duration
	systemPrompt string
	logger       logger.Logger
}

func NewClient(cfg config.AIConfig, registry *ModelRegistry, httpClient network.HTTPClient, l logger.Logger) *Client {
	log := l.WithField("component", "ai")
	c := &Client{
		registry:     registry,
		http:         newBaseHTTPClient(httpClient, cfg.APIKey, cfg.SharedSecret, log),
		timeout:      cfg.Timeout,
		maxAttempts:  cfg.MaxAttempts,
		baseDelay:    cfg.BaseDelay,
		systemPrompt: cfg.SystemPrompt,
		logger:       log,
	}
	if c.timeout <= 0 {
		c.timeout = 120 * time.Second
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if c.baseDelay <= 0 {
		c.baseDelay = time.Second
	}
	return c
}

func (c *Client) Registry() *ModelRegistry {
	return c.registry
}

// CheckModel fails fast on a model that cannot be called.
func (c *Client) CheckModel(model string) error {
	_, _, err := c.registry.Resolve(model)
	return err
}

func (c *Client) Summarize(ctx context.Context, model string, req SummaryRequest) (string, error) {
	name, endpoint, err := c.registry.Resolve(model)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(summaryPayload{
		VideoID:  req.VideoID,
		Model:    name,
		Messages: c.messages(req),
	})
	if err != nil {
		return "", fmt.Errorf("marshal error: %w", err)
	}

	body, err := c.postWithRetry(ctx, name, endpoint, payload)
	if err != nil {
		return "", err
	}

	text := extractText(body)
	if text == "" {
		return "", &AIError{ModelName: name, Message: "model returned an empty response"}
	}
	return text, nil
}

func (c *Client) messages(req SummaryRequest) []Message {
	var user strings.Builder
	if req.Title != "" {
		fmt.Fprintf(&user, "Title: %s\n", req.Title)
	}
	if req.Language != "" {
		fmt.Fprintf(&user, "Language: %s\n", req.Language)
	}
	user.WriteString("\nTranscript:\n")
	user.WriteString(req.Transcript)

	messages := make([]Message, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: c.systemPrompt})
	}
	return append(messages, Message{Role: RoleUser, Content: user.String()})
}

// postWithRetry retries 429 and 5xx gateway-class statuses with exponential
// backoff. Anything else fails on the first attempt.
func (c *Client) postWithRetry(ctx context.Context, model, endpoint string, payload []byte) ([]byte, error) {
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.baseDelay))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		respBody, err := c.post(ctx, model, endpoint, payload)
		if err == nil {
			body = respBody
			return nil
		}

		var aiErr *AIError
		if errors.As(err, &aiErr) && aiErr.Retryable() {
			c.logger.WithError(err).WithFields(logger.Fields{
				"model":   model,
				"attempt": attempt,
				"status":  aiErr.HTTPStatusCode,
			}).Warn("Model request failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var aiErr *AIError
		if !errors.As(err, &aiErr) {
			err = &AIError{OriginalErr: err, ModelName: model, Message: "request aborted"}
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, model, endpoint string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &AIError{OriginalErr: err, ModelName: model, Message: "create request error"}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &AIError{OriginalErr: err, ModelName: model, Message: "network request failed"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &AIError{
			OriginalErr:    err,
			ModelName:      model,
			HTTPStatusCode: resp.StatusCode,
			Message:        "failed to read response body",
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		aiErr := &AIError{
			ModelName:      model,
			HTTPStatusCode: resp.StatusCode,
			Message:        fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
			Body:           string(body),
		}

		var providerError struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &providerError) == nil && providerError.Error.Message != "" {
			aiErr.Message = providerError.Error.Message
			aiErr.ErrorCode = providerError.Error.Code
		}
		return nil, aiErr
	}

	return body, nil
}
