package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/network"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SummaryRequest is what the caller knows about the video being summarized.
type SummaryRequest struct {
	VideoID    string
	Title      string
	Transcript string
	Language   string
}

type summaryPayload struct {
	VideoID  string    `json:"videoId"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Summary string `json:"summary"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AIError is returned for any failed model call, including exhausted retries.
type AIError struct {
	// OriginalErr is the transport error, if any
	OriginalErr error `json:"-"`
	ModelName   string `json:"model_name"`
	// HTTPStatusCode is zero when no response was received
	HTTPStatusCode int    `json:"http_status_code"`
	ErrorCode      string `json:"error_code"`
	Message        string `json:"message"`
	Body           string `json:"-"`
}

func (e *AIError) Error() string {
	msg := e.Message
	if msg == "" && e.OriginalErr != nil {
		msg = e.OriginalErr.Error()
	}
	if e.ModelName != "" {
		msg = fmt.Sprintf("[%s] %s", e.ModelName, msg)
	}
	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s (code: %s)", msg, e.ErrorCode)
	}
	if e.HTTPStatusCode != 0 {
		msg = fmt.Sprintf("%d %s", e.HTTPStatusCode, msg)
	}
	return msg
}

func (e *AIError) Unwrap() error {
	return e.OriginalErr
}

// Retryable reports whether the status is worth another attempt.
func (e *AIError) Retryable() bool {
	switch e.HTTPStatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

type baseHTTPClient struct {
	apiKey       string
	sharedSecret string
	client       network.HTTPClient
	logger       logger.Logger
}

func newBaseHTTPClient(client network.HTTPClient, apiKey, sharedSecret string, log logger.Logger) *baseHTTPClient {
	return &baseHTTPClient{
		client:       client,
		apiKey:       apiKey,
		sharedSecret: sharedSecret,
		logger:       log,
	}
}

func (c *baseHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	if c.sharedSecret != "" {
		req.Header.Set("Authorization", "Bearer "+c.sharedSecret)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(body))
	}

	c.logRequest(req, body)

	return c.client.Do(req)
}

func (c *baseHTTPClient) logRequest(req *http.Request, body []byte) {
	var bodyData any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &bodyData); err == nil {
			if m, ok := bodyData.(map[string]any); ok {
				truncateLargeFields(m)
			}
		}
	}

	c.logger.WithFields(logger.Fields{
		"url":    req.URL.Redacted(),
		"method": req.Method,
		"body":   bodyData,
	}).Debug("Model request")
}

func truncateLargeFields(data map[string]any) {
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if k == "content" && len(val) > 1000 {
				data[k] = val[:1000] + "...[truncated]"
			}
		case map[string]any:
			truncateLargeFields(val)
		case []any:
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					truncateLargeFields(m)
				}
			}
		}
	}
}
