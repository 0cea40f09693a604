package inference

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
)

const (
	// DefaultEndpoint is the hosted inference API base URL.
	DefaultEndpoint = "https://api-inference.huggingface.co"

	maxResponseSize = 1 << 20
)

// HuggingFaceConfig configures a HuggingFaceClient.
type HuggingFaceConfig struct {
	Endpoint string
	Model    string
	Token    string
	// Timeout caps a single HTTP exchange. Callers usually also bound ctx.
	Timeout time.Duration
}

// HuggingFaceClient calls an image-to-text model on the Hugging Face inference API.
type HuggingFaceClient struct {
	httpClient *http.Client
	url        string
	token      string
}

// NewHuggingFaceClient builds a client, defaulting the endpoint and model.
func NewHuggingFaceClient(cfg HuggingFaceConfig) *HuggingFaceClient {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HuggingFaceClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        endpoint + "/models/" + model,
		token:      cfg.Token,
	}
}

type captionResult struct {
	GeneratedText string `json:"generated_text"`
}

type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// GenerateCaption posts the raw image and returns the first generated text.
func (c *HuggingFaceClient) GenerateCaption(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(image))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", http.DetectContentType(image))
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, body)
	}

	var results []captionResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", NewFatalError(fmt.Errorf("decode caption response: %w", err))
	}
	if len(results) == 0 || strings.TrimSpace(results[0].GeneratedText) == "" {
		return "", NewFatalError(errors.New("model returned no caption"))
	}
	return strings.TrimSpace(results[0].GeneratedText), nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	detail := string(body)
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		detail = apiErr.Error
		if apiErr.EstimatedTime > 0 {
			detail = fmt.Sprintf("%s (ready in ~%.0fs)", detail, apiErr.EstimatedTime)
		}
	}
	if len(detail) > 200 {
		detail = detail[:200] + "..."
	}

	err := fmt.Errorf("caption API error (status %d): %s", statusCode, detail)

	switch {
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		// 503 also covers a model that is still loading
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
