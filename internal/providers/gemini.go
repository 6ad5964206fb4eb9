package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	GeminiName    = "gemini"
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	// Credential is consulted on every request. Required.
	Credential CredentialSource

	DefaultModel string
	BaseURL      string
	Timeout      time.Duration

	MaxRetries uint          // Retry attempts for transient failures (default: 3)
	RetryDelay time.Duration // Base delay between retries (default: 1s)

	HTTPClient *http.Client // Optional (tests)
}

// GeminiClient implements LLMClient against the Generative Language API.
type GeminiClient struct {
	credential   CredentialSource
	baseURL      string
	defaultModel string
	client       *http.Client
	maxRetries   uint
	retryDelay   time.Duration
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemini-2.5-pro"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Credential == nil {
		cfg.Credential = func() string { return "" }
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &GeminiClient{
		credential:   cfg.Credential,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		client:       httpClient,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// Chat sends a generateContent request.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  GeminiName,
	}

	// Credential is resolved per call, before any network I/O.
	apiKey := c.credential()
	if apiKey == "" {
		result.ErrorType = "missing_credential"
		result.ErrorMessage = ErrMissingCredential.Error()
		return result, ErrMissingCredential
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	gReq, err := buildGeminiRequest(req)
	if err != nil {
		result.ErrorType = "request_build_error"
		result.ErrorMessage = err.Error()
		return result, err
	}

	body, err := json.Marshal(gReq)
	if err != nil {
		result.ErrorType = "request_marshal_error"
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)

	var gResp geminiResponse
	attempts := 0
	err = retry.Do(
		func() error {
			attempts++
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("x-goog-api-key", apiKey)

			resp, err := c.client.Do(httpReq)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			respBody, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				apiErr := fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(respBody))
				if retryableStatus(resp.StatusCode) {
					return apiErr
				}
				return retry.Unrecoverable(apiErr)
			}

			if err := json.Unmarshal(respBody, &gResp); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)

	result.Attempts = attempts
	result.ExecutionTime = time.Since(start)

	if err != nil {
		result.ErrorType = "http_error"
		result.ErrorMessage = err.Error()
		return result, err
	}

	if len(gResp.Candidates) == 0 {
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no candidates in response"
		return result, fmt.Errorf("no candidates in response")
	}

	var content strings.Builder
	for _, part := range gResp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}

	result.Success = true
	result.Content = content.String()
	result.ModelUsed = model
	result.PromptTokens = gResp.UsageMetadata.PromptTokenCount
	result.CompletionTokens = gResp.UsageMetadata.CandidatesTokenCount
	result.TotalTokens = gResp.UsageMetadata.TotalTokenCount

	// When structured output was requested, surface the content as parsed
	// JSON only if it decodes strictly; lenient recovery is the caller's
	// fallback path.
	if req.ResponseFormat != nil && result.Content != "" {
		var parsed json.RawMessage
		if err := json.Unmarshal([]byte(result.Content), &parsed); err == nil {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

// retryableStatus reports whether an HTTP status warrants a retry.
func retryableStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500
}

// buildGeminiRequest converts a ChatRequest into the generateContent shape.
// System messages map to systemInstruction; user messages become contents.
func buildGeminiRequest(req *ChatRequest) (*geminiRequest, error) {
	gReq := &geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature: req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		gReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			gReq.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: m.Content}},
			}
		default:
			gReq.Contents = append(gReq.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}

	if req.ResponseFormat != nil {
		gReq.GenerationConfig.ResponseMIMEType = "application/json"
		if len(req.ResponseFormat.JSONSchema) > 0 {
			schema, err := geminiResponseSchema(req.ResponseFormat.JSONSchema)
			if err != nil {
				return nil, err
			}
			gReq.GenerationConfig.ResponseSchema = schema
		}
	}

	return gReq, nil
}

// Generative Language API types

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Verify interface
var _ LLMClient = (*GeminiClient)(nil)
