// Package providers contains LLM service clients used by the extraction
// pipeline. Clients are request/response only: no shared state is mutated and
// blocking happens solely at the network call boundary.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"regexp"
	"time"
)

// ErrMissingCredential indicates that no API credential is configured for a
// provider. It is a configuration-level failure: the call aborts before any
// network I/O and is never retried.
var ErrMissingCredential = errors.New("missing API credential")

// LLMClient is the interface for chat/completion requests.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "gemini").
	Name() string
}

// CredentialSource returns the API credential for a request. It is consulted
// on every call rather than cached, so rotated credentials take effect on the
// next request. An empty result means no credential is configured.
type CredentialSource func() string

// envVarPattern matches ${ENV_VAR} references.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// EnvCredential returns a CredentialSource that expands ${ENV_VAR} references
// in template at call time.
func EnvCredential(template string) CredentialSource {
	return func() string {
		return ResolveEnvVars(template)
	}
}

// StaticCredential returns a CredentialSource with a fixed value.
func StaticCredential(key string) CredentialSource {
	return func() string { return key }
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// ResponseFormat constrains the shape of the model's output.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_schema"
	Name       string          `json:"name,omitempty"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters. Temperature is always transmitted: 0.0 is a
	// meaningful setting (deterministic/literal extraction), not "unset".
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Timeout     time.Duration

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // Set when the content parsed strictly as JSON

	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
