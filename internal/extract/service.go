// Package extract implements the two LLM operations of the SOF pipeline: the
// per-pass extraction call and the adjudication call that reconciles two
// candidate extractions against the source text.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/portledger/sofextract/internal/llmcall"
	"github.com/portledger/sofextract/internal/providers"
	"github.com/portledger/sofextract/internal/sof"
)

// Config holds dependencies for the extraction service.
type Config struct {
	// Client is the LLM client used for all calls. Required.
	Client providers.LLMClient

	// Model overrides the client's default model when set.
	Model string

	// Recorder receives a call record per outbound LLM call. Optional.
	Recorder *llmcall.Store

	// Logger for timing-policy warnings. Optional.
	Logger *slog.Logger
}

// Service issues schema-constrained LLM calls and validates their output.
type Service struct {
	client   providers.LLMClient
	model    string
	recorder *llmcall.Store
	logger   *slog.Logger
	schema   json.RawMessage
}

// New creates an extraction service.
func New(cfg Config) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("extract: LLM client is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	schema, err := json.Marshal(sof.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sof schema: %w", err)
	}

	return &Service{
		client:   cfg.Client,
		model:    cfg.Model,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		schema:   schema,
	}, nil
}

// Extract runs a single extraction pass over the document text at the given
// sampling temperature. Lower temperatures bias toward deterministic/literal
// extraction, higher toward broader recall.
func (s *Service) Extract(ctx context.Context, documentText string, temperature float64) (*sof.Record, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, errors.New("extract: document text must not be empty")
	}
	if temperature < 0.0 || temperature > 1.0 {
		return nil, fmt.Errorf("extract: temperature %v outside [0.0, 1.0]", temperature)
	}

	return s.call(ctx, buildExtractionMessages(documentText), temperature, ExtractPromptKey)
}

// Adjudicate reconciles two candidate extractions against the original
// document text, returning one final validated record. The call runs at
// temperature 0.0.
func (s *Service) Adjudicate(ctx context.Context, documentText string, candidateA, candidateB *sof.Record) (*sof.Record, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, errors.New("extract: document text must not be empty")
	}
	if candidateA == nil || candidateB == nil {
		return nil, errors.New("extract: both candidate records are required")
	}

	rawA, err := json.MarshalIndent(candidateA, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize candidate A: %w", err)
	}
	rawB, err := json.MarshalIndent(candidateB, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize candidate B: %w", err)
	}

	return s.call(ctx, buildAdjudicationMessages(documentText, rawA, rawB), 0.0, AdjudicatePromptKey)
}

// call issues one schema-constrained LLM request and decodes the response.
// Decoding is two-stage: strict decode of the provider's parsed JSON first,
// then a lenient re-parse of the raw content as the fallback.
func (s *Service) call(ctx context.Context, messages []providers.Message, temperature float64, promptKey string) (*sof.Record, error) {
	req := &providers.ChatRequest{
		Messages:    messages,
		Model:       s.model,
		Temperature: temperature,
		ResponseFormat: &providers.ResponseFormat{
			Type:       "json_schema",
			Name:       "sof_record",
			JSONSchema: s.schema,
		},
	}

	result, err := s.client.Chat(ctx, req)
	s.record(result, promptKey, temperature)

	if err != nil {
		if errors.Is(err, providers.ErrMissingCredential) {
			return nil, fmt.Errorf("%s: %w", promptKey, err)
		}
		return nil, &ServiceError{Provider: s.client.Name(), Err: err}
	}

	rec, err := s.decode(result)
	if err != nil {
		return nil, err
	}

	if issues := sof.TimingIssues(rec); len(issues) > 0 {
		s.logger.Warn("event timing guidelines violated",
			"prompt_key", promptKey,
			"issues", strings.Join(issues, "; "))
	}

	return rec, nil
}

// decode turns a chat result into a validated record.
func (s *Service) decode(result *providers.ChatResult) (*sof.Record, error) {
	var strictErr error
	if len(result.ParsedJSON) > 0 {
		rec, err := sof.Decode(result.ParsedJSON)
		if err == nil {
			return rec, nil
		}
		strictErr = err
	}

	// Fallback: re-parse the raw textual response as JSON and validate that.
	raw, err := providers.ParseJSONContent(result.Content)
	if err != nil {
		if strictErr != nil {
			return nil, strictErr
		}
		return nil, &sof.ValidationError{Err: err}
	}
	return sof.Decode(raw)
}

func (s *Service) record(result *providers.ChatResult, promptKey string, temperature float64) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(llmcall.FromChatResult(result, llmcall.RecordOptions{
		PromptKey:   promptKey,
		Temperature: &temperature,
	}))
}
