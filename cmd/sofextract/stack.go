package main

import (
	"context"
	"log/slog"

	"github.com/portledger/sofextract/internal/config"
	"github.com/portledger/sofextract/internal/extract"
	"github.com/portledger/sofextract/internal/llmcall"
	"github.com/portledger/sofextract/internal/pipeline"
	"github.com/portledger/sofextract/internal/providers"
)

// registryClient resolves the configured pipeline provider on every call so
// config reloads take effect without restarting the pipeline.
type registryClient struct {
	registry *providers.Registry
	cm       *config.Manager
}

func (c *registryClient) Name() string {
	return c.cm.Get().Pipeline.Provider
}

func (c *registryClient) Chat(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
	name := c.cm.Get().Pipeline.Provider
	client, err := c.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return client.Chat(ctx, req)
}

var _ providers.LLMClient = (*registryClient)(nil)

// stack is everything the commands need wired together.
type stack struct {
	registry  *providers.Registry
	calls     *llmcall.Store
	processor *pipeline.Processor
}

// buildStack instantiates providers from config and assembles the pipeline.
func buildStack(cm *config.Manager, logger *slog.Logger) (*stack, error) {
	registry := providers.NewRegistry()
	registry.SetLogger(logger)
	registry.Reload(cm.Get().ToRegistryConfig())

	calls := llmcall.NewStore(llmcall.DefaultLimit)

	svc, err := extract.New(extract.Config{
		Client:   &registryClient{registry: registry, cm: cm},
		Recorder: calls,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	pcfg := cm.Get().Pipeline
	processor, err := pipeline.New(pipeline.Config{
		Extractor:             svc,
		FirstPassTemperature:  pcfg.FirstPassTemperature,
		SecondPassTemperature: &pcfg.SecondPassTemperature,
		Logger:                logger,
	})
	if err != nil {
		return nil, err
	}

	return &stack{
		registry:  registry,
		calls:     calls,
		processor: processor,
	}, nil
}
