package config

// Config holds sofextract configuration.
// Loaded from ./config.yaml or ~/.sofextract/config.yaml.
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Pipeline     PipelineCfg               `mapstructure:"pipeline" yaml:"pipeline"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       string `mapstructure:"port" yaml:"port"`
	UploadDir  string `mapstructure:"upload_dir" yaml:"upload_dir"`   // Transient storage for uploaded documents
	OutputFile string `mapstructure:"output_file" yaml:"output_file"` // Result snapshot, wiped after each response
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`       // "gemini", "openai"
	Model          string `mapstructure:"model" yaml:"model"`     // Model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax, resolved per call)
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// PipelineCfg configures the dual-pass extraction pipeline.
type PipelineCfg struct {
	Provider              string  `mapstructure:"provider" yaml:"provider"` // Default LLM provider name
	FirstPassTemperature  float64 `mapstructure:"first_pass_temperature" yaml:"first_pass_temperature"`
	SecondPassTemperature float64 `mapstructure:"second_pass_temperature" yaml:"second_pass_temperature"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:       "127.0.0.1",
			Port:       "8080",
			UploadDir:  "uploads",
			OutputFile: "output.json",
		},
		LLMProviders: map[string]LLMProviderCfg{
			"gemini": {
				Type:           "gemini",
				Model:          "gemini-2.5-pro",
				APIKey:         "${GEMINI_API_KEY}",
				TimeoutSeconds: 180,
				MaxRetries:     3,
				Enabled:        true,
			},
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o",
				APIKey:         "${OPENAI_API_KEY}",
				TimeoutSeconds: 180,
				MaxRetries:     3,
				Enabled:        false,
			},
		},
		Pipeline: PipelineCfg{
			Provider:              "gemini",
			FirstPassTemperature:  0.0,
			SecondPassTemperature: 0.3,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}
