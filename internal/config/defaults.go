package config

// modelPresets maps each provider to its default chat model.
var modelPresets = map[ProviderType]string{
	ProviderOpenAI: "gpt-3.5-turbo",
	ProviderOllama: "llama3",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:      ProviderOpenAI,
		Model:         "gpt-3.5-turbo",
		Temperature:   0.1,
		MaxTokens:     1000,
		HistoryWindow: 5,
		RateLimitRPM:  60,
		Server: ServerConfig{
			Port:           5002,
			DataDir:        "data",
			MaxUploadBytes: 16 * 1024 * 1024,
			RequestTimeout: "90s",
		},
		Client: ClientConfig{
			ServerURL: "http://127.0.0.1:5002",
			Timeout:   "2m",
			ImagePath: "flowgraph.png",
		},
		Graphviz: GraphvizConfig{
			Binary:  "dot",
			Timeout: "20s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultModel returns the preset model for the given provider.
// Returns the OpenAI preset if the provider is unknown.
func DefaultModel(provider ProviderType) string {
	if m, ok := modelPresets[provider]; ok {
		return m
	}
	return modelPresets[ProviderOpenAI]
}
